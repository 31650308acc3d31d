package http

import (
	"napoleon_server/core/domain"
	"napoleon_server/core/service/notification"
	"napoleon_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// NotificationHandler handles smart notification requests.
type NotificationHandler struct {
	service *notification.Service
	rules   domain.NotificationRuleRepository
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(service *notification.Service, rules domain.NotificationRuleRepository) *NotificationHandler {
	return &NotificationHandler{service: service, rules: rules}
}

// Register registers notification routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	notifications := router.Group("/notifications")
	notifications.Get("/", h.List)
	notifications.Post("/:id/read", h.MarkRead)
	notifications.Post("/:id/dismiss", h.Dismiss)

	notifications.Get("/preferences", h.GetPreferences)
	notifications.Put("/preferences", h.SavePreferences)

	notifications.Get("/rules", h.ListRules)
	notifications.Post("/rules", h.CreateRule)
	notifications.Delete("/rules/:id", h.DeleteRule)
}

// List returns the user's notifications, optionally filtered by status.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var status *domain.NotificationStatus
	if s := c.Query("status"); s != "" {
		st := domain.NotificationStatus(s)
		status = &st
	}

	pagination := response.GetPagination(c, 50, 100)
	notifications, err := h.service.List(c.Context(), userID, status, pagination.Limit, pagination.Offset)
	if err != nil {
		return domainError(c, err, "notifications")
	}
	return response.OK(c, notifications)
}

// MarkRead transitions a delivered notification to read.
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	n, err := h.service.MarkRead(c.Context(), userID, id)
	if err != nil {
		return domainError(c, err, "notification")
	}
	return response.OK(c, n)
}

// Dismiss transitions a notification to dismissed.
func (h *NotificationHandler) Dismiss(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	n, err := h.service.Dismiss(c.Context(), userID, id)
	if err != nil {
		return domainError(c, err, "notification")
	}
	return response.OK(c, n)
}

// GetPreferences returns the user's notification preferences.
func (h *NotificationHandler) GetPreferences(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	prefs, err := h.service.Preferences(c.Context(), userID)
	if err != nil {
		return domainError(c, err, "preferences")
	}
	return response.OK(c, prefs)
}

// SavePreferences replaces the user's notification preferences.
func (h *NotificationHandler) SavePreferences(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var prefs domain.NotificationPreferences
	if err := c.BodyParser(&prefs); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	prefs.UserID = userID

	if err := h.service.SavePreferences(c.Context(), &prefs); err != nil {
		return domainError(c, err, "preferences")
	}
	return response.OK(c, prefs)
}

// ListRules returns the user's notification routing rules.
func (h *NotificationHandler) ListRules(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	rules, err := h.rules.ListByUser(c.Context(), userID)
	if err != nil {
		return domainError(c, err, "rules")
	}
	return response.OK(c, rules)
}

// CreateRule adds a notification routing rule.
func (h *NotificationHandler) CreateRule(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var rule domain.NotificationRule
	if err := c.BodyParser(&rule); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if rule.Name == "" {
		return response.BadRequest(c, "name is required")
	}
	if len(rule.Channels) == 0 {
		return response.BadRequest(c, "channels is required")
	}
	rule.UserID = userID
	if rule.MinTier != "" {
		rule.MinTier = domain.NormalizeTier(string(rule.MinTier))
	}

	if err := h.rules.Create(c.Context(), &rule); err != nil {
		return domainError(c, err, "rule")
	}
	return response.Created(c, rule)
}

// DeleteRule removes a notification routing rule.
func (h *NotificationHandler) DeleteRule(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.rules.Delete(c.Context(), userID, id); err != nil {
		return domainError(c, err, "rule")
	}
	return response.NoContent(c)
}
