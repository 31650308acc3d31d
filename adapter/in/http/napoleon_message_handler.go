package http

import (
	"napoleon_server/core/domain"
	"napoleon_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MessageHandler handles message listing and lifecycle requests.
type MessageHandler struct {
	messages domain.MessageRepository
	analyses domain.MessageAnalysisRepository
	actions  domain.ActionItemRepository
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(messages domain.MessageRepository, analyses domain.MessageAnalysisRepository, actions domain.ActionItemRepository) *MessageHandler {
	return &MessageHandler{messages: messages, analyses: analyses, actions: actions}
}

// Register registers message routes.
func (h *MessageHandler) Register(router fiber.Router) {
	messages := router.Group("/messages")
	messages.Get("/", h.List)
	messages.Get("/:id", h.Get)
	messages.Patch("/:id/status", h.UpdateStatus)
	messages.Get("/:id/analysis", h.GetAnalysis)
	messages.Get("/:id/action-items", h.ListActionItems)

	actions := router.Group("/action-items")
	actions.Get("/", h.ListAllActionItems)
	actions.Patch("/:id/status", h.UpdateActionItemStatus)
}

// List returns the user's messages, filterable by platform, status and tier.
func (h *MessageHandler) List(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	pagination := response.GetPagination(c, 50, 100)
	filter := &domain.MessageFilter{
		UserID: userID,
		Limit:  pagination.Limit,
		Offset: pagination.Offset,
	}

	if p := c.Query("platform"); p != "" {
		if !domain.IsValidPlatform(p) {
			return response.BadRequest(c, "unknown platform: "+p)
		}
		platform := domain.Platform(p)
		filter.Platform = &platform
	}
	if s := c.Query("status"); s != "" {
		status := domain.MessageStatus(s)
		filter.Status = &status
	}
	if t := c.Query("tier"); t != "" {
		filter.Tiers = []domain.PriorityTier{domain.NormalizeTier(t)}
	}

	messages, err := h.messages.List(c.Context(), filter)
	if err != nil {
		return domainError(c, err, "messages")
	}
	return response.OK(c, messages)
}

// Get returns one message.
func (h *MessageHandler) Get(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	msg, err := h.messages.GetByID(c.Context(), userID, id)
	if err != nil {
		return domainError(c, err, "message")
	}
	return response.OK(c, msg)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves a message between user-facing states.
func (h *MessageHandler) UpdateStatus(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	status := domain.MessageStatus(req.Status)
	switch status {
	case domain.MessageStatusUnread, domain.MessageStatusRead, domain.MessageStatusArchived, domain.MessageStatusSnoozed:
	default:
		return response.BadRequest(c, "unknown status: "+req.Status)
	}

	if err := h.messages.UpdateStatus(c.Context(), userID, id, status); err != nil {
		return domainError(c, err, "message")
	}
	return response.OK(c, fiber.Map{"id": id, "status": status})
}

// GetAnalysis returns the latest persisted analysis record for a message.
func (h *MessageHandler) GetAnalysis(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	analysis, err := h.analyses.GetByMessageID(c.Context(), userID, id)
	if err != nil {
		return domainError(c, err, "analysis")
	}
	return response.OK(c, analysis)
}

// ListActionItems returns the action items extracted from one message.
func (h *MessageHandler) ListActionItems(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	items, err := h.actions.List(c.Context(), &domain.ActionItemFilter{UserID: userID, MessageID: id})
	if err != nil {
		return domainError(c, err, "action items")
	}
	return response.OK(c, items)
}

// ListAllActionItems returns the user's action items across messages.
func (h *MessageHandler) ListAllActionItems(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	pagination := response.GetPagination(c, 50, 100)
	filter := &domain.ActionItemFilter{
		UserID: userID,
		Limit:  pagination.Limit,
		Offset: pagination.Offset,
	}
	if s := c.Query("status"); s != "" {
		status := domain.ActionItemStatus(s)
		filter.Status = &status
	}

	items, err := h.actions.List(c.Context(), filter)
	if err != nil {
		return domainError(c, err, "action items")
	}
	return response.OK(c, items)
}

type updateActionStatusRequest struct {
	Status string `json:"status"`
}

// UpdateActionItemStatus moves an action item between lifecycle states.
func (h *MessageHandler) UpdateActionItemStatus(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req updateActionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	status := domain.ActionItemStatus(req.Status)
	switch status {
	case domain.ActionStatusPending, domain.ActionStatusInProgress, domain.ActionStatusCompleted, domain.ActionStatusCancelled:
	default:
		return response.BadRequest(c, "unknown status: "+req.Status)
	}

	if err := h.actions.UpdateStatus(c.Context(), userID, id, status); err != nil {
		return domainError(c, err, "action item")
	}
	return response.OK(c, fiber.Map{"id": id, "status": status})
}
