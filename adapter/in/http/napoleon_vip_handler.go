package http

import (
	"strings"

	"napoleon_server/core/domain"
	"napoleon_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// VipHandler handles VIP contact CRUD requests.
type VipHandler struct {
	vips domain.VipContactRepository
}

// NewVipHandler creates a new VIP contact handler.
func NewVipHandler(vips domain.VipContactRepository) *VipHandler {
	return &VipHandler{vips: vips}
}

// Register registers VIP contact routes.
func (h *VipHandler) Register(router fiber.Router) {
	vips := router.Group("/vip-contacts")
	vips.Get("/", h.List)
	vips.Put("/", h.Upsert)
	vips.Delete("/:email", h.Delete)
}

// List returns the user's VIP contacts.
func (h *VipHandler) List(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	contacts, err := h.vips.ListByUser(c.Context(), userID)
	if err != nil {
		return domainError(c, err, "vip contacts")
	}
	return response.OK(c, contacts)
}

// Upsert creates or updates a VIP contact. The (user, email) pair is the
// identity; repeated calls update in place.
func (h *VipHandler) Upsert(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var contact domain.VipContact
	if err := c.BodyParser(&contact); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	contact.Email = strings.TrimSpace(contact.Email)
	if contact.Email == "" {
		return response.BadRequest(c, "email is required")
	}
	if contact.PriorityLevel < 1 || contact.PriorityLevel > 10 {
		return response.BadRequest(c, "priority_level must be between 1 and 10")
	}
	contact.UserID = userID

	if err := h.vips.Upsert(c.Context(), &contact); err != nil {
		return domainError(c, err, "vip contact")
	}
	return response.OK(c, contact)
}

// Delete removes a VIP contact by email.
func (h *VipHandler) Delete(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	email := c.Params("email")
	if email == "" {
		return response.BadRequest(c, "email is required")
	}

	if err := h.vips.Delete(c.Context(), userID, email); err != nil {
		return domainError(c, err, "vip contact")
	}
	return response.NoContent(c)
}
