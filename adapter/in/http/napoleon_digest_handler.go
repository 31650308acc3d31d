package http

import (
	"napoleon_server/core/service/digest"
	"napoleon_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DigestHandler handles executive digest requests.
type DigestHandler struct {
	service *digest.Service
}

// NewDigestHandler creates a new digest handler.
func NewDigestHandler(service *digest.Service) *DigestHandler {
	return &DigestHandler{service: service}
}

// Register registers digest routes.
func (h *DigestHandler) Register(router fiber.Router) {
	router.Get("/digest", h.Get)
}

// Get generates the executive digest for the user's highest priority
// messages.
func (h *DigestHandler) Get(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	d, err := h.service.Generate(c.Context(), userID)
	if err != nil {
		return domainError(c, err, "digest")
	}
	return response.OK(c, d)
}
