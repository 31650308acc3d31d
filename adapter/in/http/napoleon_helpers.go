// Package http contains the inbound HTTP handlers.
package http

import (
	"errors"

	"napoleon_server/core/domain"
	"napoleon_server/pkg/apperr"
	"napoleon_server/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetUserID extracts the authenticated user id set by the auth middleware.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userIDVal := c.Locals("user_id")
	if userIDVal == nil {
		return uuid.Nil, apperr.Unauthorized("")
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		return uuid.Nil, apperr.Unauthorized("")
	}
	return userID, nil
}

// domainError maps domain sentinels onto API errors before falling back to
// the generic AppError extraction.
func domainError(c *fiber.Ctx, err error, resource string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, resource+" not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		appErr := apperr.InvalidTransition(resource, "", "")
		return response.Error(c, appErr.Status, appErr.Code, resource+": invalid state transition")
	}
	appErr := apperr.From(err)
	return response.Error(c, appErr.Status, appErr.Code, appErr.Message)
}

// parseID reads an int64 path parameter.
func parseID(c *fiber.Ctx, name string) (int64, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput(name, "must be a positive integer")
	}
	return int64(id), nil
}
