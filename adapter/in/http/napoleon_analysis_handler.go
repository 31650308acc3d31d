package http

import (
	"napoleon_server/core/service/analysis"
	"napoleon_server/pkg/apperr"
	"napoleon_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AnalysisHandler handles AI batch analysis requests.
type AnalysisHandler struct {
	processor *analysis.Processor
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(processor *analysis.Processor) *AnalysisHandler {
	return &AnalysisHandler{processor: processor}
}

// Register registers analysis routes.
func (h *AnalysisHandler) Register(router fiber.Router) {
	router.Post("/messages/analyze-batch", h.AnalyzeBatch)
	router.Get("/messages/analyze-batch/quota", h.Quota)
}

type analyzeBatchRequest struct {
	MessageIDs []int64 `json:"message_ids"`
}

// AnalyzeBatch runs the analysis pipeline over a batch of messages.
// A rate-limited batch is a 429 with the standard envelope, not a failure
// of any individual message.
func (h *AnalysisHandler) AnalyzeBatch(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req analyzeBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if len(req.MessageIDs) == 0 {
		return response.BadRequest(c, "message_ids is required")
	}

	result := h.processor.ProcessBatch(c.Context(), userID, req.MessageIDs)
	if result.RateLimited {
		appErr := apperr.RateLimited("")
		return response.Error(c, appErr.Status, appErr.Code, appErr.Message)
	}
	return response.OK(c, result)
}

// Quota reports how many batch requests remain in the rolling window.
func (h *AnalysisHandler) Quota(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	return response.OK(c, fiber.Map{
		"remaining": h.processor.Remaining(c.Context(), userID),
		"allowed":   h.processor.CheckRateLimit(c.Context(), userID),
	})
}
