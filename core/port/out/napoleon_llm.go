package out

import (
	"context"

	"napoleon_server/core/domain"
)

// PriorityEstimate is the LLM's base urgency/impact rating for one message.
type PriorityEstimate struct {
	Score     int      `json:"score"` // 0-100, clamped
	Summary   string   `json:"summary,omitempty"`
	Reasoning []string `json:"reasoning,omitempty"`
}

// LLMClient is the outbound port to the language model. Every method can
// fail (network, timeout, malformed JSON, open circuit); callers must treat
// any error as "use the deterministic fallback".
type LLMClient interface {
	// EstimatePriority rates urgency/business-impact 0-100.
	EstimatePriority(ctx context.Context, msg *domain.Message, body string) (*PriorityEstimate, error)

	// ExtractActions derives structured action items, meetings, decisions
	// and communications from the message content.
	ExtractActions(ctx context.Context, msg *domain.Message, body string, priorityCtx domain.PriorityTier) (*domain.ExtractionResult, error)

	// EstimateIntelligence rates the notification sub-scores.
	EstimateIntelligence(ctx context.Context, msg *domain.Message) (*domain.IntelligenceScores, error)

	// SummarizeDigest produces the executive digest text for a set of
	// high-priority messages.
	SummarizeDigest(ctx context.Context, msgs []*domain.Message) (string, error)
}
