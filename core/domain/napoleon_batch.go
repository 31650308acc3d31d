package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Batch processing - AI analysis batches and rate-limit tracking
// =============================================================================

const (
	// MaxBatchSize caps how many messages one batch processes; extra ids are
	// dropped and must be resubmitted.
	MaxBatchSize = 10

	// MaxBatchesPerHour is the per-user rolling-hour batch request limit.
	MaxBatchesPerHour = 12

	// BatchWindow is the sliding window for the batch rate limit.
	BatchWindow = time.Hour
)

// BatchResult summarizes one ProcessBatch call.
// RateLimited is a first-class outcome, not an error.
type BatchResult struct {
	Processed   int    `json:"processed"`
	Failed      int    `json:"failed"`
	RateLimited bool   `json:"rate_limited"`
	BatchID     string `json:"batch_id,omitempty"`
}

// BatchRecord is one rate-limit tracker entry, written once per batch attempt
// that proceeds (not per message).
type BatchRecord struct {
	ID           int64     `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	BatchID      string    `json:"batch_id"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// BatchRecordRepository - batch tracker storage interface.
type BatchRecordRepository interface {
	Create(ctx context.Context, record *BatchRecord) error
	CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
}
