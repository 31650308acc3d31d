package persistence

import (
	"context"
	"time"

	"napoleon_server/core/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// BatchRecordAdapter implements domain.BatchRecordRepository using
// PostgreSQL. Rows double as the durable rate-limit audit trail behind the
// redis sliding window.
type BatchRecordAdapter struct {
	db *sqlx.DB
}

// NewBatchRecordAdapter creates a new batch record adapter.
func NewBatchRecordAdapter(db *sqlx.DB) *BatchRecordAdapter {
	return &BatchRecordAdapter{db: db}
}

// Create inserts one tracker row per batch attempt.
func (a *BatchRecordAdapter) Create(ctx context.Context, record *domain.BatchRecord) error {
	query := `
		INSERT INTO batch_records (user_id, batch_id, message_count, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`
	return a.db.QueryRowContext(ctx, query,
		record.UserID,
		record.BatchID,
		record.MessageCount,
	).Scan(&record.ID, &record.CreatedAt)
}

// CountSince returns how many batches the user started after the cutoff.
func (a *BatchRecordAdapter) CountSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := a.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM batch_records WHERE user_id = $1 AND created_at >= $2`,
		userID, since,
	)
	return count, err
}

// Ensure interface compliance
var _ domain.BatchRecordRepository = (*BatchRecordAdapter)(nil)
