package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"napoleon_server/core/domain"
	"napoleon_server/pkg/logger"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// MessageAdapter implements domain.MessageRepository using PostgreSQL.
type MessageAdapter struct {
	db *sqlx.DB
}

// NewMessageAdapter creates a new message adapter.
func NewMessageAdapter(db *sqlx.DB) *MessageAdapter {
	return &MessageAdapter{db: db}
}

// messageRow represents the database row.
type messageRow struct {
	ID            int64          `db:"id"`
	UserID        uuid.UUID      `db:"user_id"`
	Platform      string         `db:"platform"`
	SenderEmail   string         `db:"sender_email"`
	SenderName    sql.NullString `db:"sender_name"`
	Subject       string         `db:"subject"`
	BodyPreview   sql.NullString `db:"body_preview"`
	ReceivedAt    time.Time      `db:"received_at"`
	Status        string         `db:"status"`
	PriorityScore int            `db:"priority_score"`
	PriorityTier  sql.NullString `db:"priority_tier"`
	Summary       sql.NullString `db:"summary"`
	IsVIP         bool           `db:"is_vip"`
	AnalyzedAt    sql.NullTime   `db:"analyzed_at"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r *messageRow) toDomain() *domain.Message {
	m := &domain.Message{
		ID:            r.ID,
		UserID:        r.UserID,
		Platform:      domain.Platform(r.Platform),
		SenderEmail:   r.SenderEmail,
		Subject:       r.Subject,
		ReceivedAt:    r.ReceivedAt,
		Status:        domain.MessageStatus(r.Status),
		PriorityScore: r.PriorityScore,
		IsVIP:         r.IsVIP,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}

	if r.SenderName.Valid {
		m.SenderName = r.SenderName.String
	}
	if r.BodyPreview.Valid {
		m.BodyPreview = r.BodyPreview.String
	}
	if r.PriorityTier.Valid {
		m.PriorityTier = domain.PriorityTier(r.PriorityTier.String)
	}
	if r.Summary.Valid {
		m.Summary = r.Summary.String
	}
	if r.AnalyzedAt.Valid {
		m.AnalyzedAt = &r.AnalyzedAt.Time
	}

	return m
}

// GetByID retrieves a message by ID, scoped to the owning user.
func (a *MessageAdapter) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Message, error) {
	var row messageRow
	query := `SELECT * FROM messages WHERE id = $1 AND user_id = $2`
	if err := a.db.GetContext(ctx, &row, query, id, userID); err != nil {
		return nil, translateErr(err)
	}
	return row.toDomain(), nil
}

// List lists messages with filter, newest first.
func (a *MessageAdapter) List(ctx context.Context, filter *domain.MessageFilter) ([]*domain.Message, error) {
	baseQuery := `SELECT * FROM messages WHERE user_id = $1`
	args := []any{filter.UserID}
	argIndex := 2

	if filter.Platform != nil {
		baseQuery += fmt.Sprintf(` AND platform = $%d`, argIndex)
		args = append(args, string(*filter.Platform))
		argIndex++
	}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(` AND status = $%d`, argIndex)
		args = append(args, string(*filter.Status))
		argIndex++
	}
	if len(filter.Tiers) > 0 {
		tiers := make([]string, len(filter.Tiers))
		for i, t := range filter.Tiers {
			tiers[i] = string(t)
		}
		baseQuery += fmt.Sprintf(` AND priority_tier = ANY($%d)`, argIndex)
		args = append(args, tiers)
		argIndex++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	baseQuery += fmt.Sprintf(` ORDER BY received_at DESC LIMIT $%d OFFSET $%d`, argIndex, argIndex+1)
	args = append(args, limit, filter.Offset)

	var rows []messageRow
	if err := a.db.SelectContext(ctx, &rows, baseQuery, args...); err != nil {
		return nil, err
	}

	messages := make([]*domain.Message, len(rows))
	for i, row := range rows {
		messages[i] = row.toDomain()
	}
	return messages, nil
}

// UpdateAnalysis persists the scorer's results onto the message.
func (a *MessageAdapter) UpdateAnalysis(ctx context.Context, userID uuid.UUID, id int64, update *domain.MessageAnalysisUpdate) error {
	query := `
		UPDATE messages
		SET priority_score = $1, priority_tier = $2, summary = $3, is_vip = $4,
		    analyzed_at = NOW(), updated_at = NOW()
		WHERE id = $5 AND user_id = $6
	`
	result, err := a.db.ExecContext(ctx, query,
		update.PriorityScore,
		string(update.PriorityTier),
		update.Summary,
		update.IsVIP,
		id,
		userID,
	)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStatus moves a message between user-facing states.
func (a *MessageAdapter) UpdateStatus(ctx context.Context, userID uuid.UUID, id int64, status domain.MessageStatus) error {
	result, err := a.db.ExecContext(ctx,
		`UPDATE messages SET status = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`,
		string(status), id, userID,
	)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Ensure interface compliance
var _ domain.MessageRepository = (*MessageAdapter)(nil)

// =============================================================================
// MessageAnalysisAdapter - analysis audit records
// =============================================================================

// MessageAnalysisAdapter implements domain.MessageAnalysisRepository.
type MessageAnalysisAdapter struct {
	db *sqlx.DB
}

// NewMessageAnalysisAdapter creates a new analysis record adapter.
func NewMessageAnalysisAdapter(db *sqlx.DB) *MessageAnalysisAdapter {
	return &MessageAnalysisAdapter{db: db}
}

type messageAnalysisRow struct {
	ID                int64          `db:"id"`
	UserID            uuid.UUID      `db:"user_id"`
	MessageID         int64          `db:"message_id"`
	BatchID           sql.NullString `db:"batch_id"`
	BaseScore         int            `db:"base_score"`
	VIPBoost          int            `db:"vip_boost"`
	FinalScore        int            `db:"final_score"`
	Tier              string         `db:"tier"`
	UrgencyIndicators []byte         `db:"urgency_indicators"`
	LLMUsed           bool           `db:"llm_used"`
	CreatedAt         time.Time      `db:"created_at"`
}

func (r *messageAnalysisRow) toDomain() *domain.MessageAnalysis {
	analysis := &domain.MessageAnalysis{
		ID:         r.ID,
		UserID:     r.UserID,
		MessageID:  r.MessageID,
		BaseScore:  r.BaseScore,
		VIPBoost:   r.VIPBoost,
		FinalScore: r.FinalScore,
		Tier:       domain.PriorityTier(r.Tier),
		LLMUsed:    r.LLMUsed,
		CreatedAt:  r.CreatedAt,
	}
	if r.BatchID.Valid {
		analysis.BatchID = r.BatchID.String
	}
	if len(r.UrgencyIndicators) > 0 {
		if err := json.Unmarshal(r.UrgencyIndicators, &analysis.UrgencyIndicators); err != nil {
			logger.WithError(err).WithField("analysis_id", r.ID).Warn("corrupt urgency indicators, dropping")
			analysis.UrgencyIndicators = nil
		}
	}
	return analysis
}

// Create inserts one analysis record.
func (a *MessageAnalysisAdapter) Create(ctx context.Context, analysis *domain.MessageAnalysis) error {
	query := `
		INSERT INTO message_analyses (user_id, message_id, batch_id, base_score, vip_boost, final_score, tier, urgency_indicators, llm_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, created_at
	`
	var batchID sql.NullString
	if analysis.BatchID != "" {
		batchID = sql.NullString{String: analysis.BatchID, Valid: true}
	}

	var indicators []byte
	if len(analysis.UrgencyIndicators) > 0 {
		indicators, _ = json.Marshal(analysis.UrgencyIndicators)
	}

	return a.db.QueryRowContext(ctx, query,
		analysis.UserID,
		analysis.MessageID,
		batchID,
		analysis.BaseScore,
		analysis.VIPBoost,
		analysis.FinalScore,
		string(analysis.Tier),
		indicators,
		analysis.LLMUsed,
	).Scan(&analysis.ID, &analysis.CreatedAt)
}

// GetByMessageID returns the most recent analysis for a message.
func (a *MessageAnalysisAdapter) GetByMessageID(ctx context.Context, userID uuid.UUID, messageID int64) (*domain.MessageAnalysis, error) {
	var row messageAnalysisRow
	query := `
		SELECT * FROM message_analyses
		WHERE user_id = $1 AND message_id = $2
		ORDER BY created_at DESC LIMIT 1
	`
	if err := a.db.GetContext(ctx, &row, query, userID, messageID); err != nil {
		return nil, translateErr(err)
	}
	return row.toDomain(), nil
}

// Ensure interface compliance
var _ domain.MessageAnalysisRepository = (*MessageAnalysisAdapter)(nil)
