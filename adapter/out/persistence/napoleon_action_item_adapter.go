package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"napoleon_server/core/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ActionItemAdapter implements domain.ActionItemRepository using PostgreSQL.
type ActionItemAdapter struct {
	db *sqlx.DB
}

// NewActionItemAdapter creates a new action item adapter.
func NewActionItemAdapter(db *sqlx.DB) *ActionItemAdapter {
	return &ActionItemAdapter{db: db}
}

// actionItemRow represents the database row. Dependencies and stakeholders
// are jsonb columns.
type actionItemRow struct {
	ID                   int64          `db:"id"`
	UserID               uuid.UUID      `db:"user_id"`
	MessageID            int64          `db:"message_id"`
	Title                string         `db:"title"`
	Description          sql.NullString `db:"description"`
	Category             sql.NullString `db:"category"`
	Priority             string         `db:"priority"`
	EstimatedDuration    sql.NullString `db:"estimated_duration"`
	Dependencies         []byte         `db:"dependencies"`
	Stakeholders         []byte         `db:"stakeholders"`
	BusinessImpact       sql.NullString `db:"business_impact"`
	ConfidentialityLevel sql.NullString `db:"confidentiality_level"`
	DueDate              sql.NullTime   `db:"due_date"`
	Status               string         `db:"status"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

func (r *actionItemRow) toDomain() *domain.ActionItem {
	item := &domain.ActionItem{
		ID:        r.ID,
		UserID:    r.UserID,
		MessageID: r.MessageID,
		Title:     r.Title,
		Priority:  domain.PriorityTier(r.Priority),
		Status:    domain.ActionItemStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}

	if r.Description.Valid {
		item.Description = r.Description.String
	}
	if r.Category.Valid {
		item.Category = r.Category.String
	}
	if r.EstimatedDuration.Valid {
		item.EstimatedDuration = r.EstimatedDuration.String
	}
	if r.BusinessImpact.Valid {
		item.BusinessImpact = r.BusinessImpact.String
	}
	if r.ConfidentialityLevel.Valid {
		item.ConfidentialityLevel = r.ConfidentialityLevel.String
	}
	if r.DueDate.Valid {
		item.DueDate = &r.DueDate.Time
	}
	if len(r.Dependencies) > 0 {
		json.Unmarshal(r.Dependencies, &item.Dependencies)
	}
	if len(r.Stakeholders) > 0 {
		json.Unmarshal(r.Stakeholders, &item.Stakeholders)
	}

	return item
}

// Create inserts an action item. Priority is normalized before storage so
// the column only ever holds canonical tier values.
func (a *ActionItemAdapter) Create(ctx context.Context, item *domain.ActionItem) error {
	query := `
		INSERT INTO action_items (user_id, message_id, title, description, category, priority, estimated_duration, dependencies, stakeholders, business_impact, confidentiality_level, due_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	var deps, stakeholders []byte
	if len(item.Dependencies) > 0 {
		deps, _ = json.Marshal(item.Dependencies)
	}
	if len(item.Stakeholders) > 0 {
		stakeholders, _ = json.Marshal(item.Stakeholders)
	}

	status := item.Status
	if status == "" {
		status = domain.ActionStatusPending
	}

	return a.db.QueryRowContext(ctx, query,
		item.UserID,
		item.MessageID,
		item.Title,
		item.Description,
		item.Category,
		string(domain.NormalizeTier(string(item.Priority))),
		item.EstimatedDuration,
		deps,
		stakeholders,
		item.BusinessImpact,
		item.ConfidentialityLevel,
		item.DueDate,
		string(status),
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

// List lists action items with filter, newest first.
func (a *ActionItemAdapter) List(ctx context.Context, filter *domain.ActionItemFilter) ([]*domain.ActionItem, error) {
	baseQuery := `SELECT * FROM action_items WHERE user_id = $1`
	args := []any{filter.UserID}
	argIndex := 2

	if filter.MessageID != 0 {
		baseQuery += fmt.Sprintf(` AND message_id = $%d`, argIndex)
		args = append(args, filter.MessageID)
		argIndex++
	}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(` AND status = $%d`, argIndex)
		args = append(args, string(*filter.Status))
		argIndex++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	baseQuery += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, argIndex, argIndex+1)
	args = append(args, limit, filter.Offset)

	var rows []actionItemRow
	if err := a.db.SelectContext(ctx, &rows, baseQuery, args...); err != nil {
		return nil, err
	}

	items := make([]*domain.ActionItem, len(rows))
	for i, row := range rows {
		items[i] = row.toDomain()
	}
	return items, nil
}

// UpdateStatus moves an action item between lifecycle states.
func (a *ActionItemAdapter) UpdateStatus(ctx context.Context, userID uuid.UUID, id int64, status domain.ActionItemStatus) error {
	result, err := a.db.ExecContext(ctx,
		`UPDATE action_items SET status = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`,
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
var _ domain.ActionItemRepository = (*ActionItemAdapter)(nil)
