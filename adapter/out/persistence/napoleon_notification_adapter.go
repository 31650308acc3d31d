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

// SmartNotificationAdapter implements domain.SmartNotificationRepository
// using PostgreSQL.
type SmartNotificationAdapter struct {
	db *sqlx.DB
}

// NewSmartNotificationAdapter creates a new notification adapter.
func NewSmartNotificationAdapter(db *sqlx.DB) *SmartNotificationAdapter {
	return &SmartNotificationAdapter{db: db}
}

// smartNotificationRow represents the database row. Channels, scores and
// reasoning are jsonb columns.
type smartNotificationRow struct {
	ID          int64        `db:"id"`
	UserID      uuid.UUID    `db:"user_id"`
	MessageID   int64        `db:"message_id"`
	Priority    string       `db:"priority"`
	Channels    []byte       `db:"channels"`
	Scores      []byte       `db:"scores"`
	Overall     float64      `db:"overall"`
	Status      string       `db:"status"`
	Reasoning   []byte       `db:"reasoning"`
	CreatedAt   time.Time    `db:"created_at"`
	DeliveredAt sql.NullTime `db:"delivered_at"`
	ReadAt      sql.NullTime `db:"read_at"`
}

func (r *smartNotificationRow) toDomain() *domain.SmartNotification {
	n := &domain.SmartNotification{
		ID:        r.ID,
		UserID:    r.UserID,
		MessageID: r.MessageID,
		Priority:  domain.PriorityTier(r.Priority),
		Overall:   r.Overall,
		Status:    domain.NotificationStatus(r.Status),
		CreatedAt: r.CreatedAt,
	}

	if len(r.Channels) > 0 {
		json.Unmarshal(r.Channels, &n.Channels)
	}
	if len(r.Scores) > 0 {
		json.Unmarshal(r.Scores, &n.Scores)
	}
	if len(r.Reasoning) > 0 {
		json.Unmarshal(r.Reasoning, &n.Reasoning)
	}
	if r.DeliveredAt.Valid {
		n.DeliveredAt = &r.DeliveredAt.Time
	}
	if r.ReadAt.Valid {
		n.ReadAt = &r.ReadAt.Time
	}

	return n
}

// Create inserts a notification.
func (a *SmartNotificationAdapter) Create(ctx context.Context, n *domain.SmartNotification) error {
	query := `
		INSERT INTO smart_notifications (user_id, message_id, priority, channels, scores, overall, status, reasoning, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	channels, _ := json.Marshal(n.Channels)
	scores, _ := json.Marshal(n.Scores)
	var reasoning []byte
	if len(n.Reasoning) > 0 {
		reasoning, _ = json.Marshal(n.Reasoning)
	}

	status := n.Status
	if status == "" {
		status = domain.NotificationPending
	}

	return a.db.QueryRowContext(ctx, query,
		n.UserID,
		n.MessageID,
		string(n.Priority),
		channels,
		scores,
		n.Overall,
		string(status),
		reasoning,
	).Scan(&n.ID, &n.CreatedAt)
}

// GetByID retrieves a notification, scoped to the owning user.
func (a *SmartNotificationAdapter) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.SmartNotification, error) {
	var row smartNotificationRow
	query := `SELECT * FROM smart_notifications WHERE id = $1 AND user_id = $2`
	if err := a.db.GetContext(ctx, &row, query, id, userID); err != nil {
		return nil, translateErr(err)
	}
	return row.toDomain(), nil
}

// List lists notifications with filter, newest first.
func (a *SmartNotificationAdapter) List(ctx context.Context, filter *domain.NotificationFilter) ([]*domain.SmartNotification, error) {
	baseQuery := `SELECT * FROM smart_notifications WHERE user_id = $1`
	args := []any{filter.UserID}
	argIndex := 2

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

	var rows []smartNotificationRow
	if err := a.db.SelectContext(ctx, &rows, baseQuery, args...); err != nil {
		return nil, err
	}

	notifications := make([]*domain.SmartNotification, len(rows))
	for i, row := range rows {
		notifications[i] = row.toDomain()
	}
	return notifications, nil
}

// UpdateStatus persists the notification's current lifecycle state and
// timestamps.
func (a *SmartNotificationAdapter) UpdateStatus(ctx context.Context, n *domain.SmartNotification) error {
	var deliveredAt, readAt sql.NullTime
	if n.DeliveredAt != nil {
		deliveredAt = sql.NullTime{Time: *n.DeliveredAt, Valid: true}
	}
	if n.ReadAt != nil {
		readAt = sql.NullTime{Time: *n.ReadAt, Valid: true}
	}

	result, err := a.db.ExecContext(ctx,
		`UPDATE smart_notifications SET status = $1, delivered_at = $2, read_at = $3 WHERE id = $4 AND user_id = $5`,
		string(n.Status), deliveredAt, readAt, n.ID, n.UserID,
	)
	if err != nil {
		return err
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Ensure interface compliance
var _ domain.SmartNotificationRepository = (*SmartNotificationAdapter)(nil)

// =============================================================================
// NotificationPreferencesAdapter - one jsonb settings row per user
// =============================================================================

// NotificationPreferencesAdapter implements
// domain.NotificationPreferencesRepository using PostgreSQL.
type NotificationPreferencesAdapter struct {
	db *sqlx.DB
}

// NewNotificationPreferencesAdapter creates a new preferences adapter.
func NewNotificationPreferencesAdapter(db *sqlx.DB) *NotificationPreferencesAdapter {
	return &NotificationPreferencesAdapter{db: db}
}

type notificationPreferencesRow struct {
	UserID    uuid.UUID `db:"user_id"`
	Tiers     []byte    `db:"tiers"`
	DNDActive bool      `db:"dnd_active"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Get returns the user's preferences.
func (a *NotificationPreferencesAdapter) Get(ctx context.Context, userID uuid.UUID) (*domain.NotificationPreferences, error) {
	var row notificationPreferencesRow
	query := `SELECT * FROM notification_preferences WHERE user_id = $1`
	if err := a.db.GetContext(ctx, &row, query, userID); err != nil {
		return nil, translateErr(err)
	}

	prefs := &domain.NotificationPreferences{
		UserID:    row.UserID,
		DNDActive: row.DNDActive,
		UpdatedAt: row.UpdatedAt,
	}
	if len(row.Tiers) > 0 {
		json.Unmarshal(row.Tiers, &prefs.Tiers)
	}
	return prefs, nil
}

// Save upserts the user's preferences.
func (a *NotificationPreferencesAdapter) Save(ctx context.Context, prefs *domain.NotificationPreferences) error {
	tiers, _ := json.Marshal(prefs.Tiers)
	query := `
		INSERT INTO notification_preferences (user_id, tiers, dnd_active, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET tiers = EXCLUDED.tiers, dnd_active = EXCLUDED.dnd_active, updated_at = NOW()
	`
	_, err := a.db.ExecContext(ctx, query, prefs.UserID, tiers, prefs.DNDActive)
	return err
}

// Ensure interface compliance
var _ domain.NotificationPreferencesRepository = (*NotificationPreferencesAdapter)(nil)

// =============================================================================
// NotificationRuleAdapter - user routing rules
// =============================================================================

// NotificationRuleAdapter implements domain.NotificationRuleRepository
// using PostgreSQL.
type NotificationRuleAdapter struct {
	db *sqlx.DB
}

// NewNotificationRuleAdapter creates a new rule adapter.
func NewNotificationRuleAdapter(db *sqlx.DB) *NotificationRuleAdapter {
	return &NotificationRuleAdapter{db: db}
}

type notificationRuleRow struct {
	ID            int64          `db:"id"`
	UserID        uuid.UUID      `db:"user_id"`
	Name          string         `db:"name"`
	Enabled       bool           `db:"enabled"`
	SenderDomains []byte         `db:"sender_domains"`
	Keywords      []byte         `db:"keywords"`
	MinTier       sql.NullString `db:"min_tier"`
	Channels      []byte         `db:"channels"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (r *notificationRuleRow) toDomain() *domain.NotificationRule {
	rule := &domain.NotificationRule{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Enabled:   r.Enabled,
		CreatedAt: r.CreatedAt,
	}
	if r.MinTier.Valid {
		rule.MinTier = domain.PriorityTier(r.MinTier.String)
	}
	if len(r.SenderDomains) > 0 {
		json.Unmarshal(r.SenderDomains, &rule.SenderDomains)
	}
	if len(r.Keywords) > 0 {
		json.Unmarshal(r.Keywords, &rule.Keywords)
	}
	if len(r.Channels) > 0 {
		json.Unmarshal(r.Channels, &rule.Channels)
	}
	return rule
}

// ListByUser returns all rules for a user in creation order.
func (a *NotificationRuleAdapter) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.NotificationRule, error) {
	var rows []notificationRuleRow
	query := `SELECT * FROM notification_rules WHERE user_id = $1 ORDER BY created_at`
	if err := a.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}

	rules := make([]*domain.NotificationRule, len(rows))
	for i, row := range rows {
		rules[i] = row.toDomain()
	}
	return rules, nil
}

// Create inserts a rule.
func (a *NotificationRuleAdapter) Create(ctx context.Context, rule *domain.NotificationRule) error {
	query := `
		INSERT INTO notification_rules (user_id, name, enabled, sender_domains, keywords, min_tier, channels, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`

	var senderDomains, keywords []byte
	if len(rule.SenderDomains) > 0 {
		senderDomains, _ = json.Marshal(rule.SenderDomains)
	}
	if len(rule.Keywords) > 0 {
		keywords, _ = json.Marshal(rule.Keywords)
	}
	channels, _ := json.Marshal(rule.Channels)

	var minTier sql.NullString
	if rule.MinTier != "" {
		minTier = sql.NullString{String: string(rule.MinTier), Valid: true}
	}

	return a.db.QueryRowContext(ctx, query,
		rule.UserID,
		rule.Name,
		rule.Enabled,
		senderDomains,
		keywords,
		minTier,
		channels,
	).Scan(&rule.ID, &rule.CreatedAt)
}

// Delete removes a rule.
func (a *NotificationRuleAdapter) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	result, err := a.db.ExecContext(ctx,
		`DELETE FROM notification_rules WHERE id = $1 AND user_id = $2`, id, userID,
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
var _ domain.NotificationRuleRepository = (*NotificationRuleAdapter)(nil)
