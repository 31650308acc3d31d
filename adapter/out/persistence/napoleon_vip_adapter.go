package persistence

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"napoleon_server/core/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// VipContactAdapter implements domain.VipContactRepository using PostgreSQL.
type VipContactAdapter struct {
	db *sqlx.DB
}

// NewVipContactAdapter creates a new VIP contact adapter.
func NewVipContactAdapter(db *sqlx.DB) *VipContactAdapter {
	return &VipContactAdapter{db: db}
}

// vipContactRow represents the database row.
type vipContactRow struct {
	ID            int64          `db:"id"`
	UserID        uuid.UUID      `db:"user_id"`
	Email         string         `db:"email"`
	Name          sql.NullString `db:"name"`
	PriorityLevel int            `db:"priority_level"`
	Relationship  sql.NullString `db:"relationship"`
	Notes         sql.NullString `db:"notes"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r *vipContactRow) toDomain() *domain.VipContact {
	c := &domain.VipContact{
		ID:            r.ID,
		UserID:        r.UserID,
		Email:         r.Email,
		PriorityLevel: r.PriorityLevel,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.Name.Valid {
		c.Name = r.Name.String
	}
	if r.Relationship.Valid {
		c.Relationship = r.Relationship.String
	}
	if r.Notes.Valid {
		c.Notes = r.Notes.String
	}
	return c
}

// ListByUser returns all VIP contacts for a user.
func (a *VipContactAdapter) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.VipContact, error) {
	var rows []vipContactRow
	query := `SELECT * FROM vip_contacts WHERE user_id = $1 ORDER BY priority_level DESC, email`
	if err := a.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}

	contacts := make([]*domain.VipContact, len(rows))
	for i, row := range rows {
		contacts[i] = row.toDomain()
	}
	return contacts, nil
}

// Upsert creates or updates a contact. Email is stored lowercased and is
// unique per user.
func (a *VipContactAdapter) Upsert(ctx context.Context, contact *domain.VipContact) error {
	query := `
		INSERT INTO vip_contacts (user_id, email, name, priority_level, relationship, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id, email) DO UPDATE
		SET name = EXCLUDED.name, priority_level = EXCLUDED.priority_level,
		    relationship = EXCLUDED.relationship, notes = EXCLUDED.notes, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return a.db.QueryRowContext(ctx, query,
		contact.UserID,
		strings.ToLower(strings.TrimSpace(contact.Email)),
		contact.Name,
		contact.PriorityLevel,
		contact.Relationship,
		contact.Notes,
	).Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)
}

// Delete removes a contact by email.
func (a *VipContactAdapter) Delete(ctx context.Context, userID uuid.UUID, email string) error {
	result, err := a.db.ExecContext(ctx,
		`DELETE FROM vip_contacts WHERE user_id = $1 AND email = $2`,
		userID, strings.ToLower(strings.TrimSpace(email)),
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
var _ domain.VipContactRepository = (*VipContactAdapter)(nil)
