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

// TeamMemberAdapter implements domain.TeamMemberRepository using PostgreSQL.
type TeamMemberAdapter struct {
	db *sqlx.DB
}

// NewTeamMemberAdapter creates a new team member adapter.
func NewTeamMemberAdapter(db *sqlx.DB) *TeamMemberAdapter {
	return &TeamMemberAdapter{db: db}
}

// teamMemberRow represents the database row. Skills is a jsonb column.
type teamMemberRow struct {
	ID                     int64     `db:"id"`
	UserID                 uuid.UUID `db:"user_id"`
	Name                   string    `db:"name"`
	Email                  string    `db:"email"`
	Availability           string    `db:"availability"`
	CurrentLoadPercent     int       `db:"current_load_percent"`
	Skills                 []byte    `db:"skills"`
	CompletionRate         float64   `db:"completion_rate"`
	AvgResponseTimeMinutes int       `db:"avg_response_time_minutes"`
	ActiveTasks            int       `db:"active_tasks"`
	CreatedAt              time.Time `db:"created_at"`
	UpdatedAt              time.Time `db:"updated_at"`
}

func (r *teamMemberRow) toDomain() *domain.TeamMember {
	m := &domain.TeamMember{
		ID:                     r.ID,
		UserID:                 r.UserID,
		Name:                   r.Name,
		Email:                  r.Email,
		Availability:           domain.Availability(r.Availability),
		CurrentLoadPercent:     r.CurrentLoadPercent,
		CompletionRate:         r.CompletionRate,
		AvgResponseTimeMinutes: r.AvgResponseTimeMinutes,
		ActiveTasks:            r.ActiveTasks,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}
	if len(r.Skills) > 0 {
		json.Unmarshal(r.Skills, &m.Skills)
	}
	return m
}

// ListByUser returns the user's full team.
func (a *TeamMemberAdapter) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TeamMember, error) {
	var rows []teamMemberRow
	query := `SELECT * FROM team_members WHERE user_id = $1 ORDER BY name`
	if err := a.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, err
	}

	members := make([]*domain.TeamMember, len(rows))
	for i, row := range rows {
		members[i] = row.toDomain()
	}
	return members, nil
}

// GetByID retrieves a team member, scoped to the owning user.
func (a *TeamMemberAdapter) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.TeamMember, error) {
	var row teamMemberRow
	query := `SELECT * FROM team_members WHERE id = $1 AND user_id = $2`
	if err := a.db.GetContext(ctx, &row, query, id, userID); err != nil {
		return nil, translateErr(err)
	}
	return row.toDomain(), nil
}

// AdjustWorkload moves the active task counter atomically, clamped at zero.
func (a *TeamMemberAdapter) AdjustWorkload(ctx context.Context, userID uuid.UUID, id int64, delta int) error {
	result, err := a.db.ExecContext(ctx,
		`UPDATE team_members SET active_tasks = GREATEST(active_tasks + $1, 0), updated_at = NOW() WHERE id = $2 AND user_id = $3`,
		delta, id, userID,
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
var _ domain.TeamMemberRepository = (*TeamMemberAdapter)(nil)

// =============================================================================
// DelegationTaskAdapter
// =============================================================================

// DelegationTaskAdapter implements domain.DelegationTaskRepository using
// PostgreSQL.
type DelegationTaskAdapter struct {
	db *sqlx.DB
}

// NewDelegationTaskAdapter creates a new delegation task adapter.
func NewDelegationTaskAdapter(db *sqlx.DB) *DelegationTaskAdapter {
	return &DelegationTaskAdapter{db: db}
}

type delegationTaskRow struct {
	ID          int64          `db:"id"`
	UserID      uuid.UUID      `db:"user_id"`
	MessageID   int64          `db:"message_id"`
	DelegateID  int64          `db:"delegate_id"`
	Status      string         `db:"status"`
	Notes       sql.NullString `db:"notes"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
	CompletedAt sql.NullTime   `db:"completed_at"`
}

func (r *delegationTaskRow) toDomain() *domain.DelegationTask {
	t := &domain.DelegationTask{
		ID:         r.ID,
		UserID:     r.UserID,
		MessageID:  r.MessageID,
		DelegateID: r.DelegateID,
		Status:     domain.DelegationStatus(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.Notes.Valid {
		t.Notes = r.Notes.String
	}
	if r.CompletedAt.Valid {
		t.CompletedAt = &r.CompletedAt.Time
	}
	return t
}

// Create inserts a delegation task.
func (a *DelegationTaskAdapter) Create(ctx context.Context, task *domain.DelegationTask) error {
	query := `
		INSERT INTO delegation_tasks (user_id, message_id, delegate_id, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	status := task.Status
	if status == "" {
		status = domain.DelegationPending
	}

	return a.db.QueryRowContext(ctx, query,
		task.UserID,
		task.MessageID,
		task.DelegateID,
		string(status),
		task.Notes,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

// GetByID retrieves a delegation task, scoped to the delegating user.
func (a *DelegationTaskAdapter) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.DelegationTask, error) {
	var row delegationTaskRow
	query := `SELECT * FROM delegation_tasks WHERE id = $1 AND user_id = $2`
	if err := a.db.GetContext(ctx, &row, query, id, userID); err != nil {
		return nil, translateErr(err)
	}
	return row.toDomain(), nil
}

// ListByUser lists the user's delegation tasks, newest first.
func (a *DelegationTaskAdapter) ListByUser(ctx context.Context, userID uuid.UUID, status *domain.DelegationStatus) ([]*domain.DelegationTask, error) {
	query := `SELECT * FROM delegation_tasks WHERE user_id = $1`
	args := []any{userID}

	if status != nil {
		query += fmt.Sprintf(` AND status = $%d`, len(args)+1)
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC`

	var rows []delegationTaskRow
	if err := a.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	tasks := make([]*domain.DelegationTask, len(rows))
	for i, row := range rows {
		tasks[i] = row.toDomain()
	}
	return tasks, nil
}

// UpdateStatus persists the task's current lifecycle state.
func (a *DelegationTaskAdapter) UpdateStatus(ctx context.Context, task *domain.DelegationTask) error {
	var completedAt sql.NullTime
	if task.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *task.CompletedAt, Valid: true}
	}

	result, err := a.db.ExecContext(ctx,
		`UPDATE delegation_tasks SET status = $1, completed_at = $2, updated_at = NOW() WHERE id = $3 AND user_id = $4`,
		string(task.Status), completedAt, task.ID, task.UserID,
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
var _ domain.DelegationTaskRepository = (*DelegationTaskAdapter)(nil)
