package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// TeamMember - delegate candidate
// =============================================================================

// Availability is a team member's current presence state.
type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityBusy      Availability = "busy"
	AvailabilityAway      Availability = "away"
	AvailabilityOffline   Availability = "offline"
)

// TeamMember is a delegation candidate. Read-only from the matcher's
// perspective except for the workload counter, which moves on task
// assignment and completion.
type TeamMember struct {
	ID                     int64        `json:"id"`
	UserID                 uuid.UUID    `json:"user_id"`
	Name                   string       `json:"name"`
	Email                  string       `json:"email"`
	Availability           Availability `json:"availability"`
	CurrentLoadPercent     int          `json:"current_load_percent"` // 0-100
	Skills                 []string     `json:"skills,omitempty"`
	CompletionRate         float64      `json:"completion_rate"` // 0-100
	AvgResponseTimeMinutes int          `json:"avg_response_time_minutes"`
	ActiveTasks            int          `json:"active_tasks"`
	CreatedAt              time.Time    `json:"created_at"`
	UpdatedAt              time.Time    `json:"updated_at"`
}

// DelegationCandidate is one ranked matcher result.
type DelegationCandidate struct {
	Member *TeamMember `json:"member"`
	Score  float64     `json:"score"`

	// Score components, kept for display/audit
	AvailabilityScore float64 `json:"availability_score"`
	WorkloadScore     float64 `json:"workload_score"`
	PerformanceScore  float64 `json:"performance_score"`
	SkillMatchScore   float64 `json:"skill_match_score"`
}

// TeamMemberRepository - team member storage interface.
type TeamMemberRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*TeamMember, error)
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*TeamMember, error)
	AdjustWorkload(ctx context.Context, userID uuid.UUID, id int64, delta int) error
}

// =============================================================================
// DelegationTask - state machine linking a message to a delegate
// =============================================================================

// DelegationStatus is the delegation task lifecycle state.
//
//	pending → accepted → in_progress → completed
//	with rejected/escalated as side-branches.
type DelegationStatus string

const (
	DelegationPending    DelegationStatus = "pending"
	DelegationAccepted   DelegationStatus = "accepted"
	DelegationInProgress DelegationStatus = "in_progress"
	DelegationCompleted  DelegationStatus = "completed"
	DelegationRejected   DelegationStatus = "rejected"
	DelegationEscalated  DelegationStatus = "escalated"
)

// delegationTransitions lists the allowed state transitions.
var delegationTransitions = map[DelegationStatus][]DelegationStatus{
	DelegationPending:    {DelegationAccepted, DelegationRejected, DelegationEscalated},
	DelegationAccepted:   {DelegationInProgress, DelegationRejected, DelegationEscalated},
	DelegationInProgress: {DelegationCompleted, DelegationEscalated},
}

// CanTransitionDelegation reports whether from → to is a legal transition.
func CanTransitionDelegation(from, to DelegationStatus) bool {
	for _, next := range delegationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DelegationTask links a message to a delegate and tracks progress.
type DelegationTask struct {
	ID          int64            `json:"id"`
	UserID      uuid.UUID        `json:"user_id"` // delegator
	MessageID   int64            `json:"message_id"`
	DelegateID  int64            `json:"delegate_id"`
	Status      DelegationStatus `json:"status"`
	Notes       string           `json:"notes,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// Transition applies a status change, rejecting illegal moves.
func (t *DelegationTask) Transition(to DelegationStatus) error {
	if !CanTransitionDelegation(t.Status, to) {
		return ErrInvalidTransition
	}
	t.Status = to
	if to == DelegationCompleted {
		now := time.Now()
		t.CompletedAt = &now
	}
	return nil
}

// DelegationTaskRepository - delegation task storage interface.
type DelegationTaskRepository interface {
	Create(ctx context.Context, task *DelegationTask) error
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*DelegationTask, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status *DelegationStatus) ([]*DelegationTask, error)
	UpdateStatus(ctx context.Context, task *DelegationTask) error
}
