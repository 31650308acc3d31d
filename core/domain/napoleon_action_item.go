package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ActionItem - structured follow-up derived from a message
// =============================================================================

// ActionItemStatus is the lifecycle state of an action item.
type ActionItemStatus string

const (
	ActionStatusPending    ActionItemStatus = "pending"
	ActionStatusInProgress ActionItemStatus = "in_progress"
	ActionStatusCompleted  ActionItemStatus = "completed"
	ActionStatusCancelled  ActionItemStatus = "cancelled"
)

// ActionItem is created during message analysis and completed by the user.
// Never auto-deleted.
type ActionItem struct {
	ID                   int64            `json:"id"`
	UserID               uuid.UUID        `json:"user_id"`
	MessageID            int64            `json:"message_id"`
	Title                string           `json:"title"`
	Description          string           `json:"description,omitempty"`
	Category             string           `json:"category,omitempty"`
	Priority             PriorityTier     `json:"priority"`
	EstimatedDuration    string           `json:"estimated_duration,omitempty"`
	Dependencies         []string         `json:"dependencies,omitempty"`
	Stakeholders         []string         `json:"stakeholders,omitempty"`
	BusinessImpact       string           `json:"business_impact,omitempty"`
	ConfidentialityLevel string           `json:"confidentiality_level,omitempty"`
	DueDate              *time.Time       `json:"due_date,omitempty"`
	Status               ActionItemStatus `json:"status"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// MeetingRequest is a meeting the message asks for.
type MeetingRequest struct {
	Title         string       `json:"title"`
	Attendees     []string     `json:"attendees,omitempty"`
	ProposedTimes []string     `json:"proposed_times,omitempty"`
	Duration      string       `json:"duration,omitempty"`
	Urgency       PriorityTier `json:"urgency"`
}

// DecisionRequired is a decision the message needs from the executive.
type DecisionRequired struct {
	Decision     string       `json:"decision"`
	Deadline     string       `json:"deadline,omitempty"`
	Impact       string       `json:"impact,omitempty"`
	Stakeholders []string     `json:"stakeholders,omitempty"`
	Urgency      PriorityTier `json:"urgency"`
}

// CommunicationNeeded is an outbound communication the message implies.
type CommunicationNeeded struct {
	Recipient string       `json:"recipient"`
	Channel   string       `json:"channel,omitempty"`
	Purpose   string       `json:"purpose,omitempty"`
	Urgency   PriorityTier `json:"urgency"`
}

// ExtractionResult is the full extractor output. Slices are always non-nil.
type ExtractionResult struct {
	ActionItems          []*ActionItem         `json:"action_items"`
	MeetingRequests      []MeetingRequest      `json:"meeting_requests"`
	DecisionsRequired    []DecisionRequired    `json:"decisions_required"`
	CommunicationsNeeded []CommunicationNeeded `json:"communications_needed"`
	LLMUsed              bool                  `json:"llm_used"`
}

// EmptyExtractionResult returns a well-formed result with no items.
func EmptyExtractionResult() *ExtractionResult {
	return &ExtractionResult{
		ActionItems:          []*ActionItem{},
		MeetingRequests:      []MeetingRequest{},
		DecisionsRequired:    []DecisionRequired{},
		CommunicationsNeeded: []CommunicationNeeded{},
	}
}

// ActionItemFilter narrows action item list queries.
type ActionItemFilter struct {
	UserID    uuid.UUID
	MessageID int64
	Status    *ActionItemStatus
	Limit     int
	Offset    int
}

// ActionItemRepository - action item storage interface.
type ActionItemRepository interface {
	Create(ctx context.Context, item *ActionItem) error
	List(ctx context.Context, filter *ActionItemFilter) ([]*ActionItem, error)
	UpdateStatus(ctx context.Context, userID uuid.UUID, id int64, status ActionItemStatus) error
}
