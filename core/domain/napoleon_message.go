package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Message - normalized unit of communication from any platform
// =============================================================================

// MessageStatus is the user-facing lifecycle state of a message.
type MessageStatus string

const (
	MessageStatusUnread   MessageStatus = "unread"
	MessageStatusRead     MessageStatus = "read"
	MessageStatusArchived MessageStatus = "archived"
	MessageStatusSnoozed  MessageStatus = "snoozed"
)

// Message is the normalized message record. Platform sync creates it; the
// priority scorer mutates score/tier/summary/VIP flag; the user mutates status.
// Messages are archived, never deleted.
type Message struct {
	ID          int64         `json:"id"`
	UserID      uuid.UUID     `json:"user_id"`
	Platform    Platform      `json:"platform"`
	SenderEmail string        `json:"sender_email"`
	SenderName  string        `json:"sender_name,omitempty"`
	Subject     string        `json:"subject"`
	BodyPreview string        `json:"body_preview,omitempty"`
	ReceivedAt  time.Time     `json:"received_at"`
	Status      MessageStatus `json:"status"`

	// Analysis results (mutable)
	PriorityScore int          `json:"priority_score"`
	PriorityTier  PriorityTier `json:"priority_tier,omitempty"`
	Summary       string       `json:"summary,omitempty"`
	IsVIP         bool         `json:"is_vip"`
	AnalyzedAt    *time.Time   `json:"analyzed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Content returns the text the scorers operate on (subject + body preview).
func (m *Message) Content() string {
	if m.BodyPreview == "" {
		return m.Subject
	}
	return m.Subject + "\n" + m.BodyPreview
}

// MessageAnalysisUpdate carries the scorer's persisted side effects.
type MessageAnalysisUpdate struct {
	PriorityScore int
	PriorityTier  PriorityTier
	Summary       string
	IsVIP         bool
}

// MessageFilter narrows message list queries.
type MessageFilter struct {
	UserID   uuid.UUID
	Platform *Platform
	Status   *MessageStatus
	Tiers    []PriorityTier
	Limit    int
	Offset   int
}

// MessageRepository - message storage interface.
type MessageRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*Message, error)
	List(ctx context.Context, filter *MessageFilter) ([]*Message, error)
	UpdateAnalysis(ctx context.Context, userID uuid.UUID, id int64, update *MessageAnalysisUpdate) error
	UpdateStatus(ctx context.Context, userID uuid.UUID, id int64, status MessageStatus) error
}

// =============================================================================
// MessageAnalysis - persisted analysis record (audit trail)
// =============================================================================

// MessageAnalysis records one completed analysis pass over a message.
type MessageAnalysis struct {
	ID                int64        `json:"id"`
	UserID            uuid.UUID    `json:"user_id"`
	MessageID         int64        `json:"message_id"`
	BatchID           string       `json:"batch_id,omitempty"`
	BaseScore         int          `json:"base_score"`
	VIPBoost          int          `json:"vip_boost"`
	FinalScore        int          `json:"final_score"`
	Tier              PriorityTier `json:"tier"`
	UrgencyIndicators []string     `json:"urgency_indicators,omitempty"`
	LLMUsed           bool         `json:"llm_used"`
	CreatedAt         time.Time    `json:"created_at"`
}

// MessageAnalysisRepository - analysis record storage interface.
type MessageAnalysisRepository interface {
	Create(ctx context.Context, analysis *MessageAnalysis) error
	GetByMessageID(ctx context.Context, userID uuid.UUID, messageID int64) (*MessageAnalysis, error)
}

// MessageBodyRepository - full raw message body storage (document store).
// Postgres keeps only a preview; analysis fetches the full body from here.
type MessageBodyRepository interface {
	Get(ctx context.Context, userID uuid.UUID, messageID int64) (string, error)
	Save(ctx context.Context, userID uuid.UUID, messageID int64, body string) error
	Delete(ctx context.Context, userID uuid.UUID, messageID int64) error
}
