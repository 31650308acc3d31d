package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SmartNotification - one decision to notify a user about a message
// =============================================================================

// NotificationChannel is a delivery channel.
type NotificationChannel string

const (
	ChannelPush    NotificationChannel = "push"
	ChannelEmail   NotificationChannel = "email"
	ChannelSMS     NotificationChannel = "sms"
	ChannelDesktop NotificationChannel = "desktop"
	ChannelInApp   NotificationChannel = "in_app"
)

// NotificationStatus is the notification lifecycle state.
//
//	pending → scheduled → delivered → read
//	dismissed/failed are terminal side-exits reachable from
//	pending, scheduled and delivered.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationScheduled NotificationStatus = "scheduled"
	NotificationDelivered NotificationStatus = "delivered"
	NotificationRead      NotificationStatus = "read"
	NotificationDismissed NotificationStatus = "dismissed"
	NotificationFailed    NotificationStatus = "failed"
)

var notificationTransitions = map[NotificationStatus][]NotificationStatus{
	NotificationPending:   {NotificationScheduled, NotificationDelivered, NotificationDismissed, NotificationFailed},
	NotificationScheduled: {NotificationDelivered, NotificationDismissed, NotificationFailed},
	NotificationDelivered: {NotificationRead, NotificationDismissed, NotificationFailed},
}

// CanTransitionNotification reports whether from → to is a legal transition.
func CanTransitionNotification(from, to NotificationStatus) bool {
	for _, next := range notificationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IntelligenceScores is the weighted score bundle behind a notification
// decision. All sub-scores are 0-100.
type IntelligenceScores struct {
	ContextualRelevance float64 `json:"contextual_relevance"`
	UrgencyScore        float64 `json:"urgency_score"`
	BusinessImpact      float64 `json:"business_impact"`
	UserPreferenceMatch float64 `json:"user_preference_match"`
}

// Intelligence blend weights. Fixed by design.
const (
	WeightContextualRelevance = 0.25
	WeightUrgency             = 0.35
	WeightBusinessImpact      = 0.30
	WeightPreferenceMatch     = 0.10
)

// Overall returns the weighted blend of the clamped sub-scores.
func (s IntelligenceScores) Overall() float64 {
	return WeightContextualRelevance*ClampScoreF(s.ContextualRelevance) +
		WeightUrgency*ClampScoreF(s.UrgencyScore) +
		WeightBusinessImpact*ClampScoreF(s.BusinessImpact) +
		WeightPreferenceMatch*ClampScoreF(s.UserPreferenceMatch)
}

// Clamped returns a copy with every sub-score clamped to [0,100].
func (s IntelligenceScores) Clamped() IntelligenceScores {
	return IntelligenceScores{
		ContextualRelevance: ClampScoreF(s.ContextualRelevance),
		UrgencyScore:        ClampScoreF(s.UrgencyScore),
		BusinessImpact:      ClampScoreF(s.BusinessImpact),
		UserPreferenceMatch: ClampScoreF(s.UserPreferenceMatch),
	}
}

// SmartNotification is one notification decision with its audit trail.
type SmartNotification struct {
	ID          int64                 `json:"id"`
	UserID      uuid.UUID             `json:"user_id"`
	MessageID   int64                 `json:"message_id"`
	Priority    PriorityTier          `json:"priority"`
	Channels    []NotificationChannel `json:"channels"`
	Scores      IntelligenceScores    `json:"scores"`
	Overall     float64               `json:"overall"`
	Status      NotificationStatus    `json:"status"`
	Reasoning   []string              `json:"reasoning,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	DeliveredAt *time.Time            `json:"delivered_at,omitempty"`
	ReadAt      *time.Time            `json:"read_at,omitempty"`
}

// Transition applies a status change, rejecting illegal moves.
func (n *SmartNotification) Transition(to NotificationStatus) error {
	if !CanTransitionNotification(n.Status, to) {
		return ErrInvalidTransition
	}
	n.Status = to
	now := time.Now()
	switch to {
	case NotificationDelivered:
		n.DeliveredAt = &now
	case NotificationRead:
		n.ReadAt = &now
	}
	return nil
}

// NotificationFilter narrows notification list queries.
type NotificationFilter struct {
	UserID uuid.UUID
	Status *NotificationStatus
	Limit  int
	Offset int
}

// SmartNotificationRepository - notification storage interface.
type SmartNotificationRepository interface {
	Create(ctx context.Context, n *SmartNotification) error
	GetByID(ctx context.Context, userID uuid.UUID, id int64) (*SmartNotification, error)
	List(ctx context.Context, filter *NotificationFilter) ([]*SmartNotification, error)
	UpdateStatus(ctx context.Context, n *SmartNotification) error
}

// =============================================================================
// NotificationPreferences - per-user notification settings
// =============================================================================

// TierPreference configures notifications for one priority tier.
type TierPreference struct {
	Enabled           bool                  `json:"enabled"`
	Channels          []NotificationChannel `json:"channels"`
	ImmediateDelivery bool                  `json:"immediate_delivery"`
}

// NotificationPreferences holds one user's notification settings.
type NotificationPreferences struct {
	UserID    uuid.UUID                       `json:"user_id"`
	Tiers     map[PriorityTier]TierPreference `json:"tiers"`
	DNDActive bool                            `json:"dnd_active"`
	UpdatedAt time.Time                       `json:"updated_at"`
}

// DefaultNotificationPreferences returns settings for new users: every tier
// enabled, louder channels for higher tiers.
func DefaultNotificationPreferences(userID uuid.UUID) *NotificationPreferences {
	return &NotificationPreferences{
		UserID: userID,
		Tiers: map[PriorityTier]TierPreference{
			TierCritical: {Enabled: true, Channels: []NotificationChannel{ChannelPush, ChannelSMS, ChannelEmail}, ImmediateDelivery: true},
			TierHigh:     {Enabled: true, Channels: []NotificationChannel{ChannelPush, ChannelEmail}, ImmediateDelivery: true},
			TierMedium:   {Enabled: true, Channels: []NotificationChannel{ChannelPush}, ImmediateDelivery: false},
			TierLow:      {Enabled: true, Channels: []NotificationChannel{ChannelInApp}, ImmediateDelivery: false},
		},
	}
}

// TierPref returns the preference for a tier, falling back to an enabled
// push-only default when the tier is not configured.
func (p *NotificationPreferences) TierPref(tier PriorityTier) TierPreference {
	if pref, ok := p.Tiers[tier]; ok {
		return pref
	}
	return TierPreference{Enabled: true, Channels: []NotificationChannel{ChannelPush}}
}

// NotificationPreferencesRepository - preferences storage interface.
type NotificationPreferencesRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*NotificationPreferences, error)
	Save(ctx context.Context, prefs *NotificationPreferences) error
}

// =============================================================================
// NotificationRule - user-configured routing rule
// =============================================================================

// NotificationRule routes matching messages to a fixed channel list.
// A matched rule wins over score-based channel selection.
type NotificationRule struct {
	ID            int64                 `json:"id"`
	UserID        uuid.UUID             `json:"user_id"`
	Name          string                `json:"name"`
	Enabled       bool                  `json:"enabled"`
	SenderDomains []string              `json:"sender_domains,omitempty"`
	Keywords      []string              `json:"keywords,omitempty"`
	MinTier       PriorityTier          `json:"min_tier,omitempty"`
	Channels      []NotificationChannel `json:"channels"`
	CreatedAt     time.Time             `json:"created_at"`
}

// NotificationRuleRepository - rule storage interface.
type NotificationRuleRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*NotificationRule, error)
	Create(ctx context.Context, rule *NotificationRule) error
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
}
