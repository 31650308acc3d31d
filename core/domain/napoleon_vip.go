package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// VipContact - known VIP sender for one user
// =============================================================================

// VipContact is a (user, email) pair with a 1-10 priority level.
// At most one row exists per (user_id, email).
type VipContact struct {
	ID            int64     `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	PriorityLevel int       `json:"priority_level"` // 1-10
	Relationship  string    `json:"relationship,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// VIPResult is the classifier output for one sender.
type VIPResult struct {
	IsVIP         bool   `json:"is_vip"`
	Boost         int    `json:"boost"`
	Relationship  string `json:"relationship"`
	IsBoardMember bool   `json:"is_board_member"`
	IsInvestor    bool   `json:"is_investor"`
}

// StandardSender is the result for senders not in the VIP list.
func StandardSender() VIPResult {
	return VIPResult{Relationship: "standard"}
}

// VipContactRepository - VIP contact storage interface.
type VipContactRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*VipContact, error)
	Upsert(ctx context.Context, contact *VipContact) error
	Delete(ctx context.Context, userID uuid.UUID, email string) error
}
