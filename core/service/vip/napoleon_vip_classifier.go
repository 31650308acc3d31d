// Package vip implements VIP sender classification.
package vip

import (
	"strings"

	"napoleon_server/core/domain"
)

// =============================================================================
// VIP Boost Table
// =============================================================================
//
// Priority level → score boost. Explicit step table, not a formula.

const (
	BoostLevel10 = 25
	BoostLevel9  = 20
	BoostLevel8  = 18
	BoostLevel7  = 15
	BoostLevel6  = 12
	BoostDefault = 10 // levels 1-5
)

// BoostForLevel returns the score boost for a VIP priority level.
func BoostForLevel(level int) int {
	switch level {
	case 10:
		return BoostLevel10
	case 9:
		return BoostLevel9
	case 8:
		return BoostLevel8
	case 7:
		return BoostLevel7
	case 6:
		return BoostLevel6
	default:
		return BoostDefault
	}
}

// Classifier maps sender identities to VIP tiers and score boosts.
type Classifier struct{}

// NewClassifier creates a VIP classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify matches the sender against the user's VIP contacts.
// Pure function over already-fetched data; a miss returns the standard
// sender result, never an error.
func (c *Classifier) Classify(senderEmail string, contacts []*domain.VipContact) domain.VIPResult {
	sender := strings.ToLower(strings.TrimSpace(senderEmail))
	if sender == "" {
		return domain.StandardSender()
	}

	for _, contact := range contacts {
		if strings.ToLower(strings.TrimSpace(contact.Email)) != sender {
			continue
		}

		relationship := contact.Relationship
		if relationship == "" {
			relationship = "vip"
		}

		// Board/investor detection is a heuristic over free-text notes,
		// not a structured flag.
		notes := strings.ToLower(contact.Notes)

		return domain.VIPResult{
			IsVIP:         true,
			Boost:         BoostForLevel(contact.PriorityLevel),
			Relationship:  relationship,
			IsBoardMember: strings.Contains(notes, "board"),
			IsInvestor:    strings.Contains(notes, "investor"),
		}
	}

	return domain.StandardSender()
}
