// Package domain contains the core entities of the intelligence engine.
package domain

// =============================================================================
// Platform - message source
// =============================================================================

// Platform identifies the source platform of a message.
type Platform string

const (
	PlatformGmail Platform = "gmail"
	PlatformSlack Platform = "slack"
	PlatformTeams Platform = "teams"
)

// IsValidPlatform checks if the platform string is a known source.
func IsValidPlatform(p string) bool {
	switch Platform(p) {
	case PlatformGmail, PlatformSlack, PlatformTeams:
		return true
	}
	return false
}

// =============================================================================
// Priority Tiers
// =============================================================================
//
// Scores are 0-100 integers. Tier thresholds:
//   critical >= 80, high >= 60, medium >= 40, else low.
// Scores >= 90 additionally require escalation in the notification path.

// PriorityTier is the canonical 4-tier priority classification.
type PriorityTier string

const (
	TierCritical PriorityTier = "critical"
	TierHigh     PriorityTier = "high"
	TierMedium   PriorityTier = "medium"
	TierLow      PriorityTier = "low"
)

const (
	TierCriticalThreshold = 80
	TierHighThreshold     = 60
	TierMediumThreshold   = 40

	// EscalationThreshold marks scores that require escalation handling.
	EscalationThreshold = 90
)

// TierFromScore maps a 0-100 score to its priority tier.
func TierFromScore(score int) PriorityTier {
	switch {
	case score >= TierCriticalThreshold:
		return TierCritical
	case score >= TierHighThreshold:
		return TierHigh
	case score >= TierMediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// NormalizeTier maps an untrusted priority string (e.g. from an LLM response)
// to a canonical tier. Unknown values default to medium per the validation
// policy: normalize, never reject.
func NormalizeTier(s string) PriorityTier {
	switch PriorityTier(s) {
	case TierCritical, TierHigh, TierMedium, TierLow:
		return PriorityTier(s)
	}
	// Legacy/LLM aliases
	switch s {
	case "urgent":
		return TierCritical
	case "normal":
		return TierMedium
	}
	return TierMedium
}

// TierRank orders tiers for comparisons: critical > high > medium > low.
// Unknown tiers rank lowest.
func TierRank(t PriorityTier) int {
	switch t {
	case TierCritical:
		return 4
	case TierHigh:
		return 3
	case TierMedium:
		return 2
	case TierLow:
		return 1
	}
	return 0
}

// ClampScore clamps a score into the valid 0-100 range.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ClampScoreF clamps a float score into the valid 0-100 range.
// NaN collapses to the neutral midpoint.
func ClampScoreF(score float64) float64 {
	if score != score { // NaN
		return 50
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
