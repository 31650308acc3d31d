// Package notification implements the smart notification decision engine
// and channel delivery.
package notification

import (
	"context"
	"fmt"
	"strings"

	"napoleon_server/core/domain"
	"napoleon_server/core/port/out"
	"napoleon_server/pkg/logger"
)

// =============================================================================
// Decision Engine
// =============================================================================
//
// The engine answers one question per analyzed message: notify the user now,
// and over which channels. Every path attaches a reason string; the reasoning
// list is the audit trail persisted with the notification.

// Decision is the engine output for one message.
type Decision struct {
	Notify    bool                         `json:"notify"`
	Channels  []domain.NotificationChannel `json:"channels,omitempty"`
	Scores    domain.IntelligenceScores    `json:"scores"`
	Overall   float64                      `json:"overall"`
	Reasoning []string                     `json:"reasoning"`
}

// Engine decides whether to notify about an analyzed message.
type Engine struct {
	llm out.LLMClient
}

// NewEngine creates a decision engine. A nil LLM client forces the
// tier-based score fallback on every message.
func NewEngine(llm out.LLMClient) *Engine {
	return &Engine{llm: llm}
}

// ScoreIntelligence returns the intelligence scores for a message, falling
// back to a coarse tier mapping when the LLM path is unavailable.
func (e *Engine) ScoreIntelligence(ctx context.Context, msg *domain.Message) domain.IntelligenceScores {
	if e.llm != nil {
		scores, err := e.llm.EstimateIntelligence(ctx, msg)
		if err == nil && scores != nil {
			return scores.Clamped()
		}
		logger.WithError(err).WithField("message_id", msg.ID).Debug("intelligence scoring failed, using tier fallback")
	}
	return FallbackScores(msg.PriorityTier)
}

// FallbackScores maps the message's existing priority tier to coarse
// intelligence scores: critical 90, high 70, else 50 for urgency, and the
// neutral midpoint for everything else.
func FallbackScores(tier domain.PriorityTier) domain.IntelligenceScores {
	urgency := 50.0
	switch tier {
	case domain.TierCritical:
		urgency = 90
	case domain.TierHigh:
		urgency = 70
	}
	return domain.IntelligenceScores{
		ContextualRelevance: 50,
		UrgencyScore:        urgency,
		BusinessImpact:      50,
		UserPreferenceMatch: 50,
	}
}

// Decide applies the ordered decision rules. Rules are evaluated strictly in
// order; the first terminal rule wins:
//
//	(a) tier disabled in preferences     → no
//	(b) DND active, not urgent enough    → no (else continue with override)
//	(c) overall < 30                     → no
//	(d) a configured rule matched        → yes, rule channels
//	(e) overall >= 60 or urgency >= 70   → yes, tier default channels
//	(f) otherwise                        → no
func (e *Engine) Decide(msg *domain.Message, scores domain.IntelligenceScores, prefs *domain.NotificationPreferences, matched []*domain.NotificationRule) *Decision {
	scores = scores.Clamped()
	d := &Decision{
		Scores:  scores,
		Overall: scores.Overall(),
	}

	if prefs == nil {
		prefs = domain.DefaultNotificationPreferences(msg.UserID)
	}
	pref := prefs.TierPref(msg.PriorityTier)

	if !pref.Enabled {
		d.reason("notifications disabled for %s tier", msg.PriorityTier)
		return d
	}

	if prefs.DNDActive {
		if scores.UrgencyScore < 80 && d.Overall < 75 {
			d.reason("suppressed by do-not-disturb (urgency %.0f, overall %.0f)", scores.UrgencyScore, d.Overall)
			return d
		}
		d.reason("do-not-disturb overridden (urgency %.0f, overall %.0f)", scores.UrgencyScore, d.Overall)
	}

	if d.Overall < 30 {
		d.reason("intelligence score too low (overall %.0f)", d.Overall)
		return d
	}

	if len(matched) > 0 {
		rule := matched[0]
		d.Notify = true
		d.Channels = rule.Channels
		d.reason("matched notification rule %q", rule.Name)
		return d
	}

	if d.Overall >= 60 || scores.UrgencyScore >= 70 {
		d.Notify = true
		d.Channels = tierChannels(pref)
		d.reason("scores above notification thresholds (overall %.0f, urgency %.0f)", d.Overall, scores.UrgencyScore)
		return d
	}

	d.reason("scores below notification thresholds (overall %.0f, urgency %.0f)", d.Overall, scores.UrgencyScore)
	return d
}

func (d *Decision) reason(format string, args ...any) {
	d.Reasoning = append(d.Reasoning, fmt.Sprintf(format, args...))
}

// tierChannels selects channels for non-rule notifications. Tiers without
// immediate delivery collapse to push-only regardless of their channel list.
func tierChannels(pref domain.TierPreference) []domain.NotificationChannel {
	if !pref.ImmediateDelivery {
		return []domain.NotificationChannel{domain.ChannelPush}
	}
	if len(pref.Channels) == 0 {
		return []domain.NotificationChannel{domain.ChannelPush}
	}
	return pref.Channels
}

// MatchRules returns the enabled rules that match the message, in their
// stored order. A rule matches when the message meets its minimum tier and
// at least one of its sender-domain or keyword conditions; a rule with no
// conditions matches everything at or above its tier.
func MatchRules(msg *domain.Message, rules []*domain.NotificationRule) []*domain.NotificationRule {
	var matched []*domain.NotificationRule
	content := strings.ToLower(msg.Subject + "\n" + msg.BodyPreview)

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if rule.MinTier != "" && domain.TierRank(msg.PriorityTier) < domain.TierRank(rule.MinTier) {
			continue
		}
		if len(rule.SenderDomains) == 0 && len(rule.Keywords) == 0 {
			matched = append(matched, rule)
			continue
		}
		if matchesDomain(msg.SenderEmail, rule.SenderDomains) || matchesKeyword(content, rule.Keywords) {
			matched = append(matched, rule)
		}
	}
	return matched
}

func matchesDomain(email string, domains []string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	senderDomain := strings.ToLower(email[at+1:])
	for _, d := range domains {
		if senderDomain == strings.ToLower(d) {
			return true
		}
	}
	return false
}

func matchesKeyword(content string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(content, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
