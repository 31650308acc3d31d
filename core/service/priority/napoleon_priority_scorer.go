// Package priority implements message priority scoring.
package priority

import (
	"context"
	"fmt"
	"strings"

	"napoleon_server/core/domain"
	"napoleon_server/core/port/out"
	"napoleon_server/pkg/logger"
)

// =============================================================================
// Keyword Fallback Scoring
// =============================================================================
//
// Used whenever the LLM path fails. Deterministic: base 30, one additive
// bump per keyword group, clamped to 100 before the VIP boost is applied.

const fallbackBaseScore = 30

// keywordGroup is one fallback scoring rule.
type keywordGroup struct {
	name     string
	keywords []string
	bump     int
}

var keywordGroups = []keywordGroup{
	{name: "urgency", keywords: []string{"urgent", "asap", "immediately"}, bump: 40},
	{name: "stakeholder", keywords: []string{"board", "investor", "regulatory"}, bump: 35},
	{name: "crisis", keywords: []string{"crisis", "breach", "lawsuit"}, bump: 45},
}

// FallbackScore computes the deterministic base score and returns the
// human-readable urgency indicators for the groups that fired.
func FallbackScore(content string) (int, []string) {
	lower := strings.ToLower(content)

	score := fallbackBaseScore
	indicators := []string{}

	for _, group := range keywordGroups {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				score += group.bump
				indicators = append(indicators, fmt.Sprintf("%s keywords detected (%q)", group.name, kw))
				break // one bump per group
			}
		}
	}

	return domain.ClampScore(score), indicators
}

// =============================================================================
// Scorer
// =============================================================================

// ScoreResult is the scorer output for one message.
type ScoreResult struct {
	BaseScore          int                 `json:"base_score"`
	VIPBoost           int                 `json:"vip_boost"`
	FinalScore         int                 `json:"final_score"`
	Tier               domain.PriorityTier `json:"tier"`
	EscalationRequired bool                `json:"escalation_required"`
	Summary            string              `json:"summary,omitempty"`
	UrgencyIndicators  []string            `json:"urgency_indicators"`
	LLMUsed            bool                `json:"llm_used"`
}

// Scorer combines the LLM (or fallback) base score with the VIP boost.
type Scorer struct {
	llm out.LLMClient
}

// NewScorer creates a priority scorer. A nil LLM client forces the
// fallback path on every message.
func NewScorer(llm out.LLMClient) *Scorer {
	return &Scorer{llm: llm}
}

// Score produces the final 0-100 priority score and tier for a message.
// LLM failure is never surfaced: it switches to keyword fallback scoring.
func (s *Scorer) Score(ctx context.Context, msg *domain.Message, body string, vip domain.VIPResult) *ScoreResult {
	result := &ScoreResult{
		VIPBoost:          vip.Boost,
		UrgencyIndicators: []string{},
	}

	content := msg.Content()
	if body != "" {
		content = msg.Subject + "\n" + body
	}

	if s.llm != nil {
		estimate, err := s.llm.EstimatePriority(ctx, msg, body)
		if err == nil && estimate != nil {
			result.BaseScore = domain.ClampScore(estimate.Score)
			result.Summary = estimate.Summary
			result.UrgencyIndicators = append(result.UrgencyIndicators, estimate.Reasoning...)
			result.LLMUsed = true
		} else {
			logger.WithError(err).Debug("LLM priority estimate failed, using fallback")
		}
	}

	if !result.LLMUsed {
		base, indicators := FallbackScore(content)
		result.BaseScore = base
		result.UrgencyIndicators = append(result.UrgencyIndicators, indicators...)
	}

	result.FinalScore = Combine(result.BaseScore, vip.Boost)
	result.Tier = domain.TierFromScore(result.FinalScore)
	result.EscalationRequired = result.FinalScore >= domain.EscalationThreshold

	return result
}

// Combine applies the VIP boost to a base score: min(100, base+boost).
func Combine(base, boost int) int {
	if boost < 0 {
		boost = 0
	}
	return domain.ClampScore(domain.ClampScore(base) + boost)
}
