package priority

import (
	"context"
	"errors"
	"strings"
	"testing"

	"napoleon_server/core/domain"
	"napoleon_server/core/port/out"
)

// fakeLLM implements out.LLMClient for scorer tests.
type fakeLLM struct {
	estimate *out.PriorityEstimate
	err      error
}

func (f *fakeLLM) EstimatePriority(ctx context.Context, msg *domain.Message, body string) (*out.PriorityEstimate, error) {
	return f.estimate, f.err
}

func (f *fakeLLM) ExtractActions(ctx context.Context, msg *domain.Message, body string, priorityCtx domain.PriorityTier) (*domain.ExtractionResult, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeLLM) EstimateIntelligence(ctx context.Context, msg *domain.Message) (*domain.IntelligenceScores, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeLLM) SummarizeDigest(ctx context.Context, msgs []*domain.Message) (string, error) {
	return "", errors.New("not implemented")
}

func TestFallbackScore(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		wantScore      int
		wantIndicators int
	}{
		{
			name:      "no keywords stays at base",
			content:   "Lunch next week?",
			wantScore: 30,
		},
		{
			name:           "urgency keywords",
			content:        "Please respond ASAP",
			wantScore:      70,
			wantIndicators: 1,
		},
		{
			name:           "stakeholder keywords",
			content:        "Board deck attached",
			wantScore:      65,
			wantIndicators: 1,
		},
		{
			name:           "crisis keywords",
			content:        "Potential lawsuit incoming",
			wantScore:      75,
			wantIndicators: 1,
		},
		{
			name:           "multiple groups clamp at 100",
			content:        "URGENT: System breach detected, board must know immediately",
			wantScore:      100,
			wantIndicators: 3,
		},
		{
			name:           "one bump per group even with overlapping hits",
			content:        "urgent urgent asap immediately",
			wantScore:      70,
			wantIndicators: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, indicators := FallbackScore(tt.content)
			if score != tt.wantScore {
				t.Errorf("score = %d, want %d", score, tt.wantScore)
			}
			if len(indicators) != tt.wantIndicators {
				t.Errorf("indicators = %v, want %d entries", indicators, tt.wantIndicators)
			}
		})
	}
}

func TestFallbackScoreCrisisIndicator(t *testing.T) {
	// Testable property: "URGENT: System breach detected..." scores > 80
	// pre-boost and names the crisis group.
	score, indicators := FallbackScore("URGENT: System breach detected in production")
	if score <= 80 {
		t.Errorf("score = %d, want > 80", score)
	}
	found := false
	for _, ind := range indicators {
		if strings.Contains(ind, "crisis") {
			found = true
		}
	}
	if !found {
		t.Errorf("indicators %v missing crisis reference", indicators)
	}
}

func TestCombine(t *testing.T) {
	tests := []struct {
		base, boost, want int
	}{
		{50, 25, 75},
		{90, 25, 100}, // never exceeds 100
		{0, 0, 0},
		{100, 10, 100},
		{40, -5, 40}, // boost is never negative
	}
	for _, tt := range tests {
		if got := Combine(tt.base, tt.boost); got != tt.want {
			t.Errorf("Combine(%d, %d) = %d, want %d", tt.base, tt.boost, got, tt.want)
		}
		// final >= base always holds
		if got := Combine(tt.base, tt.boost); got < domain.ClampScore(tt.base) {
			t.Errorf("Combine(%d, %d) = %d below base", tt.base, tt.boost, got)
		}
	}
}

func TestScoreUsesLLMWhenAvailable(t *testing.T) {
	scorer := NewScorer(&fakeLLM{estimate: &out.PriorityEstimate{Score: 70, Summary: "investor update"}})
	msg := &domain.Message{Subject: "Quiet subject"}

	result := scorer.Score(context.Background(), msg, "", domain.VIPResult{IsVIP: true, Boost: 18})

	if !result.LLMUsed {
		t.Fatal("expected LLM path")
	}
	if result.BaseScore != 70 || result.FinalScore != 88 {
		t.Errorf("base/final = %d/%d, want 70/88", result.BaseScore, result.FinalScore)
	}
	if result.Tier != domain.TierCritical {
		t.Errorf("tier = %s, want critical", result.Tier)
	}
	if result.Summary != "investor update" {
		t.Errorf("summary = %q", result.Summary)
	}
}

func TestScoreFallsBackOnLLMError(t *testing.T) {
	scorer := NewScorer(&fakeLLM{err: errors.New("timeout")})
	msg := &domain.Message{Subject: "urgent: sign off needed"}

	result := scorer.Score(context.Background(), msg, "", domain.VIPResult{})

	if result.LLMUsed {
		t.Fatal("expected fallback path")
	}
	if result.BaseScore != 70 {
		t.Errorf("base = %d, want 70", result.BaseScore)
	}
	if result.Tier != domain.TierHigh {
		t.Errorf("tier = %s, want high", result.Tier)
	}
}

func TestScoreEscalationThreshold(t *testing.T) {
	scorer := NewScorer(&fakeLLM{estimate: &out.PriorityEstimate{Score: 80}})
	msg := &domain.Message{Subject: "x"}

	result := scorer.Score(context.Background(), msg, "", domain.VIPResult{Boost: 12})
	if !result.EscalationRequired {
		t.Errorf("final %d should require escalation", result.FinalScore)
	}

	result = scorer.Score(context.Background(), msg, "", domain.VIPResult{})
	if result.EscalationRequired {
		t.Errorf("final %d should not require escalation", result.FinalScore)
	}
}

func TestTierThresholds(t *testing.T) {
	tests := []struct {
		score int
		want  domain.PriorityTier
	}{
		{100, domain.TierCritical},
		{80, domain.TierCritical},
		{79, domain.TierHigh},
		{60, domain.TierHigh},
		{59, domain.TierMedium},
		{40, domain.TierMedium},
		{39, domain.TierLow},
		{0, domain.TierLow},
	}
	for _, tt := range tests {
		if got := domain.TierFromScore(tt.score); got != tt.want {
			t.Errorf("TierFromScore(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
