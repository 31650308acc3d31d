package notification

import (
	"context"
	"errors"
	"strings"
	"testing"

	"napoleon_server/core/domain"
	"napoleon_server/core/port/out"

	"github.com/google/uuid"
)

type fakeLLM struct {
	scores *domain.IntelligenceScores
	err    error
}

func (f *fakeLLM) EstimatePriority(ctx context.Context, msg *domain.Message, body string) (*out.PriorityEstimate, error) {
	return nil, errors.New("not used")
}

func (f *fakeLLM) ExtractActions(ctx context.Context, msg *domain.Message, body string, priorityCtx domain.PriorityTier) (*domain.ExtractionResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeLLM) EstimateIntelligence(ctx context.Context, msg *domain.Message) (*domain.IntelligenceScores, error) {
	return f.scores, f.err
}

func (f *fakeLLM) SummarizeDigest(ctx context.Context, msgs []*domain.Message) (string, error) {
	return "", errors.New("not used")
}

func enabledPrefs(userID uuid.UUID) *domain.NotificationPreferences {
	return domain.DefaultNotificationPreferences(userID)
}

func hasReason(reasons []string, substr string) bool {
	for _, r := range reasons {
		if strings.Contains(r, substr) {
			return true
		}
	}
	return false
}

func TestDecideTierDisabledWinsOverScores(t *testing.T) {
	userID := uuid.New()
	engine := NewEngine(nil)
	prefs := enabledPrefs(userID)
	prefs.Tiers[domain.TierCritical] = domain.TierPreference{Enabled: false}

	msg := &domain.Message{UserID: userID, PriorityTier: domain.TierCritical}
	// Perfect scores must not matter when the tier is off.
	scores := domain.IntelligenceScores{ContextualRelevance: 100, UrgencyScore: 100, BusinessImpact: 100, UserPreferenceMatch: 100}

	d := engine.Decide(msg, scores, prefs, nil)
	if d.Notify {
		t.Fatal("disabled tier must never notify")
	}
	if !hasReason(d.Reasoning, "disabled") {
		t.Errorf("missing disabled reason: %v", d.Reasoning)
	}
}

func TestDecideDoNotDisturb(t *testing.T) {
	userID := uuid.New()
	engine := NewEngine(nil)

	tests := []struct {
		name       string
		scores     domain.IntelligenceScores
		wantNotify bool
		wantReason string
	}{
		{
			name:       "moderate scores suppressed",
			scores:     domain.IntelligenceScores{ContextualRelevance: 50, UrgencyScore: 50, BusinessImpact: 50, UserPreferenceMatch: 50},
			wantNotify: false,
			wantReason: "do-not-disturb",
		},
		{
			name:       "high urgency overrides",
			scores:     domain.IntelligenceScores{ContextualRelevance: 50, UrgencyScore: 85, BusinessImpact: 50, UserPreferenceMatch: 50},
			wantNotify: true,
			wantReason: "overridden",
		},
		{
			name:       "high overall overrides",
			scores:     domain.IntelligenceScores{ContextualRelevance: 80, UrgencyScore: 75, BusinessImpact: 80, UserPreferenceMatch: 80},
			wantNotify: true,
			wantReason: "overridden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs := enabledPrefs(userID)
			prefs.DNDActive = true
			msg := &domain.Message{UserID: userID, PriorityTier: domain.TierHigh}

			d := engine.Decide(msg, tt.scores, prefs, nil)
			if d.Notify != tt.wantNotify {
				t.Errorf("notify = %v, want %v (%v)", d.Notify, tt.wantNotify, d.Reasoning)
			}
			if !hasReason(d.Reasoning, tt.wantReason) {
				t.Errorf("reasons %v missing %q", d.Reasoning, tt.wantReason)
			}
		})
	}
}

func TestDecideLowOverallSuppressed(t *testing.T) {
	userID := uuid.New()
	engine := NewEngine(nil)
	msg := &domain.Message{UserID: userID, PriorityTier: domain.TierLow}
	scores := domain.IntelligenceScores{ContextualRelevance: 20, UrgencyScore: 20, BusinessImpact: 20, UserPreferenceMatch: 20}

	d := engine.Decide(msg, scores, enabledPrefs(userID), nil)
	if d.Notify {
		t.Fatal("overall 20 must not notify")
	}
	if !hasReason(d.Reasoning, "too low") {
		t.Errorf("missing low-score reason: %v", d.Reasoning)
	}
}

func TestDecideMatchedRuleWinsChannels(t *testing.T) {
	userID := uuid.New()
	engine := NewEngine(nil)
	msg := &domain.Message{UserID: userID, PriorityTier: domain.TierMedium}
	scores := domain.IntelligenceScores{ContextualRelevance: 40, UrgencyScore: 40, BusinessImpact: 40, UserPreferenceMatch: 40}

	rule := &domain.NotificationRule{
		Name:     "board watch",
		Enabled:  true,
		Channels: []domain.NotificationChannel{domain.ChannelSMS, domain.ChannelPush},
	}

	d := engine.Decide(msg, scores, enabledPrefs(userID), []*domain.NotificationRule{rule})
	if !d.Notify {
		t.Fatalf("matched rule must notify: %v", d.Reasoning)
	}
	if len(d.Channels) != 2 || d.Channels[0] != domain.ChannelSMS {
		t.Errorf("channels = %v, want rule channels", d.Channels)
	}
	if !hasReason(d.Reasoning, "board watch") {
		t.Errorf("reason must name the rule: %v", d.Reasoning)
	}
}

func TestDecideScoreThresholds(t *testing.T) {
	userID := uuid.New()
	engine := NewEngine(nil)

	tests := []struct {
		name       string
		scores     domain.IntelligenceScores
		wantNotify bool
	}{
		{
			// overall = 0.25*60 + 0.35*65 + 0.30*60 + 0.10*60 = 61.75
			name:       "overall above 60",
			scores:     domain.IntelligenceScores{ContextualRelevance: 60, UrgencyScore: 65, BusinessImpact: 60, UserPreferenceMatch: 60},
			wantNotify: true,
		},
		{
			// overall = 0.25*30 + 0.35*72 + 0.30*30 + 0.10*30 = 45.7, urgency carries it
			name:       "urgency above 70",
			scores:     domain.IntelligenceScores{ContextualRelevance: 30, UrgencyScore: 72, BusinessImpact: 30, UserPreferenceMatch: 30},
			wantNotify: true,
		},
		{
			// overall = 45, urgency 45: neither threshold reached
			name:       "both below thresholds",
			scores:     domain.IntelligenceScores{ContextualRelevance: 45, UrgencyScore: 45, BusinessImpact: 45, UserPreferenceMatch: 45},
			wantNotify: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &domain.Message{UserID: userID, PriorityTier: domain.TierHigh}
			d := engine.Decide(msg, tt.scores, enabledPrefs(userID), nil)
			if d.Notify != tt.wantNotify {
				t.Errorf("notify = %v, want %v (%v)", d.Notify, tt.wantNotify, d.Reasoning)
			}
			if len(d.Reasoning) == 0 {
				t.Error("every decision path must attach a reason")
			}
		})
	}
}

func TestDecideNonImmediateTierIsPushOnly(t *testing.T) {
	userID := uuid.New()
	engine := NewEngine(nil)
	prefs := enabledPrefs(userID)
	// Medium tier defaults to ImmediateDelivery=false even with extra channels.
	prefs.Tiers[domain.TierMedium] = domain.TierPreference{
		Enabled:  true,
		Channels: []domain.NotificationChannel{domain.ChannelSMS, domain.ChannelEmail},
	}

	msg := &domain.Message{UserID: userID, PriorityTier: domain.TierMedium}
	scores := domain.IntelligenceScores{ContextualRelevance: 70, UrgencyScore: 75, BusinessImpact: 70, UserPreferenceMatch: 70}

	d := engine.Decide(msg, scores, prefs, nil)
	if !d.Notify {
		t.Fatalf("expected notify: %v", d.Reasoning)
	}
	if len(d.Channels) != 1 || d.Channels[0] != domain.ChannelPush {
		t.Errorf("channels = %v, want push-only for non-immediate tier", d.Channels)
	}
}

func TestScoreIntelligenceFallback(t *testing.T) {
	tests := []struct {
		tier        domain.PriorityTier
		wantUrgency float64
	}{
		{domain.TierCritical, 90},
		{domain.TierHigh, 70},
		{domain.TierMedium, 50},
		{domain.TierLow, 50},
	}

	engine := NewEngine(&fakeLLM{err: errors.New("llm down")})
	for _, tt := range tests {
		msg := &domain.Message{PriorityTier: tt.tier}
		got := engine.ScoreIntelligence(context.Background(), msg)
		if got.UrgencyScore != tt.wantUrgency {
			t.Errorf("%s: urgency = %.0f, want %.0f", tt.tier, got.UrgencyScore, tt.wantUrgency)
		}
		if got.ContextualRelevance != 50 || got.BusinessImpact != 50 || got.UserPreferenceMatch != 50 {
			t.Errorf("%s: non-urgency fallback scores must be 50: %+v", tt.tier, got)
		}
	}
}

func TestScoreIntelligenceClampsLLMOutput(t *testing.T) {
	engine := NewEngine(&fakeLLM{scores: &domain.IntelligenceScores{
		ContextualRelevance: 150,
		UrgencyScore:        -10,
		BusinessImpact:      80,
		UserPreferenceMatch: 50,
	}})

	got := engine.ScoreIntelligence(context.Background(), &domain.Message{})
	if got.ContextualRelevance != 100 || got.UrgencyScore != 0 {
		t.Errorf("scores not clamped: %+v", got)
	}
}

func TestMatchRules(t *testing.T) {
	msg := &domain.Message{
		SenderEmail:  "cfo@Acme.COM",
		Subject:      "Q3 forecast revision",
		BodyPreview:  "numbers attached",
		PriorityTier: domain.TierMedium,
	}

	tests := []struct {
		name    string
		rule    domain.NotificationRule
		matches bool
	}{
		{
			name:    "sender domain case-insensitive",
			rule:    domain.NotificationRule{Enabled: true, SenderDomains: []string{"acme.com"}},
			matches: true,
		},
		{
			name:    "keyword in subject",
			rule:    domain.NotificationRule{Enabled: true, Keywords: []string{"forecast"}},
			matches: true,
		},
		{
			name:    "min tier not met",
			rule:    domain.NotificationRule{Enabled: true, Keywords: []string{"forecast"}, MinTier: domain.TierHigh},
			matches: false,
		},
		{
			name:    "disabled rule never matches",
			rule:    domain.NotificationRule{Enabled: false, Keywords: []string{"forecast"}},
			matches: false,
		},
		{
			name:    "no conditions matches at tier",
			rule:    domain.NotificationRule{Enabled: true, MinTier: domain.TierMedium},
			matches: true,
		},
		{
			name:    "wrong domain and keyword",
			rule:    domain.NotificationRule{Enabled: true, SenderDomains: []string{"other.com"}, Keywords: []string{"lawsuit"}},
			matches: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := tt.rule
			got := MatchRules(msg, []*domain.NotificationRule{&rule})
			if (len(got) == 1) != tt.matches {
				t.Errorf("matched = %d rules, want match=%v", len(got), tt.matches)
			}
		})
	}
}
