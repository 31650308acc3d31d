package analysis

import (
	"context"
	"errors"
	"testing"

	"napoleon_server/core/domain"
	"napoleon_server/core/port/out"
)

// fakeLLM implements out.LLMClient for analysis tests.
type fakeLLM struct {
	extraction *domain.ExtractionResult
	err        error
}

func (f *fakeLLM) EstimatePriority(ctx context.Context, msg *domain.Message, body string) (*out.PriorityEstimate, error) {
	return nil, errors.New("llm down")
}

func (f *fakeLLM) ExtractActions(ctx context.Context, msg *domain.Message, body string, priorityCtx domain.PriorityTier) (*domain.ExtractionResult, error) {
	return f.extraction, f.err
}

func (f *fakeLLM) EstimateIntelligence(ctx context.Context, msg *domain.Message) (*domain.IntelligenceScores, error) {
	return nil, errors.New("llm down")
}

func (f *fakeLLM) SummarizeDigest(ctx context.Context, msgs []*domain.Message) (string, error) {
	return "", errors.New("llm down")
}

func TestExtractorFallbackRules(t *testing.T) {
	extractor := NewExtractor(&fakeLLM{err: errors.New("timeout")})

	tests := []struct {
		name         string
		subject      string
		body         string
		wantTitles   []string
		wantPriority map[string]domain.PriorityTier
	}{
		{
			name:         "review request",
			subject:      "Contract draft",
			body:         "Please review the attached before Friday.",
			wantTitles:   []string{"Review Request"},
			wantPriority: map[string]domain.PriorityTier{"Review Request": domain.TierMedium},
		},
		{
			name:       "meeting request",
			subject:    "Can we schedule a call?",
			wantTitles: []string{"Schedule Meeting"},
		},
		{
			name:         "approval required",
			subject:      "Budget",
			body:         "Need you to sign off on the Q3 budget.",
			wantTitles:   []string{"Approval Required"},
			wantPriority: map[string]domain.PriorityTier{"Approval Required": domain.TierHigh},
		},
		{
			name:       "overlapping keywords emit one item per category",
			subject:    "Please review and please check the meeting schedule",
			wantTitles: []string{"Review Request", "Schedule Meeting"},
		},
		{
			name:       "no keywords yields empty result",
			subject:    "FYI",
			body:       "Quarterly newsletter attached.",
			wantTitles: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &domain.Message{ID: 1, Subject: tt.subject}
			got := extractor.Extract(context.Background(), msg, tt.body, domain.TierMedium)

			if got == nil {
				t.Fatal("Extract must never return nil")
			}
			if got.ActionItems == nil || got.MeetingRequests == nil || got.DecisionsRequired == nil || got.CommunicationsNeeded == nil {
				t.Fatal("result slices must never be nil")
			}

			if len(got.ActionItems) != len(tt.wantTitles) {
				t.Fatalf("got %d items, want %d: %+v", len(got.ActionItems), len(tt.wantTitles), got.ActionItems)
			}
			for i, want := range tt.wantTitles {
				if got.ActionItems[i].Title != want {
					t.Errorf("item %d title = %q, want %q", i, got.ActionItems[i].Title, want)
				}
			}
			for title, wantTier := range tt.wantPriority {
				for _, item := range got.ActionItems {
					if item.Title == title && item.Priority != wantTier {
						t.Errorf("%s priority = %s, want %s", title, item.Priority, wantTier)
					}
				}
			}
		})
	}
}

func TestExtractorPrefersLLM(t *testing.T) {
	expected := domain.EmptyExtractionResult()
	expected.LLMUsed = true
	expected.ActionItems = append(expected.ActionItems, &domain.ActionItem{Title: "Prep board deck", Priority: domain.TierHigh})

	extractor := NewExtractor(&fakeLLM{extraction: expected})
	got := extractor.Extract(context.Background(), &domain.Message{Subject: "please review"}, "", domain.TierHigh)

	if !got.LLMUsed {
		t.Fatal("expected LLM result")
	}
	if len(got.ActionItems) != 1 || got.ActionItems[0].Title != "Prep board deck" {
		t.Errorf("unexpected items: %+v", got.ActionItems)
	}
}

func TestExtractorNilLLMUsesFallback(t *testing.T) {
	extractor := NewExtractor(nil)
	got := extractor.Extract(context.Background(), &domain.Message{Subject: "approve this"}, "", domain.TierLow)
	if len(got.ActionItems) != 1 || got.ActionItems[0].Title != "Approval Required" {
		t.Errorf("unexpected items: %+v", got.ActionItems)
	}
}
