package digest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"napoleon_server/core/domain"
	"napoleon_server/core/port/out"

	"github.com/google/uuid"
)

type fakeMessageRepo struct {
	byTier map[domain.PriorityTier][]*domain.Message
	err    error
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.Message, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeMessageRepo) List(ctx context.Context, filter *domain.MessageFilter) ([]*domain.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	var msgs []*domain.Message
	for _, tier := range filter.Tiers {
		msgs = append(msgs, f.byTier[tier]...)
	}
	if filter.Limit > 0 && len(msgs) > filter.Limit {
		msgs = msgs[:filter.Limit]
	}
	return msgs, nil
}

func (f *fakeMessageRepo) UpdateAnalysis(ctx context.Context, userID uuid.UUID, id int64, update *domain.MessageAnalysisUpdate) error {
	return nil
}

func (f *fakeMessageRepo) UpdateStatus(ctx context.Context, userID uuid.UUID, id int64, status domain.MessageStatus) error {
	return nil
}

type fakeLLM struct {
	summary string
	err     error
	calls   int
}

func (f *fakeLLM) EstimatePriority(ctx context.Context, msg *domain.Message, body string) (*out.PriorityEstimate, error) {
	return nil, errors.New("not used")
}

func (f *fakeLLM) ExtractActions(ctx context.Context, msg *domain.Message, body string, priorityCtx domain.PriorityTier) (*domain.ExtractionResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeLLM) EstimateIntelligence(ctx context.Context, msg *domain.Message) (*domain.IntelligenceScores, error) {
	return nil, errors.New("not used")
}

func (f *fakeLLM) SummarizeDigest(ctx context.Context, msgs []*domain.Message) (string, error) {
	f.calls++
	return f.summary, f.err
}

func TestGenerateUsesLLM(t *testing.T) {
	repo := &fakeMessageRepo{byTier: map[domain.PriorityTier][]*domain.Message{
		domain.TierCritical: {{ID: 1, PriorityTier: domain.TierCritical, Subject: "breach"}},
	}}
	llm := &fakeLLM{summary: "One critical item: the breach."}
	svc := NewService(repo, llm)

	d, err := svc.Generate(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.LLMUsed || d.Summary != "One critical item: the breach." {
		t.Errorf("unexpected digest: %+v", d)
	}
	if d.MessageCount != 1 {
		t.Errorf("message count = %d, want 1", d.MessageCount)
	}
}

func TestGenerateFallbackHeadlines(t *testing.T) {
	repo := &fakeMessageRepo{byTier: map[domain.PriorityTier][]*domain.Message{
		domain.TierCritical: {{PriorityTier: domain.TierCritical, SenderName: "CFO", Subject: "Q3 numbers"}},
		domain.TierHigh:     {{PriorityTier: domain.TierHigh, SenderName: "Legal", Subject: "Contract"}},
	}}
	svc := NewService(repo, &fakeLLM{err: errors.New("llm down")})

	d, err := svc.Generate(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.LLMUsed {
		t.Error("fallback digest must not claim LLM use")
	}
	if !strings.Contains(d.Summary, "2 messages") {
		t.Errorf("summary missing count: %q", d.Summary)
	}
	if !strings.Contains(d.Summary, "[critical] CFO: Q3 numbers") || !strings.Contains(d.Summary, "[high] Legal: Contract") {
		t.Errorf("summary missing headlines: %q", d.Summary)
	}
}

func TestGenerateEmptyInbox(t *testing.T) {
	llm := &fakeLLM{summary: "unused"}
	svc := NewService(&fakeMessageRepo{}, llm)

	d, err := svc.Generate(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.MessageCount != 0 || !strings.Contains(d.Summary, "caught up") {
		t.Errorf("unexpected empty digest: %+v", d)
	}
	if llm.calls != 0 {
		t.Error("empty inbox must not call the LLM")
	}
}

func TestGenerateStoreFailurePropagates(t *testing.T) {
	svc := NewService(&fakeMessageRepo{err: errors.New("store down")}, nil)
	if _, err := svc.Generate(context.Background(), uuid.New()); err == nil {
		t.Fatal("digest cannot be built without the store; error must propagate")
	}
}
