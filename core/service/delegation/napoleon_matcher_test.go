package delegation

import (
	"context"
	"errors"
	"math"
	"testing"

	"napoleon_server/core/domain"

	"github.com/google/uuid"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMatcherScoreComponents(t *testing.T) {
	matcher := NewMatcher()
	msg := &domain.Message{Platform: domain.PlatformSlack}

	tests := []struct {
		name   string
		member domain.TeamMember
		want   float64
	}{
		{
			// 50 + (100-20)*0.3 + 90*0.2 + (100-30)*0.1 + 20 = 50+24+18+7+20 = 119
			name: "available slack expert",
			member: domain.TeamMember{
				Availability:           domain.AvailabilityAvailable,
				CurrentLoadPercent:     20,
				CompletionRate:         90,
				AvgResponseTimeMinutes: 30,
				Skills:                 []string{"slack", "gmail"},
			},
			want: 119,
		},
		{
			// 20 + (100-80)*0.3 + 70*0.2 + (100-100)*0.1 + 0 = 20+6+14+0 = 40
			name: "busy slow responder without skill",
			member: domain.TeamMember{
				Availability:           domain.AvailabilityBusy,
				CurrentLoadPercent:     80,
				CompletionRate:         70,
				AvgResponseTimeMinutes: 240,
				Skills:                 []string{"teams"},
			},
			want: 40,
		},
		{
			// 0 + (100-50)*0.3 + 80*0.2 + (100-10)*0.1 + 20 = 15+16+9+20 = 60
			name: "offline members are scored, not dropped",
			member: domain.TeamMember{
				Availability:           domain.AvailabilityOffline,
				CurrentLoadPercent:     50,
				CompletionRate:         80,
				AvgResponseTimeMinutes: 10,
				Skills:                 []string{"Slack"}, // case-insensitive match
			},
			want: 60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			member := tt.member
			got := matcher.score(msg, &member)
			if !almostEqual(got.Score, tt.want) {
				t.Errorf("score = %v, want %v (components: avail %v, load %v, perf %v, skill %v)",
					got.Score, tt.want, got.AvailabilityScore, got.WorkloadScore, got.PerformanceScore, got.SkillMatchScore)
			}
		})
	}
}

func TestRankDescendingAndComplete(t *testing.T) {
	matcher := NewMatcher()
	msg := &domain.Message{Platform: domain.PlatformGmail}

	members := []*domain.TeamMember{
		{Name: "away", Availability: domain.AvailabilityAway, CurrentLoadPercent: 90, CompletionRate: 50, AvgResponseTimeMinutes: 60},
		{Name: "star", Availability: domain.AvailabilityAvailable, CurrentLoadPercent: 10, CompletionRate: 95, AvgResponseTimeMinutes: 5, Skills: []string{"gmail"}},
		{Name: "busy", Availability: domain.AvailabilityBusy, CurrentLoadPercent: 50, CompletionRate: 80, AvgResponseTimeMinutes: 20},
	}

	got := matcher.Rank(msg, members)
	if len(got) != len(members) {
		t.Fatalf("ranked %d candidates, want %d: unavailable members are ranked, not excluded", len(got), len(members))
	}
	if got[0].Member.Name != "star" {
		t.Errorf("top candidate = %s, want star", got[0].Member.Name)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("candidates not in descending order at %d: %v > %v", i, got[i].Score, got[i-1].Score)
		}
	}
}

func TestRankStableForEqualScores(t *testing.T) {
	matcher := NewMatcher()
	msg := &domain.Message{Platform: domain.PlatformTeams}

	// Identical profiles produce identical scores; input order must survive.
	clone := func(name string) *domain.TeamMember {
		return &domain.TeamMember{
			Name:                   name,
			Availability:           domain.AvailabilityAvailable,
			CurrentLoadPercent:     40,
			CompletionRate:         75,
			AvgResponseTimeMinutes: 15,
		}
	}
	members := []*domain.TeamMember{clone("first"), clone("second"), clone("third")}

	got := matcher.Rank(msg, members)
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Member.Name != want {
			t.Errorf("position %d = %s, want %s (stable sort must preserve input order)", i, got[i].Member.Name, want)
		}
	}
}

// ----------------------------------------------------------------------------
// Service lifecycle
// ----------------------------------------------------------------------------

type fakeMemberRepo struct {
	members   []*domain.TeamMember
	listErr   error
	workloads map[int64]int
}

func (f *fakeMemberRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TeamMember, error) {
	return f.members, f.listErr
}

func (f *fakeMemberRepo) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.TeamMember, error) {
	for _, m := range f.members {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMemberRepo) AdjustWorkload(ctx context.Context, userID uuid.UUID, id int64, delta int) error {
	if f.workloads == nil {
		f.workloads = map[int64]int{}
	}
	f.workloads[id] += delta
	return nil
}

type fakeTaskRepo struct {
	tasks map[int64]*domain.DelegationTask
}

func (f *fakeTaskRepo) Create(ctx context.Context, task *domain.DelegationTask) error {
	if f.tasks == nil {
		f.tasks = map[int64]*domain.DelegationTask{}
	}
	task.ID = int64(len(f.tasks) + 1)
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeTaskRepo) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*domain.DelegationTask, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return task, nil
}

func (f *fakeTaskRepo) ListByUser(ctx context.Context, userID uuid.UUID, status *domain.DelegationStatus) ([]*domain.DelegationTask, error) {
	return nil, nil
}

func (f *fakeTaskRepo) UpdateStatus(ctx context.Context, task *domain.DelegationTask) error {
	return nil
}

func TestDelegateLifecycleAdjustsWorkload(t *testing.T) {
	userID := uuid.New()
	memberRepo := &fakeMemberRepo{members: []*domain.TeamMember{{ID: 5, Name: "delegate"}}}
	taskRepo := &fakeTaskRepo{}
	svc := NewService(NewMatcher(), memberRepo, taskRepo)

	task, err := svc.Delegate(context.Background(), userID, 42, 5, "handle this thread")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Status != domain.DelegationPending {
		t.Errorf("status = %s, want pending", task.Status)
	}
	if memberRepo.workloads[5] != 1 {
		t.Errorf("workload = %d, want 1 after assignment", memberRepo.workloads[5])
	}

	for _, to := range []domain.DelegationStatus{domain.DelegationAccepted, domain.DelegationInProgress, domain.DelegationCompleted} {
		if _, err := svc.Transition(context.Background(), userID, task.ID, to); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}
	if task.CompletedAt == nil {
		t.Error("CompletedAt must be set on completion")
	}
	if memberRepo.workloads[5] != 0 {
		t.Errorf("workload = %d, want 0 after completion", memberRepo.workloads[5])
	}

	// completed is terminal.
	if _, err := svc.Transition(context.Background(), userID, task.ID, domain.DelegationEscalated); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("transition after completed: err = %v, want ErrInvalidTransition", err)
	}
}

func TestDelegateUnknownMemberRejected(t *testing.T) {
	svc := NewService(NewMatcher(), &fakeMemberRepo{}, &fakeTaskRepo{})
	if _, err := svc.Delegate(context.Background(), uuid.New(), 1, 99, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRankForMessageStoreFailureDegrades(t *testing.T) {
	svc := NewService(NewMatcher(), &fakeMemberRepo{listErr: errors.New("store down")}, &fakeTaskRepo{})
	got := svc.RankForMessage(context.Background(), &domain.Message{UserID: uuid.New()})
	if got == nil || len(got) != 0 {
		t.Errorf("store failure must yield an empty, non-nil candidate list: %v", got)
	}
}
