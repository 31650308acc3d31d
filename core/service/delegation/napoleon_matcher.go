// Package delegation ranks team members as delegation candidates and
// manages the delegation task lifecycle.
package delegation

import (
	"context"
	"sort"
	"strings"

	"napoleon_server/core/domain"
	"napoleon_server/pkg/logger"

	"github.com/google/uuid"
)

// =============================================================================
// Delegation Matcher
// =============================================================================
//
// Candidates are ranked, never filtered: an executive may still delegate to
// a busy senior member, so unavailable members appear in the list with lower
// scores instead of disappearing.

// Score component weights and bonuses.
const (
	availableBonus = 50
	busyBonus      = 20

	workloadWeight     = 0.3
	completionWeight   = 0.2
	responseTimeWeight = 0.1

	skillMatchBonus = 20

	// Response times at or beyond this many minutes normalize to 100.
	maxResponseTimeMinutes = 100
)

// Matcher ranks delegation candidates for a message.
type Matcher struct{}

// NewMatcher creates a matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Rank scores every member against the message and returns the full list in
// descending score order. Equal scores preserve input order (stable sort),
// so the caller's member ordering acts as the tiebreak.
func (m *Matcher) Rank(msg *domain.Message, members []*domain.TeamMember) []*domain.DelegationCandidate {
	candidates := make([]*domain.DelegationCandidate, 0, len(members))
	for _, member := range members {
		candidates = append(candidates, m.score(msg, member))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// score computes one candidate's component scores.
func (m *Matcher) score(msg *domain.Message, member *domain.TeamMember) *domain.DelegationCandidate {
	c := &domain.DelegationCandidate{Member: member}

	switch member.Availability {
	case domain.AvailabilityAvailable:
		c.AvailabilityScore = availableBonus
	case domain.AvailabilityBusy:
		c.AvailabilityScore = busyBonus
	}

	load := member.CurrentLoadPercent
	if load < 0 {
		load = 0
	}
	if load > 100 {
		load = 100
	}
	c.WorkloadScore = float64(100-load) * workloadWeight

	c.PerformanceScore = member.CompletionRate*completionWeight +
		(100-normalizeResponseTime(member.AvgResponseTimeMinutes))*responseTimeWeight

	for _, skill := range member.Skills {
		if strings.EqualFold(skill, string(msg.Platform)) {
			c.SkillMatchScore += skillMatchBonus
		}
	}

	c.Score = c.AvailabilityScore + c.WorkloadScore + c.PerformanceScore + c.SkillMatchScore
	return c
}

// normalizeResponseTime maps minutes onto [0,100]; slower responders score
// lower on the performance component.
func normalizeResponseTime(minutes int) float64 {
	if minutes <= 0 {
		return 0
	}
	if minutes >= maxResponseTimeMinutes {
		return 100
	}
	return float64(minutes)
}

// =============================================================================
// Delegation Service - ranking plus task lifecycle
// =============================================================================

// Service exposes candidate ranking and the delegation task lifecycle.
type Service struct {
	matcher *Matcher
	members domain.TeamMemberRepository
	tasks   domain.DelegationTaskRepository
}

// NewService creates a delegation service.
func NewService(matcher *Matcher, members domain.TeamMemberRepository, tasks domain.DelegationTaskRepository) *Service {
	return &Service{matcher: matcher, members: members, tasks: tasks}
}

// RankForMessage loads the user's team and ranks every member against the
// message. A store read failure degrades to an empty candidate list.
func (s *Service) RankForMessage(ctx context.Context, msg *domain.Message) []*domain.DelegationCandidate {
	members, err := s.members.ListByUser(ctx, msg.UserID)
	if err != nil {
		logger.WithError(err).Warn("failed to load team members, returning no candidates")
		return []*domain.DelegationCandidate{}
	}
	return s.matcher.Rank(msg, members)
}

// Delegate creates a pending delegation task and bumps the delegate's
// workload counter. The counter write is best-effort.
func (s *Service) Delegate(ctx context.Context, userID uuid.UUID, messageID, delegateID int64, notes string) (*domain.DelegationTask, error) {
	if _, err := s.members.GetByID(ctx, userID, delegateID); err != nil {
		return nil, err
	}

	task := &domain.DelegationTask{
		UserID:     userID,
		MessageID:  messageID,
		DelegateID: delegateID,
		Status:     domain.DelegationPending,
		Notes:      notes,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	if err := s.members.AdjustWorkload(ctx, userID, delegateID, 1); err != nil {
		logger.WithError(err).WithField("delegate_id", delegateID).Warn("failed to bump delegate workload")
	}
	return task, nil
}

// Transition moves a delegation task through its lifecycle. Completion,
// rejection and escalation release the delegate's workload slot.
func (s *Service) Transition(ctx context.Context, userID uuid.UUID, taskID int64, to domain.DelegationStatus) (*domain.DelegationTask, error) {
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if err := task.Transition(to); err != nil {
		return nil, err
	}
	if err := s.tasks.UpdateStatus(ctx, task); err != nil {
		return nil, err
	}

	switch to {
	case domain.DelegationCompleted, domain.DelegationRejected, domain.DelegationEscalated:
		if err := s.members.AdjustWorkload(ctx, userID, task.DelegateID, -1); err != nil {
			logger.WithError(err).WithField("delegate_id", task.DelegateID).Warn("failed to release delegate workload")
		}
	}
	return task, nil
}

// List returns the user's delegation tasks, optionally filtered by status.
func (s *Service) List(ctx context.Context, userID uuid.UUID, status *domain.DelegationStatus) ([]*domain.DelegationTask, error) {
	return s.tasks.ListByUser(ctx, userID, status)
}
