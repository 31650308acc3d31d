package notification

import (
	"context"
	"errors"
	"fmt"

	"napoleon_server/core/domain"
	"napoleon_server/core/port/out"
	"napoleon_server/pkg/logger"

	"github.com/google/uuid"
)

// =============================================================================
// Notification Service - decide, persist, deliver
// =============================================================================

// Service runs the full notification flow for analyzed messages and exposes
// the notification lifecycle to handlers.
type Service struct {
	engine        *Engine
	notifications domain.SmartNotificationRepository
	preferences   domain.NotificationPreferencesRepository
	rules         domain.NotificationRuleRepository
	sender        out.NotificationSender
}

// NewService creates a notification service.
func NewService(engine *Engine, notifications domain.SmartNotificationRepository, preferences domain.NotificationPreferencesRepository, rules domain.NotificationRuleRepository, sender out.NotificationSender) *Service {
	return &Service{
		engine:        engine,
		notifications: notifications,
		preferences:   preferences,
		rules:         rules,
		sender:        sender,
	}
}

// Notify runs the decision engine for a message and, when it decides to
// notify, persists and delivers the notification. Store read failures
// degrade to defaults; the engine always produces a decision.
func (s *Service) Notify(ctx context.Context, msg *domain.Message) (*Decision, error) {
	prefs, err := s.preferences.Get(ctx, msg.UserID)
	if err != nil {
		logger.WithError(err).Warn("failed to load notification preferences, using defaults")
		prefs = domain.DefaultNotificationPreferences(msg.UserID)
	}

	rules, err := s.rules.ListByUser(ctx, msg.UserID)
	if err != nil {
		logger.WithError(err).Warn("failed to load notification rules, skipping rule matching")
		rules = nil
	}

	scores := s.engine.ScoreIntelligence(ctx, msg)
	decision := s.engine.Decide(msg, scores, prefs, MatchRules(msg, rules))
	if !decision.Notify {
		return decision, nil
	}

	n := &domain.SmartNotification{
		UserID:    msg.UserID,
		MessageID: msg.ID,
		Priority:  msg.PriorityTier,
		Channels:  decision.Channels,
		Scores:    decision.Scores,
		Overall:   decision.Overall,
		Status:    domain.NotificationPending,
		Reasoning: decision.Reasoning,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return decision, err
	}

	s.Deliver(ctx, n, msg)
	return decision, nil
}

// Deliver fans the notification out to its channels. Channels are attempted
// independently; the notification becomes delivered when at least one
// channel succeeded, failed when none did.
func (s *Service) Deliver(ctx context.Context, n *domain.SmartNotification, msg *domain.Message) {
	title := fmt.Sprintf("[%s] %s", n.Priority, msg.SenderName)
	body := msg.Subject
	if msg.Summary != "" {
		body = msg.Summary
	}

	delivered := 0
	for _, channel := range n.Channels {
		if s.sender == nil {
			break
		}
		if err := s.sender.Send(ctx, n.UserID.String(), string(channel), title, body); err != nil {
			logger.WithError(err).WithField("channel", string(channel)).Warn("notification channel delivery failed")
			continue
		}
		delivered++
	}

	status := domain.NotificationDelivered
	if delivered == 0 {
		status = domain.NotificationFailed
	}
	if err := n.Transition(status); err != nil {
		logger.WithError(err).Warn("invalid notification transition after delivery")
		return
	}
	if err := s.notifications.UpdateStatus(ctx, n); err != nil {
		logger.WithError(err).Warn("failed to persist notification status")
	}
}

// List returns the user's notifications.
func (s *Service) List(ctx context.Context, userID uuid.UUID, status *domain.NotificationStatus, limit, offset int) ([]*domain.SmartNotification, error) {
	return s.notifications.List(ctx, &domain.NotificationFilter{
		UserID: userID,
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
}

// MarkRead transitions a delivered notification to read.
func (s *Service) MarkRead(ctx context.Context, userID uuid.UUID, id int64) (*domain.SmartNotification, error) {
	return s.transition(ctx, userID, id, domain.NotificationRead)
}

// Dismiss transitions a notification to dismissed.
func (s *Service) Dismiss(ctx context.Context, userID uuid.UUID, id int64) (*domain.SmartNotification, error) {
	return s.transition(ctx, userID, id, domain.NotificationDismissed)
}

func (s *Service) transition(ctx context.Context, userID uuid.UUID, id int64, to domain.NotificationStatus) (*domain.SmartNotification, error) {
	n, err := s.notifications.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := n.Transition(to); err != nil {
		return nil, err
	}
	if err := s.notifications.UpdateStatus(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Preferences returns the user's notification preferences, falling back to
// defaults for new users.
func (s *Service) Preferences(ctx context.Context, userID uuid.UUID) (*domain.NotificationPreferences, error) {
	prefs, err := s.preferences.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.DefaultNotificationPreferences(userID), nil
		}
		return nil, err
	}
	return prefs, nil
}

// SavePreferences persists the user's notification preferences.
func (s *Service) SavePreferences(ctx context.Context, prefs *domain.NotificationPreferences) error {
	return s.preferences.Save(ctx, prefs)
}
