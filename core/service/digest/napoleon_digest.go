// Package digest builds the executive daily digest from the highest
// priority messages.
package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"napoleon_server/core/domain"
	"napoleon_server/core/port/out"
	"napoleon_server/pkg/logger"

	"github.com/google/uuid"
)

// DefaultLimit caps how many messages feed one digest.
const DefaultLimit = 10

// Digest is the generated executive summary.
type Digest struct {
	UserID       uuid.UUID `json:"user_id"`
	Summary      string    `json:"summary"`
	MessageCount int       `json:"message_count"`
	LLMUsed      bool      `json:"llm_used"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Service generates digests.
type Service struct {
	messages domain.MessageRepository
	llm      out.LLMClient
}

// NewService creates a digest service. A nil LLM client forces the
// headline-list fallback.
func NewService(messages domain.MessageRepository, llm out.LLMClient) *Service {
	return &Service{messages: messages, llm: llm}
}

// Generate summarizes the user's unread critical and high tier messages.
// The LLM path degrades to a deterministic headline list; an empty inbox
// produces a fixed all-clear summary.
func (s *Service) Generate(ctx context.Context, userID uuid.UUID) (*Digest, error) {
	msgs, err := s.topMessages(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := &Digest{
		UserID:       userID,
		MessageCount: len(msgs),
		GeneratedAt:  time.Now(),
	}
	if len(msgs) == 0 {
		d.Summary = "No critical or high priority messages. You're all caught up."
		return d, nil
	}

	if s.llm != nil {
		summary, err := s.llm.SummarizeDigest(ctx, msgs)
		if err == nil && summary != "" {
			d.Summary = summary
			d.LLMUsed = true
			return d, nil
		}
		logger.WithError(err).Debug("digest summarization failed, using headline fallback")
	}

	d.Summary = headlineFallback(msgs)
	return d, nil
}

// topMessages returns unread critical messages first, topped up with high
// tier messages when the limit allows.
func (s *Service) topMessages(ctx context.Context, userID uuid.UUID) ([]*domain.Message, error) {
	unread := domain.MessageStatusUnread
	var msgs []*domain.Message

	// Critical first; top up with high tier only if the limit allows.
	for _, tier := range []domain.PriorityTier{domain.TierCritical, domain.TierHigh} {
		batch, err := s.messages.List(ctx, &domain.MessageFilter{
			UserID: userID,
			Status: &unread,
			Tiers:  []domain.PriorityTier{tier},
			Limit:  DefaultLimit - len(msgs),
		})
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, batch...)
		if len(msgs) >= DefaultLimit {
			break
		}
	}
	return msgs, nil
}

// headlineFallback renders a deterministic one-line-per-message digest.
func headlineFallback(msgs []*domain.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d messages need your attention:\n", len(msgs))
	for _, msg := range msgs {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", msg.PriorityTier, msg.SenderName, msg.Subject)
	}
	return strings.TrimRight(b.String(), "\n")
}
