package llm

import (
	"context"
	"fmt"
	"strings"

	"napoleon_server/core/domain"
)

// SummarizeDigest produces the executive digest text for the given
// high-priority messages.
func (c *Client) SummarizeDigest(ctx context.Context, msgs []*domain.Message) (string, error) {
	if len(msgs) == 0 {
		return "", nil
	}

	var b strings.Builder
	for i, m := range msgs {
		fmt.Fprintf(&b, "%d. [%s/%s] %s: %s\n", i+1, m.Platform, m.PriorityTier, m.SenderEmail, m.Subject)
		if m.Summary != "" {
			fmt.Fprintf(&b, "   %s\n", m.Summary)
		}
	}

	prompt := fmt.Sprintf(`Write a strategic digest for an executive from these priority messages.
Group by theme, lead with what needs a decision today, keep it under 200 words.

Messages:
%s`, b.String())

	return c.Complete(ctx, "You are an executive chief-of-staff AI.", prompt, lightCallTimeout)
}
