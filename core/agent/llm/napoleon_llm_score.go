package llm

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"napoleon_server/core/domain"
	"napoleon_server/core/port/out"
)

var priorityTemplate = Template{
	Name: "priority_score",
	Text: `Rate the urgency and business impact of this executive message.

From: {{sender}} ({{platform}})
Subject: {{subject}}

Body:
{{body}}

Score 0-100:
  80-100: critical (crisis, board-level, immediate action)
  60-79:  high (important stakeholder, near-term deadline)
  40-59:  medium (routine business, no deadline pressure)
  0-39:   low (informational, can wait)

Respond with JSON only:
{
  "score": 0-100,
  "summary": "one sentence executive summary",
  "reasoning": ["short reason", "..."]
}`,
}

// priorityResponse is the untrusted wire shape of the scoring response.
type priorityResponse struct {
	Score     float64  `json:"score"`
	Summary   string   `json:"summary"`
	Reasoning []string `json:"reasoning"`
}

// EstimatePriority asks the model for a base urgency/impact score.
// Any failure (network, timeout, parse, open circuit) is returned to the
// caller, which falls back to keyword scoring.
func (c *Client) EstimatePriority(ctx context.Context, msg *domain.Message, body string) (*out.PriorityEstimate, error) {
	prompt := c.prompts.Render(ctx, priorityTemplate, map[string]string{
		"sender":   msg.SenderEmail,
		"platform": string(msg.Platform),
		"subject":  msg.Subject,
		"body":     truncateBody(body, 2000),
	})

	resp, err := c.CompleteJSON(ctx, "You are an executive message prioritization AI. Respond with JSON only.", prompt, lightCallTimeout)
	if err != nil {
		return nil, err
	}

	return parsePriorityResponse(resp)
}

// parsePriorityResponse validates the untrusted LLM payload. The score is an
// external input: clamp it, never trust it.
func parsePriorityResponse(raw string) (*out.PriorityEstimate, error) {
	var resp priorityResponse
	if err := json.Unmarshal([]byte(stripFence(raw)), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse priority response: %w", err)
	}

	return &out.PriorityEstimate{
		Score:     domain.ClampScore(int(resp.Score)),
		Summary:   resp.Summary,
		Reasoning: resp.Reasoning,
	}, nil
}
