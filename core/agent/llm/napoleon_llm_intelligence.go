package llm

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"napoleon_server/core/domain"
)

var intelligenceTemplate = Template{
	Name: "intelligence_scores",
	Text: `Rate this message for notification routing. All scores are 0-100.

From: {{sender}} ({{platform}})
Subject: {{subject}}
Snippet: {{body}}

Respond with JSON only:
{
  "contextual_relevance": 0-100,
  "urgency_score": 0-100,
  "business_impact": 0-100,
  "user_preference_match": 0-100
}`,
}

type intelligenceResponse struct {
	ContextualRelevance float64 `json:"contextual_relevance"`
	UrgencyScore        float64 `json:"urgency_score"`
	BusinessImpact      float64 `json:"business_impact"`
	UserPreferenceMatch float64 `json:"user_preference_match"`
}

// EstimateIntelligence asks the model for the notification sub-scores.
func (c *Client) EstimateIntelligence(ctx context.Context, msg *domain.Message) (*domain.IntelligenceScores, error) {
	prompt := c.prompts.Render(ctx, intelligenceTemplate, map[string]string{
		"sender":   msg.SenderEmail,
		"platform": string(msg.Platform),
		"subject":  msg.Subject,
		"body":     truncateBody(msg.BodyPreview, 500),
	})

	resp, err := c.CompleteJSON(ctx, "You are a notification intelligence AI. Respond with JSON only.", prompt, lightCallTimeout)
	if err != nil {
		return nil, err
	}

	return parseIntelligenceResponse(resp)
}

// parseIntelligenceResponse clamps every untrusted sub-score to [0,100].
func parseIntelligenceResponse(raw string) (*domain.IntelligenceScores, error) {
	var resp intelligenceResponse
	if err := json.Unmarshal([]byte(stripFence(raw)), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse intelligence response: %w", err)
	}

	scores := domain.IntelligenceScores{
		ContextualRelevance: resp.ContextualRelevance,
		UrgencyScore:        resp.UrgencyScore,
		BusinessImpact:      resp.BusinessImpact,
		UserPreferenceMatch: resp.UserPreferenceMatch,
	}.Clamped()

	return &scores, nil
}
