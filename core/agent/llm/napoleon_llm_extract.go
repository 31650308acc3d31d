package llm

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"napoleon_server/core/domain"
)

var extractTemplate = Template{
	Name: "action_extract",
	Text: `Extract structured items from this executive message.

From: {{sender}} ({{platform}})
Subject: {{subject}}
Message priority: {{priority}}

Body:
{{body}}

Respond with JSON only:
{
  "action_items": [{
    "title": "...", "description": "...", "category": "...",
    "priority": "critical|high|medium|low",
    "estimated_duration": "...", "dependencies": ["..."],
    "stakeholders": ["..."], "business_impact": "...",
    "confidentiality_level": "..."
  }],
  "meeting_requests": [{
    "title": "...", "attendees": ["..."], "proposed_times": ["..."],
    "duration": "...", "urgency": "critical|high|medium|low"
  }],
  "decisions_required": [{
    "decision": "...", "deadline": "...", "impact": "...",
    "stakeholders": ["..."], "urgency": "critical|high|medium|low"
  }],
  "communications_needed": [{
    "recipient": "...", "channel": "...", "purpose": "...",
    "urgency": "critical|high|medium|low"
  }]
}
Use empty arrays when nothing applies.`,
}

// extractionResponse is the untrusted wire shape of the extraction response.
type extractionResponse struct {
	ActionItems []struct {
		Title                string   `json:"title"`
		Description          string   `json:"description"`
		Category             string   `json:"category"`
		Priority             string   `json:"priority"`
		EstimatedDuration    string   `json:"estimated_duration"`
		Dependencies         []string `json:"dependencies"`
		Stakeholders         []string `json:"stakeholders"`
		BusinessImpact       string   `json:"business_impact"`
		ConfidentialityLevel string   `json:"confidentiality_level"`
	} `json:"action_items"`
	MeetingRequests []struct {
		Title         string   `json:"title"`
		Attendees     []string `json:"attendees"`
		ProposedTimes []string `json:"proposed_times"`
		Duration      string   `json:"duration"`
		Urgency       string   `json:"urgency"`
	} `json:"meeting_requests"`
	DecisionsRequired []struct {
		Decision     string   `json:"decision"`
		Deadline     string   `json:"deadline"`
		Impact       string   `json:"impact"`
		Stakeholders []string `json:"stakeholders"`
		Urgency      string   `json:"urgency"`
	} `json:"decisions_required"`
	CommunicationsNeeded []struct {
		Recipient string `json:"recipient"`
		Channel   string `json:"channel"`
		Purpose   string `json:"purpose"`
		Urgency   string `json:"urgency"`
	} `json:"communications_needed"`
}

// ExtractActions asks the model for structured action items, meetings,
// decisions and communications.
func (c *Client) ExtractActions(ctx context.Context, msg *domain.Message, body string, priorityCtx domain.PriorityTier) (*domain.ExtractionResult, error) {
	prompt := c.prompts.Render(ctx, extractTemplate, map[string]string{
		"sender":   msg.SenderEmail,
		"platform": string(msg.Platform),
		"subject":  msg.Subject,
		"priority": string(priorityCtx),
		"body":     truncateBody(body, 4000),
	})

	resp, err := c.CompleteJSON(ctx, "You are an executive assistant AI. Respond with JSON only.", prompt, structuredCallTimeout)
	if err != nil {
		return nil, err
	}

	return parseExtractionResponse(resp, msg)
}

// parseExtractionResponse validates every field of the untrusted payload.
// Items without a title/decision/recipient are dropped; priority strings are
// normalized to the canonical tiers.
func parseExtractionResponse(raw string, msg *domain.Message) (*domain.ExtractionResult, error) {
	var resp extractionResponse
	if err := json.Unmarshal([]byte(stripFence(raw)), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	result := domain.EmptyExtractionResult()
	result.LLMUsed = true

	for _, item := range resp.ActionItems {
		if item.Title == "" {
			continue
		}
		result.ActionItems = append(result.ActionItems, &domain.ActionItem{
			UserID:               msg.UserID,
			MessageID:            msg.ID,
			Title:                item.Title,
			Description:          item.Description,
			Category:             item.Category,
			Priority:             domain.NormalizeTier(item.Priority),
			EstimatedDuration:    item.EstimatedDuration,
			Dependencies:         item.Dependencies,
			Stakeholders:         item.Stakeholders,
			BusinessImpact:       item.BusinessImpact,
			ConfidentialityLevel: item.ConfidentialityLevel,
			Status:               domain.ActionStatusPending,
		})
	}

	for _, m := range resp.MeetingRequests {
		if m.Title == "" {
			continue
		}
		result.MeetingRequests = append(result.MeetingRequests, domain.MeetingRequest{
			Title:         m.Title,
			Attendees:     m.Attendees,
			ProposedTimes: m.ProposedTimes,
			Duration:      m.Duration,
			Urgency:       domain.NormalizeTier(m.Urgency),
		})
	}

	for _, d := range resp.DecisionsRequired {
		if d.Decision == "" {
			continue
		}
		result.DecisionsRequired = append(result.DecisionsRequired, domain.DecisionRequired{
			Decision:     d.Decision,
			Deadline:     d.Deadline,
			Impact:       d.Impact,
			Stakeholders: d.Stakeholders,
			Urgency:      domain.NormalizeTier(d.Urgency),
		})
	}

	for _, cn := range resp.CommunicationsNeeded {
		if cn.Recipient == "" {
			continue
		}
		result.CommunicationsNeeded = append(result.CommunicationsNeeded, domain.CommunicationNeeded{
			Recipient: cn.Recipient,
			Channel:   cn.Channel,
			Purpose:   cn.Purpose,
			Urgency:   domain.NormalizeTier(cn.Urgency),
		})
	}

	return result, nil
}
