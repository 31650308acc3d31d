// Package analysis implements message analysis: action extraction and
// batch AI processing.
package analysis

import (
	"context"
	"strings"

	"napoleon_server/core/domain"
	"napoleon_server/core/port/out"
	"napoleon_server/pkg/logger"
)

// =============================================================================
// Action/Decision Extractor
// =============================================================================

// fallbackRule emits at most one action item per category when the LLM
// path is unavailable.
type fallbackRule struct {
	keywords []string
	title    string
	category string
	priority domain.PriorityTier
}

var fallbackRules = []fallbackRule{
	{
		keywords: []string{"please review", "please check"},
		title:    "Review Request",
		category: "review",
		priority: domain.TierMedium,
	},
	{
		keywords: []string{"meeting", "schedule"},
		title:    "Schedule Meeting",
		category: "meeting",
		priority: domain.TierMedium,
	},
	{
		keywords: []string{"approve", "sign off"},
		title:    "Approval Required",
		category: "approval",
		priority: domain.TierHigh,
	},
}

// Extractor derives structured action items from message content.
type Extractor struct {
	llm out.LLMClient
}

// NewExtractor creates an extractor. A nil LLM client forces the keyword
// fallback on every message.
func NewExtractor(llm out.LLMClient) *Extractor {
	return &Extractor{llm: llm}
}

// Extract returns the structured items for a message. It never returns nil
// and never panics past its caller; any internal failure degrades to the
// keyword fallback, and a fallback failure degrades to an empty result.
func (e *Extractor) Extract(ctx context.Context, msg *domain.Message, body string, priorityCtx domain.PriorityTier) (result *domain.ExtractionResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("message_id", msg.ID).Error("extractor panic recovered: %v", r)
			result = domain.EmptyExtractionResult()
		}
	}()

	if e.llm != nil {
		extracted, err := e.llm.ExtractActions(ctx, msg, body, priorityCtx)
		if err == nil && extracted != nil {
			return extracted
		}
		logger.WithError(err).Debug("LLM extraction failed, using fallback")
	}

	return e.fallback(msg, body)
}

// fallback applies the keyword rules, emitting at most one item per rule
// category regardless of how many keywords hit.
func (e *Extractor) fallback(msg *domain.Message, body string) *domain.ExtractionResult {
	content := strings.ToLower(msg.Subject + "\n" + body)
	result := domain.EmptyExtractionResult()

	for _, rule := range fallbackRules {
		for _, kw := range rule.keywords {
			if !strings.Contains(content, kw) {
				continue
			}
			result.ActionItems = append(result.ActionItems, &domain.ActionItem{
				UserID:      msg.UserID,
				MessageID:   msg.ID,
				Title:       rule.title,
				Description: "Detected from message content: " + msg.Subject,
				Category:    rule.category,
				Priority:    rule.priority,
				Status:      domain.ActionStatusPending,
			})
			break // one item per category
		}
	}

	return result
}
