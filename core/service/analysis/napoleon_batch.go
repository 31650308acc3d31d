package analysis

import (
	"context"
	"time"

	"napoleon_server/core/domain"
	"napoleon_server/core/service/priority"
	"napoleon_server/core/service/vip"
	"napoleon_server/pkg/logger"
	"napoleon_server/pkg/ratelimit"

	"github.com/google/uuid"
)

// =============================================================================
// Batch Processor
// =============================================================================
//
// Processes AI analysis batches with partial-failure semantics: a failing
// message is counted and skipped, never aborting the batch. Messages run
// sequentially to respect the LLM provider's own rate limits.

// NotifyFunc runs after a message has been analyzed, with the message
// carrying its fresh score and tier. Best effort: errors stay inside.
type NotifyFunc func(ctx context.Context, msg *domain.Message)

// Processor runs the analysis pipeline over message batches.
type Processor struct {
	messages   domain.MessageRepository
	bodies     domain.MessageBodyRepository
	vips       domain.VipContactRepository
	analyses   domain.MessageAnalysisRepository
	actions    domain.ActionItemRepository
	batches    domain.BatchRecordRepository
	classifier *vip.Classifier
	scorer     *priority.Scorer
	extractor  *Extractor
	limiter    *ratelimit.BatchLimiter
	notify     NotifyFunc
}

// ProcessorDeps holds dependencies for creating a Processor.
type ProcessorDeps struct {
	MessageRepo  domain.MessageRepository
	BodyRepo     domain.MessageBodyRepository
	VipRepo      domain.VipContactRepository
	AnalysisRepo domain.MessageAnalysisRepository
	ActionRepo   domain.ActionItemRepository
	BatchRepo    domain.BatchRecordRepository
	Classifier   *vip.Classifier
	Scorer       *priority.Scorer
	Extractor    *Extractor
	Limiter      *ratelimit.BatchLimiter
	Notify       NotifyFunc
}

// NewProcessor creates a batch processor.
func NewProcessor(deps ProcessorDeps) *Processor {
	return &Processor{
		messages:   deps.MessageRepo,
		bodies:     deps.BodyRepo,
		vips:       deps.VipRepo,
		analyses:   deps.AnalysisRepo,
		actions:    deps.ActionRepo,
		batches:    deps.BatchRepo,
		classifier: deps.Classifier,
		scorer:     deps.Scorer,
		extractor:  deps.Extractor,
		limiter:    deps.Limiter,
		notify:     deps.Notify,
	}
}

// CheckRateLimit reports whether the user may start another batch.
func (p *Processor) CheckRateLimit(ctx context.Context, userID uuid.UUID) bool {
	return p.limiter.Allow(ctx, userID.String())
}

// RecordBatchRequest counts one batch request against the user's window.
func (p *Processor) RecordBatchRequest(ctx context.Context, userID uuid.UUID) {
	p.limiter.Record(ctx, userID.String())
}

// Remaining reports how many batch requests are left in the user's window.
func (p *Processor) Remaining(ctx context.Context, userID uuid.UUID) int {
	return p.limiter.Remaining(ctx, userID.String())
}

// ProcessBatch analyzes up to MaxBatchSize messages for the user.
// When the rate limit is already exceeded it short-circuits without touching
// storage or the LLM; otherwise it records exactly one tracker entry for the
// batch and processes the messages sequentially, continuing past individual
// failures.
func (p *Processor) ProcessBatch(ctx context.Context, userID uuid.UUID, messageIDs []int64) *domain.BatchResult {
	// Check and count in one atomic step; a separate check-then-record pair
	// would let two instances both take the final slot.
	if !p.limiter.TryAcquire(ctx, userID.String()) {
		return &domain.BatchResult{RateLimited: true}
	}

	// Cap the batch; extra ids are dropped and must be resubmitted.
	if len(messageIDs) > domain.MaxBatchSize {
		messageIDs = messageIDs[:domain.MaxBatchSize]
	}

	batchID := uuid.New().String()

	// One tracker entry per batch attempt, not per message.
	if p.batches != nil {
		record := &domain.BatchRecord{
			UserID:       userID,
			BatchID:      batchID,
			MessageCount: len(messageIDs),
			CreatedAt:    time.Now(),
		}
		if err := p.batches.Create(ctx, record); err != nil {
			logger.WithError(err).Warn("failed to persist batch record")
		}
	}

	result := &domain.BatchResult{BatchID: batchID}
	for _, id := range messageIDs {
		if err := p.AnalyzeMessage(ctx, userID, id, batchID); err != nil {
			logger.WithError(err).WithField("message_id", id).Warn("message analysis failed")
			result.Failed++
			continue
		}
		result.Processed++
	}

	return result
}

// AnalyzeMessage runs the full pipeline for one message: VIP classification,
// priority scoring, analysis persistence and action extraction. Store write
// failures after scoring are logged and skipped, never aborting the pipeline
// (the UI must always receive a well-formed result).
func (p *Processor) AnalyzeMessage(ctx context.Context, userID uuid.UUID, messageID int64, batchID string) error {
	msg, err := p.messages.GetByID(ctx, userID, messageID)
	if err != nil {
		return err
	}

	// Full body lives in the document store; fall back to the preview.
	body := msg.BodyPreview
	if p.bodies != nil {
		if full, err := p.bodies.Get(ctx, userID, messageID); err == nil && full != "" {
			body = full
		}
	}

	// Store read failure means "no VIP contacts", not an error.
	contacts, err := p.vips.ListByUser(ctx, userID)
	if err != nil {
		logger.WithError(err).Warn("failed to load VIP contacts, treating sender as standard")
		contacts = nil
	}
	vipResult := p.classifier.Classify(msg.SenderEmail, contacts)

	score := p.scorer.Score(ctx, msg, body, vipResult)

	update := &domain.MessageAnalysisUpdate{
		PriorityScore: score.FinalScore,
		PriorityTier:  score.Tier,
		Summary:       score.Summary,
		IsVIP:         vipResult.IsVIP,
	}
	if err := p.messages.UpdateAnalysis(ctx, userID, messageID, update); err != nil {
		logger.WithError(err).WithField("message_id", messageID).Warn("failed to persist message analysis")
	}

	if p.analyses != nil {
		analysis := &domain.MessageAnalysis{
			UserID:            userID,
			MessageID:         messageID,
			BatchID:           batchID,
			BaseScore:         score.BaseScore,
			VIPBoost:          score.VIPBoost,
			FinalScore:        score.FinalScore,
			Tier:              score.Tier,
			UrgencyIndicators: score.UrgencyIndicators,
			LLMUsed:           score.LLMUsed,
			CreatedAt:         time.Now(),
		}
		if err := p.analyses.Create(ctx, analysis); err != nil {
			logger.WithError(err).Warn("failed to persist analysis record")
		}
	}

	extraction := p.extractor.Extract(ctx, msg, body, score.Tier)
	for _, item := range extraction.ActionItems {
		if err := p.actions.Create(ctx, item); err != nil {
			logger.WithError(err).WithField("message_id", messageID).Warn("failed to persist action item")
		}
	}

	if p.notify != nil {
		msg.PriorityScore = score.FinalScore
		msg.PriorityTier = score.Tier
		msg.IsVIP = vipResult.IsVIP
		p.notify(ctx, msg)
	}

	return nil
}
