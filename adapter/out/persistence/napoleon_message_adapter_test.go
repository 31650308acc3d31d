package persistence

import (
	"database/sql"
	"testing"
	"time"

	"napoleon_server/core/domain"

	"github.com/google/uuid"
)

func TestMessageAnalysisRowToDomain(t *testing.T) {
	userID := uuid.New()
	created := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	row := &messageAnalysisRow{
		ID:                7,
		UserID:            userID,
		MessageID:         101,
		BatchID:           sql.NullString{String: "batch-1", Valid: true},
		BaseScore:         60,
		VIPBoost:          25,
		FinalScore:        85,
		Tier:              string(domain.TierCritical),
		UrgencyIndicators: []byte(`["deadline","asap"]`),
		LLMUsed:           true,
		CreatedAt:         created,
	}

	got := row.toDomain()
	if got.FinalScore != 85 || got.Tier != domain.TierCritical {
		t.Errorf("score/tier = %d/%s, want 85/%s", got.FinalScore, got.Tier, domain.TierCritical)
	}
	if got.BatchID != "batch-1" {
		t.Errorf("BatchID = %q, want batch-1", got.BatchID)
	}
	if len(got.UrgencyIndicators) != 2 || got.UrgencyIndicators[0] != "deadline" {
		t.Errorf("UrgencyIndicators = %v, want [deadline asap]", got.UrgencyIndicators)
	}
}

func TestMessageAnalysisRowCorruptIndicators(t *testing.T) {
	row := &messageAnalysisRow{
		ID:                8,
		UserID:            uuid.New(),
		MessageID:         102,
		Tier:              string(domain.TierHigh),
		UrgencyIndicators: []byte(`{not json`),
	}

	// Corrupt jsonb must degrade to no indicators, never fail the read.
	got := row.toDomain()
	if got == nil {
		t.Fatal("toDomain returned nil")
	}
	if got.UrgencyIndicators != nil {
		t.Errorf("UrgencyIndicators = %v, want nil", got.UrgencyIndicators)
	}
	if got.Tier != domain.TierHigh {
		t.Errorf("Tier = %s, want %s", got.Tier, domain.TierHigh)
	}
}
