package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/a16vhoss/neuropath-backend/internal/domain"
)

// SeedRecord inserts a scheduling record with sensible review-state defaults,
// applies the given mutations, and returns the stored record.
func SeedRecord(t *testing.T, pool *pgxpool.Pool, learnerID uuid.UUID, mutate func(*domain.SchedulingRecord)) domain.SchedulingRecord {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	lastReview := now.Add(-24 * time.Hour)
	record := domain.SchedulingRecord{
		ID:             uuid.New(),
		LearnerID:      learnerID,
		CardID:         uuid.New(),
		State:          domain.CardStateReview,
		Stability:      5,
		Difficulty:     0.3,
		Retrievability: 1.0,
		IntervalDays:   5,
		Due:            now.Add(4 * 24 * time.Hour),
		LastReview:     &lastReview,
		Reps:           3,
		Lapses:         0,
		AvgResponseMs:  2500,
		LastResponseMs: 2000,
		MasteryLevel:   3,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if mutate != nil {
		mutate(&record)
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO scheduling_records (id, learner_id, card_id, state, stability, difficulty,
		     retrievability, interval_days, due, last_review, reps, lapses,
		     avg_response_ms, last_response_ms, mastery_level, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		record.ID, record.LearnerID, record.CardID, string(record.State), record.Stability,
		record.Difficulty, record.Retrievability, record.IntervalDays, record.Due,
		record.LastReview, record.Reps, record.Lapses, record.AvgResponseMs,
		record.LastResponseMs, record.MasteryLevel, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedRecord insert: %v", err)
	}

	return record
}

// SeedLogEntry inserts one review-log entry for a card and returns it.
func SeedLogEntry(t *testing.T, pool *pgxpool.Pool, learnerID, cardID uuid.UUID, mutate func(*domain.ReviewLogEntry)) domain.ReviewLogEntry {
	t.Helper()
	ctx := context.Background()

	entry := domain.ReviewLogEntry{
		ID:               uuid.New(),
		LearnerID:        learnerID,
		CardID:           cardID,
		Rating:           domain.RatingGood,
		ResponseMs:       2000,
		StabilityBefore:  1.0,
		StabilityAfter:   1.5,
		DifficultyBefore: 0.3,
		DifficultyAfter:  0.25,
		Retrievability:   0.9,
		IntervalDays:     1.5,
		ReviewedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
	if mutate != nil {
		mutate(&entry)
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO review_logs (id, learner_id, card_id, session_id, rating, response_ms,
		     stability_before, stability_after, difficulty_before, difficulty_after,
		     retrievability, interval_days, reviewed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		entry.ID, entry.LearnerID, entry.CardID, entry.SessionID, string(entry.Rating),
		entry.ResponseMs, entry.StabilityBefore, entry.StabilityAfter,
		entry.DifficultyBefore, entry.DifficultyAfter, entry.Retrievability,
		entry.IntervalDays, entry.ReviewedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedLogEntry insert: %v", err)
	}

	return entry
}
