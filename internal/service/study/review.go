package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/a16vhoss/neuropath-backend/internal/domain"
	"github.com/a16vhoss/neuropath-backend/internal/service/study/srs"
)

// ProcessReview records one review outcome: it loads (or lazily creates) the
// card's scheduling record, runs the memory model, and persists the updated
// record together with an immutable log entry in a single transaction.
// Computation is pure; only the storage steps can fail, and a storage failure
// leaves no partial state behind.
func (s *Service) ProcessReview(ctx context.Context, input ReviewInput) (*ReviewResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.now()

	record, isNew, err := s.fetchOrInitRecord(ctx, input.LearnerID, input.CardID, now)
	if err != nil {
		return nil, err
	}

	rating := srs.RatingFromDomain(input.Rating)

	var elapsedDays float64
	if record.LastReview != nil {
		elapsedDays = now.Sub(*record.LastReview).Hours() / 24
	}

	retrievability := srs.Retrievability(s.params, record.Stability, elapsedDays)
	isNewCard := record.State == domain.CardStateNew

	newStability := srs.NextStability(s.params, record.Stability, record.Difficulty, rating, retrievability, isNewCard)
	newDifficulty := srs.NextDifficulty(s.params, record.Difficulty, rating)
	newState := srs.NextState(record.State, rating)
	intervalDays := srs.NextIntervalDays(s.params, newStability, newState, rating, s.fuzz)

	reps := record.Reps + 1
	lapses := record.Lapses
	if srs.IsLapse(rating) {
		lapses++
	}
	mastery := srs.MasteryLevel(s.params, reps, lapses, newStability)

	updated := record
	updated.State = newState
	updated.Stability = newStability
	updated.Difficulty = newDifficulty
	updated.Retrievability = 1.0 // a review always refreshes recall
	updated.IntervalDays = intervalDays
	updated.Due = now.Add(daysToDuration(intervalDays))
	updated.LastReview = &now
	updated.Reps = reps
	updated.Lapses = lapses
	updated.AvgResponseMs = nextAvgResponseMs(record.AvgResponseMs, record.Reps, input.ResponseMs)
	updated.LastResponseMs = input.ResponseMs
	updated.MasteryLevel = mastery

	entry := domain.ReviewLogEntry{
		ID:               uuid.New(),
		LearnerID:        input.LearnerID,
		CardID:           input.CardID,
		SessionID:        input.SessionID,
		Rating:           input.Rating,
		ResponseMs:       input.ResponseMs,
		StabilityBefore:  record.Stability,
		StabilityAfter:   newStability,
		DifficultyBefore: record.Difficulty,
		DifficultyAfter:  newDifficulty,
		Retrievability:   retrievability,
		IntervalDays:     intervalDays,
		ReviewedAt:       now,
	}

	var persisted domain.SchedulingRecord
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		if isNew {
			persisted, txErr = s.records.Create(txCtx, updated)
		} else {
			persisted, txErr = s.records.Update(txCtx, updated)
		}
		if txErr != nil {
			return fmt.Errorf("persist scheduling record: %w", txErr)
		}

		if _, txErr = s.reviews.Append(txCtx, entry); txErr != nil {
			return fmt.Errorf("append review log: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "review processed",
		slog.String("learner_id", input.LearnerID.String()),
		slog.String("card_id", input.CardID.String()),
		slog.String("rating", string(input.Rating)),
		slog.String("old_state", string(record.State)),
		slog.String("new_state", string(persisted.State)),
		slog.Float64("stability", persisted.Stability),
		slog.Float64("interval_days", persisted.IntervalDays),
		slog.Int("mastery_level", persisted.MasteryLevel),
	)

	return &ReviewResult{
		Record:       persisted,
		IntervalDays: intervalDays,
		Stability:    newStability,
		MasteryLevel: mastery,
	}, nil
}

// fetchOrInitRecord loads the learner's record for a card, or builds an
// unpersisted record with canonical initial values for a first review.
func (s *Service) fetchOrInitRecord(ctx context.Context, learnerID, cardID uuid.UUID, now time.Time) (domain.SchedulingRecord, bool, error) {
	record, err := s.records.GetByLearnerCard(ctx, learnerID, cardID)
	if err == nil {
		return record, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.SchedulingRecord{}, false, fmt.Errorf("get scheduling record: %w", err)
	}

	return domain.SchedulingRecord{
		ID:             uuid.New(),
		LearnerID:      learnerID,
		CardID:         cardID,
		State:          domain.CardStateNew,
		Stability:      s.cfg.InitialStability,
		Difficulty:     s.cfg.InitialDifficulty,
		Retrievability: 1.0,
		Due:            now,
	}, true, nil
}

// nextAvgResponseMs folds one response time into the running average.
func nextAvgResponseMs(avg, priorReps, responseMs int) int {
	if priorReps <= 0 {
		return responseMs
	}
	return (avg*priorReps + responseMs) / (priorReps + 1)
}
