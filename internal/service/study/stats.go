package study

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/a16vhoss/neuropath-backend/internal/domain"
)

// LearnerStats aggregates the read-side view over all of a learner's
// scheduling records: counts per bucket plus average retrievability and
// stability, computed with the same memory-model function the review path
// uses. Consumed by analytics and gamification; never written back.
func (s *Service) LearnerStats(ctx context.Context, learnerID uuid.UUID) (domain.LearnerStats, error) {
	if learnerID == uuid.Nil {
		return domain.LearnerStats{}, domain.NewValidationError("learner_id", "required")
	}

	records, err := s.records.ListByLearner(ctx, learnerID)
	if err != nil {
		return domain.LearnerStats{}, fmt.Errorf("list scheduling records: %w", err)
	}

	now := s.now()

	stats := domain.LearnerStats{TotalCards: len(records)}
	if len(records) == 0 {
		return stats, nil
	}

	var retrievabilitySum, stabilitySum float64
	for i := range records {
		r := &records[i]

		switch r.State {
		case domain.CardStateLearning, domain.CardStateRelearning:
			stats.LearningCount++
		case domain.CardStateReview:
			if r.IsDue(now) {
				stats.DueCount++
			}
		}
		if r.MasteryLevel >= s.cfg.MasteredLevel {
			stats.MasteredCount++
		}

		retrievabilitySum += s.currentRetrievability(r, now)
		stabilitySum += r.Stability
	}

	stats.AvgRetrievability = retrievabilitySum / float64(len(records))
	stats.AvgStability = stabilitySum / float64(len(records))

	return stats, nil
}
