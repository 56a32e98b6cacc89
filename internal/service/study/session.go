package study

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/a16vhoss/neuropath-backend/internal/domain"
	"github.com/a16vhoss/neuropath-backend/internal/service/study/srs"
)

// sessionBuckets holds the categorized candidates for one composition run.
type sessionBuckets struct {
	learning []domain.SessionCandidate
	due      []domain.SessionCandidate
	fresh    []domain.SessionCandidate // never-reviewed cards
}

// ComposeSession categorizes the candidate pool against the learner's
// scheduling records, orders each bucket, and applies the mode-specific
// selection and capacity rules. Every returned card appears exactly once;
// the relative order of due/learning cards survives adaptive interleaving.
// An empty candidate pool yields an empty session, not an error.
func (s *Service) ComposeSession(ctx context.Context, input SessionInput) ([]domain.SessionCandidate, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	maxNew := input.MaxNewCards
	if maxNew == 0 {
		maxNew = s.cfg.MaxNewCards
	}
	maxReview := input.MaxReviewCards
	if maxReview == 0 {
		maxReview = s.cfg.MaxReviewCards
	}

	if len(input.Cards) == 0 {
		return []domain.SessionCandidate{}, nil
	}

	now := s.now()

	buckets, err := s.categorize(ctx, input, now)
	if err != nil {
		return nil, err
	}

	s.orderBuckets(buckets, now)

	var out []domain.SessionCandidate
	switch input.Mode {
	case domain.SessionModeQuiz, domain.SessionModeExam:
		out = composeAssessment(buckets, maxReview)
	case domain.SessionModeCramming:
		out = composeCramming(buckets, maxReview+maxNew)
	case domain.SessionModeReviewDue:
		out = takeUpTo(append(append([]domain.SessionCandidate{}, buckets.learning...), buckets.due...), maxReview)
	case domain.SessionModeLearnNew:
		out = takeUpTo(buckets.fresh, maxNew)
	default: // adaptive
		review := append(append([]domain.SessionCandidate{}, buckets.learning...), takeUpTo(buckets.due, maxReview)...)
		out = interleave(review, takeUpTo(buckets.fresh, maxNew))
	}

	s.log.InfoContext(ctx, "session composed",
		slog.String("learner_id", input.LearnerID.String()),
		slog.String("mode", string(input.Mode)),
		slog.Int("candidates", len(input.Cards)),
		slog.Int("learning", len(buckets.learning)),
		slog.Int("due", len(buckets.due)),
		slog.Int("new", len(buckets.fresh)),
		slog.Int("selected", len(out)),
	)

	return out, nil
}

// categorize splits the candidate pool into learning / due / new buckets.
// Cards matching no inclusion rule for the mode are dropped. Duplicate card
// ids in the pool are collapsed to their first occurrence.
func (s *Service) categorize(ctx context.Context, input SessionInput, now time.Time) (*sessionBuckets, error) {
	ids := make([]uuid.UUID, 0, len(input.Cards))
	seen := make(map[uuid.UUID]struct{}, len(input.Cards))
	for _, c := range input.Cards {
		if _, dup := seen[c.CardID]; dup {
			continue
		}
		seen[c.CardID] = struct{}{}
		ids = append(ids, c.CardID)
	}

	records, err := s.records.ListByLearnerCards(ctx, input.LearnerID, ids)
	if err != nil {
		return nil, fmt.Errorf("list scheduling records: %w", err)
	}
	byCard := make(map[uuid.UUID]*domain.SchedulingRecord, len(records))
	for i := range records {
		byCard[records[i].CardID] = &records[i]
	}

	assessment := input.Mode == domain.SessionModeQuiz || input.Mode == domain.SessionModeExam

	buckets := &sessionBuckets{}
	taken := make(map[uuid.UUID]struct{}, len(ids))
	for _, card := range input.Cards {
		if _, dup := taken[card.CardID]; dup {
			continue
		}
		taken[card.CardID] = struct{}{}

		record, ok := byCard[card.CardID]
		if !ok || record.State == domain.CardStateNew {
			buckets.fresh = append(buckets.fresh, domain.SessionCandidate{Card: card, Record: record})
			continue
		}

		candidate := domain.SessionCandidate{Card: card, Record: record}
		switch record.State {
		case domain.CardStateLearning, domain.CardStateRelearning:
			buckets.learning = append(buckets.learning, candidate)
		case domain.CardStateReview:
			if record.IsDue(now) {
				buckets.due = append(buckets.due, candidate)
			} else if assessment && s.includeAheadOfSchedule(record, now) {
				buckets.due = append(buckets.due, candidate)
			}
			// Otherwise dropped: well-known and far from due.
		}
	}

	return buckets, nil
}

// includeAheadOfSchedule keeps weak or nearly-due review cards in rotation
// for quiz/exam modes: within 50% of the interval from becoming due, or
// mastery still below 3.
func (s *Service) includeAheadOfSchedule(record *domain.SchedulingRecord, now time.Time) bool {
	if record.MasteryLevel < 3 {
		return true
	}
	window := daysToDuration(record.IntervalDays / 2)
	return !record.Due.Add(-window).After(now)
}

// orderBuckets sorts learning by ascending retrievability (most-forgotten
// first), due by ascending due time (most overdue first), and shuffles new
// cards so no fixed curriculum order can be memorized.
func (s *Service) orderBuckets(b *sessionBuckets, now time.Time) {
	sort.SliceStable(b.learning, func(i, j int) bool {
		return s.currentRetrievability(b.learning[i].Record, now) < s.currentRetrievability(b.learning[j].Record, now)
	})
	sort.SliceStable(b.due, func(i, j int) bool {
		return b.due[i].Record.Due.Before(b.due[j].Record.Due)
	})
	s.shuffle(len(b.fresh), func(i, j int) {
		b.fresh[i], b.fresh[j] = b.fresh[j], b.fresh[i]
	})
}

// currentRetrievability recomputes recall probability at composition time.
func (s *Service) currentRetrievability(record *domain.SchedulingRecord, now time.Time) float64 {
	if record == nil || record.LastReview == nil {
		return 1.0
	}
	elapsedDays := now.Sub(*record.LastReview).Hours() / 24
	return srs.Retrievability(s.params, record.Stability, elapsedDays)
}

// composeAssessment builds a quiz/exam list: all learning cards first, then
// new cards up to the cap, then due cards. New beats due here to surface
// fresh content in assessments.
func composeAssessment(b *sessionBuckets, maxCards int) []domain.SessionCandidate {
	out := append([]domain.SessionCandidate{}, b.learning...)
	for _, c := range b.fresh {
		if len(out) >= maxCards {
			break
		}
		out = append(out, c)
	}
	for _, c := range b.due {
		if len(out) >= maxCards {
			break
		}
		out = append(out, c)
	}
	return out
}

// composeCramming merges every bucket and surfaces the weakest cards first.
func composeCramming(b *sessionBuckets, maxCards int) []domain.SessionCandidate {
	merged := make([]domain.SessionCandidate, 0, len(b.due)+len(b.learning)+len(b.fresh))
	merged = append(merged, b.due...)
	merged = append(merged, b.learning...)
	merged = append(merged, b.fresh...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].MasteryLevel() < merged[j].MasteryLevel()
	})

	return takeUpTo(merged, maxCards)
}

// interleave inserts one new card after every max(3, len(review)/len(new))
// review cards; leftover new cards go at the end. The review order is
// preserved. Either batch empty returns the other unchanged.
func interleave(review, fresh []domain.SessionCandidate) []domain.SessionCandidate {
	if len(review) == 0 {
		return fresh
	}
	if len(fresh) == 0 {
		return review
	}

	gap := len(review) / len(fresh)
	if gap < 3 {
		gap = 3
	}

	out := make([]domain.SessionCandidate, 0, len(review)+len(fresh))
	next := 0
	for i, c := range review {
		out = append(out, c)
		if (i+1)%gap == 0 && next < len(fresh) {
			out = append(out, fresh[next])
			next++
		}
	}
	for ; next < len(fresh); next++ {
		out = append(out, fresh[next])
	}
	return out
}

func takeUpTo(cards []domain.SessionCandidate, limit int) []domain.SessionCandidate {
	if limit < 0 {
		limit = 0
	}
	if len(cards) <= limit {
		return cards
	}
	return cards[:limit]
}
