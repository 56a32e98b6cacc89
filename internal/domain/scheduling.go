package domain

import (
	"time"

	"github.com/google/uuid"
)

// SchedulingRecord holds the memory-model state of one card for one learner.
// Exactly one record exists per (learner, card) pair; it is created lazily on
// the first review and mutated once per review after that.
type SchedulingRecord struct {
	ID             uuid.UUID
	LearnerID      uuid.UUID
	CardID         uuid.UUID
	State          CardState
	Stability      float64 // modeled days until recall decays to the reference threshold
	Difficulty     float64 // [0.1, 1.0]; higher = harder to strengthen
	Retrievability float64 // cached value, always 1.0 right after a review
	IntervalDays   float64 // last computed interval
	Due            time.Time
	LastReview     *time.Time
	Reps           int
	Lapses         int
	AvgResponseMs  int
	LastResponseMs int
	MasteryLevel   int // 0..5, derived, recomputed each review
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsDue reports whether the record's card needs review at the given time.
func (r *SchedulingRecord) IsDue(now time.Time) bool {
	if r.State == CardStateNew {
		return true
	}
	return !r.Due.After(now)
}

// ReviewLogEntry is the immutable audit record of a single review. Entries
// are appended once by the review processor and never updated or deleted.
type ReviewLogEntry struct {
	ID               uuid.UUID
	LearnerID        uuid.UUID
	CardID           uuid.UUID
	SessionID        *uuid.UUID
	Rating           Rating
	ResponseMs       int
	StabilityBefore  float64
	StabilityAfter   float64
	DifficultyBefore float64
	DifficultyAfter  float64
	Retrievability   float64 // recall probability at the moment of the review
	IntervalDays     float64 // interval produced by this review
	ReviewedAt       time.Time
}

// RatingStats aggregates one card's review history by rating outcome.
type RatingStats struct {
	Total         int
	AgainCount    int
	HardCount     int
	GoodCount     int
	EasyCount     int
	AvgResponseMs float64
}

// CardRef is a card supplied by the content store for session composition.
// The engine never persists these; scope resolution is an external concern.
type CardRef struct {
	CardID  uuid.UUID
	Content string
}

// SessionCandidate pairs a card with its scheduling record (nil for cards the
// learner has never reviewed). It exists only for the duration of session
// composition.
type SessionCandidate struct {
	Card   CardRef
	Record *SchedulingRecord
}

// MasteryLevel returns the candidate's mastery level, 0 when no record exists.
func (c SessionCandidate) MasteryLevel() int {
	if c.Record == nil {
		return 0
	}
	return c.Record.MasteryLevel
}

// LearnerStats is the read-side aggregate view over a learner's records,
// consumed by analytics and gamification.
type LearnerStats struct {
	TotalCards        int
	DueCount          int
	LearningCount     int
	MasteredCount     int
	AvgRetrievability float64
	AvgStability      float64
}
