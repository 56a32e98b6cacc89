package domain

import (
	"time"

	"github.com/google/uuid"
)

// StudySession tracks one learner's study session from start to finish.
// At most one ACTIVE session exists per learner.
type StudySession struct {
	ID         uuid.UUID
	LearnerID  uuid.UUID
	Mode       SessionMode
	Status     SessionStatus
	StartedAt  time.Time
	FinishedAt *time.Time
	Result     *SessionResult
	CreatedAt  time.Time
}

// GradeCounts holds per-rating counters for a study session.
type GradeCounts struct {
	Again int
	Hard  int
	Good  int
	Easy  int
}

// SessionResult holds the aggregated outcome of a completed session,
// computed from the review log entries tagged with the session id.
type SessionResult struct {
	TotalReviewed int
	GradeCounts   GradeCounts
	DurationMs    int64
	AccuracyRate  float64 // percentage of GOOD/EASY reviews
}
