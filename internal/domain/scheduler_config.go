package domain

import (
	"time"
)

// SchedulerConfig holds every tunable of the scheduling engine in one
// immutable value, passed to the service at construction. Tuning the model
// is a config change, not a code change.
type SchedulerConfig struct {
	// Stability bounds, in days.
	MinStability float64
	MaxStability float64

	// Difficulty bounds.
	MinDifficulty float64
	MaxDifficulty float64

	// Canonical values for a lazily created record.
	InitialStability  float64
	InitialDifficulty float64

	// Seed stability assigned on a card's first exposure, by rating.
	SeedStabilityAgain float64
	SeedStabilityHard  float64
	SeedStabilityGood  float64
	SeedStabilityEasy  float64

	// LapseFactor is the fraction of current stability kept after an Again.
	LapseFactor float64
	// GrowthRate scales the difficulty-damped stability increase on success.
	GrowthRate float64

	// Additive difficulty deltas per rating.
	DifficultyDeltaAgain float64
	DifficultyDeltaHard  float64
	DifficultyDeltaGood  float64
	DifficultyDeltaEasy  float64

	// Fixed learning/relearning steps, by rating.
	LearningStepAgain time.Duration
	LearningStepHard  time.Duration
	LearningStepGood  time.Duration
	LearningStepEasy  time.Duration

	// Graduating intervals for a first successful review, in days.
	GraduatingIntervalDays     float64
	EasyGraduatingIntervalDays float64

	// Interval clamp and fuzz range.
	MinIntervalDays float64
	MaxIntervalDays float64
	FuzzMin         float64
	FuzzMax         float64

	// Successful-repetition thresholds for mastery levels 1..5.
	MasteryThresholds [5]int
	// MasteredLevel is the mastery level at which a card counts as mastered.
	MasteredLevel int

	// Default session capacity limits.
	MaxNewCards    int
	MaxReviewCards int
}

// DefaultSchedulerConfig returns the canonical engine tuning.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MinStability:               0.1,
		MaxStability:               60,
		MinDifficulty:              0.1,
		MaxDifficulty:              1.0,
		InitialStability:           0.5,
		InitialDifficulty:          0.3,
		SeedStabilityAgain:         0.1,
		SeedStabilityHard:          0.3,
		SeedStabilityGood:          1.0,
		SeedStabilityEasy:          3.0,
		LapseFactor:                0.3,
		GrowthRate:                 0.5,
		DifficultyDeltaAgain:       0.2,
		DifficultyDeltaHard:        0.1,
		DifficultyDeltaGood:        -0.05,
		DifficultyDeltaEasy:        -0.15,
		LearningStepAgain:          10 * time.Minute,
		LearningStepHard:           time.Hour,
		LearningStepGood:           24 * time.Hour,
		LearningStepEasy:           72 * time.Hour,
		GraduatingIntervalDays:     1,
		EasyGraduatingIntervalDays: 4,
		MinIntervalDays:            10.0 / (24 * 60), // 10 minutes
		MaxIntervalDays:            60,
		FuzzMin:                    0.95,
		FuzzMax:                    1.05,
		MasteryThresholds:          [5]int{1, 2, 3, 6, 10},
		MasteredLevel:              5,
		MaxNewCards:                10,
		MaxReviewCards:             20,
	}
}
