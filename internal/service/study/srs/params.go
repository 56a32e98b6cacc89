// Package srs implements the adaptive scheduling model: exponential
// memory decay, stability/difficulty updates, the review state machine,
// interval calculation, and the mastery classifier. Everything in this
// package is pure; randomness is passed in by the caller.
package srs

import (
	"fmt"
	"math"
	"time"

	"github.com/a16vhoss/neuropath-backend/internal/domain"
)

// Rating is the 1..4 recall-quality scale used by the model.
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

// Params holds all model tuning. Built once from domain.SchedulerConfig.
type Params struct {
	MinStability  float64
	MaxStability  float64
	MinDifficulty float64
	MaxDifficulty float64

	// SeedStability is the stability assigned on first exposure, indexed by
	// rating-1 (Again, Hard, Good, Easy).
	SeedStability [4]float64

	LapseFactor float64
	GrowthRate  float64

	// DifficultyDelta is the additive difficulty change, indexed by rating-1.
	DifficultyDelta [4]float64

	// LearningSteps are the fixed delays for learning/relearning cards,
	// indexed by rating-1.
	LearningSteps [4]time.Duration

	GraduatingIntervalDays     float64
	EasyGraduatingIntervalDays float64

	MinIntervalDays float64
	MaxIntervalDays float64
	FuzzMin         float64
	FuzzMax         float64

	// MasteryThresholds are the successful-rep counts for levels 1..5.
	MasteryThresholds [5]int
}

// ParamsFromConfig converts an engine config into model parameters.
func ParamsFromConfig(cfg domain.SchedulerConfig) Params {
	return Params{
		MinStability:  cfg.MinStability,
		MaxStability:  cfg.MaxStability,
		MinDifficulty: cfg.MinDifficulty,
		MaxDifficulty: cfg.MaxDifficulty,
		SeedStability: [4]float64{
			cfg.SeedStabilityAgain,
			cfg.SeedStabilityHard,
			cfg.SeedStabilityGood,
			cfg.SeedStabilityEasy,
		},
		LapseFactor: cfg.LapseFactor,
		GrowthRate:  cfg.GrowthRate,
		DifficultyDelta: [4]float64{
			cfg.DifficultyDeltaAgain,
			cfg.DifficultyDeltaHard,
			cfg.DifficultyDeltaGood,
			cfg.DifficultyDeltaEasy,
		},
		LearningSteps: [4]time.Duration{
			cfg.LearningStepAgain,
			cfg.LearningStepHard,
			cfg.LearningStepGood,
			cfg.LearningStepEasy,
		},
		GraduatingIntervalDays:     cfg.GraduatingIntervalDays,
		EasyGraduatingIntervalDays: cfg.EasyGraduatingIntervalDays,
		MinIntervalDays:            cfg.MinIntervalDays,
		MaxIntervalDays:            cfg.MaxIntervalDays,
		FuzzMin:                    cfg.FuzzMin,
		FuzzMax:                    cfg.FuzzMax,
		MasteryThresholds:          cfg.MasteryThresholds,
	}
}

// DefaultParams returns the canonical model tuning.
func DefaultParams() Params {
	return ParamsFromConfig(domain.DefaultSchedulerConfig())
}

// Validate checks that the parameters form a usable model.
func (p Params) Validate() error {
	if p.MinStability <= 0 || p.MaxStability <= p.MinStability {
		return fmt.Errorf("stability bounds [%v, %v] are invalid", p.MinStability, p.MaxStability)
	}
	if p.MinDifficulty <= 0 || p.MaxDifficulty <= p.MinDifficulty {
		return fmt.Errorf("difficulty bounds [%v, %v] are invalid", p.MinDifficulty, p.MaxDifficulty)
	}
	for i, s := range p.SeedStability {
		if math.IsNaN(s) || s <= 0 {
			return fmt.Errorf("seed stability for rating %d is invalid: %v", i+1, s)
		}
	}
	if p.LapseFactor <= 0 || p.LapseFactor >= 1 {
		return fmt.Errorf("lapse factor %v must be in (0, 1)", p.LapseFactor)
	}
	if p.GrowthRate <= 0 {
		return fmt.Errorf("growth rate %v must be positive", p.GrowthRate)
	}
	for i, step := range p.LearningSteps {
		if step <= 0 {
			return fmt.Errorf("learning step for rating %d must be positive", i+1)
		}
	}
	if p.MinIntervalDays <= 0 || p.MaxIntervalDays <= p.MinIntervalDays {
		return fmt.Errorf("interval bounds [%v, %v] are invalid", p.MinIntervalDays, p.MaxIntervalDays)
	}
	if p.FuzzMin <= 0 || p.FuzzMax < p.FuzzMin {
		return fmt.Errorf("fuzz range [%v, %v] is invalid", p.FuzzMin, p.FuzzMax)
	}
	prev := 0
	for i, th := range p.MasteryThresholds {
		if th <= prev {
			return fmt.Errorf("mastery thresholds must be strictly ascending, got %v at level %d", th, i+1)
		}
		prev = th
	}
	return nil
}

// RatingFromDomain maps the transport-facing rating onto the model scale.
// Invalid ratings map to Good; callers validate at the boundary first.
func RatingFromDomain(r domain.Rating) Rating {
	switch r {
	case domain.RatingAgain:
		return Again
	case domain.RatingHard:
		return Hard
	case domain.RatingGood:
		return Good
	case domain.RatingEasy:
		return Easy
	default:
		return Good
	}
}
