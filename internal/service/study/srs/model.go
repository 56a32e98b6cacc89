package srs

import (
	"math"
)

// Retrievability calculates the probability of recall after elapsedDays.
//
//	R(t, S) = exp(-t / max(S, minStability))
//
// Returns 1.0 for non-positive elapsed time; the result is clamped to [0, 1]
// and monotonically decreasing in elapsed time.
func Retrievability(p Params, stability, elapsedDays float64) float64 {
	if elapsedDays <= 0 {
		return 1.0
	}
	s := math.Max(stability, p.MinStability)
	r := math.Exp(-elapsedDays / s)
	return clamp(r, 0, 1)
}

// NextStability calculates the stability after a review.
//
// First exposure bypasses the general formula and assigns a fixed seed value
// by rating. A lapse shrinks stability to LapseFactor of its current value.
// A successful recall grows stability proportionally to (rating - 1), damped
// by difficulty: the growth multiplier is
//
//	1 + GrowthRate * (rating - 1) * (minD + maxD - D)
//
// so a card at maximum difficulty grows at minD times the base rate while an
// easy card grows at nearly full rate. The result is clamped to the
// configured stability bounds; retrievability is accepted for parity with the
// forgetting-curve literature but does not currently discriminate outcomes.
func NextStability(p Params, stability, difficulty float64, rating Rating, retrievability float64, isNew bool) float64 {
	_ = retrievability

	if isNew {
		return clamp(p.SeedStability[rating-1], p.MinStability, p.MaxStability)
	}

	if rating == Again {
		return clamp(stability*p.LapseFactor, p.MinStability, p.MaxStability)
	}

	d := clamp(difficulty, p.MinDifficulty, p.MaxDifficulty)
	damping := p.MinDifficulty + p.MaxDifficulty - d
	growth := 1 + p.GrowthRate*float64(rating-1)*damping

	return clamp(stability*growth, p.MinStability, p.MaxStability)
}

// NextDifficulty calculates the difficulty after a review: an additive delta
// per rating, clamped to the configured bounds. Failure makes future reviews
// feel harder, ease makes them feel easier.
func NextDifficulty(p Params, difficulty float64, rating Rating) float64 {
	return clamp(difficulty+p.DifficultyDelta[rating-1], p.MinDifficulty, p.MaxDifficulty)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
