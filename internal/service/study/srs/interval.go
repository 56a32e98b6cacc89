package srs

import (
	"math"

	"github.com/a16vhoss/neuropath-backend/internal/domain"
)

// hoursPerDay converts the day-denominated model to wall-clock offsets.
const hoursPerDay = 24

// NextIntervalDays converts (new stability, new state, rating) into the next
// review offset in days.
//
// Learning and relearning cards use the fixed step for the rating. A card
// that just graduated (stability still at or below the graduating threshold)
// gets the flat graduating interval. Established review cards get their
// stability as the interval, multiplied by fuzz — a uniform factor in
// [FuzzMin, FuzzMax] drawn from the supplied function — to keep identical
// due-dates from clustering. The result is always clamped to
// [MinIntervalDays, MaxIntervalDays].
//
// fuzz must return a uniform value in [0, 1); tests pass a constant.
func NextIntervalDays(p Params, stability float64, state domain.CardState, rating Rating, fuzz func() float64) float64 {
	switch state {
	case domain.CardStateLearning, domain.CardStateRelearning:
		return p.LearningSteps[rating-1].Hours() / hoursPerDay

	case domain.CardStateReview:
		if stability <= 1 {
			// Graduating review: flat interval by rating.
			switch rating {
			case Easy:
				return p.EasyGraduatingIntervalDays
			case Good:
				return p.GraduatingIntervalDays
			}
		}

		interval := math.Min(stability, p.MaxIntervalDays)
		factor := p.FuzzMin + (p.FuzzMax-p.FuzzMin)*fuzz()
		interval *= factor
		return clamp(interval, p.MinIntervalDays, p.MaxIntervalDays)

	default:
		// New never appears post-review; fall back to the shortest step.
		return p.LearningSteps[Again-1].Hours() / hoursPerDay
	}
}
