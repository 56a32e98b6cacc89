package srs

import (
	"github.com/a16vhoss/neuropath-backend/internal/domain"
)

// NextState applies the review state machine.
//
//   - Again sends any card to Relearning.
//   - New/Learning cards graduate to Review on Good or Easy, stay in
//     Learning on Hard.
//   - Review/Relearning cards return to Review on any successful rating.
//
// New is the only initial state; there is no terminal state — cards cycle
// between Review and Relearning indefinitely.
func NextState(state domain.CardState, rating Rating) domain.CardState {
	if rating == Again {
		return domain.CardStateRelearning
	}

	switch state {
	case domain.CardStateNew, domain.CardStateLearning:
		if rating >= Good {
			return domain.CardStateReview
		}
		return domain.CardStateLearning
	default:
		// Review and Relearning both recover to Review on Hard or better.
		return domain.CardStateReview
	}
}

// IsLapse reports whether the rating counts as a lapse.
func IsLapse(rating Rating) bool {
	return rating == Again
}
