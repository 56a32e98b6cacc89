package study

import (
	"github.com/google/uuid"

	"github.com/a16vhoss/neuropath-backend/internal/domain"
)

// ReviewInput is one answered card from the review UI.
type ReviewInput struct {
	LearnerID  uuid.UUID
	CardID     uuid.UUID
	Rating     domain.Rating
	ResponseMs int
	SessionID  *uuid.UUID
}

// Validate rejects malformed review events before any computation runs.
func (in ReviewInput) Validate() error {
	var errs []domain.FieldError

	if in.LearnerID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "learner_id", Message: "required"})
	}
	if in.CardID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "card_id", Message: "required"})
	}
	if !in.Rating.Valid() {
		errs = append(errs, domain.FieldError{Field: "rating", Message: "must be one of AGAIN, HARD, GOOD, EASY"})
	}
	if in.ResponseMs < 0 {
		errs = append(errs, domain.FieldError{Field: "response_ms", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// SessionInput describes one session-composition request. Cards is the
// candidate pool for the requested scope, resolved by the content store;
// the engine itself never stores card content.
type SessionInput struct {
	LearnerID      uuid.UUID
	Mode           domain.SessionMode
	Cards          []domain.CardRef
	MaxNewCards    int // 0 → config default
	MaxReviewCards int // 0 → config default
}

// Validate rejects malformed session requests.
func (in SessionInput) Validate() error {
	var errs []domain.FieldError

	if in.LearnerID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "learner_id", Message: "required"})
	}
	if !in.Mode.Valid() {
		errs = append(errs, domain.FieldError{Field: "mode", Message: "unknown session mode"})
	}
	if in.MaxNewCards < 0 {
		errs = append(errs, domain.FieldError{Field: "max_new_cards", Message: "must not be negative"})
	}
	if in.MaxReviewCards < 0 {
		errs = append(errs, domain.FieldError{Field: "max_review_cards", Message: "must not be negative"})
	}
	for _, c := range in.Cards {
		if c.CardID == uuid.Nil {
			errs = append(errs, domain.FieldError{Field: "cards", Message: "card id required"})
			break
		}
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
