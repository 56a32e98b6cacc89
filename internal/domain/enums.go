package domain

// CardState is the per-learner review state of a card.
type CardState string

const (
	CardStateNew        CardState = "NEW"
	CardStateLearning   CardState = "LEARNING"
	CardStateReview     CardState = "REVIEW"
	CardStateRelearning CardState = "RELEARNING"
)

// Valid reports whether the state is one of the known values.
func (s CardState) Valid() bool {
	switch s {
	case CardStateNew, CardStateLearning, CardStateReview, CardStateRelearning:
		return true
	}
	return false
}

// Rating is the learner's self-assessed recall quality for a single review.
type Rating string

const (
	RatingAgain Rating = "AGAIN"
	RatingHard  Rating = "HARD"
	RatingGood  Rating = "GOOD"
	RatingEasy  Rating = "EASY"
)

// Valid reports whether the rating is one of the four known values.
func (r Rating) Valid() bool {
	switch r {
	case RatingAgain, RatingHard, RatingGood, RatingEasy:
		return true
	}
	return false
}

// Score maps a rating onto the 1..4 scale used by the memory model.
// Invalid ratings map to 0; callers are expected to Validate first.
func (r Rating) Score() int {
	switch r {
	case RatingAgain:
		return 1
	case RatingHard:
		return 2
	case RatingGood:
		return 3
	case RatingEasy:
		return 4
	}
	return 0
}

// SessionMode selects the composition strategy for a study session.
type SessionMode string

const (
	// SessionModeAdaptive interleaves new cards among due/learning cards.
	SessionModeAdaptive SessionMode = "ADAPTIVE"
	// SessionModeQuiz prioritizes fresh content and weak cards for assessment.
	SessionModeQuiz SessionMode = "QUIZ"
	// SessionModeExam behaves like quiz; kept separate for downstream reporting.
	SessionModeExam SessionMode = "EXAM"
	// SessionModeCramming surfaces the weakest cards first regardless of due dates.
	SessionModeCramming SessionMode = "CRAMMING"
	// SessionModeReviewDue restricts the session to learning and due cards.
	SessionModeReviewDue SessionMode = "REVIEW_DUE"
	// SessionModeLearnNew restricts the session to previously unseen cards.
	SessionModeLearnNew SessionMode = "LEARN_NEW"
)

// Valid reports whether the mode is one of the known values.
func (m SessionMode) Valid() bool {
	switch m {
	case SessionModeAdaptive, SessionModeQuiz, SessionModeExam,
		SessionModeCramming, SessionModeReviewDue, SessionModeLearnNew:
		return true
	}
	return false
}

// SessionStatus is the lifecycle state of a study session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusFinished  SessionStatus = "FINISHED"
	SessionStatusAbandoned SessionStatus = "ABANDONED"
)

// Valid reports whether the status is one of the known values.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusActive, SessionStatusFinished, SessionStatusAbandoned:
		return true
	}
	return false
}
