package study

import (
	"github.com/a16vhoss/neuropath-backend/internal/domain"
)

// ReviewResult is the engine's output per processed review, consumed by the
// UI/session controller.
type ReviewResult struct {
	Record       domain.SchedulingRecord
	IntervalDays float64
	Stability    float64
	MasteryLevel int
}
