package srs

// MasteryLevel maps cumulative review counters onto a discrete 0..5 level.
// successfulReps = max(0, reps - lapses); the highest satisfied threshold
// wins. Stability is accepted as an extension point for a future classifier
// but does not currently discriminate levels.
func MasteryLevel(p Params, reps, lapses int, stability float64) int {
	_ = stability

	successful := reps - lapses
	if successful < 0 {
		successful = 0
	}

	for level := len(p.MasteryThresholds); level >= 1; level-- {
		if successful >= p.MasteryThresholds[level-1] {
			return level
		}
	}
	return 0
}
