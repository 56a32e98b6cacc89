package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("server.rate_limit_per_minute must be >= 0 (got %d)", c.Server.RateLimitPerMinute)
	}

	if err := c.Scheduler.validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	return nil
}

func (s *SchedulerConfig) validate() error {
	if s.MinStability <= 0 {
		return fmt.Errorf("min_stability must be > 0 (got %v)", s.MinStability)
	}
	if s.MaxStability <= s.MinStability {
		return fmt.Errorf("max_stability must be > min_stability (got %v <= %v)", s.MaxStability, s.MinStability)
	}
	if s.MinDifficulty <= 0 || s.MaxDifficulty <= s.MinDifficulty {
		return fmt.Errorf("difficulty bounds invalid (got [%v, %v])", s.MinDifficulty, s.MaxDifficulty)
	}
	if s.LapseFactor <= 0 || s.LapseFactor >= 1 {
		return fmt.Errorf("lapse_factor must be in (0, 1) (got %v)", s.LapseFactor)
	}
	if s.MinIntervalDays <= 0 || s.MaxIntervalDays <= s.MinIntervalDays {
		return fmt.Errorf("interval bounds invalid (got [%v, %v])", s.MinIntervalDays, s.MaxIntervalDays)
	}
	if s.FuzzMin <= 0 || s.FuzzMax < s.FuzzMin {
		return fmt.Errorf("fuzz range invalid (got [%v, %v])", s.FuzzMin, s.FuzzMax)
	}
	if s.MaxNewCards < 0 || s.MaxReviewCards < 0 {
		return fmt.Errorf("session caps must be >= 0 (got new=%d review=%d)", s.MaxNewCards, s.MaxReviewCards)
	}

	seeds, err := parseFloats(s.SeedStabilitiesRaw, 4)
	if err != nil {
		return fmt.Errorf("seed_stabilities: %w", err)
	}
	copy(s.SeedStabilities[:], seeds)

	deltas, err := parseFloats(s.DifficultyDeltasRaw, 4)
	if err != nil {
		return fmt.Errorf("difficulty_deltas: %w", err)
	}
	copy(s.DifficultyDeltas[:], deltas)

	steps, err := ParseLearningSteps(s.LearningStepsRaw)
	if err != nil {
		return fmt.Errorf("learning_steps: %w", err)
	}
	if len(steps) != 4 {
		return fmt.Errorf("learning_steps: want 4 durations, got %d", len(steps))
	}
	copy(s.LearningSteps[:], steps)

	thresholds, err := parseInts(s.MasteryThresholdsRaw, 5)
	if err != nil {
		return fmt.Errorf("mastery_thresholds: %w", err)
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return fmt.Errorf("mastery_thresholds must be strictly ascending (got %v)", thresholds)
		}
	}
	copy(s.MasteryThresholds[:], thresholds)

	if s.MasteredLevel < 1 || s.MasteredLevel > len(thresholds) {
		return fmt.Errorf("mastered_level must be in 1..%d (got %d)", len(thresholds), s.MasteredLevel)
	}

	return nil
}

// ParseLearningSteps parses a comma-separated string of durations
// (e.g. "10m,1h,24h,72h") into a slice of time.Duration. An empty string
// returns a nil slice.
func ParseLearningSteps(raw string) ([]time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	steps := make([]time.Duration, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		d, err := time.ParseDuration(p)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", p, err)
		}
		steps = append(steps, d)
	}

	return steps, nil
}

func parseFloats(raw string, want int) ([]float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("want %d values, got %d", want, len(parts))
	}
	out := make([]float64, 0, want)
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseInts(raw string, want int) ([]int, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("want %d values, got %d", want, len(parts))
	}
	out := make([]int, 0, want)
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
