package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validEnv sets the minimum required env vars for a valid config.
func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "postgres://u:p@localhost:5432/testdb")
}

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: "5s"
  write_timeout: "15s"
  idle_timeout: "30s"
  shutdown_timeout: "5s"

database:
  dsn: "postgres://u:p@localhost:5432/testdb"
  max_conns: 10
  min_conns: 2

log:
  level: "debug"
  format: "text"

scheduler:
  max_new_cards: 15
  learning_steps: "5m,30m,12h,48h"
`

func TestLoad_FromYAML(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeYAML(t, t.TempDir(), validYAML))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server.host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.MaxConns != 10 {
		t.Errorf("database.max_conns = %d, want 10", cfg.Database.MaxConns)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("log = %q/%q, want debug/text", cfg.Log.Level, cfg.Log.Format)
	}
	if cfg.Scheduler.MaxNewCards != 15 {
		t.Errorf("scheduler.max_new_cards = %d, want 15", cfg.Scheduler.MaxNewCards)
	}
	want := [4]time.Duration{5 * time.Minute, 30 * time.Minute, 12 * time.Hour, 48 * time.Hour}
	if cfg.Scheduler.LearningSteps != want {
		t.Errorf("scheduler.learning_steps = %v, want %v", cfg.Scheduler.LearningSteps, want)
	}
}

func TestLoad_EnvOnlyDefaults(t *testing.T) {
	validEnv(t)
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir()) // no config.yaml in cwd

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server.port default = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.RateLimitPerMinute != 300 {
		t.Errorf("server.rate_limit_per_minute default = %d, want 300", cfg.Server.RateLimitPerMinute)
	}
	if cfg.Scheduler.LapseFactor != 0.3 {
		t.Errorf("scheduler.lapse_factor default = %v, want 0.3", cfg.Scheduler.LapseFactor)
	}
	if cfg.Scheduler.MasteryThresholds != [5]int{1, 2, 3, 6, 10} {
		t.Errorf("scheduler.mastery_thresholds default = %v", cfg.Scheduler.MasteryThresholds)
	}
	if cfg.Scheduler.SeedStabilities != [4]float64{0.1, 0.3, 1.0, 3.0} {
		t.Errorf("scheduler.seed_stabilities default = %v", cfg.Scheduler.SeedStabilities)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	validEnv(t)
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("SCHED_LAPSE_FACTOR", "0.5")
	t.Setenv("SCHED_MAX_REVIEW_CARDS", "40")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Scheduler.LapseFactor != 0.5 {
		t.Errorf("scheduler.lapse_factor = %v, want 0.5", cfg.Scheduler.LapseFactor)
	}
	if cfg.Scheduler.MaxReviewCards != 40 {
		t.Errorf("scheduler.max_review_cards = %d, want 40", cfg.Scheduler.MaxReviewCards)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	validEnv(t)
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestSchedulerConfig_ValidateErrors(t *testing.T) {
	t.Parallel()

	valid := func() SchedulerConfig {
		return SchedulerConfig{
			MinStability:               0.1,
			MaxStability:               60,
			MinDifficulty:              0.1,
			MaxDifficulty:              1.0,
			InitialStability:           0.5,
			InitialDifficulty:          0.3,
			SeedStabilitiesRaw:         "0.1,0.3,1.0,3.0",
			LapseFactor:                0.3,
			GrowthRate:                 0.5,
			DifficultyDeltasRaw:        "0.2,0.1,-0.05,-0.15",
			LearningStepsRaw:           "10m,1h,24h,72h",
			GraduatingIntervalDays:     1,
			EasyGraduatingIntervalDays: 4,
			MinIntervalDays:            0.007,
			MaxIntervalDays:            60,
			FuzzMin:                    0.95,
			FuzzMax:                    1.05,
			MasteryThresholdsRaw:       "1,2,3,6,10",
			MasteredLevel:              5,
			MaxNewCards:                10,
			MaxReviewCards:             20,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*SchedulerConfig)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(s *SchedulerConfig) {},
		},
		{
			name:    "non-positive min stability",
			mutate:  func(s *SchedulerConfig) { s.MinStability = 0 },
			wantErr: "min_stability",
		},
		{
			name:    "max stability below min",
			mutate:  func(s *SchedulerConfig) { s.MaxStability = 0.05 },
			wantErr: "max_stability",
		},
		{
			name:    "lapse factor at one",
			mutate:  func(s *SchedulerConfig) { s.LapseFactor = 1 },
			wantErr: "lapse_factor",
		},
		{
			name:    "wrong seed count",
			mutate:  func(s *SchedulerConfig) { s.SeedStabilitiesRaw = "0.1,0.3" },
			wantErr: "seed_stabilities",
		},
		{
			name:    "malformed difficulty delta",
			mutate:  func(s *SchedulerConfig) { s.DifficultyDeltasRaw = "0.2,x,-0.05,-0.15" },
			wantErr: "difficulty_deltas",
		},
		{
			name:    "wrong learning step count",
			mutate:  func(s *SchedulerConfig) { s.LearningStepsRaw = "10m,1h" },
			wantErr: "learning_steps",
		},
		{
			name:    "invalid learning step duration",
			mutate:  func(s *SchedulerConfig) { s.LearningStepsRaw = "10m,1h,later,72h" },
			wantErr: "learning_steps",
		},
		{
			name:    "non-ascending thresholds",
			mutate:  func(s *SchedulerConfig) { s.MasteryThresholdsRaw = "1,2,2,6,10" },
			wantErr: "mastery_thresholds",
		},
		{
			name:    "mastered level out of range",
			mutate:  func(s *SchedulerConfig) { s.MasteredLevel = 6 },
			wantErr: "mastered_level",
		},
		{
			name:    "inverted fuzz range",
			mutate:  func(s *SchedulerConfig) { s.FuzzMin = 1.1; s.FuzzMax = 0.9 },
			wantErr: "fuzz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSchedulerConfig_ToDomain(t *testing.T) {
	t.Parallel()

	cfg := SchedulerConfig{
		MinStability:         0.1,
		MaxStability:         60,
		MinDifficulty:        0.1,
		MaxDifficulty:        1.0,
		SeedStabilitiesRaw:   "0.1,0.3,1.0,3.0",
		LapseFactor:          0.3,
		GrowthRate:           0.5,
		DifficultyDeltasRaw:  "0.2,0.1,-0.05,-0.15",
		LearningStepsRaw:     "10m,1h,24h,72h",
		MinIntervalDays:      0.007,
		MaxIntervalDays:      60,
		FuzzMin:              0.95,
		FuzzMax:              1.05,
		MasteryThresholdsRaw: "1,2,3,6,10",
		MasteredLevel:        5,
		MaxNewCards:          10,
		MaxReviewCards:       20,
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	dom := cfg.ToDomain()

	if dom.SeedStabilityEasy != 3.0 {
		t.Errorf("SeedStabilityEasy = %v, want 3.0", dom.SeedStabilityEasy)
	}
	if dom.DifficultyDeltaGood != -0.05 {
		t.Errorf("DifficultyDeltaGood = %v, want -0.05", dom.DifficultyDeltaGood)
	}
	if dom.LearningStepEasy != 72*time.Hour {
		t.Errorf("LearningStepEasy = %v, want 72h", dom.LearningStepEasy)
	}
	if dom.MasteryThresholds != [5]int{1, 2, 3, 6, 10} {
		t.Errorf("MasteryThresholds = %v", dom.MasteryThresholds)
	}
	if dom.MaxReviewCards != 20 {
		t.Errorf("MaxReviewCards = %d, want 20", dom.MaxReviewCards)
	}
}

func TestParseLearningSteps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    []time.Duration
		wantErr bool
	}{
		{name: "empty", raw: "", want: nil},
		{name: "single", raw: "10m", want: []time.Duration{10 * time.Minute}},
		{
			name: "padded",
			raw:  " 10m , 1h ",
			want: []time.Duration{10 * time.Minute, time.Hour},
		},
		{name: "garbage", raw: "10m,soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLearningSteps(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLearningSteps: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("step %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
