package config

import (
	"time"

	"github.com/a16vhoss/neuropath-backend/internal/domain"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	CORS      CORSConfig      `yaml:"cors"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`

	// RateLimitPerMinute caps requests per client IP; 0 disables limiting.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute" env:"SERVER_RATE_LIMIT_PER_MINUTE" env-default:"300"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// SchedulerConfig holds the tunables of the scheduling engine. Values map
// one-to-one onto the domain config; intervals are expressed in days
// (fractions allowed). List-valued tunables use comma-separated strings in
// rating order again,hard,good,easy and are parsed during validation.
type SchedulerConfig struct {
	MinStability float64 `yaml:"min_stability" env:"SCHED_MIN_STABILITY" env-default:"0.1"`
	MaxStability float64 `yaml:"max_stability" env:"SCHED_MAX_STABILITY" env-default:"60"`

	MinDifficulty float64 `yaml:"min_difficulty" env:"SCHED_MIN_DIFFICULTY" env-default:"0.1"`
	MaxDifficulty float64 `yaml:"max_difficulty" env:"SCHED_MAX_DIFFICULTY" env-default:"1.0"`

	InitialStability  float64 `yaml:"initial_stability"  env:"SCHED_INITIAL_STABILITY"  env-default:"0.5"`
	InitialDifficulty float64 `yaml:"initial_difficulty" env:"SCHED_INITIAL_DIFFICULTY" env-default:"0.3"`

	SeedStabilitiesRaw string `yaml:"seed_stabilities" env:"SCHED_SEED_STABILITIES" env-default:"0.1,0.3,1.0,3.0"`

	LapseFactor float64 `yaml:"lapse_factor" env:"SCHED_LAPSE_FACTOR" env-default:"0.3"`
	GrowthRate  float64 `yaml:"growth_rate"  env:"SCHED_GROWTH_RATE"  env-default:"0.5"`

	DifficultyDeltasRaw string `yaml:"difficulty_deltas" env:"SCHED_DIFFICULTY_DELTAS" env-default:"0.2,0.1,-0.05,-0.15"`

	LearningStepsRaw string `yaml:"learning_steps" env:"SCHED_LEARNING_STEPS" env-default:"10m,1h,24h,72h"`

	GraduatingIntervalDays     float64 `yaml:"graduating_interval_days"      env:"SCHED_GRADUATING_INTERVAL"      env-default:"1"`
	EasyGraduatingIntervalDays float64 `yaml:"easy_graduating_interval_days" env:"SCHED_EASY_GRADUATING_INTERVAL" env-default:"4"`

	MinIntervalDays float64 `yaml:"min_interval_days" env:"SCHED_MIN_INTERVAL_DAYS" env-default:"0.006944444444444444"`
	MaxIntervalDays float64 `yaml:"max_interval_days" env:"SCHED_MAX_INTERVAL_DAYS" env-default:"60"`
	FuzzMin         float64 `yaml:"fuzz_min"          env:"SCHED_FUZZ_MIN"          env-default:"0.95"`
	FuzzMax         float64 `yaml:"fuzz_max"          env:"SCHED_FUZZ_MAX"          env-default:"1.05"`

	// Successful-repetition thresholds for mastery levels 1..5.
	MasteryThresholdsRaw string `yaml:"mastery_thresholds" env:"SCHED_MASTERY_THRESHOLDS" env-default:"1,2,3,6,10"`
	MasteredLevel        int    `yaml:"mastered_level"     env:"SCHED_MASTERED_LEVEL"     env-default:"5"`

	MaxNewCards    int `yaml:"max_new_cards"    env:"SCHED_MAX_NEW_CARDS"    env-default:"10"`
	MaxReviewCards int `yaml:"max_review_cards" env:"SCHED_MAX_REVIEW_CARDS" env-default:"20"`

	// Parsed from the Raw fields during validation.
	SeedStabilities   [4]float64       `yaml:"-" env:"-"`
	DifficultyDeltas  [4]float64       `yaml:"-" env:"-"`
	LearningSteps     [4]time.Duration `yaml:"-" env:"-"`
	MasteryThresholds [5]int           `yaml:"-" env:"-"`
}

// ToDomain converts the loaded scheduler tuning into the engine's config
// value. Validate must have run first so the parsed fields are populated.
func (s SchedulerConfig) ToDomain() domain.SchedulerConfig {
	return domain.SchedulerConfig{
		MinStability:               s.MinStability,
		MaxStability:               s.MaxStability,
		MinDifficulty:              s.MinDifficulty,
		MaxDifficulty:              s.MaxDifficulty,
		InitialStability:           s.InitialStability,
		InitialDifficulty:          s.InitialDifficulty,
		SeedStabilityAgain:         s.SeedStabilities[0],
		SeedStabilityHard:          s.SeedStabilities[1],
		SeedStabilityGood:          s.SeedStabilities[2],
		SeedStabilityEasy:          s.SeedStabilities[3],
		LapseFactor:                s.LapseFactor,
		GrowthRate:                 s.GrowthRate,
		DifficultyDeltaAgain:       s.DifficultyDeltas[0],
		DifficultyDeltaHard:        s.DifficultyDeltas[1],
		DifficultyDeltaGood:        s.DifficultyDeltas[2],
		DifficultyDeltaEasy:        s.DifficultyDeltas[3],
		LearningStepAgain:          s.LearningSteps[0],
		LearningStepHard:           s.LearningSteps[1],
		LearningStepGood:           s.LearningSteps[2],
		LearningStepEasy:           s.LearningSteps[3],
		GraduatingIntervalDays:     s.GraduatingIntervalDays,
		EasyGraduatingIntervalDays: s.EasyGraduatingIntervalDays,
		MinIntervalDays:            s.MinIntervalDays,
		MaxIntervalDays:            s.MaxIntervalDays,
		FuzzMin:                    s.FuzzMin,
		FuzzMax:                    s.FuzzMax,
		MasteryThresholds:          s.MasteryThresholds,
		MasteredLevel:              s.MasteredLevel,
		MaxNewCards:                s.MaxNewCards,
		MaxReviewCards:             s.MaxReviewCards,
	}
}
