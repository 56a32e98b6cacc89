// Package study implements the adaptive scheduling engine: per-review state
// updates through the memory model and session composition over a learner's
// scheduling records. Card content, UI, and gamification are external
// collaborators reached only through the narrow interfaces below.
package study

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/a16vhoss/neuropath-backend/internal/domain"
	"github.com/a16vhoss/neuropath-backend/internal/service/study/srs"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type recordStore interface {
	// GetByLearnerCard returns domain.ErrNotFound when the learner has never
	// reviewed the card.
	GetByLearnerCard(ctx context.Context, learnerID, cardID uuid.UUID) (domain.SchedulingRecord, error)
	Create(ctx context.Context, record domain.SchedulingRecord) (domain.SchedulingRecord, error)
	// Update uses the record's UpdatedAt as an optimistic version; a stale
	// value yields domain.ErrConflict and nothing is written.
	Update(ctx context.Context, record domain.SchedulingRecord) (domain.SchedulingRecord, error)
	ListByLearner(ctx context.Context, learnerID uuid.UUID) ([]domain.SchedulingRecord, error)
	ListByLearnerCards(ctx context.Context, learnerID uuid.UUID, cardIDs []uuid.UUID) ([]domain.SchedulingRecord, error)
}

type reviewLogStore interface {
	Append(ctx context.Context, entry domain.ReviewLogEntry) (domain.ReviewLogEntry, error)
	ListBySession(ctx context.Context, learnerID, sessionID uuid.UUID) ([]domain.ReviewLogEntry, error)
}

type sessionStore interface {
	// Create yields domain.ErrAlreadyExists when the learner already has an
	// ACTIVE session.
	Create(ctx context.Context, session *domain.StudySession) (*domain.StudySession, error)
	GetByID(ctx context.Context, learnerID, sessionID uuid.UUID) (*domain.StudySession, error)
	GetActive(ctx context.Context, learnerID uuid.UUID) (*domain.StudySession, error)
	Finish(ctx context.Context, learnerID, sessionID uuid.UUID, finishedAt time.Time, result domain.SessionResult) (*domain.StudySession, error)
	Abandon(ctx context.Context, learnerID, sessionID uuid.UUID) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the scheduling engine business logic.
type Service struct {
	records  recordStore
	reviews  reviewLogStore
	sessions sessionStore
	tx       txManager
	log      *slog.Logger
	cfg      domain.SchedulerConfig
	params   srs.Params

	// now is swapped in tests for deterministic timestamps.
	now func() time.Time

	// rng drives interval fuzz and new-card shuffling. *rand.Rand is not
	// safe for concurrent use, hence the mutex.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService creates the scheduling engine service. A nil rng gets a
// time-seeded source; tests inject a fixed seed for deterministic fuzz and
// shuffle outcomes.
func NewService(
	log *slog.Logger,
	records recordStore,
	reviews reviewLogStore,
	sessions sessionStore,
	tx txManager,
	cfg domain.SchedulerConfig,
	rng *rand.Rand,
) (*Service, error) {
	params := srs.ParamsFromConfig(cfg)
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler config: %w", err)
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // scheduling fuzz, not cryptographic
	}

	return &Service{
		records:  records,
		reviews:  reviews,
		sessions: sessions,
		tx:       tx,
		log:      log.With("service", "study"),
		cfg:      cfg,
		params:   params,
		now:      time.Now,
		rng:      rng,
	}, nil
}

// fuzz returns a uniform value in [0, 1) for interval jitter.
func (s *Service) fuzz() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

// shuffle randomizes n elements via swap.
func (s *Service) shuffle(n int, swap func(i, j int)) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng.Shuffle(n, swap)
}

// daysToDuration converts a day-denominated interval into a wall-clock offset.
func daysToDuration(days float64) time.Duration {
	return time.Duration(days * 24 * float64(time.Hour))
}
