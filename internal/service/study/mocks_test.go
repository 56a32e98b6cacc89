package study

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/a16vhoss/neuropath-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Hand-rolled mocks (func-field style)
// ---------------------------------------------------------------------------

type recordStoreMock struct {
	GetByLearnerCardFunc   func(ctx context.Context, learnerID, cardID uuid.UUID) (domain.SchedulingRecord, error)
	CreateFunc             func(ctx context.Context, record domain.SchedulingRecord) (domain.SchedulingRecord, error)
	UpdateFunc             func(ctx context.Context, record domain.SchedulingRecord) (domain.SchedulingRecord, error)
	ListByLearnerFunc      func(ctx context.Context, learnerID uuid.UUID) ([]domain.SchedulingRecord, error)
	ListByLearnerCardsFunc func(ctx context.Context, learnerID uuid.UUID, cardIDs []uuid.UUID) ([]domain.SchedulingRecord, error)
}

func (m *recordStoreMock) GetByLearnerCard(ctx context.Context, learnerID, cardID uuid.UUID) (domain.SchedulingRecord, error) {
	if m.GetByLearnerCardFunc == nil {
		return domain.SchedulingRecord{}, domain.ErrNotFound
	}
	return m.GetByLearnerCardFunc(ctx, learnerID, cardID)
}

func (m *recordStoreMock) Create(ctx context.Context, record domain.SchedulingRecord) (domain.SchedulingRecord, error) {
	if m.CreateFunc == nil {
		return record, nil
	}
	return m.CreateFunc(ctx, record)
}

func (m *recordStoreMock) Update(ctx context.Context, record domain.SchedulingRecord) (domain.SchedulingRecord, error) {
	if m.UpdateFunc == nil {
		return record, nil
	}
	return m.UpdateFunc(ctx, record)
}

func (m *recordStoreMock) ListByLearner(ctx context.Context, learnerID uuid.UUID) ([]domain.SchedulingRecord, error) {
	if m.ListByLearnerFunc == nil {
		return nil, nil
	}
	return m.ListByLearnerFunc(ctx, learnerID)
}

func (m *recordStoreMock) ListByLearnerCards(ctx context.Context, learnerID uuid.UUID, cardIDs []uuid.UUID) ([]domain.SchedulingRecord, error) {
	if m.ListByLearnerCardsFunc == nil {
		return nil, nil
	}
	return m.ListByLearnerCardsFunc(ctx, learnerID, cardIDs)
}

type reviewLogStoreMock struct {
	AppendFunc        func(ctx context.Context, entry domain.ReviewLogEntry) (domain.ReviewLogEntry, error)
	ListBySessionFunc func(ctx context.Context, learnerID, sessionID uuid.UUID) ([]domain.ReviewLogEntry, error)
	entries           []domain.ReviewLogEntry
}

func (m *reviewLogStoreMock) Append(ctx context.Context, entry domain.ReviewLogEntry) (domain.ReviewLogEntry, error) {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, entry)
	}
	m.entries = append(m.entries, entry)
	return entry, nil
}

func (m *reviewLogStoreMock) ListBySession(ctx context.Context, learnerID, sessionID uuid.UUID) ([]domain.ReviewLogEntry, error) {
	if m.ListBySessionFunc != nil {
		return m.ListBySessionFunc(ctx, learnerID, sessionID)
	}
	var out []domain.ReviewLogEntry
	for _, e := range m.entries {
		if e.LearnerID == learnerID && e.SessionID != nil && *e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

type sessionStoreMock struct {
	CreateFunc    func(ctx context.Context, session *domain.StudySession) (*domain.StudySession, error)
	GetByIDFunc   func(ctx context.Context, learnerID, sessionID uuid.UUID) (*domain.StudySession, error)
	GetActiveFunc func(ctx context.Context, learnerID uuid.UUID) (*domain.StudySession, error)
	FinishFunc    func(ctx context.Context, learnerID, sessionID uuid.UUID, finishedAt time.Time, result domain.SessionResult) (*domain.StudySession, error)
	AbandonFunc   func(ctx context.Context, learnerID, sessionID uuid.UUID) error
}

func (m *sessionStoreMock) Create(ctx context.Context, session *domain.StudySession) (*domain.StudySession, error) {
	if m.CreateFunc == nil {
		return session, nil
	}
	return m.CreateFunc(ctx, session)
}

func (m *sessionStoreMock) GetByID(ctx context.Context, learnerID, sessionID uuid.UUID) (*domain.StudySession, error) {
	if m.GetByIDFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.GetByIDFunc(ctx, learnerID, sessionID)
}

func (m *sessionStoreMock) GetActive(ctx context.Context, learnerID uuid.UUID) (*domain.StudySession, error) {
	if m.GetActiveFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.GetActiveFunc(ctx, learnerID)
}

func (m *sessionStoreMock) Finish(ctx context.Context, learnerID, sessionID uuid.UUID, finishedAt time.Time, result domain.SessionResult) (*domain.StudySession, error) {
	if m.FinishFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.FinishFunc(ctx, learnerID, sessionID, finishedAt, result)
}

func (m *sessionStoreMock) Abandon(ctx context.Context, learnerID, sessionID uuid.UUID) error {
	if m.AbandonFunc == nil {
		return nil
	}
	return m.AbandonFunc(ctx, learnerID, sessionID)
}

// txManagerMock runs the callback inline, mirroring a committed transaction.
type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.RunInTxFunc != nil {
		return m.RunInTxFunc(ctx, fn)
	}
	return fn(ctx)
}

// ---------------------------------------------------------------------------
// Test service construction
// ---------------------------------------------------------------------------

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestService builds a Service with deterministic randomness and clock.
func newTestService(t *testing.T, records *recordStoreMock, reviews *reviewLogStoreMock) *Service {
	t.Helper()

	if records == nil {
		records = &recordStoreMock{}
	}
	if reviews == nil {
		reviews = &reviewLogStoreMock{}
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewService(log, records, reviews, &sessionStoreMock{}, &txManagerMock{}, domain.DefaultSchedulerConfig(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.now = func() time.Time { return testNow }
	return svc
}

func ptrTime(v time.Time) *time.Time { return &v }
