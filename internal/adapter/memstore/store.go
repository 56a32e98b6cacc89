// Package memstore is an in-memory implementation of the scheduling stores.
// It mirrors the semantics of the postgres adapters (not-found, duplicate and
// optimistic-concurrency errors, result ordering) and backs deterministic
// unit tests and embedded use without a database.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/a16vhoss/neuropath-backend/internal/domain"
)

type recordKey struct {
	learnerID uuid.UUID
	cardID    uuid.UUID
}

type storedRecord struct {
	record domain.SchedulingRecord
	seq    int
}

// Store holds scheduling records and review log entries in process memory.
// All methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	seq      int
	records  map[recordKey]*storedRecord
	logs     map[recordKey][]domain.ReviewLogEntry
	sessions map[uuid.UUID]*domain.StudySession
	now      func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		records:  make(map[recordKey]*storedRecord),
		logs:     make(map[recordKey][]domain.ReviewLogEntry),
		sessions: make(map[uuid.UUID]*domain.StudySession),
		now:      time.Now,
	}
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// GetByLearnerCard returns the learner's record for a card, or
// domain.ErrNotFound when the card was never reviewed.
func (s *Store) GetByLearnerCard(_ context.Context, learnerID, cardID uuid.UUID) (domain.SchedulingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.records[recordKey{learnerID, cardID}]
	if !ok {
		return domain.SchedulingRecord{}, fmt.Errorf("scheduling record %s: %w", cardID, domain.ErrNotFound)
	}
	return stored.record, nil
}

// Create inserts a new record, generating an ID when none is set and stamping
// both timestamps. A second record for the same (learner, card) pair yields
// domain.ErrAlreadyExists.
func (s *Store) Create(_ context.Context, record domain.SchedulingRecord) (domain.SchedulingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{record.LearnerID, record.CardID}
	if _, ok := s.records[key]; ok {
		return domain.SchedulingRecord{}, fmt.Errorf("scheduling record %s: %w", record.CardID, domain.ErrAlreadyExists)
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := s.timestamp()
	record.CreatedAt = now
	record.UpdatedAt = now

	s.seq++
	s.records[key] = &storedRecord{record: record, seq: s.seq}
	return record, nil
}

// Update writes the record using its UpdatedAt as an optimistic version: a
// record modified since it was loaded yields domain.ErrConflict and nothing
// is written. A record that does not exist yields domain.ErrNotFound.
func (s *Store) Update(_ context.Context, record domain.SchedulingRecord) (domain.SchedulingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{record.LearnerID, record.CardID}
	stored, ok := s.records[key]
	if !ok {
		return domain.SchedulingRecord{}, fmt.Errorf("scheduling record %s: %w", record.CardID, domain.ErrNotFound)
	}
	if !stored.record.UpdatedAt.Equal(record.UpdatedAt) {
		return domain.SchedulingRecord{}, fmt.Errorf("scheduling record %s: %w", record.CardID, domain.ErrConflict)
	}

	now := s.timestamp()
	if !now.After(record.UpdatedAt) {
		// Keep the version strictly monotonic even within one microsecond.
		now = record.UpdatedAt.Add(time.Microsecond)
	}

	record.ID = stored.record.ID
	record.CreatedAt = stored.record.CreatedAt
	record.UpdatedAt = now
	stored.record = record
	return record, nil
}

// ListByLearner returns all of the learner's records ordered by creation
// time, oldest first. The slice is never nil.
func (s *Store) ListByLearner(_ context.Context, learnerID uuid.UUID) ([]domain.SchedulingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*storedRecord
	for key, stored := range s.records {
		if key.learnerID == learnerID {
			matched = append(matched, stored)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	records := make([]domain.SchedulingRecord, 0, len(matched))
	for _, stored := range matched {
		records = append(records, stored.record)
	}
	return records, nil
}

// ListByLearnerCards returns the learner's records for the given cards; cards
// without records are simply absent from the result.
func (s *Store) ListByLearnerCards(_ context.Context, learnerID uuid.UUID, cardIDs []uuid.UUID) ([]domain.SchedulingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.SchedulingRecord, 0, len(cardIDs))
	for _, cardID := range cardIDs {
		if stored, ok := s.records[recordKey{learnerID, cardID}]; ok {
			records = append(records, stored.record)
		}
	}
	return records, nil
}

// Append stores an immutable review log entry, generating an ID when none is
// set.
func (s *Store) Append(_ context.Context, entry domain.ReviewLogEntry) (domain.ReviewLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	key := recordKey{entry.LearnerID, entry.CardID}
	s.logs[key] = append(s.logs[key], entry)
	return entry, nil
}

// GetLogByLearnerCard returns a page of the card's review history, newest
// first, together with the total entry count. A non-positive limit means no
// limit.
func (s *Store) GetLogByLearnerCard(_ context.Context, learnerID, cardID uuid.UUID, limit, offset int) ([]domain.ReviewLogEntry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.logs[recordKey{learnerID, cardID}]
	total := len(entries)

	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.ReviewLogEntry{}, total, nil
	}

	// Entries are appended in review order; walk backwards for newest first.
	page := make([]domain.ReviewLogEntry, 0, total-offset)
	for i := total - 1 - offset; i >= 0; i-- {
		page = append(page, entries[i])
		if limit > 0 && len(page) == limit {
			break
		}
	}
	return page, total, nil
}

// RunInTx runs fn directly: the store has no transactional isolation, which
// is acceptable for the tests and embedded use it serves.
// GetStatsByCard aggregates the card's review history by rating outcome.
func (s *Store) GetStatsByCard(_ context.Context, learnerID, cardID uuid.UUID) (domain.RatingStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.RatingStats
	var responseSum int
	for _, e := range s.logs[recordKey{learnerID, cardID}] {
		stats.Total++
		responseSum += e.ResponseMs
		switch e.Rating {
		case domain.RatingAgain:
			stats.AgainCount++
		case domain.RatingHard:
			stats.HardCount++
		case domain.RatingGood:
			stats.GoodCount++
		case domain.RatingEasy:
			stats.EasyCount++
		}
	}
	if stats.Total > 0 {
		stats.AvgResponseMs = float64(responseSum) / float64(stats.Total)
	}
	return stats, nil
}

// ListBySession returns every entry logged against one session, oldest first.
func (s *Store) ListBySession(_ context.Context, learnerID, sessionID uuid.UUID) ([]domain.ReviewLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := []domain.ReviewLogEntry{}
	for key, logs := range s.logs {
		if key.learnerID != learnerID {
			continue
		}
		for _, e := range logs {
			if e.SessionID != nil && *e.SessionID == sessionID {
				entries = append(entries, e)
			}
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ReviewedAt.Before(entries[j].ReviewedAt)
	})
	return entries, nil
}

// Sessions exposes the study-session half of the store under the repository
// method names. Record methods already occupy Create and GetByID on Store
// itself.
func (s *Store) Sessions() *SessionStore { return &SessionStore{store: s} }

// SessionStore is a view over Store implementing the session repository surface.
type SessionStore struct {
	store *Store
}

// Create inserts a new study session. A second ACTIVE session for the same
// learner yields domain.ErrAlreadyExists, matching the postgres partial
// unique index.
func (v *SessionStore) Create(_ context.Context, session *domain.StudySession) (*domain.StudySession, error) {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.Status == domain.SessionStatusActive {
		for _, existing := range s.sessions {
			if existing.LearnerID == session.LearnerID && existing.Status == domain.SessionStatusActive {
				return nil, fmt.Errorf("session %s: %w", session.ID, domain.ErrAlreadyExists)
			}
		}
	}

	stored := *session
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.StartedAt = stored.StartedAt.UTC().Truncate(time.Microsecond)
	stored.CreatedAt = s.timestamp()

	s.sessions[stored.ID] = &stored
	return cloneSession(&stored), nil
}

// GetByID returns a session by id filtered by learner.
func (v *SessionStore) GetByID(_ context.Context, learnerID, sessionID uuid.UUID) (*domain.StudySession, error) {
	s := v.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok || session.LearnerID != learnerID {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return cloneSession(session), nil
}

// GetActive returns the learner's ACTIVE session, or domain.ErrNotFound.
func (v *SessionStore) GetActive(_ context.Context, learnerID uuid.UUID) (*domain.StudySession, error) {
	s := v.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, session := range s.sessions {
		if session.LearnerID == learnerID && session.Status == domain.SessionStatusActive {
			return cloneSession(session), nil
		}
	}
	return nil, fmt.Errorf("session %s: %w", uuid.Nil, domain.ErrNotFound)
}

// Finish completes an ACTIVE session with the given result.
func (v *SessionStore) Finish(_ context.Context, learnerID, sessionID uuid.UUID, finishedAt time.Time, result domain.SessionResult) (*domain.StudySession, error) {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || session.LearnerID != learnerID || session.Status != domain.SessionStatusActive {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}

	finished := finishedAt.UTC().Truncate(time.Microsecond)
	session.Status = domain.SessionStatusFinished
	session.FinishedAt = &finished
	session.Result = &result

	return cloneSession(session), nil
}

// Abandon marks an ACTIVE session as ABANDONED.
func (v *SessionStore) Abandon(_ context.Context, learnerID, sessionID uuid.UUID) error {
	s := v.store
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || session.LearnerID != learnerID || session.Status != domain.SessionStatusActive {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}

	now := s.timestamp()
	session.Status = domain.SessionStatusAbandoned
	session.FinishedAt = &now
	return nil
}

func cloneSession(session *domain.StudySession) *domain.StudySession {
	copied := *session
	if session.FinishedAt != nil {
		finishedAt := *session.FinishedAt
		copied.FinishedAt = &finishedAt
	}
	if session.Result != nil {
		result := *session.Result
		copied.Result = &result
	}
	return &copied
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
