// Package session implements the study-session repository using PostgreSQL.
// Queries use raw SQL since the result column is JSONB requiring custom
// marshal/unmarshal logic.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/a16vhoss/neuropath-backend/internal/adapter/postgres"
	"github.com/a16vhoss/neuropath-backend/internal/domain"
)

// Repo provides study-session persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new session repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const sessionColumns = `id, learner_id, mode, status, started_at, finished_at, result, created_at`

const createSQL = `
INSERT INTO study_sessions (id, learner_id, mode, status, started_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + sessionColumns

const getByIDSQL = `
SELECT ` + sessionColumns + `
FROM study_sessions
WHERE id = $1 AND learner_id = $2`

const getActiveSQL = `
SELECT ` + sessionColumns + `
FROM study_sessions
WHERE learner_id = $1 AND status = 'ACTIVE'`

const finishSQL = `
UPDATE study_sessions
SET status = 'FINISHED', finished_at = $3, result = $4
WHERE id = $1 AND learner_id = $2 AND status = 'ACTIVE'
RETURNING ` + sessionColumns

const abandonSQL = `
UPDATE study_sessions
SET status = 'ABANDONED', finished_at = now()
WHERE id = $1 AND learner_id = $2 AND status = 'ACTIVE'`

// GetByID returns a session by primary key filtered by learner_id.
// Returns domain.ErrNotFound if the session does not exist or belongs to
// another learner.
func (r *Repo) GetByID(ctx context.Context, learnerID, sessionID uuid.UUID) (*domain.StudySession, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	session, err := scanSession(querier.QueryRow(ctx, getByIDSQL, sessionID, learnerID))
	if err != nil {
		return nil, mapError(err, "session", sessionID)
	}

	return session, nil
}

// GetActive returns the learner's current ACTIVE session.
// Returns domain.ErrNotFound if no active session exists.
func (r *Repo) GetActive(ctx context.Context, learnerID uuid.UUID) (*domain.StudySession, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	session, err := scanSession(querier.QueryRow(ctx, getActiveSQL, learnerID))
	if err != nil {
		return nil, mapError(err, "session", uuid.Nil)
	}

	return session, nil
}

// Create inserts a new study session. A partial unique index allows only one
// ACTIVE session per learner; a second one yields domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, session *domain.StudySession) (*domain.StudySession, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	startedAt := session.StartedAt.UTC().Truncate(time.Microsecond)

	row := querier.QueryRow(ctx, createSQL,
		session.ID,
		session.LearnerID,
		string(session.Mode),
		string(session.Status),
		startedAt,
		now,
	)

	created, err := scanSession(row)
	if err != nil {
		return nil, mapError(err, "session", session.ID)
	}

	return created, nil
}

// Finish completes an ACTIVE session, setting its status to FINISHED and
// storing the aggregated result. Returns domain.ErrNotFound if the session
// does not exist, belongs to another learner, or is not ACTIVE.
func (r *Repo) Finish(ctx context.Context, learnerID, sessionID uuid.UUID, finishedAt time.Time, result domain.SessionResult) (*domain.StudySession, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	resultBytes, err := marshalResult(&result)
	if err != nil {
		return nil, fmt.Errorf("session %s: marshal result: %w", sessionID, err)
	}

	row := querier.QueryRow(ctx, finishSQL, sessionID, learnerID, finishedAt.UTC().Truncate(time.Microsecond), resultBytes)

	finished, err := scanSession(row)
	if err != nil {
		return nil, mapError(err, "session", sessionID)
	}

	return finished, nil
}

// Abandon marks an ACTIVE session as ABANDONED.
// Returns domain.ErrNotFound if the session does not exist, belongs to
// another learner, or is not ACTIVE.
func (r *Repo) Abandon(ctx context.Context, learnerID, sessionID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ct, err := querier.Exec(ctx, abandonSQL, sessionID, learnerID)
	if err != nil {
		return mapError(err, "session", sessionID)
	}

	if ct.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}

	return nil
}

func scanSession(row pgx.Row) (*domain.StudySession, error) {
	var (
		session    domain.StudySession
		mode       string
		status     string
		resultJSON []byte
	)

	err := row.Scan(
		&session.ID, &session.LearnerID, &mode, &status,
		&session.StartedAt, &session.FinishedAt, &resultJSON, &session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.Mode = domain.SessionMode(mode)
	session.Status = domain.SessionStatus(status)

	result, err := unmarshalResult(resultJSON)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", session.ID, err)
	}
	session.Result = result

	return &session, nil
}

// sessionResultJSON is the JSONB shape of domain.SessionResult. Domain types
// carry no json tags, so the repo layer owns serialization.
type sessionResultJSON struct {
	TotalReviewed int             `json:"total_reviewed"`
	GradeCounts   gradeCountsJSON `json:"grade_counts"`
	DurationMs    int64           `json:"duration_ms"`
	AccuracyRate  float64         `json:"accuracy_rate"`
}

type gradeCountsJSON struct {
	Again int `json:"again"`
	Hard  int `json:"hard"`
	Good  int `json:"good"`
	Easy  int `json:"easy"`
}

// marshalResult converts a *domain.SessionResult to JSONB bytes.
// A nil result is stored as NULL.
func marshalResult(r *domain.SessionResult) ([]byte, error) {
	if r == nil {
		return nil, nil
	}

	return json.Marshal(sessionResultJSON{
		TotalReviewed: r.TotalReviewed,
		GradeCounts: gradeCountsJSON{
			Again: r.GradeCounts.Again,
			Hard:  r.GradeCounts.Hard,
			Good:  r.GradeCounts.Good,
			Easy:  r.GradeCounts.Easy,
		},
		DurationMs:   r.DurationMs,
		AccuracyRate: r.AccuracyRate,
	})
}

// unmarshalResult converts JSONB bytes back to a *domain.SessionResult.
// NULL in the database yields nil.
func unmarshalResult(data []byte) (*domain.SessionResult, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var j sessionResultJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("unmarshal session result: %w", err)
	}

	return &domain.SessionResult{
		TotalReviewed: j.TotalReviewed,
		GradeCounts: domain.GradeCounts{
			Again: j.GradeCounts.Again,
			Hard:  j.GradeCounts.Hard,
			Good:  j.GradeCounts.Good,
			Easy:  j.GradeCounts.Easy,
		},
		DurationMs:   j.DurationMs,
		AccuracyRate: j.AccuracyRate,
	}, nil
}

// mapError converts pgx/pgconn errors into domain errors.
func mapError(err error, entity string, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrAlreadyExists)
		case "23514": // check_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrValidation)
		}
	}

	return fmt.Errorf("%s %s: %w", entity, id, err)
}
