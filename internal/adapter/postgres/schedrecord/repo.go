// Package schedrecord implements the scheduling-record repository using
// PostgreSQL. Reads use raw SQL; writes go through squirrel so the
// optimistic-concurrency predicate stays in one builder.
package schedrecord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/a16vhoss/neuropath-backend/internal/adapter/postgres"
	"github.com/a16vhoss/neuropath-backend/internal/domain"
)

// Repo provides scheduling-record persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new scheduling-record repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const columns = `id, learner_id, card_id, state, stability, difficulty, retrievability,
       interval_days, due, last_review, reps, lapses, avg_response_ms,
       last_response_ms, mastery_level, created_at, updated_at`

const getByLearnerCardSQL = `
SELECT ` + columns + `
FROM scheduling_records
WHERE learner_id = $1 AND card_id = $2`

const listByLearnerSQL = `
SELECT ` + columns + `
FROM scheduling_records
WHERE learner_id = $1
ORDER BY created_at`

const listByLearnerCardsSQL = `
SELECT ` + columns + `
FROM scheduling_records
WHERE learner_id = $1 AND card_id = ANY($2::uuid[])`

// GetByLearnerCard returns the learner's record for one card.
// Returns domain.ErrNotFound when the learner has never reviewed the card.
func (r *Repo) GetByLearnerCard(ctx context.Context, learnerID, cardID uuid.UUID) (domain.SchedulingRecord, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, getByLearnerCardSQL, learnerID, cardID)
	record, err := scanRecord(row)
	if err != nil {
		return domain.SchedulingRecord{}, mapError(err, "scheduling record", cardID)
	}

	return record, nil
}

// ListByLearner returns every record the learner has, oldest first.
func (r *Repo) ListByLearner(ctx context.Context, learnerID uuid.UUID) ([]domain.SchedulingRecord, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByLearnerSQL, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list scheduling records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListByLearnerCards returns the learner's records for the given cards.
// Cards without a record are simply absent from the result.
func (r *Repo) ListByLearnerCards(ctx context.Context, learnerID uuid.UUID, cardIDs []uuid.UUID) ([]domain.SchedulingRecord, error) {
	if len(cardIDs) == 0 {
		return []domain.SchedulingRecord{}, nil
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByLearnerCardsSQL, learnerID, cardIDs)
	if err != nil {
		return nil, fmt.Errorf("list scheduling records by cards: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Create inserts a new record and returns the persisted row. A duplicate
// (learner_id, card_id) pair results in domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, record domain.SchedulingRecord) (domain.SchedulingRecord, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	query := builder.Insert("scheduling_records").
		Columns("id", "learner_id", "card_id", "state", "stability", "difficulty",
			"retrievability", "interval_days", "due", "last_review", "reps", "lapses",
			"avg_response_ms", "last_response_ms", "mastery_level", "created_at", "updated_at").
		Values(record.ID, record.LearnerID, record.CardID, record.State, record.Stability,
			record.Difficulty, record.Retrievability, record.IntervalDays, record.Due,
			record.LastReview, record.Reps, record.Lapses, record.AvgResponseMs,
			record.LastResponseMs, record.MasteryLevel, now, now).
		Suffix("RETURNING " + columns)

	sql, args, err := query.ToSql()
	if err != nil {
		return domain.SchedulingRecord{}, fmt.Errorf("build insert: %w", err)
	}

	created, err := scanRecord(querier.QueryRow(ctx, sql, args...))
	if err != nil {
		return domain.SchedulingRecord{}, mapError(err, "scheduling record", record.CardID)
	}

	return created, nil
}

// Update writes the record using its UpdatedAt as an optimistic version:
// the row is matched on (id, updated_at), so a record modified since it was
// loaded yields domain.ErrConflict and nothing is written.
func (r *Repo) Update(ctx context.Context, record domain.SchedulingRecord) (domain.SchedulingRecord, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	now := time.Now().UTC().Truncate(time.Microsecond)

	query := builder.Update("scheduling_records").
		Set("state", record.State).
		Set("stability", record.Stability).
		Set("difficulty", record.Difficulty).
		Set("retrievability", record.Retrievability).
		Set("interval_days", record.IntervalDays).
		Set("due", record.Due).
		Set("last_review", record.LastReview).
		Set("reps", record.Reps).
		Set("lapses", record.Lapses).
		Set("avg_response_ms", record.AvgResponseMs).
		Set("last_response_ms", record.LastResponseMs).
		Set("mastery_level", record.MasteryLevel).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": record.ID, "updated_at": record.UpdatedAt}).
		Suffix("RETURNING " + columns)

	sql, args, err := query.ToSql()
	if err != nil {
		return domain.SchedulingRecord{}, fmt.Errorf("build update: %w", err)
	}

	updated, err := scanRecord(querier.QueryRow(ctx, sql, args...))
	if err == nil {
		return updated, nil
	}
	if !isNoRows(err) {
		return domain.SchedulingRecord{}, mapError(err, "scheduling record", record.CardID)
	}

	// No row matched: either the record is gone or the version is stale.
	var exists bool
	checkErr := querier.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM scheduling_records WHERE id = $1)", record.ID,
	).Scan(&exists)
	if checkErr != nil {
		return domain.SchedulingRecord{}, fmt.Errorf("check scheduling record %s: %w", record.ID, checkErr)
	}
	if exists {
		return domain.SchedulingRecord{}, fmt.Errorf("scheduling record %s: %w", record.ID, domain.ErrConflict)
	}
	return domain.SchedulingRecord{}, fmt.Errorf("scheduling record %s: %w", record.ID, domain.ErrNotFound)
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
		case "23503": // foreign_key_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
		case "23514": // check_violation
			return fmt.Errorf("%s %s: %w", entity, id, domain.ErrValidation)
		}
	}

	return fmt.Errorf("%s %s: %w", entity, id, err)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func scanRecord(row pgx.Row) (domain.SchedulingRecord, error) {
	var r domain.SchedulingRecord
	err := row.Scan(
		&r.ID, &r.LearnerID, &r.CardID, &r.State, &r.Stability, &r.Difficulty,
		&r.Retrievability, &r.IntervalDays, &r.Due, &r.LastReview, &r.Reps,
		&r.Lapses, &r.AvgResponseMs, &r.LastResponseMs, &r.MasteryLevel,
		&r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func scanRecords(rows pgx.Rows) ([]domain.SchedulingRecord, error) {
	var records []domain.SchedulingRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scheduling record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheduling records: %w", err)
	}

	if records == nil {
		records = []domain.SchedulingRecord{}
	}
	return records, nil
}
