// Package reviewlog implements the review-log repository using PostgreSQL.
// The log is append-only: entries are never updated or deleted.
package reviewlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/a16vhoss/neuropath-backend/internal/adapter/postgres"
	"github.com/a16vhoss/neuropath-backend/internal/domain"
)

// Repo provides review-log persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new review-log repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const columns = `id, learner_id, card_id, session_id, rating, response_ms,
       stability_before, stability_after, difficulty_before, difficulty_after,
       retrievability, interval_days, reviewed_at`

const getByLearnerCardSQL = `
SELECT ` + columns + `
FROM review_logs
WHERE learner_id = $1 AND card_id = $2
ORDER BY reviewed_at DESC
LIMIT $3 OFFSET $4`

const countByLearnerCardSQL = `
SELECT count(*) FROM review_logs WHERE learner_id = $1 AND card_id = $2`

const listBySessionSQL = `
SELECT ` + columns + `
FROM review_logs
WHERE learner_id = $1 AND session_id = $2
ORDER BY reviewed_at`

const getStatsByCardSQL = `
SELECT
    count(*) AS total,
    count(*) FILTER (WHERE rating = 'AGAIN') AS again_count,
    count(*) FILTER (WHERE rating = 'HARD') AS hard_count,
    count(*) FILTER (WHERE rating = 'GOOD') AS good_count,
    count(*) FILTER (WHERE rating = 'EASY') AS easy_count,
    coalesce(avg(response_ms), 0) AS avg_response_ms
FROM review_logs
WHERE learner_id = $1 AND card_id = $2`

// Append inserts one immutable log entry and returns the persisted row.
func (r *Repo) Append(ctx context.Context, entry domain.ReviewLogEntry) (domain.ReviewLogEntry, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := builder.Insert("review_logs").
		Columns("id", "learner_id", "card_id", "session_id", "rating", "response_ms",
			"stability_before", "stability_after", "difficulty_before", "difficulty_after",
			"retrievability", "interval_days", "reviewed_at").
		Values(entry.ID, entry.LearnerID, entry.CardID, entry.SessionID, entry.Rating,
			entry.ResponseMs, entry.StabilityBefore, entry.StabilityAfter,
			entry.DifficultyBefore, entry.DifficultyAfter, entry.Retrievability,
			entry.IntervalDays, entry.ReviewedAt).
		Suffix("RETURNING " + columns)

	sql, args, err := query.ToSql()
	if err != nil {
		return domain.ReviewLogEntry{}, fmt.Errorf("build insert: %w", err)
	}

	created, err := scanEntry(querier.QueryRow(ctx, sql, args...))
	if err != nil {
		return domain.ReviewLogEntry{}, mapError(err, "review log entry", entry.ID)
	}

	return created, nil
}

// GetByLearnerCard returns a card's review history, newest first, with
// limit/offset pagination. Returns entries, total count, and error.
// limit <= 0 means no limit.
func (r *Repo) GetByLearnerCard(ctx context.Context, learnerID, cardID uuid.UUID, limit, offset int) ([]domain.ReviewLogEntry, int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var total int
	if err := querier.QueryRow(ctx, countByLearnerCardSQL, learnerID, cardID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count review log entries: %w", err)
	}

	effectiveLimit := limit
	if effectiveLimit <= 0 {
		effectiveLimit = 2147483647
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := querier.Query(ctx, getByLearnerCardSQL, learnerID, cardID, effectiveLimit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("get review log entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.ReviewLogEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review log entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review log entries: %w", err)
	}

	if entries == nil {
		entries = []domain.ReviewLogEntry{}
	}
	return entries, total, nil
}

// ListBySession returns every entry logged against one session, oldest first.
func (r *Repo) ListBySession(ctx context.Context, learnerID, sessionID uuid.UUID) ([]domain.ReviewLogEntry, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listBySessionSQL, learnerID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list review log entries by session: %w", err)
	}
	defer rows.Close()

	var entries []domain.ReviewLogEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review log entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review log entries: %w", err)
	}

	if entries == nil {
		entries = []domain.ReviewLogEntry{}
	}
	return entries, nil
}

// GetStatsByCard returns per-rating counts and the average response time for
// one card's history. A card with no history returns zeroed stats.
func (r *Repo) GetStatsByCard(ctx context.Context, learnerID, cardID uuid.UUID) (domain.RatingStats, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var stats domain.RatingStats
	err := querier.QueryRow(ctx, getStatsByCardSQL, learnerID, cardID).Scan(
		&stats.Total, &stats.AgainCount, &stats.HardCount, &stats.GoodCount,
		&stats.EasyCount, &stats.AvgResponseMs,
	)
	if err != nil {
		return domain.RatingStats{}, fmt.Errorf("get review log stats: %w", err)
	}

	return stats, nil
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

func scanEntry(row pgx.Row) (domain.ReviewLogEntry, error) {
	var e domain.ReviewLogEntry
	err := row.Scan(
		&e.ID, &e.LearnerID, &e.CardID, &e.SessionID, &e.Rating, &e.ResponseMs,
		&e.StabilityBefore, &e.StabilityAfter, &e.DifficultyBefore,
		&e.DifficultyAfter, &e.Retrievability, &e.IntervalDays, &e.ReviewedAt,
	)
	return e, err
}
