package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/a16vhoss/neuropath-backend/internal/domain"
)

// ActiveSession returns the learner's current ACTIVE session.
// Returns domain.ErrNotFound when no session is in progress.
func (s *Service) ActiveSession(ctx context.Context, learnerID uuid.UUID) (*domain.StudySession, error) {
	if learnerID == uuid.Nil {
		return nil, domain.NewValidationError("learner_id", "required")
	}
	return s.sessions.GetActive(ctx, learnerID)
}

// StartSession opens a new study session, or returns the existing ACTIVE one
// (idempotent). An empty mode defaults to ADAPTIVE.
func (s *Service) StartSession(ctx context.Context, learnerID uuid.UUID, mode domain.SessionMode) (*domain.StudySession, error) {
	if learnerID == uuid.Nil {
		return nil, domain.NewValidationError("learner_id", "required")
	}
	if mode == "" {
		mode = domain.SessionModeAdaptive
	}
	if !mode.Valid() {
		return nil, domain.NewValidationError("mode", "unknown session mode")
	}

	existing, err := s.sessions.GetActive(ctx, learnerID)
	if err == nil {
		s.log.InfoContext(ctx, "returning existing session",
			slog.String("learner_id", learnerID.String()),
			slog.String("session_id", existing.ID.String()),
		)
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check active session: %w", err)
	}

	session := &domain.StudySession{
		ID:        uuid.New(),
		LearnerID: learnerID,
		Mode:      mode,
		Status:    domain.SessionStatusActive,
		StartedAt: s.now(),
	}

	created, err := s.sessions.Create(ctx, session)
	if err != nil {
		// Another request created a session between the check and the insert;
		// the partial unique index rejects the second row.
		if errors.Is(err, domain.ErrAlreadyExists) {
			existing, getErr := s.sessions.GetActive(ctx, learnerID)
			if getErr != nil {
				return nil, fmt.Errorf("get active after race: %w", getErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.InfoContext(ctx, "session started",
		slog.String("learner_id", learnerID.String()),
		slog.String("session_id", created.ID.String()),
		slog.String("mode", string(created.Mode)),
	)

	return created, nil
}

// FinishSession completes an ACTIVE session, aggregating the review log
// entries tagged with the session id into its stored result.
func (s *Service) FinishSession(ctx context.Context, learnerID, sessionID uuid.UUID) (*domain.StudySession, error) {
	if learnerID == uuid.Nil {
		return nil, domain.NewValidationError("learner_id", "required")
	}
	if sessionID == uuid.Nil {
		return nil, domain.NewValidationError("session_id", "required")
	}

	session, err := s.sessions.GetByID(ctx, learnerID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.Status != domain.SessionStatusActive {
		return nil, domain.NewValidationError("session", "session already finished")
	}

	now := s.now()
	var finished *domain.StudySession

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		logs, logErr := s.reviews.ListBySession(txCtx, learnerID, session.ID)
		if logErr != nil {
			return fmt.Errorf("list session review logs: %w", logErr)
		}

		result := aggregateSessionResult(logs, session.StartedAt, now)

		var finErr error
		finished, finErr = s.sessions.Finish(txCtx, learnerID, session.ID, now, result)
		return finErr
	})
	if err != nil {
		return nil, fmt.Errorf("finish session: %w", err)
	}

	s.log.InfoContext(ctx, "session finished",
		slog.String("learner_id", learnerID.String()),
		slog.String("session_id", session.ID.String()),
		slog.Int("total_reviewed", finished.Result.TotalReviewed),
	)

	return finished, nil
}

// AbandonSession abandons the learner's current ACTIVE session. A learner
// with no active session is a noop, so retries are safe.
func (s *Service) AbandonSession(ctx context.Context, learnerID uuid.UUID) error {
	if learnerID == uuid.Nil {
		return domain.NewValidationError("learner_id", "required")
	}

	session, err := s.sessions.GetActive(ctx, learnerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get active session: %w", err)
	}

	if err := s.sessions.Abandon(ctx, learnerID, session.ID); err != nil {
		return fmt.Errorf("abandon session: %w", err)
	}

	s.log.InfoContext(ctx, "session abandoned",
		slog.String("learner_id", learnerID.String()),
		slog.String("session_id", session.ID.String()),
	)

	return nil
}

// aggregateSessionResult folds a session's log entries into its outcome.
// Accuracy counts GOOD and EASY reviews as successful.
func aggregateSessionResult(logs []domain.ReviewLogEntry, startedAt, finishedAt time.Time) domain.SessionResult {
	result := domain.SessionResult{
		TotalReviewed: len(logs),
		DurationMs:    finishedAt.Sub(startedAt).Milliseconds(),
	}

	successful := 0
	for _, entry := range logs {
		switch entry.Rating {
		case domain.RatingAgain:
			result.GradeCounts.Again++
		case domain.RatingHard:
			result.GradeCounts.Hard++
		case domain.RatingGood:
			result.GradeCounts.Good++
			successful++
		case domain.RatingEasy:
			result.GradeCounts.Easy++
			successful++
		}
	}

	if result.TotalReviewed > 0 {
		result.AccuracyRate = float64(successful) / float64(result.TotalReviewed) * 100
	}

	return result
}
