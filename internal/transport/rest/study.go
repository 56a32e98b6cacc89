package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/a16vhoss/neuropath-backend/internal/domain"
	"github.com/a16vhoss/neuropath-backend/internal/service/study"
)

// studyService defines the minimal interface needed by StudyHandler.
type studyService interface {
	ProcessReview(ctx context.Context, input study.ReviewInput) (*study.ReviewResult, error)
	ComposeSession(ctx context.Context, input study.SessionInput) ([]domain.SessionCandidate, error)
	LearnerStats(ctx context.Context, learnerID uuid.UUID) (domain.LearnerStats, error)
	StartSession(ctx context.Context, learnerID uuid.UUID, mode domain.SessionMode) (*domain.StudySession, error)
	ActiveSession(ctx context.Context, learnerID uuid.UUID) (*domain.StudySession, error)
	FinishSession(ctx context.Context, learnerID, sessionID uuid.UUID) (*domain.StudySession, error)
	AbandonSession(ctx context.Context, learnerID uuid.UUID) error
}

// reviewHistory defines the read side of the review log.
type reviewHistory interface {
	GetByLearnerCard(ctx context.Context, learnerID, cardID uuid.UUID, limit, offset int) ([]domain.ReviewLogEntry, int, error)
	GetStatsByCard(ctx context.Context, learnerID, cardID uuid.UUID) (domain.RatingStats, error)
}

// StudyHandler serves the scheduling-engine REST endpoints.
type StudyHandler struct {
	svc     studyService
	history reviewHistory
	log     *slog.Logger
}

// NewStudyHandler creates a StudyHandler.
func NewStudyHandler(svc studyService, history reviewHistory, logger *slog.Logger) *StudyHandler {
	return &StudyHandler{svc: svc, history: history, log: logger.With("handler", "study")}
}

type reviewRequest struct {
	LearnerID  string `json:"learnerId"`
	CardID     string `json:"cardId"`
	Rating     string `json:"rating"`
	ResponseMs int    `json:"responseMs"`
	SessionID  string `json:"sessionId,omitempty"`
}

type recordResponse struct {
	CardID        string     `json:"cardId"`
	State         string     `json:"state"`
	Stability     float64    `json:"stability"`
	Difficulty    float64    `json:"difficulty"`
	IntervalDays  float64    `json:"intervalDays"`
	Due           time.Time  `json:"due"`
	LastReview    *time.Time `json:"lastReview,omitempty"`
	Reps          int        `json:"reps"`
	Lapses        int        `json:"lapses"`
	AvgResponseMs int        `json:"avgResponseMs"`
	MasteryLevel  int        `json:"masteryLevel"`
}

type sessionRequest struct {
	LearnerID      string            `json:"learnerId"`
	Mode           string            `json:"mode"`
	MaxNewCards    int               `json:"maxNewCards"`
	MaxReviewCards int               `json:"maxReviewCards"`
	Cards          []sessionCardItem `json:"cards"`
}

type sessionCardItem struct {
	CardID  string `json:"cardId"`
	Content string `json:"content"`
}

type sessionCardResponse struct {
	CardID       string `json:"cardId"`
	Content      string `json:"content"`
	State        string `json:"state"`
	MasteryLevel int    `json:"masteryLevel"`
}

type composeSessionResponse struct {
	Cards []sessionCardResponse `json:"cards"`
}

type statsResponse struct {
	TotalCards        int     `json:"totalCards"`
	DueCount          int     `json:"dueCount"`
	LearningCount     int     `json:"learningCount"`
	MasteredCount     int     `json:"masteredCount"`
	AvgRetrievability float64 `json:"avgRetrievability"`
	AvgStability      float64 `json:"avgStability"`
}

type historyEntryResponse struct {
	ID               string    `json:"id"`
	SessionID        *string   `json:"sessionId,omitempty"`
	Rating           string    `json:"rating"`
	ResponseMs       int       `json:"responseMs"`
	StabilityBefore  float64   `json:"stabilityBefore"`
	StabilityAfter   float64   `json:"stabilityAfter"`
	DifficultyBefore float64   `json:"difficultyBefore"`
	DifficultyAfter  float64   `json:"difficultyAfter"`
	Retrievability   float64   `json:"retrievability"`
	IntervalDays     float64   `json:"intervalDays"`
	ReviewedAt       time.Time `json:"reviewedAt"`
}

type historyStatsResponse struct {
	Total         int     `json:"total"`
	AgainCount    int     `json:"againCount"`
	HardCount     int     `json:"hardCount"`
	GoodCount     int     `json:"goodCount"`
	EasyCount     int     `json:"easyCount"`
	AvgResponseMs float64 `json:"avgResponseMs"`
}

type historyResponse struct {
	Entries []historyEntryResponse `json:"entries"`
	Total   int                    `json:"total"`
	Stats   historyStatsResponse   `json:"stats"`
}

// ProcessReview handles POST /v1/reviews.
func (h *StudyHandler) ProcessReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	learnerID, err := uuid.Parse(req.LearnerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid learnerId")
		return
	}
	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cardId")
		return
	}

	input := study.ReviewInput{
		LearnerID:  learnerID,
		CardID:     cardID,
		Rating:     domain.Rating(req.Rating),
		ResponseMs: req.ResponseMs,
	}
	if req.SessionID != "" {
		sessionID, err := uuid.Parse(req.SessionID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid sessionId")
			return
		}
		input.SessionID = &sessionID
	}

	result, err := h.svc.ProcessReview(r.Context(), input)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordResponse(result.Record))
}

// ComposeSession handles POST /v1/sessions.
func (h *StudyHandler) ComposeSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	learnerID, err := uuid.Parse(req.LearnerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid learnerId")
		return
	}

	cards := make([]domain.CardRef, 0, len(req.Cards))
	for _, c := range req.Cards {
		cardID, err := uuid.Parse(c.CardID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid cardId in pool")
			return
		}
		cards = append(cards, domain.CardRef{CardID: cardID, Content: c.Content})
	}

	selected, err := h.svc.ComposeSession(r.Context(), study.SessionInput{
		LearnerID:      learnerID,
		Mode:           domain.SessionMode(req.Mode),
		Cards:          cards,
		MaxNewCards:    req.MaxNewCards,
		MaxReviewCards: req.MaxReviewCards,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := composeSessionResponse{Cards: make([]sessionCardResponse, 0, len(selected))}
	for _, c := range selected {
		item := sessionCardResponse{
			CardID:  c.Card.CardID.String(),
			Content: c.Card.Content,
			State:   string(domain.CardStateNew),
		}
		if c.Record != nil {
			item.State = string(c.Record.State)
			item.MasteryLevel = c.Record.MasteryLevel
		}
		resp.Cards = append(resp.Cards, item)
	}

	writeJSON(w, http.StatusOK, resp)
}

// LearnerStats handles GET /v1/learners/{learnerID}/stats.
func (h *StudyHandler) LearnerStats(w http.ResponseWriter, r *http.Request) {
	learnerID, err := uuid.Parse(r.PathValue("learnerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid learner id")
		return
	}

	stats, err := h.svc.LearnerStats(r.Context(), learnerID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalCards:        stats.TotalCards,
		DueCount:          stats.DueCount,
		LearningCount:     stats.LearningCount,
		MasteredCount:     stats.MasteredCount,
		AvgRetrievability: stats.AvgRetrievability,
		AvgStability:      stats.AvgStability,
	})
}

// ReviewHistory handles GET /v1/learners/{learnerID}/cards/{cardID}/reviews.
func (h *StudyHandler) ReviewHistory(w http.ResponseWriter, r *http.Request) {
	learnerID, err := uuid.Parse(r.PathValue("learnerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid learner id")
		return
	}
	cardID, err := uuid.Parse(r.PathValue("cardID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid card id")
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	entries, total, err := h.history.GetByLearnerCard(r.Context(), learnerID, cardID, limit, offset)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	stats, err := h.history.GetStatsByCard(r.Context(), learnerID, cardID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := historyResponse{
		Total:   total,
		Entries: make([]historyEntryResponse, 0, len(entries)),
		Stats: historyStatsResponse{
			Total:         stats.Total,
			AgainCount:    stats.AgainCount,
			HardCount:     stats.HardCount,
			GoodCount:     stats.GoodCount,
			EasyCount:     stats.EasyCount,
			AvgResponseMs: stats.AvgResponseMs,
		},
	}
	for _, e := range entries {
		item := historyEntryResponse{
			ID:               e.ID.String(),
			Rating:           string(e.Rating),
			ResponseMs:       e.ResponseMs,
			StabilityBefore:  e.StabilityBefore,
			StabilityAfter:   e.StabilityAfter,
			DifficultyBefore: e.DifficultyBefore,
			DifficultyAfter:  e.DifficultyAfter,
			Retrievability:   e.Retrievability,
			IntervalDays:     e.IntervalDays,
			ReviewedAt:       e.ReviewedAt,
		}
		if e.SessionID != nil {
			s := e.SessionID.String()
			item.SessionID = &s
		}
		resp.Entries = append(resp.Entries, item)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *StudyHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "concurrent modification, retry the review")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	default:
		h.log.ErrorContext(r.Context(), "internal error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func toRecordResponse(record domain.SchedulingRecord) recordResponse {
	return recordResponse{
		CardID:        record.CardID.String(),
		State:         string(record.State),
		Stability:     record.Stability,
		Difficulty:    record.Difficulty,
		IntervalDays:  record.IntervalDays,
		Due:           record.Due,
		LastReview:    record.LastReview,
		Reps:          record.Reps,
		Lapses:        record.Lapses,
		AvgResponseMs: record.AvgResponseMs,
		MasteryLevel:  record.MasteryLevel,
	}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
