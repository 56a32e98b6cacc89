package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/a16vhoss/neuropath-backend/internal/domain"
)

type startSessionRequest struct {
	Mode string `json:"mode"`
}

type sessionResultResponse struct {
	TotalReviewed int     `json:"totalReviewed"`
	AgainCount    int     `json:"againCount"`
	HardCount     int     `json:"hardCount"`
	GoodCount     int     `json:"goodCount"`
	EasyCount     int     `json:"easyCount"`
	DurationMs    int64   `json:"durationMs"`
	AccuracyRate  float64 `json:"accuracyRate"`
}

type sessionResponse struct {
	ID         string                 `json:"id"`
	LearnerID  string                 `json:"learnerId"`
	Mode       string                 `json:"mode"`
	Status     string                 `json:"status"`
	StartedAt  time.Time              `json:"startedAt"`
	FinishedAt *time.Time             `json:"finishedAt,omitempty"`
	Result     *sessionResultResponse `json:"result,omitempty"`
}

// StartSession handles POST /v1/learners/{learnerID}/sessions. Starting while
// a session is already active returns the active one unchanged.
func (h *StudyHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	learnerID, err := uuid.Parse(r.PathValue("learnerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid learner id")
		return
	}

	var req startSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	session, err := h.svc.StartSession(r.Context(), learnerID, domain.SessionMode(req.Mode))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// ActiveSession handles GET /v1/learners/{learnerID}/sessions/active.
func (h *StudyHandler) ActiveSession(w http.ResponseWriter, r *http.Request) {
	learnerID, err := uuid.Parse(r.PathValue("learnerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid learner id")
		return
	}

	session, err := h.svc.ActiveSession(r.Context(), learnerID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// FinishSession handles POST /v1/learners/{learnerID}/sessions/{sessionID}/finish.
func (h *StudyHandler) FinishSession(w http.ResponseWriter, r *http.Request) {
	learnerID, err := uuid.Parse(r.PathValue("learnerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid learner id")
		return
	}
	sessionID, err := uuid.Parse(r.PathValue("sessionID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	session, err := h.svc.FinishSession(r.Context(), learnerID, sessionID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// AbandonSession handles POST /v1/learners/{learnerID}/sessions/abandon.
// Always succeeds for a valid learner id, even with no active session.
func (h *StudyHandler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	learnerID, err := uuid.Parse(r.PathValue("learnerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid learner id")
		return
	}

	if err := h.svc.AbandonSession(r.Context(), learnerID); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toSessionResponse(session *domain.StudySession) sessionResponse {
	resp := sessionResponse{
		ID:         session.ID.String(),
		LearnerID:  session.LearnerID.String(),
		Mode:       string(session.Mode),
		Status:     string(session.Status),
		StartedAt:  session.StartedAt,
		FinishedAt: session.FinishedAt,
	}
	if session.Result != nil {
		resp.Result = &sessionResultResponse{
			TotalReviewed: session.Result.TotalReviewed,
			AgainCount:    session.Result.GradeCounts.Again,
			HardCount:     session.Result.GradeCounts.Hard,
			GoodCount:     session.Result.GradeCounts.Good,
			EasyCount:     session.Result.GradeCounts.Easy,
			DurationMs:    session.Result.DurationMs,
			AccuracyRate:  session.Result.AccuracyRate,
		}
	}
	return resp
}
