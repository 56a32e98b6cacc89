package rest

import "net/http"

// NewRouter builds the HTTP route table. Method-qualified patterns make the
// mux return 405 for wrong methods on known paths.
func NewRouter(study *StudyHandler, health *HealthHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", health.Live)
	mux.HandleFunc("GET /health/ready", health.Ready)
	mux.HandleFunc("GET /health", health.Health)

	mux.HandleFunc("POST /v1/reviews", study.ProcessReview)
	mux.HandleFunc("POST /v1/sessions", study.ComposeSession)
	mux.HandleFunc("GET /v1/learners/{learnerID}/stats", study.LearnerStats)
	mux.HandleFunc("GET /v1/learners/{learnerID}/cards/{cardID}/reviews", study.ReviewHistory)
	mux.HandleFunc("POST /v1/learners/{learnerID}/sessions", study.StartSession)
	mux.HandleFunc("GET /v1/learners/{learnerID}/sessions/active", study.ActiveSession)
	mux.HandleFunc("POST /v1/learners/{learnerID}/sessions/abandon", study.AbandonSession)
	mux.HandleFunc("POST /v1/learners/{learnerID}/sessions/{sessionID}/finish", study.FinishSession)

	return mux
}
