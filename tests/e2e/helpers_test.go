//go:build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/a16vhoss/neuropath-backend/internal/adapter/postgres"
	"github.com/a16vhoss/neuropath-backend/internal/adapter/postgres/reviewlog"
	"github.com/a16vhoss/neuropath-backend/internal/adapter/postgres/schedrecord"
	"github.com/a16vhoss/neuropath-backend/internal/adapter/postgres/session"
	"github.com/a16vhoss/neuropath-backend/internal/adapter/postgres/testhelper"
	"github.com/a16vhoss/neuropath-backend/internal/config"
	"github.com/a16vhoss/neuropath-backend/internal/domain"
	"github.com/a16vhoss/neuropath-backend/internal/service/study"
	"github.com/a16vhoss/neuropath-backend/internal/transport/middleware"
	"github.com/a16vhoss/neuropath-backend/internal/transport/rest"
)

// testServer wraps the full HTTP stack for end-to-end tests.
type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// setupTestServer bootstraps the application stack backed by a real
// PostgreSQL container (shared via testhelper).
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)

	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))
	txm := postgres.NewTxManager(pool)

	records := schedrecord.New(pool)
	reviews := reviewlog.New(pool)
	sessions := session.New(pool)

	studyService, err := study.NewService(logger, records, reviews, sessions, txm, domain.DefaultSchedulerConfig(), nil)
	require.NoError(t, err)

	studyHandler := rest.NewStudyHandler(studyService, reviews, logger)
	healthHandler := rest.NewHealthHandler(pool, "test-version")

	handler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.CORS(config.CORSConfig{
			AllowedOrigins:   "*",
			AllowedMethods:   "GET,POST,OPTIONS",
			AllowedHeaders:   "Authorization,Content-Type",
			AllowCredentials: true,
			MaxAge:           86400,
		}),
	)(rest.NewRouter(studyHandler, healthHandler))

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		URL:    srv.URL,
		Client: srv.Client(),
		Pool:   pool,
	}
}

// postJSON sends a JSON POST and returns status + decoded body.
func (ts *testServer) postJSON(t *testing.T, path string, body any) (int, map[string]any) {
	t.Helper()

	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := ts.Client.Post(ts.URL+path, "application/json", bytes.NewReader(jsonBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return resp.StatusCode, result
}

// getJSON sends a GET and returns status + decoded body.
func (ts *testServer) getJSON(t *testing.T, path string) (int, map[string]any) {
	t.Helper()

	resp, err := ts.Client.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return resp.StatusCode, result
}

// postStatus sends a JSON POST and returns only the status code. Used for
// endpoints replying 204 with an empty body.
func (ts *testServer) postStatus(t *testing.T, path string, body any) int {
	t.Helper()

	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := ts.Client.Post(ts.URL+path, "application/json", bytes.NewReader(jsonBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	return resp.StatusCode
}

// submitReview posts one review and requires a 200 response.
func (ts *testServer) submitReview(t *testing.T, learnerID, cardID uuid.UUID, rating string) map[string]any {
	t.Helper()

	status, body := ts.postJSON(t, "/v1/reviews", map[string]any{
		"learnerId":  learnerID.String(),
		"cardId":     cardID.String(),
		"rating":     rating,
		"responseMs": 1500,
	})
	require.Equal(t, http.StatusOK, status, "review %s on %s: %v", rating, cardID, body)
	return body
}

// submitSessionReview posts one review tagged with a session id.
func (ts *testServer) submitSessionReview(t *testing.T, learnerID, cardID uuid.UUID, sessionID, rating string) map[string]any {
	t.Helper()

	status, body := ts.postJSON(t, "/v1/reviews", map[string]any{
		"learnerId":  learnerID.String(),
		"cardId":     cardID.String(),
		"rating":     rating,
		"responseMs": 1500,
		"sessionId":  sessionID,
	})
	require.Equal(t, http.StatusOK, status, "review %s on %s: %v", rating, cardID, body)
	return body
}

// cardPool builds a session request card pool of n fresh cards.
func cardPool(n int) ([]uuid.UUID, []map[string]any) {
	ids := make([]uuid.UUID, n)
	pool := make([]map[string]any, n)
	for i := range ids {
		ids[i] = uuid.New()
		pool[i] = map[string]any{
			"cardId":  ids[i].String(),
			"content": fmt.Sprintf("card-%d", i),
		}
	}
	return ids, pool
}
