//go:build e2e

package e2e_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestE2E_StudyFlow_FirstReviewGraduates verifies that a GOOD rating on a
// never-seen card seeds the memory model and graduates the card straight to
// the review state with a roughly one-day interval.
func TestE2E_StudyFlow_FirstReviewGraduates(t *testing.T) {
	ts := setupTestServer(t)
	learnerID := uuid.New()
	cardID := uuid.New()

	body := ts.submitReview(t, learnerID, cardID, "GOOD")

	assert.Equal(t, cardID.String(), body["cardId"])
	assert.Equal(t, "REVIEW", body["state"])
	assert.EqualValues(t, 1, body["reps"])
	assert.EqualValues(t, 0, body["lapses"])
	assert.InDelta(t, 1.0, body["stability"], 1e-9)
	assert.InDelta(t, 0.25, body["difficulty"], 1e-9)
	assert.EqualValues(t, 1, body["masteryLevel"])

	// Graduating reviews get the flat one-day interval, no fuzz.
	assert.InDelta(t, 1.0, body["intervalDays"], 1e-9)
}

// TestE2E_StudyFlow_LapseEntersRelearning verifies that an AGAIN rating on a
// graduated card counts a lapse, collapses stability, and drops the card into
// relearning with a short step interval.
func TestE2E_StudyFlow_LapseEntersRelearning(t *testing.T) {
	ts := setupTestServer(t)
	learnerID := uuid.New()
	cardID := uuid.New()

	ts.submitReview(t, learnerID, cardID, "GOOD")
	body := ts.submitReview(t, learnerID, cardID, "AGAIN")

	assert.Equal(t, "RELEARNING", body["state"])
	assert.EqualValues(t, 2, body["reps"])
	assert.EqualValues(t, 1, body["lapses"])

	// 10-minute relearning step expressed in days.
	assert.InDelta(t, 10.0/(24*60), body["intervalDays"], 1e-6)

	stability, ok := body["stability"].(float64)
	require.True(t, ok)
	assert.Less(t, stability, 1.0, "lapse should collapse stability")
}

// TestE2E_StudyFlow_StabilityGrowsAcrossReviews verifies repeated successful
// reviews grow stability monotonically.
func TestE2E_StudyFlow_StabilityGrowsAcrossReviews(t *testing.T) {
	ts := setupTestServer(t)
	learnerID := uuid.New()
	cardID := uuid.New()

	var prev float64
	for i := 0; i < 4; i++ {
		body := ts.submitReview(t, learnerID, cardID, "GOOD")

		stability, ok := body["stability"].(float64)
		require.True(t, ok)
		assert.Greater(t, stability, prev, "review %d should grow stability", i+1)
		prev = stability
	}
}

// TestE2E_StudyFlow_StatsReflectReviews verifies that learner stats count the
// cards touched by reviews.
func TestE2E_StudyFlow_StatsReflectReviews(t *testing.T) {
	ts := setupTestServer(t)
	learnerID := uuid.New()

	ts.submitReview(t, learnerID, uuid.New(), "GOOD")
	ts.submitReview(t, learnerID, uuid.New(), "EASY")
	ts.submitReview(t, learnerID, uuid.New(), "HARD")

	status, body := ts.getJSON(t, "/v1/learners/"+learnerID.String()+"/stats")
	assert.Equal(t, http.StatusOK, status)

	assert.EqualValues(t, 3, body["totalCards"])
	// A HARD rating on a new card stays in learning; the other two graduate.
	assert.EqualValues(t, 1, body["learningCount"])
	assert.EqualValues(t, 0, body["dueCount"], "freshly reviewed cards are not due yet")

	avgStability, ok := body["avgStability"].(float64)
	require.True(t, ok)
	assert.Greater(t, avgStability, 0.0)
}

// TestE2E_StudyFlow_SessionExcludesStudiedCards verifies that a learn-new
// session skips cards the learner already reviewed, while a review-due
// session leaves freshly scheduled cards alone.
func TestE2E_StudyFlow_SessionExcludesStudiedCards(t *testing.T) {
	ts := setupTestServer(t)
	learnerID := uuid.New()

	ids, pool := cardPool(4)
	ts.submitReview(t, learnerID, ids[0], "GOOD")
	ts.submitReview(t, learnerID, ids[1], "GOOD")

	status, body := ts.postJSON(t, "/v1/sessions", map[string]any{
		"learnerId":   learnerID.String(),
		"mode":        "LEARN_NEW",
		"maxNewCards": 10,
		"cards":       pool,
	})
	require.Equal(t, http.StatusOK, status, "session: %v", body)

	cards, ok := body["cards"].([]any)
	require.True(t, ok)
	require.Len(t, cards, 2)

	seen := map[string]bool{}
	for _, c := range cards {
		item := c.(map[string]any)
		assert.Equal(t, "NEW", item["state"])
		seen[item["cardId"].(string)] = true
	}
	assert.True(t, seen[ids[2].String()])
	assert.True(t, seen[ids[3].String()])

	// Nothing is due yet, so a review-due session is empty.
	status, body = ts.postJSON(t, "/v1/sessions", map[string]any{
		"learnerId":      learnerID.String(),
		"mode":           "REVIEW_DUE",
		"maxReviewCards": 10,
		"cards":          pool,
	})
	require.Equal(t, http.StatusOK, status)

	cards, ok = body["cards"].([]any)
	require.True(t, ok)
	assert.Empty(t, cards)
}

// TestE2E_StudyFlow_ReviewHistory verifies the immutable log endpoint returns
// every review for a card, newest first.
func TestE2E_StudyFlow_SessionLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	learnerID := uuid.New()
	base := "/v1/learners/" + learnerID.String() + "/sessions"

	// No session yet.
	status, _ := ts.getJSON(t, base+"/active")
	assert.Equal(t, http.StatusNotFound, status)

	status, session := ts.postJSON(t, base, map[string]any{"mode": "ADAPTIVE"})
	require.Equal(t, http.StatusOK, status, "start session: %v", session)
	sessionID, ok := session["id"].(string)
	require.True(t, ok)
	assert.Equal(t, "ACTIVE", session["status"])
	assert.Equal(t, "ADAPTIVE", session["mode"])

	// Starting again returns the same session.
	status, again := ts.postJSON(t, base, map[string]any{"mode": "QUIZ"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, sessionID, again["id"])

	ts.submitSessionReview(t, learnerID, uuid.New(), sessionID, "GOOD")
	ts.submitSessionReview(t, learnerID, uuid.New(), sessionID, "AGAIN")
	ts.submitSessionReview(t, learnerID, uuid.New(), sessionID, "EASY")
	// A review without a session id stays out of the session result.
	ts.submitReview(t, learnerID, uuid.New(), "GOOD")

	status, finished := ts.postJSON(t, base+"/"+sessionID+"/finish", nil)
	require.Equal(t, http.StatusOK, status, "finish session: %v", finished)
	assert.Equal(t, "FINISHED", finished["status"])
	require.NotNil(t, finished["finishedAt"])

	result, ok := finished["result"].(map[string]any)
	require.True(t, ok, "finished session must carry a result: %v", finished)
	assert.EqualValues(t, 3, result["totalReviewed"])
	assert.EqualValues(t, 1, result["againCount"])
	assert.EqualValues(t, 1, result["goodCount"])
	assert.EqualValues(t, 1, result["easyCount"])
	// 1 GOOD + 1 EASY out of 3.
	assert.InDelta(t, 66.666, result["accuracyRate"].(float64), 0.01)

	// Finishing twice is rejected.
	status, body := ts.postJSON(t, base+"/"+sessionID+"/finish", nil)
	assert.Equal(t, http.StatusBadRequest, status, "double finish: %v", body)

	// The closed session no longer shows as active.
	status, _ = ts.getJSON(t, base+"/active")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestE2E_StudyFlow_SessionAbandon(t *testing.T) {
	ts := setupTestServer(t)
	learnerID := uuid.New()
	base := "/v1/learners/" + learnerID.String() + "/sessions"

	// Abandon with no active session is a safe noop.
	assert.Equal(t, http.StatusNoContent, ts.postStatus(t, base+"/abandon", nil))

	status, session := ts.postJSON(t, base, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ADAPTIVE", session["mode"]) // empty mode defaults

	assert.Equal(t, http.StatusNoContent, ts.postStatus(t, base+"/abandon", nil))

	status, _ = ts.getJSON(t, base+"/active")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestE2E_StudyFlow_ReviewHistory(t *testing.T) {
	ts := setupTestServer(t)
	learnerID := uuid.New()
	cardID := uuid.New()

	for _, rating := range []string{"GOOD", "HARD", "EASY"} {
		ts.submitReview(t, learnerID, cardID, rating)
	}

	path := "/v1/learners/" + learnerID.String() + "/cards/" + cardID.String() + "/reviews"
	status, body := ts.getJSON(t, path)
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 3, body["total"])

	entries, ok := body["entries"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 3)

	var ratings []string
	for _, e := range entries {
		ratings = append(ratings, e.(map[string]any)["rating"].(string))
	}
	assert.Equal(t, []string{"EASY", "HARD", "GOOD"}, ratings)

	stats, ok := body["stats"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, stats["total"])
	assert.EqualValues(t, 0, stats["againCount"])
	assert.EqualValues(t, 1, stats["hardCount"])
	assert.EqualValues(t, 1, stats["goodCount"])
	assert.EqualValues(t, 1, stats["easyCount"])
	assert.InDelta(t, 1500, stats["avgResponseMs"], 1e-9)

	// Pagination slices the same ordering.
	status, body = ts.getJSON(t, path+"?limit=1&offset=1")
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 3, body["total"])

	entries, ok = body["entries"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, "HARD", entries[0].(map[string]any)["rating"])
}
