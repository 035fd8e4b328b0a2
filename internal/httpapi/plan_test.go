package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wanderwise-ai/orchestrator/internal/agents"
	"github.com/wanderwise-ai/orchestrator/internal/auth"
	"github.com/wanderwise-ai/orchestrator/internal/db"
	"github.com/wanderwise-ai/orchestrator/internal/orchestrator"
)

type stubPlanner struct {
	plan *orchestrator.CompositePlan
	err  error
	got  agents.TripContext
}

func (s *stubPlanner) Plan(_ context.Context, tc agents.TripContext) (*orchestrator.CompositePlan, error) {
	s.got = tc
	if s.err != nil {
		return nil, s.err
	}
	return s.plan, nil
}

type stubStore struct {
	trips    []*db.TripRecord
	feedback []*db.FeedbackRecord
	listed   []db.TripRecord
}

func (s *stubStore) QueueTripWrite(trip *db.TripRecord) string {
	trip.ID = "trip-stub"
	s.trips = append(s.trips, trip)
	return trip.ID
}

func (s *stubStore) QueueFeedbackWrite(fb *db.FeedbackRecord) string {
	fb.ID = "fb-stub"
	s.feedback = append(s.feedback, fb)
	return fb.ID
}

func (s *stubStore) ListTripsByUser(_ context.Context, _ string, _ int) ([]db.TripRecord, error) {
	return s.listed, nil
}

func authedMiddleware() *auth.Middleware {
	return auth.NewMiddleware(nil, true)
}

func validPlanBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"traveler_name": "Ana",
		"origin_city":   "Mumbai",
		"days":          5,
		"month":         "June",
		"budget_total":  900,
		"interests":     []string{"beaches", "culture"},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestPlanEndpointSuccess(t *testing.T) {
	planner := &stubPlanner{plan: &orchestrator.CompositePlan{
		Destination:  "Bali, Indonesia",
		WithinBudget: true,
	}}
	store := &stubStore{}

	mux := http.NewServeMux()
	NewPlanHandler(planner, store, nil, zap.NewNop()).RegisterRoutes(mux, authedMiddleware())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/plan", validPlanBody(t)))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp planResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Bali, Indonesia", resp.Plan.Destination)
	assert.Equal(t, "trip-stub", resp.TripID)

	// Authenticated request persists the trip.
	require.Len(t, store.trips, 1)
	assert.Equal(t, "Bali, Indonesia", store.trips[0].Destination)
	assert.Equal(t, "Mumbai", store.trips[0].OriginCity)
	assert.True(t, store.trips[0].WithinBudget)

	assert.Equal(t, 5, planner.got.Days)
	assert.Equal(t, []string{"beaches", "culture"}, planner.got.Interests)
}

func TestPlanEndpointValidationError(t *testing.T) {
	planner := &stubPlanner{err: &orchestrator.ValidationError{
		Field:  "days",
		Reason: "days must be between 1 and 30",
	}}

	mux := http.NewServeMux()
	NewPlanHandler(planner, nil, nil, zap.NewNop()).RegisterRoutes(mux, authedMiddleware())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/plan", validPlanBody(t)))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "days", resp["field"])
}

func TestPlanEndpointRejectsBadJSON(t *testing.T) {
	mux := http.NewServeMux()
	NewPlanHandler(&stubPlanner{}, nil, nil, zap.NewNop()).RegisterRoutes(mux, authedMiddleware())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/plan", bytes.NewBufferString("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/plan", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTripsEndpoint(t *testing.T) {
	store := &stubStore{listed: []db.TripRecord{{
		ID:          "trip-1",
		Destination: "Lisbon, Portugal",
		Days:        4,
		CreatedAt:   time.Now(),
	}}}

	mux := http.NewServeMux()
	NewTripsHandler(store, zap.NewNop()).RegisterRoutes(mux, authedMiddleware())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/trips", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Trips []db.TripRecord `json:"trips"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Trips, 1)
	assert.Equal(t, "Lisbon, Portugal", resp.Trips[0].Destination)
}

func TestFeedbackEndpoint(t *testing.T) {
	store := &stubStore{}

	mux := http.NewServeMux()
	NewTripsHandler(store, zap.NewNop()).RegisterRoutes(mux, authedMiddleware())

	body, _ := json.Marshal(feedbackRequest{TripID: "trip-1", Rating: 5, Comment: "great"})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/feedback", bytes.NewBuffer(body)))

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, store.feedback, 1)
	assert.Equal(t, 5, store.feedback[0].Rating)

	// Out-of-range rating is rejected.
	body, _ = json.Marshal(feedbackRequest{TripID: "trip-1", Rating: 6})
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/feedback", bytes.NewBuffer(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
