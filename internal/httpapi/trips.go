package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/wanderwise-ai/orchestrator/internal/auth"
	"github.com/wanderwise-ai/orchestrator/internal/db"
)

// TripsHandler serves trip history and feedback for authenticated users.
type TripsHandler struct {
	store  TripStore
	logger *zap.Logger
}

func NewTripsHandler(store TripStore, logger *zap.Logger) *TripsHandler {
	return &TripsHandler{store: store, logger: logger}
}

func (h *TripsHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.Handle("/api/v1/trips", mw.Require(http.HandlerFunc(h.handleTrips)))
	mux.Handle("/api/v1/feedback", mw.Require(http.HandlerFunc(h.handleFeedback)))
}

func (h *TripsHandler) handleTrips(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil {
			limit = n
		}
	}

	userCtx, _ := auth.GetUserContext(r.Context())
	trips, err := h.store.ListTripsByUser(r.Context(), userCtx.UserID.String(), limit)
	if err != nil {
		h.logger.Error("Trip list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list trips")
		return
	}
	if trips == nil {
		trips = []db.TripRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"trips": trips})
}

type feedbackRequest struct {
	TripID  string `json:"trip_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

func (h *TripsHandler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.TripID == "" {
		writeError(w, http.StatusBadRequest, "missing trip_id")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	userCtx, _ := auth.GetUserContext(r.Context())
	id := h.store.QueueFeedbackWrite(&db.FeedbackRecord{
		UserID:  userCtx.UserID.String(),
		TripID:  req.TripID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})

	writeJSON(w, http.StatusAccepted, map[string]string{"feedback_id": id})
}
