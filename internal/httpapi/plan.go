package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/wanderwise-ai/orchestrator/internal/agents"
	"github.com/wanderwise-ai/orchestrator/internal/auth"
	"github.com/wanderwise-ai/orchestrator/internal/db"
	"github.com/wanderwise-ai/orchestrator/internal/orchestrator"
	"github.com/wanderwise-ai/orchestrator/internal/session"
)

// Planner runs the planning pipeline.
type Planner interface {
	Plan(ctx context.Context, tc agents.TripContext) (*orchestrator.CompositePlan, error)
}

// TripStore persists trip history and feedback.
type TripStore interface {
	QueueTripWrite(trip *db.TripRecord) string
	QueueFeedbackWrite(fb *db.FeedbackRecord) string
	ListTripsByUser(ctx context.Context, userID string, limit int) ([]db.TripRecord, error)
}

// PlanHandler serves planning requests. Anonymous requests get a plan;
// authenticated requests additionally get their trip recorded.
type PlanHandler struct {
	planner  Planner
	store    TripStore // nil when persistence is disabled
	sessions *session.Manager
	logger   *zap.Logger
}

func NewPlanHandler(planner Planner, store TripStore, sessions *session.Manager, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{
		planner:  planner,
		store:    store,
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes registers the plan endpoint behind optional auth.
func (h *PlanHandler) RegisterRoutes(mux *http.ServeMux, mw *auth.Middleware) {
	mux.Handle("/api/v1/plan", mw.Optional(http.HandlerFunc(h.handlePlan)))
}

type planRequest struct {
	agents.TripContext
	SessionID string `json:"session_id,omitempty"`
}

type planResponse struct {
	Plan      *orchestrator.CompositePlan `json:"plan"`
	TripID    string                      `json:"trip_id,omitempty"`
	SessionID string                      `json:"session_id,omitempty"`
}

func (h *PlanHandler) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	plan, err := h.planner.Plan(r.Context(), req.TripContext)
	if err != nil {
		var verr *orchestrator.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":  "validation failed",
				"field":  verr.Field,
				"reason": verr.Reason,
			})
			return
		}
		h.logger.Error("Plan request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "planning failed")
		return
	}

	resp := planResponse{Plan: plan, SessionID: req.SessionID}

	if userCtx, ok := auth.GetUserContext(r.Context()); ok && h.store != nil {
		planJSON, err := db.MarshalPlan(plan)
		if err != nil {
			h.logger.Error("Plan serialization failed", zap.Error(err))
		} else {
			resp.TripID = h.store.QueueTripWrite(&db.TripRecord{
				UserID:       userCtx.UserID.String(),
				Destination:  plan.Destination,
				OriginCity:   req.OriginCity,
				Days:         req.Days,
				Month:        req.Month,
				BudgetTotal:  req.BudgetTotal,
				WithinBudget: plan.WithinBudget,
				Plan:         planJSON,
			})
		}
	}

	if req.SessionID != "" && h.sessions != nil {
		if err := h.sessions.SetPlan(r.Context(), req.SessionID, plan); err != nil {
			h.logger.Warn("Failed to attach plan to session",
				zap.String("session_id", req.SessionID),
				zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
