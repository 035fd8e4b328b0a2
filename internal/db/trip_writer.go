package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wanderwise-ai/orchestrator/internal/metrics"
)

type writeKind int

const (
	writeTrip writeKind = iota
	writeFeedback
)

type writeRequest struct {
	kind     writeKind
	trip     *TripRecord
	feedback *FeedbackRecord
}

// QueueTripWrite enqueues a trip record for async persistence. Returns the
// generated trip ID immediately; the write happens on a worker goroutine.
// When the queue is full the write is dropped and counted rather than
// blocking the request path.
func (c *Client) QueueTripWrite(trip *TripRecord) string {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now().UTC()
	}
	select {
	case c.writeQueue <- writeRequest{kind: writeTrip, trip: trip}:
		metrics.TripWritesQueued.Inc()
	default:
		metrics.TripWritesDropped.Inc()
		c.logger.Warn("Trip write queue full, dropping write",
			zap.String("trip_id", trip.ID),
			zap.String("user_id", trip.UserID),
		)
	}
	return trip.ID
}

// QueueFeedbackWrite enqueues a feedback record for async persistence.
func (c *Client) QueueFeedbackWrite(fb *FeedbackRecord) string {
	if fb.ID == "" {
		fb.ID = uuid.New().String()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	select {
	case c.writeQueue <- writeRequest{kind: writeFeedback, feedback: fb}:
		metrics.TripWritesQueued.Inc()
	default:
		metrics.TripWritesDropped.Inc()
		c.logger.Warn("Feedback write queue full, dropping write",
			zap.String("feedback_id", fb.ID),
		)
	}
	return fb.ID
}

func (c *Client) writeWorker() {
	defer c.workerWg.Done()
	for {
		select {
		case req := <-c.writeQueue:
			c.processWrite(req)
		case <-c.stopCh:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case req := <-c.writeQueue:
					c.processWrite(req)
				default:
					return
				}
			}
		}
	}
}

func (c *Client) processWrite(req writeRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	switch req.kind {
	case writeTrip:
		err = c.SaveTrip(ctx, req.trip)
	case writeFeedback:
		err = c.SaveFeedback(ctx, req.feedback)
	}
	if err != nil {
		metrics.TripWriteFailures.Inc()
		c.logger.Error("Async write failed", zap.Error(err))
	}
}

// SaveTrip inserts or updates a trip record.
func (c *Client) SaveTrip(ctx context.Context, trip *TripRecord) error {
	query := `
		INSERT INTO trips (id, user_id, destination, origin_city, days, month,
			budget_total, within_budget, plan, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			destination = EXCLUDED.destination,
			within_budget = EXCLUDED.within_budget,
			plan = EXCLUDED.plan`

	_, err := c.db.ExecContext(ctx, query,
		trip.ID, trip.UserID, trip.Destination, trip.OriginCity,
		trip.Days, trip.Month, trip.BudgetTotal, trip.WithinBudget,
		[]byte(trip.Plan), trip.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save trip %s: %w", trip.ID, err)
	}
	return nil
}

// SaveFeedback inserts a feedback record.
func (c *Client) SaveFeedback(ctx context.Context, fb *FeedbackRecord) error {
	query := `
		INSERT INTO trip_feedback (id, user_id, trip_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := c.db.ExecContext(ctx, query,
		fb.ID, fb.UserID, fb.TripID, fb.Rating, fb.Comment, fb.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save feedback %s: %w", fb.ID, err)
	}
	return nil
}

// GetTrip fetches a single trip by ID scoped to a user.
func (c *Client) GetTrip(ctx context.Context, userID, tripID string) (*TripRecord, error) {
	var trip TripRecord
	query := `
		SELECT id, user_id, destination, origin_city, days, month,
			budget_total, within_budget, plan, created_at
		FROM trips WHERE id = $1 AND user_id = $2`
	if err := c.db.GetContext(ctx, &trip, query, tripID, userID); err != nil {
		return nil, err
	}
	return &trip, nil
}

// ListTripsByUser returns a user's trips, newest first.
func (c *Client) ListTripsByUser(ctx context.Context, userID string, limit int) ([]TripRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var trips []TripRecord
	query := `
		SELECT id, user_id, destination, origin_city, days, month,
			budget_total, within_budget, plan, created_at
		FROM trips WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	if err := c.db.SelectContext(ctx, &trips, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list trips for %s: %w", userID, err)
	}
	return trips, nil
}

// MarshalPlan serializes a composite plan for storage in the plan column.
func MarshalPlan(plan interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}
	return data, nil
}
