package agents

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wanderwise-ai/orchestrator/internal/llm"
	"github.com/wanderwise-ai/orchestrator/internal/metrics"
)

// Agent names and role labels appearing in the decision trace.
const (
	NameDestination = "DestinationAgent"
	NameItinerary   = "ItineraryAgent"
	NameBudget      = "BudgetAgent"
	NameSafety      = "SafetyAgent"

	RoleDestination = "Travel Destination Expert"
	RoleItinerary   = "Travel Itinerary Planner"
	RoleBudget      = "Travel Budget Analyst"
	RoleSafety      = "Travel Safety Advisor"
)

// Fallback reasons recorded in metrics and the outcome.
const (
	fallbackModelUnavailable = "model_unavailable"
	fallbackMalformedOutput  = "malformed_output"
	fallbackMissingAnchor    = "missing_anchor"
	fallbackRenderError      = "render_error"
)

// Outcome describes how an agent produced its result. Agents never fail:
// a degraded model run is reported here, not as an error.
type Outcome struct {
	Summary        string
	UsedFallback   bool
	FallbackReason string
}

// invoke runs the shared render-free part of every agent: call the model,
// extract a structured payload, and check the anchor field. A nil payload
// means the agent must synthesize its fallback; reason says why.
func invoke(ctx context.Context, provider llm.Provider, logger *zap.Logger, name, prompt, system, anchor string) (payload map[string]interface{}, reason string) {
	start := time.Now()
	defer func() {
		metrics.AgentDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()
	metrics.AgentExecutions.WithLabelValues(name).Inc()

	raw, err := provider.Generate(ctx, prompt, system)
	if err != nil {
		logger.Warn("Model unavailable, using fallback",
			zap.String("agent", name),
			zap.Error(err),
		)
		return nil, fallbackModelUnavailable
	}

	extracted, ok := llm.ExtractJSON(raw)
	if !ok {
		logger.Warn("Model output not parseable, using fallback",
			zap.String("agent", name),
			zap.Int("raw_len", len(raw)),
		)
		return nil, fallbackMalformedOutput
	}

	if _, present := extracted[anchor]; !present {
		logger.Warn("Model output missing anchor field, using fallback",
			zap.String("agent", name),
			zap.String("anchor", anchor),
		)
		return nil, fallbackMissingAnchor
	}

	return extracted, ""
}

func recordFallback(name, reason string) {
	metrics.AgentFallbacks.WithLabelValues(name, reason).Inc()
}
