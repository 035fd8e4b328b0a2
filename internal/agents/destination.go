package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wanderwise-ai/orchestrator/internal/llm"
)

// DefaultDestination is the fixed fallback when the model is unavailable and
// the traveler expressed no preference.
const DefaultDestination = "Bali, Indonesia"

// DestinationAgent resolves where the trip goes. When the traveler names a
// preferred destination the prompt asks the model to validate it instead of
// suggesting a new one; the response schema is the same either way.
type DestinationAgent struct {
	provider llm.Provider
	logger   *zap.Logger
}

func NewDestinationAgent(provider llm.Provider, logger *zap.Logger) *DestinationAgent {
	return &DestinationAgent{provider: provider, logger: logger}
}

func (a *DestinationAgent) Name() string { return NameDestination }
func (a *DestinationAgent) Role() string { return RoleDestination }

// Process never fails; a degraded model run yields the deterministic fallback.
func (a *DestinationAgent) Process(ctx context.Context, tc TripContext) (DestinationResult, Outcome) {
	user, system, err := renderDestinationPrompt(tc)
	if err != nil {
		a.logger.Warn("Destination prompt render failed", zap.Error(err))
		return a.fallback(tc, fallbackRenderError)
	}

	payload, reason := invoke(ctx, a.provider, a.logger, NameDestination, user, system, "destination")
	if payload == nil {
		return a.fallback(tc, reason)
	}

	result := DestinationResult{
		Destination: asString(payload["destination"]),
		Reason:      asString(payload["reason"]),
		Highlights:  asStringSlice(payload["highlights"]),
	}
	if result.Destination == "" {
		return a.fallback(tc, fallbackMissingAnchor)
	}

	return result, Outcome{
		Summary: fmt.Sprintf("Selected %s: %s", result.Destination, result.Reason),
	}
}

func (a *DestinationAgent) fallback(tc TripContext, reason string) (DestinationResult, Outcome) {
	recordFallback(NameDestination, reason)

	destination := DefaultDestination
	if strings.TrimSpace(tc.PreferredDestination) != "" {
		destination = tc.PreferredDestination
	}

	result := DestinationResult{
		Destination: destination,
		Reason:      "Perfect for your interests and budget",
		Highlights:  []string{"Beaches", "Temples", "Culture"},
	}
	return result, Outcome{
		Summary:        fmt.Sprintf("Selected %s (fallback)", destination),
		UsedFallback:   true,
		FallbackReason: reason,
	}
}
