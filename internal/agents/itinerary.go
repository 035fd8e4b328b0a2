package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wanderwise-ai/orchestrator/internal/llm"
)

// ItineraryAgent builds the day-by-day plan. It requires the destination to
// be resolved before it runs.
type ItineraryAgent struct {
	provider llm.Provider
	logger   *zap.Logger
}

func NewItineraryAgent(provider llm.Provider, logger *zap.Logger) *ItineraryAgent {
	return &ItineraryAgent{provider: provider, logger: logger}
}

func (a *ItineraryAgent) Name() string { return NameItinerary }
func (a *ItineraryAgent) Role() string { return RoleItinerary }

func (a *ItineraryAgent) Process(ctx context.Context, tc TripContext) ([]DayPlan, Outcome) {
	user, system, err := renderItineraryPrompt(tc)
	if err != nil {
		a.logger.Warn("Itinerary prompt render failed", zap.Error(err))
		return a.fallback(tc, fallbackRenderError)
	}

	payload, reason := invoke(ctx, a.provider, a.logger, NameItinerary, user, system, "itinerary")
	if payload == nil {
		return a.fallback(tc, reason)
	}

	days := coerceItinerary(payload["itinerary"])
	if len(days) == 0 {
		return a.fallback(tc, fallbackMissingAnchor)
	}

	return days, Outcome{
		Summary: fmt.Sprintf("Planned %d days in %s", len(days), tc.Destination),
	}
}

func (a *ItineraryAgent) fallback(tc TripContext, reason string) ([]DayPlan, Outcome) {
	recordFallback(NameItinerary, reason)

	days := make([]DayPlan, tc.Days)
	for i := range days {
		days[i] = DayPlan{
			Day:             i + 1,
			Title:           fmt.Sprintf("Day %d", i+1),
			Morning:         "Explore local area",
			Afternoon:       "Visit main attractions",
			Evening:         "Dinner and relaxation",
			MealSuggestions: []string{"Local restaurant"},
		}
	}
	return days, Outcome{
		Summary:        fmt.Sprintf("Planned %d days (fallback)", tc.Days),
		UsedFallback:   true,
		FallbackReason: reason,
	}
}

func coerceItinerary(v interface{}) []DayPlan {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	days := make([]DayPlan, 0, len(items))
	for i, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		day := DayPlan{
			Title:           asString(entry["title"]),
			Morning:         asString(entry["morning"]),
			Afternoon:       asString(entry["afternoon"]),
			Evening:         asString(entry["evening"]),
			MealSuggestions: asStringSlice(entry["meal_suggestions"]),
		}
		if n, ok := asFloat(entry["day"]); ok && n >= 1 {
			day.Day = int(n)
		} else {
			day.Day = i + 1
		}
		days = append(days, day)
	}
	return days
}
