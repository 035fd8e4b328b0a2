package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wanderwise-ai/orchestrator/internal/llm"
)

// SafetyAgent advises on visas, health, and general safety for the resolved
// destination.
type SafetyAgent struct {
	provider llm.Provider
	logger   *zap.Logger
}

func NewSafetyAgent(provider llm.Provider, logger *zap.Logger) *SafetyAgent {
	return &SafetyAgent{provider: provider, logger: logger}
}

func (a *SafetyAgent) Name() string { return NameSafety }
func (a *SafetyAgent) Role() string { return RoleSafety }

func (a *SafetyAgent) Process(ctx context.Context, tc TripContext) (SafetyResult, Outcome) {
	user, system, err := renderSafetyPrompt(tc)
	if err != nil {
		a.logger.Warn("Safety prompt render failed", zap.Error(err))
		return a.fallback(tc, fallbackRenderError)
	}

	payload, reason := invoke(ctx, a.provider, a.logger, NameSafety, user, system, "safety_tips")
	if payload == nil {
		return a.fallback(tc, reason)
	}

	tips := asStringSlice(payload["safety_tips"])
	if len(tips) == 0 {
		return a.fallback(tc, fallbackMissingAnchor)
	}

	result := SafetyResult{
		SafetyLevel:       asString(payload["safety_level"]),
		VisaRequired:      asBool(payload["visa_required"]),
		Vaccinations:      asStringSlice(payload["vaccinations"]),
		SafetyTips:        tips,
		EmergencyContacts: asStringMap(payload["emergency_contacts"]),
		WeatherAdvisory:   asString(payload["weather_advisory"]),
	}

	return result, Outcome{
		Summary: fmt.Sprintf("Safety level %s, %d tips", result.SafetyLevel, len(tips)),
	}
}

func (a *SafetyAgent) fallback(tc TripContext, reason string) (SafetyResult, Outcome) {
	recordFallback(NameSafety, reason)

	result := SafetyResult{
		SafetyLevel:  "Low",
		VisaRequired: false,
		Vaccinations: []string{"Routine vaccines up to date"},
		SafetyTips: []string{
			"Keep copies of important documents",
			"Register with your embassy",
			"Get travel insurance",
		},
		EmergencyContacts: map[string]string{
			"police":  "911",
			"medical": "Emergency services",
		},
		WeatherAdvisory: fmt.Sprintf("Typical weather for %s", tc.Month),
	}
	return result, Outcome{
		Summary:        "Safety level Low (fallback)",
		UsedFallback:   true,
		FallbackReason: reason,
	}
}
