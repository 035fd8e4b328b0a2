package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wanderwise-ai/orchestrator/internal/llm"
)

type stubProvider struct {
	response   string
	err        error
	lastPrompt string
	lastSystem string
	calls      int
}

func (p *stubProvider) Generate(_ context.Context, prompt, systemPrompt string) (string, error) {
	p.calls++
	p.lastPrompt = prompt
	p.lastSystem = systemPrompt
	if p.err != nil {
		return "", p.err
	}
	return p.response, nil
}

func testTripContext() TripContext {
	return TripContext{
		TravelerName: "Ana",
		OriginCity:   "Mumbai",
		Days:         5,
		Month:        "June",
		BudgetTotal:  900,
		Interests:    []string{"beaches", "culture"},
		VisaPassport: "India",
	}
}

func TestDestinationAgentSuccess(t *testing.T) {
	provider := &stubProvider{response: "```json\n" + `{
		"destination": "Lisbon, Portugal",
		"reason": "Great food and mild weather",
		"highlights": ["Alfama", "Belém", "Fado"]
	}` + "\n```"}
	agent := NewDestinationAgent(provider, zap.NewNop())

	result, outcome := agent.Process(context.Background(), testTripContext())
	assert.False(t, outcome.UsedFallback)
	assert.Equal(t, "Lisbon, Portugal", result.Destination)
	assert.Equal(t, "Great food and mild weather", result.Reason)
	assert.Len(t, result.Highlights, 3)
}

func TestDestinationAgentFallbackOnModelError(t *testing.T) {
	provider := &stubProvider{err: llm.ErrModelUnavailable}
	agent := NewDestinationAgent(provider, zap.NewNop())

	result, outcome := agent.Process(context.Background(), testTripContext())
	assert.True(t, outcome.UsedFallback)
	assert.Equal(t, "model_unavailable", outcome.FallbackReason)
	assert.Equal(t, DefaultDestination, result.Destination)
	assert.Equal(t, "Perfect for your interests and budget", result.Reason)
}

func TestDestinationAgentFallbackHonorsPreference(t *testing.T) {
	provider := &stubProvider{err: llm.ErrModelUnavailable}
	agent := NewDestinationAgent(provider, zap.NewNop())

	tc := testTripContext()
	tc.PreferredDestination = "Kyoto, Japan"

	result, outcome := agent.Process(context.Background(), tc)
	assert.True(t, outcome.UsedFallback)
	assert.Equal(t, "Kyoto, Japan", result.Destination)
}

func TestDestinationAgentValidatesPreferred(t *testing.T) {
	provider := &stubProvider{response: `{"destination": "Kyoto, Japan", "reason": "ok", "highlights": []}`}
	agent := NewDestinationAgent(provider, zap.NewNop())

	tc := testTripContext()
	tc.PreferredDestination = "Kyoto, Japan"

	_, outcome := agent.Process(context.Background(), tc)
	assert.False(t, outcome.UsedFallback)
	assert.Contains(t, provider.lastSystem, "already chosen")
	assert.Contains(t, provider.lastPrompt, "Kyoto, Japan")
}

func TestDestinationAgentFallbackOnMalformedOutput(t *testing.T) {
	provider := &stubProvider{response: "I think you should visit somewhere warm!"}
	agent := NewDestinationAgent(provider, zap.NewNop())

	result, outcome := agent.Process(context.Background(), testTripContext())
	assert.True(t, outcome.UsedFallback)
	assert.Equal(t, "malformed_output", outcome.FallbackReason)
	assert.Equal(t, DefaultDestination, result.Destination)
}

func TestDestinationAgentFallbackOnMissingAnchor(t *testing.T) {
	provider := &stubProvider{response: `{"reason": "no destination field here"}`}
	agent := NewDestinationAgent(provider, zap.NewNop())

	_, outcome := agent.Process(context.Background(), testTripContext())
	assert.True(t, outcome.UsedFallback)
	assert.Equal(t, "missing_anchor", outcome.FallbackReason)
}

func TestItineraryAgentSuccess(t *testing.T) {
	provider := &stubProvider{response: `{
		"itinerary": [
			{"day": 1, "title": "Arrival", "morning": "Check in", "afternoon": "Old town walk", "evening": "Dinner", "meal_suggestions": ["Taverna"]},
			{"title": "Museums", "morning": "Art museum", "afternoon": "History museum", "evening": "Concert"}
		]
	}`}
	agent := NewItineraryAgent(provider, zap.NewNop())

	tc := testTripContext()
	tc.Destination = "Lisbon, Portugal"

	days, outcome := agent.Process(context.Background(), tc)
	require.False(t, outcome.UsedFallback)
	require.Len(t, days, 2)
	assert.Equal(t, 1, days[0].Day)
	assert.Equal(t, "Arrival", days[0].Title)
	// Missing day number falls back to position.
	assert.Equal(t, 2, days[1].Day)
}

func TestItineraryAgentFallbackMatchesDays(t *testing.T) {
	provider := &stubProvider{err: llm.ErrModelUnavailable}
	agent := NewItineraryAgent(provider, zap.NewNop())

	tc := testTripContext()
	tc.Destination = "Lisbon, Portugal"
	tc.Days = 3

	days, outcome := agent.Process(context.Background(), tc)
	assert.True(t, outcome.UsedFallback)
	require.Len(t, days, 3)
	for i, day := range days {
		assert.Equal(t, i+1, day.Day)
		assert.Equal(t, "Explore local area", day.Morning)
		assert.Equal(t, "Visit main attractions", day.Afternoon)
		assert.Equal(t, "Dinner and relaxation", day.Evening)
		assert.Equal(t, []string{"Local restaurant"}, day.MealSuggestions)
	}
}

func TestItineraryAgentRequiresDestination(t *testing.T) {
	provider := &stubProvider{response: `{"itinerary": []}`}
	agent := NewItineraryAgent(provider, zap.NewNop())

	days, outcome := agent.Process(context.Background(), testTripContext())
	assert.True(t, outcome.UsedFallback)
	assert.Equal(t, "render_error", outcome.FallbackReason)
	assert.Len(t, days, 5)
	// The model is never called when the prompt cannot be rendered.
	assert.Zero(t, provider.calls)
}

func TestBudgetAgentSuccess(t *testing.T) {
	provider := &stubProvider{response: `{
		"breakdown": {"flights": 400, "accommodation": 200, "food": 150, "activities": 100, "transport": 50},
		"total": 900,
		"daily_average": 180,
		"budget_tips": ["Travel midweek"]
	}`}
	agent := NewBudgetAgent(provider, zap.NewNop())

	tc := testTripContext()
	tc.Destination = "Lisbon, Portugal"

	result, outcome := agent.Process(context.Background(), tc)
	require.False(t, outcome.UsedFallback)
	assert.Equal(t, 900.0, result.Total)
	assert.Equal(t, 180.0, result.DailyAverage)
	assert.Equal(t, 400.0, result.Breakdown["flights"])
}

func TestBudgetAgentDerivesTotals(t *testing.T) {
	provider := &stubProvider{response: `{
		"breakdown": {"flights": 300, "accommodation": 200}
	}`}
	agent := NewBudgetAgent(provider, zap.NewNop())

	tc := testTripContext()
	tc.Destination = "Lisbon, Portugal"

	result, outcome := agent.Process(context.Background(), tc)
	require.False(t, outcome.UsedFallback)
	assert.Equal(t, 500.0, result.Total)
	assert.Equal(t, 100.0, result.DailyAverage)
}

func TestBudgetAgentFallbackRatios(t *testing.T) {
	provider := &stubProvider{err: llm.ErrModelUnavailable}
	agent := NewBudgetAgent(provider, zap.NewNop())

	tc := testTripContext()
	tc.Destination = "Bali, Indonesia"

	result, outcome := agent.Process(context.Background(), tc)
	assert.True(t, outcome.UsedFallback)

	assert.InDelta(t, 315.0, result.Breakdown["flights"], 0.001)
	assert.InDelta(t, 225.0, result.Breakdown["accommodation"], 0.001)
	assert.InDelta(t, 180.0, result.Breakdown["food"], 0.001)
	assert.InDelta(t, 135.0, result.Breakdown["activities"], 0.001)
	assert.InDelta(t, 45.0, result.Breakdown["transport"], 0.001)
	assert.Equal(t, 900.0, result.Total)
	assert.Equal(t, 180.0, result.DailyAverage)

	sum := 0.0
	for _, v := range result.Breakdown {
		sum += v
	}
	assert.InDelta(t, tc.BudgetTotal, sum, 0.001)
}

func TestBudgetAgentFallbackExactOnFractionalBudgets(t *testing.T) {
	provider := &stubProvider{err: llm.ErrModelUnavailable}
	agent := NewBudgetAgent(provider, zap.NewNop())

	for _, budget := range []float64{101.75, 250.10, 333.33, 999.99, 33333.33} {
		tc := testTripContext()
		tc.Destination = "Bali, Indonesia"
		tc.BudgetTotal = budget

		result, outcome := agent.Process(context.Background(), tc)
		require.True(t, outcome.UsedFallback)

		// The last category absorbs the rounding remainder, so the split
		// never exceeds the budget no matter how the products round.
		sum := 0.0
		for _, v := range result.Breakdown {
			sum += v
		}
		assert.LessOrEqual(t, sum, budget*(1+1e-9), "budget %v", budget)
		assert.InDelta(t, budget, sum, budget*1e-9, "budget %v", budget)
	}
}

func TestSafetyAgentSuccess(t *testing.T) {
	provider := &stubProvider{response: `{
		"safety_level": "Medium",
		"visa_required": true,
		"vaccinations": ["Hepatitis A"],
		"safety_tips": ["Watch for pickpockets", "Use registered taxis"],
		"emergency_contacts": {"police": "112", "medical": "112"},
		"weather_advisory": "Hot and humid in June"
	}`}
	agent := NewSafetyAgent(provider, zap.NewNop())

	tc := testTripContext()
	tc.Destination = "Bangkok, Thailand"

	result, outcome := agent.Process(context.Background(), tc)
	require.False(t, outcome.UsedFallback)
	assert.Equal(t, "Medium", result.SafetyLevel)
	assert.True(t, result.VisaRequired)
	assert.Equal(t, "112", result.EmergencyContacts["police"])
	assert.Len(t, result.SafetyTips, 2)
}

func TestSafetyAgentFallback(t *testing.T) {
	provider := &stubProvider{err: llm.ErrModelUnavailable}
	agent := NewSafetyAgent(provider, zap.NewNop())

	tc := testTripContext()
	tc.Destination = "Bangkok, Thailand"

	result, outcome := agent.Process(context.Background(), tc)
	assert.True(t, outcome.UsedFallback)
	assert.Equal(t, "Low", result.SafetyLevel)
	assert.False(t, result.VisaRequired)
	assert.Len(t, result.SafetyTips, 3)
	assert.Equal(t, "911", result.EmergencyContacts["police"])
	assert.Equal(t, "Typical weather for June", result.WeatherAdvisory)
}

func TestSnapshotIsolatesInterests(t *testing.T) {
	tc := testTripContext()
	snap := tc.Snapshot()
	snap.Interests[0] = "mutated"
	snap.Destination = "Elsewhere"

	assert.Equal(t, "beaches", tc.Interests[0])
	assert.Empty(t, tc.Destination)
}
