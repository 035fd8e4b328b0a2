package agents

// DestinationResult is the destination agent's answer: where to go and why.
type DestinationResult struct {
	Destination string   `json:"destination"`
	Reason      string   `json:"reason"`
	Highlights  []string `json:"highlights"`
}

// DayPlan is one day of an itinerary.
type DayPlan struct {
	Day             int      `json:"day"`
	Title           string   `json:"title"`
	Morning         string   `json:"morning"`
	Afternoon       string   `json:"afternoon"`
	Evening         string   `json:"evening"`
	MealSuggestions []string `json:"meal_suggestions"`
}

// BudgetResult is the budget agent's cost breakdown for the whole trip.
type BudgetResult struct {
	Breakdown    map[string]float64 `json:"breakdown"`
	Total        float64            `json:"total"`
	DailyAverage float64            `json:"daily_average"`
	BudgetTips   []string           `json:"budget_tips"`
}

// SafetyResult is the safety agent's advisory for the resolved destination.
type SafetyResult struct {
	SafetyLevel       string            `json:"safety_level"`
	VisaRequired      bool              `json:"visa_required"`
	Vaccinations      []string          `json:"vaccinations"`
	SafetyTips        []string          `json:"safety_tips"`
	EmergencyContacts map[string]string `json:"emergency_contacts"`
	WeatherAdvisory   string            `json:"weather_advisory"`
}

// TraceEntry records one agent invocation for the decision trace returned to
// the caller. Entries are append-only, in invocation order.
type TraceEntry struct {
	Agent   string `json:"agent"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Coercion helpers for payloads extracted from model output. Model JSON
// arrives as map[string]interface{}; numbers are float64, lists are []interface{}.

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asStringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asStringMap(v interface{}) map[string]string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}

func asFloatMap(v interface{}) map[string]float64 {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, val := range m {
		if n, ok := asFloat(val); ok {
			out[k] = n
		}
	}
	return out
}
