package agents

import (
	"fmt"
	"strings"
)

// System prompts describe each role's output schema informally. The schemas
// here are the contract the extraction and anchor checks rely on.

const destinationSystemPrompt = `You are a travel destination expert. Based on the traveler's preferences,
suggest the BEST single destination. Consider budget, interests, visa requirements, and travel month.

Return your response as JSON in this exact format:
{
    "destination": "City, Country",
    "reason": "Brief explanation why this destination matches their preferences",
    "highlights": ["highlight1", "highlight2", "highlight3"]
}`

const destinationValidateSystemPrompt = `You are a travel destination expert. The traveler has already chosen a
destination. Confirm the place exists and assess how well it fits their budget, interests, and travel month.

Return your response as JSON in this exact format:
{
    "destination": "City, Country",
    "reason": "Brief assessment of the traveler's chosen destination",
    "highlights": ["highlight1", "highlight2", "highlight3"]
}`

const itinerarySystemPrompt = `You are a travel itinerary expert. Create a day-by-day itinerary.

Return your response as JSON in this exact format:
{
    "itinerary": [
        {
            "day": 1,
            "title": "Arrival and Exploration",
            "morning": "Activity description",
            "afternoon": "Activity description",
            "evening": "Activity description",
            "meal_suggestions": ["restaurant1", "restaurant2"]
        }
    ]
}`

const budgetSystemPrompt = `You are a travel budget expert. Analyze the trip cost breakdown.

Return your response as JSON in this exact format:
{
    "breakdown": {
        "flights": 500,
        "accommodation": 300,
        "food": 200,
        "activities": 150,
        "transport": 100
    },
    "total": 1250,
    "daily_average": 250,
    "budget_tips": ["tip1", "tip2"]
}`

const safetySystemPrompt = `You are a travel safety expert. Provide safety advice and important information.

Return your response as JSON in this exact format:
{
    "safety_level": "Low/Medium/High",
    "visa_required": true,
    "vaccinations": ["vaccine1", "vaccine2"],
    "safety_tips": ["tip1", "tip2", "tip3"],
    "emergency_contacts": {
        "police": "number",
        "medical": "number"
    },
    "weather_advisory": "Brief weather description for the travel month"
}`

// renderError reports a context field a prompt needs but the caller did not
// provide. Agents absorb it into their fallback path.
type renderError struct {
	field string
}

func (e *renderError) Error() string {
	return fmt.Sprintf("prompt context missing required field %q", e.field)
}

func renderDestinationPrompt(tc TripContext) (user, system string, err error) {
	switch {
	case tc.TravelerName == "":
		return "", "", &renderError{"traveler_name"}
	case tc.OriginCity == "":
		return "", "", &renderError{"origin_city"}
	case len(tc.Interests) == 0:
		return "", "", &renderError{"interests"}
	}

	system = destinationSystemPrompt
	instruction := "Select the best destination and explain why."
	preferred := ""
	if strings.TrimSpace(tc.PreferredDestination) != "" {
		system = destinationValidateSystemPrompt
		instruction = "Validate this destination choice and explain how well it fits."
		preferred = fmt.Sprintf("Chosen destination: %s\n", tc.PreferredDestination)
	}

	user = fmt.Sprintf(`Traveler: %s
From: %s
Duration: %d days
Month: %s
Budget: $%.0f USD
Interests: %s
Passport: %s
%s
%s`,
		tc.TravelerName, tc.OriginCity, tc.Days, tc.Month, tc.BudgetTotal,
		strings.Join(tc.Interests, ", "), tc.VisaPassport, preferred, instruction)
	return user, system, nil
}

func renderItineraryPrompt(tc TripContext) (user, system string, err error) {
	if tc.Destination == "" {
		return "", "", &renderError{"destination"}
	}
	if len(tc.Interests) == 0 {
		return "", "", &renderError{"interests"}
	}

	user = fmt.Sprintf(`Create a %d-day itinerary for %s.
Traveler interests: %s
Month of travel: %s
Budget level: $%.0f for entire trip

Include specific activities, landmarks, and meal recommendations.`,
		tc.Days, tc.Destination, strings.Join(tc.Interests, ", "), tc.Month, tc.BudgetTotal)
	return user, itinerarySystemPrompt, nil
}

func renderBudgetPrompt(tc TripContext) (user, system string, err error) {
	if tc.Destination == "" {
		return "", "", &renderError{"destination"}
	}
	if tc.OriginCity == "" {
		return "", "", &renderError{"origin_city"}
	}

	user = fmt.Sprintf(`Estimate costs for a %d-day trip to %s.
Origin: %s
Month: %s
Total budget: $%.0f

Provide realistic cost breakdown in USD.`,
		tc.Days, tc.Destination, tc.OriginCity, tc.Month, tc.BudgetTotal)
	return user, budgetSystemPrompt, nil
}

func renderSafetyPrompt(tc TripContext) (user, system string, err error) {
	if tc.Destination == "" {
		return "", "", &renderError{"destination"}
	}

	user = fmt.Sprintf(`Provide safety information for travel to %s.
Traveler passport: %s
Travel month: %s
Duration: %d days

Include visa requirements, health advisories, and safety tips.`,
		tc.Destination, tc.VisaPassport, tc.Month, tc.Days)
	return user, safetySystemPrompt, nil
}
