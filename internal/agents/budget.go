package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wanderwise-ai/orchestrator/internal/llm"
)

// Fallback budget split. The order matters: the last category takes the
// remainder of the total instead of its own product, so the categories
// always sum to exactly the budget even when the per-category products
// round in binary floating point.
var fallbackBudgetSplit = []struct {
	category string
	ratio    float64
}{
	{"flights", 0.35},
	{"accommodation", 0.25},
	{"food", 0.20},
	{"activities", 0.15},
	{"transport", 0.05},
}

// BudgetAgent estimates the cost breakdown against the traveler's budget.
type BudgetAgent struct {
	provider llm.Provider
	logger   *zap.Logger
}

func NewBudgetAgent(provider llm.Provider, logger *zap.Logger) *BudgetAgent {
	return &BudgetAgent{provider: provider, logger: logger}
}

func (a *BudgetAgent) Name() string { return NameBudget }
func (a *BudgetAgent) Role() string { return RoleBudget }

func (a *BudgetAgent) Process(ctx context.Context, tc TripContext) (BudgetResult, Outcome) {
	user, system, err := renderBudgetPrompt(tc)
	if err != nil {
		a.logger.Warn("Budget prompt render failed", zap.Error(err))
		return a.fallback(tc, fallbackRenderError)
	}

	payload, reason := invoke(ctx, a.provider, a.logger, NameBudget, user, system, "breakdown")
	if payload == nil {
		return a.fallback(tc, reason)
	}

	breakdown := asFloatMap(payload["breakdown"])
	if len(breakdown) == 0 {
		return a.fallback(tc, fallbackMissingAnchor)
	}

	result := BudgetResult{
		Breakdown:  breakdown,
		BudgetTips: asStringSlice(payload["budget_tips"]),
	}
	if total, ok := asFloat(payload["total"]); ok {
		result.Total = total
	} else {
		for _, v := range breakdown {
			result.Total += v
		}
	}
	if avg, ok := asFloat(payload["daily_average"]); ok {
		result.DailyAverage = avg
	} else if tc.Days > 0 {
		result.DailyAverage = result.Total / float64(tc.Days)
	}

	return result, Outcome{
		Summary: fmt.Sprintf("Estimated $%.0f total, $%.0f/day", result.Total, result.DailyAverage),
	}
}

func (a *BudgetAgent) fallback(tc TripContext, reason string) (BudgetResult, Outcome) {
	recordFallback(NameBudget, reason)

	breakdown := make(map[string]float64, len(fallbackBudgetSplit))
	allocated := 0.0
	for _, split := range fallbackBudgetSplit[:len(fallbackBudgetSplit)-1] {
		amount := tc.BudgetTotal * split.ratio
		breakdown[split.category] = amount
		allocated += amount
	}
	last := fallbackBudgetSplit[len(fallbackBudgetSplit)-1]
	breakdown[last.category] = tc.BudgetTotal - allocated

	dailyAverage := 0.0
	if tc.Days > 0 {
		dailyAverage = tc.BudgetTotal / float64(tc.Days)
	}

	result := BudgetResult{
		Breakdown:    breakdown,
		Total:        tc.BudgetTotal,
		DailyAverage: dailyAverage,
		BudgetTips:   []string{"Book in advance", "Use public transport"},
	}
	return result, Outcome{
		Summary:        fmt.Sprintf("Estimated $%.0f total (fallback)", tc.BudgetTotal),
		UsedFallback:   true,
		FallbackReason: reason,
	}
}
