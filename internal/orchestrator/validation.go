package orchestrator

import (
	"fmt"

	"github.com/wanderwise-ai/orchestrator/internal/agents"
)

// Request bounds enforced before the pipeline starts.
const (
	MinDays        = 1
	MaxDays        = 30
	MinBudgetTotal = 100
	MaxBudgetTotal = 100000
)

// budgetSumTolerance is the relative slack applied when comparing the
// breakdown sum against the budget, covering order-dependent float
// rounding in the summation.
const budgetSumTolerance = 1e-9

// ValidationError names the constraint a planning request violated. It is
// the only error the orchestrator surfaces; everything past validation
// degrades to fallbacks instead of failing.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// validate applies the request invariants. The pipeline never re-checks
// them afterwards.
func validate(tc agents.TripContext) error {
	if tc.Days < MinDays || tc.Days > MaxDays {
		return &ValidationError{
			Field:  "days",
			Reason: fmt.Sprintf("must be between %d and %d, got %d", MinDays, MaxDays, tc.Days),
		}
	}
	if tc.BudgetTotal < MinBudgetTotal || tc.BudgetTotal > MaxBudgetTotal {
		return &ValidationError{
			Field:  "budget_total",
			Reason: fmt.Sprintf("must be between %d and %d, got %g", MinBudgetTotal, MaxBudgetTotal, tc.BudgetTotal),
		}
	}
	if len(tc.Interests) == 0 {
		return &ValidationError{
			Field:  "interests",
			Reason: "must not be empty",
		}
	}
	return nil
}
