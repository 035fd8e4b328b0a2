package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wanderwise-ai/orchestrator/internal/agents"
	"github.com/wanderwise-ai/orchestrator/internal/llm"
	"github.com/wanderwise-ai/orchestrator/internal/metrics"
	"github.com/wanderwise-ai/orchestrator/internal/tracing"
)

// CompositePlan is the merged output of all four agents plus the decision
// trace. It is assembled once per request and returned to the caller.
type CompositePlan struct {
	Destination     string                   `json:"destination"`
	DestinationInfo agents.DestinationResult `json:"destination_info"`
	Itinerary       []agents.DayPlan         `json:"itinerary"`
	BudgetAnalysis  agents.BudgetResult      `json:"budget_analysis"`
	SafetyInfo      agents.SafetyResult      `json:"safety_info"`
	WithinBudget    bool                     `json:"within_budget"`
	AgentMessages   []agents.TraceEntry      `json:"agent_messages"`
}

// Config holds orchestrator tunables.
type Config struct {
	// ConcurrentAgents runs itinerary/budget/safety in parallel once the
	// destination is resolved. The trace order is fixed either way.
	ConcurrentAgents bool `mapstructure:"concurrent_agents"`

	// RequestTimeout bounds one whole planning request.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Orchestrator sequences the four role agents: destination first, then the
// three destination-dependent agents. No agent reads another's output beyond
// the resolved destination.
type Orchestrator struct {
	destination *agents.DestinationAgent
	itinerary   *agents.ItineraryAgent
	budget      *agents.BudgetAgent
	safety      *agents.SafetyAgent
	cfg         Config
	logger      *zap.Logger
}

// New wires the four agents against one model provider.
func New(provider llm.Provider, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 3 * time.Minute
	}
	return &Orchestrator{
		destination: agents.NewDestinationAgent(provider, logger),
		itinerary:   agents.NewItineraryAgent(provider, logger),
		budget:      agents.NewBudgetAgent(provider, logger),
		safety:      agents.NewSafetyAgent(provider, logger),
		cfg:         cfg,
		logger:      logger,
	}
}

// Plan runs the pipeline. The only error it returns is *ValidationError;
// model and extraction failures are absorbed by the agents' fallbacks, so a
// valid request always yields a complete composite plan.
func (o *Orchestrator) Plan(ctx context.Context, tc agents.TripContext) (*CompositePlan, error) {
	if err := validate(tc); err != nil {
		return nil, err
	}

	metrics.PlansStarted.Inc()
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	defer cancel()

	ctx, span := tracing.StartSpan(ctx, "orchestrator.plan")
	defer span.End()

	destResult, destOutcome := o.destination.Process(ctx, tc)
	tc.Destination = destResult.Destination

	trace := make([]agents.TraceEntry, 0, 4)
	trace = append(trace, agents.TraceEntry{
		Agent:   o.destination.Name(),
		Role:    o.destination.Role(),
		Content: destOutcome.Summary,
	})

	var (
		itinResult   []agents.DayPlan
		itinOutcome  agents.Outcome
		budgetResult agents.BudgetResult
		budgetOut    agents.Outcome
		safetyResult agents.SafetyResult
		safetyOut    agents.Outcome
	)

	if o.cfg.ConcurrentAgents {
		// Each agent gets a read-only snapshot; nothing downstream
		// mutates the context, so no locking is needed.
		snapshot := tc.Snapshot()
		var wg sync.WaitGroup
		wg.Add(3)
		go func() {
			defer wg.Done()
			itinResult, itinOutcome = o.itinerary.Process(ctx, snapshot)
		}()
		go func() {
			defer wg.Done()
			budgetResult, budgetOut = o.budget.Process(ctx, snapshot)
		}()
		go func() {
			defer wg.Done()
			safetyResult, safetyOut = o.safety.Process(ctx, snapshot)
		}()
		wg.Wait()
	} else {
		itinResult, itinOutcome = o.itinerary.Process(ctx, tc)
		budgetResult, budgetOut = o.budget.Process(ctx, tc)
		safetyResult, safetyOut = o.safety.Process(ctx, tc)
	}

	// Trace order is fixed regardless of execution order.
	trace = append(trace,
		agents.TraceEntry{Agent: o.itinerary.Name(), Role: o.itinerary.Role(), Content: itinOutcome.Summary},
		agents.TraceEntry{Agent: o.budget.Name(), Role: o.budget.Role(), Content: budgetOut.Summary},
		agents.TraceEntry{Agent: o.safety.Name(), Role: o.safety.Role(), Content: safetyOut.Summary},
	)

	totalCost := 0.0
	for _, v := range budgetResult.Breakdown {
		totalCost += v
	}
	// Map iteration randomizes the summation order, and float addition is
	// not associative: a breakdown that equals the budget can land an ulp
	// above it depending on the order. Tolerate that rounding noise so the
	// verdict is deterministic.
	withinBudget := totalCost <= tc.BudgetTotal*(1+budgetSumTolerance)

	plan := &CompositePlan{
		Destination:     destResult.Destination,
		DestinationInfo: destResult,
		Itinerary:       itinResult,
		BudgetAnalysis:  budgetResult,
		SafetyInfo:      safetyResult,
		WithinBudget:    withinBudget,
		AgentMessages:   trace,
	}

	o.logger.Info("Trip plan assembled",
		zap.String("destination", plan.Destination),
		zap.Int("days", tc.Days),
		zap.Bool("within_budget", plan.WithinBudget),
		zap.Bool("destination_fallback", destOutcome.UsedFallback),
		zap.Duration("duration", time.Since(start)),
	)
	metrics.PlanDuration.Observe(time.Since(start).Seconds())
	metrics.PlansCompleted.WithLabelValues("ok").Inc()

	return plan, nil
}
