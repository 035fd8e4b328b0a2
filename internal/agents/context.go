package agents

// TripContext carries one planning request through the pipeline. It is
// created per request, mutated only by the orchestrator (Destination is set
// after the destination agent resolves), and discarded when the composite
// plan is assembled.
type TripContext struct {
	TravelerName         string   `json:"traveler_name"`
	OriginCity           string   `json:"origin_city"`
	Days                 int      `json:"days"`
	Month                string   `json:"month"`
	BudgetTotal          float64  `json:"budget_total"`
	Interests            []string `json:"interests"`
	VisaPassport         string   `json:"visa_passport"`
	PreferredDestination string   `json:"preferred_destination,omitempty"`

	// Destination is resolved by the destination agent before the
	// downstream agents run.
	Destination string `json:"destination,omitempty"`
}

// Snapshot returns a copy safe to hand to concurrently running agents.
// The downstream agents treat the context as read-only.
func (tc TripContext) Snapshot() TripContext {
	cp := tc
	cp.Interests = append([]string(nil), tc.Interests...)
	return cp
}
