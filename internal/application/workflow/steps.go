package workflow

import (
	"github.com/tekiplanet/payflow/internal/domain"
)

// flowSteps fixes the forward step sequence for each flow. Terminal steps
// are not listed; every flow ends in terminal_success or terminal_failure.
//
// The withdrawal flow collects a free amount first; the plan-backed flows
// take their amount from the selected obligation, so they start at target
// selection.
var flowSteps = map[domain.FlowKind][]domain.Step{
	domain.FlowWithdrawal: {
		domain.StepCollectingAmount,
		domain.StepSelectingTarget,
		domain.StepConfirming,
	},
	domain.FlowTuition: {
		domain.StepSelectingTarget,
		domain.StepConfirming,
	},
	domain.FlowCheckout: {
		domain.StepSelectingTarget,
		domain.StepConfirming,
	},
	domain.FlowSubscription: {
		domain.StepSelectingTarget,
		domain.StepConfirming,
	},
}

// StepInput is the tagged per-step payload submitted by the dashboard.
// Which fields are required depends on the session's current step and flow.
type StepInput struct {
	AmountCents  int64  `json:"amount_cents,omitempty"`
	TargetRef    string `json:"target_ref,omitempty"`
	ObligationID string `json:"obligation_id,omitempty"`
}
