package domain

import (
	"encoding/json"
	"time"
)

type FlowKind string

const (
	FlowWithdrawal   FlowKind = "withdrawal"
	FlowTuition      FlowKind = "tuition"
	FlowCheckout     FlowKind = "checkout"
	FlowSubscription FlowKind = "subscription"
)

type Step string

const (
	StepCollectingAmount Step = "collecting_amount"
	StepSelectingTarget  Step = "selecting_target"
	StepConfirming       Step = "confirming"
	StepTerminalSuccess  Step = "terminal_success"
	StepTerminalFailure  Step = "terminal_failure"
)

// WorkflowSession is the in-memory state of one in-progress multi-step
// payment interaction. Sessions are destroyed on terminal success, explicit
// cancel, or when the underlying payable item becomes invalid; a suspended
// session survives a funding detour and resumes where it left off.
type WorkflowSession struct {
	SessionID     string                   `json:"session_id"`
	UserID        string                   `json:"user_id"`
	Flow          FlowKind                 `json:"flow"`
	Steps         []Step                   `json:"steps"`
	Current       Step                     `json:"current"`
	Inputs        map[Step]json.RawMessage `json:"inputs"`
	AmountCents   int64                    `json:"amount_cents"`
	TargetRef     string                   `json:"target_ref"`
	TargetSetFor  int64                    `json:"target_set_for"`
	ObligationID  string                   `json:"obligation_id,omitempty"`
	PayableItemID string                   `json:"payable_item_id,omitempty"`
	Suspended     bool                     `json:"suspended"`
	StateStale    bool                     `json:"state_stale"`
	Epoch         int64                    `json:"epoch"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// StepIndex returns the position of step in the session's flow, or -1.
func (s *WorkflowSession) StepIndex(step Step) int {
	for i, st := range s.Steps {
		if st == step {
			return i
		}
	}
	return -1
}

// IsTerminal reports whether the session has reached a terminal step.
func (s *WorkflowSession) IsTerminal() bool {
	return s.Current == StepTerminalSuccess || s.Current == StepTerminalFailure
}

// FundingDetour carries the figures the dashboard needs to present the
// suspend-and-resume funding branch.
type FundingDetour struct {
	AvailableCents int64  `json:"available_cents"`
	RequiredCents  int64  `json:"required_cents"`
	ShortfallCents int64  `json:"shortfall_cents"`
	FundingURL     string `json:"funding_url"`
}
