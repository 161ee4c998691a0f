package workflow

import (
	"context"

	"github.com/tekiplanet/payflow/internal/domain"
)

// ConfirmResult is the outcome of driving a session through its confirm
// step. Exactly one of Receipt, Detour, or FailureMessage is set: Receipt on
// terminal success, Detour when the session suspended into the funding
// branch, FailureMessage when the session stays at confirming after a
// remote rejection.
type ConfirmResult struct {
	Session        domain.WorkflowSession `json:"session"`
	Receipt        *domain.Receipt        `json:"receipt,omitempty"`
	Detour         *domain.FundingDetour  `json:"detour,omitempty"`
	FailureMessage string                 `json:"failure_message,omitempty"`
}

// IWorkflowService owns the multi-step payment state machine described by
// the session's step sequence: forward moves are guarded by validation,
// backward moves always succeed and lose nothing, and terminal states
// destroy the session.
type IWorkflowService interface {
	Start(ctx context.Context, userID string, flow domain.FlowKind, payableItemID string) (*domain.WorkflowSession, error)
	Get(ctx context.Context, sessionID string) (*domain.WorkflowSession, error)

	// SubmitStep validates the input for the session's current step and
	// advances on success
	SubmitStep(ctx context.Context, sessionID string, input StepInput) (*domain.WorkflowSession, error)

	// Back moves one step backward; it never fails for a live session
	// and never discards collected inputs
	Back(ctx context.Context, sessionID string) (*domain.WorkflowSession, error)

	// Confirm executes the payment for a session standing at confirming
	Confirm(ctx context.Context, sessionID string) (*ConfirmResult, error)

	// Resume re-validates affordability after a funding detour and lifts
	// the suspension when funds now cover the requirement
	Resume(ctx context.Context, sessionID string) (*ConfirmResult, error)

	// Cancel abandons a non-terminal session with no side effects beyond
	// discarding its state
	Cancel(ctx context.Context, sessionID string) error
}
