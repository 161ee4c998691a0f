package executor

import (
	"context"

	"github.com/tekiplanet/payflow/internal/domain"
)

// IExecutor performs the debit-and-confirm step of a workflow. Exactly one
// obligation transitions state per successful call; the balance is refreshed
// from the server response and nothing else is touched.
type IExecutor interface {
	// PayObligation pays the given obligation for a session. It rejects,
	// without any remote call: a mismatched amount, an out-of-order
	// obligation, insufficient funds, and a duplicate submission while a
	// prior one is in flight.
	PayObligation(ctx context.Context, session *domain.WorkflowSession, obligationID string, amountCents int64) (*domain.Receipt, error)

	// Reconcile re-reads authoritative obligation state after an
	// unknown-outcome submission and updates the mirror. Required before
	// a retry so a payment that actually landed is not paid twice.
	Reconcile(ctx context.Context, userID, payableItemID, obligationID string) (*domain.Obligation, error)
}
