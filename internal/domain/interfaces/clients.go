package interfaces

import (
	"context"
	"time"

	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/internal/domain/models"
)

// LedgerClient talks to the authoritative balance ledger. FetchBalance must
// hit the remote every time; payability decisions are never made from a
// local cache.
type LedgerClient interface {
	// FetchBalance retrieves the current spendable balance for an owner
	FetchBalance(ctx context.Context, ownerID string) (*domain.Balance, error)

	// SubmitDebit performs the authoritative debit. It is issued exactly
	// once per call; the caller decides whether a retry is safe.
	SubmitDebit(ctx context.Context, req *models.DebitRequest) (*models.DebitResponse, error)

	// ListTransactions retrieves transaction records in a time window,
	// used for display and rolling aggregates
	ListTransactions(ctx context.Context, ownerID string, from, to time.Time) ([]domain.TransactionRecord, error)
}

// PlansClient talks to the service that owns payment plans and obligations.
type PlansClient interface {
	// CreateObligations registers a resolved payment schedule
	CreateObligations(ctx context.Context, req *models.CreateObligationsRequest) ([]domain.Obligation, error)

	// SubmitObligationPayment pays one obligation. Issued exactly once per
	// call, same contract as SubmitDebit.
	SubmitObligationPayment(ctx context.Context, payableItemID string, req *models.ObligationPaymentRequest) (*models.ObligationPaymentResponse, error)

	// FetchObligation re-reads authoritative obligation state, required
	// after an unknown-outcome submission before any retry
	FetchObligation(ctx context.Context, payableItemID, obligationID string) (*domain.Obligation, error)
}

// BankAccountsClient verifies and registers withdrawal targets.
type BankAccountsClient interface {
	Verify(ctx context.Context, accountNumber, bankCode string) (*models.VerifyBankAccountResponse, error)
	Add(ctx context.Context, account *domain.BankAccount) (*models.AddBankAccountResponse, error)
}

// NotificationSink receives fire-and-forget status pushes; the engine never
// consumes a return value from it.
type NotificationSink interface {
	NotifyBalance(balance domain.Balance)
	// NotifyObligation is addressed to the obligation's owner; the
	// obligation record itself carries no user identity.
	NotifyObligation(userID string, obligation domain.Obligation)
	NotifySession(session domain.WorkflowSession, status, message string)
}

// Navigator produces the external funding destination for the detour branch.
// The engine does not know what happens there; control returns via resume.
type Navigator interface {
	FundingURL(userID string) string
}
