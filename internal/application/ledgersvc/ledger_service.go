package ledgersvc

import (
	"context"

	"github.com/tekiplanet/payflow/internal/domain"
)

// DebitResult carries the authoritative outcome of a confirmed debit.
type DebitResult struct {
	TransactionID string
	NewBalance    domain.Balance
}

// ILedgerService is the sole authority on whether a payment can proceed.
type ILedgerService interface {
	// GetAvailableBalance always fetches fresh; the balance can change
	// out-of-band (other device, concurrent payment)
	GetAvailableBalance(ctx context.Context, ownerID string) (*domain.Balance, error)

	// CanAfford re-reads the balance and compares; equal-to-balance is
	// affordable. The snapshot used for the decision is returned.
	CanAfford(ctx context.Context, ownerID string, amountCents int64) (bool, *domain.Balance, error)

	// Debit checks sufficiency locally first (no remote call on
	// insufficient funds), then performs the authoritative remote debit
	// and reconciles from the server's returned balance.
	Debit(ctx context.Context, ownerID string, amountCents int64, reason string) (*DebitResult, error)

	// TodayWithdrawalTotal sums today's completed and pending withdrawal
	// debits, for daily-limit enforcement
	TodayWithdrawalTotal(ctx context.Context, ownerID string) (int64, error)
}
