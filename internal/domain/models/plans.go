package models

import (
	"time"

	"github.com/tekiplanet/payflow/internal/domain"
)

type CreateObligationsRequest struct {
	PayableItemID string              `json:"payable_item_id"`
	PlanKind      domain.PlanKind     `json:"plan_kind"`
	TotalCents    int64               `json:"total_cents"`
	CurrencyCode  string              `json:"currency_code"`
	Schedule      []ObligationEntry   `json:"schedule"`
}

type ObligationEntry struct {
	SequenceOrder int        `json:"sequence_order"`
	AmountCents   int64      `json:"amount_cents"`
	DueAt         *time.Time `json:"due_at,omitempty"`
}

type CreateObligationsResponse struct {
	Obligations []domain.Obligation `json:"obligations"`
}

type ObligationPaymentRequest struct {
	ObligationID string `json:"obligation_id"`
	AmountCents  int64  `json:"amount_cents"`
}

// ObligationPaymentResponse reconciles local obligation and balance state
// with what the plans service actually recorded.
type ObligationPaymentResponse struct {
	Success          bool       `json:"success"`
	TransactionID    string     `json:"transaction_id"`
	ObligationStatus string     `json:"obligation_status"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	NewBalanceCents  int64      `json:"new_balance_cents"`
	Message          string     `json:"message,omitempty"`
}

type VerifyBankAccountRequest struct {
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
}

type VerifyBankAccountResponse struct {
	AccountName string `json:"account_name"`
}

type AddBankAccountResponse struct {
	ID string `json:"id"`
}
