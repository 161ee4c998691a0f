package models

import (
	"time"
)

// BalanceResponse is the remote ledger's balance snapshot payload.
type BalanceResponse struct {
	OwnerID        string    `json:"owner_id"`
	CurrencyCode   string    `json:"currency_code"`
	AvailableCents int64     `json:"available_cents"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type DebitRequest struct {
	OwnerID          string `json:"owner_id"`
	AmountCents      int64  `json:"amount_cents"`
	CurrencyCode     string `json:"currency_code"`
	PurposeReference string `json:"purpose_reference"`
}

// DebitResponse carries the authoritative post-debit balance. Local state is
// reconciled from NewBalanceCents, never computed locally.
type DebitResponse struct {
	Success         bool   `json:"success"`
	TransactionID   string `json:"transaction_id"`
	NewBalanceCents int64  `json:"new_balance_cents"`
	Message         string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
