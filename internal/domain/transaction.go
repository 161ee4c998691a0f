package domain

import (
	"time"
)

type TransactionType string
type TransactionStatus string
type TransactionCategory string

const (
	TypeCredit TransactionType = "credit"
	TypeDebit  TransactionType = "debit"
)

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

const (
	CategoryWithdrawal   TransactionCategory = "withdrawal"
	CategoryTuition      TransactionCategory = "tuition"
	CategoryOrder        TransactionCategory = "order"
	CategorySubscription TransactionCategory = "subscription"
	CategoryFunding      TransactionCategory = "funding"
)

// TransactionRecord is produced by the remote ledger and consumed read-only:
// for display and for rolling aggregates such as today's withdrawal total.
type TransactionRecord struct {
	ID           string              `json:"id"`
	OwnerID      string              `json:"owner_id"`
	Type         TransactionType     `json:"type"`
	AmountCents  int64               `json:"amount_cents"`
	CurrencyCode string              `json:"currency_code"`
	Status       TransactionStatus   `json:"status"`
	Category     TransactionCategory `json:"category"`
	Reference    string              `json:"reference"`
	CreatedAt    time.Time           `json:"created_at"`
}
