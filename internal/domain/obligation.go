package domain

import (
	"encoding/json"
	"time"
)

type ObligationStatus string

const (
	ObligationStatusUnpaid     ObligationStatus = "unpaid"
	ObligationStatusPaid       ObligationStatus = "paid"
	ObligationStatusSuperseded ObligationStatus = "superseded"
)

type PlanKind string

const (
	PlanKindFull        PlanKind = "full"
	PlanKindInstallment PlanKind = "installment"
)

// Obligation is one scheduled, individually payable portion of a payable
// item's total. Obligations are totally ordered by SequenceOrder within a
// plan and must be paid in that order. They are never deleted; a plan change
// marks unpaid ones superseded and creates a fresh set.
type Obligation struct {
	ID            string           `json:"id" db:"id"`
	PayableItemID string           `json:"payable_item_id" db:"payable_item_id" binding:"required"`
	PlanKind      PlanKind         `json:"plan_kind" db:"plan_kind" binding:"required"`
	SequenceOrder int              `json:"sequence_order" db:"sequence_order" binding:"required"`
	AmountCents   int64            `json:"amount_cents" db:"amount_cents" binding:"required"`
	CurrencyCode  string           `json:"currency_code" db:"currency_code" binding:"required"`
	DueAt         *time.Time       `json:"due_at,omitempty" db:"due_at"`
	Status        ObligationStatus `json:"status" db:"status" binding:"required"`
	PaidAt        *time.Time       `json:"paid_at,omitempty" db:"paid_at"`
	TransactionID string           `json:"transaction_id,omitempty" db:"transaction_id"`
	Metadata      json.RawMessage  `json:"metadata,omitempty" db:"metadata"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// IsOverdue reports the derived overdue-unpaid display state. Paid and
// superseded obligations are never overdue, whatever their due date.
func (o *Obligation) IsOverdue(now time.Time) bool {
	return o.Status == ObligationStatusUnpaid && o.DueAt != nil && o.DueAt.Before(now)
}

// Receipt is the engine's record of one confirmed obligation payment.
type Receipt struct {
	TransactionID   string    `json:"transaction_id"`
	ObligationID    string    `json:"obligation_id"`
	PayableItemID   string    `json:"payable_item_id"`
	AmountCents     int64     `json:"amount_cents"`
	NewBalanceCents int64     `json:"new_balance_cents"`
	PaidAt          time.Time `json:"paid_at"`
}
