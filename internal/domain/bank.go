package domain

import (
	"time"
)

// BankAccount is a verified withdrawal target. Verification resolves the
// account name from the remote registry before the account may be added.
type BankAccount struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	AccountNumber string    `json:"account_number" binding:"required"`
	BankCode      string    `json:"bank_code" binding:"required"`
	BankName      string    `json:"bank_name"`
	AccountName   string    `json:"account_name"`
	Verified      bool      `json:"verified"`
	CreatedAt     time.Time `json:"created_at"`
}
