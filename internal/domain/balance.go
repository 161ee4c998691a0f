package domain

import (
	"time"
)

type Balance struct {
	ID             string    `json:"id" db:"id"`
	OwnerID        string    `json:"owner_id" db:"owner_id" binding:"required"`
	CurrencyCode   string    `json:"currency_code" db:"currency_code" binding:"required"`
	AvailableCents int64     `json:"available_cents" db:"available_cents"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at" binding:"required"`
}
