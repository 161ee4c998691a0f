package domain

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

type Claim struct {
	UserID        uuid.UUID `json:"user_id"`
	IsVerified    bool      `json:"is_verified"`
	EmailVerified bool      `json:"email_verified"`
	jwt.StandardClaims
}
