package authservice

import (
	"context"

	"github.com/tekiplanet/payflow/internal/domain"
)

type IAuthService interface {
	VerifyToken(ctx context.Context, tokenString string) (*domain.Claim, error)
}
