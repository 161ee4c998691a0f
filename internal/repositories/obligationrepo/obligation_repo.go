package obligationrepo

import (
	"context"
	"time"

	"github.com/tekiplanet/payflow/internal/domain"
)

// IObligationRepository mirrors the authoritative obligation set locally.
// Rows are only written from server-confirmed state; obligations are never
// deleted, only superseded.
type IObligationRepository interface {
	UpsertObligations(ctx context.Context, obligations []domain.Obligation) error
	ListByPayableItem(ctx context.Context, payableItemID string) ([]domain.Obligation, error)
	GetByID(ctx context.Context, obligationID string) (*domain.Obligation, error)
	MarkPaid(ctx context.Context, obligationID, transactionID string, paidAt time.Time) error
	SupersedeUnpaid(ctx context.Context, payableItemID string) (int64, error)
}
