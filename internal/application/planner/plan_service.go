package planner

import (
	"context"
	"time"

	"github.com/tekiplanet/payflow/internal/domain"
)

// IPlanService resolves payment plans into ordered obligations and answers
// which obligation is currently payable.
type IPlanService interface {
	// ResolveFullPlan produces the single-obligation schedule for paying
	// a total outright
	ResolveFullPlan(totalCents int64) []domain.Obligation

	// ResolveInstallmentPlan splits totalCents evenly across count
	// obligations; any remainder lands on the final installment so the
	// schedule sums back to the total exactly. The first installment is
	// due 7 days after anchor, each following one a month later.
	ResolveInstallmentPlan(totalCents int64, count int, anchor time.Time) []domain.Obligation

	// NextPayable returns the lowest-sequence unpaid obligation, provided
	// every lower-sequence obligation is paid; nil when all are paid or
	// the set has a gap
	NextPayable(obligations []domain.Obligation) *domain.Obligation

	// SelectPlan supersedes any unpaid obligations for the payable item,
	// registers the new schedule remotely, and mirrors it locally.
	// Re-selecting the plan kind already in force is a no-op returning
	// the existing set. Notifications go to userID, the selecting owner.
	SelectPlan(ctx context.Context, userID, payableItemID string, kind domain.PlanKind, totalCents int64) ([]domain.Obligation, error)

	// Obligations lists the mirrored obligations for a payable item
	Obligations(ctx context.Context, payableItemID string) ([]domain.Obligation, error)
}
