package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/internal/domain/interfaces"
	"github.com/tekiplanet/payflow/internal/domain/models"
	"github.com/tekiplanet/payflow/internal/repositories/obligationrepo"
	"github.com/tekiplanet/payflow/pkg/currency"
)

const firstInstallmentOffset = 7 * 24 * time.Hour

type planService struct {
	obligationRepo obligationrepo.IObligationRepository
	plansClient    interfaces.PlansClient
	sink           interfaces.NotificationSink
	currencyCode   string
	currencyUtils  *currency.CurrencyUtils
	logger         zerolog.Logger
}

func New(
	obligationRepo obligationrepo.IObligationRepository,
	plansClient interfaces.PlansClient,
	sink interfaces.NotificationSink,
	currencyCode string,
	logger zerolog.Logger,
) IPlanService {
	return &planService{
		obligationRepo: obligationRepo,
		plansClient:    plansClient,
		sink:           sink,
		currencyCode:   currencyCode,
		currencyUtils:  currency.NewCurrencyUtils(),
		logger:         logger,
	}
}

func (s *planService) ResolveFullPlan(totalCents int64) []domain.Obligation {
	return []domain.Obligation{
		{
			PlanKind:      domain.PlanKindFull,
			SequenceOrder: 1,
			AmountCents:   totalCents,
			CurrencyCode:  s.currencyCode,
			Status:        domain.ObligationStatusUnpaid,
		},
	}
}

func (s *planService) ResolveInstallmentPlan(totalCents int64, count int, anchor time.Time) []domain.Obligation {
	if count < 2 {
		count = 2
	}

	parts := s.currencyUtils.SplitEven(totalCents, count)

	obligations := make([]domain.Obligation, count)
	for i, amount := range parts {
		// First installment due a week out, each later one a month per
		// sequence position from the anchor.
		due := anchor.Add(firstInstallmentOffset)
		if i > 0 {
			due = anchor.AddDate(0, i, 0)
		}
		obligations[i] = domain.Obligation{
			PlanKind:      domain.PlanKindInstallment,
			SequenceOrder: i + 1,
			AmountCents:   amount,
			CurrencyCode:  s.currencyCode,
			DueAt:         &due,
			Status:        domain.ObligationStatusUnpaid,
		}
	}

	return obligations
}

func (s *planService) NextPayable(obligations []domain.Obligation) *domain.Obligation {
	active := activeObligations(obligations)

	for i, o := range active {
		switch o.Status {
		case domain.ObligationStatusPaid:
			continue
		case domain.ObligationStatusUnpaid:
			// Sequence orders must be contiguous from 1; a gap means the
			// mirror is inconsistent and nothing is safely payable.
			if o.SequenceOrder != i+1 {
				s.logger.Error().
					Str("obligation_id", o.ID).
					Int("sequence_order", o.SequenceOrder).
					Int("expected", i+1).
					Msg("Obligation sequence gap detected")
				return nil
			}
			result := o
			return &result
		}
	}

	return nil
}

func (s *planService) SelectPlan(ctx context.Context, userID, payableItemID string, kind domain.PlanKind, totalCents int64) ([]domain.Obligation, error) {
	if totalCents <= 0 {
		return nil, domain.NewValidationError("total", "must be positive")
	}

	existing, err := s.obligationRepo.ListByPayableItem(ctx, payableItemID)
	if err != nil {
		return nil, err
	}

	active := activeObligations(existing)
	if len(active) > 0 {
		if active[0].PlanKind == kind {
			// Same plan already in force; never duplicate obligations.
			return active, nil
		}

		for _, o := range active {
			if o.Status == domain.ObligationStatusPaid {
				return nil, domain.NewValidationError("plan",
					"cannot change plan after a payment has been made")
			}
		}

		superseded, err := s.obligationRepo.SupersedeUnpaid(ctx, payableItemID)
		if err != nil {
			return nil, err
		}
		s.logger.Info().
			Str("payable_item_id", payableItemID).
			Int64("superseded", superseded).
			Str("new_plan", string(kind)).
			Msg("Superseded unpaid obligations for plan change")
	}

	var schedule []domain.Obligation
	switch kind {
	case domain.PlanKindFull:
		schedule = s.ResolveFullPlan(totalCents)
	case domain.PlanKindInstallment:
		schedule = s.ResolveInstallmentPlan(totalCents, 2, time.Now())
	default:
		return nil, domain.NewValidationError("plan_kind", fmt.Sprintf("unknown plan kind %q", kind))
	}

	entries := make([]models.ObligationEntry, len(schedule))
	for i, o := range schedule {
		entries[i] = models.ObligationEntry{
			SequenceOrder: o.SequenceOrder,
			AmountCents:   o.AmountCents,
			DueAt:         o.DueAt,
		}
	}

	created, err := s.plansClient.CreateObligations(ctx, &models.CreateObligationsRequest{
		PayableItemID: payableItemID,
		PlanKind:      kind,
		TotalCents:    totalCents,
		CurrencyCode:  s.currencyCode,
		Schedule:      entries,
	})
	if err != nil {
		return nil, err
	}

	// Mirror the authoritative set, not the locally resolved one.
	for i := range created {
		created[i].PayableItemID = payableItemID
	}
	if err := s.obligationRepo.UpsertObligations(ctx, created); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("payable_item_id", payableItemID).
		Str("plan_kind", string(kind)).
		Int("obligations", len(created)).
		Int64("total_cents", totalCents).
		Msg("Payment plan selected")

	for _, o := range created {
		s.sink.NotifyObligation(userID, o)
	}

	return created, nil
}

func (s *planService) Obligations(ctx context.Context, payableItemID string) ([]domain.Obligation, error) {
	return s.obligationRepo.ListByPayableItem(ctx, payableItemID)
}

// activeObligations filters out superseded entries, preserving order.
func activeObligations(obligations []domain.Obligation) []domain.Obligation {
	var active []domain.Obligation
	for _, o := range obligations {
		if o.Status != domain.ObligationStatusSuperseded {
			active = append(active, o)
		}
	}
	return active
}
