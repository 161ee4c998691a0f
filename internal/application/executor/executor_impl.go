package executor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tekiplanet/payflow/internal/application/ledgersvc"
	"github.com/tekiplanet/payflow/internal/application/planner"
	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/internal/domain/interfaces"
	"github.com/tekiplanet/payflow/internal/domain/models"
	"github.com/tekiplanet/payflow/internal/repositories/obligationrepo"
	"github.com/tekiplanet/payflow/internal/repositories/sessionrepo"
	"github.com/tekiplanet/payflow/pkg/config"
)

type executor struct {
	ledgerSvc      ledgersvc.ILedgerService
	planSvc        planner.IPlanService
	plansClient    interfaces.PlansClient
	obligationRepo obligationrepo.IObligationRepository
	sessionRepo    sessionrepo.ISessionRepository
	sink           interfaces.NotificationSink
	submitTimeout  time.Duration
	logger         zerolog.Logger
}

func New(
	ledgerSvc ledgersvc.ILedgerService,
	planSvc planner.IPlanService,
	plansClient interfaces.PlansClient,
	obligationRepo obligationrepo.IObligationRepository,
	sessionRepo sessionrepo.ISessionRepository,
	sink interfaces.NotificationSink,
	cfg config.WorkflowConfig,
	logger zerolog.Logger,
) IExecutor {
	return &executor{
		ledgerSvc:      ledgerSvc,
		planSvc:        planSvc,
		plansClient:    plansClient,
		obligationRepo: obligationRepo,
		sessionRepo:    sessionRepo,
		sink:           sink,
		submitTimeout:  cfg.SubmitTimeout,
		logger:         logger,
	}
}

func (e *executor) PayObligation(ctx context.Context, session *domain.WorkflowSession, obligationID string, amountCents int64) (*domain.Receipt, error) {
	obligation, err := e.obligationRepo.GetByID(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	if obligation == nil {
		return nil, domain.NewValidationError("obligation_id", "unknown obligation")
	}

	// Stale-UI defense: a submitted amount that disagrees with the
	// obligation means the dashboard rendered outdated state.
	if amountCents != obligation.AmountCents {
		return nil, domain.NewValidationError("amount",
			"does not match the obligation amount, refresh and try again")
	}

	siblings, err := e.obligationRepo.ListByPayableItem(ctx, obligation.PayableItemID)
	if err != nil {
		return nil, err
	}
	next := e.planSvc.NextPayable(siblings)
	if next == nil || next.ID != obligation.ID {
		e.logger.Error().
			Str("session_id", session.SessionID).
			Str("obligation_id", obligationID).
			Int("sequence_order", obligation.SequenceOrder).
			Msg("Blocked out-of-order obligation payment attempt")
		return nil, domain.ErrSequenceViolation
	}

	affordable, balance, err := e.ledgerSvc.CanAfford(ctx, session.UserID, amountCents)
	if err != nil {
		return nil, err
	}
	if !affordable {
		e.logger.Info().
			Str("session_id", session.SessionID).
			Str("obligation_id", obligationID).
			Int64("amount_cents", amountCents).
			Int64("available_cents", balance.AvailableCents).
			Msg("Payment blocked before remote call, insufficient funds")
		return nil, domain.ErrInsufficientFunds
	}

	// One in-flight submission per session.
	claimed, err := e.sessionRepo.TryBeginSubmission(ctx, session.SessionID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, domain.ErrDuplicateSubmission
	}
	defer e.sessionRepo.EndSubmission(ctx, session.SessionID)

	submitCtx, cancel := context.WithTimeout(ctx, e.submitTimeout)
	defer cancel()

	resp, err := e.plansClient.SubmitObligationPayment(submitCtx, obligation.PayableItemID, &models.ObligationPaymentRequest{
		ObligationID: obligation.ID,
		AmountCents:  amountCents,
	})
	if err != nil {
		if domain.IsUnknownOutcome(err) {
			// The payment may have landed server-side. Unblock the
			// caller, but nothing local may be assumed until a
			// reconcile re-reads authoritative state.
			e.logger.Warn().
				Str("session_id", session.SessionID).
				Str("obligation_id", obligationID).
				Err(err).
				Msg("Payment submission outcome unknown, reconcile required before retry")
		}
		return nil, err
	}

	paidAt := time.Now()
	if resp.PaidAt != nil {
		paidAt = *resp.PaidAt
	}

	if err := e.obligationRepo.MarkPaid(ctx, obligation.ID, resp.TransactionID, paidAt); err != nil {
		// The remote payment succeeded; a mirror failure must not fail
		// the payment. The next reconcile converges the mirror.
		e.logger.Error().
			Str("obligation_id", obligation.ID).
			Err(err).
			Msg("Failed to mirror paid obligation")
	}

	newBalance := domain.Balance{
		OwnerID:        session.UserID,
		CurrencyCode:   obligation.CurrencyCode,
		AvailableCents: resp.NewBalanceCents,
		UpdatedAt:      time.Now(),
	}

	e.logger.Info().
		Str("session_id", session.SessionID).
		Str("obligation_id", obligation.ID).
		Str("transaction_id", resp.TransactionID).
		Int64("amount_cents", amountCents).
		Int64("new_balance_cents", resp.NewBalanceCents).
		Msg("Obligation paid")

	obligation.Status = domain.ObligationStatusPaid
	obligation.PaidAt = &paidAt
	obligation.TransactionID = resp.TransactionID
	e.sink.NotifyObligation(session.UserID, *obligation)
	e.sink.NotifyBalance(newBalance)

	return &domain.Receipt{
		TransactionID:   resp.TransactionID,
		ObligationID:    obligation.ID,
		PayableItemID:   obligation.PayableItemID,
		AmountCents:     amountCents,
		NewBalanceCents: resp.NewBalanceCents,
		PaidAt:          paidAt,
	}, nil
}

func (e *executor) Reconcile(ctx context.Context, userID, payableItemID, obligationID string) (*domain.Obligation, error) {
	authoritative, err := e.plansClient.FetchObligation(ctx, payableItemID, obligationID)
	if err != nil {
		return nil, err
	}

	authoritative.PayableItemID = payableItemID
	if err := e.obligationRepo.UpsertObligations(ctx, []domain.Obligation{*authoritative}); err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("obligation_id", obligationID).
		Str("status", string(authoritative.Status)).
		Msg("Obligation reconciled with authoritative state")

	e.sink.NotifyObligation(userID, *authoritative)
	return authoritative, nil
}
