package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tekiplanet/payflow/internal/application/executor"
	"github.com/tekiplanet/payflow/internal/application/ledgersvc"
	"github.com/tekiplanet/payflow/internal/application/planner"
	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/internal/domain/interfaces"
	"github.com/tekiplanet/payflow/internal/repositories/sessionrepo"
	"github.com/tekiplanet/payflow/pkg/config"
)

type workflowService struct {
	sessionRepo sessionrepo.ISessionRepository
	ledgerSvc   ledgersvc.ILedgerService
	planSvc     planner.IPlanService
	exec        executor.IExecutor
	navigator   interfaces.Navigator
	sink        interfaces.NotificationSink
	withdrawal  config.WithdrawalConfig
	logger      zerolog.Logger
}

func New(
	sessionRepo sessionrepo.ISessionRepository,
	ledgerSvc ledgersvc.ILedgerService,
	planSvc planner.IPlanService,
	exec executor.IExecutor,
	navigator interfaces.Navigator,
	sink interfaces.NotificationSink,
	withdrawal config.WithdrawalConfig,
	logger zerolog.Logger,
) IWorkflowService {
	return &workflowService{
		sessionRepo: sessionRepo,
		ledgerSvc:   ledgerSvc,
		planSvc:     planSvc,
		exec:        exec,
		navigator:   navigator,
		sink:        sink,
		withdrawal:  withdrawal,
		logger:      logger,
	}
}

func (s *workflowService) Start(ctx context.Context, userID string, flow domain.FlowKind, payableItemID string) (*domain.WorkflowSession, error) {
	steps, ok := flowSteps[flow]
	if !ok {
		return nil, domain.NewValidationError("flow", fmt.Sprintf("unknown flow %q", flow))
	}
	if flow != domain.FlowWithdrawal && payableItemID == "" {
		return nil, domain.NewValidationError("payable_item_id", "required for this flow")
	}

	now := time.Now()
	session := &domain.WorkflowSession{
		SessionID:     uuid.New().String(),
		UserID:        userID,
		Flow:          flow,
		Steps:         steps,
		Current:       steps[0],
		Inputs:        make(map[domain.Step]json.RawMessage),
		PayableItemID: payableItemID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session_id", session.SessionID).
		Str("user_id", userID).
		Str("flow", string(flow)).
		Msg("Workflow session started")

	s.sink.NotifySession(*session, "started", "")
	return session, nil
}

func (s *workflowService) Get(ctx context.Context, sessionID string) (*domain.WorkflowSession, error) {
	return s.sessionRepo.Get(ctx, sessionID)
}

func (s *workflowService) SubmitStep(ctx context.Context, sessionID string, input StepInput) (*domain.WorkflowSession, error) {
	session, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Suspended {
		return nil, domain.ErrSessionSuspended
	}

	switch session.Current {
	case domain.StepCollectingAmount:
		if err := s.validateAmount(ctx, session, input.AmountCents); err != nil {
			return nil, err
		}
		// A changed amount invalidates a previously selected target; it
		// must be re-validated on the way forward.
		if session.TargetRef != "" && session.TargetSetFor != input.AmountCents {
			session.TargetRef = ""
		}
		session.AmountCents = input.AmountCents

	case domain.StepSelectingTarget:
		if err := s.applyTarget(ctx, session, input); err != nil {
			return nil, err
		}

	case domain.StepConfirming:
		return nil, domain.NewValidationError("step", "use confirm to execute the payment")

	default:
		return nil, domain.ErrSessionClosed
	}

	raw, _ := json.Marshal(input)
	session.Inputs[session.Current] = raw

	idx := session.StepIndex(session.Current)
	session.Current = session.Steps[idx+1]
	session.UpdatedAt = time.Now()

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session_id", session.SessionID).
		Str("step", string(session.Current)).
		Msg("Workflow session advanced")

	return session, nil
}

func (s *workflowService) Back(ctx context.Context, sessionID string) (*domain.WorkflowSession, error) {
	session, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Going back cannot fail and discards nothing; previously entered
	// values stay in Inputs for when the user returns forward.
	idx := session.StepIndex(session.Current)
	if idx > 0 {
		session.Current = session.Steps[idx-1]
		session.UpdatedAt = time.Now()
		if err := s.sessionRepo.Save(ctx, session); err != nil {
			return nil, err
		}
	}

	return session, nil
}

func (s *workflowService) Confirm(ctx context.Context, sessionID string) (*ConfirmResult, error) {
	session, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Suspended {
		return nil, domain.ErrSessionSuspended
	}
	if session.Current != domain.StepConfirming {
		return nil, domain.NewValidationError("step",
			fmt.Sprintf("session is at %s, not ready to confirm", session.Current))
	}

	if session.StateStale {
		if result, done, err := s.reconcileStale(ctx, session); done {
			return result, err
		}
	}

	epoch := session.Epoch

	var receipt *domain.Receipt
	var execErr error
	if session.Flow == domain.FlowWithdrawal {
		receipt, execErr = s.executeWithdrawal(ctx, session)
	} else {
		receipt, execErr = s.exec.PayObligation(ctx, session, session.ObligationID, session.AmountCents)
	}

	// The session may have been cancelled or suspended while the remote
	// call was in flight; a stale continuation must not be applied.
	current, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.logger.Warn().
				Str("session_id", sessionID).
				Msg("Discarding payment response for an abandoned session")
			return nil, domain.ErrSessionClosed
		}
		return nil, err
	}
	if current.Epoch != epoch {
		s.logger.Warn().
			Str("session_id", sessionID).
			Int64("epoch", epoch).
			Int64("current_epoch", current.Epoch).
			Msg("Discarding payment response for a superseded session epoch")
		return nil, domain.ErrSessionClosed
	}
	session = current

	if execErr != nil {
		return s.handleConfirmFailure(ctx, session, execErr)
	}

	// Terminal success destroys the session; re-invoking the flow later
	// starts from scratch.
	if err := s.sessionRepo.Delete(ctx, session.SessionID); err != nil {
		s.logger.Err(err).Str("session_id", session.SessionID).Msg("Failed to delete completed session")
	}
	session.Current = domain.StepTerminalSuccess
	session.UpdatedAt = time.Now()

	s.sink.NotifySession(*session, "completed", "")

	return &ConfirmResult{
		Session: *session,
		Receipt: receipt,
	}, nil
}

func (s *workflowService) Resume(ctx context.Context, sessionID string) (*ConfirmResult, error) {
	session, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Suspended {
		return nil, domain.NewValidationError("session", "is not suspended")
	}

	// Funding happened (or didn't) externally; affordability must be
	// proven again before forward progress resumes.
	affordable, balance, err := s.ledgerSvc.CanAfford(ctx, session.UserID, session.AmountCents)
	if err != nil {
		return nil, err
	}
	if !affordable {
		return &ConfirmResult{
			Session: *session,
			Detour:  s.buildDetour(session, balance.AvailableCents),
		}, nil
	}

	session.Suspended = false
	session.Epoch++
	session.UpdatedAt = time.Now()
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session_id", session.SessionID).
		Int64("available_cents", balance.AvailableCents).
		Msg("Workflow session resumed after funding detour")

	s.sink.NotifySession(*session, "resumed", "")
	return &ConfirmResult{Session: *session}, nil
}

func (s *workflowService) Cancel(ctx context.Context, sessionID string) error {
	session, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return err
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("step", string(session.Current)).
		Msg("Workflow session cancelled")

	s.sink.NotifySession(*session, "cancelled", "")
	return nil
}

func (s *workflowService) validateAmount(ctx context.Context, session *domain.WorkflowSession, amountCents int64) error {
	if amountCents <= 0 {
		return domain.NewValidationError("amount", "must be positive")
	}

	if session.Flow != domain.FlowWithdrawal {
		return nil
	}

	// Withdrawal bounds are externally owned configuration; zero means
	// unbounded.
	if s.withdrawal.MinAmountCents > 0 && amountCents < s.withdrawal.MinAmountCents {
		return domain.NewValidationError("amount", "below the minimum withdrawal amount")
	}
	if s.withdrawal.MaxAmountCents > 0 && amountCents > s.withdrawal.MaxAmountCents {
		return domain.NewValidationError("amount", "above the maximum withdrawal amount")
	}
	if s.withdrawal.DailyLimitCents > 0 {
		todayTotal, err := s.ledgerSvc.TodayWithdrawalTotal(ctx, session.UserID)
		if err != nil {
			return err
		}
		if todayTotal+amountCents > s.withdrawal.DailyLimitCents {
			return domain.NewValidationError("amount", "exceeds the daily withdrawal limit")
		}
	}

	return nil
}

func (s *workflowService) applyTarget(ctx context.Context, session *domain.WorkflowSession, input StepInput) error {
	if session.Flow == domain.FlowWithdrawal {
		if input.TargetRef == "" {
			return domain.NewValidationError("target_ref", "a verified bank account is required")
		}
		session.TargetRef = input.TargetRef
		session.TargetSetFor = session.AmountCents
		return nil
	}

	obligations, err := s.planSvc.Obligations(ctx, session.PayableItemID)
	if err != nil {
		return err
	}
	next := s.planSvc.NextPayable(obligations)
	if next == nil {
		return domain.NewValidationError("payable_item_id", "has no payable obligation")
	}
	if input.ObligationID != "" && input.ObligationID != next.ID {
		return domain.ErrSequenceViolation
	}

	session.ObligationID = next.ID
	session.TargetRef = input.TargetRef
	session.AmountCents = next.AmountCents
	session.TargetSetFor = next.AmountCents
	return nil
}

func (s *workflowService) executeWithdrawal(ctx context.Context, session *domain.WorkflowSession) (*domain.Receipt, error) {
	claimed, err := s.sessionRepo.TryBeginSubmission(ctx, session.SessionID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, domain.ErrDuplicateSubmission
	}
	defer s.sessionRepo.EndSubmission(ctx, session.SessionID)

	reason := fmt.Sprintf("withdrawal:%s", session.TargetRef)
	result, err := s.ledgerSvc.Debit(ctx, session.UserID, session.AmountCents, reason)
	if err != nil {
		return nil, err
	}

	return &domain.Receipt{
		TransactionID:   result.TransactionID,
		AmountCents:     session.AmountCents,
		NewBalanceCents: result.NewBalance.AvailableCents,
		PaidAt:          time.Now(),
	}, nil
}

func (s *workflowService) handleConfirmFailure(ctx context.Context, session *domain.WorkflowSession, execErr error) (*ConfirmResult, error) {
	switch {
	case errors.Is(execErr, domain.ErrInsufficientFunds):
		// The funding detour suspends the session; it resumes once
		// affordability is proven again.
		balance, err := s.ledgerSvc.GetAvailableBalance(ctx, session.UserID)
		available := int64(0)
		if err == nil {
			available = balance.AvailableCents
		}

		session.Suspended = true
		session.Epoch++
		session.UpdatedAt = time.Now()
		if err := s.sessionRepo.Save(ctx, session); err != nil {
			return nil, err
		}

		s.logger.Info().
			Str("session_id", session.SessionID).
			Int64("required_cents", session.AmountCents).
			Int64("available_cents", available).
			Msg("Workflow session suspended into funding detour")

		s.sink.NotifySession(*session, "suspended", "insufficient funds")
		return &ConfirmResult{
			Session: *session,
			Detour:  s.buildDetour(session, available),
		}, nil

	case errors.Is(execErr, domain.ErrDuplicateSubmission):
		return nil, execErr

	case domain.IsUnknownOutcome(execErr):
		// Unknown outcome: stay at confirming, but force a reconcile
		// before the next attempt.
		session.StateStale = true
		session.UpdatedAt = time.Now()
		if err := s.sessionRepo.Save(ctx, session); err != nil {
			return nil, err
		}
		s.sink.NotifySession(*session, "pending", "payment status unknown, re-checking")
		return &ConfirmResult{
			Session:        *session,
			FailureMessage: "We could not confirm your payment status yet. Please retry in a moment.",
		}, nil

	default:
		var re *domain.RemoteError
		if errors.As(execErr, &re) {
			// Server-declared rejection: surface the reason verbatim
			// and keep the session re-enterable at confirming.
			session.UpdatedAt = time.Now()
			if err := s.sessionRepo.Save(ctx, session); err != nil {
				return nil, err
			}
			s.sink.NotifySession(*session, "failed", re.UserMessage())
			return &ConfirmResult{
				Session:        *session,
				FailureMessage: re.UserMessage(),
			}, nil
		}
		return nil, execErr
	}
}

// reconcileStale resolves an earlier unknown-outcome submission. When the
// payment turns out to have landed, the session completes without another
// debit; otherwise the stale flag clears and the confirm proceeds.
func (s *workflowService) reconcileStale(ctx context.Context, session *domain.WorkflowSession) (*ConfirmResult, bool, error) {
	if session.Flow == domain.FlowWithdrawal || session.ObligationID == "" {
		session.StateStale = false
		return nil, false, nil
	}

	obligation, err := s.exec.Reconcile(ctx, session.UserID, session.PayableItemID, session.ObligationID)
	if err != nil {
		return nil, true, err
	}

	if obligation.Status == domain.ObligationStatusPaid {
		if err := s.sessionRepo.Delete(ctx, session.SessionID); err != nil {
			s.logger.Err(err).Str("session_id", session.SessionID).Msg("Failed to delete completed session")
		}
		session.Current = domain.StepTerminalSuccess
		session.UpdatedAt = time.Now()
		s.sink.NotifySession(*session, "completed", "payment confirmed after reconciliation")

		paidAt := time.Now()
		if obligation.PaidAt != nil {
			paidAt = *obligation.PaidAt
		}
		var newBalance int64
		if balance, berr := s.ledgerSvc.GetAvailableBalance(ctx, session.UserID); berr == nil {
			newBalance = balance.AvailableCents
		}

		return &ConfirmResult{
			Session: *session,
			Receipt: &domain.Receipt{
				TransactionID:   obligation.TransactionID,
				ObligationID:    obligation.ID,
				PayableItemID:   obligation.PayableItemID,
				AmountCents:     obligation.AmountCents,
				NewBalanceCents: newBalance,
				PaidAt:          paidAt,
			},
		}, true, nil
	}

	session.StateStale = false
	session.UpdatedAt = time.Now()
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, true, err
	}
	return nil, false, nil
}

func (s *workflowService) buildDetour(session *domain.WorkflowSession, availableCents int64) *domain.FundingDetour {
	shortfall := session.AmountCents - availableCents
	if shortfall < 0 {
		shortfall = 0
	}
	return &domain.FundingDetour{
		AvailableCents: availableCents,
		RequiredCents:  session.AmountCents,
		ShortfallCents: shortfall,
		FundingURL:     s.navigator.FundingURL(session.UserID),
	}
}
