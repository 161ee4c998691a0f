package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tekiplanet/payflow/internal/application/executor"
	"github.com/tekiplanet/payflow/internal/application/ledgersvc"
	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/internal/repositories/sessionrepo"
	"github.com/tekiplanet/payflow/pkg/config"
)

type flowHarness struct {
	svc         IWorkflowService
	sessionRepo sessionrepo.ISessionRepository
	ledger      *fakeLedgerSvc
	plans       *fakePlanSvc
	exec        *fakeExecutor
	sink        *fakeSink
}

func newFlowHarness(t *testing.T, availableCents int64) *flowHarness {
	t.Helper()

	sessionRepo := sessionrepo.NewMemory()
	ledger := &fakeLedgerSvc{availableCents: availableCents}
	plans := &fakePlanSvc{}
	exec := &fakeExecutor{}
	sink := &fakeSink{}

	withdrawal := config.WithdrawalConfig{
		MinAmountCents:  1000,
		MaxAmountCents:  1000000,
		DailyLimitCents: 2000000,
	}

	svc := New(sessionRepo, ledger, plans, exec, &fakeNavigator{}, sink, withdrawal, zerolog.Nop())

	return &flowHarness{
		svc:         svc,
		sessionRepo: sessionRepo,
		ledger:      ledger,
		plans:       plans,
		exec:        exec,
		sink:        sink,
	}
}

func (h *flowHarness) startWithdrawal(t *testing.T) *domain.WorkflowSession {
	t.Helper()
	session, err := h.svc.Start(context.Background(), "user-1", domain.FlowWithdrawal, "")
	require.NoError(t, err)
	return session
}

// atConfirming drives a withdrawal session to the confirming step.
func (h *flowHarness) atConfirming(t *testing.T, amountCents int64) *domain.WorkflowSession {
	t.Helper()
	session := h.startWithdrawal(t)

	session, err := h.svc.SubmitStep(context.Background(), session.SessionID, StepInput{AmountCents: amountCents})
	require.NoError(t, err)

	session, err = h.svc.SubmitStep(context.Background(), session.SessionID, StepInput{TargetRef: "bank-acct-1"})
	require.NoError(t, err)
	require.Equal(t, domain.StepConfirming, session.Current)
	return session
}

func TestStartWithdrawalFlow(t *testing.T) {
	h := newFlowHarness(t, 100000)

	session := h.startWithdrawal(t)
	assert.Equal(t, domain.StepCollectingAmount, session.Current)
	assert.Equal(t, []domain.Step{
		domain.StepCollectingAmount,
		domain.StepSelectingTarget,
		domain.StepConfirming,
	}, session.Steps)
}

func TestStartPlanFlowRequiresPayableItem(t *testing.T) {
	h := newFlowHarness(t, 100000)

	_, err := h.svc.Start(context.Background(), "user-1", domain.FlowTuition, "")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)

	session, err := h.svc.Start(context.Background(), "user-1", domain.FlowTuition, "item-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepSelectingTarget, session.Current)
}

func TestStartRejectsUnknownFlow(t *testing.T) {
	h := newFlowHarness(t, 100000)

	_, err := h.svc.Start(context.Background(), "user-1", domain.FlowKind("loan"), "")
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestSubmitStepRejectsNonPositiveAmount(t *testing.T) {
	h := newFlowHarness(t, 100000)
	session := h.startWithdrawal(t)

	_, err := h.svc.SubmitStep(context.Background(), session.SessionID, StepInput{AmountCents: 0})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestSubmitStepEnforcesWithdrawalBounds(t *testing.T) {
	h := newFlowHarness(t, 100000000)
	session := h.startWithdrawal(t)

	_, err := h.svc.SubmitStep(context.Background(), session.SessionID, StepInput{AmountCents: 999})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = h.svc.SubmitStep(context.Background(), session.SessionID, StepInput{AmountCents: 1000001})
	require.ErrorAs(t, err, &ve)
}

func TestSubmitStepEnforcesDailyWithdrawalLimit(t *testing.T) {
	h := newFlowHarness(t, 100000000)
	h.ledger.todayWithdrawnCents = 1950000

	session := h.startWithdrawal(t)

	_, err := h.svc.SubmitStep(context.Background(), session.SessionID, StepInput{AmountCents: 60000})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)

	// Exactly reaching the limit is allowed.
	_, err = h.svc.SubmitStep(context.Background(), session.SessionID, StepInput{AmountCents: 50000})
	assert.NoError(t, err)
}

func TestSubmitStepAdvancesThroughFlow(t *testing.T) {
	h := newFlowHarness(t, 100000)
	session := h.atConfirming(t, 50000)

	assert.Equal(t, int64(50000), session.AmountCents)
	assert.Equal(t, "bank-acct-1", session.TargetRef)
}

func TestBackPreservesInputs(t *testing.T) {
	h := newFlowHarness(t, 100000)
	session := h.atConfirming(t, 50000)

	session, err := h.svc.Back(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepSelectingTarget, session.Current)
	assert.Equal(t, int64(50000), session.AmountCents)
	assert.Equal(t, "bank-acct-1", session.TargetRef)
	assert.NotEmpty(t, session.Inputs[domain.StepCollectingAmount])

	// Back at the first step is a no-op, never an error.
	session, err = h.svc.Back(context.Background(), session.SessionID)
	require.NoError(t, err)
	session, err = h.svc.Back(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepCollectingAmount, session.Current)
}

func TestAmountChangeInvalidatesSelectedTarget(t *testing.T) {
	h := newFlowHarness(t, 100000)
	session := h.atConfirming(t, 50000)

	// Walk back to the amount step and change the amount.
	var err error
	session, err = h.svc.Back(context.Background(), session.SessionID)
	require.NoError(t, err)
	session, err = h.svc.Back(context.Background(), session.SessionID)
	require.NoError(t, err)

	session, err = h.svc.SubmitStep(context.Background(), session.SessionID, StepInput{AmountCents: 60000})
	require.NoError(t, err)
	assert.Empty(t, session.TargetRef)

	// An unchanged amount keeps the target.
	session = h.atConfirming(t, 50000)
	session, err = h.svc.Back(context.Background(), session.SessionID)
	require.NoError(t, err)
	session, err = h.svc.Back(context.Background(), session.SessionID)
	require.NoError(t, err)
	session, err = h.svc.SubmitStep(context.Background(), session.SessionID, StepInput{AmountCents: 50000})
	require.NoError(t, err)
	assert.Equal(t, "bank-acct-1", session.TargetRef)
}

func TestPlanFlowTargetStepResolvesNextObligation(t *testing.T) {
	h := newFlowHarness(t, 100000)
	h.plans.obligations = []domain.Obligation{
		{ID: "ob-1", PayableItemID: "item-1", SequenceOrder: 1, AmountCents: 50000, Status: domain.ObligationStatusPaid},
		{ID: "ob-2", PayableItemID: "item-1", SequenceOrder: 2, AmountCents: 50001, Status: domain.ObligationStatusUnpaid},
	}

	session, err := h.svc.Start(context.Background(), "user-1", domain.FlowTuition, "item-1")
	require.NoError(t, err)

	session, err = h.svc.SubmitStep(context.Background(), session.SessionID, StepInput{})
	require.NoError(t, err)
	assert.Equal(t, "ob-2", session.ObligationID)
	assert.Equal(t, int64(50001), session.AmountCents)
	assert.Equal(t, domain.StepConfirming, session.Current)
}

func TestPlanFlowRejectsOutOfOrderObligation(t *testing.T) {
	h := newFlowHarness(t, 100000)
	h.plans.obligations = []domain.Obligation{
		{ID: "ob-1", PayableItemID: "item-1", SequenceOrder: 1, AmountCents: 50000, Status: domain.ObligationStatusUnpaid},
		{ID: "ob-2", PayableItemID: "item-1", SequenceOrder: 2, AmountCents: 50000, Status: domain.ObligationStatusUnpaid},
	}

	session, err := h.svc.Start(context.Background(), "user-1", domain.FlowTuition, "item-1")
	require.NoError(t, err)

	_, err = h.svc.SubmitStep(context.Background(), session.SessionID, StepInput{ObligationID: "ob-2"})
	assert.ErrorIs(t, err, domain.ErrSequenceViolation)
}

func TestConfirmRequiresConfirmingStep(t *testing.T) {
	h := newFlowHarness(t, 100000)
	session := h.startWithdrawal(t)

	_, err := h.svc.Confirm(context.Background(), session.SessionID)
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestConfirmWithdrawalSuccessDestroysSession(t *testing.T) {
	h := newFlowHarness(t, 100000)
	session := h.atConfirming(t, 50000)

	result, err := h.svc.Confirm(context.Background(), session.SessionID)
	require.NoError(t, err)
	require.NotNil(t, result.Receipt)
	assert.Equal(t, domain.StepTerminalSuccess, result.Session.Current)
	assert.Equal(t, int64(50000), result.Receipt.AmountCents)
	assert.Equal(t, int64(50000), result.Receipt.NewBalanceCents)

	_, err = h.svc.Get(context.Background(), session.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestConfirmInsufficientFundsSuspendsIntoDetour(t *testing.T) {
	h := newFlowHarness(t, 100000)
	session := h.atConfirming(t, 50000)

	// The balance dropped out-of-band after the amount was validated.
	h.ledger.availableCents = 20000

	result, err := h.svc.Confirm(context.Background(), session.SessionID)
	require.NoError(t, err)
	require.NotNil(t, result.Detour)
	assert.Nil(t, result.Receipt)
	assert.True(t, result.Session.Suspended)
	assert.Equal(t, int64(20000), result.Detour.AvailableCents)
	assert.Equal(t, int64(50000), result.Detour.RequiredCents)
	assert.Equal(t, int64(30000), result.Detour.ShortfallCents)
	assert.Equal(t, "https://funding.example/topup?user_id=user-1", result.Detour.FundingURL)

	// A suspended session refuses forward moves and confirms.
	_, err = h.svc.SubmitStep(context.Background(), session.SessionID, StepInput{AmountCents: 10000})
	assert.ErrorIs(t, err, domain.ErrSessionSuspended)
	_, err = h.svc.Confirm(context.Background(), session.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionSuspended)
}

func TestResumeStillUnderfundedStaysSuspended(t *testing.T) {
	h := newFlowHarness(t, 100000)
	session := h.atConfirming(t, 50000)

	h.ledger.availableCents = 20000
	_, err := h.svc.Confirm(context.Background(), session.SessionID)
	require.NoError(t, err)

	result, err := h.svc.Resume(context.Background(), session.SessionID)
	require.NoError(t, err)
	require.NotNil(t, result.Detour)
	assert.True(t, result.Session.Suspended)
}

func TestResumeAfterFundingLiftsSuspension(t *testing.T) {
	h := newFlowHarness(t, 100000)
	session := h.atConfirming(t, 50000)

	h.ledger.availableCents = 20000
	suspended, err := h.svc.Confirm(context.Background(), session.SessionID)
	require.NoError(t, err)
	suspendedEpoch := suspended.Session.Epoch

	h.ledger.availableCents = 80000
	result, err := h.svc.Resume(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Nil(t, result.Detour)
	assert.False(t, result.Session.Suspended)
	assert.Equal(t, domain.StepConfirming, result.Session.Current)
	assert.Greater(t, result.Session.Epoch, suspendedEpoch)

	// The resumed session confirms normally.
	confirmed, err := h.svc.Confirm(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.NotNil(t, confirmed.Receipt)
}

func TestResumeRejectsNonSuspendedSession(t *testing.T) {
	h := newFlowHarness(t, 100000)
	session := h.atConfirming(t, 50000)

	_, err := h.svc.Resume(context.Background(), session.SessionID)
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestConfirmRemoteRejectionSurfacesVerbatimMessage(t *testing.T) {
	h := newFlowHarness(t, 100000)
	h.plans.obligations = []domain.Obligation{
		{ID: "ob-1", PayableItemID: "item-1", SequenceOrder: 1, AmountCents: 50000, Status: domain.ObligationStatusUnpaid},
	}
	h.exec.payErr = domain.NewRemoteRejected("declined", "Card issuer declined the charge")

	session, err := h.svc.Start(context.Background(), "user-1", domain.FlowCheckout, "item-1")
	require.NoError(t, err)
	session, err = h.svc.SubmitStep(context.Background(), session.SessionID, StepInput{})
	require.NoError(t, err)

	result, err := h.svc.Confirm(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Card issuer declined the charge", result.FailureMessage)
	assert.Nil(t, result.Receipt)

	// The session stays re-enterable at confirming.
	live, err := h.svc.Get(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepConfirming, live.Current)
	assert.False(t, live.Suspended)
}

func TestConfirmUnknownOutcomeMarksStateStale(t *testing.T) {
	h := newFlowHarness(t, 100000)
	h.plans.obligations = []domain.Obligation{
		{ID: "ob-1", PayableItemID: "item-1", SequenceOrder: 1, AmountCents: 50000, Status: domain.ObligationStatusUnpaid},
	}
	h.exec.payErr = domain.NewRemoteUnavailable("request timed out")

	session, err := h.svc.Start(context.Background(), "user-1", domain.FlowTuition, "item-1")
	require.NoError(t, err)
	session, err = h.svc.SubmitStep(context.Background(), session.SessionID, StepInput{})
	require.NoError(t, err)

	result, err := h.svc.Confirm(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.NotEmpty(t, result.FailureMessage)
	assert.True(t, result.Session.StateStale)
}

func TestConfirmAfterUnknownOutcomeReconcilesFirst(t *testing.T) {
	h := newFlowHarness(t, 100000)
	h.plans.obligations = []domain.Obligation{
		{ID: "ob-1", PayableItemID: "item-1", SequenceOrder: 1, AmountCents: 50000, Status: domain.ObligationStatusUnpaid},
	}
	h.exec.payErr = domain.NewRemoteUnavailable("request timed out")

	session, err := h.svc.Start(context.Background(), "user-1", domain.FlowTuition, "item-1")
	require.NoError(t, err)
	session, err = h.svc.SubmitStep(context.Background(), session.SessionID, StepInput{})
	require.NoError(t, err)

	_, err = h.svc.Confirm(context.Background(), session.SessionID)
	require.NoError(t, err)

	// The timed-out payment actually landed; the retry must not pay again.
	h.exec.reconciled = &domain.Obligation{
		ID:            "ob-1",
		PayableItemID: "item-1",
		SequenceOrder: 1,
		AmountCents:   50000,
		Status:        domain.ObligationStatusPaid,
		TransactionID: "tx-landed",
	}
	payCallsBefore := h.exec.payCalls

	result, err := h.svc.Confirm(context.Background(), session.SessionID)
	require.NoError(t, err)
	require.NotNil(t, result.Receipt)
	assert.Equal(t, "tx-landed", result.Receipt.TransactionID)
	assert.Equal(t, domain.StepTerminalSuccess, result.Session.Current)
	assert.Equal(t, payCallsBefore, h.exec.payCalls)

	_, err = h.svc.Get(context.Background(), session.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestConfirmAfterUnknownOutcomeClearsStaleWhenUnpaid(t *testing.T) {
	h := newFlowHarness(t, 100000)
	h.plans.obligations = []domain.Obligation{
		{ID: "ob-1", PayableItemID: "item-1", SequenceOrder: 1, AmountCents: 50000, Status: domain.ObligationStatusUnpaid},
	}
	h.exec.payErr = domain.NewRemoteUnavailable("request timed out")

	session, err := h.svc.Start(context.Background(), "user-1", domain.FlowTuition, "item-1")
	require.NoError(t, err)
	session, err = h.svc.SubmitStep(context.Background(), session.SessionID, StepInput{})
	require.NoError(t, err)

	_, err = h.svc.Confirm(context.Background(), session.SessionID)
	require.NoError(t, err)

	// The payment never landed; the retry goes through normally.
	h.exec.payErr = nil
	h.exec.reconciled = &domain.Obligation{
		ID:            "ob-1",
		PayableItemID: "item-1",
		SequenceOrder: 1,
		AmountCents:   50000,
		Status:        domain.ObligationStatusUnpaid,
	}

	result, err := h.svc.Confirm(context.Background(), session.SessionID)
	require.NoError(t, err)
	require.NotNil(t, result.Receipt)
	assert.False(t, result.Session.StateStale)
	assert.Equal(t, domain.StepTerminalSuccess, result.Session.Current)
}

func TestCancelDeletesSession(t *testing.T) {
	h := newFlowHarness(t, 100000)
	session := h.atConfirming(t, 50000)

	require.NoError(t, h.svc.Cancel(context.Background(), session.SessionID))

	_, err := h.svc.Get(context.Background(), session.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Cancelling an already-gone session is not an error.
	assert.NoError(t, h.svc.Cancel(context.Background(), session.SessionID))
}

type fakeLedgerSvc struct {
	availableCents      int64
	todayWithdrawnCents int64
	debitErr            error
}

func (f *fakeLedgerSvc) GetAvailableBalance(ctx context.Context, ownerID string) (*domain.Balance, error) {
	return &domain.Balance{OwnerID: ownerID, CurrencyCode: "NGN", AvailableCents: f.availableCents}, nil
}

func (f *fakeLedgerSvc) CanAfford(ctx context.Context, ownerID string, amountCents int64) (bool, *domain.Balance, error) {
	balance, _ := f.GetAvailableBalance(ctx, ownerID)
	return amountCents <= f.availableCents, balance, nil
}

func (f *fakeLedgerSvc) Debit(ctx context.Context, ownerID string, amountCents int64, reason string) (*ledgersvc.DebitResult, error) {
	if f.debitErr != nil {
		return nil, f.debitErr
	}
	if amountCents > f.availableCents {
		return nil, domain.ErrInsufficientFunds
	}
	f.availableCents -= amountCents
	return &ledgersvc.DebitResult{
		TransactionID: "tx-w",
		NewBalance:    domain.Balance{OwnerID: ownerID, CurrencyCode: "NGN", AvailableCents: f.availableCents},
	}, nil
}

func (f *fakeLedgerSvc) TodayWithdrawalTotal(ctx context.Context, ownerID string) (int64, error) {
	return f.todayWithdrawnCents, nil
}

type fakePlanSvc struct {
	obligations []domain.Obligation
}

func (f *fakePlanSvc) ResolveFullPlan(totalCents int64) []domain.Obligation { return nil }

func (f *fakePlanSvc) ResolveInstallmentPlan(totalCents int64, count int, anchor time.Time) []domain.Obligation {
	return nil
}

func (f *fakePlanSvc) NextPayable(obligations []domain.Obligation) *domain.Obligation {
	for _, o := range obligations {
		if o.Status == domain.ObligationStatusUnpaid {
			found := o
			return &found
		}
	}
	return nil
}

func (f *fakePlanSvc) SelectPlan(ctx context.Context, userID, payableItemID string, kind domain.PlanKind, totalCents int64) ([]domain.Obligation, error) {
	return nil, nil
}

func (f *fakePlanSvc) Obligations(ctx context.Context, payableItemID string) ([]domain.Obligation, error) {
	return f.obligations, nil
}

type fakeExecutor struct {
	payCalls   int
	payErr     error
	reconciled *domain.Obligation
}

func (f *fakeExecutor) PayObligation(ctx context.Context, session *domain.WorkflowSession, obligationID string, amountCents int64) (*domain.Receipt, error) {
	f.payCalls++
	if f.payErr != nil {
		return nil, f.payErr
	}
	return &domain.Receipt{
		TransactionID: "tx-plan",
		ObligationID:  obligationID,
		AmountCents:   amountCents,
		PaidAt:        time.Now(),
	}, nil
}

func (f *fakeExecutor) Reconcile(ctx context.Context, userID, payableItemID, obligationID string) (*domain.Obligation, error) {
	if f.reconciled != nil {
		return f.reconciled, nil
	}
	return &domain.Obligation{ID: obligationID, PayableItemID: payableItemID, Status: domain.ObligationStatusUnpaid}, nil
}

type fakeSink struct {
	sessionStates []string
}

func (f *fakeSink) NotifyBalance(balance domain.Balance)          {}
func (f *fakeSink) NotifyObligation(userID string, obligation domain.Obligation) {}
func (f *fakeSink) NotifySession(session domain.WorkflowSession, status, message string) {
	f.sessionStates = append(f.sessionStates, status)
}

type fakeNavigator struct{}

func (f *fakeNavigator) FundingURL(userID string) string {
	return "https://funding.example/topup?user_id=" + userID
}

var _ executor.IExecutor = (*fakeExecutor)(nil)
