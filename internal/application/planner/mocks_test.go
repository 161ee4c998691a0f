package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/internal/domain/models"
)

// MockObligationRepo implements IObligationRepository in memory for tests.
type MockObligationRepo struct {
	mu          sync.Mutex
	Obligations map[string][]domain.Obligation
}

func NewMockObligationRepo() *MockObligationRepo {
	return &MockObligationRepo{
		Obligations: make(map[string][]domain.Obligation),
	}
}

func (m *MockObligationRepo) UpsertObligations(ctx context.Context, obligations []domain.Obligation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range obligations {
		existing := m.Obligations[o.PayableItemID]
		replaced := false
		for i := range existing {
			if existing[i].ID == o.ID {
				existing[i] = o
				replaced = true
			}
		}
		if !replaced {
			existing = append(existing, o)
		}
		m.Obligations[o.PayableItemID] = existing
	}
	return nil
}

func (m *MockObligationRepo) ListByPayableItem(ctx context.Context, payableItemID string) ([]domain.Obligation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Obligation, len(m.Obligations[payableItemID]))
	copy(out, m.Obligations[payableItemID])
	return out, nil
}

func (m *MockObligationRepo) GetByID(ctx context.Context, obligationID string) (*domain.Obligation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, set := range m.Obligations {
		for _, o := range set {
			if o.ID == obligationID {
				found := o
				return &found, nil
			}
		}
	}
	return nil, nil
}

func (m *MockObligationRepo) MarkPaid(ctx context.Context, obligationID, transactionID string, paidAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for item, set := range m.Obligations {
		for i := range set {
			if set[i].ID == obligationID && set[i].Status == domain.ObligationStatusUnpaid {
				set[i].Status = domain.ObligationStatusPaid
				set[i].TransactionID = transactionID
				set[i].PaidAt = &paidAt
			}
		}
		m.Obligations[item] = set
	}
	return nil
}

func (m *MockObligationRepo) SupersedeUnpaid(ctx context.Context, payableItemID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var affected int64
	set := m.Obligations[payableItemID]
	for i := range set {
		if set[i].Status == domain.ObligationStatusUnpaid {
			set[i].Status = domain.ObligationStatusSuperseded
			affected++
		}
	}
	m.Obligations[payableItemID] = set
	return affected, nil
}

// MockPlansClient implements interfaces.PlansClient with func overrides and
// call counts.
type MockPlansClient struct {
	CreateCalls int
	SubmitCalls int
	FetchCalls  int

	CreateFunc func(ctx context.Context, req *models.CreateObligationsRequest) ([]domain.Obligation, error)
	SubmitFunc func(ctx context.Context, payableItemID string, req *models.ObligationPaymentRequest) (*models.ObligationPaymentResponse, error)
	FetchFunc  func(ctx context.Context, payableItemID, obligationID string) (*domain.Obligation, error)
}

func (m *MockPlansClient) CreateObligations(ctx context.Context, req *models.CreateObligationsRequest) ([]domain.Obligation, error) {
	m.CreateCalls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	obligations := make([]domain.Obligation, len(req.Schedule))
	for i, entry := range req.Schedule {
		obligations[i] = domain.Obligation{
			ID:            fmt.Sprintf("%s-ob-%d-%c", req.PayableItemID, m.CreateCalls, 'a'+i),
			PayableItemID: req.PayableItemID,
			PlanKind:      req.PlanKind,
			SequenceOrder: entry.SequenceOrder,
			AmountCents:   entry.AmountCents,
			CurrencyCode:  req.CurrencyCode,
			DueAt:         entry.DueAt,
			Status:        domain.ObligationStatusUnpaid,
		}
	}
	return obligations, nil
}

func (m *MockPlansClient) SubmitObligationPayment(ctx context.Context, payableItemID string, req *models.ObligationPaymentRequest) (*models.ObligationPaymentResponse, error) {
	m.SubmitCalls++
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, payableItemID, req)
	}
	return &models.ObligationPaymentResponse{Success: true, TransactionID: "tx-1"}, nil
}

func (m *MockPlansClient) FetchObligation(ctx context.Context, payableItemID, obligationID string) (*domain.Obligation, error) {
	m.FetchCalls++
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, payableItemID, obligationID)
	}
	return nil, nil
}

// MockSink records notification counts.
type MockSink struct {
	mu               sync.Mutex
	BalanceCount     int
	ObligationCount  int
	SessionCount     int
	LastSessionState string
}

func (m *MockSink) NotifyBalance(balance domain.Balance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BalanceCount++
}

func (m *MockSink) NotifyObligation(userID string, obligation domain.Obligation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ObligationCount++
}

func (m *MockSink) NotifySession(session domain.WorkflowSession, status, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SessionCount++
	m.LastSessionState = status
}
