package ledgersvc

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/internal/domain/interfaces"
	"github.com/tekiplanet/payflow/internal/domain/models"
)

type ledgerService struct {
	ledgerClient interfaces.LedgerClient
	sink         interfaces.NotificationSink
	currencyCode string
	logger       zerolog.Logger
}

func New(
	ledgerClient interfaces.LedgerClient,
	sink interfaces.NotificationSink,
	currencyCode string,
	logger zerolog.Logger,
) ILedgerService {
	return &ledgerService{
		ledgerClient: ledgerClient,
		sink:         sink,
		currencyCode: currencyCode,
		logger:       logger,
	}
}

func (s *ledgerService) GetAvailableBalance(ctx context.Context, ownerID string) (*domain.Balance, error) {
	balance, err := s.ledgerClient.FetchBalance(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch balance for owner %s: %w", ownerID, err)
	}
	return balance, nil
}

func (s *ledgerService) CanAfford(ctx context.Context, ownerID string, amountCents int64) (bool, *domain.Balance, error) {
	balance, err := s.GetAvailableBalance(ctx, ownerID)
	if err != nil {
		return false, nil, err
	}
	return amountCents <= balance.AvailableCents, balance, nil
}

func (s *ledgerService) Debit(ctx context.Context, ownerID string, amountCents int64, reason string) (*DebitResult, error) {
	if amountCents <= 0 {
		return nil, domain.NewValidationError("amount", "must be positive")
	}

	affordable, balance, err := s.CanAfford(ctx, ownerID, amountCents)
	if err != nil {
		return nil, err
	}
	if !affordable {
		s.logger.Info().
			Str("owner_id", ownerID).
			Int64("amount_cents", amountCents).
			Int64("available_cents", balance.AvailableCents).
			Msg("Debit blocked before remote call, insufficient funds")
		return nil, domain.ErrInsufficientFunds
	}

	resp, err := s.ledgerClient.SubmitDebit(ctx, &models.DebitRequest{
		OwnerID:          ownerID,
		AmountCents:      amountCents,
		CurrencyCode:     s.currencyCode,
		PurposeReference: reason,
	})
	if err != nil {
		return nil, err
	}

	// The authoritative balance is whatever the remote returned; nothing
	// is computed locally.
	newBalance := domain.Balance{
		OwnerID:        ownerID,
		CurrencyCode:   s.currencyCode,
		AvailableCents: resp.NewBalanceCents,
		UpdatedAt:      time.Now(),
	}

	s.logger.Info().
		Str("owner_id", ownerID).
		Str("transaction_id", resp.TransactionID).
		Int64("amount_cents", amountCents).
		Int64("new_balance_cents", resp.NewBalanceCents).
		Str("reason", reason).
		Msg("Debit confirmed and balance reconciled")

	s.sink.NotifyBalance(newBalance)

	return &DebitResult{
		TransactionID: resp.TransactionID,
		NewBalance:    newBalance,
	}, nil
}

func (s *ledgerService) TodayWithdrawalTotal(ctx context.Context, ownerID string) (int64, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	records, err := s.ledgerClient.ListTransactions(ctx, ownerID, startOfDay, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list today's transactions for owner %s: %w", ownerID, err)
	}

	var total int64
	for _, rec := range records {
		if rec.Type != domain.TypeDebit || rec.Category != domain.CategoryWithdrawal {
			continue
		}
		if rec.Status == domain.TransactionStatusFailed {
			continue
		}
		total += rec.AmountCents
	}

	return total, nil
}
