package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/internal/domain/interfaces"
	"github.com/tekiplanet/payflow/internal/domain/models"
	"github.com/tekiplanet/payflow/pkg/config"
)

type ledgerClient struct {
	rest *restClient
}

func NewLedgerClient(cfg config.RemoteAPIConfig, logger zerolog.Logger) interfaces.LedgerClient {
	return &ledgerClient{
		rest: newRESTClient(cfg, logger),
	}
}

func (c *ledgerClient) FetchBalance(ctx context.Context, ownerID string) (*domain.Balance, error) {
	endpoint := fmt.Sprintf("/v1/accounts/%s/balance", ownerID)

	var resp models.BalanceResponse
	if err := c.rest.makeRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch balance for owner %s: %w", ownerID, err)
	}

	return &domain.Balance{
		OwnerID:        resp.OwnerID,
		CurrencyCode:   resp.CurrencyCode,
		AvailableCents: resp.AvailableCents,
		UpdatedAt:      resp.UpdatedAt,
	}, nil
}

// SubmitDebit is issued exactly once. An unavailable result means the debit
// may or may not have been applied; callers must re-read state before any
// retry.
func (c *ledgerClient) SubmitDebit(ctx context.Context, req *models.DebitRequest) (*models.DebitResponse, error) {
	endpoint := fmt.Sprintf("/v1/accounts/%s/debits", req.OwnerID)

	var resp models.DebitResponse
	if err := c.rest.submitOnce(ctx, endpoint, req, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, domain.NewRemoteRejected("debit_rejected", resp.Message)
	}

	return &resp, nil
}

func (c *ledgerClient) ListTransactions(ctx context.Context, ownerID string, from, to time.Time) ([]domain.TransactionRecord, error) {
	endpoint := fmt.Sprintf("/v1/accounts/%s/transactions?%s", ownerID, url.Values{
		"from": []string{from.Format(time.RFC3339)},
		"to":   []string{to.Format(time.RFC3339)},
	}.Encode())

	var records []domain.TransactionRecord
	if err := c.rest.makeRequest(ctx, http.MethodGet, endpoint, nil, &records); err != nil {
		return nil, fmt.Errorf("failed to list transactions for owner %s: %w", ownerID, err)
	}

	return records, nil
}
