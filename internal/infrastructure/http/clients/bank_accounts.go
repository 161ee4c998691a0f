package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/internal/domain/interfaces"
	"github.com/tekiplanet/payflow/internal/domain/models"
	"github.com/tekiplanet/payflow/pkg/config"
)

type bankAccountsClient struct {
	rest *restClient
}

func NewBankAccountsClient(cfg config.RemoteAPIConfig, logger zerolog.Logger) interfaces.BankAccountsClient {
	return &bankAccountsClient{
		rest: newRESTClient(cfg, logger),
	}
}

func (c *bankAccountsClient) Verify(ctx context.Context, accountNumber, bankCode string) (*models.VerifyBankAccountResponse, error) {
	req := models.VerifyBankAccountRequest{
		AccountNumber: accountNumber,
		BankCode:      bankCode,
	}

	var resp models.VerifyBankAccountResponse
	if err := c.rest.makeRequest(ctx, http.MethodPost, "/v1/bank-accounts/verify", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to verify bank account: %w", err)
	}

	return &resp, nil
}

func (c *bankAccountsClient) Add(ctx context.Context, account *domain.BankAccount) (*models.AddBankAccountResponse, error) {
	var resp models.AddBankAccountResponse
	if err := c.rest.makeRequest(ctx, http.MethodPost, "/v1/bank-accounts", account, &resp); err != nil {
		return nil, fmt.Errorf("failed to add bank account: %w", err)
	}

	return &resp, nil
}
