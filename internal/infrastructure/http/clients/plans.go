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

type plansClient struct {
	rest *restClient
}

func NewPlansClient(cfg config.RemoteAPIConfig, logger zerolog.Logger) interfaces.PlansClient {
	return &plansClient{
		rest: newRESTClient(cfg, logger),
	}
}

// CreateObligations registers a schedule remotely. It is issued exactly
// once: re-sending a create whose response was lost could register the
// schedule twice and double-bill. An unknown outcome surfaces to the
// caller, who re-reads state before trying again.
func (c *plansClient) CreateObligations(ctx context.Context, req *models.CreateObligationsRequest) ([]domain.Obligation, error) {
	endpoint := fmt.Sprintf("/v1/payable-items/%s/obligations", req.PayableItemID)

	var resp models.CreateObligationsResponse
	if err := c.rest.submitOnce(ctx, endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to create obligations for payable item %s: %w", req.PayableItemID, err)
	}

	return resp.Obligations, nil
}

// SubmitObligationPayment is issued exactly once per call; see SubmitDebit.
func (c *plansClient) SubmitObligationPayment(ctx context.Context, payableItemID string, req *models.ObligationPaymentRequest) (*models.ObligationPaymentResponse, error) {
	endpoint := fmt.Sprintf("/v1/payable-items/%s/payments", payableItemID)

	var resp models.ObligationPaymentResponse
	if err := c.rest.submitOnce(ctx, endpoint, req, &resp); err != nil {
		return nil, err
	}

	if !resp.Success {
		return nil, domain.NewRemoteRejected("payment_rejected", resp.Message)
	}

	return &resp, nil
}

func (c *plansClient) FetchObligation(ctx context.Context, payableItemID, obligationID string) (*domain.Obligation, error) {
	endpoint := fmt.Sprintf("/v1/payable-items/%s/obligations/%s", payableItemID, obligationID)

	var obligation domain.Obligation
	if err := c.rest.makeRequest(ctx, http.MethodGet, endpoint, nil, &obligation); err != nil {
		return nil, fmt.Errorf("failed to fetch obligation %s: %w", obligationID, err)
	}

	return &obligation, nil
}
