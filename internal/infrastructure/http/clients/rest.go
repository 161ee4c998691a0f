package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/internal/domain/models"
	"github.com/tekiplanet/payflow/pkg/config"
)

// restClient is the shared transport for the remote collaborator APIs.
// Reads retry with exponential backoff; submissions go through doOnce and
// are never retried here, because a timed-out submission has an unknown
// outcome that only a state re-read can resolve.
type restClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     zerolog.Logger
}

func newRESTClient(cfg config.RemoteAPIConfig, logger zerolog.Logger) *restClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &restClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryBackoffBase,
		logger:     logger,
	}
}

func (c *restClient) makeRequest(ctx context.Context, method, endpoint string, body interface{}, response interface{}) error {
	fullURL := c.baseURL + endpoint

	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return domain.NewRemoteUnavailable(ctx.Err().Error())
			case <-time.After(c.retryDelay * time.Duration(1<<(attempt-1))): // Exponential backoff
			}
		}

		err := c.doOnce(ctx, method, fullURL, body, response)
		if err == nil {
			return nil
		}

		var re *domain.RemoteError
		if errors.As(err, &re) && !re.Unavailable {
			// Business rejections don't retry
			return err
		}

		lastErr = err
		c.logger.Warn().Err(err).Int("attempt", attempt+1).Str("url", fullURL).Msg("Remote request failed, retrying")
	}

	c.logger.Error().Err(lastErr).Str("url", fullURL).Int("max_retries", c.maxRetries).Msg("Remote request failed after all retries")
	return lastErr
}

// doOnce issues exactly one HTTP request and maps the outcome onto the
// engine's error taxonomy.
func (c *restClient) doOnce(ctx context.Context, method, fullURL string, body interface{}, response interface{}) error {
	var reqBody []byte
	var err error

	if body != nil {
		reqBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewRemoteUnavailable(err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewRemoteUnavailable(fmt.Sprintf("failed to read response body: %v", err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if response != nil {
			if err := json.Unmarshal(respBody, response); err != nil {
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}
		}
		return nil
	}

	if resp.StatusCode >= 500 {
		return domain.NewRemoteUnavailable(fmt.Sprintf("server error (status %d)", resp.StatusCode))
	}

	// Client errors carry the server's declared reason, surfaced verbatim
	var errResp models.ErrorResponse
	if json.Unmarshal(respBody, &errResp) == nil && errResp.Message != "" {
		return domain.NewRemoteRejected(errResp.Code, errResp.Message)
	}
	return domain.NewRemoteRejected(fmt.Sprintf("status_%d", resp.StatusCode), "")
}

func (c *restClient) submitOnce(ctx context.Context, endpoint string, body interface{}, response interface{}) error {
	return c.doOnce(ctx, http.MethodPost, c.baseURL+endpoint, body, response)
}
