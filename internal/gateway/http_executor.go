package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// HTTPExecutor executes charges and refunds against the payment provider's
// REST API.
type HTTPExecutor struct {
	client *resty.Client
	logger *zap.Logger
}

// NewHTTPExecutor constructs an executor for the provider at baseURL.
func NewHTTPExecutor(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *HTTPExecutor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &HTTPExecutor{client: client, logger: logger}
}

// Charge captures funds for a payment.
func (e *HTTPExecutor) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	var result ChargeResult
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/v1/charges")
	if err != nil {
		return nil, fmt.Errorf("charge request: %w", err)
	}
	if resp.IsError() {
		e.logger.Warn("charge rejected by provider",
			zap.String("payment_id", req.PaymentID),
			zap.Int("status", resp.StatusCode()))
		return nil, fmt.Errorf("charge rejected: provider returned %d", resp.StatusCode())
	}
	if result.TransactionID == "" {
		return nil, fmt.Errorf("charge response missing transaction id")
	}
	return &result, nil
}

// Refund returns a captured charge.
func (e *HTTPExecutor) Refund(ctx context.Context, req RefundRequest) error {
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/v1/refunds")
	if err != nil {
		return fmt.Errorf("refund request: %w", err)
	}
	if resp.IsError() {
		e.logger.Warn("refund rejected by provider",
			zap.String("payment_id", req.PaymentID),
			zap.Int("status", resp.StatusCode()))
		return fmt.Errorf("refund rejected: provider returned %d", resp.StatusCode())
	}
	return nil
}
