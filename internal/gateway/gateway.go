package gateway

import "context"

// ChargeRequest asks the payment provider to capture funds for a payment.
type ChargeRequest struct {
	PaymentID     string  `json:"payment_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"payment_method,omitempty"`
}

// ChargeResult carries the provider's reference for a captured charge.
type ChargeResult struct {
	TransactionID string `json:"transaction_id"`
}

// RefundRequest asks the payment provider to return a captured charge.
type RefundRequest struct {
	PaymentID     string  `json:"payment_id"`
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

// PaymentExecutor talks to the external payment provider. Implementations
// must be safe for concurrent use.
type PaymentExecutor interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) error
}
