package gateway

import (
	"context"
	"fmt"
)

// StubExecutor approves every charge and refund without leaving the process.
// It backs local development and environments without provider credentials.
type StubExecutor struct{}

// NewStubExecutor constructs the stub.
func NewStubExecutor() *StubExecutor {
	return &StubExecutor{}
}

// Charge approves the charge with a deterministic transaction reference.
func (e *StubExecutor) Charge(_ context.Context, req ChargeRequest) (*ChargeResult, error) {
	return &ChargeResult{TransactionID: fmt.Sprintf("stub-txn-%s", req.PaymentID)}, nil
}

// Refund approves the refund.
func (e *StubExecutor) Refund(_ context.Context, _ RefundRequest) error {
	return nil
}
