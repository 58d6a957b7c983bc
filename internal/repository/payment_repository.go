package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mavericks-lms/lms-api/internal/models"
)

// PaymentRepository handles persistence of payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// FindByID returns a payment by its ID.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	const query = `SELECT id, enrollment_id, amount, currency, payment_method, transaction_id,
        status, payment_date, created_at, updated_at
        FROM payments WHERE id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Create inserts a new pending payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	const query = `INSERT INTO payments (id, enrollment_id, amount, currency, payment_method,
        transaction_id, status, payment_date, created_at, updated_at)
        VALUES (:id, :enrollment_id, :amount, :currency, :payment_method,
        :transaction_id, :status, :payment_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// TransitionStatus applies a compare-and-swap status transition. The UPDATE is
// conditional on the expected source status; false means the payment was not
// in that status at commit time and nothing changed.
func (r *PaymentRepository) TransitionStatus(ctx context.Context, id string, from, to models.PaymentStatus, paymentDate *time.Time, transactionID *string) (bool, error) {
	const query = `UPDATE payments
        SET status = $1,
            payment_date = COALESCE($2, payment_date),
            transaction_id = COALESCE($3, transaction_id),
            updated_at = $4
        WHERE id = $5 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, to, paymentDate, transactionID, time.Now().UTC(), id, from)
	if err != nil {
		return false, fmt.Errorf("transition payment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition payment status: %w", err)
	}
	return affected > 0, nil
}
