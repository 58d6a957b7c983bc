package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mavericks-lms/lms-api/internal/models"
)

// EarningRepository handles persistence of instructor earnings.
type EarningRepository struct {
	db *sqlx.DB
}

// NewEarningRepository constructs the repository.
func NewEarningRepository(db *sqlx.DB) *EarningRepository {
	return &EarningRepository{db: db}
}

// FindByID returns an earning by its ID.
func (r *EarningRepository) FindByID(ctx context.Context, id string) (*models.InstructorEarning, error) {
	const query = `SELECT id, instructor_id, course_id, payment_id, amount, platform_fee, net_amount,
        status, payout_date, created_at, updated_at
        FROM instructor_earnings WHERE id = $1`
	var earning models.InstructorEarning
	if err := r.db.GetContext(ctx, &earning, query, id); err != nil {
		return nil, err
	}
	return &earning, nil
}

// List returns earnings matching the filter.
func (r *EarningRepository) List(ctx context.Context, filter models.EarningFilter) ([]models.InstructorEarning, error) {
	query := `SELECT id, instructor_id, course_id, payment_id, amount, platform_fee, net_amount,
        status, payout_date, created_at, updated_at
        FROM instructor_earnings WHERE 1=1`
	var args []interface{}
	if filter.InstructorID != "" {
		query += fmt.Sprintf(" AND instructor_id = $%d", len(args)+1)
		args = append(args, filter.InstructorID)
	}
	if filter.PaymentID != "" {
		query += fmt.Sprintf(" AND payment_id = $%d", len(args)+1)
		args = append(args, filter.PaymentID)
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	query += " ORDER BY created_at DESC"
	var earnings []models.InstructorEarning
	if err := r.db.SelectContext(ctx, &earnings, query, args...); err != nil {
		return nil, fmt.Errorf("list earnings: %w", err)
	}
	return earnings, nil
}

// CreateBatch inserts the earnings derived from one completed payment in a
// single transaction.
func (r *EarningRepository) CreateBatch(ctx context.Context, earnings []models.InstructorEarning) error {
	if len(earnings) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const query = `INSERT INTO instructor_earnings (id, instructor_id, course_id, payment_id, amount,
        platform_fee, net_amount, status, payout_date, created_at, updated_at)
        VALUES (:id, :instructor_id, :course_id, :payment_id, :amount,
        :platform_fee, :net_amount, :status, :payout_date, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range earnings {
		if earnings[i].ID == "" {
			earnings[i].ID = uuid.NewString()
		}
		earnings[i].CreatedAt = now
		earnings[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, earnings[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("create earning: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit earnings: %w", err)
	}
	return nil
}

// TransitionStatus applies a compare-and-swap payout status transition.
func (r *EarningRepository) TransitionStatus(ctx context.Context, id string, from, to models.EarningStatus, payoutDate *time.Time) (bool, error) {
	const query = `UPDATE instructor_earnings
        SET status = $1, payout_date = COALESCE($2, payout_date), updated_at = $3
        WHERE id = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, to, payoutDate, time.Now().UTC(), id, from)
	if err != nil {
		return false, fmt.Errorf("transition earning status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition earning status: %w", err)
	}
	return affected > 0, nil
}
