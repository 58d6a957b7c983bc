package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mavericks-lms/lms-api/internal/gateway"
	"github.com/mavericks-lms/lms-api/internal/models"
	appErrors "github.com/mavericks-lms/lms-api/pkg/errors"
)

type paymentRepo interface {
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	TransitionStatus(ctx context.Context, id string, from, to models.PaymentStatus, paymentDate *time.Time, transactionID *string) (bool, error)
}

type earningRepo interface {
	FindByID(ctx context.Context, id string) (*models.InstructorEarning, error)
	List(ctx context.Context, filter models.EarningFilter) ([]models.InstructorEarning, error)
	CreateBatch(ctx context.Context, earnings []models.InstructorEarning) error
	TransitionStatus(ctx context.Context, id string, from, to models.EarningStatus, payoutDate *time.Time) (bool, error)
}

type settlementEnrollmentRepo interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListInstructors(ctx context.Context, courseID string) ([]string, error)
}

// CreatePaymentRequest opens a pending payment for an enrollment.
type CreatePaymentRequest struct {
	EnrollmentID  string  `json:"enrollment_id" validate:"required"`
	Amount        float64 `json:"amount" validate:"gte=0"`
	Currency      string  `json:"currency,omitempty"`
	PaymentMethod *string `json:"payment_method,omitempty"`
}

// PaymentService drives the payment and payout state machines. Every status
// transition is a conditional update on the expected source status, so
// concurrent processors cannot double-apply a transition.
type PaymentService struct {
	payments    paymentRepo
	earnings    earningRepo
	enrollments settlementEnrollmentRepo
	courses     courseReader
	executor    gateway.PaymentExecutor
	feeRate     float64
	currency    string
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewPaymentService constructs PaymentService. feeRate is the platform's cut
// as a fraction of each instructor share.
func NewPaymentService(payments paymentRepo, earnings earningRepo, enrollments settlementEnrollmentRepo, courses courseReader, executor gateway.PaymentExecutor, feeRate float64, currency string, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if currency == "" {
		currency = "USD"
	}
	return &PaymentService{
		payments:    payments,
		earnings:    earnings,
		enrollments: enrollments,
		courses:     courses,
		executor:    executor,
		feeRate:     feeRate,
		currency:    currency,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreatePayment opens a pending payment for an enrollment. A zero amount
// defaults to the course price.
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	amount := req.Amount
	if amount == 0 {
		course, err := s.courses.FindByID(ctx, enrollment.CourseID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		amount = course.Price
	}
	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}
	payment := &models.Payment{
		EnrollmentID:  req.EnrollmentID,
		Amount:        amount,
		Currency:      currency,
		PaymentMethod: req.PaymentMethod,
		Status:        models.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create payment")
	}
	return payment, nil
}

// GetPayment returns a payment by ID.
func (s *PaymentService) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

// ProcessPayment executes a pending payment through the provider and records
// the outcome. A successful charge completes the payment and settles the
// instructor earnings; a failed charge moves it to FAILED. Only pending
// payments are processable.
func (s *PaymentService) ProcessPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only pending payments can be processed")
	}

	method := ""
	if payment.PaymentMethod != nil {
		method = *payment.PaymentMethod
	}
	result, err := s.executor.Charge(ctx, gateway.ChargeRequest{
		PaymentID:     payment.ID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		PaymentMethod: method,
	})
	if err != nil {
		ok, failErr := s.payments.TransitionStatus(ctx, payment.ID, models.PaymentStatusPending, models.PaymentStatusFailed, nil, nil)
		if failErr != nil {
			s.logger.Error("failed to record payment failure", zap.String("payment_id", payment.ID), zap.Error(failErr))
		} else if !ok {
			s.logger.Warn("payment left pending state during failed charge", zap.String("payment_id", payment.ID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrExternalExecution.Code, appErrors.ErrExternalExecution.Status, "payment charge failed")
	}

	paidAt := s.now()
	ok, err := s.payments.TransitionStatus(ctx, payment.ID, models.PaymentStatusPending, models.PaymentStatusCompleted, &paidAt, &result.TransactionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete payment")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payment was processed concurrently")
	}
	payment.Status = models.PaymentStatusCompleted
	payment.PaymentDate = &paidAt
	payment.TransactionID = &result.TransactionID

	if err := s.settleEarnings(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// RefundPayment refunds a completed payment through the provider. Pending,
// failed and already refunded payments are rejected.
func (s *PaymentService) RefundPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if payment.Status != models.PaymentStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only completed payments can be refunded")
	}

	transactionID := ""
	if payment.TransactionID != nil {
		transactionID = *payment.TransactionID
	}
	if err := s.executor.Refund(ctx, gateway.RefundRequest{
		PaymentID:     payment.ID,
		TransactionID: transactionID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExternalExecution.Code, appErrors.ErrExternalExecution.Status, "payment refund failed")
	}

	ok, err := s.payments.TransitionStatus(ctx, payment.ID, models.PaymentStatusCompleted, models.PaymentStatusRefunded, nil, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record refund")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payment was refunded concurrently")
	}
	payment.Status = models.PaymentStatusRefunded
	return payment, nil
}

// ListEarnings returns instructor earnings matching the filter.
func (s *PaymentService) ListEarnings(ctx context.Context, filter models.EarningFilter) ([]models.InstructorEarning, error) {
	earnings, err := s.earnings.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list earnings")
	}
	return earnings, nil
}

// ProcessPayout moves a pending earning into the payout pipeline.
func (s *PaymentService) ProcessPayout(ctx context.Context, earningID string) (*models.InstructorEarning, error) {
	earning, err := s.loadEarning(ctx, earningID)
	if err != nil {
		return nil, err
	}
	ok, err := s.earnings.TransitionStatus(ctx, earning.ID, models.EarningStatusPending, models.EarningStatusProcessed, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to process payout")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "earning is not pending")
	}
	earning.Status = models.EarningStatusProcessed
	return earning, nil
}

// MarkEarningPaid records that a processed earning has been paid out. Pending
// earnings cannot skip straight to paid.
func (s *PaymentService) MarkEarningPaid(ctx context.Context, earningID string) (*models.InstructorEarning, error) {
	earning, err := s.loadEarning(ctx, earningID)
	if err != nil {
		return nil, err
	}
	paidAt := s.now()
	ok, err := s.earnings.TransitionStatus(ctx, earning.ID, models.EarningStatusProcessed, models.EarningStatusPaid, &paidAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark earning paid")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "earning is not processed")
	}
	earning.Status = models.EarningStatusPaid
	earning.PayoutDate = &paidAt
	return earning, nil
}

func (s *PaymentService) loadEarning(ctx context.Context, id string) (*models.InstructorEarning, error) {
	earning, err := s.earnings.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "earning not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load earning")
	}
	return earning, nil
}

// settleEarnings records the pending earnings derived from one completed
// payment, splitting the amount evenly across the course's instructors.
func (s *PaymentService) settleEarnings(ctx context.Context, payment *models.Payment) error {
	enrollment, err := s.enrollments.FindByID(ctx, payment.EnrollmentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment for settlement")
	}
	instructors, err := s.courses.ListInstructors(ctx, enrollment.CourseID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course instructors")
	}
	if len(instructors) == 0 {
		s.logger.Warn("completed payment has no instructors to settle",
			zap.String("payment_id", payment.ID),
			zap.String("course_id", enrollment.CourseID))
		return nil
	}

	share := roundHalfUp(payment.Amount / float64(len(instructors)))
	fee, net := computeEarning(share, s.feeRate)
	earnings := make([]models.InstructorEarning, 0, len(instructors))
	for _, instructorID := range instructors {
		earnings = append(earnings, models.InstructorEarning{
			InstructorID: instructorID,
			CourseID:     enrollment.CourseID,
			PaymentID:    payment.ID,
			Amount:       share,
			PlatformFee:  fee,
			NetAmount:    net,
			Status:       models.EarningStatusPending,
		})
	}
	if err := s.earnings.CreateBatch(ctx, earnings); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "payment completed but earnings were not recorded")
	}
	return nil
}

// computeEarning derives the platform fee and the instructor's net amount
// from one earning share. The net amount never goes below zero, even when the
// fee rate exceeds the share.
func computeEarning(share, feeRate float64) (fee, net float64) {
	fee = roundHalfUp(share * feeRate)
	return fee, ComputeNet(share, fee)
}

// ComputeNet returns the amount left after the platform fee, rounded to two
// decimals and floored at zero.
func ComputeNet(amount, platformFee float64) float64 {
	net := roundHalfUp(amount - platformFee)
	if net < 0 {
		net = 0
	}
	return net
}
