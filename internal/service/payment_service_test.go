package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mavericks-lms/lms-api/internal/gateway"
	"github.com/mavericks-lms/lms-api/internal/models"
	appErrors "github.com/mavericks-lms/lms-api/pkg/errors"
)

type mockPaymentRepo struct {
	payments map[string]*models.Payment
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	if payment, ok := m.payments[id]; ok {
		loaded := *payment
		return &loaded, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	if m.payments == nil {
		m.payments = make(map[string]*models.Payment)
	}
	if payment.ID == "" {
		payment.ID = fmt.Sprintf("p%d", len(m.payments)+1)
	}
	stored := *payment
	m.payments[payment.ID] = &stored
	return nil
}

func (m *mockPaymentRepo) TransitionStatus(ctx context.Context, id string, from, to models.PaymentStatus, paymentDate *time.Time, transactionID *string) (bool, error) {
	payment, ok := m.payments[id]
	if !ok || payment.Status != from {
		return false, nil
	}
	payment.Status = to
	if paymentDate != nil {
		payment.PaymentDate = paymentDate
	}
	if transactionID != nil {
		payment.TransactionID = transactionID
	}
	return true, nil
}

type mockEarningRepo struct {
	earnings map[string]*models.InstructorEarning
	batches  int
}

func (m *mockEarningRepo) FindByID(ctx context.Context, id string) (*models.InstructorEarning, error) {
	if earning, ok := m.earnings[id]; ok {
		loaded := *earning
		return &loaded, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEarningRepo) List(ctx context.Context, filter models.EarningFilter) ([]models.InstructorEarning, error) {
	var result []models.InstructorEarning
	for _, earning := range m.earnings {
		if filter.InstructorID != "" && earning.InstructorID != filter.InstructorID {
			continue
		}
		if filter.PaymentID != "" && earning.PaymentID != filter.PaymentID {
			continue
		}
		if filter.Status != "" && earning.Status != filter.Status {
			continue
		}
		result = append(result, *earning)
	}
	return result, nil
}

func (m *mockEarningRepo) CreateBatch(ctx context.Context, earnings []models.InstructorEarning) error {
	if m.earnings == nil {
		m.earnings = make(map[string]*models.InstructorEarning)
	}
	m.batches++
	for i := range earnings {
		earnings[i].ID = fmt.Sprintf("earn%d", len(m.earnings)+1)
		stored := earnings[i]
		m.earnings[stored.ID] = &stored
	}
	return nil
}

func (m *mockEarningRepo) TransitionStatus(ctx context.Context, id string, from, to models.EarningStatus, payoutDate *time.Time) (bool, error) {
	earning, ok := m.earnings[id]
	if !ok || earning.Status != from {
		return false, nil
	}
	earning.Status = to
	if payoutDate != nil {
		earning.PayoutDate = payoutDate
	}
	return true, nil
}

type mockCourseReader struct {
	courses     map[string]*models.Course
	instructors map[string][]string
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := m.courses[id]; ok {
		return course, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseReader) ListInstructors(ctx context.Context, courseID string) ([]string, error) {
	return m.instructors[courseID], nil
}

type mockExecutor struct {
	chargeErr error
	refundErr error
	charges   []gateway.ChargeRequest
	refunds   []gateway.RefundRequest
}

func (m *mockExecutor) Charge(ctx context.Context, req gateway.ChargeRequest) (*gateway.ChargeResult, error) {
	m.charges = append(m.charges, req)
	if m.chargeErr != nil {
		return nil, m.chargeErr
	}
	return &gateway.ChargeResult{TransactionID: "txn-" + req.PaymentID}, nil
}

func (m *mockExecutor) Refund(ctx context.Context, req gateway.RefundRequest) error {
	m.refunds = append(m.refunds, req)
	return m.refundErr
}

type settlementFixture struct {
	payments    *mockPaymentRepo
	earnings    *mockEarningRepo
	enrollments *mockCertEnrollmentRepo
	courses     *mockCourseReader
	executor    *mockExecutor
}

func newSettlementFixture(amount float64, status models.PaymentStatus, instructors ...string) *settlementFixture {
	return &settlementFixture{
		payments: &mockPaymentRepo{payments: map[string]*models.Payment{
			"p1": {ID: "p1", EnrollmentID: "e1", Amount: amount, Currency: "USD", Status: status},
		}},
		earnings:    &mockEarningRepo{},
		enrollments: &mockCertEnrollmentRepo{enrollment: &models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1"}},
		courses: &mockCourseReader{
			courses:     map[string]*models.Course{"c1": {ID: "c1", InstructorID: "i1", Price: 79.99}},
			instructors: map[string][]string{"c1": instructors},
		},
		executor:    &mockExecutor{},
	}
}

func (f *settlementFixture) service(feeRate float64) *PaymentService {
	return NewPaymentService(f.payments, f.earnings, f.enrollments, f.courses, f.executor, feeRate, "USD", validator.New(), zap.NewNop())
}

func TestCreatePaymentOpensPending(t *testing.T) {
	f := newSettlementFixture(0, models.PaymentStatusPending, "i1")
	svc := f.service(0.3)

	payment, err := svc.CreatePayment(context.Background(), CreatePaymentRequest{EnrollmentID: "e1", Amount: 49.99})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, "USD", payment.Currency)
	assert.Nil(t, payment.PaymentDate)
}

func TestCreatePaymentDefaultsToCoursePrice(t *testing.T) {
	f := newSettlementFixture(0, models.PaymentStatusPending, "i1")
	svc := f.service(0.3)

	payment, err := svc.CreatePayment(context.Background(), CreatePaymentRequest{EnrollmentID: "e1"})
	require.NoError(t, err)
	assert.Equal(t, 79.99, payment.Amount)
}

func TestProcessPaymentCompletesAndSettles(t *testing.T) {
	f := newSettlementFixture(100, models.PaymentStatusPending, "i1")
	svc := f.service(0.3)

	payment, err := svc.ProcessPayment(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)
	require.NotNil(t, payment.TransactionID)
	assert.Equal(t, "txn-p1", *payment.TransactionID)
	require.NotNil(t, payment.PaymentDate)

	require.Len(t, f.earnings.earnings, 1)
	for _, earning := range f.earnings.earnings {
		assert.Equal(t, "i1", earning.InstructorID)
		assert.Equal(t, 100.0, earning.Amount)
		assert.Equal(t, 30.0, earning.PlatformFee)
		assert.Equal(t, 70.0, earning.NetAmount)
		assert.Equal(t, models.EarningStatusPending, earning.Status)
	}
}

func TestProcessPaymentFansOutPerInstructor(t *testing.T) {
	f := newSettlementFixture(100, models.PaymentStatusPending, "i1", "i2")
	svc := f.service(0.3)

	_, err := svc.ProcessPayment(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, f.earnings.earnings, 2)
	for _, earning := range f.earnings.earnings {
		assert.Equal(t, 50.0, earning.Amount)
		assert.Equal(t, 15.0, earning.PlatformFee)
		assert.Equal(t, 35.0, earning.NetAmount)
	}
}

func TestProcessPaymentNetAmountFloorsAtZero(t *testing.T) {
	f := newSettlementFixture(100, models.PaymentStatusPending, "i1")
	svc := f.service(1.2)

	_, err := svc.ProcessPayment(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, f.earnings.earnings, 1)
	for _, earning := range f.earnings.earnings {
		assert.Equal(t, 120.0, earning.PlatformFee)
		assert.Equal(t, 0.0, earning.NetAmount)
	}
}

func TestProcessPaymentChargeFailureMarksFailed(t *testing.T) {
	f := newSettlementFixture(100, models.PaymentStatusPending, "i1")
	f.executor.chargeErr = fmt.Errorf("card declined")
	svc := f.service(0.3)

	_, err := svc.ProcessPayment(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrExternalExecution))
	assert.Equal(t, models.PaymentStatusFailed, f.payments.payments["p1"].Status)
	assert.Empty(t, f.earnings.earnings)
}

func TestProcessPaymentRejectsNonPending(t *testing.T) {
	f := newSettlementFixture(100, models.PaymentStatusCompleted, "i1")
	svc := f.service(0.3)

	_, err := svc.ProcessPayment(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTransition))
	assert.Empty(t, f.executor.charges)
}

func TestRefundPaymentCompletedOnly(t *testing.T) {
	f := newSettlementFixture(100, models.PaymentStatusCompleted, "i1")
	txn := "txn-p1"
	f.payments.payments["p1"].TransactionID = &txn
	svc := f.service(0.3)

	payment, err := svc.RefundPayment(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, payment.Status)
	require.Len(t, f.executor.refunds, 1)
	assert.Equal(t, "txn-p1", f.executor.refunds[0].TransactionID)
}

func TestRefundPaymentRejectsPending(t *testing.T) {
	f := newSettlementFixture(100, models.PaymentStatusPending, "i1")
	svc := f.service(0.3)

	_, err := svc.RefundPayment(context.Background(), "p1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTransition))
	assert.Empty(t, f.executor.refunds)
}

func TestPayoutLifecycle(t *testing.T) {
	f := newSettlementFixture(100, models.PaymentStatusPending, "i1")
	f.earnings.earnings = map[string]*models.InstructorEarning{
		"earn1": {ID: "earn1", InstructorID: "i1", PaymentID: "p1", Status: models.EarningStatusPending},
	}
	svc := f.service(0.3)

	earning, err := svc.ProcessPayout(context.Background(), "earn1")
	require.NoError(t, err)
	assert.Equal(t, models.EarningStatusProcessed, earning.Status)

	earning, err = svc.MarkEarningPaid(context.Background(), "earn1")
	require.NoError(t, err)
	assert.Equal(t, models.EarningStatusPaid, earning.Status)
	require.NotNil(t, earning.PayoutDate)
}

func TestMarkEarningPaidRejectsPending(t *testing.T) {
	f := newSettlementFixture(100, models.PaymentStatusPending, "i1")
	f.earnings.earnings = map[string]*models.InstructorEarning{
		"earn1": {ID: "earn1", InstructorID: "i1", PaymentID: "p1", Status: models.EarningStatusPending},
	}
	svc := f.service(0.3)

	_, err := svc.MarkEarningPaid(context.Background(), "earn1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTransition))
	assert.Equal(t, models.EarningStatusPending, f.earnings.earnings["earn1"].Status)
}

func TestProcessPayoutRejectsProcessed(t *testing.T) {
	f := newSettlementFixture(100, models.PaymentStatusPending, "i1")
	f.earnings.earnings = map[string]*models.InstructorEarning{
		"earn1": {ID: "earn1", InstructorID: "i1", PaymentID: "p1", Status: models.EarningStatusProcessed},
	}
	svc := f.service(0.3)

	_, err := svc.ProcessPayout(context.Background(), "earn1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidTransition))
}

func TestComputeEarningRounding(t *testing.T) {
	fee, net := computeEarning(33.33, 0.3)
	assert.Equal(t, 10.0, fee)
	assert.Equal(t, 23.33, net)

	fee, net = computeEarning(0, 0.3)
	assert.Equal(t, 0.0, fee)
	assert.Equal(t, 0.0, net)
}

func TestComputeNetFloorsAtZero(t *testing.T) {
	assert.Equal(t, 23.33, ComputeNet(33.33, 10))
	assert.Equal(t, 0.0, ComputeNet(10, 12.5))
}
