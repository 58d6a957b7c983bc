package models

import "time"

// PaymentStatus represents the payment state machine. Valid transitions are
// PENDING -> COMPLETED, PENDING -> FAILED and COMPLETED -> REFUNDED.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// Payment is the purchase record behind one enrollment.
type Payment struct {
	ID            string        `db:"id" json:"id"`
	EnrollmentID  string        `db:"enrollment_id" json:"enrollment_id"`
	Amount        float64       `db:"amount" json:"amount"`
	Currency      string        `db:"currency" json:"currency"`
	PaymentMethod *string       `db:"payment_method" json:"payment_method,omitempty"`
	TransactionID *string       `db:"transaction_id" json:"transaction_id,omitempty"`
	Status        PaymentStatus `db:"status" json:"status"`
	PaymentDate   *time.Time    `db:"payment_date" json:"payment_date,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// EarningStatus represents the payout state machine for instructor earnings:
// PENDING -> PROCESSED -> PAID, strictly forward.
type EarningStatus string

const (
	EarningStatusPending   EarningStatus = "PENDING"
	EarningStatusProcessed EarningStatus = "PROCESSED"
	EarningStatusPaid      EarningStatus = "PAID"
)

// InstructorEarning is one instructor's share of a completed course payment.
type InstructorEarning struct {
	ID           string        `db:"id" json:"id"`
	InstructorID string        `db:"instructor_id" json:"instructor_id"`
	CourseID     string        `db:"course_id" json:"course_id"`
	PaymentID    string        `db:"payment_id" json:"payment_id"`
	Amount       float64       `db:"amount" json:"amount"`
	PlatformFee  float64       `db:"platform_fee" json:"platform_fee"`
	NetAmount    float64       `db:"net_amount" json:"net_amount"`
	Status       EarningStatus `db:"status" json:"status"`
	PayoutDate   *time.Time    `db:"payout_date" json:"payout_date,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// EarningFilter scopes earning listings.
type EarningFilter struct {
	InstructorID string
	PaymentID    string
	Status       EarningStatus
}
