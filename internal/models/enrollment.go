package models

import "time"

// Enrollment captures a student's registration in a course. Progress fields
// are derived: only the progress recalculation writes them. Version backs the
// optimistic concurrency check on that read-modify-write cycle.
type Enrollment struct {
	ID                 string     `db:"id" json:"id"`
	StudentID          string     `db:"student_id" json:"student_id"`
	CourseID           string     `db:"course_id" json:"course_id"`
	EnrolledAt         time.Time  `db:"enrolled_at" json:"enrolled_at"`
	CompletionDate     *time.Time `db:"completion_date" json:"completion_date,omitempty"`
	ProgressPercentage float64    `db:"progress_percentage" json:"progress_percentage"`
	IsCompleted        bool       `db:"is_completed" json:"is_completed"`
	CertificateIssued  bool       `db:"certificate_issued" json:"certificate_issued"`
	Version            int64      `db:"version" json:"-"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// ContentProgress tracks one enrollment's progress through a single content
// unit. IsCompleted implies ProgressPercentage == 100.00.
type ContentProgress struct {
	ID                 string     `db:"id" json:"id"`
	EnrollmentID       string     `db:"enrollment_id" json:"enrollment_id"`
	ContentID          string     `db:"content_id" json:"content_id"`
	IsCompleted        bool       `db:"is_completed" json:"is_completed"`
	ProgressPercentage float64    `db:"progress_percentage" json:"progress_percentage"`
	LastAccessedAt     *time.Time `db:"last_accessed_at" json:"last_accessed_at,omitempty"`
	CompletedAt        *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// ProgressSummary is the read model served for enrollment progress queries.
type ProgressSummary struct {
	EnrollmentID       string            `json:"enrollment_id"`
	ProgressPercentage float64           `json:"progress_percentage"`
	IsCompleted        bool              `json:"is_completed"`
	CompletionDate     *time.Time        `json:"completion_date,omitempty"`
	TotalUnits         int               `json:"total_units"`
	CompletedUnits     int               `json:"completed_units"`
	Units              []ContentProgress `json:"units,omitempty"`
}
