package models

import "time"

// Certificate is issued at most once per enrollment, on the completion
// transition. DocumentPath is filled in asynchronously once the renderer has
// produced the actual document; CertificateURL is derived deterministically
// at issue time and never changes.
type Certificate struct {
	ID             string     `db:"id" json:"id"`
	EnrollmentID   string     `db:"enrollment_id" json:"enrollment_id"`
	CertificateURL string     `db:"certificate_url" json:"certificate_url"`
	DocumentPath   *string    `db:"document_path" json:"document_path,omitempty"`
	IssueDate      time.Time  `db:"issue_date" json:"issue_date"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
