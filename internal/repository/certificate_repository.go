package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mavericks-lms/lms-api/internal/models"
)

// CertificateRepository handles persistence of issued certificates.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs the repository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// Create inserts a certificate. A unique constraint on enrollment_id backs
// the at-most-once issuance guarantee at the storage layer.
func (r *CertificateRepository) Create(ctx context.Context, certificate *models.Certificate) error {
	if certificate.ID == "" {
		certificate.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	certificate.CreatedAt = now
	certificate.UpdatedAt = now
	const query = `INSERT INTO certificates (id, enrollment_id, certificate_url, document_path, issue_date, created_at, updated_at)
        VALUES (:id, :enrollment_id, :certificate_url, :document_path, :issue_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, certificate); err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}

// FindByEnrollmentID returns the certificate of an enrollment.
func (r *CertificateRepository) FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Certificate, error) {
	const query = `SELECT id, enrollment_id, certificate_url, document_path, issue_date, created_at, updated_at
        FROM certificates WHERE enrollment_id = $1`
	var certificate models.Certificate
	if err := r.db.GetContext(ctx, &certificate, query, enrollmentID); err != nil {
		return nil, err
	}
	return &certificate, nil
}

// SetDocumentPath records the rendered document location.
func (r *CertificateRepository) SetDocumentPath(ctx context.Context, id, documentPath string) error {
	const query = `UPDATE certificates SET document_path = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, documentPath, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("set certificate document path: %w", err)
	}
	return nil
}
