package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mavericks-lms/lms-api/internal/models"
	appErrors "github.com/mavericks-lms/lms-api/pkg/errors"
)

type certificateRepo interface {
	Create(ctx context.Context, certificate *models.Certificate) error
	FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Certificate, error)
}

type certificateEnrollmentRepo interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	MarkCertificateIssued(ctx context.Context, id string) (bool, error)
}

// RenderScheduler hands a freshly issued certificate to the rendering
// pipeline. Rendering is deferred work; issuance never waits for it.
type RenderScheduler interface {
	ScheduleRender(certificate models.Certificate, enrollment models.Enrollment) error
}

// CertificateService issues certificates for completed enrollments. Issuance
// is at-most-once per enrollment: the certificate_issued flag is flipped with
// compare-and-set semantics and repeat calls return the existing certificate.
type CertificateService struct {
	certificates certificateRepo
	enrollments  certificateEnrollmentRepo
	renders      RenderScheduler
	baseURL      string
	logger       *zap.Logger
	now          func() time.Time
}

// NewCertificateService constructs CertificateService. The render scheduler
// may be nil when rendering is deferred entirely.
func NewCertificateService(certificates certificateRepo, enrollments certificateEnrollmentRepo, renders RenderScheduler, baseURL string, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		certificates: certificates,
		enrollments:  enrollments,
		renders:      renders,
		baseURL:      strings.TrimRight(baseURL, "/"),
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Issue issues the certificate for a completed enrollment, or returns the
// existing one when it was already issued.
func (s *CertificateService) Issue(ctx context.Context, enrollmentID string) (*models.Certificate, error) {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !enrollment.IsCompleted {
		return nil, appErrors.Clone(appErrors.ErrNotEligible, "enrollment is not completed")
	}

	if enrollment.CertificateIssued {
		certificate, err := s.certificates.FindByEnrollmentID(ctx, enrollmentID)
		if err == nil {
			return certificate, nil
		}
		if err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
		}
		// Flag set but no record: an earlier issuance died between the
		// flag flip and the insert. Repair by minting now.
	} else {
		won, err := s.enrollments.MarkCertificateIssued(ctx, enrollmentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reserve certificate issuance")
		}
		if !won {
			certificate, err := s.certificates.FindByEnrollmentID(ctx, enrollmentID)
			if err == nil {
				return certificate, nil
			}
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrConflict, "certificate issuance in progress")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
		}
	}

	certificate := &models.Certificate{
		EnrollmentID:   enrollment.ID,
		CertificateURL: s.certificateURL(enrollment),
		IssueDate:      s.now(),
	}
	if err := s.certificates.Create(ctx, certificate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create certificate")
	}

	if s.renders != nil {
		if err := s.renders.ScheduleRender(*certificate, *enrollment); err != nil {
			// Rendering is best effort; the issued certificate stands.
			s.logger.Warn("certificate render scheduling failed",
				zap.String("certificate_id", certificate.ID),
				zap.String("enrollment_id", enrollment.ID),
				zap.Error(err))
		}
	}
	return certificate, nil
}

// Get returns the certificate of an enrollment.
func (s *CertificateService) Get(ctx context.Context, enrollmentID string) (*models.Certificate, error) {
	certificate, err := s.certificates.FindByEnrollmentID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	return certificate, nil
}

// certificateURL derives the stable certificate identifier from the
// enrollment, student and course IDs.
func (s *CertificateService) certificateURL(enrollment *models.Enrollment) string {
	return fmt.Sprintf("%s/%s-%s-%s", s.baseURL, enrollment.ID, enrollment.StudentID, enrollment.CourseID)
}
