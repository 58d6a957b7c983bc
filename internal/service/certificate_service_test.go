package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mavericks-lms/lms-api/internal/models"
	appErrors "github.com/mavericks-lms/lms-api/pkg/errors"
)

type mockCertificateRepo struct {
	byEnrollment map[string]*models.Certificate
	createCalls  int
}

func (m *mockCertificateRepo) Create(ctx context.Context, certificate *models.Certificate) error {
	if m.byEnrollment == nil {
		m.byEnrollment = make(map[string]*models.Certificate)
	}
	m.createCalls++
	certificate.ID = "cert-1"
	m.byEnrollment[certificate.EnrollmentID] = certificate
	return nil
}

func (m *mockCertificateRepo) FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Certificate, error) {
	if cert, ok := m.byEnrollment[enrollmentID]; ok {
		return cert, nil
	}
	return nil, sql.ErrNoRows
}

type mockCertEnrollmentRepo struct {
	enrollment *models.Enrollment
	casResult  *bool
}

func (m *mockCertEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if m.enrollment == nil || m.enrollment.ID != id {
		return nil, sql.ErrNoRows
	}
	loaded := *m.enrollment
	return &loaded, nil
}

func (m *mockCertEnrollmentRepo) MarkCertificateIssued(ctx context.Context, id string) (bool, error) {
	if m.casResult != nil {
		return *m.casResult, nil
	}
	if m.enrollment.CertificateIssued {
		return false, nil
	}
	m.enrollment.CertificateIssued = true
	return true, nil
}

type mockRenderScheduler struct {
	scheduled []string
}

func (m *mockRenderScheduler) ScheduleRender(certificate models.Certificate, enrollment models.Enrollment) error {
	m.scheduled = append(m.scheduled, certificate.ID)
	return nil
}

func completedEnrollment() *models.Enrollment {
	done := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	return &models.Enrollment{
		ID: "e1", StudentID: "s1", CourseID: "c1",
		IsCompleted: true, ProgressPercentage: 100, CompletionDate: &done,
	}
}

func TestIssueRejectsIncompleteEnrollment(t *testing.T) {
	certs := &mockCertificateRepo{}
	enrollments := &mockCertEnrollmentRepo{enrollment: &models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1"}}
	svc := NewCertificateService(certs, enrollments, nil, "https://lms.example.com/certificates", zap.NewNop())

	_, err := svc.Issue(context.Background(), "e1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotEligible))
	assert.Equal(t, 0, certs.createCalls)
}

func TestIssueCreatesCertificateWithDerivedURL(t *testing.T) {
	certs := &mockCertificateRepo{}
	enrollments := &mockCertEnrollmentRepo{enrollment: completedEnrollment()}
	renders := &mockRenderScheduler{}
	svc := NewCertificateService(certs, enrollments, renders, "https://lms.example.com/certificates/", zap.NewNop())

	certificate, err := svc.Issue(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "https://lms.example.com/certificates/e1-s1-c1", certificate.CertificateURL)
	assert.True(t, enrollments.enrollment.CertificateIssued)
	assert.Equal(t, []string{"cert-1"}, renders.scheduled)
}

func TestIssueTwiceReturnsExistingCertificate(t *testing.T) {
	certs := &mockCertificateRepo{}
	enrollments := &mockCertEnrollmentRepo{enrollment: completedEnrollment()}
	svc := NewCertificateService(certs, enrollments, nil, "https://lms.example.com/certificates", zap.NewNop())

	first, err := svc.Issue(context.Background(), "e1")
	require.NoError(t, err)

	second, err := svc.Issue(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, first.CertificateURL, second.CertificateURL)
	assert.Equal(t, 1, certs.createCalls)
}

func TestIssueRaceLoserGetsWinnersCertificate(t *testing.T) {
	certs := &mockCertificateRepo{byEnrollment: map[string]*models.Certificate{
		"e1": {ID: "cert-0", EnrollmentID: "e1", CertificateURL: "https://lms.example.com/certificates/e1-s1-c1"},
	}}
	lost := false
	enrollments := &mockCertEnrollmentRepo{enrollment: completedEnrollment(), casResult: &lost}
	svc := NewCertificateService(certs, enrollments, nil, "https://lms.example.com/certificates", zap.NewNop())

	certificate, err := svc.Issue(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "cert-0", certificate.ID)
	assert.Equal(t, 0, certs.createCalls)
}

func TestIssueRepairsFlagWithoutRecord(t *testing.T) {
	certs := &mockCertificateRepo{}
	enrollment := completedEnrollment()
	enrollment.CertificateIssued = true
	enrollments := &mockCertEnrollmentRepo{enrollment: enrollment}
	svc := NewCertificateService(certs, enrollments, nil, "https://lms.example.com/certificates", zap.NewNop())

	certificate, err := svc.Issue(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, certs.createCalls)
	assert.Equal(t, "https://lms.example.com/certificates/e1-s1-c1", certificate.CertificateURL)
}

func TestIssueUnknownEnrollment(t *testing.T) {
	certs := &mockCertificateRepo{}
	enrollments := &mockCertEnrollmentRepo{}
	svc := NewCertificateService(certs, enrollments, nil, "https://lms.example.com/certificates", zap.NewNop())

	_, err := svc.Issue(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}

func TestGetCertificateNotFound(t *testing.T) {
	certs := &mockCertificateRepo{}
	enrollments := &mockCertEnrollmentRepo{enrollment: completedEnrollment()}
	svc := NewCertificateService(certs, enrollments, nil, "https://lms.example.com/certificates", zap.NewNop())

	_, err := svc.Get(context.Background(), "e1")
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))
}
