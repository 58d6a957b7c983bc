package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/mavericks-lms/lms-api/internal/models"
)

func newEnrollmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "enrolled_at", "completion_date",
		"progress_percentage", "is_completed", "certificate_issued", "version", "created_at", "updated_at"}).
		AddRow("e1", "s1", "c1", now, nil, 75.0, false, false, int64(3), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE id = $1")).
		WithArgs("e1").
		WillReturnRows(rows)

	enrollment, err := repo.FindByID(context.Background(), "e1")
	require.NoError(t, err)
	require.Equal(t, 75.0, enrollment.ProgressPercentage)
	require.Equal(t, int64(3), enrollment.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateProgressBumpsVersion(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	enrollment := &models.Enrollment{ID: "e1", ProgressPercentage: 50, Version: 2}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments")).
		WithArgs(50.0, false, nil, sqlmock.AnyArg(), "e1", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateProgress(context.Background(), enrollment)
	require.NoError(t, err)
	require.Equal(t, int64(3), enrollment.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateProgressVersionConflict(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	enrollment := &models.Enrollment{ID: "e1", ProgressPercentage: 50, Version: 2}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments")).
		WithArgs(50.0, false, nil, sqlmock.AnyArg(), "e1", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateProgress(context.Background(), enrollment)
	require.ErrorIs(t, err, ErrVersionConflict)
	require.Equal(t, int64(2), enrollment.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryMarkCertificateIssuedWinner(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("certificate_issued = FALSE")).
		WithArgs(sqlmock.AnyArg(), "e1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	won, err := repo.MarkCertificateIssued(context.Background(), "e1")
	require.NoError(t, err)
	require.True(t, won)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryMarkCertificateIssuedLoser(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("certificate_issued = FALSE")).
		WithArgs(sqlmock.AnyArg(), "e1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err := repo.MarkCertificateIssued(context.Background(), "e1")
	require.NoError(t, err)
	require.False(t, won)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListContentProgress(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "enrollment_id", "content_id", "is_completed",
		"progress_percentage", "last_accessed_at", "completed_at", "created_at", "updated_at"}).
		AddRow("cp1", "e1", "u1", true, 100.0, now, now, now, now).
		AddRow("cp2", "e1", "u2", false, 40.0, now, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM content_progress WHERE enrollment_id = $1")).
		WithArgs("e1").
		WillReturnRows(rows)

	units, err := repo.ListContentProgress(context.Background(), "e1")
	require.NoError(t, err)
	require.Len(t, units, 2)
	require.True(t, units[0].IsCompleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
