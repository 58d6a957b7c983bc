package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mavericks-lms/lms-api/internal/models"
)

// ErrVersionConflict signals that a conditional enrollment update lost an
// optimistic concurrency race and should be retried with fresh state.
var ErrVersionConflict = fmt.Errorf("enrollment version conflict")

// EnrollmentRepository handles persistence of enrollments and their content
// progress records.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, enrolled_at, completion_date, progress_percentage,
        is_completed, certificate_issued, version, created_at, updated_at
        FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Create inserts a new enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	const query = `INSERT INTO enrollments (id, student_id, course_id, enrolled_at, completion_date,
        progress_percentage, is_completed, certificate_issued, version, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :enrolled_at, :completion_date,
        :progress_percentage, :is_completed, :certificate_issued, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateProgress writes the derived progress fields conditionally on the
// version the caller loaded. Returns ErrVersionConflict when a concurrent
// recalculation won the race.
func (r *EnrollmentRepository) UpdateProgress(ctx context.Context, enrollment *models.Enrollment) error {
	const query = `UPDATE enrollments
        SET progress_percentage = $1, is_completed = $2, completion_date = $3,
            version = version + 1, updated_at = $4
        WHERE id = $5 AND version = $6`
	result, err := r.db.ExecContext(ctx, query,
		enrollment.ProgressPercentage,
		enrollment.IsCompleted,
		enrollment.CompletionDate,
		time.Now().UTC(),
		enrollment.ID,
		enrollment.Version,
	)
	if err != nil {
		return fmt.Errorf("update enrollment progress: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update enrollment progress: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	enrollment.Version++
	return nil
}

// MarkCertificateIssued flips the certificate_issued flag with compare-and-set
// semantics. Returns true only for the caller that performed the transition.
func (r *EnrollmentRepository) MarkCertificateIssued(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE enrollments
        SET certificate_issued = TRUE, updated_at = $1
        WHERE id = $2 AND certificate_issued = FALSE`
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return false, fmt.Errorf("mark certificate issued: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark certificate issued: %w", err)
	}
	return affected > 0, nil
}

// FindContentProgressByUnit returns the progress row of one enrollment's
// content unit.
func (r *EnrollmentRepository) FindContentProgressByUnit(ctx context.Context, enrollmentID, contentID string) (*models.ContentProgress, error) {
	const query = `SELECT id, enrollment_id, content_id, is_completed, progress_percentage,
        last_accessed_at, completed_at, created_at, updated_at
        FROM content_progress WHERE enrollment_id = $1 AND content_id = $2`
	var progress models.ContentProgress
	if err := r.db.GetContext(ctx, &progress, query, enrollmentID, contentID); err != nil {
		return nil, err
	}
	return &progress, nil
}

// FindContentProgressByID returns a single content progress record.
func (r *EnrollmentRepository) FindContentProgressByID(ctx context.Context, id string) (*models.ContentProgress, error) {
	const query = `SELECT id, enrollment_id, content_id, is_completed, progress_percentage,
        last_accessed_at, completed_at, created_at, updated_at
        FROM content_progress WHERE id = $1`
	var progress models.ContentProgress
	if err := r.db.GetContext(ctx, &progress, query, id); err != nil {
		return nil, err
	}
	return &progress, nil
}

// ListContentProgress returns all content progress rows of an enrollment.
func (r *EnrollmentRepository) ListContentProgress(ctx context.Context, enrollmentID string) ([]models.ContentProgress, error) {
	const query = `SELECT id, enrollment_id, content_id, is_completed, progress_percentage,
        last_accessed_at, completed_at, created_at, updated_at
        FROM content_progress WHERE enrollment_id = $1 ORDER BY created_at ASC`
	var progresses []models.ContentProgress
	if err := r.db.SelectContext(ctx, &progresses, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list content progress: %w", err)
	}
	return progresses, nil
}

// UpsertContentProgress inserts a content progress row or updates the existing
// one for the same (enrollment, content) pair.
func (r *EnrollmentRepository) UpsertContentProgress(ctx context.Context, progress *models.ContentProgress) error {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if progress.CreatedAt.IsZero() {
		progress.CreatedAt = now
	}
	progress.UpdatedAt = now
	const query = `INSERT INTO content_progress (id, enrollment_id, content_id, is_completed,
        progress_percentage, last_accessed_at, completed_at, created_at, updated_at)
        VALUES (:id, :enrollment_id, :content_id, :is_completed,
        :progress_percentage, :last_accessed_at, :completed_at, :created_at, :updated_at)
        ON CONFLICT (enrollment_id, content_id)
        DO UPDATE SET is_completed = EXCLUDED.is_completed,
            progress_percentage = EXCLUDED.progress_percentage,
            last_accessed_at = EXCLUDED.last_accessed_at,
            completed_at = EXCLUDED.completed_at,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, progress); err != nil {
		return fmt.Errorf("upsert content progress: %w", err)
	}
	return nil
}
