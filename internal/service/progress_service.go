package service

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mavericks-lms/lms-api/internal/models"
	"github.com/mavericks-lms/lms-api/internal/repository"
	appErrors "github.com/mavericks-lms/lms-api/pkg/errors"
)

type progressRepo interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	UpdateProgress(ctx context.Context, enrollment *models.Enrollment) error
	FindContentProgressByUnit(ctx context.Context, enrollmentID, contentID string) (*models.ContentProgress, error)
	ListContentProgress(ctx context.Context, enrollmentID string) ([]models.ContentProgress, error)
	UpsertContentProgress(ctx context.Context, progress *models.ContentProgress) error
}

type summaryCache interface {
	Get(ctx context.Context, enrollmentID string) (*models.ProgressSummary, bool)
	Set(ctx context.Context, summary *models.ProgressSummary)
	Invalidate(ctx context.Context, enrollmentID string)
}

// UpdateContentProgressRequest reports partial progress on one content unit.
type UpdateContentProgressRequest struct {
	EnrollmentID string  `json:"enrollment_id" validate:"required"`
	ContentID    string  `json:"content_id" validate:"required"`
	Percentage   float64 `json:"percentage"`
}

// MarkContentCompletedRequest marks one content unit as fully completed.
type MarkContentCompletedRequest struct {
	EnrollmentID string `json:"enrollment_id" validate:"required"`
	ContentID    string `json:"content_id" validate:"required"`
}

// ProgressService derives enrollment-level completion from content progress.
// Enrollment progress fields are only ever written here.
type ProgressService struct {
	enrollments progressRepo
	cache       summaryCache
	validator   *validator.Validate
	logger      *zap.Logger
	retries     int
	now         func() time.Time
}

// NewProgressService constructs ProgressService. The cache may be nil.
func NewProgressService(enrollments progressRepo, cache summaryCache, retries int, validate *validator.Validate, logger *zap.Logger) *ProgressService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if retries <= 0 {
		retries = 3
	}
	if cache == nil {
		cache = (*ProgressCache)(nil)
	}
	return &ProgressService{
		enrollments: enrollments,
		cache:       cache,
		validator:   validate,
		logger:      logger,
		retries:     retries,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Recalculate recomputes the enrollment's derived progress from its content
// progress set. The write is conditional on the enrollment version loaded at
// the start of the cycle and the whole cycle retries on conflict, so
// concurrent recalculations never produce a lost update.
func (s *ProgressService) Recalculate(ctx context.Context, enrollmentID string) (*models.Enrollment, error) {
	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
		}
		units, err := s.enrollments.ListContentProgress(ctx, enrollmentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content progress")
		}

		if !applyAggregate(enrollment, units, s.now()) {
			s.cache.Invalidate(ctx, enrollmentID)
			return enrollment, nil
		}
		if err := s.enrollments.UpdateProgress(ctx, enrollment); err != nil {
			if err == repository.ErrVersionConflict {
				lastErr = err
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save enrollment progress")
		}
		s.cache.Invalidate(ctx, enrollmentID)
		return enrollment, nil
	}
	return nil, appErrors.Wrap(lastErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "enrollment progress recalculation kept conflicting")
}

// MarkContentCompleted marks one content unit completed and recalculates the
// owning enrollment. Marking an already completed unit is a no-op apart from
// the recalculation.
func (s *ProgressService) MarkContentCompleted(ctx context.Context, req MarkContentCompletedRequest) (*models.ContentProgress, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid completion payload")
	}
	progress, err := s.loadOrNewUnit(ctx, req.EnrollmentID, req.ContentID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !progress.IsCompleted {
		progress.IsCompleted = true
		progress.ProgressPercentage = 100
		progress.CompletedAt = &now
	}
	progress.LastAccessedAt = &now
	if err := s.enrollments.UpsertContentProgress(ctx, progress); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save content progress")
	}
	if _, err := s.Recalculate(ctx, req.EnrollmentID); err != nil {
		return nil, err
	}
	return progress, nil
}

// UpdateContentProgress records partial progress on one content unit. The
// percentage is clamped to [0,100]; reaching 100 delegates to the completed
// path. The enrollment aggregate is recalculated either way.
func (s *ProgressService) UpdateContentProgress(ctx context.Context, req UpdateContentProgressRequest) (*models.ContentProgress, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload")
	}
	percentage := clampPercentage(req.Percentage)
	if percentage == 100 {
		return s.MarkContentCompleted(ctx, MarkContentCompletedRequest{EnrollmentID: req.EnrollmentID, ContentID: req.ContentID})
	}
	progress, err := s.loadOrNewUnit(ctx, req.EnrollmentID, req.ContentID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	progress.ProgressPercentage = percentage
	progress.LastAccessedAt = &now
	if err := s.enrollments.UpsertContentProgress(ctx, progress); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save content progress")
	}
	if _, err := s.Recalculate(ctx, req.EnrollmentID); err != nil {
		return nil, err
	}
	return progress, nil
}

// GetProgress returns the enrollment progress summary, served from the cache
// when fresh.
func (s *ProgressService) GetProgress(ctx context.Context, enrollmentID string) (*models.ProgressSummary, error) {
	if summary, ok := s.cache.Get(ctx, enrollmentID); ok {
		return summary, nil
	}
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	units, err := s.enrollments.ListContentProgress(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content progress")
	}
	completed := 0
	for _, unit := range units {
		if unit.IsCompleted {
			completed++
		}
	}
	summary := &models.ProgressSummary{
		EnrollmentID:       enrollment.ID,
		ProgressPercentage: enrollment.ProgressPercentage,
		IsCompleted:        enrollment.IsCompleted,
		CompletionDate:     enrollment.CompletionDate,
		TotalUnits:         len(units),
		CompletedUnits:     completed,
		Units:              units,
	}
	s.cache.Set(ctx, summary)
	return summary, nil
}

func (s *ProgressService) loadOrNewUnit(ctx context.Context, enrollmentID, contentID string) (*models.ContentProgress, error) {
	if _, err := s.enrollments.FindByID(ctx, enrollmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	progress, err := s.enrollments.FindContentProgressByUnit(ctx, enrollmentID, contentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.ContentProgress{EnrollmentID: enrollmentID, ContentID: contentID}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content progress")
	}
	return progress, nil
}

// applyAggregate recomputes the derived enrollment fields from the content
// progress set and reports whether anything changed. A unit counts toward the
// aggregate only once completed; partial unit percentages are ignored by
// design. The completion date is stamped on the first completion and never
// cleared, even if completion is later lost.
func applyAggregate(enrollment *models.Enrollment, units []models.ContentProgress, now time.Time) bool {
	percentage := 0.0
	completedCount := 0
	for _, unit := range units {
		if unit.IsCompleted {
			completedCount++
		}
	}
	if len(units) > 0 && completedCount > 0 {
		percentage = roundHalfUp(float64(completedCount) / float64(len(units)) * 100)
	}

	isCompleted := enrollment.IsCompleted
	if len(units) > 0 {
		isCompleted = percentage == 100
	}

	changed := enrollment.ProgressPercentage != percentage || enrollment.IsCompleted != isCompleted
	enrollment.ProgressPercentage = percentage
	enrollment.IsCompleted = isCompleted
	if isCompleted && enrollment.CompletionDate == nil {
		stamped := now
		enrollment.CompletionDate = &stamped
		changed = true
	}
	return changed
}

func clampPercentage(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// roundHalfUp rounds to two decimals with ties moving away from zero.
func roundHalfUp(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
