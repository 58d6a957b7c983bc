package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mavericks-lms/lms-api/internal/models"
	"github.com/mavericks-lms/lms-api/internal/repository"
)

type mockProgressRepo struct {
	enrollment *models.Enrollment
	units      map[string]*models.ContentProgress

	updateCalls int
	conflicts   int
}

func (m *mockProgressRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if m.enrollment == nil || m.enrollment.ID != id {
		return nil, sql.ErrNoRows
	}
	loaded := *m.enrollment
	return &loaded, nil
}

func (m *mockProgressRepo) UpdateProgress(ctx context.Context, enrollment *models.Enrollment) error {
	m.updateCalls++
	if m.conflicts > 0 {
		m.conflicts--
		return repository.ErrVersionConflict
	}
	updated := *enrollment
	updated.Version++
	m.enrollment = &updated
	enrollment.Version++
	return nil
}

func (m *mockProgressRepo) FindContentProgressByUnit(ctx context.Context, enrollmentID, contentID string) (*models.ContentProgress, error) {
	if unit, ok := m.units[contentID]; ok {
		loaded := *unit
		return &loaded, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProgressRepo) ListContentProgress(ctx context.Context, enrollmentID string) ([]models.ContentProgress, error) {
	var result []models.ContentProgress
	for _, unit := range m.units {
		result = append(result, *unit)
	}
	return result, nil
}

func (m *mockProgressRepo) UpsertContentProgress(ctx context.Context, progress *models.ContentProgress) error {
	if m.units == nil {
		m.units = make(map[string]*models.ContentProgress)
	}
	stored := *progress
	m.units[progress.ContentID] = &stored
	return nil
}

func newProgressFixture(completed, total int) *mockProgressRepo {
	units := make(map[string]*models.ContentProgress, total)
	for i := 0; i < total; i++ {
		id := string(rune('a' + i))
		units[id] = &models.ContentProgress{
			ID: "cp-" + id, EnrollmentID: "e1", ContentID: id,
			IsCompleted: i < completed,
		}
	}
	return &mockProgressRepo{
		enrollment: &models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1", Version: 1},
		units:      units,
	}
}

func TestRecalculatePartialCompletion(t *testing.T) {
	repo := newProgressFixture(3, 4)
	svc := NewProgressService(repo, nil, 3, validator.New(), zap.NewNop())

	enrollment, err := svc.Recalculate(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 75.0, enrollment.ProgressPercentage)
	assert.False(t, enrollment.IsCompleted)
	assert.Nil(t, enrollment.CompletionDate)
}

func TestRecalculateRoundsHalfUp(t *testing.T) {
	repo := newProgressFixture(2, 3)
	svc := NewProgressService(repo, nil, 3, validator.New(), zap.NewNop())

	enrollment, err := svc.Recalculate(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 66.67, enrollment.ProgressPercentage)
}

func TestRecalculateFullCompletionStampsDate(t *testing.T) {
	repo := newProgressFixture(2, 2)
	svc := NewProgressService(repo, nil, 3, validator.New(), zap.NewNop())
	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return stamp }

	enrollment, err := svc.Recalculate(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, enrollment.ProgressPercentage)
	assert.True(t, enrollment.IsCompleted)
	require.NotNil(t, enrollment.CompletionDate)
	assert.Equal(t, stamp, *enrollment.CompletionDate)
}

func TestRecalculateCompletionDateStampedOnce(t *testing.T) {
	repo := newProgressFixture(2, 2)
	svc := NewProgressService(repo, nil, 3, validator.New(), zap.NewNop())
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }

	_, err := svc.Recalculate(context.Background(), "e1")
	require.NoError(t, err)

	svc.now = func() time.Time { return first.Add(48 * time.Hour) }
	enrollment, err := svc.Recalculate(context.Background(), "e1")
	require.NoError(t, err)
	require.NotNil(t, enrollment.CompletionDate)
	assert.Equal(t, first, *enrollment.CompletionDate)
}

func TestRecalculateEmptyUnitSet(t *testing.T) {
	repo := newProgressFixture(0, 0)
	svc := NewProgressService(repo, nil, 3, validator.New(), zap.NewNop())

	enrollment, err := svc.Recalculate(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, enrollment.ProgressPercentage)
	assert.False(t, enrollment.IsCompleted)
	assert.Equal(t, 0, repo.updateCalls)
}

func TestRecalculateRetriesOnVersionConflict(t *testing.T) {
	repo := newProgressFixture(1, 2)
	repo.conflicts = 1
	svc := NewProgressService(repo, nil, 3, validator.New(), zap.NewNop())

	enrollment, err := svc.Recalculate(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 50.0, enrollment.ProgressPercentage)
	assert.Equal(t, 2, repo.updateCalls)
}

func TestRecalculateGivesUpAfterRetries(t *testing.T) {
	repo := newProgressFixture(1, 2)
	repo.conflicts = 10
	svc := NewProgressService(repo, nil, 3, validator.New(), zap.NewNop())

	_, err := svc.Recalculate(context.Background(), "e1")
	require.Error(t, err)
	assert.Equal(t, 3, repo.updateCalls)
}

func TestRecalculateUnknownEnrollment(t *testing.T) {
	repo := newProgressFixture(0, 1)
	svc := NewProgressService(repo, nil, 3, validator.New(), zap.NewNop())

	_, err := svc.Recalculate(context.Background(), "missing")
	require.Error(t, err)
}

func TestMarkContentCompletedAggregates(t *testing.T) {
	repo := newProgressFixture(1, 2)
	svc := NewProgressService(repo, nil, 3, validator.New(), zap.NewNop())

	unit, err := svc.MarkContentCompleted(context.Background(), MarkContentCompletedRequest{EnrollmentID: "e1", ContentID: "b"})
	require.NoError(t, err)
	assert.True(t, unit.IsCompleted)
	assert.Equal(t, 100.0, unit.ProgressPercentage)
	require.NotNil(t, unit.CompletedAt)

	assert.Equal(t, 100.0, repo.enrollment.ProgressPercentage)
	assert.True(t, repo.enrollment.IsCompleted)
}

func TestMarkContentCompletedIdempotent(t *testing.T) {
	repo := newProgressFixture(2, 2)
	completedAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	repo.units["a"].CompletedAt = &completedAt
	svc := NewProgressService(repo, nil, 3, validator.New(), zap.NewNop())

	unit, err := svc.MarkContentCompleted(context.Background(), MarkContentCompletedRequest{EnrollmentID: "e1", ContentID: "a"})
	require.NoError(t, err)
	assert.True(t, unit.IsCompleted)
	require.NotNil(t, unit.CompletedAt)
	assert.Equal(t, completedAt, *unit.CompletedAt)
}

func TestUpdateContentProgressClampsAndDelegates(t *testing.T) {
	repo := newProgressFixture(0, 1)
	svc := NewProgressService(repo, nil, 3, validator.New(), zap.NewNop())

	unit, err := svc.UpdateContentProgress(context.Background(), UpdateContentProgressRequest{EnrollmentID: "e1", ContentID: "a", Percentage: 42.5})
	require.NoError(t, err)
	assert.False(t, unit.IsCompleted)
	assert.Equal(t, 42.5, unit.ProgressPercentage)

	unit, err = svc.UpdateContentProgress(context.Background(), UpdateContentProgressRequest{EnrollmentID: "e1", ContentID: "a", Percentage: 150})
	require.NoError(t, err)
	assert.True(t, unit.IsCompleted)
	assert.Equal(t, 100.0, unit.ProgressPercentage)
}

func TestGetProgressSummary(t *testing.T) {
	repo := newProgressFixture(3, 4)
	svc := NewProgressService(repo, nil, 3, validator.New(), zap.NewNop())

	_, err := svc.Recalculate(context.Background(), "e1")
	require.NoError(t, err)

	summary, err := svc.GetProgress(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "e1", summary.EnrollmentID)
	assert.Equal(t, 75.0, summary.ProgressPercentage)
	assert.Equal(t, 4, summary.TotalUnits)
	assert.Equal(t, 3, summary.CompletedUnits)
}
