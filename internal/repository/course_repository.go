package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/mavericks-lms/lms-api/internal/models"
)

// CourseRepository reads the course data the settlement and certificate flows
// depend on. Course authoring lives outside this service.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, instructor_id, title, price, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListInstructors returns the instructors sharing a course's revenue. Courses
// currently carry a single instructor; the slice shape keeps the settlement
// fan-out ready for co-instructors.
func (r *CourseRepository) ListInstructors(ctx context.Context, courseID string) ([]string, error) {
	const query = `SELECT instructor_id FROM courses WHERE id = $1`
	var instructors []string
	if err := r.db.SelectContext(ctx, &instructors, query, courseID); err != nil {
		return nil, err
	}
	return instructors, nil
}
