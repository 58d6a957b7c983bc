package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mavericks-lms/lms-api/internal/models"
)

// AnswerRepository handles persistence of student answers.
type AnswerRepository struct {
	db *sqlx.DB
}

// NewAnswerRepository constructs the repository.
func NewAnswerRepository(db *sqlx.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// FindByID returns an answer by its ID.
func (r *AnswerRepository) FindByID(ctx context.Context, id string) (*models.Answer, error) {
	const query = `SELECT id, student_id, question_id, selected_option_id, essay_answer, is_correct,
        points_earned, submitted_at, created_at, updated_at
        FROM student_answers WHERE id = $1`
	var answer models.Answer
	if err := r.db.GetContext(ctx, &answer, query, id); err != nil {
		return nil, err
	}
	return &answer, nil
}

// List returns answers matching the filter, newest submissions first.
func (r *AnswerRepository) List(ctx context.Context, filter models.AnswerFilter) ([]models.Answer, error) {
	query := `SELECT id, student_id, question_id, selected_option_id, essay_answer, is_correct,
        points_earned, submitted_at, created_at, updated_at
        FROM student_answers WHERE 1=1`
	var args []interface{}
	if filter.StudentID != "" {
		query += fmt.Sprintf(" AND student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	if filter.QuestionID != "" {
		query += fmt.Sprintf(" AND question_id = $%d", len(args)+1)
		args = append(args, filter.QuestionID)
	}
	query += " ORDER BY submitted_at DESC"
	var answers []models.Answer
	if err := r.db.SelectContext(ctx, &answers, query, args...); err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return answers, nil
}

// Upsert inserts the answer or replaces the existing submission for the same
// (student, question) pair. The unique constraint keeps one answer per pair.
func (r *AnswerRepository) Upsert(ctx context.Context, answer *models.Answer) error {
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = now
	}
	answer.UpdatedAt = now
	const query = `INSERT INTO student_answers (id, student_id, question_id, selected_option_id, essay_answer,
        is_correct, points_earned, submitted_at, created_at, updated_at)
        VALUES (:id, :student_id, :question_id, :selected_option_id, :essay_answer,
        :is_correct, :points_earned, :submitted_at, :created_at, :updated_at)
        ON CONFLICT (student_id, question_id)
        DO UPDATE SET selected_option_id = EXCLUDED.selected_option_id,
            essay_answer = EXCLUDED.essay_answer,
            is_correct = EXCLUDED.is_correct,
            points_earned = EXCLUDED.points_earned,
            submitted_at = EXCLUDED.submitted_at,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, answer); err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}
	return nil
}

// UpdateGrade persists the grading outcome of an answer.
func (r *AnswerRepository) UpdateGrade(ctx context.Context, answer *models.Answer) error {
	answer.UpdatedAt = time.Now().UTC()
	const query = `UPDATE student_answers
        SET is_correct = :is_correct, points_earned = :points_earned, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, answer); err != nil {
		return fmt.Errorf("update answer grade: %w", err)
	}
	return nil
}
