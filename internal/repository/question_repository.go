package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mavericks-lms/lms-api/internal/models"
)

// QuestionRepository handles persistence of questions and their options.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository constructs the repository.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// FindByID returns a question by its ID, without options.
func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	const query = `SELECT id, content_id, question_text, question_type, points, created_at, updated_at
        FROM questions WHERE id = $1`
	var question models.Question
	if err := r.db.GetContext(ctx, &question, query, id); err != nil {
		return nil, err
	}
	return &question, nil
}

// ListOptions returns the options of a question in insertion order.
func (r *QuestionRepository) ListOptions(ctx context.Context, questionID string) ([]models.QuestionOption, error) {
	const query = `SELECT id, question_id, option_text, is_correct, explanation, created_at, updated_at
        FROM question_options WHERE question_id = $1 ORDER BY created_at ASC`
	var options []models.QuestionOption
	if err := r.db.SelectContext(ctx, &options, query, questionID); err != nil {
		return nil, fmt.Errorf("list question options: %w", err)
	}
	return options, nil
}
