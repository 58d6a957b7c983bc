package models

import "time"

// Answer records a student's submission against a question. IsCorrect stays
// nil until the answer has been graded, automatically or by an instructor.
type Answer struct {
	ID               string     `db:"id" json:"id"`
	StudentID        string     `db:"student_id" json:"student_id"`
	QuestionID       string     `db:"question_id" json:"question_id"`
	SelectedOptionID *string    `db:"selected_option_id" json:"selected_option_id,omitempty"`
	EssayAnswer      *string    `db:"essay_answer" json:"essay_answer,omitempty"`
	IsCorrect        *bool      `db:"is_correct" json:"is_correct,omitempty"`
	PointsEarned     int        `db:"points_earned" json:"points_earned"`
	SubmittedAt      time.Time  `db:"submitted_at" json:"submitted_at"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// AnswerFilter scopes answer listings.
type AnswerFilter struct {
	StudentID  string
	QuestionID string
}
