package models

import "time"

// QuestionType enumerates the supported assessment question kinds.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionTypeFillBlank      QuestionType = "FILL_BLANK"
	QuestionTypeEssay          QuestionType = "ESSAY"
)

// Question represents a quiz or assessment question attached to a content unit.
type Question struct {
	ID        string           `db:"id" json:"id"`
	ContentID string           `db:"content_id" json:"content_id"`
	Text      string           `db:"question_text" json:"text"`
	Type      QuestionType     `db:"question_type" json:"type"`
	Points    int              `db:"points" json:"points"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
	Options   []QuestionOption `json:"options,omitempty"`
}

// IsEssay reports whether the question requires manual grading.
func (q Question) IsEssay() bool {
	return q.Type == QuestionTypeEssay
}

// QuestionOption is a selectable answer option belonging to one question.
type QuestionOption struct {
	ID          string    `db:"id" json:"id"`
	QuestionID  string    `db:"question_id" json:"question_id"`
	Text        string    `db:"option_text" json:"text"`
	IsCorrect   bool      `db:"is_correct" json:"is_correct"`
	Explanation *string   `db:"explanation" json:"explanation,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
