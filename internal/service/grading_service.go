package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mavericks-lms/lms-api/internal/models"
	appErrors "github.com/mavericks-lms/lms-api/pkg/errors"
)

type answerRepo interface {
	FindByID(ctx context.Context, id string) (*models.Answer, error)
	List(ctx context.Context, filter models.AnswerFilter) ([]models.Answer, error)
	Upsert(ctx context.Context, answer *models.Answer) error
	UpdateGrade(ctx context.Context, answer *models.Answer) error
}

type questionReader interface {
	FindByID(ctx context.Context, id string) (*models.Question, error)
	ListOptions(ctx context.Context, questionID string) ([]models.QuestionOption, error)
}

// SubmitAnswerRequest describes a student's answer submission.
type SubmitAnswerRequest struct {
	StudentID        string  `json:"student_id" validate:"required"`
	QuestionID       string  `json:"question_id" validate:"required"`
	SelectedOptionID *string `json:"selected_option_id,omitempty"`
	EssayAnswer      *string `json:"essay_answer,omitempty"`
}

// GradeEssayRequest carries an instructor's manual essay grade.
type GradeEssayRequest struct {
	AnswerID  string `json:"answer_id" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
	Points    int    `json:"points"`
}

// GradingService grades submitted answers against their questions.
type GradingService struct {
	answers   answerRepo
	questions questionReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradingService constructs GradingService.
func NewGradingService(answers answerRepo, questions questionReader, validate *validator.Validate, logger *zap.Logger) *GradingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingService{answers: answers, questions: questions, validator: validate, logger: logger}
}

// SubmitAnswer records the (student, question) answer and auto-grades it.
// Resubmissions replace the previous answer for the same pair.
func (s *GradingService) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (*models.Answer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid answer payload")
	}
	question, err := s.questions.FindByID(ctx, req.QuestionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	options, err := s.questions.ListOptions(ctx, question.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question options")
	}
	if req.SelectedOptionID != nil && !optionBelongsToQuestion(options, *req.SelectedOptionID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "selected option does not belong to question")
	}

	answer := &models.Answer{
		StudentID:        req.StudentID,
		QuestionID:       req.QuestionID,
		SelectedOptionID: req.SelectedOptionID,
		EssayAnswer:      req.EssayAnswer,
		SubmittedAt:      time.Now().UTC(),
	}
	if err := gradeAnswer(answer, question, options); err != nil {
		return nil, err
	}
	if err := s.answers.Upsert(ctx, answer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save answer")
	}
	return answer, nil
}

// GradeEssay applies an instructor's manual grade to an essay answer. Points
// are clamped to [0, question.Points]; non-essay questions are rejected.
func (s *GradingService) GradeEssay(ctx context.Context, req GradeEssayRequest) (*models.Answer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid essay grade payload")
	}
	answer, err := s.answers.FindByID(ctx, req.AnswerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "answer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load answer")
	}
	question, err := s.questions.FindByID(ctx, answer.QuestionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	if !question.IsEssay() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "question is not manually graded")
	}

	points := req.Points
	if points < 0 {
		points = 0
	}
	if points > question.Points {
		points = question.Points
	}
	isCorrect := req.IsCorrect
	answer.IsCorrect = &isCorrect
	answer.PointsEarned = points

	if err := s.answers.UpdateGrade(ctx, answer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save essay grade")
	}
	return answer, nil
}

// ListAnswers returns graded and ungraded answers for review.
func (s *GradingService) ListAnswers(ctx context.Context, filter models.AnswerFilter) ([]models.Answer, error) {
	answers, err := s.answers.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list answers")
	}
	return answers, nil
}

// gradeAnswer applies the automatic grading rules. A missing selection or
// blank text is an incorrect answer, not an error. Essay answers stay
// ungraded until an instructor grades them.
func gradeAnswer(answer *models.Answer, question *models.Question, options []models.QuestionOption) error {
	switch question.Type {
	case models.QuestionTypeMultipleChoice, models.QuestionTypeTrueFalse:
		correct := false
		if answer.SelectedOptionID != nil {
			for _, option := range options {
				if option.ID == *answer.SelectedOptionID {
					correct = option.IsCorrect
					break
				}
			}
		}
		setGrade(answer, correct, question.Points)
	case models.QuestionTypeFillBlank:
		correct := false
		if answer.EssayAnswer != nil {
			submitted := strings.TrimSpace(*answer.EssayAnswer)
			for _, option := range options {
				if option.IsCorrect && strings.EqualFold(strings.TrimSpace(option.Text), submitted) {
					correct = true
					break
				}
			}
		}
		setGrade(answer, correct, question.Points)
	case models.QuestionTypeEssay:
		// Manual grading only.
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown question type")
	}
	return nil
}

func setGrade(answer *models.Answer, correct bool, points int) {
	answer.IsCorrect = &correct
	if correct {
		answer.PointsEarned = points
	} else {
		answer.PointsEarned = 0
	}
}

func optionBelongsToQuestion(options []models.QuestionOption, optionID string) bool {
	for _, option := range options {
		if option.ID == optionID {
			return true
		}
	}
	return false
}
