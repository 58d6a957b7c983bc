package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mavericks-lms/lms-api/internal/models"
	"github.com/mavericks-lms/lms-api/internal/service"
	appErrors "github.com/mavericks-lms/lms-api/pkg/errors"
	"github.com/mavericks-lms/lms-api/pkg/response"
)

// GradingHandler exposes answer submission and grading endpoints.
type GradingHandler struct {
	grading *service.GradingService
	metrics *service.MetricsService
}

// NewGradingHandler constructs handler.
func NewGradingHandler(grading *service.GradingService, metrics *service.MetricsService) *GradingHandler {
	return &GradingHandler{grading: grading, metrics: metrics}
}

// SubmitAnswer godoc
// @Summary Submit and auto-grade an answer
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body service.SubmitAnswerRequest true "Answer payload"
// @Success 200 {object} response.Envelope
// @Router /answers [post]
func (h *GradingHandler) SubmitAnswer(c *gin.Context) {
	var req service.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	answer, err := h.grading.SubmitAnswer(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if answer.IsCorrect != nil {
		h.metrics.RecordAnswerGraded("auto")
	}
	response.JSON(c, http.StatusOK, answer, nil)
}

// GradeEssay godoc
// @Summary Apply a manual essay grade
// @Tags Grading
// @Accept json
// @Produce json
// @Param payload body service.GradeEssayRequest true "Essay grade payload"
// @Success 200 {object} response.Envelope
// @Router /answers/grade [post]
func (h *GradingHandler) GradeEssay(c *gin.Context) {
	var req service.GradeEssayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	answer, err := h.grading.GradeEssay(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordAnswerGraded("manual")
	response.JSON(c, http.StatusOK, answer, nil)
}

// ListAnswers godoc
// @Summary List answers for review
// @Tags Grading
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param questionId query string false "Filter by question"
// @Success 200 {object} response.Envelope
// @Router /answers [get]
func (h *GradingHandler) ListAnswers(c *gin.Context) {
	filter := models.AnswerFilter{StudentID: c.Query("studentId"), QuestionID: c.Query("questionId")}
	answers, err := h.grading.ListAnswers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, answers, nil)
}
