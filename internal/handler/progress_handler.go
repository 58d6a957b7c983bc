package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mavericks-lms/lms-api/internal/service"
	appErrors "github.com/mavericks-lms/lms-api/pkg/errors"
	"github.com/mavericks-lms/lms-api/pkg/response"
)

// ProgressHandler exposes enrollment progress endpoints.
type ProgressHandler struct {
	progress *service.ProgressService
}

// NewProgressHandler constructs handler.
func NewProgressHandler(progress *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// Get godoc
// @Summary Get enrollment progress summary
// @Tags Progress
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/progress [get]
func (h *ProgressHandler) Get(c *gin.Context) {
	summary, err := h.progress.GetProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// UpdateContent godoc
// @Summary Report partial progress on a content unit
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body service.UpdateContentProgressRequest true "Progress payload"
// @Success 200 {object} response.Envelope
// @Router /progress [post]
func (h *ProgressHandler) UpdateContent(c *gin.Context) {
	var req service.UpdateContentProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	progress, err := h.progress.UpdateContentProgress(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// CompleteContent godoc
// @Summary Mark a content unit completed
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body service.MarkContentCompletedRequest true "Completion payload"
// @Success 200 {object} response.Envelope
// @Router /progress/complete [post]
func (h *ProgressHandler) CompleteContent(c *gin.Context) {
	var req service.MarkContentCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	progress, err := h.progress.MarkContentCompleted(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// Recalculate godoc
// @Summary Force a progress recalculation
// @Tags Progress
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/progress/recalculate [post]
func (h *ProgressHandler) Recalculate(c *gin.Context) {
	enrollment, err := h.progress.Recalculate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}
