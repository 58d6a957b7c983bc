package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mavericks-lms/lms-api/internal/models"
	"github.com/mavericks-lms/lms-api/internal/service"
	appErrors "github.com/mavericks-lms/lms-api/pkg/errors"
	"github.com/mavericks-lms/lms-api/pkg/response"
)

// PaymentHandler exposes payment and payout endpoints.
type PaymentHandler struct {
	payments *service.PaymentService
	metrics  *service.MetricsService
}

// NewPaymentHandler constructs handler.
func NewPaymentHandler(payments *service.PaymentService, metrics *service.MetricsService) *PaymentHandler {
	return &PaymentHandler{payments: payments, metrics: metrics}
}

// Create godoc
// @Summary Open a pending payment for an enrollment
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.CreatePaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Router /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.payments.CreatePayment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// Get godoc
// @Summary Get a payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.payments.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// Process godoc
// @Summary Execute a pending payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id}/process [post]
func (h *PaymentHandler) Process(c *gin.Context) {
	payment, err := h.payments.ProcessPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrExternalExecution) {
			h.metrics.RecordPaymentProcessed(models.PaymentStatusFailed)
		}
		response.Error(c, err)
		return
	}
	h.metrics.RecordPaymentProcessed(payment.Status)
	response.JSON(c, http.StatusOK, payment, nil)
}

// Refund godoc
// @Summary Refund a completed payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id}/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	payment, err := h.payments.RefundPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}

// ListEarnings godoc
// @Summary List instructor earnings
// @Tags Earnings
// @Produce json
// @Param instructorId query string false "Filter by instructor"
// @Param paymentId query string false "Filter by payment"
// @Param status query string false "Filter by payout status"
// @Success 200 {object} response.Envelope
// @Router /earnings [get]
func (h *PaymentHandler) ListEarnings(c *gin.Context) {
	filter := models.EarningFilter{
		InstructorID: c.Query("instructorId"),
		PaymentID:    c.Query("paymentId"),
		Status:       models.EarningStatus(c.Query("status")),
	}
	earnings, err := h.payments.ListEarnings(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, earnings, nil)
}

// ProcessPayout godoc
// @Summary Move a pending earning into the payout pipeline
// @Tags Earnings
// @Produce json
// @Param id path string true "Earning ID"
// @Success 200 {object} response.Envelope
// @Router /earnings/{id}/process [post]
func (h *PaymentHandler) ProcessPayout(c *gin.Context) {
	earning, err := h.payments.ProcessPayout(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, earning, nil)
}

// MarkEarningPaid godoc
// @Summary Record that a processed earning was paid out
// @Tags Earnings
// @Produce json
// @Param id path string true "Earning ID"
// @Success 200 {object} response.Envelope
// @Router /earnings/{id}/paid [post]
func (h *PaymentHandler) MarkEarningPaid(c *gin.Context) {
	earning, err := h.payments.MarkEarningPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, earning, nil)
}
