package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mavericks-lms/lms-api/internal/service"
	appErrors "github.com/mavericks-lms/lms-api/pkg/errors"
	"github.com/mavericks-lms/lms-api/pkg/response"
	"github.com/mavericks-lms/lms-api/pkg/storage"
)

// CertificateHandler exposes certificate issuance and download endpoints.
type CertificateHandler struct {
	certificates *service.CertificateService
	metrics      *service.MetricsService
	signer       *storage.SignedURLSigner
	storage      *storage.LocalStorage
}

// NewCertificateHandler constructs handler. Signer and storage may be nil when
// document downloads are disabled.
func NewCertificateHandler(certificates *service.CertificateService, metrics *service.MetricsService, signer *storage.SignedURLSigner, store *storage.LocalStorage) *CertificateHandler {
	return &CertificateHandler{certificates: certificates, metrics: metrics, signer: signer, storage: store}
}

// Issue godoc
// @Summary Issue the certificate for a completed enrollment
// @Tags Certificates
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 201 {object} response.Envelope
// @Router /enrollments/{id}/certificate [post]
func (h *CertificateHandler) Issue(c *gin.Context) {
	certificate, err := h.certificates.Issue(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordCertificateIssued()
	response.Created(c, certificate)
}

// Get godoc
// @Summary Get the certificate of an enrollment
// @Tags Certificates
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/certificate [get]
func (h *CertificateHandler) Get(c *gin.Context) {
	certificate, err := h.certificates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certificate, nil)
}

// DownloadLink godoc
// @Summary Create a signed download link for a rendered certificate
// @Tags Certificates
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/certificate/download-link [get]
func (h *CertificateHandler) DownloadLink(c *gin.Context) {
	if h.signer == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "certificate downloads are disabled"))
		return
	}
	certificate, err := h.certificates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if certificate.DocumentPath == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "certificate document is not rendered yet"))
		return
	}
	token, expiresAt, err := h.signer.Generate(certificate.ID, *certificate.DocumentPath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"token": token, "expires_at": expiresAt}, nil)
}

// Download godoc
// @Summary Download a rendered certificate document
// @Tags Certificates
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /certificates/download [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	if h.signer == nil || h.storage == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrPreconditionFailed, "certificate downloads are disabled"))
		return
	}
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	certificateID, relPath, _, err := h.signer.Parse(token, false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token"))
		return
	}
	file, err := h.storage.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "certificate document not found"))
		return
	}
	_ = file.Close()
	c.Header("Content-Disposition", `attachment; filename="certificate-`+certificateID+`.pdf"`)
	c.Header("Content-Type", "application/pdf")
	c.File(h.storage.Path(relPath))
}
