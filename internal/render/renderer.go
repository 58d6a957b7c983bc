package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/mavericks-lms/lms-api/internal/models"
	"github.com/mavericks-lms/lms-api/pkg/storage"
)

// Renderer produces the certificate document and returns its stored location.
type Renderer interface {
	Render(ctx context.Context, certificate models.Certificate, enrollment models.Enrollment) (string, error)
}

// PDFRenderer renders certificates as PDF files in local document storage.
type PDFRenderer struct {
	storage *storage.LocalStorage
}

// NewPDFRenderer constructs PDFRenderer.
func NewPDFRenderer(store *storage.LocalStorage) *PDFRenderer {
	return &PDFRenderer{storage: store}
}

// Render writes a landscape A4 certificate PDF and returns its relative path.
func (r *PDFRenderer) Render(_ context.Context, certificate models.Certificate, enrollment models.Enrollment) (string, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 32)
	pdf.SetY(50)
	pdf.CellFormat(0, 16, "Certificate of Completion", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.Ln(10)
	pdf.CellFormat(0, 10, "This certifies that", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, fmt.Sprintf("Student %s", enrollment.StudentID), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10, "has successfully completed the course", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, fmt.Sprintf("Course %s", enrollment.CourseID), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.Ln(8)
	pdf.CellFormat(0, 8, fmt.Sprintf("Issued on %s", certificate.IssueDate.Format("January 2, 2006")), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Verify at %s", certificate.CertificateURL), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return "", fmt.Errorf("render certificate pdf: %w", err)
	}
	filename := fmt.Sprintf("%s.pdf", certificate.ID)
	if _, err := r.storage.Save(filename, buf.Bytes()); err != nil {
		return "", fmt.Errorf("store certificate pdf: %w", err)
	}
	return filename, nil
}

// NopRenderer skips document rendering. The certificate record and its URL
// are still issued.
type NopRenderer struct{}

// Render reports no stored document.
func (NopRenderer) Render(context.Context, models.Certificate, models.Enrollment) (string, error) {
	return "", nil
}
