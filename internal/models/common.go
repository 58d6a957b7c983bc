package models

import "time"

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// SystemMetricsSnapshot is the lightweight aggregate served by the metrics
// summary endpoint.
type SystemMetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CertificatesIssued       uint64    `json:"certificates_issued"`
	PaymentsCompleted        uint64    `json:"payments_completed"`
	PaymentsFailed           uint64    `json:"payments_failed"`
	AnswersGraded            uint64    `json:"answers_graded"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
