package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mavericks-lms/lms-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides
// lightweight snapshots for the metrics summary endpoint.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	answersGraded   *prometheus.CounterVec
	certsIssued     prometheus.Counter
	paymentsTotal   *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	certIssueCount       uint64
	paymentCompleted     uint64
	paymentFailed        uint64
	gradedCount          uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	answersGraded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "answers_graded_total",
		Help: "Total answers graded, by grading mode",
	}, []string{"mode"})

	certsIssued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "certificates_issued_total",
		Help: "Total certificates issued",
	})

	paymentsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_processed_total",
		Help: "Total payments processed, by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, answersGraded, certsIssued, paymentsTotal, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		answersGraded:   answersGraded,
		certsIssued:     certsIssued,
		paymentsTotal:   paymentsTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordAnswerGraded counts a graded answer. Mode is "auto" for rule-based
// grading and "manual" for instructor grading.
func (m *MetricsService) RecordAnswerGraded(mode string) {
	if m == nil {
		return
	}
	m.answersGraded.WithLabelValues(mode).Inc()
	atomic.AddUint64(&m.gradedCount, 1)
}

// RecordCertificateIssued counts a newly issued certificate.
func (m *MetricsService) RecordCertificateIssued() {
	if m == nil {
		return
	}
	m.certsIssued.Inc()
	atomic.AddUint64(&m.certIssueCount, 1)
}

// RecordPaymentProcessed counts a processed payment by outcome status.
func (m *MetricsService) RecordPaymentProcessed(status models.PaymentStatus) {
	if m == nil {
		return
	}
	m.paymentsTotal.WithLabelValues(string(status)).Inc()
	switch status {
	case models.PaymentStatusCompleted:
		atomic.AddUint64(&m.paymentCompleted, 1)
	case models.PaymentStatusFailed:
		atomic.AddUint64(&m.paymentFailed, 1)
	}
}

// Snapshot returns aggregated metrics for the summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetricsSnapshot {
	if m == nil {
		return models.SystemMetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CertificatesIssued:       atomic.LoadUint64(&m.certIssueCount),
		PaymentsCompleted:        atomic.LoadUint64(&m.paymentCompleted),
		PaymentsFailed:           atomic.LoadUint64(&m.paymentFailed),
		AnswersGraded:            atomic.LoadUint64(&m.gradedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
