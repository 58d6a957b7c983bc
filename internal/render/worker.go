package render

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mavericks-lms/lms-api/internal/models"
	"github.com/mavericks-lms/lms-api/pkg/jobs"
)

type documentRepo interface {
	SetDocumentPath(ctx context.Context, certificateID, path string) error
}

type renderJob struct {
	Certificate models.Certificate
	Enrollment  models.Enrollment
}

// Worker renders issued certificates off the request path. Jobs flow through
// an in-memory queue with bounded retries; the document path is written back
// once the render succeeds.
type Worker struct {
	queue        *jobs.Queue
	renderer     Renderer
	certificates documentRepo
	logger       *zap.Logger
}

// WorkerConfig configures the render worker pool.
type WorkerConfig struct {
	Concurrency int
	MaxRetries  int
	Logger      *zap.Logger
}

// NewWorker constructs the render worker.
func NewWorker(renderer Renderer, certificates documentRepo, cfg WorkerConfig) *Worker {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	w := &Worker{
		renderer:     renderer,
		certificates: certificates,
		logger:       cfg.Logger,
	}
	w.queue = jobs.NewQueue("certificate-render", w.handle, jobs.QueueConfig{
		Workers:    cfg.Concurrency,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: 2 * time.Second,
		Logger:     cfg.Logger,
	})
	return w
}

// Start launches the worker pool.
func (w *Worker) Start(ctx context.Context) {
	w.queue.Start(ctx)
}

// Stop drains the worker pool.
func (w *Worker) Stop() {
	w.queue.Stop()
}

// ScheduleRender queues a certificate for rendering.
func (w *Worker) ScheduleRender(certificate models.Certificate, enrollment models.Enrollment) error {
	return w.queue.Enqueue(jobs.Job{
		ID:      certificate.ID,
		Type:    "certificate-render",
		Payload: renderJob{Certificate: certificate, Enrollment: enrollment},
	})
}

func (w *Worker) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(renderJob)
	if !ok {
		return fmt.Errorf("unexpected render payload %T", job.Payload)
	}
	location, err := w.renderer.Render(ctx, payload.Certificate, payload.Enrollment)
	if err != nil {
		return err
	}
	if location == "" {
		return nil
	}
	if err := w.certificates.SetDocumentPath(ctx, payload.Certificate.ID, location); err != nil {
		return fmt.Errorf("record document path: %w", err)
	}
	w.logger.Info("certificate rendered",
		zap.String("certificate_id", payload.Certificate.ID),
		zap.String("document_path", location))
	return nil
}
