package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mavericks-lms/lms-api/internal/models"
	"github.com/mavericks-lms/lms-api/pkg/storage"
)

type fakeRenderer struct {
	mu       sync.Mutex
	location string
	err      error
}

func (f *fakeRenderer) Render(ctx context.Context, certificate models.Certificate, enrollment models.Enrollment) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.location, f.err
}

func (f *fakeRenderer) set(location string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.location = location
	f.err = err
}

type recordingDocRepo struct {
	recorded chan string
}

func (r *recordingDocRepo) SetDocumentPath(ctx context.Context, certificateID, path string) error {
	r.recorded <- certificateID + ":" + path
	return nil
}

func TestWorkerRendersAndRecordsPath(t *testing.T) {
	repo := &recordingDocRepo{recorded: make(chan string, 1)}
	worker := NewWorker(&fakeRenderer{location: "cert-1.pdf"}, repo, WorkerConfig{Concurrency: 1})
	worker.Start(context.Background())
	defer worker.Stop()

	err := worker.ScheduleRender(
		models.Certificate{ID: "cert-1", EnrollmentID: "e1"},
		models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1"},
	)
	require.NoError(t, err)

	select {
	case got := <-repo.recorded:
		assert.Equal(t, "cert-1:cert-1.pdf", got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for document path")
	}
}

func TestWorkerRetriesFailedRenders(t *testing.T) {
	repo := &recordingDocRepo{recorded: make(chan string, 1)}
	renderer := &fakeRenderer{err: fmt.Errorf("boom")}
	worker := NewWorker(renderer, repo, WorkerConfig{Concurrency: 1, MaxRetries: 3})
	worker.Start(context.Background())
	defer worker.Stop()

	require.NoError(t, worker.ScheduleRender(models.Certificate{ID: "cert-1"}, models.Enrollment{ID: "e1"}))

	// First attempt fails; once the renderer recovers, a retry lands.
	time.Sleep(100 * time.Millisecond)
	renderer.set("cert-1.pdf", nil)

	select {
	case got := <-repo.recorded:
		assert.Equal(t, "cert-1:cert-1.pdf", got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for retried render")
	}
}

func TestWorkerRejectsWhenStopped(t *testing.T) {
	repo := &recordingDocRepo{recorded: make(chan string, 1)}
	worker := NewWorker(&fakeRenderer{}, repo, WorkerConfig{Concurrency: 1})

	err := worker.ScheduleRender(models.Certificate{ID: "cert-1"}, models.Enrollment{ID: "e1"})
	require.Error(t, err)
}

func TestPDFRendererWritesDocument(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	renderer := NewPDFRenderer(store)

	location, err := renderer.Render(context.Background(), models.Certificate{
		ID:             "cert-1",
		EnrollmentID:   "e1",
		CertificateURL: "https://lms.example.com/certificates/e1-s1-c1",
		IssueDate:      time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}, models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "cert-1.pdf", location)

	data, err := os.ReadFile(filepath.Join(dir, location))
	require.NoError(t, err)
	assert.True(t, len(data) > 0)
	assert.Equal(t, "%PDF", string(data[:4]))
}
