package submit

import (
	"context"
	"errors"
	"testing"

	"github.com/tektome/ocrindex/internal/domain"
)

// --- Mocks ---

type mockLimiter struct {
	allow  bool
	err    error
	lastID string
}

func (m *mockLimiter) Allow(_ context.Context, clientID string) (bool, error) {
	m.lastID = clientID
	return m.allow, m.err
}

type mockQueue struct {
	jobs []domain.Job
	err  error
}

func (m *mockQueue) Enqueue(_ context.Context, job domain.Job) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

// --- Tests ---

func TestSubmit_Admitted(t *testing.T) {
	q := &mockQueue{}
	svc := New(&mockLimiter{allow: true}, q)

	err := svc.Submit(context.Background(), "127.0.0.1", "https://bucket/doc123.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(q.jobs) != 1 {
		t.Fatalf("expected 1 enqueued job, got %d", len(q.jobs))
	}
	job := q.jobs[0]
	if job.SignedURL != "https://bucket/doc123.pdf" {
		t.Errorf("job signed URL = %q", job.SignedURL)
	}
	if job.Attempt != 0 {
		t.Errorf("new job attempt = %d, want 0", job.Attempt)
	}
}

func TestSubmit_RateLimited(t *testing.T) {
	q := &mockQueue{}
	svc := New(&mockLimiter{allow: false}, q)

	err := svc.Submit(context.Background(), "127.0.0.1", "https://bucket/doc123.pdf")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if len(q.jobs) != 0 {
		t.Fatal("rejected submission must not enqueue a job")
	}
}

func TestSubmit_LimiterError(t *testing.T) {
	q := &mockQueue{}
	svc := New(&mockLimiter{err: errors.New("store down")}, q)

	err := svc.Submit(context.Background(), "127.0.0.1", "https://bucket/doc123.pdf")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrRateLimited) {
		t.Fatal("store failure must not read as rate limited")
	}
	if len(q.jobs) != 0 {
		t.Fatal("no job should be enqueued on limiter failure")
	}
}

func TestSubmit_EnqueueError(t *testing.T) {
	svc := New(&mockLimiter{allow: true}, &mockQueue{err: errors.New("queue down")})

	if err := svc.Submit(context.Background(), "127.0.0.1", "https://bucket/doc123.pdf"); err == nil {
		t.Fatal("expected enqueue error to propagate")
	}
}
