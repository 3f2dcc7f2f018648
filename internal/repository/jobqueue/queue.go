package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tektome/ocrindex/internal/db"
	"github.com/tektome/ocrindex/internal/domain"
)

// store is the consumer interface for queue operations (ISP).
type store interface {
	RPush(ctx context.Context, key string, values ...string) error
	BLPop(ctx context.Context, key string, wait time.Duration) (string, error)
	LLen(ctx context.Context, key string) (int64, error)
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZPopByScore(ctx context.Context, key string, max float64, count int) ([]string, error)
}

const promoteBatch = 100

// Queue is a Redis-backed job queue: a list for ready jobs and a sorted set,
// scored by the not-before timestamp, for delayed retries. Delivery is
// at-least-once; a popped job that dies with its worker is lost, which the
// fire-and-forget submission contract tolerates.
type Queue struct {
	store      store
	readyKey   string
	delayedKey string
	now        func() time.Time
}

// New creates a queue under the given name.
func New(s store, name string) *Queue {
	base := domain.KeyPrefix + "queue:" + name
	return &Queue{
		store:      s,
		readyKey:   base,
		delayedKey: base + ":delayed",
		now:        time.Now,
	}
}

// WithClock overrides the time source (test-only).
func (q *Queue) WithClock(now func() time.Time) *Queue {
	q.now = now
	return q
}

// Enqueue makes a job immediately available to workers.
func (q *Queue) Enqueue(ctx context.Context, job domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.store.RPush(ctx, q.readyKey, string(data)); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// EnqueueAfter schedules a job to become available once delay has passed.
// Each retry goes through here as a fresh job, so no worker slot is held
// across the backoff.
func (q *Queue) EnqueueAfter(ctx context.Context, job domain.Job, delay time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	runAt := float64(q.now().Add(delay).Unix())
	if err := q.store.ZAdd(ctx, q.delayedKey, runAt, string(data)); err != nil {
		return fmt.Errorf("enqueue delayed job: %w", err)
	}
	return nil
}

// Dequeue promotes due delayed jobs, then blocks up to wait for a ready job.
// Returns domain.ErrQueueEmpty when nothing arrives within the wait.
func (q *Queue) Dequeue(ctx context.Context, wait time.Duration) (domain.Job, error) {
	if err := q.promoteDue(ctx); err != nil {
		return domain.Job{}, err
	}

	data, err := q.store.BLPop(ctx, q.readyKey, wait)
	if err != nil {
		if errors.Is(err, db.ErrQueueEmpty) {
			return domain.Job{}, domain.ErrQueueEmpty
		}
		return domain.Job{}, fmt.Errorf("dequeue job: %w", err)
	}

	var job domain.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return domain.Job{}, fmt.Errorf("unmarshal job %q: %w", data, err)
	}
	return job, nil
}

// Len returns the number of ready jobs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.store.LLen(ctx, q.readyKey)
	if err != nil {
		return 0, fmt.Errorf("queue length: %w", err)
	}
	return n, nil
}

func (q *Queue) promoteDue(ctx context.Context) error {
	due, err := q.store.ZPopByScore(ctx, q.delayedKey, float64(q.now().Unix()), promoteBatch)
	if err != nil {
		return fmt.Errorf("promote delayed jobs: %w", err)
	}
	if len(due) == 0 {
		return nil
	}
	if err := q.store.RPush(ctx, q.readyKey, due...); err != nil {
		return fmt.Errorf("push promoted jobs: %w", err)
	}
	return nil
}
