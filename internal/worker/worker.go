package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/tektome/ocrindex/internal/domain"
	"github.com/tektome/ocrindex/internal/logger"
	"github.com/tektome/ocrindex/internal/metrics"
)

// Dequeuer pulls jobs off the background queue.
type Dequeuer interface {
	Dequeue(ctx context.Context, wait time.Duration) (domain.Job, error)
	Len(ctx context.Context) (int64, error)
}

// Processor runs one job attempt.
type Processor interface {
	Process(ctx context.Context, job domain.Job) error
}

// Worker consumes jobs from the queue and fans them out over a bounded
// goroutine pool. One dequeue loop feeds the pool; Run blocks until the
// context is cancelled, then drains in-flight jobs before returning.
type Worker struct {
	queue Dequeuer
	proc  Processor
	pool  *ants.Pool
	poll  time.Duration
	log   *zap.Logger
}

// New creates a worker with the given pool size. poll bounds each blocking
// dequeue so the loop can notice cancellation and promote delayed retries.
func New(queue Dequeuer, proc Processor, size int, poll time.Duration, log *zap.Logger) (*Worker, error) {
	if size < 1 {
		size = 1
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &Worker{
		queue: queue,
		proc:  proc,
		pool:  pool,
		poll:  poll,
		log:   log,
	}, nil
}

// Run consumes jobs until ctx is cancelled. Job errors are terminal per
// attempt and already logged and counted by the processor, so the loop only
// moves on to the next job.
func (w *Worker) Run(ctx context.Context) error {
	defer w.pool.Release()

	var wg sync.WaitGroup
	defer wg.Wait()

	w.log.Info("worker started",
		zap.Int("pool_size", w.pool.Cap()),
		zap.Duration("poll", w.poll),
	)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker stopping, draining in-flight jobs")
			return ctx.Err()
		default:
		}

		w.observeDepth(ctx)

		job, err := w.queue.Dequeue(ctx, w.poll)
		if err != nil {
			if errors.Is(err, domain.ErrQueueEmpty) {
				continue
			}
			if ctx.Err() != nil {
				w.log.Info("worker stopping, draining in-flight jobs")
				return ctx.Err()
			}
			w.log.Error("dequeue failed", zap.Error(err))
			// Back off so a dead Redis does not spin the loop.
			select {
			case <-time.After(w.poll):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		wg.Add(1)
		submitErr := w.pool.Submit(func() {
			defer wg.Done()
			w.handle(ctx, job)
		})
		if submitErr != nil {
			wg.Done()
			w.log.Error("pool rejected job, running inline", zap.Error(submitErr))
			w.handle(ctx, job)
		}
	}
}

// handle runs one job with a request-scoped logger. In-flight jobs finish
// even after cancellation; jobCtx is detached from the loop context so a
// drain does not abort the attempt midway.
func (w *Worker) handle(ctx context.Context, job domain.Job) {
	jobCtx := logger.ContextWithLogger(context.WithoutCancel(ctx), w.log)
	if err := w.proc.Process(jobCtx, job); err != nil {
		w.log.Warn("job finished with error",
			zap.String("signed_url", job.SignedURL),
			zap.Int("attempt", job.Attempt),
			zap.Error(err),
		)
	}
}

func (w *Worker) observeDepth(ctx context.Context) {
	n, err := w.queue.Len(ctx)
	if err != nil {
		return
	}
	metrics.QueueDepth.Set(float64(n))
}
