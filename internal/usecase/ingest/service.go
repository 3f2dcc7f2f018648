package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tektome/ocrindex/internal/domain"
	"github.com/tektome/ocrindex/internal/logger"
	"github.com/tektome/ocrindex/internal/metrics"
)

// Service processes one indexing job end to end: look up the OCR text,
// vectorize it, upsert the vector. Embedding-provider rate limits are the
// only retryable failure; a retry is a delayed re-enqueue of the job with
// the attempt counter bumped, never an in-process wait.
type Service struct {
	texts   TextSource
	embed   Embedder
	vectors Upserter
	queue   DelayedEnqueuer

	namespace  string
	maxRetries int
	backoff    time.Duration
}

// New creates a job processing service. maxRetries bounds re-enqueues per
// job and backoff is the delay before a retried job becomes runnable.
func New(texts TextSource, embed Embedder, vectors Upserter, queue DelayedEnqueuer, namespace string, maxRetries int, backoff time.Duration) *Service {
	return &Service{
		texts:      texts,
		embed:      embed,
		vectors:    vectors,
		queue:      queue,
		namespace:  namespace,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// Process runs one job attempt. The returned error is terminal for this
// attempt; when the job was re-enqueued for retry the error wraps
// domain.ErrEmbeddingRateLimited and the caller must not retry again itself.
func (s *Service) Process(ctx context.Context, job domain.Job) error {
	start := time.Now()
	fileID := domain.FileIDFromSignedURL(job.SignedURL)
	docID := domain.DocumentID(job.SignedURL)
	log := logger.FromContext(ctx).With(
		zap.String("file_id", fileID),
		zap.Int("attempt", job.Attempt),
	)

	outcome, err := s.process(ctx, job, fileID, docID, log)
	metrics.JobsTotal.WithLabelValues(outcome).Inc()
	metrics.JobDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return err
}

func (s *Service) process(ctx context.Context, job domain.Job, fileID, docID string, log *zap.Logger) (string, error) {
	text, err := s.texts.Text(ctx, fileID)
	if err != nil {
		if errors.Is(err, domain.ErrOCRNotFound) {
			log.Warn("ocr text not found, dropping job")
			return "not_found", fmt.Errorf("lookup ocr text for %s: %w", fileID, err)
		}
		log.Error("ocr text lookup failed", zap.Error(err))
		return "error", fmt.Errorf("lookup ocr text for %s: %w", fileID, err)
	}

	result, err := s.embed.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingRateLimited) {
			return s.retry(ctx, job, log, err)
		}
		log.Error("embedding failed", zap.Error(err))
		return "error", fmt.Errorf("embed document %s: %w", fileID, err)
	}

	// The metadata tag carries the document ID, not the bare file ID;
	// extraction queries filter on the same value.
	metadata := map[string]string{
		"file_id":   docID,
		"namespace": s.namespace,
	}
	if err := s.vectors.Upsert(ctx, docID, result.Embedding, metadata); err != nil {
		log.Error("vector upsert failed", zap.Error(err))
		return "error", fmt.Errorf("upsert document %s: %w", docID, err)
	}

	log.Info("document indexed",
		zap.String("document_id", docID),
		zap.Int("prompt_tokens", result.PromptTokens),
	)
	return "completed", nil
}

// retry re-enqueues the job with a bumped attempt counter unless the retry
// budget is spent. The budget counts retries, so a job is attempted at most
// maxRetries+1 times in total.
func (s *Service) retry(ctx context.Context, job domain.Job, log *zap.Logger, cause error) (string, error) {
	if job.Attempt >= s.maxRetries {
		log.Error("retry budget exhausted, dropping job", zap.Error(cause))
		return "max_retries", fmt.Errorf("job for %s after %d attempts: %w", job.SignedURL, job.Attempt+1, domain.ErrMaxRetries)
	}

	next := domain.Job{SignedURL: job.SignedURL, Attempt: job.Attempt + 1}
	if err := s.queue.EnqueueAfter(ctx, next, s.backoff); err != nil {
		log.Error("failed to re-enqueue job", zap.Error(err))
		return "error", fmt.Errorf("re-enqueue job for %s: %w", job.SignedURL, err)
	}

	log.Warn("embedding rate limited, job re-enqueued",
		zap.Duration("backoff", s.backoff),
		zap.Int("next_attempt", next.Attempt),
	)
	return "retried", fmt.Errorf("attempt %d: %w", job.Attempt, cause)
}
