package submit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tektome/ocrindex/internal/domain"
	"github.com/tektome/ocrindex/internal/logger"
	"github.com/tektome/ocrindex/internal/metrics"
)

// Service handles OCR job submission: admission control followed by a
// fire-and-forget hand-off to the background queue.
type Service struct {
	limiter Limiter
	queue   Enqueuer
}

// New creates a submission service.
func New(limiter Limiter, queue Enqueuer) *Service {
	return &Service{limiter: limiter, queue: queue}
}

// Submit admits and enqueues an indexing job for signedURL. It returns as
// soon as the job is queued; processing outcome is only observable through
// worker logs. A client over its rate limit gets domain.ErrRateLimited.
func (s *Service) Submit(ctx context.Context, clientID, signedURL string) error {
	ok, err := s.limiter.Allow(ctx, clientID)
	if err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if !ok {
		metrics.SubmissionsTotal.WithLabelValues("rate_limited").Inc()
		return fmt.Errorf("client %s: %w", clientID, domain.ErrRateLimited)
	}

	job := domain.Job{SignedURL: signedURL, Attempt: 0}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueue ocr job: %w", err)
	}

	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	logger.FromContext(ctx).Info("ocr job submitted",
		zap.String("client_id", clientID),
		zap.String("file_id", domain.FileIDFromSignedURL(signedURL)),
	)
	return nil
}
