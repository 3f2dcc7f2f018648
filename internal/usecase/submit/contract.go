package submit

import (
	"context"

	"github.com/tektome/ocrindex/internal/domain"
)

// Limiter gates job submission per client.
type Limiter interface {
	Allow(ctx context.Context, clientID string) (bool, error)
}

// Enqueuer hands jobs off to the background queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, job domain.Job) error
}
