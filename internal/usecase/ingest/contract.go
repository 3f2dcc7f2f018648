package ingest

import (
	"context"
	"time"

	"github.com/tektome/ocrindex/internal/domain"
)

// TextSource looks up the extracted OCR text for a file.
type TextSource interface {
	Text(ctx context.Context, fileID string) (string, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Upserter writes document vectors into the index.
type Upserter interface {
	Upsert(ctx context.Context, docID string, vec []float32, metadata map[string]string) error
}

// DelayedEnqueuer schedules a job to become runnable after a delay.
type DelayedEnqueuer interface {
	EnqueueAfter(ctx context.Context, job domain.Job, delay time.Duration) error
}
