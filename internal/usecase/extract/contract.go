package extract

import (
	"context"

	"github.com/tektome/ocrindex/internal/domain"
)

// Cache holds recent query results.
type Cache interface {
	Lookup(ctx context.Context, query, fileID string) ([]domain.Match, bool)
	Store(ctx context.Context, query, fileID string, matches []domain.Match) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher runs filtered KNN searches against the vector index.
type Searcher interface {
	Query(ctx context.Context, vec []float32, fileID string, topK int) ([]domain.Match, error)
}
