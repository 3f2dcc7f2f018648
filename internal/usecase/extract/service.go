package extract

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tektome/ocrindex/internal/domain"
	"github.com/tektome/ocrindex/internal/logger"
)

// Service answers extraction queries: cache first, then embed + search.
type Service struct {
	cache   Cache
	embed   Embedder
	vectors Searcher
	topK    int
}

// New creates an extraction query service.
func New(cache Cache, embed Embedder, vectors Searcher, topK int) *Service {
	return &Service{cache: cache, embed: embed, vectors: vectors, topK: topK}
}

// Result is the outcome of one extraction query.
type Result struct {
	Matches   []domain.Match
	FromCache bool
}

// Query returns the closest stored vectors for query restricted to fileID.
// A cache hit short-circuits both the embedding and the search call. Empty
// result sets are returned as-is and never cached, so the next identical
// query re-queries the index.
func (s *Service) Query(ctx context.Context, query, fileID string) (Result, error) {
	log := logger.FromContext(ctx)

	if matches, ok := s.cache.Lookup(ctx, query, fileID); ok {
		log.Info("extraction results served from cache",
			zap.String("file_id", fileID),
			zap.Int("matches", len(matches)),
		)
		return Result{Matches: matches, FromCache: true}, nil
	}

	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("vectorize query: %w", err)
	}

	matches, err := s.vectors.Query(ctx, embResult.Embedding, fileID, s.topK)
	if err != nil {
		return Result{}, fmt.Errorf("vector search: %w", err)
	}

	if len(matches) == 0 {
		log.Info("no matches found", zap.String("file_id", fileID))
		return Result{}, nil
	}

	// Cache population is best-effort; a failed write only costs the next
	// identical query a re-search.
	if err := s.cache.Store(ctx, query, fileID, matches); err != nil {
		log.Warn("failed to cache query results", zap.String("file_id", fileID), zap.Error(err))
	}

	log.Info("vector search completed",
		zap.String("file_id", fileID),
		zap.Int("matches", len(matches)),
	)
	return Result{Matches: matches, FromCache: false}, nil
}
