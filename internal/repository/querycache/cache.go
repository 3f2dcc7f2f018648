package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tektome/ocrindex/internal/db"
	"github.com/tektome/ocrindex/internal/domain"
)

const keyPrefix = domain.KeyPrefix + "extract:"

// store is the consumer interface for the query cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache holds extraction query results for a fixed TTL. Entries are written
// once and age out; there is no invalidation path.
type Cache struct {
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a query cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Key builds the deterministic cache key for a query against one document.
// Equal inputs always produce the identical key.
func Key(query, fileID string) string {
	return keyPrefix + query + ":" + fileID
}

// Lookup returns the cached matches for a query against one document, or
// ok=false on a miss. A corrupt or unreadable entry counts as a miss so the
// caller re-queries.
func (c *Cache) Lookup(ctx context.Context, query, fileID string) ([]domain.Match, bool) {
	key := Key(query, fileID)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read query cache", zap.String("key", key), zap.Error(err))
		}
		c.incCache("miss")
		return nil, false
	}

	var matches []domain.Match
	if err := json.Unmarshal(data, &matches); err != nil {
		c.logger.Warn("Failed to parse cached results", zap.String("key", key), zap.Error(err))
		c.incCache("miss")
		return nil, false
	}

	c.incCache("hit")
	return matches, true
}

// Store saves matches with the configured TTL. Matches are already
// normalized to {id, score, metadata}; anything else the search backend
// returned was stripped before this point.
func (c *Cache) Store(ctx context.Context, query, fileID string, matches []domain.Match) error {
	key := Key(query, fileID)
	data, err := json.Marshal(matches)
	if err != nil {
		return fmt.Errorf("marshal cached results: %w", err)
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		return fmt.Errorf("querycache SET %s: %w", key, err)
	}
	return nil
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
