package vector

import (
	"context"
	"fmt"
	"strings"

	"github.com/tektome/ocrindex/internal/db"
	"github.com/tektome/ocrindex/internal/domain"
)

// store is the consumer interface for vector index access (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo reads and writes the pre-provisioned FT vector index. Index lifecycle
// (creation, schema) is managed out of band.
type Repo struct {
	store     store
	indexName string
	namespace string
}

// New creates a vector index repository bound to one index and namespace.
func New(s store, indexName, namespace string) *Repo {
	return &Repo{store: s, indexName: indexName, namespace: namespace}
}

// Upsert writes a document vector keyed by docID. Writing the same docID
// again overwrites the prior vector (last write wins), so retried jobs are
// safe to repeat.
func (r *Repo) Upsert(ctx context.Context, docID string, vec []float32, metadata map[string]string) error {
	fields := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		fields[k] = v
	}
	fields["vector"] = db.VectorToBytes(vec)

	key := r.docKey(docID)
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("upsert vector %s: %w", key, err)
	}
	return nil
}

// Query runs a KNN search restricted to one file, returning up to topK
// matches normalized to {id, score, metadata}.
func (r *Repo) Query(ctx context.Context, vec []float32, fileID string, topK int) ([]domain.Match, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		Vector:       vec,
		K:            topK,
		TagFilters:   map[string]string{"file_id": fileID},
		ReturnFields: []string{"file_id"},
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	matches := make([]domain.Match, 0, len(res.Entries))
	for _, e := range res.Entries {
		matches = append(matches, domain.Match{
			ID:       r.docIDFromKey(e.Key),
			Score:    e.Score,
			Metadata: e.Fields,
		})
	}
	return matches, nil
}

func (r *Repo) docKey(docID string) string {
	return domain.KeyPrefix + r.namespace + ":" + docID
}

func (r *Repo) docIDFromKey(key string) string {
	return strings.TrimPrefix(key, domain.KeyPrefix+r.namespace+":")
}
