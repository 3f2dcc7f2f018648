package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/tektome/ocrindex/internal/db"
)

type mockStore struct {
	hsetKey    string
	hsetFields map[string]string
	hsetErr    error

	knnQuery  *db.KNNQuery
	knnResult *db.SearchResult
	knnErr    error
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	m.hsetKey = key
	m.hsetFields = fields
	return m.hsetErr
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.knnQuery = q
	if m.knnErr != nil {
		return nil, m.knnErr
	}
	if m.knnResult != nil {
		return m.knnResult, nil
	}
	return &db.SearchResult{}, nil
}

func TestUpsert_WritesVectorAndMetadata(t *testing.T) {
	ms := &mockStore{}
	r := New(ms, "ocr-index", "ocr")

	err := r.Upsert(context.Background(), "document_dummy",
		[]float32{0.1, 0.2}, map[string]string{"file_id": "document_dummy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ms.hsetKey != "ocrindex:ocr:document_dummy" {
		t.Errorf("key = %q, want ocrindex:ocr:document_dummy", ms.hsetKey)
	}
	if ms.hsetFields["file_id"] != "document_dummy" {
		t.Errorf("file_id field = %q", ms.hsetFields["file_id"])
	}
	if ms.hsetFields["vector"] != db.VectorToBytes([]float32{0.1, 0.2}) {
		t.Error("vector field not encoded as the expected blob")
	}
}

func TestUpsert_SameIDOverwrites(t *testing.T) {
	ms := &mockStore{}
	r := New(ms, "ocr-index", "ocr")

	_ = r.Upsert(context.Background(), "document_dummy", []float32{0.1}, nil)
	first := ms.hsetKey
	_ = r.Upsert(context.Background(), "document_dummy", []float32{0.9}, nil)

	if ms.hsetKey != first {
		t.Fatalf("same docID must map to the same key: %q vs %q", first, ms.hsetKey)
	}
}

func TestQuery_FiltersByFileID(t *testing.T) {
	ms := &mockStore{knnResult: &db.SearchResult{
		Total: 1,
		Entries: []db.SearchEntry{{
			Key:    "ocrindex:ocr:document_dummy",
			Score:  0.8245,
			Fields: map[string]string{"file_id": "document_dummy"},
		}},
	}}
	r := New(ms, "ocr-index", "ocr")

	matches, err := r.Query(context.Background(), []float32{0.1, 0.2}, "document_dummy", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ms.knnQuery.IndexName != "ocr-index" {
		t.Errorf("index = %q", ms.knnQuery.IndexName)
	}
	if ms.knnQuery.K != 5 {
		t.Errorf("topK = %d, want 5", ms.knnQuery.K)
	}
	if ms.knnQuery.TagFilters["file_id"] != "document_dummy" {
		t.Errorf("file_id filter = %q", ms.knnQuery.TagFilters["file_id"])
	}

	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.ID != "document_dummy" {
		t.Errorf("match ID = %q, want document_dummy (namespace prefix stripped)", m.ID)
	}
	if m.Score != 0.8245 {
		t.Errorf("score = %v, want 0.8245", m.Score)
	}
	if m.Metadata["file_id"] != "document_dummy" {
		t.Errorf("metadata = %+v", m.Metadata)
	}
}

func TestQuery_EmptyResult(t *testing.T) {
	r := New(&mockStore{}, "ocr-index", "ocr")

	matches, err := r.Query(context.Background(), []float32{0.1}, "document_missing", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}

func TestQuery_SearchError(t *testing.T) {
	ms := &mockStore{knnErr: errors.New("index missing")}
	r := New(ms, "ocr-index", "ocr")

	if _, err := r.Query(context.Background(), []float32{0.1}, "f", 5); err == nil {
		t.Fatal("expected search error to propagate")
	}
}
