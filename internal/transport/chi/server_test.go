package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tektome/ocrindex/internal/domain"
	extractuc "github.com/tektome/ocrindex/internal/usecase/extract"
	healthuc "github.com/tektome/ocrindex/internal/usecase/health"
)

type mockSubmitter struct {
	err        error
	lastClient string
	lastURL    string
}

func (m *mockSubmitter) Submit(_ context.Context, clientID, signedURL string) error {
	m.lastClient = clientID
	m.lastURL = signedURL
	return m.err
}

type mockExtractor struct {
	result    extractuc.Result
	err       error
	lastQuery string
	lastFile  string
}

func (m *mockExtractor) Query(_ context.Context, query, fileID string) (extractuc.Result, error) {
	m.lastQuery = query
	m.lastFile = fileID
	return m.result, m.err
}

type okPinger struct{}

func (okPinger) Ping(_ context.Context) error { return nil }

type failPinger struct{}

func (failPinger) Ping(_ context.Context) error { return errors.New("connection refused") }

func newTestRouter(submit Submitter, extract Extractor, pinger healthuc.DBPinger) http.Handler {
	if pinger == nil {
		pinger = okPinger{}
	}
	srv := NewServer(submit, extract, healthuc.New(pinger, nil), zap.NewNop())
	r := chirouter.NewRouter()
	srv.Routes(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestSubmitOCR_Accepted(t *testing.T) {
	submit := &mockSubmitter{}
	h := newTestRouter(submit, &mockExtractor{}, nil)

	rr := doJSON(t, h, "POST", "/ocr", `{"signed_url":"https://storage.example.com/dummy.pdf?sig=abc"}`)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d; body %s", rr.Code, http.StatusAccepted, rr.Body.String())
	}

	var resp messageResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != msgSubmitted {
		t.Errorf("message = %q, want %q", resp.Message, msgSubmitted)
	}
	if submit.lastURL != "https://storage.example.com/dummy.pdf?sig=abc" {
		t.Errorf("submitted URL = %q", submit.lastURL)
	}
	// httptest sets RemoteAddr to an ip:port pair; the handler keeps the host.
	if submit.lastClient == "" || strings.Contains(submit.lastClient, ":") {
		t.Errorf("client ID = %q, want bare host", submit.lastClient)
	}
}

func TestSubmitOCR_RateLimited_429(t *testing.T) {
	submit := &mockSubmitter{err: domain.ErrRateLimited}
	h := newTestRouter(submit, &mockExtractor{}, nil)

	rr := doJSON(t, h, "POST", "/ocr", `{"signed_url":"https://storage.example.com/dummy.pdf"}`)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusTooManyRequests)
	}

	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != msgRateLimited {
		t.Errorf("error = %q, want %q", resp.Error, msgRateLimited)
	}
}

func TestSubmitOCR_BadRequests(t *testing.T) {
	h := newTestRouter(&mockSubmitter{}, &mockExtractor{}, nil)

	for name, body := range map[string]string{
		"malformed json":     `{"signed_url"`,
		"missing signed_url": `{}`,
		"empty signed_url":   `{"signed_url":""}`,
	} {
		rr := doJSON(t, h, "POST", "/ocr", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", name, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestSubmitOCR_SubmitError_500(t *testing.T) {
	submit := &mockSubmitter{err: errors.New("redis down")}
	h := newTestRouter(submit, &mockExtractor{}, nil)

	rr := doJSON(t, h, "POST", "/ocr", `{"signed_url":"https://storage.example.com/dummy.pdf"}`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestExtract_FreshSearch(t *testing.T) {
	extract := &mockExtractor{result: extractuc.Result{
		Matches: []domain.Match{{
			ID:       "document_dummy",
			Score:    0.8245,
			Metadata: map[string]string{"file_id": "document_dummy"},
		}},
	}}
	h := newTestRouter(&mockSubmitter{}, extract, nil)

	rr := doJSON(t, h, "POST", "/extract", `{"query":"abcd","file_id":"document_dummy"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp extractResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != msgSearched {
		t.Errorf("message = %q, want %q", resp.Message, msgSearched)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "document_dummy" {
		t.Fatalf("results = %+v", resp.Results)
	}
	if resp.Results[0].Score != 0.8245 {
		t.Errorf("score = %v, want 0.8245", resp.Results[0].Score)
	}
	if extract.lastQuery != "abcd" || extract.lastFile != "document_dummy" {
		t.Errorf("query forwarded as (%q, %q)", extract.lastQuery, extract.lastFile)
	}
}

func TestExtract_CacheHitMessage(t *testing.T) {
	extract := &mockExtractor{result: extractuc.Result{
		Matches:   []domain.Match{{ID: "document_dummy", Score: 0.8245}},
		FromCache: true,
	}}
	h := newTestRouter(&mockSubmitter{}, extract, nil)

	rr := doJSON(t, h, "POST", "/extract", `{"query":"abcd","file_id":"document_dummy"}`)

	var resp extractResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != msgFromCache {
		t.Errorf("message = %q, want %q", resp.Message, msgFromCache)
	}
}

func TestExtract_NoMatches(t *testing.T) {
	h := newTestRouter(&mockSubmitter{}, &mockExtractor{}, nil)

	rr := doJSON(t, h, "POST", "/extract", `{"query":"abcd","file_id":"document_missing"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp extractResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != msgNoMatches {
		t.Errorf("message = %q, want %q", resp.Message, msgNoMatches)
	}
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("results should be an empty array, got %+v", resp.Results)
	}
}

func TestExtract_BadRequests(t *testing.T) {
	h := newTestRouter(&mockSubmitter{}, &mockExtractor{}, nil)

	for name, body := range map[string]string{
		"missing query":   `{"file_id":"f"}`,
		"missing file_id": `{"query":"q"}`,
		"malformed":       `not json`,
	} {
		rr := doJSON(t, h, "POST", "/extract", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", name, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestExtract_EmbeddingRateLimited_429(t *testing.T) {
	extract := &mockExtractor{err: domain.ErrEmbeddingRateLimited}
	h := newTestRouter(&mockSubmitter{}, extract, nil)

	rr := doJSON(t, h, "POST", "/extract", `{"query":"abcd","file_id":"f"}`)

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
}

func TestExtract_ProviderError_502(t *testing.T) {
	extract := &mockExtractor{err: domain.ErrEmbeddingProviderError}
	h := newTestRouter(&mockSubmitter{}, extract, nil)

	rr := doJSON(t, h, "POST", "/extract", `{"query":"abcd","file_id":"f"}`)

	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadGateway)
	}
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		h := newTestRouter(&mockSubmitter{}, &mockExtractor{}, okPinger{})
		rr := doJSON(t, h, "GET", "/health", "")
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
		}
	})

	t.Run("degraded", func(t *testing.T) {
		h := newTestRouter(&mockSubmitter{}, &mockExtractor{}, failPinger{})
		rr := doJSON(t, h, "GET", "/health", "")
		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
		}
	})
}
