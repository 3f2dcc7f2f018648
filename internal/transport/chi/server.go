package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tektome/ocrindex/internal/domain"
	extractuc "github.com/tektome/ocrindex/internal/usecase/extract"
	healthuc "github.com/tektome/ocrindex/internal/usecase/health"
)

// Response messages. These are part of the API contract; clients key off
// the message to distinguish cache hits from fresh searches.
const (
	msgSubmitted   = "OCR task submitted successfully. It will be processed asynchronously."
	msgRateLimited = "Rate limit exceeded. Please try again later."
	msgFromCache   = "Results retrieved from cache."
	msgSearched    = "Vector search completed."
	msgNoMatches   = "No matches found."
)

// Submitter admits and enqueues OCR jobs.
type Submitter interface {
	Submit(ctx context.Context, clientID, signedURL string) error
}

// Extractor answers extraction queries.
type Extractor interface {
	Query(ctx context.Context, query, fileID string) (extractuc.Result, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server exposes the OCR submission and extraction API over chi.
type Server struct {
	submit        Submitter
	extract       Extractor
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(submit Submitter, extract Extractor, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		submit:  submit,
		extract: extract,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, msgRateLimited),
		sentinelHandler(domain.ErrEmbeddingRateLimited, http.StatusTooManyRequests, msgRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding provider error"),
	}
	return s
}

// Routes registers all handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/ocr", s.SubmitOCR)
	r.Post("/extract", s.Extract)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type submitRequest struct {
	SignedURL string `json:"signed_url"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// SubmitOCR handles POST /ocr. The job is queued for background processing
// and the request returns 202 immediately; processing success or failure is
// not reported back to the client.
func (s *Server) SubmitOCR(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.SignedURL == "" {
		writeError(w, http.StatusBadRequest, "signed_url is required")
		return
	}

	if err := s.submit.Submit(r.Context(), clientID(r), req.SignedURL); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, messageResponse{Message: msgSubmitted})
}

type extractRequest struct {
	Query  string `json:"query"`
	FileID string `json:"file_id"`
}

type extractResponse struct {
	Message string         `json:"message"`
	Results []domain.Match `json:"results"`
}

// Extract handles POST /extract.
func (s *Server) Extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.FileID == "" {
		writeError(w, http.StatusBadRequest, "file_id is required")
		return
	}

	result, err := s.extract.Query(r.Context(), req.Query, req.FileID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	msg := msgSearched
	switch {
	case result.FromCache:
		msg = msgFromCache
	case len(result.Matches) == 0:
		msg = msgNoMatches
	}

	matches := result.Matches
	if matches == nil {
		matches = []domain.Match{}
	}
	writeJSON(w, http.StatusOK, extractResponse{Message: msg, Results: matches})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// clientID identifies the caller for rate limiting. The host part of the
// remote address; a proxy-aware deployment should run chi's RealIP
// middleware in front so RemoteAddr carries the client address.
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, message string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, message)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
