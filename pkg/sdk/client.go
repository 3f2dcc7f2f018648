package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Sentinel errors returned by the client.
var (
	// ErrRateLimited signals the caller exceeded the submission rate limit.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnauthorized signals a missing or invalid access token.
	ErrUnauthorized = errors.New("unauthorized")
)

// Match is one extraction search result.
type Match struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// Client talks to an ocrindex deployment.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the JWT access token sent as a Bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SubmitOCR queues a document for background OCR indexing. The call returns
// once the job is accepted; indexing happens asynchronously.
func (c *Client) SubmitOCR(ctx context.Context, signedURL string) error {
	body := map[string]string{"signed_url": signedURL}
	resp, err := c.post(ctx, "/ocr", body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		return c.apiError(resp)
	}
	return nil
}

// Extract searches the indexed content of fileID for the closest matches to
// query. fromCache reports whether the server answered from its query cache.
func (c *Client) Extract(ctx context.Context, query, fileID string) (matches []Match, fromCache bool, err error) {
	body := map[string]string{"query": query, "file_id": fileID}
	resp, err := c.post(ctx, "/extract", body)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, false, c.apiError(resp)
	}

	var out struct {
		Message string  `json:"message"`
		Results []Match `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}
	return out.Results, out.Message == "Results retrieved from cache.", nil
}

// Health reports whether the service and its dependencies are up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	return resp, nil
}

func (c *Client) apiError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusUnauthorized:
		return ErrUnauthorized
	}

	var out struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(data, &out) == nil && out.Error != "" {
		return fmt.Errorf("api error (status %d): %s", resp.StatusCode, out.Error)
	}
	return fmt.Errorf("api error: status %d", resp.StatusCode)
}
