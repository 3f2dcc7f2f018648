package domain

import "errors"

var (
	// ErrRateLimited signals that a client exceeded its submission rate limit.
	ErrRateLimited = errors.New("rate limited")
	// ErrOCRNotFound signals that a document has no extracted OCR text.
	ErrOCRNotFound = errors.New("ocr file not found")
	// ErrEmbeddingRateLimited signals a transient rate limit from the embedding provider.
	ErrEmbeddingRateLimited = errors.New("embedding rate limited")
	// ErrEmbeddingProviderError signals a non-retryable embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrMaxRetries signals an exhausted retry budget for a background job.
	ErrMaxRetries = errors.New("max retries reached")
	// ErrQueueEmpty signals that no job was available within the dequeue wait.
	ErrQueueEmpty = errors.New("queue empty")
)
