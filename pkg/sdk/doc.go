// Package sdk is a small HTTP client for the ocrindex API.
//
// It covers the three operations the service exposes: submitting a document
// for background OCR indexing, querying extracted content, and checking
// service health.
//
//	client := sdk.New("http://localhost:8080", sdk.WithToken(token))
//
//	if err := client.SubmitOCR(ctx, signedURL); err != nil { ... }
//
//	results, fromCache, err := client.Extract(ctx, "total amount", "dummy")
package sdk
