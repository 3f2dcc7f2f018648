package domain

import "strings"

// Job is one unit of background OCR indexing work. A job carries the signed
// URL of the uploaded document and the number of attempts already made; each
// retry is a fresh job with Attempt incremented, never a resumed one.
type Job struct {
	SignedURL string `json:"signed_url"`
	Attempt   int    `json:"attempt"`
}

// FileIDFromSignedURL derives the stable file identifier from a signed URL:
// the last path segment with any ".pdf" suffix stripped.
func FileIDFromSignedURL(signedURL string) string {
	id := signedURL
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	if i := strings.Index(id, "?"); i >= 0 {
		id = id[:i]
	}
	return strings.TrimSuffix(id, ".pdf")
}

// DocumentID derives the vector index document ID for a signed URL.
// Equal URLs always map to the same ID, which makes the upsert idempotent.
func DocumentID(signedURL string) string {
	return "document_" + FileIDFromSignedURL(signedURL)
}
