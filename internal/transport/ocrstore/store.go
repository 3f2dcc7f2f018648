package ocrstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tektome/ocrindex/internal/domain"
)

// Store resolves file IDs to extracted OCR text. The extraction engine
// itself runs elsewhere; this reads its JSON output, one
// <file_id>.json payload per document, from a shared directory.
type Store struct {
	dir string
}

// New creates an OCR text store over the given directory.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// ocrPayload is the extraction engine's result format.
type ocrPayload struct {
	AnalyzeResult struct {
		Content string `json:"content"`
	} `json:"analyzeResult"`
}

// Text returns the extracted text for fileID. A document with no extraction
// output yields domain.ErrOCRNotFound, which callers treat as terminal.
func (s *Store) Text(ctx context.Context, fileID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, fileID+".json")
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", fileID, domain.ErrOCRNotFound)
		}
		return "", fmt.Errorf("read ocr payload %s: %w", path, err)
	}

	var payload ocrPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("parse ocr payload %s: %w", path, err)
	}
	return payload.AnalyzeResult.Content, nil
}
