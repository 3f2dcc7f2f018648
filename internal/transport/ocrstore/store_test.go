package ocrstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tektome/ocrindex/internal/domain"
)

func writePayload(t *testing.T, dir, fileID, content string) {
	t.Helper()
	payload := `{"analyzeResult": {"content": ` + content + `}}`
	if err := os.WriteFile(filepath.Join(dir, fileID+".json"), []byte(payload), 0o600); err != nil {
		t.Fatalf("write payload: %v", err)
	}
}

func TestText_Found(t *testing.T) {
	dir := t.TempDir()
	writePayload(t, dir, "doc123", `"Invoice total: 42 EUR"`)

	s := New(dir)
	text, err := s.Text(context.Background(), "doc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Invoice total: 42 EUR" {
		t.Errorf("text = %q", text)
	}
}

func TestText_NotFound(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.Text(context.Background(), "doc123")
	if !errors.Is(err, domain.ErrOCRNotFound) {
		t.Fatalf("err = %v, want ErrOCRNotFound", err)
	}
}

func TestText_MalformedPayload(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{oops"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := New(dir)
	_, err := s.Text(context.Background(), "bad")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if errors.Is(err, domain.ErrOCRNotFound) {
		t.Fatal("malformed payload must not read as not-found")
	}
}

func TestText_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(t.TempDir())
	if _, err := s.Text(ctx, "doc123"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
