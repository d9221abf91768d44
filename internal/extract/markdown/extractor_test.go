package markdown

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractor_SupportedExtensions(t *testing.T) {
	e := New()
	exts := e.SupportedExtensions()
	if len(exts) != 1 || exts[0] != ".md" {
		t.Errorf("expected [.md], got %v", exts)
	}
}

func TestExtractor_Extract_StripsFormatting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	md := "# Title\n\nSome **bold** and _italic_ text with a [link](http://example.com).\n\n- item one\n- item two\n"
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	e := New()
	result, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(result.Text, "#") || strings.Contains(result.Text, "**") || strings.Contains(result.Text, "[") {
		t.Errorf("expected markdown stripped, got %q", result.Text)
	}
	if !strings.Contains(result.Text, "Title") || !strings.Contains(result.Text, "link") {
		t.Errorf("expected title and link text preserved, got %q", result.Text)
	}
	if result.Metadata["format"] != "markdown" {
		t.Errorf("expected format markdown, got %v", result.Metadata["format"])
	}
}
