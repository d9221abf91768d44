package docx

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTestDocx(t *testing.T, path, documentXML string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create temp docx: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	wr, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := wr.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
}

func TestExtractor_SupportedExtensions(t *testing.T) {
	e := New()
	exts := e.SupportedExtensions()
	if len(exts) != 1 || exts[0] != ".docx" {
		t.Errorf("expected [.docx], got %v", exts)
	}
}

func TestExtractor_Extract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.docx")
	xmlBody := `<w:document xmlns:w="ns"><w:body><w:p><w:r><w:t>Hello world</w:t></w:r></w:p></w:body></w:document>`
	writeTestDocx(t, path, xmlBody)

	e := New()
	result, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", result.Text)
	}
	if result.Metadata["format"] != "docx" {
		t.Errorf("expected format docx, got %v", result.Metadata["format"])
	}
}

func TestExtractor_Extract_NotAZip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.docx")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	e := New()
	_, err := e.Extract(context.Background(), path)
	if err == nil {
		t.Error("expected error for invalid zip")
	}
}
