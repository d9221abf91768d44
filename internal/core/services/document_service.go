package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-cli/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// AllowedExtensions are the extensions §6 permits through upload, lowercase
// without the leading dot.
var AllowedExtensions = map[string]bool{
	"pdf":  true,
	"docx": true,
	"txt":  true,
	"md":   true,
	"html": true,
	"json": true,
}

// MaxUploadBytes is the per-file ceiling named in §6.
const MaxUploadBytes = 50 * 1024 * 1024

// MaxBatchFiles is the per-request file count ceiling named in §6.
const MaxBatchFiles = 10

// DocumentService is the upload/list/get/delete/reindex/clear-all
// orchestration layer consumed by the CLI, MCP, and TUI adapters. It owns
// the registry's lifecycle transitions (Pending -> Processing ->
// {Indexed|Error}) and the physical storage of uploaded files, delegating
// extraction/chunk/embed/index work to C7 and C8.
type DocumentService struct {
	registry  driven.DocumentRegistry
	processor *DocumentProcessor
	batch     *BatchProcessor
	uploadDir string
}

// NewDocumentService wires the registry and processing pipeline backing
// document orchestration, storing uploaded files under uploadDir.
func NewDocumentService(registry driven.DocumentRegistry, processor *DocumentProcessor, batch *BatchProcessor, uploadDir string) *DocumentService {
	return &DocumentService{registry: registry, processor: processor, batch: batch, uploadDir: uploadDir}
}

// Upload stores one file, registers it Pending, then processes it
// synchronously to {Indexed|Error}.
func (s *DocumentService) Upload(ctx context.Context, filename string, content []byte) (*domain.Document, error) {
	if err := validateUpload(filename, content); err != nil {
		return nil, err
	}

	doc, err := s.store(filename, content)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("register document: %w", err)
	}

	s.processOne(ctx, doc)
	if err := s.registry.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist document status: %w", err)
	}
	return doc, nil
}

// UploadBatch stores and registers every file as Pending, then runs C8
// sequentially across them, reporting progress via onProgress.
func (s *DocumentService) UploadBatch(ctx context.Context, files map[string][]byte, onProgress driving.ProgressFunc) (driving.BatchResult, error) {
	if len(files) > MaxBatchFiles {
		return driving.BatchResult{}, fmt.Errorf("%w: %d files exceeds the %d-file batch limit", domain.ErrInvalidInput, len(files), MaxBatchFiles)
	}

	docs := make([]*domain.Document, 0, len(files))
	for filename, content := range files {
		if err := validateUpload(filename, content); err != nil {
			return driving.BatchResult{}, err
		}
		doc, err := s.store(filename, content)
		if err != nil {
			return driving.BatchResult{}, err
		}
		if err := s.registry.Create(ctx, doc); err != nil {
			return driving.BatchResult{}, fmt.Errorf("register document %s: %w", filename, err)
		}
		docs = append(docs, doc)
	}

	result := s.batch.ProcessSequentially(ctx, docs, DefaultDocumentProcessOptions(), onProgress)
	for i := range result.Processed {
		if err := s.registry.Update(ctx, &result.Processed[i]); err != nil {
			logger.Warn("upload batch: persist document %s: %v", result.Processed[i].ID, err)
		}
	}
	return result, nil
}

// List returns every registered document.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.registry.List(ctx)
}

// Get retrieves a document by id.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.registry.Get(ctx, id)
}

// Delete removes a document's registry entry, vectors, and stored file.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.registry.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	if err := s.processor.DeleteDocumentChunks(ctx, s.registry, id); err != nil {
		return fmt.Errorf("delete document vectors: %w", err)
	}
	if err := s.registry.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete registry entry: %w", err)
	}

	if doc.StoragePath != "" {
		if err := os.Remove(doc.StoragePath); err != nil && !os.IsNotExist(err) {
			logger.Warn("delete document %s: remove file %s: %v", id, doc.StoragePath, err)
		}
	}
	return nil
}

// Reindex reprocesses an existing document's stored file in place.
func (s *DocumentService) Reindex(ctx context.Context, id string) error {
	doc, err := s.registry.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	if err := s.processor.DeleteDocumentChunks(ctx, s.registry, id); err != nil {
		return fmt.Errorf("clear existing vectors: %w", err)
	}

	s.processOne(ctx, doc)
	if err := s.registry.Update(ctx, doc); err != nil {
		return fmt.Errorf("persist document status: %w", err)
	}
	if doc.Status == domain.DocumentError {
		return &domain.ProcessingError{DocumentID: id, Stage: "reindex", Cause: errors.New(doc.ErrorMessage)}
	}
	return nil
}

// ClearAll empties the vector index, removes every stored upload file, and
// clears the registry, per §4.11.
func (s *DocumentService) ClearAll(ctx context.Context) error {
	if err := s.processor.ClearAllDocuments(ctx, s.uploadDir); err != nil {
		return fmt.Errorf("clear vector index: %w", err)
	}
	if err := s.registry.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear registry: %w", err)
	}
	return nil
}

// processOne runs C7 against a single document, recording the outcome on
// doc in place (Processing -> {Indexed|Error}); it never returns an error,
// mirroring C8's per-document failure handling.
func (s *DocumentService) processOne(ctx context.Context, doc *domain.Document) {
	doc.Status = domain.DocumentProcessing
	chunks, err := s.processor.Process(ctx, doc, DefaultDocumentProcessOptions())
	if err != nil {
		logger.Warn("process document %s: %v", doc.ID, err)
		doc.Status = domain.DocumentError
		doc.ErrorMessage = err.Error()
		return
	}
	doc.Status = domain.DocumentIndexed
	doc.Chunks = summarize(chunks)
	now := time.Now()
	doc.ProcessedAt = &now
}

// store writes content under the upload directory and builds the
// corresponding Pending registry entry.
func (s *DocumentService) store(filename string, content []byte) (*domain.Document, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	id := uuid.New().String()
	ext := extensionOf(filename)
	storagePath := filepath.Join(s.uploadDir, id+"."+ext)
	if err := os.WriteFile(storagePath, content, 0o644); err != nil {
		return nil, fmt.Errorf("store uploaded file: %w", err)
	}

	return &domain.Document{
		ID:          id,
		Filename:    filename,
		Extension:   ext,
		SizeBytes:   int64(len(content)),
		StoragePath: storagePath,
		Status:      domain.DocumentPending,
		UploadedAt:  time.Now(),
	}, nil
}

func validateUpload(filename string, content []byte) error {
	if len(content) > MaxUploadBytes {
		return fmt.Errorf("%w: %s exceeds the %d byte upload limit", domain.ErrInvalidInput, filename, MaxUploadBytes)
	}
	ext := extensionOf(filename)
	if !AllowedExtensions[ext] {
		return fmt.Errorf("%w: unsupported extension %q", domain.ErrUnsupportedType, ext)
	}
	return nil
}

func extensionOf(filename string) string {
	ext := filepath.Ext(filename)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
