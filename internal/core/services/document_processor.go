package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/sercha-cli/internal/chunk"
	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-cli/internal/lang"
	"github.com/custodia-labs/sercha-cli/internal/logger"
)

// Defaults and batch sizes named in §4.7.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100

	embedBatchSize  = 20
	upsertBatchSize = 50
)

// DocumentProcessOptions configures a single C7 run.
type DocumentProcessOptions struct {
	ChunkSize       int
	ChunkOverlap    int
	ExtractMetadata bool
}

// DefaultDocumentProcessOptions returns the defaults named in §4.7.
func DefaultDocumentProcessOptions() DocumentProcessOptions {
	return DocumentProcessOptions{
		ChunkSize:       DefaultChunkSize,
		ChunkOverlap:    DefaultChunkOverlap,
		ExtractMetadata: true,
	}
}

// DocumentProcessor runs the C1 -> C3 -> C4 -> C5 pipeline for one document
// at a time (C7). Embedding and vector-upsert calls are fanned out across
// batches concurrently; the document's own extraction and chunking stay
// sequential since they depend on each other.
type DocumentProcessor struct {
	extractors driven.ExtractorRegistry
	embedder   driven.EmbeddingProvider
	vectors    driven.VectorIndex
}

// NewDocumentProcessor wires the extractor registry, embedding provider and
// vector index that back C7.
func NewDocumentProcessor(extractors driven.ExtractorRegistry, embedder driven.EmbeddingProvider, vectors driven.VectorIndex) *DocumentProcessor {
	return &DocumentProcessor{extractors: extractors, embedder: embedder, vectors: vectors}
}

// Process extracts, chunks, embeds and indexes one document, returning the
// full list of processed chunks.
func (p *DocumentProcessor) Process(ctx context.Context, doc *domain.Document, opts DocumentProcessOptions) ([]domain.ProcessedChunk, error) {
	logger.Section("Document Processing")
	logger.Debug("Processing document %s (%s)", doc.ID, doc.Filename)

	extracted, err := p.extractors.Extract(ctx, doc.StoragePath, doc.Extension)
	if err != nil {
		return nil, &domain.ProcessingError{DocumentID: doc.ID, Stage: "extract", Cause: err}
	}
	logger.Debug("Extracted %d characters", len(extracted.Text))

	primary, _ := lang.Detect(extracted.Text)
	doc.Language = primary

	chunks := chunk.Split(extracted.Text, opts.ChunkSize, opts.ChunkOverlap)
	logger.Info("Chunked into %d segments", len(chunks))
	if len(chunks) == 0 || (len(chunks) == 1 && chunks[0].Content == "") {
		return nil, nil
	}

	processed, err := p.embedChunks(ctx, doc, chunks, opts)
	if err != nil {
		return nil, &domain.ProcessingError{DocumentID: doc.ID, Stage: "embed", Cause: err}
	}

	if err := p.upsertChunks(ctx, processed); err != nil {
		return nil, &domain.ProcessingError{DocumentID: doc.ID, Stage: "index", Cause: err}
	}

	logger.Info("Document %s indexed: %d chunks", doc.ID, len(processed))
	return processed, nil
}

// embedChunks partitions chunks into batches of embedBatchSize and embeds
// them concurrently, pairing each chunk with its embedding.
func (p *DocumentProcessor) embedChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, opts DocumentProcessOptions) ([]domain.ProcessedChunk, error) {
	batches := partitionChunks(chunks, embedBatchSize)
	results := make([][]domain.ProcessedChunk, len(batches))
	errs := make([]error, len(batches))

	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []domain.Chunk, offset int) {
			defer wg.Done()

			texts := make([]string, len(batch))
			for j, c := range batch {
				texts[j] = c.Content
			}

			embedResult, err := p.embedder.EmbedMany(ctx, texts)
			if err != nil {
				errs[i] = fmt.Errorf("embed batch %d: %w", i, err)
				return
			}

			out := make([]domain.ProcessedChunk, len(batch))
			for j, c := range batch {
				index := offset + j
				metadata := map[string]any{
					"documentId": doc.ID,
					"filename":   doc.Filename,
					"chunkIndex": index,
					"startChar":  c.StartChar,
					"endChar":    c.EndChar,
				}
				if !opts.ExtractMetadata {
					metadata = map[string]any{"documentId": doc.ID, "chunkIndex": index}
				}
				out[j] = domain.ProcessedChunk{
					ID:        fmt.Sprintf("%s_chunk_%d", doc.ID, index),
					Content:   c.Content,
					Embedding: embedResult.Vectors[j],
					Metadata:  metadata,
				}
			}
			results[i] = out
		}(i, batch, i*embedBatchSize)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	processed := make([]domain.ProcessedChunk, 0, len(chunks))
	for _, r := range results {
		processed = append(processed, r...)
	}
	return processed, nil
}

// upsertChunks partitions processed chunks into batches of upsertBatchSize
// and upserts them into the vector index concurrently.
func (p *DocumentProcessor) upsertChunks(ctx context.Context, processed []domain.ProcessedChunk) error {
	batches := partitionProcessed(processed, upsertBatchSize)
	errs := make([]error, len(batches))

	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []domain.ProcessedChunk) {
			defer wg.Done()

			records := make([]domain.VectorRecord, len(batch))
			for j, c := range batch {
				records[j] = domain.VectorRecord{ID: c.ID, Content: c.Content, Embedding: c.Embedding, Metadata: c.Metadata}
			}
			if err := p.vectors.AddDocuments(ctx, records); err != nil {
				errs[i] = fmt.Errorf("upsert batch %d: %w", i, err)
			}
		}(i, batch)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteDocumentChunks removes every vector belonging to a document, using
// the registry as the source of truth for chunk ids rather than a range
// guess, per §9's redesigned deletion path.
func (p *DocumentProcessor) DeleteDocumentChunks(ctx context.Context, registry driven.DocumentRegistry, documentID string) error {
	ids, err := registry.ChunkIDs(ctx, documentID)
	if err != nil {
		return fmt.Errorf("list chunk ids: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	return p.vectors.Delete(ctx, ids)
}

// Reindex clears the vector index, then processes every document
// concurrently, per §4.7.
func (p *DocumentProcessor) Reindex(ctx context.Context, docs []*domain.Document, opts DocumentProcessOptions) error {
	if err := p.vectors.Clear(ctx); err != nil {
		return fmt.Errorf("clear vector index: %w", err)
	}

	errs := make([]error, len(docs))
	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc *domain.Document) {
			defer wg.Done()
			if _, err := p.Process(ctx, doc, opts); err != nil {
				errs[i] = err
			}
		}(i, doc)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ClearAllDocuments empties the vector index and best-effort removes every
// file under uploadsDir. Registry deletion is the caller's responsibility
// (§4.11's clearAll is a separate registry operation); failures removing
// individual files are logged, not returned, since the vector index is the
// durable state that matters here.
func (p *DocumentProcessor) ClearAllDocuments(ctx context.Context, uploadsDir string) error {
	if err := p.vectors.Clear(ctx); err != nil {
		return fmt.Errorf("clear vector index: %w", err)
	}

	entries, err := os.ReadDir(uploadsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		logger.Warn("clear all documents: read uploads dir: %v", err)
		return nil
	}
	for _, entry := range entries {
		path := filepath.Join(uploadsDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("clear all documents: remove %s: %v", path, err)
		}
	}
	return nil
}

func partitionChunks(items []domain.Chunk, size int) [][]domain.Chunk {
	var batches [][]domain.Chunk
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

func partitionProcessed(items []domain.ProcessedChunk, size int) [][]domain.ProcessedChunk {
	var batches [][]domain.ProcessedChunk
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
