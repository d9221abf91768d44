package services

import (
	"context"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-cli/internal/logger"
)

// BatchProcessor runs C7 over many documents one at a time, capping peak
// memory at a single document's working set while C7's own batch-embed and
// batch-upsert fan-out still runs concurrently within each document (C8).
type BatchProcessor struct {
	processor *DocumentProcessor
}

// NewBatchProcessor wires a DocumentProcessor for sequential batch ingest.
func NewBatchProcessor(processor *DocumentProcessor) *BatchProcessor {
	return &BatchProcessor{processor: processor}
}

// ProcessSequentially runs C7 against each document in order, continuing
// past per-document failures rather than aborting the batch.
func (b *BatchProcessor) ProcessSequentially(
	ctx context.Context,
	docs []*domain.Document,
	opts DocumentProcessOptions,
	onProgress driving.ProgressFunc,
) driving.BatchResult {
	logger.Section("Batch Processing")
	logger.Info("Processing %d documents sequentially", len(docs))

	result := driving.BatchResult{
		Processed: make([]domain.Document, 0, len(docs)),
		Failed:    make([]driving.BatchFailure, 0),
	}

	for i, doc := range docs {
		if onProgress != nil {
			onProgress(i+1, len(docs), doc.Filename)
		}

		chunks, err := b.processor.Process(ctx, doc, opts)
		if err != nil {
			logger.Warn("Batch: document %s failed: %v", doc.Filename, err)
			result.Failed = append(result.Failed, driving.BatchFailure{Filename: doc.Filename, Err: err})
			doc.Status = domain.DocumentError
			doc.ErrorMessage = err.Error()
			result.Processed = append(result.Processed, *doc)
			continue
		}

		doc.Status = domain.DocumentIndexed
		doc.Chunks = summarize(chunks)
		result.Processed = append(result.Processed, *doc)
	}

	logger.Info("Batch complete: %d succeeded, %d failed", len(docs)-len(result.Failed), len(result.Failed))
	return result
}

func summarize(chunks []domain.ProcessedChunk) []domain.ChunkSummary {
	summaries := make([]domain.ChunkSummary, len(chunks))
	for i, c := range chunks {
		startChar, _ := c.Metadata["startChar"].(int)
		endChar, _ := c.Metadata["endChar"].(int)
		summaries[i] = domain.ChunkSummary{ID: c.ID, Content: c.Content, StartChar: startChar, EndChar: endChar}
	}
	return summaries
}
