package driven

import (
	"context"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

// PostProcessor transforms extracted text into chunks, or transforms an
// existing set of chunks (e.g. language tagging). PostProcessors are chained
// in a PostProcessorPipeline.
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes the document's extracted text and the chunks produced
	// so far (nil for the first processor in the chain) and returns the
	// resulting chunks.
	Process(ctx context.Context, text string, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs text through every processor in order and returns the
	// final chunks.
	Process(ctx context.Context, text string) ([]domain.Chunk, error)
}
