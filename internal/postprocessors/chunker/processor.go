// Package chunker adapts the C3 chunking algorithm to the PostProcessor pipeline.
package chunker

import (
	"context"

	"github.com/custodia-labs/sercha-cli/internal/chunk"
	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

// DefaultChunkSize and DefaultChunkOverlap mirror internal/chunk's defaults.
const (
	DefaultChunkSize    = chunk.DefaultSize
	DefaultChunkOverlap = chunk.DefaultOverlap
)

// Processor splits document text into natural-boundary-aligned chunks.
// It implements the driven.PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits text into chunks. Input chunks are ignored; this processor
// creates new chunks from the document's extracted text.
func (p *Processor) Process(_ context.Context, text string, _ []domain.Chunk) ([]domain.Chunk, error) {
	return chunk.Split(text, p.chunkSize, p.overlap), nil
}
