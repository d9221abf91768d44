package driven

import (
	"context"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

// EmbedResult is the outcome of an EmbedMany call: one vector per input
// string, in order, plus usage accounting summed across any sub-batches
// the provider needed to respect a backend request-size cap.
type EmbedResult struct {
	Vectors [][]float32
	Usage   *domain.TokenUsage
	Model   string
}

// EmbeddingProvider maps strings to fixed-dimension float vectors (C4).
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingProvider interface {
	// EmbedOne generates a single embedding.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// EmbedMany generates embeddings for an arbitrary number of texts. When
	// len(texts) exceeds the backend's per-request cap, implementations
	// partition into batches of at most 20 items, pace sub-calls roughly
	// 100ms apart, and sum usage across them.
	EmbedMany(ctx context.Context, texts []string) (EmbedResult, error)

	// Dimensions returns D, the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// TestConnection reports whether the backend is reachable.
	TestConnection(ctx context.Context) bool

	// Close releases resources.
	Close() error
}
