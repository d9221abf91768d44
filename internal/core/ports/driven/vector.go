package driven

import (
	"context"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

// VectorIndex is the durable nearest-neighbor store (C5). A local file-backed
// implementation and remote REST-backed implementations (pinecone, chroma)
// both satisfy this contract.
type VectorIndex interface {
	// Initialize binds to or creates the underlying store. For a local
	// file-backed store this loads a previously persisted index and
	// document map if present.
	Initialize(ctx context.Context) error

	// AddDocuments upserts records by id. Implementations persist before
	// returning (or guarantee durability before the next Search).
	AddDocuments(ctx context.Context, records []domain.VectorRecord) error

	// Search returns up to k nearest neighbours to query. k is clamped to
	// the current record count; an empty index returns ([], nil).
	Search(ctx context.Context, query []float32, k int) ([]domain.SearchHit, error)

	// Delete removes matching records. Non-existent ids are ignored.
	Delete(ctx context.Context, ids []string) error

	// Clear empties the index while preserving its identity and parameters.
	Clear(ctx context.Context) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// TestConnection reports whether the backend is reachable.
	TestConnection(ctx context.Context) bool

	// Close releases resources.
	Close() error
}
