package driven

import (
	"context"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

// DocumentRegistry is the mapping from document identity to metadata, status,
// and chunk summary (C11). Implementations back it with SQLite or memory.
type DocumentRegistry interface {
	// Create inserts a new document, normally in DocumentPending status.
	Create(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by id.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns every registered document.
	List(ctx context.Context) ([]domain.Document, error)

	// Update persists changes to an existing document (status, chunks, etc).
	Update(ctx context.Context, doc *domain.Document) error

	// Delete removes a document's registry entry.
	Delete(ctx context.Context, id string) error

	// ClearAll removes every registry entry.
	ClearAll(ctx context.Context) error

	// ChunkIDs returns the chunk ids recorded for a document, the
	// registry-backed source of truth C7 uses to delete vectors (§9).
	ChunkIDs(ctx context.Context, documentID string) ([]string, error)

	// Count returns the number of registered documents.
	Count(ctx context.Context) (int, error)
}

// ConfigurationStore persists ConfigurationSnapshot records (C10).
type ConfigurationStore interface {
	Create(ctx context.Context, snap *domain.ConfigurationSnapshot) error
	Get(ctx context.Context, id string) (*domain.ConfigurationSnapshot, error)
	List(ctx context.Context, owner string) ([]domain.ConfigurationSnapshot, error)
	Update(ctx context.Context, snap *domain.ConfigurationSnapshot) error
	Delete(ctx context.Context, id string) error

	// Activate atomically deactivates every other configuration owned by
	// owner and sets id active (I5).
	Activate(ctx context.Context, owner, id string) error

	// GetActive returns the active configuration for owner, or
	// domain.ErrNotFound if none.
	GetActive(ctx context.Context, owner string) (*domain.ConfigurationSnapshot, error)
}
