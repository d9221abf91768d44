package driving

import (
	"context"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

// ConfigurationService is the driving port for the Configuration Coordinator (C10).
type ConfigurationService interface {
	// Create validates every provider (testConnection) and persists a new snapshot.
	Create(ctx context.Context, snap *domain.ConfigurationSnapshot) error

	// Update merges patch into the existing snapshot, re-validating changed
	// providers, and rebuilds the active pipeline if the snapshot is active.
	Update(ctx context.Context, id string, patch domain.ConfigurationPatch) error

	// Activate atomically deactivates every other configuration owned by
	// owner, activates id, and rebuilds the active pipeline.
	Activate(ctx context.Context, owner, id string) error

	// Get retrieves a configuration snapshot by id.
	Get(ctx context.Context, id string) (*domain.ConfigurationSnapshot, error)

	// List returns every configuration snapshot owned by owner.
	List(ctx context.Context, owner string) ([]domain.ConfigurationSnapshot, error)

	// Delete removes a configuration snapshot.
	Delete(ctx context.Context, id string) error

	// GetActivePipeline returns the RAG query service built from the
	// active configuration, constructing it lazily on first call.
	// Returns *domain.NoActiveConfigurationError if none is active.
	GetActivePipeline(ctx context.Context, owner string) (RAGService, error)

	// SystemStatus reports aggregate health of the active configuration.
	SystemStatus(ctx context.Context, owner string) (domain.SystemStatus, error)
}
