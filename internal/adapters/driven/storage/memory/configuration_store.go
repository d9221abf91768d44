package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
)

// Ensure ConfigurationStore implements the interface.
var _ driven.ConfigurationStore = (*ConfigurationStore)(nil)

// ConfigurationStore is an in-memory implementation of
// driven.ConfigurationStore, used by tests and by deployments that don't
// need persistence across restarts.
type ConfigurationStore struct {
	mu        sync.RWMutex
	snapshots map[string]domain.ConfigurationSnapshot
}

// NewConfigurationStore creates a new in-memory configuration store.
func NewConfigurationStore() *ConfigurationStore {
	return &ConfigurationStore{
		snapshots: make(map[string]domain.ConfigurationSnapshot),
	}
}

// Create persists a new configuration snapshot.
func (s *ConfigurationStore) Create(_ context.Context, snap *domain.ConfigurationSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.ID] = cloneSnapshot(snap)
	return nil
}

// Get retrieves a configuration snapshot by id.
func (s *ConfigurationStore) Get(_ context.Context, id string) (*domain.ConfigurationSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := cloneSnapshot(&snap)
	return &cp, nil
}

// List returns every configuration snapshot owned by owner.
func (s *ConfigurationStore) List(_ context.Context, owner string) ([]domain.ConfigurationSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.ConfigurationSnapshot
	for _, snap := range s.snapshots {
		if snap.Owner == owner {
			result = append(result, cloneSnapshot(&snap))
		}
	}
	return result, nil
}

// Update persists changes to an existing configuration snapshot.
func (s *ConfigurationStore) Update(_ context.Context, snap *domain.ConfigurationSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[snap.ID]; !ok {
		return domain.ErrNotFound
	}
	s.snapshots[snap.ID] = cloneSnapshot(snap)
	return nil
}

// Delete removes a configuration snapshot.
func (s *ConfigurationStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, id)
	return nil
}

// Activate atomically deactivates every other configuration owned by owner
// and sets id active (I5).
func (s *ConfigurationStore) Activate(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.snapshots[id]
	if !ok || target.Owner != owner {
		return domain.ErrNotFound
	}
	for key, snap := range s.snapshots {
		if snap.Owner != owner {
			continue
		}
		snap.Active = snap.ID == id
		s.snapshots[key] = snap
	}
	return nil
}

// GetActive returns the active configuration for owner.
func (s *ConfigurationStore) GetActive(_ context.Context, owner string) (*domain.ConfigurationSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, snap := range s.snapshots {
		if snap.Owner == owner && snap.Active {
			cp := cloneSnapshot(&snap)
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func cloneSnapshot(snap *domain.ConfigurationSnapshot) domain.ConfigurationSnapshot {
	cp := *snap
	if snap.LLMParams != nil {
		cp.LLMParams = make(map[string]any, len(snap.LLMParams))
		for k, v := range snap.LLMParams {
			cp.LLMParams[k] = v
		}
	}
	if snap.EmbeddingParams != nil {
		cp.EmbeddingParams = make(map[string]any, len(snap.EmbeddingParams))
		for k, v := range snap.EmbeddingParams {
			cp.EmbeddingParams[k] = v
		}
	}
	if snap.VectorParams != nil {
		cp.VectorParams = make(map[string]any, len(snap.VectorParams))
		for k, v := range snap.VectorParams {
			cp.VectorParams[k] = v
		}
	}
	return cp
}
