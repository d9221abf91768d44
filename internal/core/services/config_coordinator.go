package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-cli/internal/logger"
)

// Ensure ConfigCoordinator implements the interface.
var _ driving.ConfigurationService = (*ConfigCoordinator)(nil)

// pipelineEntry caches the providers backing one owner's active pipeline,
// so TestConnections/SystemStatus can probe them without rebuilding.
type pipelineEntry struct {
	embedder driven.EmbeddingProvider
	vectors  driven.VectorIndex
	llm      driven.LLMProvider
	pipeline *RAGPipeline
}

// ConfigCoordinator binds Configuration snapshots to provider instances and
// rebuilds the active pipeline on any change that affects it (C10).
type ConfigCoordinator struct {
	store    driven.ConfigurationStore
	registry driven.DocumentRegistry

	// buildEntry and validateEntry are swappable so tests can substitute
	// fake providers instead of exercising real network-backed ones.
	buildEntry    func(*domain.ConfigurationSnapshot) (*pipelineEntry, error)
	validateEntry func(context.Context, *pipelineEntry) error

	mu        sync.Mutex
	pipelines map[string]*pipelineEntry // owner -> active pipeline
}

// NewConfigCoordinator wires the configuration store and document registry
// backing C10.
func NewConfigCoordinator(store driven.ConfigurationStore, registry driven.DocumentRegistry) *ConfigCoordinator {
	return &ConfigCoordinator{
		store:         store,
		registry:      registry,
		buildEntry:    buildEntry,
		validateEntry: validateEntry,
		pipelines:     make(map[string]*pipelineEntry),
	}
}

// buildEntry constructs providers and a pipeline for snap, without
// persisting or caching anything.
func buildEntry(snap *domain.ConfigurationSnapshot) (*pipelineEntry, error) {
	embedder, err := ai.BuildEmbeddingProvider(snap.EmbeddingProviderKind, snap.EmbeddingParams)
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "embedding", Cause: err}
	}

	vectors, err := ai.BuildVectorIndex(snap.VectorProviderKind, snap.VectorParams)
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "vector", Cause: err}
	}

	llm, err := ai.BuildLLMProvider(snap.LLMProviderKind, snap.LLMParams)
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "llm", Cause: err}
	}

	return &pipelineEntry{
		embedder: embedder,
		vectors:  vectors,
		llm:      llm,
		pipeline: NewRAGPipeline(embedder, vectors, llm),
	}, nil
}

// validateEntry runs testConnection against every provider, concurrently,
// failing with a ConfigurationError naming the first provider that rejects.
func validateEntry(ctx context.Context, entry *pipelineEntry) error {
	if err := entry.vectors.Initialize(ctx); err != nil {
		return &domain.ConfigurationError{Field: "vector", Cause: err}
	}

	type probe struct {
		field string
		ok    bool
	}
	results := make(chan probe, 3)
	var wg sync.WaitGroup
	wg.Add(3)

	go func() { defer wg.Done(); results <- probe{"embedding", entry.embedder.TestConnection(ctx)} }()
	go func() { defer wg.Done(); results <- probe{"vector", entry.vectors.TestConnection(ctx)} }()
	go func() { defer wg.Done(); results <- probe{"llm", entry.llm.TestConnection(ctx)} }()

	wg.Wait()
	close(results)

	for r := range results {
		if !r.ok {
			return &domain.ConfigurationError{Field: r.field, Cause: fmt.Errorf("test connection failed")}
		}
	}
	return nil
}

// Create validates every provider and persists a new snapshot.
func (c *ConfigCoordinator) Create(ctx context.Context, snap *domain.ConfigurationSnapshot) error {
	entry, err := c.buildEntry(snap)
	if err != nil {
		return err
	}
	if err := c.validateEntry(ctx, entry); err != nil {
		return err
	}

	snap.CreatedAt = time.Now()
	if err := c.store.Create(ctx, snap); err != nil {
		return fmt.Errorf("persist configuration: %w", err)
	}

	if snap.Active {
		c.cachePipeline(snap.Owner, entry)
	}
	return nil
}

// Update merges patch into the existing snapshot, re-validates changed
// providers, persists, and rebuilds the active pipeline if applicable.
func (c *ConfigCoordinator) Update(ctx context.Context, id string, patch domain.ConfigurationPatch) error {
	snap, err := c.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get configuration: %w", err)
	}

	applyPatch(snap, patch)

	entry, err := c.buildEntry(snap)
	if err != nil {
		return err
	}
	if err := c.validateEntry(ctx, entry); err != nil {
		return err
	}

	if err := c.store.Update(ctx, snap); err != nil {
		return fmt.Errorf("persist configuration: %w", err)
	}

	if snap.Active {
		c.cachePipeline(snap.Owner, entry)
	}
	return nil
}

func applyPatch(snap *domain.ConfigurationSnapshot, patch domain.ConfigurationPatch) {
	if patch.LLMProviderKind != nil {
		snap.LLMProviderKind = *patch.LLMProviderKind
	}
	if patch.LLMParams != nil {
		snap.LLMParams = patch.LLMParams
	}
	if patch.EmbeddingProviderKind != nil {
		snap.EmbeddingProviderKind = *patch.EmbeddingProviderKind
	}
	if patch.EmbeddingParams != nil {
		snap.EmbeddingParams = patch.EmbeddingParams
	}
	if patch.VectorProviderKind != nil {
		snap.VectorProviderKind = *patch.VectorProviderKind
	}
	if patch.VectorParams != nil {
		snap.VectorParams = patch.VectorParams
	}
}

// Activate atomically deactivates every other configuration owned by owner,
// activates id, and rebuilds the active pipeline.
func (c *ConfigCoordinator) Activate(ctx context.Context, owner, id string) error {
	if err := c.store.Activate(ctx, owner, id); err != nil {
		return fmt.Errorf("activate configuration: %w", err)
	}

	snap, err := c.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get configuration: %w", err)
	}

	entry, err := c.buildEntry(snap)
	if err != nil {
		return err
	}
	if err := c.validateEntry(ctx, entry); err != nil {
		return err
	}

	c.cachePipeline(owner, entry)
	return nil
}

// Get retrieves a configuration snapshot by id.
func (c *ConfigCoordinator) Get(ctx context.Context, id string) (*domain.ConfigurationSnapshot, error) {
	return c.store.Get(ctx, id)
}

// List returns every configuration snapshot owned by owner.
func (c *ConfigCoordinator) List(ctx context.Context, owner string) ([]domain.ConfigurationSnapshot, error) {
	return c.store.List(ctx, owner)
}

// Delete removes a configuration snapshot.
func (c *ConfigCoordinator) Delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, id)
}

// GetActivePipeline returns the RAG query service built from the active
// configuration, constructing and caching it lazily on first call.
func (c *ConfigCoordinator) GetActivePipeline(ctx context.Context, owner string) (driving.RAGService, error) {
	c.mu.Lock()
	if entry, ok := c.pipelines[owner]; ok {
		c.mu.Unlock()
		return entry.pipeline, nil
	}
	c.mu.Unlock()

	snap, err := c.store.GetActive(ctx, owner)
	if err != nil {
		return nil, &domain.NoActiveConfigurationError{Owner: owner}
	}

	entry, err := c.buildEntry(snap)
	if err != nil {
		return nil, err
	}
	if err := entry.vectors.Initialize(ctx); err != nil {
		return nil, &domain.VectorStoreError{Provider: snap.VectorProviderKind, Op: "initialize", Cause: err}
	}

	c.cachePipeline(owner, entry)
	return entry.pipeline, nil
}

// SystemStatus reports aggregate health of the active configuration, with
// testConnection probes fanned out concurrently across the three providers.
func (c *ConfigCoordinator) SystemStatus(ctx context.Context, owner string) (domain.SystemStatus, error) {
	count, err := c.registry.Count(ctx)
	if err != nil {
		logger.Warn("system status: document count failed: %v", err)
	}

	snap, err := c.store.GetActive(ctx, owner)
	if err != nil {
		return domain.SystemStatus{HasActiveConfig: false, DocumentCount: count}, nil
	}

	entry, err := c.buildEntry(snap)
	if err != nil {
		return domain.SystemStatus{HasActiveConfig: true, DocumentCount: count}, nil
	}

	type result struct {
		field  string
		status domain.ProviderStatus
	}
	results := make(chan result, 3)
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		results <- result{"embedding", probe(ctx, entry.embedder.TestConnection)}
	}()
	go func() {
		defer wg.Done()
		results <- result{"vector", probe(ctx, entry.vectors.TestConnection)}
	}()
	go func() {
		defer wg.Done()
		results <- result{"llm", probe(ctx, entry.llm.TestConnection)}
	}()
	wg.Wait()
	close(results)

	status := domain.SystemStatus{HasActiveConfig: true, DocumentCount: count}
	for r := range results {
		switch r.field {
		case "embedding":
			status.EmbeddingStatus = r.status
		case "vector":
			status.VectorStatus = r.status
		case "llm":
			status.LLMStatus = r.status
		}
	}
	return status, nil
}

func probe(ctx context.Context, test func(context.Context) bool) domain.ProviderStatus {
	if test(ctx) {
		return domain.ProviderStatus{Connected: true}
	}
	return domain.ProviderStatus{Connected: false, Error: "test connection failed"}
}

func (c *ConfigCoordinator) cachePipeline(owner string, entry *pipelineEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pipelines[owner] = entry
}

// DefaultOwner is used when no owner is otherwise specified, matching the
// single-tenant default bootstrap described in §4.10.
const DefaultOwner = "default"

// Bootstrap creates and activates a default configuration from environment
// credentials if the owner has no configuration yet. Missing credentials
// are not an error: queries simply fail with NoActiveConfigurationError
// until a configuration is created explicitly.
func (c *ConfigCoordinator) Bootstrap(ctx context.Context, owner string) error {
	existing, err := c.store.List(ctx, owner)
	if err != nil {
		return fmt.Errorf("list configurations: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		logger.Debug("bootstrap: no OPENAI_API_KEY, skipping default configuration")
		return nil
	}

	model := envOr("OPENAI_MODEL", "gpt-4o")
	embeddingModel := envOr("OPENAI_EMBEDDING_MODEL", "text-embedding-ada-002")
	indexPath := envOr("FAISS_INDEX_PATH", "./data/faiss_index")

	snap := &domain.ConfigurationSnapshot{
		ID:                    fmt.Sprintf("%s-default", owner),
		Owner:                 owner,
		LLMProviderKind:       domain.LLMOpenAI,
		LLMParams:             map[string]any{"apiKey": apiKey, "model": model},
		EmbeddingProviderKind: domain.EmbeddingOpenAI,
		EmbeddingParams:       map[string]any{"apiKey": apiKey, "model": embeddingModel, "dimension": 1536},
		VectorProviderKind:    domain.VectorFaiss,
		VectorParams:          map[string]any{"indexPath": indexPath, "dimension": 1536, "topK": 5},
		Active:                true,
	}

	logger.Info("bootstrap: creating default configuration for owner %q", owner)
	return c.Create(ctx, snap)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
