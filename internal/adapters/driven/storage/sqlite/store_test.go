package sqlite

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir, err := os.MkdirTemp("", "sercha-sqlite-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	store, err := NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDocument(id string) *domain.Document {
	return &domain.Document{
		ID:          id,
		Filename:    "report.pdf",
		Extension:   ".pdf",
		SizeBytes:   1024,
		StoragePath: "/data/" + id + ".pdf",
		Status:      domain.DocumentPending,
		Language:    "en",
		UploadedAt:  time.Now().UTC().Truncate(time.Second),
		Chunks: []domain.ChunkSummary{
			{ID: id + "-chunk-0", Content: "first chunk", StartChar: 0, EndChar: 11},
			{ID: id + "-chunk-1", Content: "second chunk", StartChar: 11, EndChar: 23},
		},
	}
}

func TestDocumentRegistry_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	registry := store.DocumentRegistry()
	ctx := context.Background()

	doc := testDocument("doc-1")
	require.NoError(t, registry.Create(ctx, doc))

	got, err := registry.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Filename, got.Filename)
	assert.Equal(t, domain.DocumentPending, got.Status)
	require.Len(t, got.Chunks, 2)
	assert.Equal(t, "first chunk", got.Chunks[0].Content)
	assert.Equal(t, "second chunk", got.Chunks[1].Content)
}

func TestDocumentRegistry_GetMissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	registry := store.DocumentRegistry()

	_, err := registry.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentRegistry_List(t *testing.T) {
	store := newTestStore(t)
	registry := store.DocumentRegistry()
	ctx := context.Background()

	require.NoError(t, registry.Create(ctx, testDocument("doc-1")))
	require.NoError(t, registry.Create(ctx, testDocument("doc-2")))

	docs, err := registry.List(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestDocumentRegistry_UpdateStatusAndChunks(t *testing.T) {
	store := newTestStore(t)
	registry := store.DocumentRegistry()
	ctx := context.Background()

	doc := testDocument("doc-1")
	require.NoError(t, registry.Create(ctx, doc))

	doc.Status = domain.DocumentIndexed
	now := time.Now().UTC().Truncate(time.Second)
	doc.ProcessedAt = &now
	doc.Chunks = []domain.ChunkSummary{
		{ID: "doc-1-chunk-0", Content: "rewritten chunk", StartChar: 0, EndChar: 16},
	}
	require.NoError(t, registry.Update(ctx, doc))

	got, err := registry.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentIndexed, got.Status)
	require.NotNil(t, got.ProcessedAt)
	require.Len(t, got.Chunks, 1)
	assert.Equal(t, "rewritten chunk", got.Chunks[0].Content)
}

func TestDocumentRegistry_Delete(t *testing.T) {
	store := newTestStore(t)
	registry := store.DocumentRegistry()
	ctx := context.Background()

	require.NoError(t, registry.Create(ctx, testDocument("doc-1")))
	require.NoError(t, registry.Delete(ctx, "doc-1"))

	_, err := registry.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentRegistry_ClearAll(t *testing.T) {
	store := newTestStore(t)
	registry := store.DocumentRegistry()
	ctx := context.Background()

	require.NoError(t, registry.Create(ctx, testDocument("doc-1")))
	require.NoError(t, registry.Create(ctx, testDocument("doc-2")))
	require.NoError(t, registry.ClearAll(ctx))

	docs, err := registry.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentRegistry_ChunkIDs(t *testing.T) {
	store := newTestStore(t)
	registry := store.DocumentRegistry()
	ctx := context.Background()

	require.NoError(t, registry.Create(ctx, testDocument("doc-1")))

	ids, err := registry.ChunkIDs(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1-chunk-0", "doc-1-chunk-1"}, ids)
}

func TestDocumentRegistry_Count(t *testing.T) {
	store := newTestStore(t)
	registry := store.DocumentRegistry()
	ctx := context.Background()

	require.NoError(t, registry.Create(ctx, testDocument("doc-1")))
	require.NoError(t, registry.Create(ctx, testDocument("doc-2")))

	count, err := registry.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func testConfiguration(id, owner string) *domain.ConfigurationSnapshot {
	return &domain.ConfigurationSnapshot{
		ID:                    id,
		Owner:                 owner,
		LLMProviderKind:       domain.LLMOpenAI,
		LLMParams:             map[string]any{"apiKey": "k", "model": "gpt-4o"},
		EmbeddingProviderKind: domain.EmbeddingOpenAI,
		EmbeddingParams:       map[string]any{"apiKey": "k", "model": "text-embedding-ada-002"},
		VectorProviderKind:    domain.VectorFaiss,
		VectorParams:          map[string]any{"indexPath": "/tmp/idx"},
		CreatedAt:             time.Now().UTC().Truncate(time.Second),
	}
}

func TestConfigurationStore_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	cfgStore := store.ConfigurationStore()
	ctx := context.Background()

	snap := testConfiguration("cfg-1", "owner-1")
	require.NoError(t, cfgStore.Create(ctx, snap))

	got, err := cfgStore.Get(ctx, "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LLMOpenAI, got.LLMProviderKind)
	assert.Equal(t, "gpt-4o", got.LLMParams["model"])
	assert.Equal(t, domain.VectorFaiss, got.VectorProviderKind)
	assert.False(t, got.Active)
}

func TestConfigurationStore_GetMissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	cfgStore := store.ConfigurationStore()

	_, err := cfgStore.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfigurationStore_List(t *testing.T) {
	store := newTestStore(t)
	cfgStore := store.ConfigurationStore()
	ctx := context.Background()

	require.NoError(t, cfgStore.Create(ctx, testConfiguration("cfg-1", "owner-1")))
	require.NoError(t, cfgStore.Create(ctx, testConfiguration("cfg-2", "owner-1")))
	require.NoError(t, cfgStore.Create(ctx, testConfiguration("cfg-3", "owner-2")))

	list, err := cfgStore.List(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestConfigurationStore_Update(t *testing.T) {
	store := newTestStore(t)
	cfgStore := store.ConfigurationStore()
	ctx := context.Background()

	snap := testConfiguration("cfg-1", "owner-1")
	require.NoError(t, cfgStore.Create(ctx, snap))

	snap.LLMParams["model"] = "gpt-4o-mini"
	require.NoError(t, cfgStore.Update(ctx, snap))

	got, err := cfgStore.Get(ctx, "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", got.LLMParams["model"])
}

func TestConfigurationStore_Delete(t *testing.T) {
	store := newTestStore(t)
	cfgStore := store.ConfigurationStore()
	ctx := context.Background()

	require.NoError(t, cfgStore.Create(ctx, testConfiguration("cfg-1", "owner-1")))
	require.NoError(t, cfgStore.Delete(ctx, "cfg-1"))

	_, err := cfgStore.Get(ctx, "cfg-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfigurationStore_ActivateDeactivatesOthers(t *testing.T) {
	store := newTestStore(t)
	cfgStore := store.ConfigurationStore()
	ctx := context.Background()

	a := testConfiguration("cfg-a", "owner-1")
	a.Active = true
	b := testConfiguration("cfg-b", "owner-1")
	require.NoError(t, cfgStore.Create(ctx, a))
	require.NoError(t, cfgStore.Create(ctx, b))

	require.NoError(t, cfgStore.Activate(ctx, "owner-1", "cfg-b"))

	active, err := cfgStore.GetActive(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "cfg-b", active.ID)

	gotA, err := cfgStore.Get(ctx, "cfg-a")
	require.NoError(t, err)
	assert.False(t, gotA.Active)
}

func TestConfigurationStore_ActivateUnknownIDFails(t *testing.T) {
	store := newTestStore(t)
	cfgStore := store.ConfigurationStore()
	ctx := context.Background()

	require.NoError(t, cfgStore.Create(ctx, testConfiguration("cfg-a", "owner-1")))

	err := cfgStore.Activate(ctx, "owner-1", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfigurationStore_GetActiveNoneReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	cfgStore := store.ConfigurationStore()
	ctx := context.Background()

	require.NoError(t, cfgStore.Create(ctx, testConfiguration("cfg-a", "owner-1")))

	_, err := cfgStore.GetActive(ctx, "owner-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_MigrationIdempotency(t *testing.T) {
	dir, err := os.MkdirTemp("", "sercha-sqlite-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	store1, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store1.Close())

	// Reopening against the same data directory must not re-run migrations
	// or fail on already-existing tables.
	store2, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store2.Close())
}

func TestStore_PathReturnsDatabaseFile(t *testing.T) {
	store := newTestStore(t)
	assert.Contains(t, store.Path(), "metadata.db")
}
