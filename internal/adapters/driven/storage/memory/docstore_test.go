package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

func testDoc(id string) *domain.Document {
	return &domain.Document{
		ID:         id,
		Filename:   id + ".txt",
		Extension:  ".txt",
		SizeBytes:  100,
		Status:     domain.DocumentPending,
		UploadedAt: time.Now(),
		Chunks: []domain.ChunkSummary{
			{ID: id + "-c0", Content: "chunk zero", StartChar: 0, EndChar: 10},
			{ID: id + "-c1", Content: "chunk one", StartChar: 10, EndChar: 19},
		},
	}
}

func TestNewDocumentStore(t *testing.T) {
	store := NewDocumentStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.documents)
}

func TestDocumentStore_CreateAndGet(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := testDoc("doc-1")
	require.NoError(t, store.Create(ctx, doc))

	got, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1.txt", got.Filename)
	require.Len(t, got.Chunks, 2)
}

func TestDocumentStore_GetNotFound(t *testing.T) {
	store := NewDocumentStore()
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_List(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testDoc("doc-1")))
	require.NoError(t, store.Create(ctx, testDoc("doc-2")))

	docs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestDocumentStore_Update(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := testDoc("doc-1")
	require.NoError(t, store.Create(ctx, doc))

	doc.Status = domain.DocumentIndexed
	require.NoError(t, store.Update(ctx, doc))

	got, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentIndexed, got.Status)
}

func TestDocumentStore_UpdateMissingReturnsNotFound(t *testing.T) {
	store := NewDocumentStore()
	err := store.Update(context.Background(), testDoc("doc-1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_Delete(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testDoc("doc-1")))
	require.NoError(t, store.Delete(ctx, "doc-1"))

	_, err := store.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_DeleteNonExistentIsNoop(t *testing.T) {
	store := NewDocumentStore()
	assert.NoError(t, store.Delete(context.Background(), "missing"))
}

func TestDocumentStore_ClearAll(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testDoc("doc-1")))
	require.NoError(t, store.Create(ctx, testDoc("doc-2")))
	require.NoError(t, store.ClearAll(ctx))

	docs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentStore_ChunkIDs(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testDoc("doc-1")))

	ids, err := store.ChunkIDs(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1-c0", "doc-1-c1"}, ids)
}

func TestDocumentStore_ChunkIDsMissingDocument(t *testing.T) {
	store := NewDocumentStore()
	_, err := store.ChunkIDs(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_Count(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testDoc("doc-1")))
	require.NoError(t, store.Create(ctx, testDoc("doc-2")))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDocumentStore_DataIsolation(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := testDoc("doc-1")
	require.NoError(t, store.Create(ctx, doc))

	got, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	got.Chunks[0].Content = "mutated"

	again, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "chunk zero", again.Chunks[0].Content)
}

func TestDocumentStore_Concurrency(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	n := 50
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(id int) {
			defer wg.Done()
			doc := testDoc("doc-" + string(rune('A'+id)))
			_ = store.Create(ctx, doc)
		}(i)
	}
	wg.Wait()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, count)
}
