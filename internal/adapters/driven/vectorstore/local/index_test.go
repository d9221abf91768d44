package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

func newTestIndex(t *testing.T) *Index {
	dir := t.TempDir()
	idx, err := New(Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, idx.Initialize(context.Background()))
	return idx
}

func TestIndex_InitializeEmptyDirectory(t *testing.T) {
	idx := newTestIndex(t)
	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIndex_AddAndSearch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	err := idx.AddDocuments(ctx, []domain.VectorRecord{
		{ID: "a", Content: "brown fox", Embedding: []float32{1, 0, 0}},
		{ID: "b", Content: "lazy dog", Embedding: []float32{0, 1, 0}},
	})
	require.NoError(t, err)

	hits, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestIndex_SearchEmptyIndexReturnsNoResultsNoError(t *testing.T) {
	idx := newTestIndex(t)
	hits, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_SearchClampsKToCount(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.AddDocuments(ctx, []domain.VectorRecord{
		{ID: "a", Embedding: []float32{1, 0}},
	}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestIndex_DeleteRebuildsFromRemaining(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.AddDocuments(ctx, []domain.VectorRecord{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{0, 1}},
	}))

	require.NoError(t, idx.Delete(ctx, []string{"a"}))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	hits, err := idx.Search(ctx, []float32{0, 1}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].ID)
}

func TestIndex_DeleteNonexistentIDsAreIgnored(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.AddDocuments(ctx, []domain.VectorRecord{{ID: "a", Embedding: []float32{1}}}))
	require.NoError(t, idx.Delete(ctx, []string{"ghost"}))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIndex_Clear(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.AddDocuments(ctx, []domain.VectorRecord{{ID: "a", Embedding: []float32{1}}}))
	require.NoError(t, idx.Clear(ctx))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIndex_PersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx1, err := New(Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, idx1.Initialize(ctx))
	require.NoError(t, idx1.AddDocuments(ctx, []domain.VectorRecord{
		{ID: "a", Content: "hello", Embedding: []float32{1, 2, 3}, Metadata: map[string]any{"k": "v"}},
	}))

	idx2, err := New(Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, idx2.Initialize(ctx))

	count, err := idx2.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.FileExists(t, filepath.Join(dir, documentsFile))
	assert.FileExists(t, filepath.Join(dir, indexFile))
}

func TestIndex_CorruptDocumentsJSONFallsBackToEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, documentsFile), []byte("not json"), 0o644))

	idx, err := New(Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, idx.Initialize(context.Background()))

	count, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}
