package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
)

type fakeExtractorRegistry struct {
	text      string
	extractErr error
}

func (f *fakeExtractorRegistry) Extract(context.Context, string, string) (*driven.ExtractResult, error) {
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	return &driven.ExtractResult{Text: f.text}, nil
}
func (f *fakeExtractorRegistry) Register(driven.Extractor)       {}
func (f *fakeExtractorRegistry) SupportedExtensions() []string   { return nil }

func TestDocumentProcessor_Process(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog. " +
		"It was a bright and sunny day in the meadow. " +
		"Birds were singing in the old oak tree nearby."

	extractors := &fakeExtractorRegistry{text: text}
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}
	vectors := &fakeVectorIndex{}

	p := NewDocumentProcessor(extractors, embedder, vectors)
	doc := &domain.Document{ID: "doc1", Filename: "notes.txt", Extension: "txt"}

	processed, err := p.Process(context.Background(), doc, DefaultDocumentProcessOptions())
	require.NoError(t, err)
	require.NotEmpty(t, processed)

	for i, c := range processed {
		assert.Contains(t, c.ID, "doc1_chunk_")
		assert.Equal(t, "doc1", c.Metadata["documentId"])
		assert.Equal(t, i, c.Metadata["chunkIndex"])
		assert.Equal(t, []float32{1, 0, 0}, c.Embedding)
	}
}

func TestDocumentProcessor_Process_ExtractFailurePropagates(t *testing.T) {
	extractors := &fakeExtractorRegistry{extractErr: errors.New("boom")}
	p := NewDocumentProcessor(extractors, &fakeEmbedder{}, &fakeVectorIndex{})

	doc := &domain.Document{ID: "doc1", Extension: "txt"}
	_, err := p.Process(context.Background(), doc, DefaultDocumentProcessOptions())
	require.Error(t, err)

	var procErr *domain.ProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, "extract", procErr.Stage)
}

func TestDocumentProcessor_Process_EmptyTextYieldsNoChunks(t *testing.T) {
	extractors := &fakeExtractorRegistry{text: ""}
	p := NewDocumentProcessor(extractors, &fakeEmbedder{}, &fakeVectorIndex{})

	doc := &domain.Document{ID: "doc1", Extension: "txt"}
	processed, err := p.Process(context.Background(), doc, DefaultDocumentProcessOptions())
	require.NoError(t, err)
	assert.Empty(t, processed)
}

func TestDocumentProcessor_DeleteDocumentChunks_UsesRegistryChunkIDs(t *testing.T) {
	vectors := &fakeVectorIndex{}
	p := NewDocumentProcessor(&fakeExtractorRegistry{}, &fakeEmbedder{}, vectors)

	registry := &fakeRegistry{chunkIDs: []string{"doc1_chunk_0", "doc1_chunk_1"}}
	err := p.DeleteDocumentChunks(context.Background(), registry, "doc1")
	require.NoError(t, err)
}

type fakeRegistry struct {
	chunkIDs []string
}

func (f *fakeRegistry) Create(context.Context, *domain.Document) error { return nil }
func (f *fakeRegistry) Get(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeRegistry) List(context.Context) ([]domain.Document, error) { return nil, nil }
func (f *fakeRegistry) Update(context.Context, *domain.Document) error  { return nil }
func (f *fakeRegistry) Delete(context.Context, string) error            { return nil }
func (f *fakeRegistry) ClearAll(context.Context) error                  { return nil }
func (f *fakeRegistry) ChunkIDs(context.Context, string) ([]string, error) {
	return f.chunkIDs, nil
}
func (f *fakeRegistry) Count(context.Context) (int, error) { return 0, nil }
