package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
)

// --- fakes ---

type fakeEmbedder struct {
	vector   []float32
	embedErr error
}

func (f *fakeEmbedder) EmbedOne(context.Context, string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedMany(_ context.Context, texts []string) (driven.EmbedResult, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = f.vector
	}
	return driven.EmbedResult{Vectors: vectors}, nil
}

func (f *fakeEmbedder) Dimensions() int                           { return len(f.vector) }
func (f *fakeEmbedder) ModelName() string                         { return "fake-embed" }
func (f *fakeEmbedder) TestConnection(context.Context) bool       { return f.embedErr == nil }
func (f *fakeEmbedder) Close() error                              { return nil }

type fakeVectorIndex struct {
	hits      []domain.SearchHit
	searchErr error
}

func (f *fakeVectorIndex) Initialize(context.Context) error { return nil }
func (f *fakeVectorIndex) AddDocuments(context.Context, []domain.VectorRecord) error {
	return nil
}
func (f *fakeVectorIndex) Search(_ context.Context, _ []float32, k int) ([]domain.SearchHit, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if k < len(f.hits) {
		return f.hits[:k], nil
	}
	return f.hits, nil
}
func (f *fakeVectorIndex) Delete(context.Context, []string) error { return nil }
func (f *fakeVectorIndex) Clear(context.Context) error            { return nil }
func (f *fakeVectorIndex) Count(context.Context) (int, error)     { return len(f.hits), nil }
func (f *fakeVectorIndex) TestConnection(context.Context) bool    { return f.searchErr == nil }
func (f *fakeVectorIndex) Close() error                           { return nil }

type fakeLLM struct {
	response domain.ChatResponse
	chatErr  error
	frames   []domain.ChatStreamFrame
}

func (f *fakeLLM) Chat(context.Context, []domain.ChatMessage, driven.ChatOptions) (domain.ChatResponse, error) {
	if f.chatErr != nil {
		return domain.ChatResponse{}, f.chatErr
	}
	return f.response, nil
}

func (f *fakeLLM) ChatStream(context.Context, []domain.ChatMessage, driven.ChatOptions) (<-chan domain.ChatStreamFrame, error) {
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	out := make(chan domain.ChatStreamFrame, len(f.frames))
	for _, fr := range f.frames {
		out <- fr
	}
	close(out)
	return out, nil
}

func (f *fakeLLM) ModelName() string                      { return "fake-llm" }
func (f *fakeLLM) TestConnection(context.Context) bool    { return f.chatErr == nil }
func (f *fakeLLM) Close() error                           { return nil }

// --- tests ---

func TestRAGPipeline_Query_FiltersLowScoreHits(t *testing.T) {
	vectors := &fakeVectorIndex{hits: []domain.SearchHit{
		{ID: "a", Content: "brown fox jumps", Score: 0.9},
		{ID: "b", Content: "irrelevant", Score: 0.1},
	}}
	llm := &fakeLLM{response: domain.ChatResponse{Content: "the fox jumped", Usage: &domain.TokenUsage{TotalTokens: 5}}}
	p := NewRAGPipeline(&fakeEmbedder{vector: []float32{1, 0}}, vectors, llm)

	answer, err := p.Query(context.Background(), "what did the fox do?", nil)
	require.NoError(t, err)
	assert.Equal(t, "the fox jumped", answer.Content)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "a", answer.Sources[0].ID)
	assert.Equal(t, 5, answer.Usage.TotalTokens)
}

func TestRAGPipeline_Query_EmptyContextIsLegal(t *testing.T) {
	vectors := &fakeVectorIndex{hits: nil}
	llm := &fakeLLM{response: domain.ChatResponse{Content: "no idea"}}
	p := NewRAGPipeline(&fakeEmbedder{vector: []float32{1, 0}}, vectors, llm)

	answer, err := p.Query(context.Background(), "anything?", nil)
	require.NoError(t, err)
	assert.Equal(t, "no idea", answer.Content)
	assert.Empty(t, answer.Sources)
}

func TestRAGPipeline_Query_EmbedFailurePropagates(t *testing.T) {
	p := NewRAGPipeline(&fakeEmbedder{embedErr: errors.New("boom")}, &fakeVectorIndex{}, &fakeLLM{})

	_, err := p.Query(context.Background(), "q", nil)
	require.Error(t, err)
}

func TestRAGPipeline_AssembleContext_TruncatesWithEllipsis(t *testing.T) {
	p := NewRAGPipeline(&fakeEmbedder{}, &fakeVectorIndex{}, &fakeLLM{}).WithContextWindow(150)

	hits := []domain.SearchHit{{Content: strings.Repeat("x", 200)}}
	chunks := p.assembleContext(hits)
	require.Len(t, chunks, 1)
	assert.True(t, strings.HasSuffix(chunks[0], "..."))
	assert.LessOrEqual(t, len(chunks[0]), 150)
}

func TestRAGPipeline_AssembleContext_SkipsTruncationBelowBudget(t *testing.T) {
	p := NewRAGPipeline(&fakeEmbedder{}, &fakeVectorIndex{}, &fakeLLM{}).WithContextWindow(50)

	hits := []domain.SearchHit{
		{Content: strings.Repeat("a", 40)},
		{Content: strings.Repeat("b", 500)},
	}
	chunks := p.assembleContext(hits)
	require.Len(t, chunks, 1)
	assert.Equal(t, strings.Repeat("a", 40), chunks[0])
}

func TestRAGPipeline_QueryStream_EmitsSourcesThenContentThenDone(t *testing.T) {
	vectors := &fakeVectorIndex{hits: []domain.SearchHit{{ID: "a", Content: "ctx", Score: 0.9}}}
	llm := &fakeLLM{frames: []domain.ChatStreamFrame{
		{Content: "Hel"},
		{Content: "lo"},
		{Done: true, Usage: &domain.TokenUsage{TotalTokens: 3}},
	}}
	p := NewRAGPipeline(&fakeEmbedder{vector: []float32{1, 0}}, vectors, llm)

	frames, err := p.QueryStream(context.Background(), "hi", nil)
	require.NoError(t, err)

	var kinds []domain.RAGStreamFrameKind
	var content string
	for f := range frames {
		kinds = append(kinds, f.Kind)
		content += f.Content
	}

	require.GreaterOrEqual(t, len(kinds), 3)
	assert.Equal(t, domain.RAGFrameSources, kinds[0])
	assert.Equal(t, domain.RAGFrameDone, kinds[len(kinds)-1])
	assert.Equal(t, "Hello", content)
}

func TestRAGPipeline_QueryStream_PropagatesLLMFrameError(t *testing.T) {
	vectors := &fakeVectorIndex{hits: nil}
	llm := &fakeLLM{frames: []domain.ChatStreamFrame{{Err: errors.New("stream broke")}}}
	p := NewRAGPipeline(&fakeEmbedder{vector: []float32{1, 0}}, vectors, llm)

	frames, err := p.QueryStream(context.Background(), "hi", nil)
	require.NoError(t, err)

	var gotErr bool
	for f := range frames {
		if f.Kind == domain.RAGFrameError {
			gotErr = true
			require.Error(t, f.Err)
		}
	}
	assert.True(t, gotErr)
}

func TestRAGPipeline_TestConnections(t *testing.T) {
	p := NewRAGPipeline(&fakeEmbedder{vector: []float32{1}}, &fakeVectorIndex{}, &fakeLLM{})
	embedding, vector, llm := p.TestConnections(context.Background())
	assert.True(t, embedding)
	assert.True(t, vector)
	assert.True(t, llm)
}
