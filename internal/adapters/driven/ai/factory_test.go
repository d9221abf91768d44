package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

func TestBuildEmbeddingProvider(t *testing.T) {
	p, err := BuildEmbeddingProvider(domain.EmbeddingOpenAI, map[string]any{"apiKey": "k"})
	require.NoError(t, err)
	assert.NotNil(t, p)

	p, err = BuildEmbeddingProvider(domain.EmbeddingOllama, map[string]any{"model": "nomic-embed-text"})
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = BuildEmbeddingProvider("bogus", nil)
	require.Error(t, err)
}

func TestBuildEmbeddingProvider_OpenAIRequiresAPIKey(t *testing.T) {
	_, err := BuildEmbeddingProvider(domain.EmbeddingOpenAI, map[string]any{})
	require.Error(t, err)
}

func TestBuildLLMProvider(t *testing.T) {
	cases := []struct {
		kind   domain.LLMProviderKind
		params map[string]any
	}{
		{domain.LLMOpenAI, map[string]any{"apiKey": "k"}},
		{domain.LLMAnthropic, map[string]any{"apiKey": "k"}},
		{domain.LLMOllama, map[string]any{"model": "llama3.1"}},
		{domain.LLMAzureOpenAI, map[string]any{"apiKey": "k", "endpoint": "https://x.openai.azure.com", "deploymentName": "gpt4o"}},
	}
	for _, c := range cases {
		p, err := BuildLLMProvider(c.kind, c.params)
		require.NoError(t, err, c.kind)
		assert.NotNil(t, p)
	}

	_, err := BuildLLMProvider("bogus", nil)
	require.Error(t, err)
}

func TestBuildVectorIndex(t *testing.T) {
	dir := t.TempDir()
	idx, err := BuildVectorIndex(domain.VectorFaiss, map[string]any{"indexPath": dir})
	require.NoError(t, err)
	assert.NotNil(t, idx)

	idx, err = BuildVectorIndex(domain.VectorPinecone, map[string]any{"apiKey": "k", "host": "https://x.pinecone.io"})
	require.NoError(t, err)
	assert.NotNil(t, idx)

	idx, err = BuildVectorIndex(domain.VectorChroma, map[string]any{"host": "localhost", "collectionName": "docs"})
	require.NoError(t, err)
	assert.NotNil(t, idx)

	_, err = BuildVectorIndex("bogus", nil)
	require.Error(t, err)
}

func TestBuildVectorIndex_FaissRequiresPath(t *testing.T) {
	_, err := BuildVectorIndex(domain.VectorFaiss, map[string]any{})
	require.Error(t, err)
}
