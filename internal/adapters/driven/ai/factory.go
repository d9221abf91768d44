// Package ai builds driven-port provider instances from Configuration
// Coordinator (C10) snapshots: embedding providers, language-model
// providers, and vector indexes, selected by provider kind and configured
// from the snapshot's untyped parameter maps.
package ai

import (
	"fmt"
	"time"

	anthropicllm "github.com/custodia-labs/sercha-cli/internal/adapters/driven/llm/anthropic"
	azureopenaillm "github.com/custodia-labs/sercha-cli/internal/adapters/driven/llm/azureopenai"
	ollamallm "github.com/custodia-labs/sercha-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sercha-cli/internal/adapters/driven/llm/openai"

	ollamaembed "github.com/custodia-labs/sercha-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-cli/internal/adapters/driven/embedding/openai"

	"github.com/custodia-labs/sercha-cli/internal/adapters/driven/vectorstore/chroma"
	"github.com/custodia-labs/sercha-cli/internal/adapters/driven/vectorstore/local"
	"github.com/custodia-labs/sercha-cli/internal/adapters/driven/vectorstore/pinecone"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
)

// BuildEmbeddingProvider constructs the embedding provider named by kind,
// configured from params.
func BuildEmbeddingProvider(kind domain.EmbeddingProviderKind, params map[string]any) (driven.EmbeddingProvider, error) {
	switch kind {
	case domain.EmbeddingOpenAI:
		return openaiembed.New(openaiembed.Config{
			APIKey:     getString(params, "apiKey"),
			BaseURL:    getString(params, "baseURL"),
			Model:      getString(params, "model"),
			Dimensions: getInt(params, "dimension"),
			Timeout:    getDuration(params, "timeout"),
		})

	case domain.EmbeddingOllama:
		return ollamaembed.New(ollamaembed.Config{
			BaseURL:    getString(params, "baseURL"),
			Model:      getString(params, "model"),
			Dimensions: getInt(params, "dimension"),
			Timeout:    getDuration(params, "timeout"),
		}), nil

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, kind)
	}
}

// BuildLLMProvider constructs the language-model provider named by kind,
// configured from params.
func BuildLLMProvider(kind domain.LLMProviderKind, params map[string]any) (driven.LLMProvider, error) {
	switch kind {
	case domain.LLMOpenAI:
		return openaillm.New(openaillm.Config{
			APIKey:  getString(params, "apiKey"),
			BaseURL: getString(params, "baseURL"),
			Model:   getString(params, "model"),
			Timeout: getDuration(params, "timeout"),
		})

	case domain.LLMAzureOpenAI:
		return azureopenaillm.New(azureopenaillm.Config{
			APIKey:     getString(params, "apiKey"),
			Endpoint:   getString(params, "endpoint"),
			Deployment: getString(params, "deploymentName"),
			APIVersion: getString(params, "apiVersion"),
			Timeout:    getDuration(params, "timeout"),
		})

	case domain.LLMAnthropic:
		return anthropicllm.New(anthropicllm.Config{
			APIKey:  getString(params, "apiKey"),
			BaseURL: getString(params, "baseURL"),
			Model:   getString(params, "model"),
			Timeout: getDuration(params, "timeout"),
		})

	case domain.LLMOllama:
		return ollamallm.New(ollamallm.Config{
			BaseURL: getString(params, "baseURL"),
			Model:   getString(params, "model"),
			Timeout: getDuration(params, "timeout"),
		}), nil

	default:
		return nil, fmt.Errorf("%w: LLM provider %q", domain.ErrUnsupportedType, kind)
	}
}

// BuildVectorIndex constructs the vector index named by kind, configured
// from params.
func BuildVectorIndex(kind domain.VectorProviderKind, params map[string]any) (driven.VectorIndex, error) {
	switch kind {
	case domain.VectorFaiss:
		algorithm := domain.IndexAlgorithm(getString(params, "indexType"))
		if algorithm == "" {
			algorithm = domain.IndexFlatIP
		}
		return local.New(local.Config{
			Path:      getString(params, "indexPath"),
			Algorithm: algorithm,
			Threshold: getFloat(params, "threshold"),
		})

	case domain.VectorPinecone:
		return pinecone.New(pinecone.Config{
			APIKey:      getString(params, "apiKey"),
			Environment: getString(params, "environment"),
			IndexName:   getString(params, "indexName"),
			Host:        getString(params, "host"),
			Namespace:   getString(params, "namespace"),
		})

	case domain.VectorChroma:
		return chroma.New(chroma.Config{
			Host:           getString(params, "host"),
			Port:           getInt(params, "port"),
			SSL:            getBool(params, "ssl"),
			CollectionName: getString(params, "collectionName"),
		})

	default:
		return nil, fmt.Errorf("%w: vector provider %q", domain.ErrUnsupportedType, kind)
	}
}

func getString(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func getInt(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func getFloat(params map[string]any, key string) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func getBool(params map[string]any, key string) bool {
	v, _ := params[key].(bool)
	return v
}

func getDuration(params map[string]any, key string) time.Duration {
	switch v := params[key].(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v) * time.Second
	default:
		return 0
	}
}
