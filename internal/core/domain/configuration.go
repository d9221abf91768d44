package domain

import "time"

// LLMProviderKind enumerates the recognised chat-completion backends.
type LLMProviderKind string

// Recognised LLM provider kinds.
const (
	LLMOpenAI      LLMProviderKind = "openai"
	LLMAzureOpenAI LLMProviderKind = "azure-openai"
	LLMAnthropic   LLMProviderKind = "anthropic"
	LLMOllama      LLMProviderKind = "ollama"
)

// IsValid reports whether k is a recognised LLM provider kind.
func (k LLMProviderKind) IsValid() bool {
	switch k {
	case LLMOpenAI, LLMAzureOpenAI, LLMAnthropic, LLMOllama:
		return true
	default:
		return false
	}
}

// EmbeddingProviderKind enumerates the recognised embedding backends.
type EmbeddingProviderKind string

// Recognised embedding provider kinds.
const (
	EmbeddingOpenAI EmbeddingProviderKind = "openai"
	EmbeddingOllama EmbeddingProviderKind = "ollama"
)

// IsValid reports whether k is a recognised embedding provider kind.
func (k EmbeddingProviderKind) IsValid() bool {
	switch k {
	case EmbeddingOpenAI, EmbeddingOllama:
		return true
	default:
		return false
	}
}

// VectorProviderKind enumerates the recognised vector-index backends.
type VectorProviderKind string

// Recognised vector provider kinds. "faiss" names the local file-backed
// flat-inner-product index (the name is the configuration vocabulary's,
// not a dependency on the real FAISS library).
const (
	VectorFaiss    VectorProviderKind = "faiss"
	VectorPinecone VectorProviderKind = "pinecone"
	VectorChroma   VectorProviderKind = "chroma"
)

// IsValid reports whether k is a recognised vector provider kind.
func (k VectorProviderKind) IsValid() bool {
	switch k {
	case VectorFaiss, VectorPinecone, VectorChroma:
		return true
	default:
		return false
	}
}

// ConfigurationSnapshot is an immutable bundle of provider selections (§3).
// At most one snapshot per owner may have Active == true.
type ConfigurationSnapshot struct {
	ID string

	Owner string

	LLMProviderKind LLMProviderKind
	LLMParams       map[string]any

	EmbeddingProviderKind EmbeddingProviderKind
	EmbeddingParams       map[string]any

	VectorProviderKind VectorProviderKind
	VectorParams       map[string]any

	Active    bool
	CreatedAt time.Time
}

// ConfigurationPatch carries a partial update to a ConfigurationSnapshot.
// Nil fields are left unchanged.
type ConfigurationPatch struct {
	LLMProviderKind *LLMProviderKind
	LLMParams       map[string]any

	EmbeddingProviderKind *EmbeddingProviderKind
	EmbeddingParams       map[string]any

	VectorProviderKind *VectorProviderKind
	VectorParams       map[string]any
}

// ProviderStatus is the result of a single testConnection probe.
type ProviderStatus struct {
	Connected bool
	Error     string
}

// SystemStatus is the aggregate health snapshot returned by C10.systemStatus.
type SystemStatus struct {
	HasActiveConfig bool
	LLMStatus       ProviderStatus
	EmbeddingStatus ProviderStatus
	VectorStatus    ProviderStatus
	DocumentCount   int
}
