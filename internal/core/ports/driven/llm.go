package driven

import (
	"context"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

// ChatOptions configures a chat completion call (C6).
type ChatOptions struct {
	Temperature   float64
	TopP          float64
	MaxTokens     int
	StopSequences []string

	// Context holds the retrieved chunk contents to be woven into the
	// system prompt by BuildSystemPrompt. Empty means no retrieval context.
	Context []string
}

// DefaultChatOptions returns the defaults named in §4.6.
func DefaultChatOptions() ChatOptions {
	return ChatOptions{
		Temperature: 0.7,
		TopP:        1.0,
		MaxTokens:   2048,
	}
}

// LLMProvider provides chat completion, unary and streamed (C6).
//
// Implementations may include:
//   - OpenAI, Azure OpenAI (GPT-4 family)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMProvider interface {
	// Chat produces a unary chat completion.
	Chat(ctx context.Context, messages []domain.ChatMessage, opts ChatOptions) (domain.ChatResponse, error)

	// ChatStream produces a streamed chat completion. The returned channel
	// is closed after exactly one frame with Done == true has been sent.
	ChatStream(ctx context.Context, messages []domain.ChatMessage, opts ChatOptions) (<-chan domain.ChatStreamFrame, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// TestConnection reports whether the backend is reachable.
	TestConnection(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// BuildSystemPrompt synthesizes the system prompt described in §4.6 from the
// retrieved chunk contents, or the bare introductory sentence when context is empty.
func BuildSystemPrompt(context []string) string {
	const intro = "You are an AI assistant that helps people find information."
	if len(context) == 0 {
		return intro
	}
	joined := ""
	for i, c := range context {
		if i > 0 {
			joined += "\n\n"
		}
		joined += c
	}
	return intro + "\n\n" +
		"Use the following context to answer questions. If the information is not\n" +
		"in the context, say so clearly.\n\n" +
		"Context:\n" + joined
}
