package driving

import (
	"context"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

// RAGService is the driving port for the query pipeline (C9).
type RAGService interface {
	// Query answers question given conversation history, unary.
	Query(ctx context.Context, question string, history []domain.ChatMessage) (domain.RAGAnswer, error)

	// QueryStream answers question given conversation history, streamed.
	// The returned channel emits exactly one RAGFrameSources frame, then
	// zero or more RAGFrameContent frames, then exactly one RAGFrameDone
	// (or RAGFrameError) frame, then closes.
	QueryStream(ctx context.Context, question string, history []domain.ChatMessage) (<-chan domain.RAGStreamFrame, error)
}
