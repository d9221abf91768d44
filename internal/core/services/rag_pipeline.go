package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-cli/internal/logger"
)

// Ensure RAGPipeline implements the interface.
var _ driving.RAGService = (*RAGPipeline)(nil)

// Defaults named in §4.9.
const (
	DefaultMaxSources    = 5
	DefaultMinScore      = 0.5
	DefaultContextWindow = 4000
	truncationSuffix     = "..."
	minTruncationBudget  = 100
)

// RAGPipeline answers questions by retrieving relevant chunks from the
// vector index and grounding a language-model call in them (C9).
type RAGPipeline struct {
	embedder driven.EmbeddingProvider
	vectors  driven.VectorIndex
	llm      driven.LLMProvider

	maxSources    int
	minScore      float64
	contextWindow int
}

// NewRAGPipeline wires an embedding provider, vector index and LLM provider
// into a query pipeline using the defaults named in §4.9.
func NewRAGPipeline(embedder driven.EmbeddingProvider, vectors driven.VectorIndex, llm driven.LLMProvider) *RAGPipeline {
	return &RAGPipeline{
		embedder:      embedder,
		vectors:       vectors,
		llm:           llm,
		maxSources:    DefaultMaxSources,
		minScore:      DefaultMinScore,
		contextWindow: DefaultContextWindow,
	}
}

// WithMaxSources overrides the number of hits requested from the vector index.
func (p *RAGPipeline) WithMaxSources(n int) *RAGPipeline {
	if n > 0 {
		p.maxSources = n
	}
	return p
}

// WithMinScore overrides the similarity-score floor applied to hits.
func (p *RAGPipeline) WithMinScore(s float64) *RAGPipeline {
	p.minScore = s
	return p
}

// WithContextWindow overrides the character budget for assembled context.
func (p *RAGPipeline) WithContextWindow(n int) *RAGPipeline {
	if n > 0 {
		p.contextWindow = n
	}
	return p
}

// retrieve embeds question and returns filtered, rank-ordered hits.
func (p *RAGPipeline) retrieve(ctx context.Context, question string) ([]domain.SearchHit, error) {
	logger.Debug("RAG retrieve: embedding question %q", question)

	vector, err := p.embedder.EmbedOne(ctx, question)
	if err != nil {
		logger.Warn("RAG retrieve: embed failed: %v", err)
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := p.vectors.Search(ctx, vector, p.maxSources)
	if err != nil {
		logger.Warn("RAG retrieve: vector search failed: %v", err)
		return nil, fmt.Errorf("search vector index: %w", err)
	}
	logger.Debug("RAG retrieve: %d raw hits", len(hits))

	filtered := make([]domain.SearchHit, 0, len(hits))
	for _, h := range hits {
		if h.Score >= p.minScore {
			filtered = append(filtered, h)
		}
	}
	logger.Info("RAG retrieve: %d hits after score filter (>= %.2f)", len(filtered), p.minScore)

	return filtered, nil
}

// assembleContext concatenates hit contents in rank order within the
// character budget, truncating the last entry with a "..." suffix when the
// remaining budget is large enough to make the truncation worthwhile.
func (p *RAGPipeline) assembleContext(hits []domain.SearchHit) []string {
	chunks := make([]string, 0, len(hits))
	remaining := p.contextWindow

	for _, h := range hits {
		if remaining <= 0 {
			break
		}
		if len(h.Content) <= remaining {
			chunks = append(chunks, h.Content)
			remaining -= len(h.Content)
			continue
		}
		if remaining > minTruncationBudget {
			cut := remaining - len(truncationSuffix)
			chunks = append(chunks, h.Content[:cut]+truncationSuffix)
		}
		break
	}

	return chunks
}

func buildMessages(history []domain.ChatMessage, question string) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: question})
	return messages
}

// Query answers question given conversation history, unary.
func (p *RAGPipeline) Query(ctx context.Context, question string, history []domain.ChatMessage) (domain.RAGAnswer, error) {
	logger.Section("RAG Query")
	logger.Debug("Question: %q", question)

	hits, err := p.retrieve(ctx, question)
	if err != nil {
		return domain.RAGAnswer{}, err
	}

	contextChunks := p.assembleContext(hits)
	messages := buildMessages(history, question)

	opts := driven.DefaultChatOptions()
	opts.Context = contextChunks
	messages = withSystemPrompt(messages, opts)

	logger.Debug("RAG query: invoking language model with %d context chunks", len(contextChunks))
	resp, err := p.llm.Chat(ctx, messages, opts)
	if err != nil {
		logger.Warn("RAG query: chat failed: %v", err)
		return domain.RAGAnswer{}, fmt.Errorf("chat: %w", err)
	}

	return domain.RAGAnswer{
		Content: resp.Content,
		Sources: hits,
		Usage:   resp.Usage,
	}, nil
}

// QueryStream answers question given conversation history, streamed. It
// emits exactly one RAGFrameSources frame, then zero or more RAGFrameContent
// frames, then exactly one RAGFrameDone frame (or RAGFrameError on failure).
func (p *RAGPipeline) QueryStream(ctx context.Context, question string, history []domain.ChatMessage) (<-chan domain.RAGStreamFrame, error) {
	logger.Section("RAG Query Stream")
	logger.Debug("Question: %q", question)

	hits, err := p.retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	contextChunks := p.assembleContext(hits)
	messages := buildMessages(history, question)

	opts := driven.DefaultChatOptions()
	opts.Context = contextChunks
	messages = withSystemPrompt(messages, opts)

	llmFrames, err := p.llm.ChatStream(ctx, messages, opts)
	if err != nil {
		logger.Warn("RAG query stream: chat stream failed: %v", err)
		return nil, fmt.Errorf("chat stream: %w", err)
	}

	out := make(chan domain.RAGStreamFrame)
	go func() {
		defer close(out)

		select {
		case out <- domain.RAGStreamFrame{Kind: domain.RAGFrameSources, Sources: hits}:
		case <-ctx.Done():
			return
		}

		for frame := range llmFrames {
			if frame.Err != nil {
				select {
				case out <- domain.RAGStreamFrame{Kind: domain.RAGFrameError, Err: frame.Err}:
				case <-ctx.Done():
				}
				return
			}
			if frame.Content != "" {
				select {
				case out <- domain.RAGStreamFrame{Kind: domain.RAGFrameContent, Content: frame.Content}:
				case <-ctx.Done():
					return
				}
			}
			if frame.Done {
				select {
				case out <- domain.RAGStreamFrame{Kind: domain.RAGFrameDone, Usage: frame.Usage}:
				case <-ctx.Done():
				}
				return
			}
		}
	}()

	return out, nil
}

// withSystemPrompt prepends the context-aware system prompt built from
// opts.Context, replacing any existing leading system message from history.
func withSystemPrompt(messages []domain.ChatMessage, opts driven.ChatOptions) []domain.ChatMessage {
	prompt := driven.BuildSystemPrompt(opts.Context)

	if len(messages) > 0 && messages[0].Role == domain.RoleSystem {
		messages[0].Content = prompt
		return messages
	}

	out := make([]domain.ChatMessage, 0, len(messages)+1)
	out = append(out, domain.ChatMessage{Role: domain.RoleSystem, Content: prompt})
	out = append(out, messages...)
	return out
}

// TestConnections reports reachability of every provider wired into the
// pipeline, mirroring the teacher's graceful multi-service degradation check.
func (p *RAGPipeline) TestConnections(ctx context.Context) (embedding, vector, llm bool) {
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		embedding = p.embedder.TestConnection(ctx)
	}()
	go func() {
		defer wg.Done()
		vector = p.vectors.TestConnection(ctx)
	}()
	go func() {
		defer wg.Done()
		llm = p.llm.TestConnection(ctx)
	}()

	wg.Wait()
	return embedding, vector, llm
}
