// Package ollama provides a driven.LLMProvider adapter using a local Ollama
// server's chat API, including newline-delimited-JSON streaming.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.LLMProvider = (*Provider)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.1"
	DefaultTimeout = 180 * time.Second
)

// Config holds configuration for the Ollama LLM provider.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.1).
	Model string

	// Timeout is the request timeout (default: 180s).
	Timeout time.Duration
}

// Provider conducts chat completions using a local Ollama server.
type Provider struct {
	client  *http.Client
	baseURL string
	model   string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	TopP        float64  `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error,omitempty"`
}

// New creates an Ollama LLM provider.
func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Provider{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

func (p *Provider) buildRequest(messages []domain.ChatMessage, opts driven.ChatOptions, stream bool) chatRequest {
	chatMessages := make([]chatMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = chatMessage{Role: string(msg.Role), Content: msg.Content}
	}

	return chatRequest{
		Model:    p.model,
		Messages: chatMessages,
		Stream:   stream,
		Options: chatOptions{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
			TopP:        opts.TopP,
			Stop:        opts.StopSequences,
		},
	}
}

// Chat sends a single, non-streamed chat request via /api/chat.
func (p *Provider) Chat(ctx context.Context, messages []domain.ChatMessage, opts driven.ChatOptions) (domain.ChatResponse, error) {
	reqBody := p.buildRequest(messages, opts, false)

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMOllama, Cause: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMOllama, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMOllama, Cause: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMOllama, Cause: fmt.Errorf("read response: %w", err)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMOllama, Cause: fmt.Errorf("decode response: %w", err)}
	}
	if chatResp.Error != "" {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMOllama, Cause: fmt.Errorf("%s", chatResp.Error)}
	}
	if resp.StatusCode != http.StatusOK {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMOllama, Cause: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}

	finishReason := ""
	if chatResp.Done {
		finishReason = "stop"
	}

	return domain.ChatResponse{
		Content: chatResp.Message.Content,
		Usage: &domain.TokenUsage{
			PromptTokens:     chatResp.PromptEvalCount,
			CompletionTokens: chatResp.EvalCount,
			TotalTokens:      chatResp.PromptEvalCount + chatResp.EvalCount,
		},
		Model:        p.model,
		FinishReason: finishReason,
	}, nil
}

// ChatStream sends a streamed chat request to /api/chat and returns a
// channel of incremental frames. Ollama streams newline-delimited JSON
// objects rather than server-sent events; the final object has done: true.
func (p *Provider) ChatStream(ctx context.Context, messages []domain.ChatMessage, opts driven.ChatOptions) (<-chan domain.ChatStreamFrame, error) {
	reqBody := p.buildRequest(messages, opts, true)

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &domain.LLMError{Provider: domain.LLMOllama, Cause: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &domain.LLMError{Provider: domain.LLMOllama, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &domain.LLMError{Provider: domain.LLMOllama, Cause: fmt.Errorf("send request: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &domain.LLMError{Provider: domain.LLMOllama, Cause: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}

	frames := make(chan domain.ChatStreamFrame)
	go func() {
		defer close(frames)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}

			var chunk chatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				continue
			}
			if chunk.Error != "" {
				frames <- domain.ChatStreamFrame{Err: fmt.Errorf("%s", chunk.Error)}
				return
			}

			if chunk.Message.Content != "" {
				select {
				case frames <- domain.ChatStreamFrame{Content: chunk.Message.Content}:
				case <-ctx.Done():
					return
				}
			}

			if chunk.Done {
				frames <- domain.ChatStreamFrame{
					Done: true,
					Usage: &domain.TokenUsage{
						PromptTokens:     chunk.PromptEvalCount,
						CompletionTokens: chunk.EvalCount,
						TotalTokens:      chunk.PromptEvalCount + chunk.EvalCount,
					},
				}
				return
			}
		}
		if err := scanner.Err(); err != nil {
			frames <- domain.ChatStreamFrame{Err: err}
		}
	}()

	return frames, nil
}

// ModelName returns the name of the LLM model being used.
func (p *Provider) ModelName() string {
	return p.model
}

// TestConnection validates the provider is reachable by checking the
// /api/tags endpoint.
func (p *Provider) TestConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}
