// Package azureopenai provides a driven.LLMProvider adapter using an Azure
// OpenAI deployment, including server-sent-event streaming. It mirrors the
// plain OpenAI provider's request shape but uses Azure's api-key header,
// api-version query parameter and deployment-scoped URL path.
package azureopenai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.LLMProvider = (*Provider)(nil)

// Default configuration values.
const (
	DefaultAPIVersion = "2024-06-01"
	DefaultTimeout    = 120 * time.Second
)

// Config holds configuration for the Azure OpenAI LLM provider.
type Config struct {
	// APIKey is the Azure OpenAI resource key (required).
	APIKey string

	// Endpoint is the resource endpoint, e.g. https://my-resource.openai.azure.com (required).
	Endpoint string

	// Deployment is the deployment name backing the chat model (required).
	Deployment string

	// APIVersion is the Azure OpenAI API version (default: 2024-06-01).
	APIVersion string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Provider conducts chat completions against an Azure OpenAI deployment.
type Provider struct {
	client     *http.Client
	endpoint   string
	apiKey     string
	deployment string
	apiVersion string
}

type chatCompletionRequest struct {
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
	TopP        float64             `json:"top_p,omitempty"`
	Stop        []string            `json:"stop,omitempty"`
	Stream      bool                `json:"stream,omitempty"`
}

type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// New creates an Azure OpenAI LLM provider.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("azureopenai: API key is required")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("azureopenai: endpoint is required")
	}
	if cfg.Deployment == "" {
		return nil, fmt.Errorf("azureopenai: deployment is required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Provider{
		client:     &http.Client{Timeout: cfg.Timeout},
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		deployment: cfg.Deployment,
		apiVersion: cfg.APIVersion,
	}, nil
}

func (p *Provider) chatURL() string {
	u := fmt.Sprintf("%s/openai/deployments/%s/chat/completions", p.endpoint, url.PathEscape(p.deployment))
	return u + "?api-version=" + url.QueryEscape(p.apiVersion)
}

func (p *Provider) buildRequest(messages []domain.ChatMessage, opts driven.ChatOptions, stream bool) chatCompletionRequest {
	chatMessages := make([]chatCompletionMsg, len(messages))
	for i, msg := range messages {
		chatMessages[i] = chatCompletionMsg{Role: string(msg.Role), Content: msg.Content}
	}

	req := chatCompletionRequest{
		Messages:    chatMessages,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		Stop:        opts.StopSequences,
		Stream:      stream,
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	return req
}

// Chat sends a single, non-streamed chat completion request.
func (p *Provider) Chat(ctx context.Context, messages []domain.ChatMessage, opts driven.ChatOptions) (domain.ChatResponse, error) {
	reqBody := p.buildRequest(messages, opts, false)

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMAzureOpenAI, Cause: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.chatURL(), bytes.NewReader(jsonBody))
	if err != nil {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMAzureOpenAI, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMAzureOpenAI, Cause: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMAzureOpenAI, Cause: fmt.Errorf("read response: %w", err)}
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMAzureOpenAI, Cause: fmt.Errorf("decode response: %w", err)}
	}
	if chatResp.Error != nil {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMAzureOpenAI, Cause: fmt.Errorf("%s", chatResp.Error.Message)}
	}
	if resp.StatusCode != http.StatusOK {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMAzureOpenAI, Cause: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}
	if len(chatResp.Choices) == 0 {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMAzureOpenAI, Cause: fmt.Errorf("no response choices returned")}
	}

	return domain.ChatResponse{
		Content: chatResp.Choices[0].Message.Content,
		Usage: &domain.TokenUsage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		},
		Model:        p.deployment,
		FinishReason: chatResp.Choices[0].FinishReason,
	}, nil
}

// ChatStream sends a streamed chat completion request and returns a channel
// of incremental frames, decoding OpenAI-compatible SSE chunks.
func (p *Provider) ChatStream(ctx context.Context, messages []domain.ChatMessage, opts driven.ChatOptions) (<-chan domain.ChatStreamFrame, error) {
	reqBody := p.buildRequest(messages, opts, true)

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &domain.LLMError{Provider: domain.LLMAzureOpenAI, Cause: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.chatURL(), bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &domain.LLMError{Provider: domain.LLMAzureOpenAI, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", p.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &domain.LLMError{Provider: domain.LLMAzureOpenAI, Cause: fmt.Errorf("send request: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &domain.LLMError{Provider: domain.LLMAzureOpenAI, Cause: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}

	frames := make(chan domain.ChatStreamFrame)
	go func() {
		defer close(frames)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		var usage domain.TokenUsage

		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			payload := strings.TrimPrefix(line, "data: ")
			if payload == "[DONE]" {
				frames <- domain.ChatStreamFrame{Done: true, Usage: &usage}
				return
			}

			var chunk chatCompletionChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				continue
			}
			if chunk.Usage != nil {
				usage = domain.TokenUsage{
					PromptTokens:     chunk.Usage.PromptTokens,
					CompletionTokens: chunk.Usage.CompletionTokens,
					TotalTokens:      chunk.Usage.TotalTokens,
				}
			}
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				select {
				case frames <- domain.ChatStreamFrame{Content: chunk.Choices[0].Delta.Content}:
				case <-ctx.Done():
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			frames <- domain.ChatStreamFrame{Err: err}
		}
	}()

	return frames, nil
}

// ModelName returns the deployment name backing this provider, since Azure
// OpenAI addresses models by deployment rather than model ID.
func (p *Provider) ModelName() string {
	return p.deployment
}

// TestConnection validates the provider is reachable by issuing a
// minimal chat request and checking for a non-5xx response.
func (p *Provider) TestConnection(ctx context.Context) bool {
	reqBody := chatCompletionRequest{
		Messages:  []chatCompletionMsg{{Role: "user", Content: "ping"}},
		MaxTokens: 1,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.chatURL(), bytes.NewReader(jsonBody))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}
