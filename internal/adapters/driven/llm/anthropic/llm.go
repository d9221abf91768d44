// Package anthropic provides a driven.LLMProvider adapter using the
// Anthropic Messages API, including server-sent-event streaming.
package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.LLMProvider = (*Provider)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	anthropicVersion = "2023-06-01"

	// defaultMaxTokens is used when opts.MaxTokens is unset; Anthropic
	// requires max_tokens on every request.
	defaultMaxTokens = 1024
)

// Config holds configuration for the Anthropic LLM provider.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the LLM model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Provider conducts chat completions using the Anthropic Messages API.
type Provider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
	TopP        float64           `json:"top_p,omitempty"`
	StopSeqs    []string          `json:"stop_sequences,omitempty"`
	Stream      bool              `json:"stream,omitempty"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// streamEvent covers the Anthropic SSE event shapes this provider consumes.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Text string `json:"text"`
	} `json:"delta"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Message struct {
		Usage struct {
			InputTokens int `json:"input_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

// New creates an Anthropic LLM provider.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
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
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

func splitSystem(messages []domain.ChatMessage) (string, []domain.ChatMessage) {
	var system string
	var rest []domain.ChatMessage
	for _, msg := range messages {
		if msg.Role == domain.RoleSystem {
			system = msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	return system, rest
}

func (p *Provider) buildRequest(messages []domain.ChatMessage, opts driven.ChatOptions, stream bool) messagesRequest {
	system, chatMessages := splitSystem(messages)

	apiMessages := make([]messagesMessage, len(chatMessages))
	for i, msg := range chatMessages {
		apiMessages[i] = messagesMessage{Role: string(msg.Role), Content: msg.Content}
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	return messagesRequest{
		Model:       p.model,
		Messages:    apiMessages,
		MaxTokens:   maxTokens,
		System:      system,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		StopSeqs:    opts.StopSequences,
		Stream:      stream,
	}
}

// Chat sends a single, non-streamed message request.
func (p *Provider) Chat(ctx context.Context, messages []domain.ChatMessage, opts driven.ChatOptions) (domain.ChatResponse, error) {
	reqBody := p.buildRequest(messages, opts, false)

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMAnthropic, Cause: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMAnthropic, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMAnthropic, Cause: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMAnthropic, Cause: fmt.Errorf("read response: %w", err)}
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMAnthropic, Cause: fmt.Errorf("decode response: %w", err)}
	}
	if msgResp.Error != nil {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMAnthropic, Cause: fmt.Errorf("%s", msgResp.Error.Message)}
	}
	if resp.StatusCode != http.StatusOK {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMAnthropic, Cause: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}
	if len(msgResp.Content) == 0 {
		return domain.ChatResponse{}, &domain.LLMError{Provider: domain.LLMAnthropic, Cause: fmt.Errorf("no response content returned")}
	}

	var text strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return domain.ChatResponse{
		Content: text.String(),
		Usage: &domain.TokenUsage{
			PromptTokens:     msgResp.Usage.InputTokens,
			CompletionTokens: msgResp.Usage.OutputTokens,
			TotalTokens:      msgResp.Usage.InputTokens + msgResp.Usage.OutputTokens,
		},
		Model:        p.model,
		FinishReason: msgResp.StopReason,
	}, nil
}

// ChatStream sends a streamed message request and returns a channel of
// incremental frames, decoding Anthropic's content_block_delta events.
func (p *Provider) ChatStream(ctx context.Context, messages []domain.ChatMessage, opts driven.ChatOptions) (<-chan domain.ChatStreamFrame, error) {
	reqBody := p.buildRequest(messages, opts, true)

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &domain.LLMError{Provider: domain.LLMAnthropic, Cause: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &domain.LLMError{Provider: domain.LLMAnthropic, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &domain.LLMError{Provider: domain.LLMAnthropic, Cause: fmt.Errorf("send request: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &domain.LLMError{Provider: domain.LLMAnthropic, Cause: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
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

			var event streamEvent
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				continue
			}

			switch event.Type {
			case "message_start":
				usage.PromptTokens = event.Message.Usage.InputTokens
			case "content_block_delta":
				select {
				case frames <- domain.ChatStreamFrame{Content: event.Delta.Text}:
				case <-ctx.Done():
					return
				}
			case "message_delta":
				usage.CompletionTokens = event.Usage.OutputTokens
				usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
			case "message_stop":
				frames <- domain.ChatStreamFrame{Done: true, Usage: &usage}
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
// /v1/models endpoint without running inference.
func (p *Provider) TestConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return false
	}
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

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
