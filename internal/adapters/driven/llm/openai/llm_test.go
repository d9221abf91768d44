package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	if err == nil {
		t.Error("expected error when API key missing")
	}
}

func TestProvider_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatCompletionResponse{}
		resp.Choices = []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		}{{
			Message:      struct{ Content string `json:"content"` }{Content: "hello there"},
			FinishReason: "stop",
		}}
		resp.Usage.TotalTokens = 42
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "k", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := p.Chat(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}}, driven.DefaultChatOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Content != "hello there" {
		t.Errorf("expected %q, got %q", "hello there", out.Content)
	}
	if out.Usage.TotalTokens != 42 {
		t.Errorf("expected usage 42, got %d", out.Usage.TotalTokens)
	}
}

func TestProvider_ChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fl, _ := w.(http.Flusher)
		chunks := []string{"Hel", "lo"}
		for _, c := range chunks {
			chunk := fmt.Sprintf(`{"choices":[{"delta":{"content":%q}}]}`, c)
			fmt.Fprintf(w, "data: %s\n\n", chunk)
			fl.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		fl.Flush()
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "k", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frames, err := p.ChatStream(context.Background(), []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}}, driven.DefaultChatOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got string
	done := false
	for frame := range frames {
		if frame.Err != nil {
			t.Fatalf("unexpected frame error: %v", frame.Err)
		}
		got += frame.Content
		if frame.Done {
			done = true
		}
	}
	if got != "Hello" {
		t.Errorf("expected %q, got %q", "Hello", got)
	}
	if !done {
		t.Error("expected a Done frame")
	}
}
