package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	if err == nil {
		t.Error("expected error when API key missing")
	}
}

func TestProvider_EmbedOne(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := embeddingResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float64 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: []float64{0.1, 0.2, 0.3}, Index: i})
		}
		resp.Usage.PromptTokens = 5
		resp.Usage.TotalTokens = 5
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vec, err := p.EmbedOne(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("expected 3-dim vector, got %d", len(vec))
	}
}

func TestProvider_EmbedMany_BatchesAndSumsUsage(t *testing.T) {
	var requestCount int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		var req embeddingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Input) > maxBatchSize {
			t.Errorf("batch size %d exceeds max %d", len(req.Input), maxBatchSize)
		}
		resp := embeddingResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Embedding []float64 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: []float64{0.5}, Index: i})
		}
		resp.Usage.PromptTokens = 10
		resp.Usage.TotalTokens = 10
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	texts := make([]string, maxBatchSize+5)
	for i := range texts {
		texts[i] = "text"
	}

	result, err := p.EmbedMany(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Vectors) != len(texts) {
		t.Errorf("expected %d vectors, got %d", len(texts), len(result.Vectors))
	}
	if requestCount != 2 {
		t.Errorf("expected 2 batched requests, got %d", requestCount)
	}
	if result.Usage.TotalTokens != 20 {
		t.Errorf("expected summed usage 20, got %d", result.Usage.TotalTokens)
	}
}

func TestProvider_Dimensions(t *testing.T) {
	p, err := New(Config{APIKey: "k", Model: "text-embedding-3-large"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Dimensions() != 3072 {
		t.Errorf("expected 3072, got %d", p.Dimensions())
	}
}
