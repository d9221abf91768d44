// Package pinecone provides a driven.VectorIndex adapter backed by a
// Pinecone index, using a minimal REST client in the style of a typical
// vector-database HTTP integration: JSON bodies, an api-key header, and
// status codes >= 300 treated as failures.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-cli/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// upsertBatchSize and deleteBatchSize cap request sizes per §4.5.
const (
	upsertBatchSize = 100
	deleteBatchSize = 1000
)

// Config configures the Pinecone vector index.
type Config struct {
	// APIKey authenticates against the Pinecone control/data plane.
	APIKey string

	// Environment is informational; Pinecone's modern data-plane URL is
	// host-based, but Environment is retained for configuration compatibility.
	Environment string

	// IndexName names the target index.
	IndexName string

	// Host is the index's data-plane host, e.g. https://my-index-xyz.svc.pinecone.io.
	// Required: Pinecone's per-index host cannot be derived from IndexName alone.
	Host string

	// Namespace scopes records within the index (optional).
	Namespace string

	Timeout time.Duration
}

// Index talks to a Pinecone index over its REST data plane.
type Index struct {
	client    *http.Client
	host      string
	apiKey    string
	namespace string
}

// New creates a Pinecone-backed vector index.
func New(cfg Config) (*Index, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone: API key is required")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("pinecone: host is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Index{
		client:    &http.Client{Timeout: cfg.Timeout},
		host:      trimTrailingSlash(cfg.Host),
		apiKey:    cfg.APIKey,
		namespace: cfg.Namespace,
	}, nil
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// Initialize is a no-op: Pinecone indexes are provisioned out of band.
func (x *Index) Initialize(ctx context.Context) error {
	return nil
}

// AddDocuments upserts records, chunked at upsertBatchSize per request.
func (x *Index) AddDocuments(ctx context.Context, records []domain.VectorRecord) error {
	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := x.upsertBatch(ctx, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (x *Index) upsertBatch(ctx context.Context, records []domain.VectorRecord) error {
	vectors := make([]map[string]any, len(records))
	for i, r := range records {
		metadata := map[string]any{"content": r.Content}
		for k, v := range r.Metadata {
			metadata[k] = v
		}
		vectors[i] = map[string]any{
			"id":       r.ID,
			"values":   r.Embedding,
			"metadata": metadata,
		}
	}

	body := map[string]any{"vectors": vectors}
	if x.namespace != "" {
		body["namespace"] = x.namespace
	}
	return x.postJSON(ctx, x.host+"/vectors/upsert", body, nil)
}

// Search returns up to k nearest neighbours.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]domain.SearchHit, error) {
	body := map[string]any{
		"vector":          query,
		"topK":            k,
		"includeMetadata": true,
	}
	if x.namespace != "" {
		body["namespace"] = x.namespace
	}

	var resp struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := x.postJSON(ctx, x.host+"/query", body, &resp); err != nil {
		return nil, err
	}

	hits := make([]domain.SearchHit, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		content, _ := m.Metadata["content"].(string)
		hits = append(hits, domain.SearchHit{ID: m.ID, Content: content, Score: m.Score, Metadata: m.Metadata})
	}
	return hits, nil
}

// Delete removes matching records, chunked at deleteBatchSize ids per request.
func (x *Index) Delete(ctx context.Context, ids []string) error {
	for start := 0; start < len(ids); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		body := map[string]any{"ids": ids[start:end]}
		if x.namespace != "" {
			body["namespace"] = x.namespace
		}
		if err := x.postJSON(ctx, x.host+"/vectors/delete", body, nil); err != nil {
			return err
		}
	}
	return nil
}

// Clear deletes all records in the configured namespace.
func (x *Index) Clear(ctx context.Context) error {
	body := map[string]any{"deleteAll": true}
	if x.namespace != "" {
		body["namespace"] = x.namespace
	}
	return x.postJSON(ctx, x.host+"/vectors/delete", body, nil)
}

// Count reports the vector count for the configured namespace.
func (x *Index) Count(ctx context.Context) (int, error) {
	var resp struct {
		Namespaces map[string]struct {
			VectorCount int `json:"vectorCount"`
		} `json:"namespaces"`
		TotalVectorCount int `json:"totalVectorCount"`
	}
	if err := x.postJSON(ctx, x.host+"/describe_index_stats", map[string]any{}, &resp); err != nil {
		return 0, err
	}
	if x.namespace != "" {
		return resp.Namespaces[x.namespace].VectorCount, nil
	}
	return resp.TotalVectorCount, nil
}

// TestConnection reports whether the index is reachable.
func (x *Index) TestConnection(ctx context.Context) bool {
	err := x.postJSON(ctx, x.host+"/describe_index_stats", map[string]any{}, nil)
	if err != nil {
		logger.Warn("pinecone: test connection failed: %v", err)
		return false
	}
	return true
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

func (x *Index) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", x.apiKey)

	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("pinecone POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
