// Package chroma provides a driven.VectorIndex adapter backed by a Chroma
// server, using the same minimal REST-client style as the other networked
// vector-store adapters: JSON bodies over net/http, status codes >= 300
// treated as failures, collection lookup/creation on Initialize.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
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

// Config configures the Chroma vector index.
type Config struct {
	Host           string
	Port           int
	SSL            bool
	CollectionName string
	Timeout        time.Duration
}

// Index talks to a Chroma server over its REST API.
type Index struct {
	client       *http.Client
	baseURL      string
	collection   string
	collectionID string
}

// New creates a Chroma-backed vector index.
func New(cfg Config) (*Index, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("chroma: host is required")
	}
	if cfg.CollectionName == "" {
		return nil, fmt.Errorf("chroma: collection name is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	scheme := "http"
	if cfg.SSL {
		scheme = "https"
	}
	port := cfg.Port
	if port == 0 {
		port = 8000
	}

	return &Index{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    fmt.Sprintf("%s://%s:%d/api/v1", scheme, cfg.Host, port),
		collection: cfg.CollectionName,
	}, nil
}

// Initialize fetches or creates the named collection and caches its id,
// since Chroma's data endpoints are addressed by collection id, not name.
func (x *Index) Initialize(ctx context.Context) error {
	var existing struct {
		ID string `json:"id"`
	}
	err := x.getJSON(ctx, x.baseURL+"/collections/"+x.collection, &existing)
	if err == nil && existing.ID != "" {
		x.collectionID = existing.ID
		return nil
	}

	var created struct {
		ID string `json:"id"`
	}
	body := map[string]any{"name": x.collection, "get_or_create": true}
	if err := x.postJSON(ctx, x.baseURL+"/collections", body, &created); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	x.collectionID = created.ID
	return nil
}

func (x *Index) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s/%s", x.baseURL, x.collectionID, suffix)
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
	ids := make([]string, len(records))
	embeddings := make([][]float32, len(records))
	documents := make([]string, len(records))
	metadatas := make([]map[string]any, len(records))

	for i, r := range records {
		ids[i] = r.ID
		embeddings[i] = r.Embedding
		documents[i] = r.Content
		metadatas[i] = r.Metadata
	}

	body := map[string]any{
		"ids":        ids,
		"embeddings": embeddings,
		"documents":  documents,
		"metadatas":  metadatas,
	}
	return x.postJSON(ctx, x.collectionURL("upsert"), body, nil)
}

// Search returns up to k nearest neighbours.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]domain.SearchHit, error) {
	body := map[string]any{
		"query_embeddings": [][]float32{query},
		"n_results":        k,
		"include":          []string{"documents", "metadatas", "distances"},
	}

	var resp struct {
		IDs       [][]string         `json:"ids"`
		Documents [][]string         `json:"documents"`
		Metadatas [][]map[string]any `json:"metadatas"`
		Distances [][]float64        `json:"distances"`
	}
	if err := x.postJSON(ctx, x.collectionURL("query"), body, &resp); err != nil {
		return nil, err
	}
	if len(resp.IDs) == 0 {
		return nil, nil
	}

	hits := make([]domain.SearchHit, 0, len(resp.IDs[0]))
	for i, id := range resp.IDs[0] {
		var content string
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			content = resp.Documents[0][i]
		}
		var metadata map[string]any
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			metadata = resp.Metadatas[0][i]
		}
		// Chroma reports distance; convert to a similarity score in [0, 1].
		score := 1.0
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			score = 1.0 / (1.0 + resp.Distances[0][i])
		}
		hits = append(hits, domain.SearchHit{ID: id, Content: content, Score: score, Metadata: metadata})
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
		if err := x.postJSON(ctx, x.collectionURL("delete"), body, nil); err != nil {
			return err
		}
	}
	return nil
}

// Clear deletes the collection's contents by recreating it.
func (x *Index) Clear(ctx context.Context) error {
	if err := x.deleteJSON(ctx, x.baseURL+"/collections/"+x.collection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return x.Initialize(ctx)
}

// Count reports the number of records in the collection.
func (x *Index) Count(ctx context.Context) (int, error) {
	var count int
	if err := x.getJSON(ctx, x.collectionURL("count"), &count); err != nil {
		return 0, err
	}
	return count, nil
}

// TestConnection reports whether the Chroma server is reachable.
func (x *Index) TestConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, x.baseURL+"/heartbeat", http.NoBody)
	if err != nil {
		return false
	}
	resp, err := x.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 300
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

	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("chroma POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (x *Index) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("chroma GET %s failed: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (x *Index) deleteJSON(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("chroma DELETE %s failed: %s", url, resp.Status)
	}
	return nil
}
