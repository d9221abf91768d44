// Package local provides a file-backed driven.VectorIndex (C5) implementing
// a flat inner-product index persisted as an index.bin/documents.json pair,
// written atomically via write-to-temp-then-rename.
package local

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-cli/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

const (
	documentsFile = "documents.json"
	indexFile     = "index.bin"
	binMagic      = uint32(0x53524348) // "SRCH"
)

// record mirrors domain.VectorRecord for JSON persistence.
type record struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Embedding []float32      `json:"embedding"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Config configures the local file-backed vector index.
type Config struct {
	// Path is the directory holding index.bin and documents.json (required).
	Path string

	// Algorithm is the requested index algorithm. Anything other than
	// IndexFlatIP is accepted and downgraded to flat with a warning.
	Algorithm domain.IndexAlgorithm

	// Threshold, if > 0, filters Search hits with score below it, in
	// addition to any caller-supplied k.
	Threshold float64
}

// Index is a flat inner-product nearest-neighbor store persisted to disk.
type Index struct {
	mu        sync.RWMutex
	path      string
	threshold float64

	order []string          // insertion order of ids, mirrors documents.json
	byID  map[string]record // id -> record
}

// New creates a local vector index bound to cfg.Path. Call Initialize to
// load any previously persisted state.
func New(cfg Config) (*Index, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("local vector index: path is required")
	}
	if cfg.Algorithm != "" && cfg.Algorithm != domain.IndexFlatIP {
		logger.Warn("local vector index: algorithm %q downgraded to flat-ip", cfg.Algorithm)
	}

	return &Index{
		path:      cfg.Path,
		threshold: cfg.Threshold,
		byID:      make(map[string]record),
	}, nil
}

func (x *Index) documentsPath() string { return filepath.Join(x.path, documentsFile) }
func (x *Index) indexPath() string     { return filepath.Join(x.path, indexFile) }

// Initialize loads a previously persisted index and document map if
// present. Missing or corrupt files fall back to an empty index with a
// logged warning rather than failing.
func (x *Index) Initialize(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := os.MkdirAll(x.path, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	data, err := os.ReadFile(x.documentsPath())
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("local vector index: documents.json unreadable (%v), starting empty", err)
		}
		x.order = nil
		x.byID = make(map[string]record)
		return nil
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Warn("local vector index: documents.json corrupt (%v), starting empty", err)
		x.order = nil
		x.byID = make(map[string]record)
		return nil
	}

	x.order = make([]string, 0, len(records))
	x.byID = make(map[string]record, len(records))
	for _, r := range records {
		x.order = append(x.order, r.ID)
		x.byID[r.ID] = r
	}
	logger.Debug("local vector index: loaded %d records from %s", len(records), x.documentsPath())
	return nil
}

// AddDocuments upserts records by id, extending the in-memory structures
// then persisting both files, each written atomically.
func (x *Index) AddDocuments(ctx context.Context, records []domain.VectorRecord) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, r := range records {
		if _, exists := x.byID[r.ID]; !exists {
			x.order = append(x.order, r.ID)
		}
		x.byID[r.ID] = record{ID: r.ID, Content: r.Content, Embedding: r.Embedding, Metadata: r.Metadata}
	}

	return x.persist()
}

// Search returns up to k nearest neighbours by inner product, highest score
// first. k is clamped to the record count; an empty index returns (nil, nil).
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]domain.SearchHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.order) == 0 {
		return nil, nil
	}
	if k > len(x.order) {
		k = len(x.order)
	}
	if k <= 0 {
		return nil, nil
	}

	scored := make([]domain.SearchHit, 0, len(x.order))
	for _, id := range x.order {
		r := x.byID[id]
		score := innerProduct(query, r.Embedding)
		if x.threshold > 0 && score < x.threshold {
			continue
		}
		scored = append(scored, domain.SearchHit{ID: r.ID, Content: r.Content, Score: score, Metadata: r.Metadata})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Delete removes matching records, rebuilding the native index from the
// remaining vectors since the on-disk representation is append-only.
func (x *Index) Delete(ctx context.Context, ids []string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	remove := make(map[string]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}

	newOrder := make([]string, 0, len(x.order))
	for _, id := range x.order {
		if remove[id] {
			delete(x.byID, id)
			continue
		}
		newOrder = append(newOrder, id)
	}
	x.order = newOrder

	logger.Debug("local vector index: rebuilding native index after delete (%d records remain)", len(x.order))
	return x.persist()
}

// Clear discards all in-memory records and writes an empty index.
func (x *Index) Clear(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.order = nil
	x.byID = make(map[string]record)
	return x.persist()
}

// Count returns the number of stored records.
func (x *Index) Count(ctx context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.order), nil
}

// TestConnection reports whether the index directory is writable.
func (x *Index) TestConnection(ctx context.Context) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return os.MkdirAll(x.path, 0o755) == nil
}

// Close releases resources. The local index holds none beyond the open
// directory handle implicit in file operations, so this is a no-op.
func (x *Index) Close() error {
	return nil
}

// persist writes documents.json and then index.bin, each atomically via
// write-to-temp-then-rename. Callers must hold x.mu.
func (x *Index) persist() error {
	records := make([]record, 0, len(x.order))
	for _, id := range x.order {
		records = append(records, x.byID[id])
	}

	docsData, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}

	binData, err := encodeIndexBin(records)
	if err != nil {
		return fmt.Errorf("encode native index: %w", err)
	}

	if err := atomicWrite(x.documentsPath(), docsData); err != nil {
		return fmt.Errorf("write documents.json: %w", err)
	}
	if err := atomicWrite(x.indexPath(), binData); err != nil {
		return fmt.Errorf("write index.bin: %w", err)
	}
	return nil
}

// atomicWrite writes data to path via a temp file in the same directory
// followed by a rename, so a crash mid-write never leaves a partial file
// at the destination path.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// encodeIndexBin writes the native flat index: a magic header, the vector
// count and dimension, then each embedding's raw float32 bytes in order.
func encodeIndexBin(records []record) ([]byte, error) {
	var buf bytes.Buffer
	dim := 0
	if len(records) > 0 {
		dim = len(records[0].Embedding)
	}

	if err := binary.Write(&buf, binary.LittleEndian, binMagic); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(records))); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(dim)); err != nil {
		return nil, err
	}
	for _, r := range records {
		for _, v := range r.Embedding {
			if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
				return nil, err
			}
		}
	}
	return buf.Bytes(), nil
}

func innerProduct(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0
	}
	return sum
}
