// Package jsondoc implements driven.Extractor for .json files. Content is
// parsed and re-serialized pretty-printed so indexing sees a consistent,
// readable representation rather than a raw minified blob.
package jsondoc

import (
	"context"
	"encoding/json"
	"os"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-cli/internal/extract"
)

var _ driven.Extractor = (*Extractor)(nil)

// Extractor parses JSON and re-serializes it pretty-printed.
type Extractor struct{}

// New creates a JSON extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedExtensions returns the extensions this extractor claims.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".json"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract parses the file as JSON and pretty-prints it back to text.
func (e *Extractor) Extract(_ context.Context, path string) (*driven.ExtractResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, &domain.ExtractionError{Path: path, Cause: err}
	}

	pretty, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, &domain.ExtractionError{Path: path, Cause: err}
	}

	return &driven.ExtractResult{
		Text: extract.NormalizePage(string(pretty)),
		Metadata: map[string]any{
			"mime_type": "application/json",
			"format":    "json",
		},
	}, nil
}
