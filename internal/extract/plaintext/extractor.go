// Package plaintext implements driven.Extractor for .txt files, read directly
// as UTF-8 text. It claims no other extension (.md has its own extractor), and
// the registry does not route unregistered extensions to it.
package plaintext

import (
	"context"
	"os"

	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-cli/internal/extract"
)

var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads a file's bytes as UTF-8 text with no format-specific
// parsing. It is the fallback extractor: lowest priority so that any
// format-aware extractor registered for the same extension wins first.
type Extractor struct{}

// New creates a plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedExtensions returns the extensions this extractor claims.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".txt"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 5
}

// Extract reads the file and normalizes its text.
func (e *Extractor) Extract(_ context.Context, path string) (*driven.ExtractResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &driven.ExtractResult{
		Text: extract.NormalizePage(string(raw)),
		Metadata: map[string]any{
			"mime_type": "text/plain",
		},
	}, nil
}
