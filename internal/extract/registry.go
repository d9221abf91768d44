package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry selects the appropriate Extractor for a file extension,
// preferring the highest-priority extractor when more than one claims it.
type Registry struct {
	extractors map[string][]driven.Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string][]driven.Extractor)}
}

// Register adds an extractor for each of its supported extensions. Extensions
// are keyed lowercase without the leading dot, the form callers pass to Extract.
func (r *Registry) Register(extractor driven.Extractor) {
	for _, ext := range extractor.SupportedExtensions() {
		ext = strings.TrimPrefix(strings.ToLower(ext), ".")
		r.extractors[ext] = append(r.extractors[ext], extractor)
		sort.SliceStable(r.extractors[ext], func(i, j int) bool {
			return r.extractors[ext][i].Priority() > r.extractors[ext][j].Priority()
		})
	}
}

// Extract dispatches to the best-matching registered extractor for extension.
func (r *Registry) Extract(ctx context.Context, path, extension string) (*driven.ExtractResult, error) {
	candidates, ok := r.extractors[extension]
	if !ok || len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no extractor for extension %q", domain.ErrUnsupportedType, extension)
	}
	return candidates[0].Extract(ctx, path)
}

// SupportedExtensions returns every extension that can be extracted.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
