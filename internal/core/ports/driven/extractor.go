package driven

import "context"

// ExtractResult is the output of an Extractor: normalized UTF-8 text plus
// any metadata worth carrying forward (e.g. "format", "mime_type", "pages").
type ExtractResult struct {
	Text     string
	Metadata map[string]any
}

// Extractor converts a document file into normalized UTF-8 text (C1). Each
// extractor handles one or more file extensions.
type Extractor interface {
	// SupportedExtensions returns the lowercase extensions (with the leading
	// dot) this extractor handles, e.g. [".pdf"].
	SupportedExtensions() []string

	// Priority returns the selection priority when more than one extractor
	// claims the same extension (higher wins).
	Priority() int

	// Extract reads path and returns its normalized text.
	Extract(ctx context.Context, path string) (*ExtractResult, error)
}

// ExtractorRegistry selects the appropriate Extractor for a file extension.
type ExtractorRegistry interface {
	// Extract dispatches to the best-matching registered extractor. extension
	// is given without the leading dot, e.g. "pdf".
	Extract(ctx context.Context, path, extension string) (*ExtractResult, error)

	// Register adds an extractor to the registry.
	Register(extractor Extractor)

	// SupportedExtensions returns every extension that can be extracted.
	SupportedExtensions() []string
}

// CommandRunner abstracts subprocess invocation so extractors that shell out
// (pdftotext, pdftoppm, tesseract) can be tested without the real binaries.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
