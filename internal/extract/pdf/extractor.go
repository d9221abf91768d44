// Package pdf implements driven.Extractor for .pdf files. Pages are
// extracted in parallel via pdftotext and, when the result fails a
// quality test, re-extracted with OCR (C1-a).
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"sync"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-cli/internal/extract"
)

// ErrPDFToolNotFound is returned when pdftotext is not on PATH.
var ErrPDFToolNotFound = errors.New("pdftotext not found on PATH")

const (
	// pageBatchSize is B: pages extracted together as one batch.
	pageBatchSize = 5
	// pageWorkers is W: concurrent workers extracting pages within a batch.
	pageWorkers = 4
	// fallbackMaxPages bounds the iterative page-count probe when pdfinfo
	// is unavailable, per the open question on authoritative page counts.
	fallbackMaxPages = 2000
)

var pagesLine = regexp.MustCompile(`(?m)^Pages:\s*(\d+)`)

var _ driven.Extractor = (*Extractor)(nil)

// OCRFallback performs OCR extraction over a page range, used when native
// extraction fails the quality test.
type OCRFallback interface {
	Extract(ctx context.Context, path string, pageCount int) (string, error)
}

// Extractor extracts text from PDFs via pdftotext, with an OCR fallback for
// scanned or low-quality pages.
type Extractor struct {
	runner driven.CommandRunner
	ocr    OCRFallback
}

// New creates a PDF extractor using the real pdftotext/pdfinfo binaries and,
// if ocr is non-nil, the given OCR fallback.
func New(ocr OCRFallback) *Extractor {
	return &Extractor{runner: execRunner{}, ocr: ocr}
}

// NewWithRunner creates a PDF extractor using a custom CommandRunner,
// primarily for tests.
func NewWithRunner(runner driven.CommandRunner, ocr OCRFallback) *Extractor {
	return &Extractor{runner: runner, ocr: ocr}
}

// SupportedExtensions returns the extensions this extractor claims.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract extracts PDF text page by page, normalizes it, and falls back to
// OCR when the result is low quality.
func (e *Extractor) Extract(ctx context.Context, path string) (*driven.ExtractResult, error) {
	pageCount, err := e.pageCount(ctx, path)
	if err != nil {
		return nil, &domain.ExtractionError{Path: path, Cause: err}
	}

	text, err := e.extractPages(ctx, path, pageCount)
	if err != nil {
		return nil, &domain.ExtractionError{Path: path, Cause: err}
	}
	if pageCount == 0 {
		pageCount = 1
	}

	ocrUsed := false
	if needsOCR(text) && e.ocr != nil {
		ocrText, ocrErr := e.ocr.Extract(ctx, path, pageCount)
		if ocrErr == nil && len(ocrText) > len(text) {
			text = ocrText
			ocrUsed = true
		}
		// OCR errors are non-fatal: the original extraction is kept.
	}

	return &driven.ExtractResult{
		Text: text,
		Metadata: map[string]any{
			"mime_type":  "application/pdf",
			"format":     "pdf",
			"page_count": pageCount,
			"ocr_used":   ocrUsed,
		},
	}, nil
}

// pageCount asks pdfinfo for the authoritative page count.
func (e *Extractor) pageCount(ctx context.Context, path string) (int, error) {
	out, err := e.runner.Run(ctx, "pdfinfo", path)
	if err != nil {
		return 0, nil // unknown; extractPages will probe iteratively
	}
	m := pagesLine.FindSubmatch(out)
	if m == nil {
		return 0, nil
	}
	n, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, nil
	}
	return n, nil
}

type pageResult struct {
	page int
	text string
	err  error
}

// extractPages extracts text for each page in batches of pageBatchSize with
// pageWorkers concurrent workers per batch, one batch at a time, then joins
// the normalized page texts in order.
func (e *Extractor) extractPages(ctx context.Context, path string, pageCount int) (string, error) {
	if pageCount <= 0 {
		return e.extractPagesUnknownCount(ctx, path)
	}

	results := make([]string, pageCount)
	for batchStart := 1; batchStart <= pageCount; batchStart += pageBatchSize {
		batchEnd := batchStart + pageBatchSize - 1
		if batchEnd > pageCount {
			batchEnd = pageCount
		}

		var wg sync.WaitGroup
		var mu sync.Mutex
		sem := make(chan struct{}, pageWorkers)
		var firstErr error

		for page := batchStart; page <= batchEnd; page++ {
			wg.Add(1)
			sem <- struct{}{}
			go func(page int) {
				defer wg.Done()
				defer func() { <-sem }()

				text, err := e.extractPage(ctx, path, page)
				mu.Lock()
				if err != nil && firstErr == nil {
					firstErr = err
				}
				results[page-1] = text
				mu.Unlock()
			}(page)
		}
		wg.Wait()

		if firstErr != nil {
			return "", firstErr
		}
	}

	return joinPages(results), nil
}

// extractPagesUnknownCount is used when pdfinfo could not report a page
// count: pages are extracted one at a time until pdftotext returns nothing
// for a page, bounded by fallbackMaxPages.
func (e *Extractor) extractPagesUnknownCount(ctx context.Context, path string) (string, error) {
	var pages []string
	for page := 1; page <= fallbackMaxPages; page++ {
		text, err := e.extractPage(ctx, path, page)
		if err != nil {
			if page == 1 {
				return "", err
			}
			break
		}
		if text == "" && page > 1 {
			break
		}
		pages = append(pages, text)
	}
	return joinPages(pages), nil
}

func (e *Extractor) extractPage(ctx context.Context, path string, page int) (string, error) {
	out, err := e.runner.Run(ctx, "pdftotext",
		"-f", strconv.Itoa(page), "-l", strconv.Itoa(page), "-layout", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return extract.NormalizePage(string(out)), nil
}

func joinPages(pages []string) string {
	nonEmpty := make([]string, 0, len(pages))
	for _, p := range pages {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	out := bytes.Buffer{}
	for i, p := range nonEmpty {
		if i > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString(p)
	}
	return out.String()
}

// CheckAvailable reports whether pdftotext is on PATH.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions describes how to install the poppler-utils package
// that provides pdftotext and pdfinfo.
func InstallInstructions() string {
	return "pdftotext requires poppler-utils: brew install poppler (macOS) or apt install poppler-utils (Debian/Ubuntu)"
}

// execRunner runs subprocesses via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}
