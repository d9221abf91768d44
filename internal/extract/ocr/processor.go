package ocr

import (
	"context"
	"os/exec"
	"sync"

	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
)

// MaxParallelPages bounds how many pages are rendered and OCR'd at once.
const MaxParallelPages = 5

// Processor implements pdf.OCRFallback by rendering, enhancing, and
// running tesseract over each page.
type Processor struct {
	runner driven.CommandRunner
}

// New creates an OCR processor using the real pdftoppm/tesseract binaries.
func New() *Processor {
	return &Processor{runner: execRunner{}}
}

// NewWithRunner creates an OCR processor using a custom CommandRunner,
// primarily for tests.
func NewWithRunner(runner driven.CommandRunner) *Processor {
	return &Processor{runner: runner}
}

// Extract renders and OCRs pageCount pages, at most MaxParallelPages at a
// time, and joins the post-processed page texts in order.
func (p *Processor) Extract(ctx context.Context, path string, pageCount int) (string, error) {
	if pageCount <= 0 {
		pageCount = 1
	}

	results := make([]string, pageCount)
	var wg sync.WaitGroup
	var mu sync.Mutex
	sem := make(chan struct{}, MaxParallelPages)
	var firstErr error

	for page := 1; page <= pageCount; page++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(page int) {
			defer wg.Done()
			defer func() { <-sem }()

			text, err := p.extractPage(ctx, path, page)
			mu.Lock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
			} else {
				results[page-1] = text
			}
			mu.Unlock()
		}(page)
	}
	wg.Wait()

	if firstErr != nil {
		return "", firstErr
	}

	joined := ""
	for _, text := range results {
		if text == "" {
			continue
		}
		if joined != "" {
			joined += "\n\n"
		}
		joined += text
	}
	return joined, nil
}

func (p *Processor) extractPage(ctx context.Context, path string, page int) (string, error) {
	img, err := renderPage(ctx, p.runner, path, page)
	if err != nil {
		return "", err
	}
	img = enhance(img)

	text, err := runTesseract(ctx, p.runner, img)
	if err != nil {
		return "", err
	}
	return postProcess(text), nil
}

// execRunner runs subprocesses via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}
