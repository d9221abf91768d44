package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
)

// renderDPI is the resolution pdftoppm renders pages at (A4 aspect).
const renderDPI = 300

// renderPage rasterizes one PDF page to a PNG image via pdftoppm.
func renderPage(ctx context.Context, runner driven.CommandRunner, path string, page int) (image.Image, error) {
	dir, err := os.MkdirTemp("", "ocr-page-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	_, err = runner.Run(ctx, "pdftoppm",
		"-png", "-r", strconv.Itoa(renderDPI),
		"-f", strconv.Itoa(page), "-l", strconv.Itoa(page),
		path, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w", err)
	}

	matches, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no output for page %d", page)
	}

	f, err := os.Open(matches[0])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}
