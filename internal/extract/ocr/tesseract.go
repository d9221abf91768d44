package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/custodia-labs/sercha-cli/internal/core/ports/driven"
)

// languagePack is the union of English and the supported Indian-script
// languages tesseract is run with, using tesseract's ISO 639-2 codes.
const languagePack = "eng+hin+ben+ori+tam+tel+kan+mal"

// singleBlockPSM is tesseract's page-segmentation mode for a page assumed
// to be a single uniform block of text.
const singleBlockPSM = "6"

// runTesseract writes img to a temp PNG and runs tesseract over it in
// single-block page-segmentation mode with the union language pack.
func runTesseract(ctx context.Context, runner driven.CommandRunner, img image.Image) (string, error) {
	f, err := os.CreateTemp("", "ocr-enhanced-*.png")
	if err != nil {
		return "", err
	}
	path := f.Name()
	defer os.Remove(path)

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	out, err := runner.Run(ctx, "tesseract", path, "stdout",
		"-l", languagePack, "--psm", singleBlockPSM)
	if err != nil {
		return "", fmt.Errorf("tesseract failed: %w", err)
	}
	return string(out), nil
}
