package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/extract/ocr"
	"github.com/custodia-labs/sercha-cli/internal/extract/pdf"
	"github.com/custodia-labs/sercha-cli/internal/lang"
)

var (
	testProviderKind string
	testParams       []string
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Check connectivity to a provider, or run OCR diagnostics on a file",
}

var testLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Test connectivity to an LLM provider",
	Args:  cobra.NoArgs,
	RunE:  runTestLLM,
}

var testVectorCmd = &cobra.Command{
	Use:   "vector",
	Short: "Test connectivity to a vector store provider",
	Args:  cobra.NoArgs,
	RunE:  runTestVector,
}

var testOCRCmd = &cobra.Command{
	Use:   "ocr [file]",
	Short: "Run OCR extraction on a PDF and report the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runTestOCR,
}

func init() {
	for _, cmd := range []*cobra.Command{testLLMCmd, testVectorCmd} {
		cmd.Flags().StringVar(&testProviderKind, "provider", "", "provider kind")
		cmd.Flags().StringArrayVar(&testParams, "param", nil, "provider param as key=value, repeatable")
	}
	testCmd.AddCommand(testLLMCmd)
	testCmd.AddCommand(testVectorCmd)
	testCmd.AddCommand(testOCRCmd)
	rootCmd.AddCommand(testCmd)
}

func runTestLLM(cmd *cobra.Command, _ []string) error {
	if testProviderKind == "" {
		return errors.New("--provider is required")
	}
	params, err := parseParams(testParams)
	if err != nil {
		return err
	}

	provider, err := ai.BuildLLMProvider(domain.LLMProviderKind(testProviderKind), params)
	if err != nil {
		return fmt.Errorf("building provider: %w", err)
	}
	defer provider.Close()

	if provider.TestConnection(cmd.Context()) {
		cmd.Printf("connected: model %s\n", provider.ModelName())
		return nil
	}
	cmd.Println("not connected")
	return nil
}

func runTestVector(cmd *cobra.Command, _ []string) error {
	if testProviderKind == "" {
		return errors.New("--provider is required")
	}
	params, err := parseParams(testParams)
	if err != nil {
		return err
	}

	index, err := ai.BuildVectorIndex(domain.VectorProviderKind(testProviderKind), params)
	if err != nil {
		return fmt.Errorf("building provider: %w", err)
	}
	defer index.Close()

	if index.TestConnection(cmd.Context()) {
		cmd.Println("connected")
		return nil
	}
	cmd.Println("not connected")
	return nil
}

// runTestOCR extracts a PDF through the real pdftotext/OCR pipeline, outside
// the document registry, and reports the text length and detected language.
// Per-page confidence and the tesseract binary version aren't surfaced by the
// OCR processor's plain-text invocation, so they're omitted here rather than
// faked.
func runTestOCR(cmd *cobra.Command, args []string) error {
	extractor := pdf.New(ocr.New())
	result, err := extractor.Extract(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("extracting %s: %w", args[0], err)
	}

	primary, distribution := lang.Detect(result.Text)
	cmd.Printf("Extracted %d characters\n", len(result.Text))
	cmd.Printf("Primary language: %s\n", primary)
	for code, fraction := range distribution {
		cmd.Printf("  %s: %.2f\n", code, fraction)
	}
	return nil
}
