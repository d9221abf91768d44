// Command sercha wires the driven-port adapters into the core services and
// runs the cobra command tree: document ingestion, chat queries,
// configuration management, the MCP server, and the interactive TUI.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sercha-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-cli/internal/core/services"
	"github.com/custodia-labs/sercha-cli/internal/extract"
	"github.com/custodia-labs/sercha-cli/internal/extract/docx"
	"github.com/custodia-labs/sercha-cli/internal/extract/html"
	"github.com/custodia-labs/sercha-cli/internal/extract/jsondoc"
	"github.com/custodia-labs/sercha-cli/internal/extract/markdown"
	"github.com/custodia-labs/sercha-cli/internal/extract/ocr"
	"github.com/custodia-labs/sercha-cli/internal/extract/pdf"
	"github.com/custodia-labs/sercha-cli/internal/extract/plaintext"
	"github.com/custodia-labs/sercha-cli/internal/logger"
)

// version is injected at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sercha:", err)
		os.Exit(1)
	}
}

func run() error {
	verbose := os.Getenv("SERCHA_VERBOSE") != ""
	for _, arg := range os.Args[1:] {
		if arg == "--verbose" || arg == "-v" {
			verbose = true
		}
	}
	logger.SetVerbose(verbose)

	ctx := context.Background()

	dataDir, err := defaultDataDir()
	if err != nil {
		return fmt.Errorf("resolving data directory: %w", err)
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	registry := newExtractorRegistry()

	coordinator := services.NewConfigCoordinator(store.ConfigurationStore(), store.DocumentRegistry())
	if err := coordinator.Bootstrap(ctx, services.DefaultOwner); err != nil {
		logger.Info("skipping automatic configuration bootstrap: %v", err)
	}

	documentService, err := wireDocumentService(ctx, coordinator, registry, store, dataDir)
	if err != nil {
		logger.Info("document ingestion unavailable: %v", err)
	}

	ragService, err := coordinator.GetActivePipeline(ctx, services.DefaultOwner)
	if err != nil {
		logger.Info("no active configuration, chat and tui commands will be unavailable until one is created: %v", err)
	}

	cli.SetServices(documentService, ragService, coordinator)

	return cli.Execute()
}

// wireDocumentService builds the document ingestion pipeline from the
// owner's active configuration snapshot. It returns a nil service, not an
// error, when no snapshot is active yet, since ingestion simply isn't
// available until one is created via the config command.
func wireDocumentService(
	ctx context.Context,
	coordinator *services.ConfigCoordinator,
	registry *extract.Registry,
	store *sqlite.Store,
	dataDir string,
) (driving.DocumentService, error) {
	snap, err := activeSnapshot(ctx, coordinator)
	if err != nil {
		return nil, err
	}

	embedder, err := ai.BuildEmbeddingProvider(snap.EmbeddingProviderKind, snap.EmbeddingParams)
	if err != nil {
		return nil, fmt.Errorf("building embedding provider: %w", err)
	}

	vectors, err := ai.BuildVectorIndex(snap.VectorProviderKind, snap.VectorParams)
	if err != nil {
		return nil, fmt.Errorf("building vector index: %w", err)
	}

	processor := services.NewDocumentProcessor(registry, embedder, vectors)
	batch := services.NewBatchProcessor(processor)
	uploadDir := filepath.Join(dataDir, "uploads")

	return services.NewDocumentService(store.DocumentRegistry(), processor, batch, uploadDir), nil
}

func activeSnapshot(ctx context.Context, coordinator *services.ConfigCoordinator) (*domain.ConfigurationSnapshot, error) {
	snaps, err := coordinator.List(ctx, services.DefaultOwner)
	if err != nil {
		return nil, fmt.Errorf("listing configurations: %w", err)
	}
	for i := range snaps {
		if snaps[i].Active {
			return &snaps[i], nil
		}
	}
	return nil, &domain.NoActiveConfigurationError{Owner: services.DefaultOwner}
}

// newExtractorRegistry registers one extractor per supported document
// format, wiring the OCR fallback into the PDF extractor so scanned pages
// without embedded text still produce chunks.
func newExtractorRegistry() *extract.Registry {
	registry := extract.NewRegistry()

	ocrProcessor := ocr.New()

	registry.Register(plaintext.New())
	registry.Register(markdown.New())
	registry.Register(html.New())
	registry.Register(jsondoc.New())
	registry.Register(docx.New())
	registry.Register(pdf.New(ocrProcessor))

	return registry
}

// defaultDataDir returns ~/.sercha/data, creating it if necessary.
func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".sercha", "data")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
