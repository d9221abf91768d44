// Package cli implements the cobra command tree fronting the RAG engine:
// document ingestion, chat queries, configuration management, and
// connectivity tests, plus the mcp and tui entrypoints.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-cli/internal/core/ports/driving"
)

// version is set by cmd/main.go at build time via -ldflags.
var version = "dev"

// Service ports injected by cmd/main.go before Execute runs. Commands that
// depend on one check it for nil and fail with a clear error rather than
// panicking, since some commands (version, tui with a partial config) are
// usable without every port wired.
var (
	documentService driving.DocumentService
	ragService      driving.RAGService
	configService   driving.ConfigurationService
)

var rootCmd = &cobra.Command{
	Use:   "sercha",
	Short: "A retrieval-augmented generation engine for your documents",
	Long: `sercha indexes local documents and answers questions about them,
grounding every answer in the chunks it retrieves.

Upload documents, then ask questions via the chat command, the MCP
server, or the interactive TUI.`,
}

// SetServices injects the concrete driving-port implementations the
// command tree dispatches against. cmd/main.go calls this once, after
// wiring C1-C11, before Execute.
func SetServices(documents driving.DocumentService, rag driving.RAGService, config driving.ConfigurationService) {
	documentService = documents
	ragService = rag
	configService = config
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return rootCmd.Execute()
}
