package mcp

import (
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// RAG answers questions grounded in the indexed corpus.
	RAG driving.RAGService

	// Document manages the registry of indexed documents.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.RAG == nil {
		return ErrMissingRAGService
	}
	// Document is optional: a server with no registry still answers queries.
	return nil
}
