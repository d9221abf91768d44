// Package tui provides an interactive terminal user interface for sercha.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// RAG answers chat questions against the indexed documents.
	RAG driving.RAGService

	// Document manages uploaded documents.
	Document driving.DocumentService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(rag driving.RAGService, document driving.DocumentService) *Ports {
	return &Ports{
		RAG:      rag,
		Document: document,
	}
}

// Validate ensures all required ports are set.
// Returns an error if any port is nil.
func (p *Ports) Validate() error {
	if p.RAG == nil {
		return ErrMissingRAGService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}
