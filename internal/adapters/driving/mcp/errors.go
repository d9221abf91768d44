// Package mcp provides an MCP (Model Context Protocol) server adapter for
// the RAG engine, letting AI assistants like Claude query the indexed
// corpus and browse the document registry directly.
package mcp

import "errors"

// ErrMissingRAGService is returned when the RAG service is not provided.
var ErrMissingRAGService = errors.New("mcp: rag service is required")
