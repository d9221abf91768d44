package chat

import "errors"

// ErrNoRAGService is returned when a question is asked but no RAG service is configured.
var ErrNoRAGService = errors.New("rag service is required")
