package domain

// Chunk is a contiguous, natural-boundary-aligned segment of extracted text,
// as produced by C3 (the Chunker) before it has been embedded.
type Chunk struct {
	// Content is the chunk's trimmed text.
	Content string

	// StartChar and EndChar are half-open offsets into the source text.
	StartChar int
	EndChar   int

	// Language is the chunk's own detected language, which may differ from
	// the parent document's primary language.
	Language string
}

// ProcessedChunk is a Chunk that has been embedded and is ready for the vector index (C7 output).
type ProcessedChunk struct {
	// ID is "<documentId>_chunk_<index>".
	ID string

	// Content is the chunk's text, copied verbatim into the vector record.
	Content string

	// Embedding is the dense vector produced by the active embedding provider.
	Embedding []float32

	// Metadata carries documentId, filename, chunkIndex, startChar, endChar,
	// and any extra fields requested via DocumentProcessOptions.ExtractMetadata.
	Metadata map[string]any
}
