package domain

import "time"

// DocumentStatus tracks a document through the ingestion pipeline.
type DocumentStatus string

// Document lifecycle states.
const (
	// DocumentPending is set on upload, before C7 has started processing.
	DocumentPending DocumentStatus = "pending"

	// DocumentProcessing is set while C7 is extracting, chunking, embedding, and indexing.
	DocumentProcessing DocumentStatus = "processing"

	// DocumentIndexed is set once all chunks are durably stored in the vector index.
	DocumentIndexed DocumentStatus = "indexed"

	// DocumentError is set when any pipeline stage fails without a usable fallback.
	DocumentError DocumentStatus = "error"
)

// IsValid reports whether s is a recognised status.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentPending, DocumentProcessing, DocumentIndexed, DocumentError:
		return true
	default:
		return false
	}
}

// ChunkSummary is the lightweight per-chunk bookkeeping kept on a Document,
// independent of the embedding vector itself (which lives only in the vector index).
type ChunkSummary struct {
	// ID is the chunk identifier, "<documentId>_chunk_<index>".
	ID string

	// Content is the chunk's text.
	Content string

	// StartChar and EndChar are the half-open offsets into the document's extracted text.
	StartChar int
	EndChar   int
}

// Document represents an uploaded file and its processing lifecycle (C11).
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Filename is the original uploaded filename.
	Filename string

	// Extension is the lowercase file extension without the leading dot, e.g. "pdf".
	Extension string

	// SizeBytes is the size of the stored file on disk.
	SizeBytes int64

	// StoragePath is where the original file is kept on disk.
	StoragePath string

	// Status is the current lifecycle state.
	Status DocumentStatus

	// Chunks summarizes the chunks produced for this document, in order.
	// Populated once Status reaches Indexed; empty while Pending/Processing.
	Chunks []ChunkSummary

	// Language is the primary detected language tag of the extracted text.
	Language string

	// ErrorMessage carries the underlying failure when Status is Error.
	ErrorMessage string

	// UploadedAt is when the document was first received.
	UploadedAt time.Time

	// ProcessedAt is when processing last completed (success or failure); nil until then.
	ProcessedAt *time.Time
}

// ChunkIDs returns the ids of every chunk summarized on this document, in order.
func (d Document) ChunkIDs() []string {
	ids := make([]string, len(d.Chunks))
	for i, c := range d.Chunks {
		ids[i] = c.ID
	}
	return ids
}
