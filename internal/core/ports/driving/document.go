package driving

import (
	"context"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

// BatchResult reports how a batch ingest split between success and failure (C8).
// Processed holds every document the batch ran, failed ones included (with
// Status Error); Failed names the subset that failed.
type BatchResult struct {
	Processed []domain.Document
	Failed    []BatchFailure
}

// BatchFailure names one document that failed during a batch ingest.
type BatchFailure struct {
	Filename string
	Err      error
}

// ProgressFunc reports (current, total, filename) as a batch ingest advances.
type ProgressFunc func(current, total int, filename string)

// DocumentService is the driving port external actors (CLI, MCP, TUI) use to
// manage documents, fronting C7/C8/C11.
type DocumentService interface {
	// Upload stores file content under the uploads directory, creates a
	// Pending registry entry, and processes it synchronously via C7.
	Upload(ctx context.Context, filename string, content []byte) (*domain.Document, error)

	// UploadBatch stores and processes many files sequentially via C8,
	// reporting progress through onProgress if non-nil.
	UploadBatch(ctx context.Context, files map[string][]byte, onProgress ProgressFunc) (BatchResult, error)

	// List returns every registered document.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by id.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Delete removes the registry entry, the file on disk, and the
	// document's vectors.
	Delete(ctx context.Context, id string) error

	// Reindex re-runs C7 against the document's existing stored file.
	Reindex(ctx context.Context, id string) error

	// ClearAll clears the vector index, removes physical upload files
	// best-effort, and clears the registry.
	ClearAll(ctx context.Context) error
}
