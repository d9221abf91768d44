package cli

import (
	"context"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driving"
)

// fakeDocumentService is a minimal in-memory driving.DocumentService stand-in
// for CLI command tests.
type fakeDocumentService struct {
	uploaded  *domain.Document
	uploadErr error

	batchResult driving.BatchResult
	batchErr    error

	documents []domain.Document
	listErr   error

	document *domain.Document
	getErr   error

	deleteErr error

	reindexErr error

	clearAllErr error
}

func (f *fakeDocumentService) Upload(_ context.Context, _ string, _ []byte) (*domain.Document, error) {
	return f.uploaded, f.uploadErr
}

func (f *fakeDocumentService) UploadBatch(_ context.Context, _ map[string][]byte, onProgress driving.ProgressFunc) (driving.BatchResult, error) {
	if onProgress != nil {
		onProgress(1, 1, "fake")
	}
	return f.batchResult, f.batchErr
}

func (f *fakeDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return f.documents, f.listErr
}

func (f *fakeDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return f.document, f.getErr
}

func (f *fakeDocumentService) Delete(_ context.Context, _ string) error {
	return f.deleteErr
}

func (f *fakeDocumentService) Reindex(_ context.Context, _ string) error {
	return f.reindexErr
}

func (f *fakeDocumentService) ClearAll(_ context.Context) error {
	return f.clearAllErr
}

var _ driving.DocumentService = (*fakeDocumentService)(nil)

// fakeRAGService is a minimal in-memory driving.RAGService stand-in for CLI
// command tests.
type fakeRAGService struct {
	answer    domain.RAGAnswer
	answerErr error

	frames  []domain.RAGStreamFrame
	streamErr error
}

func (f *fakeRAGService) Query(_ context.Context, _ string, _ []domain.ChatMessage) (domain.RAGAnswer, error) {
	return f.answer, f.answerErr
}

func (f *fakeRAGService) QueryStream(_ context.Context, _ string, _ []domain.ChatMessage) (<-chan domain.RAGStreamFrame, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	ch := make(chan domain.RAGStreamFrame, len(f.frames))
	for _, frame := range f.frames {
		ch <- frame
	}
	close(ch)
	return ch, nil
}

var _ driving.RAGService = (*fakeRAGService)(nil)

// fakeConfigService is a minimal in-memory driving.ConfigurationService
// stand-in for CLI command tests.
type fakeConfigService struct {
	createErr error

	updateErr error

	activateErr error

	snapshots []domain.ConfigurationSnapshot
	listErr   error

	snapshot *domain.ConfigurationSnapshot
	getErr   error

	deleteErr error

	status    domain.SystemStatus
	statusErr error
}

func (f *fakeConfigService) Create(_ context.Context, _ *domain.ConfigurationSnapshot) error {
	return f.createErr
}

func (f *fakeConfigService) Update(_ context.Context, _ string, _ domain.ConfigurationPatch) error {
	return f.updateErr
}

func (f *fakeConfigService) Activate(_ context.Context, _, _ string) error {
	return f.activateErr
}

func (f *fakeConfigService) Get(_ context.Context, _ string) (*domain.ConfigurationSnapshot, error) {
	return f.snapshot, f.getErr
}

func (f *fakeConfigService) List(_ context.Context, _ string) ([]domain.ConfigurationSnapshot, error) {
	return f.snapshots, f.listErr
}

func (f *fakeConfigService) Delete(_ context.Context, _ string) error {
	return f.deleteErr
}

func (f *fakeConfigService) GetActivePipeline(_ context.Context, _ string) (driving.RAGService, error) {
	return nil, nil
}

func (f *fakeConfigService) SystemStatus(_ context.Context, _ string) (domain.SystemStatus, error) {
	return f.status, f.statusErr
}

var _ driving.ConfigurationService = (*fakeConfigService)(nil)

// setupTestServices swaps the package-level service globals with fresh fakes
// and returns them alongside a cleanup func that restores the prior globals.
// Tests call this, mutate the returned fakes' fields to script behavior, run
// the command under test, then defer the cleanup.
func setupTestServices() (docs *fakeDocumentService, rag *fakeRAGService, cfg *fakeConfigService, cleanup func()) {
	prevDocs, prevRAG, prevCfg := documentService, ragService, configService

	docs = &fakeDocumentService{}
	rag = &fakeRAGService{}
	cfg = &fakeConfigService{}
	documentService, ragService, configService = docs, rag, cfg

	return docs, rag, cfg, func() {
		documentService, ragService, configService = prevDocs, prevRAG, prevCfg
	}
}
