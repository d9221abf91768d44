package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driving"
)

// mockRAGService is a mock implementation of driving.RAGService.
type mockRAGService struct {
	answer domain.RAGAnswer
	err    error
}

func (m *mockRAGService) Query(_ context.Context, _ string, _ []domain.ChatMessage) (domain.RAGAnswer, error) {
	return m.answer, m.err
}

func (m *mockRAGService) QueryStream(_ context.Context, _ string, _ []domain.ChatMessage) (<-chan domain.RAGStreamFrame, error) {
	return nil, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	batch     driving.BatchResult
	err       error
}

func (m *mockDocumentService) Upload(_ context.Context, _ string, _ []byte) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) UploadBatch(_ context.Context, _ map[string][]byte, _ driving.ProgressFunc) (driving.BatchResult, error) {
	return m.batch, m.err
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) Reindex(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) ClearAll(_ context.Context) error {
	return m.err
}
