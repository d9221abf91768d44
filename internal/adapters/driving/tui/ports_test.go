package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driving"
)

// MockRAGService implements driving.RAGService for testing.
type MockRAGService struct {
	QueryFunc       func(ctx context.Context, question string, history []domain.ChatMessage) (domain.RAGAnswer, error)
	QueryStreamFunc func(ctx context.Context, question string, history []domain.ChatMessage) (<-chan domain.RAGStreamFrame, error)
}

func (m *MockRAGService) Query(
	ctx context.Context, question string, history []domain.ChatMessage,
) (domain.RAGAnswer, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, question, history)
	}
	return domain.RAGAnswer{}, nil
}

func (m *MockRAGService) QueryStream(
	ctx context.Context, question string, history []domain.ChatMessage,
) (<-chan domain.RAGStreamFrame, error) {
	if m.QueryStreamFunc != nil {
		return m.QueryStreamFunc(ctx, question, history)
	}
	return nil, nil
}

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	UploadFunc      func(ctx context.Context, filename string, content []byte) (*domain.Document, error)
	UploadBatchFunc func(ctx context.Context, files map[string][]byte, onProgress driving.ProgressFunc) (driving.BatchResult, error)
	ListFunc        func(ctx context.Context) ([]domain.Document, error)
	GetFunc         func(ctx context.Context, id string) (*domain.Document, error)
	DeleteFunc      func(ctx context.Context, id string) error
	ReindexFunc     func(ctx context.Context, id string) error
	ClearAllFunc    func(ctx context.Context) error
}

func (m *MockDocumentService) Upload(
	ctx context.Context, filename string, content []byte,
) (*domain.Document, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, filename, content)
	}
	return nil, nil
}

func (m *MockDocumentService) UploadBatch(
	ctx context.Context, files map[string][]byte, onProgress driving.ProgressFunc,
) (driving.BatchResult, error) {
	if m.UploadBatchFunc != nil {
		return m.UploadBatchFunc(ctx, files, onProgress)
	}
	return driving.BatchResult{}, nil
}

func (m *MockDocumentService) List(ctx context.Context) ([]domain.Document, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockDocumentService) Reindex(ctx context.Context, id string) error {
	if m.ReindexFunc != nil {
		return m.ReindexFunc(ctx, id)
	}
	return nil
}

func (m *MockDocumentService) ClearAll(ctx context.Context) error {
	if m.ClearAllFunc != nil {
		return m.ClearAllFunc(ctx)
	}
	return nil
}

func TestNewPorts(t *testing.T) {
	rag := &MockRAGService{}
	document := &MockDocumentService{}

	ports := NewPorts(rag, document)

	require.NotNil(t, ports)
	assert.Equal(t, rag, ports.RAG)
	assert.Equal(t, document, ports.Document)
}

func TestPorts_Validate_AllSet(t *testing.T) {
	ports := &Ports{
		RAG:      &MockRAGService{},
		Document: &MockDocumentService{},
	}

	err := ports.Validate()

	assert.NoError(t, err)
}

func TestPorts_Validate_MissingRAG(t *testing.T) {
	ports := &Ports{
		RAG:      nil,
		Document: &MockDocumentService{},
	}

	err := ports.Validate()

	assert.ErrorIs(t, err, ErrMissingRAGService)
}

func TestPorts_Validate_MissingDocument(t *testing.T) {
	ports := &Ports{
		RAG:      &MockRAGService{},
		Document: nil,
	}

	err := ports.Validate()

	assert.ErrorIs(t, err, ErrMissingDocumentService)
}
