// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

// QueryChanged is sent when the chat input changes.
type QueryChanged struct {
	Query string
}

// ChatRequested is a command to submit a question against conversation history.
type ChatRequested struct {
	Question string
	History  []domain.ChatMessage
}

// ChatCompleted carries the outcome of a unary RAG query back to the model.
type ChatCompleted struct {
	Answer domain.RAGAnswer
	Err    error
}

// ChatFrameReceived delivers one frame of a streamed RAG query.
type ChatFrameReceived struct {
	Frame domain.RAGStreamFrame
}

// ChatStreamClosed signals a streamed RAG query's channel closed.
type ChatStreamClosed struct{}

// ResultSelected is sent when a retrieved source is selected.
type ResultSelected struct {
	Index int
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the question input and answer view.
	ViewChat
	// ViewHelp is the help/keybindings view.
	ViewHelp
	// ViewDocuments lists registered documents.
	ViewDocuments
	// ViewDocDetails shows document metadata and chunk summaries.
	ViewDocDetails
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewHelp:
		return "help"
	case ViewDocuments:
		return "documents"
	case ViewDocDetails:
		return "doc_details"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the list of registered documents.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentSelected signals a document was selected.
type DocumentSelected struct {
	Document domain.Document
}

// DocumentDeleted signals a document was deleted.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}

// DocumentReindexed signals a document reindex completed.
type DocumentReindexed struct {
	DocumentID string
	Err        error
}

// DocumentsCleared signals the registry and vector index were cleared.
type DocumentsCleared struct {
	Err error
}
