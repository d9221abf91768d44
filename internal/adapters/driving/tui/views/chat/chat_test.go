package chat

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-cli/internal/core/domain"
)

// MockRAGService implements driving.RAGService for testing.
type MockRAGService struct {
	QueryFunc       func(ctx context.Context, question string, history []domain.ChatMessage) (domain.RAGAnswer, error)
	QueryStreamFunc func(ctx context.Context, question string, history []domain.ChatMessage) (<-chan domain.RAGStreamFrame, error)
}

func (m *MockRAGService) Query(
	ctx context.Context,
	question string,
	history []domain.ChatMessage,
) (domain.RAGAnswer, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, question, history)
	}
	return domain.RAGAnswer{}, nil
}

func (m *MockRAGService) QueryStream(
	ctx context.Context,
	question string,
	history []domain.ChatMessage,
) (<-chan domain.RAGStreamFrame, error) {
	if m.QueryStreamFunc != nil {
		return m.QueryStreamFunc(ctx, question, history)
	}
	ch := make(chan domain.RAGStreamFrame)
	close(ch)
	return ch, nil
}

func testSources() []domain.SearchHit {
	return []domain.SearchHit{
		{ID: "doc-1_chunk_0", Content: "first chunk", Score: 0.95},
		{ID: "doc-2_chunk_0", Content: "second chunk", Score: 0.85},
	}
}

func TestNewView(t *testing.T) {
	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	mock := &MockRAGService{}

	view := NewView(s, km, mock)

	require.NotNil(t, view)
	assert.False(t, view.Ready())
	assert.Equal(t, "", view.Query())
	assert.True(t, view.InputFocused())
}

func TestNewView_NilStyles(t *testing.T) {
	view := NewView(nil, nil, nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.NotNil(t, view.keymap)
}

func TestView_WithContext(t *testing.T) {
	view := NewView(nil, nil, nil)
	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	result := view.WithContext(ctx)

	assert.Equal(t, view, result)
	assert.Equal(t, ctx, view.ctx)
}

func TestView_Init(t *testing.T) {
	view := NewView(nil, nil, nil)

	cmd := view.Init()

	// Blink command from input
	assert.NotNil(t, cmd)
}

func TestView_Update_WindowSize(t *testing.T) {
	view := NewView(nil, nil, nil)

	msg := tea.WindowSizeMsg{Width: 100, Height: 40}
	updated, cmd := view.Update(msg)

	assert.Equal(t, view, updated)
	assert.Nil(t, cmd)
	assert.True(t, view.ready)
	assert.Equal(t, 100, view.width)
	assert.Equal(t, 40, view.height)
}

func TestView_Update_KeyMsg_Esc(t *testing.T) {
	view := NewView(nil, nil, nil)

	msg := tea.KeyMsg{Type: tea.KeyEsc}
	_, cmd := view.Update(msg)

	require.NotNil(t, cmd)
	result := cmd()
	changed, ok := result.(messages.ViewChanged)
	require.True(t, ok)
	assert.Equal(t, messages.ViewMenu, changed.View)
}

func TestView_Update_KeyMsg_EnterEmptyQuery(t *testing.T) {
	view := NewView(nil, nil, &MockRAGService{})

	msg := tea.KeyMsg{Type: tea.KeyEnter}
	_, cmd := view.Update(msg)

	assert.Nil(t, cmd)
	assert.True(t, view.InputFocused())
}

func TestView_Update_KeyMsg_EnterSubmitsQuestion(t *testing.T) {
	mock := &MockRAGService{
		QueryStreamFunc: func(_ context.Context, _ string, _ []domain.ChatMessage) (<-chan domain.RAGStreamFrame, error) {
			ch := make(chan domain.RAGStreamFrame, 1)
			ch <- domain.RAGStreamFrame{Kind: domain.RAGFrameSources, Sources: testSources()}
			close(ch)
			return ch, nil
		},
	}
	view := NewView(nil, nil, mock)
	view.SetQuery("what is this project?")

	msg := tea.KeyMsg{Type: tea.KeyEnter}
	updated, cmd := view.Update(msg)

	require.NotNil(t, cmd)
	assert.False(t, updated.InputFocused())
	assert.True(t, updated.streaming)
	require.Len(t, updated.history, 1)
	assert.Equal(t, domain.RoleUser, updated.history[0].Role)
	assert.Equal(t, "what is this project?", updated.history[0].Content)

	// Draining the returned command should yield the first streamed frame.
	result := cmd()
	frameMsg, ok := result.(messages.ChatFrameReceived)
	require.True(t, ok)
	assert.Equal(t, domain.RAGFrameSources, frameMsg.Frame.Kind)
}

func TestView_Update_KeyMsg_EnterWhileStreamingIgnored(t *testing.T) {
	view := NewView(nil, nil, &MockRAGService{})
	view.streaming = true
	view.SetQuery("another question")

	msg := tea.KeyMsg{Type: tea.KeyEnter}
	_, cmd := view.Update(msg)

	assert.Nil(t, cmd)
}

func TestView_AskQuestion_NoService(t *testing.T) {
	view := NewView(nil, nil, nil)
	view.SetQuery("question")

	msg := tea.KeyMsg{Type: tea.KeyEnter}
	_, cmd := view.Update(msg)

	require.NotNil(t, cmd)
	result := cmd()
	errMsg, ok := result.(messages.ErrorOccurred)
	require.True(t, ok)
	assert.ErrorIs(t, errMsg.Err, ErrNoRAGService)
}

func TestView_AskQuestion_StreamError(t *testing.T) {
	wantErr := errors.New("stream failed")
	mock := &MockRAGService{
		QueryStreamFunc: func(_ context.Context, _ string, _ []domain.ChatMessage) (<-chan domain.RAGStreamFrame, error) {
			return nil, wantErr
		},
	}
	view := NewView(nil, nil, mock)
	view.SetQuery("question")

	msg := tea.KeyMsg{Type: tea.KeyEnter}
	_, cmd := view.Update(msg)

	require.NotNil(t, cmd)
	result := cmd()
	errMsg, ok := result.(messages.ErrorOccurred)
	require.True(t, ok)
	assert.Equal(t, wantErr, errMsg.Err)
}

func TestView_HandleFrame_Sources(t *testing.T) {
	view := NewView(nil, nil, nil)
	view.streaming = true
	ch := make(chan domain.RAGStreamFrame)
	view.streamCh = ch

	frame := domain.RAGStreamFrame{Kind: domain.RAGFrameSources, Sources: testSources()}
	updated, cmd := view.handleFrame(frame)

	assert.Len(t, updated.Sources(), 2)
	assert.NotNil(t, cmd)
}

func TestView_HandleFrame_Content(t *testing.T) {
	view := NewView(nil, nil, nil)
	view.streamCh = make(chan domain.RAGStreamFrame)

	_, _ = view.handleFrame(domain.RAGStreamFrame{Kind: domain.RAGFrameContent, Content: "Hello, "})
	_, _ = view.handleFrame(domain.RAGStreamFrame{Kind: domain.RAGFrameContent, Content: "world."})

	assert.Equal(t, "Hello, world.", view.Answer())
}

func TestView_HandleFrame_Done(t *testing.T) {
	view := NewView(nil, nil, nil)
	view.streaming = true
	view.streamCh = make(chan domain.RAGStreamFrame)
	view.answer.WriteString("the answer")

	updated, cmd := view.handleFrame(domain.RAGStreamFrame{Kind: domain.RAGFrameDone})

	assert.Nil(t, cmd)
	assert.False(t, updated.streaming)
	assert.Nil(t, updated.streamCh)
	require.Len(t, updated.history, 1)
	assert.Equal(t, domain.RoleAssistant, updated.history[0].Role)
	assert.Equal(t, "the answer", updated.history[0].Content)
}

func TestView_HandleFrame_Error(t *testing.T) {
	view := NewView(nil, nil, nil)
	view.streaming = true
	view.streamCh = make(chan domain.RAGStreamFrame)
	wantErr := errors.New("generation failed")

	updated, cmd := view.handleFrame(domain.RAGStreamFrame{Kind: domain.RAGFrameError, Err: wantErr})

	assert.Nil(t, cmd)
	assert.False(t, updated.streaming)
	assert.Equal(t, wantErr, updated.Err())
}

func TestView_Update_ChatStreamClosed(t *testing.T) {
	view := NewView(nil, nil, nil)
	view.streaming = true
	view.streamCh = make(chan domain.RAGStreamFrame)

	updated, cmd := view.Update(messages.ChatStreamClosed{})

	assert.Nil(t, cmd)
	assert.False(t, updated.streaming)
	assert.Nil(t, updated.streamCh)
}

func TestView_Update_ErrorOccurred(t *testing.T) {
	view := NewView(nil, nil, nil)
	view.streaming = true

	msg := messages.ErrorOccurred{Err: errors.New("boom")}
	updated, _ := view.Update(msg)

	assert.Error(t, updated.Err())
	assert.False(t, updated.streaming)
}

func TestView_Update_KeyMsg_Navigation(t *testing.T) {
	view := NewView(nil, nil, nil)
	view.focusInput = false
	view.list.SetResults(testSources())

	msg := tea.KeyMsg{Type: tea.KeyDown}
	view.Update(msg)
	assert.Equal(t, 1, view.SelectedIndex())

	msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}
	view.Update(msg)
	assert.Equal(t, 0, view.SelectedIndex())
}

func TestView_Update_KeyMsg_NewQuestion(t *testing.T) {
	view := NewView(nil, nil, nil)
	view.focusInput = false
	view.input.Blur()

	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}}
	view.Update(msg)

	assert.True(t, view.InputFocused())
	assert.Equal(t, "", view.Query())
}

func TestView_View_NotReady(t *testing.T) {
	view := NewView(nil, nil, nil)

	output := view.View()

	assert.Contains(t, output, "Initialising")
}

func TestView_View_Ready(t *testing.T) {
	view := NewView(styles.DefaultStyles(), nil, nil)
	view.SetDimensions(80, 24)

	output := view.View()

	assert.Contains(t, output, "Sercha")
}

func TestView_View_WithAnswerAndSources(t *testing.T) {
	view := NewView(styles.DefaultStyles(), nil, nil)
	view.SetDimensions(80, 24)
	view.answer.WriteString("This is the answer.")
	view.list.SetResults(testSources())

	output := view.View()

	assert.Contains(t, output, "This is the answer.")
	assert.Contains(t, output, "doc-1_chunk_0")
}

func TestView_View_Streaming(t *testing.T) {
	view := NewView(styles.DefaultStyles(), nil, nil)
	view.SetDimensions(80, 24)
	view.streaming = true

	output := view.View()

	assert.Contains(t, output, "...")
}

func TestView_View_Error(t *testing.T) {
	view := NewView(styles.DefaultStyles(), nil, nil)
	view.SetDimensions(80, 24)
	view.err = errors.New("query failed")

	output := view.View()

	assert.Contains(t, output, "Error")
}

func TestView_SetDimensions(t *testing.T) {
	view := NewView(nil, nil, nil)

	view.SetDimensions(120, 50)

	assert.Equal(t, 120, view.Width())
	assert.Equal(t, 50, view.Height())
	assert.True(t, view.Ready())
}

func TestView_Reset(t *testing.T) {
	view := NewView(nil, nil, nil)
	view.SetQuery("leftover")
	view.focusInput = false
	view.list.SetResults(testSources())
	view.answer.WriteString("stale answer")
	view.history = []domain.ChatMessage{{Role: domain.RoleUser, Content: "old"}}
	view.err = errors.New("stale error")

	view.Reset()

	assert.Equal(t, "", view.Query())
	assert.True(t, view.InputFocused())
	assert.Empty(t, view.Sources())
	assert.Equal(t, "", view.Answer())
	assert.Empty(t, view.History())
	assert.NoError(t, view.Err())
}

func TestView_SelectedSource(t *testing.T) {
	view := NewView(nil, nil, nil)
	view.list.SetResults(testSources())

	selected := view.SelectedSource()

	require.NotNil(t, selected)
	assert.Equal(t, "doc-1_chunk_0", selected.ID)
}

func TestView_ClearError(t *testing.T) {
	view := NewView(nil, nil, nil)
	view.err = errors.New("boom")

	view.ClearError()

	assert.NoError(t, view.Err())
}
