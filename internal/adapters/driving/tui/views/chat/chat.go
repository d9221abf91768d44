// Package chat provides the main chat view for the TUI.
package chat

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-cli/internal/core/domain"
	"github.com/custodia-labs/sercha-cli/internal/core/ports/driving"
)

// View represents the chat view: a question input, a streamed answer, and
// the retrieved sources backing the latest answer.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.SearchInput
	list      *list.ResultList
	statusbar *status.Bar

	ragService driving.RAGService
	ctx        context.Context

	history  []domain.ChatMessage
	answer   strings.Builder
	streamCh <-chan domain.RAGStreamFrame

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = input mode (typing), false = answer mode (reading/navigating sources)
	streaming  bool
}

// NewView creates a new chat view.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	ragService driving.RAGService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewSearchInput(s),
		list:       list.NewResultList(s),
		statusbar:  status.NewBar(s, km),
		ragService: ragService,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		ready:      false,
		focusInput: true, // Start in input mode
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ChatFrameReceived:
		return v.handleFrame(msg.Frame)

	case messages.ChatStreamClosed:
		v.streaming = false
		v.streamCh = nil
		v.statusbar.SetState(status.StateResults)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.streaming = false
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	// Forward to input component
	var inputCmd tea.Cmd
	v.input, inputCmd = v.input.Update(msg)
	if inputCmd != nil {
		cmds = append(cmds, inputCmd)
	}

	// Forward to list component
	var listCmd tea.Cmd
	v.list, listCmd = v.list.Update(msg)
	if listCmd != nil {
		cmds = append(cmds, listCmd)
	}

	return v, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	// Esc always signals to go back to menu
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	// Enter in input mode submits the question
	if msg.Type == tea.KeyEnter && v.focusInput {
		question := v.input.Value()
		if question == "" || v.streaming {
			return v, nil
		}
		v.statusbar.SetState(status.StateSearching)
		v.focusInput = false // Move to answer mode while streaming
		v.input.Blur()
		v.answer.Reset()
		v.err = nil
		return v, v.askQuestion(question)
	}

	// Input mode: all keys go to input
	if v.focusInput {
		v.input, _ = v.input.Update(msg)
		return v, nil
	}

	// Answer mode: handle navigation over the retrieved sources
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyUp:
		v.list.MoveUp()
		return v, nil
	case tea.KeyDown:
		v.list.MoveDown()
		return v, nil
	}

	switch msg.String() {
	case "k":
		v.list.MoveUp()
		return v, nil
	case "j":
		v.list.MoveDown()
		return v, nil
	case "n":
		// New question: clear input and focus it
		v.focusInput = true
		v.input.Focus()
		v.input.SetValue("")
		return v, nil
	}

	return v, nil
}

// askQuestion starts a streamed RAG query and returns a command that reads
// its first frame. The stream is opened synchronously so the channel can be
// stored before any frame is read asynchronously.
func (v *View) askQuestion(question string) tea.Cmd {
	if v.ragService == nil {
		return func() tea.Msg { return messages.ErrorOccurred{Err: ErrNoRAGService} }
	}

	frames, err := v.ragService.QueryStream(v.ctx, question, v.history)
	if err != nil {
		return func() tea.Msg { return messages.ErrorOccurred{Err: err} }
	}

	v.history = append(v.history, domain.ChatMessage{Role: domain.RoleUser, Content: question})
	v.streaming = true
	v.streamCh = frames

	return readFrame(frames)
}

// readFrame reads a single frame off the stream and wraps it in a message.
func readFrame(frames <-chan domain.RAGStreamFrame) tea.Cmd {
	return func() tea.Msg {
		frame, ok := <-frames
		if !ok {
			return messages.ChatStreamClosed{}
		}
		return messages.ChatFrameReceived{Frame: frame}
	}
}

// handleFrame applies a streamed frame to the view state and schedules the
// read of the next one.
func (v *View) handleFrame(frame domain.RAGStreamFrame) (*View, tea.Cmd) {
	//nolint:exhaustive // RAGStreamFrameKind has no other defined values
	switch frame.Kind {
	case domain.RAGFrameSources:
		v.list.SetResults(frame.Sources)
		v.statusbar.SetResultCount(len(frame.Sources))
	case domain.RAGFrameContent:
		v.answer.WriteString(frame.Content)
	case domain.RAGFrameError:
		v.err = frame.Err
		v.streaming = false
		v.streamCh = nil
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(frame.Err.Error())
		return v, nil
	case domain.RAGFrameDone:
		v.history = append(v.history, domain.ChatMessage{Role: domain.RoleAssistant, Content: v.answer.String()})
		v.streaming = false
		v.streamCh = nil
		v.statusbar.SetState(status.StateResults)
		return v, nil
	}

	if v.streamCh == nil {
		return v, nil
	}
	return v, readFrame(v.streamCh)
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)

	// Header
	header := v.styles.Title.Render("Sercha")
	sections = append(sections, header, "")

	// Question input
	inputView := v.input.View()
	sections = append(sections, inputView, "")

	// Error display
	if v.err != nil {
		errView := v.styles.Error.Render("Error: " + v.err.Error())
		sections = append(sections, errView, "")
	}

	// Answer
	if v.answer.Len() > 0 || v.streaming {
		sections = append(sections, v.renderAnswer(), "")
	}

	// Retrieved sources
	listView := v.list.View()
	sections = append(sections, listView)

	// Status bar at bottom
	sections = append(sections, "")
	statusView := v.statusbar.View()
	sections = append(sections, statusView)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderAnswer renders the current streamed answer text.
func (v *View) renderAnswer() string {
	text := v.answer.String()
	if text == "" && v.streaming {
		text = "..."
	}
	return v.styles.Normal.Render(text)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	// Allocate space to components
	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-10) // Reserve space for header, input, answer, status
	v.statusbar.SetWidth(width)
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current question text.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the current question text.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Answer returns the current answer text.
func (v *View) Answer() string {
	return v.answer.String()
}

// Sources returns the sources backing the current answer.
func (v *View) Sources() []domain.SearchHit {
	return v.list.Results()
}

// SelectedIndex returns the index of the selected source.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// SelectedSource returns the currently selected source.
func (v *View) SelectedSource() *domain.SearchHit {
	return v.list.SelectedResult()
}

// History returns the conversation history accumulated so far.
func (v *View) History() []domain.ChatMessage {
	return v.history
}

// Streaming returns whether a query is currently in flight.
func (v *View) Streaming() bool {
	return v.streaming
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// ClearError clears the current error.
func (v *View) ClearError() {
	v.err = nil
	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetMessage("")
}

// Reset resets the view to initial input mode, clearing history.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.answer.Reset()
	v.history = nil
	v.streaming = false
	v.streamCh = nil
	v.err = nil
	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetMessage("")
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
