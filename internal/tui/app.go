package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runoshun/taskstream/internal/session"
)

// Controller is the part of the session controller the TUI drives.
type Controller interface {
	Start(ctx context.Context, prompt string) error
	Dispose()
	Snapshot() session.Snapshot
}

// Model is the main bubbletea model for the TUI.
type Model struct {
	// Dependencies (pointers first for alignment)
	ctrl    Controller
	updates <-chan session.Snapshot
	err     error // Local error, e.g. an empty prompt

	// State
	snap          session.Snapshot
	initialPrompt string

	// Components
	keys     KeyMap
	styles   Styles
	help     help.Model
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Numeric state (smaller types last)
	mode          Mode
	width         int
	height        int
	minSessionID  int // Snapshots of earlier sessions were cancelled and are dropped
	spinning      bool
	starting      bool // A Start call has not returned yet
	cancelPending bool // Cancel was pressed while starting
}

// New creates a new TUI Model. Snapshots published by ctrl must arrive on
// updates. A non-empty prompt is submitted as soon as the program starts.
func New(ctrl Controller, updates <-chan session.Snapshot, prompt string) *Model {
	ti := textinput.New()
	ti.Placeholder = "Describe a project, e.g. a recipe sharing site"
	ti.Prompt = "› "
	ti.CharLimit = 2000
	ti.SetValue(prompt)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	styles := DefaultStyles()
	sp.Style = styles.Spinner
	ti.PromptStyle = styles.InputPrompt

	return &Model{
		ctrl:          ctrl,
		updates:       updates,
		initialPrompt: prompt,
		keys:          DefaultKeyMap(),
		styles:        styles,
		help:          help.New(),
		viewport:      viewport.New(0, 0),
		input:         ti,
		spinner:       sp,
		mode:          ModeInput,
	}
}

// Init initializes the model and returns the initial command.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.waitForSnapshot()}
	if m.initialPrompt != "" {
		cmds = append(cmds, m.startStream(m.initialPrompt))
	}
	return tea.Batch(cmds...)
}

// Snapshot returns the last snapshot the model received.
func (m *Model) Snapshot() session.Snapshot {
	return m.snap
}

// Mode returns the current UI mode.
func (m *Model) Mode() Mode {
	return m.mode
}

// waitForSnapshot blocks on the update channel and re-arms after each message.
func (m *Model) waitForSnapshot() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		if updates == nil {
			return nil
		}
		s, ok := <-updates
		if !ok {
			return MsgUpdatesClosed{}
		}
		return MsgSnapshot{Snapshot: s}
	}
}

// startStream starts a session; the result arrives as a snapshot.
func (m *Model) startStream(prompt string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		if err := ctrl.Start(context.Background(), prompt); err != nil {
			return MsgStartFailed{Err: err}
		}
		return MsgStarted{}
	}
}
