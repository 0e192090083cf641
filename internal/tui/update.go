package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/runoshun/taskstream/internal/domain"
)

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-12, 10)
		m.refreshCards(false)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.snap.InProgress {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateInput(msg)
}

// handleMsg handles the sealed TUI messages.
func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MsgSnapshot:
		if msg.Snapshot.SessionID < m.minSessionID {
			return m, m.waitForSnapshot()
		}
		prev := m.snap
		m.snap = msg.Snapshot
		if msg.Snapshot.SessionID != prev.SessionID {
			m.err = nil
		}
		follow := m.viewport.AtBottom() || msg.Snapshot.SessionID != prev.SessionID
		m.refreshCards(follow)

		cmds := []tea.Cmd{m.waitForSnapshot()}
		if m.snap.InProgress && !m.spinning {
			m.spinning = true
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case MsgStarted:
		m.starting = false
		if m.cancelPending {
			m.cancelPending = false
			m.dispose(m.ctrl.Snapshot().SessionID)
		}
		return m, nil

	case MsgStartFailed:
		m.starting = false
		m.cancelPending = false
		m.err = msg.Err
		m.refreshCards(false)
		return m, nil

	case MsgUpdatesClosed:
		return m, nil
	}
	return m, nil
}

// handleKey handles key presses for the current mode.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, m.quit()
	}

	switch m.mode {
	case ModeHelp:
		m.mode = ModeBrowse
		return m, nil

	case ModeInput:
		switch {
		case key.Matches(msg, m.keys.Submit):
			return m, m.submit()
		case key.Matches(msg, m.keys.Cancel):
			m.cancel()
			return m, nil
		case key.Matches(msg, m.keys.Focus):
			m.mode = ModeBrowse
			m.input.Blur()
			return m, nil
		}
		return m.updateInput(msg)

	case ModeBrowse:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, m.quit()
		case key.Matches(msg, m.keys.Cancel):
			m.cancel()
			return m, nil
		case key.Matches(msg, m.keys.Focus):
			m.mode = ModeInput
			return m, m.input.Focus()
		case key.Matches(msg, m.keys.Help):
			m.mode = ModeHelp
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.viewport.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.viewport.ScrollDown(1)
		case key.Matches(msg, m.keys.PageUp):
			m.viewport.PageUp()
		case key.Matches(msg, m.keys.PageDown):
			m.viewport.PageDown()
		case key.Matches(msg, m.keys.Top):
			m.viewport.GotoTop()
		case key.Matches(msg, m.keys.Bottom):
			m.viewport.GotoBottom()
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.mode.IsInputMode() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit starts a stream for the typed prompt.
func (m *Model) submit() tea.Cmd {
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" {
		m.err = domain.ErrEmptyPrompt
		m.refreshCards(false)
		return nil
	}
	m.err = nil
	m.starting = true
	m.cancelPending = false
	return m.startStream(prompt)
}

// cancel stops a running stream. The collection received so far stays on
// screen. A start still in flight is disposed as soon as it returns.
func (m *Model) cancel() {
	if m.starting {
		m.cancelPending = true
	}
	if !m.snap.InProgress {
		return
	}
	m.dispose(m.snap.SessionID)
}

// dispose ends the session and drops its snapshots still queued on the
// update channel.
func (m *Model) dispose(sessionID int) {
	m.ctrl.Dispose()
	m.minSessionID = max(m.minSessionID, sessionID+1)
	if m.snap.SessionID != sessionID {
		return
	}
	m.snap.InProgress = false
	m.snap.State = domain.SessionTerminated
	m.spinning = false
	m.refreshCards(false)
}

func (m *Model) quit() tea.Cmd {
	m.ctrl.Dispose()
	return tea.Quit
}

// refreshCards re-renders the task cards into the viewport and resizes it to
// the space left by the header and footer.
func (m *Model) refreshCards(follow bool) {
	if m.width == 0 {
		return
	}
	contentWidth := m.width - m.styles.App.GetHorizontalFrameSize()
	chrome := lipgloss.Height(m.viewHeader()) + lipgloss.Height(m.viewFooter()) + 2
	m.viewport.Width = contentWidth
	m.viewport.Height = max(m.height-m.styles.App.GetVerticalFrameSize()-chrome, 3)

	if len(m.snap.Tasks) == 0 {
		m.viewport.SetContent(m.viewEmpty())
		return
	}
	m.viewport.SetContent(renderCards(m.snap.Tasks, contentWidth, m.styles))
	if follow {
		m.viewport.GotoBottom()
	}
}
