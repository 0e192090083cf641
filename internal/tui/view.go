package tui

import (
	"fmt"
	"strings"

	"github.com/runoshun/taskstream/internal/domain"
)

// View renders the TUI.
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if m.mode == ModeHelp {
		return m.styles.App.Render(m.viewHelp())
	}

	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n\n")
	b.WriteString(m.viewFooter())
	return m.styles.App.Render(b.String())
}

// viewHeader renders the title, the prompt input and the status line.
func (m *Model) viewHeader() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render("taskstream"))
	b.WriteString(m.styles.HeaderText.Render("  break a project idea into tasks"))
	b.WriteString("\n")

	inputStyle := m.styles.Input
	if m.mode == ModeInput {
		inputStyle = m.styles.InputFocus
	}
	b.WriteString(inputStyle.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.viewStatus())

	if msg := m.errorText(); msg != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.ErrorMsg.Render("Error: " + msg))
	}
	return b.String()
}

// viewStatus renders the progress line.
func (m *Model) viewStatus() string {
	n := len(m.snap.Tasks)
	switch {
	case m.snap.InProgress:
		return m.spinner.View() + m.styles.StatusLine.Render(fmt.Sprintf(" Generating tasks... %s", plural(n)))
	case m.snap.State == domain.SessionTerminated && m.snap.Failed:
		return m.styles.StatusLine.Render(fmt.Sprintf("Stopped with an error after %s", plural(n)))
	case m.snap.State == domain.SessionTerminated && n > 0:
		return m.styles.Success.Render("✓") + m.styles.StatusLine.Render(" "+plural(n))
	case m.snap.State == domain.SessionTerminated:
		return m.styles.StatusLine.Render("No tasks")
	default:
		return m.styles.StatusLine.Render("Enter a prompt to generate tasks")
	}
}

func (m *Model) errorText() string {
	if m.err != nil {
		return m.err.Error()
	}
	if m.snap.Failed {
		if m.snap.Err == "" {
			return "the task stream reported an error"
		}
		return m.snap.Err
	}
	return ""
}

// viewFooter renders the short help.
func (m *Model) viewFooter() string {
	return m.help.View(m.keys)
}

// viewHelp renders the full help overlay.
func (m *Model) viewHelp() string {
	h := m.help
	h.ShowAll = true
	return m.styles.Help.Render(h.View(m.keys))
}

func (m *Model) viewEmpty() string {
	if m.snap.InProgress {
		return m.styles.Empty.Render("Waiting for the first task...")
	}
	return ""
}

func plural(n int) string {
	if n == 1 {
		return "1 task"
	}
	return fmt.Sprintf("%d tasks", n)
}
