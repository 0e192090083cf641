package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/runoshun/taskstream/internal/domain"
)

// Colors defines the color palette for the TUI.
var Colors = struct {
	// Base colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	Error     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color

	// Title/text colors
	TitleNormal lipgloss.Color
	DescNormal  lipgloss.Color

	// Status colors
	Streaming lipgloss.Color
	Completed lipgloss.Color

	// Tags
	TagText       lipgloss.Color
	TagBackground lipgloss.Color
}{
	Primary:   lipgloss.Color("#6C5CE7"), // Purple
	Secondary: lipgloss.Color("#A29BFE"), // Lavender
	Muted:     lipgloss.Color("#636E72"), // Gray
	Error:     lipgloss.Color("#D63031"), // Red
	Success:   lipgloss.Color("#00B894"), // Green
	Warning:   lipgloss.Color("#FDCB6E"), // Yellow

	TitleNormal: lipgloss.Color("#DFE6E9"), // Light gray
	DescNormal:  lipgloss.Color("#B2BEC3"), // Light gray

	Streaming: lipgloss.Color("#FDCB6E"), // Yellow
	Completed: lipgloss.Color("#00B894"), // Green

	TagText:       lipgloss.Color("#DFE6E9"),
	TagBackground: lipgloss.Color("#2D3436"),
}

// Styles contains all the lipgloss styles for the TUI.
type Styles struct {
	// App
	App lipgloss.Style

	// Header
	Header     lipgloss.Style
	HeaderText lipgloss.Style

	// Input
	Input       lipgloss.Style
	InputFocus  lipgloss.Style
	InputPrompt lipgloss.Style

	// Task cards
	CardStreaming   lipgloss.Style
	CardCompleted   lipgloss.Style
	CardTitle       lipgloss.Style
	CardPlaceholder lipgloss.Style
	CardDesc        lipgloss.Style
	Tag             lipgloss.Style
	StatusStreaming lipgloss.Style
	StatusCompleted lipgloss.Style
	Caret           lipgloss.Style // Typing caret after a streaming description

	// Status line
	StatusLine lipgloss.Style
	Spinner    lipgloss.Style
	Success    lipgloss.Style

	// Help
	Help lipgloss.Style

	// Error
	ErrorMsg lipgloss.Style

	// Empty state
	Empty lipgloss.Style
}

// DefaultStyles returns the default styles for the TUI.
func DefaultStyles() Styles {
	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Primary),

		HeaderText: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		Input: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Muted),

		InputFocus: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Primary),

		InputPrompt: lipgloss.NewStyle().
			Foreground(Colors.Primary).
			Bold(true),

		CardStreaming: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Streaming),

		CardCompleted: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Muted),

		CardTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.TitleNormal),

		CardPlaceholder: lipgloss.NewStyle().
			Italic(true).
			Foreground(Colors.Muted),

		CardDesc: lipgloss.NewStyle().
			Foreground(Colors.DescNormal),

		Tag: lipgloss.NewStyle().
			Foreground(Colors.TagText).
			Background(Colors.TagBackground).
			Padding(0, 1),

		StatusStreaming: lipgloss.NewStyle().
			Foreground(Colors.Streaming),

		StatusCompleted: lipgloss.NewStyle().
			Foreground(Colors.Completed),

		Caret: lipgloss.NewStyle().
			Foreground(Colors.Streaming),

		StatusLine: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		Spinner: lipgloss.NewStyle().
			Foreground(Colors.Secondary),

		Success: lipgloss.NewStyle().
			Foreground(Colors.Success),

		Help: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Colors.Muted),

		ErrorMsg: lipgloss.NewStyle().
			Foreground(Colors.Error).
			Bold(true),

		Empty: lipgloss.NewStyle().
			Foreground(Colors.Muted).
			Italic(true),
	}
}

// StatusStyle returns the style for a given status.
func (s Styles) StatusStyle(status domain.Status) lipgloss.Style {
	switch status {
	case domain.StatusStreaming:
		return s.StatusStreaming
	case domain.StatusCompleted:
		return s.StatusCompleted
	default:
		return s.StatusStreaming
	}
}

// CardStyle returns the card frame for a given status.
func (s Styles) CardStyle(status domain.Status) lipgloss.Style {
	if status == domain.StatusCompleted {
		return s.CardCompleted
	}
	return s.CardStreaming
}

// StatusIcon returns an icon for a given status.
func StatusIcon(status domain.Status) string {
	switch status {
	case domain.StatusStreaming:
		return "●"
	case domain.StatusCompleted:
		return "✓"
	default:
		return "?"
	}
}
