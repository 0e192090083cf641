// Package tui provides the terminal user interface for taskstream.
package tui

// Mode represents the current UI mode.
type Mode int

const (
	ModeInput  Mode = iota // Prompt input has focus
	ModeBrowse             // Task cards have focus (scrolling)
	ModeHelp               // Help overlay
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeInput:
		return "input"
	case ModeBrowse:
		return "browse"
	case ModeHelp:
		return "help"
	default:
		return "unknown"
	}
}

// IsInputMode returns true if the mode accepts text input.
func (m Mode) IsInputMode() bool {
	return m == ModeInput
}
