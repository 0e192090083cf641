package tui

import "github.com/runoshun/taskstream/internal/session"

// Msg is the sealed interface for all TUI messages.
// All message types must implement the sealed() method.
//
// go-sumtype:decl Msg
type Msg interface {
	sealed()
}

// MsgSnapshot carries the controller state after a change.
type MsgSnapshot struct {
	Snapshot session.Snapshot
}

func (MsgSnapshot) sealed() {}

// MsgStarted is sent when the controller accepted a prompt.
type MsgStarted struct{}

func (MsgStarted) sealed() {}

// MsgStartFailed is sent when a stream could not be started.
type MsgStartFailed struct {
	Err error
}

func (MsgStartFailed) sealed() {}

// MsgUpdatesClosed is sent when the snapshot channel is closed.
type MsgUpdatesClosed struct{}

func (MsgUpdatesClosed) sealed() {}
