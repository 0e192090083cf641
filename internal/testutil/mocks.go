// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/runoshun/taskstream/internal/domain"
)

// Ensure mocks implement their ports.
var (
	_ domain.Transport    = (*ScriptedTransport)(nil)
	_ domain.StreamHandle = (*MockStreamHandle)(nil)
	_ domain.Logger       = (*MockLogger)(nil)
)

// ScriptedTransport is a test double for domain.Transport. Open records each
// connection and never delivers on its own; tests push payloads through the
// returned Conn.
// Fields are ordered to minimize memory padding.
type ScriptedTransport struct {
	OpenErr error   // Returned by Open when set
	Conns   []*Conn // One per successful Open, in order
	URLs    []string
	mu      sync.Mutex
}

// NewScriptedTransport creates a new ScriptedTransport.
func NewScriptedTransport() *ScriptedTransport {
	return &ScriptedTransport{}
}

// Open records the request and returns a handle for it.
func (t *ScriptedTransport) Open(_ context.Context, url string, h domain.StreamHandler) (domain.StreamHandle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.URLs = append(t.URLs, url)
	if t.OpenErr != nil {
		return nil, t.OpenErr
	}
	conn := &Conn{Handler: h, Handle: &MockStreamHandle{}}
	t.Conns = append(t.Conns, conn)
	return conn.Handle, nil
}

// Last returns the most recent connection.
func (t *ScriptedTransport) Last() *Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.Conns) == 0 {
		return nil
	}
	return t.Conns[len(t.Conns)-1]
}

// Conn is one connection opened through ScriptedTransport.
type Conn struct {
	Handler domain.StreamHandler
	Handle  *MockStreamHandle
}

// Send delivers payloads in order, as the real transport would. Payloads are
// delivered even after Close so tests can exercise late callbacks.
func (c *Conn) Send(payloads ...string) {
	for _, p := range payloads {
		c.Handler.OnMessage(p)
	}
}

// Fail reports a transport error.
func (c *Conn) Fail(err error) {
	c.Handler.OnError(err)
}

// MockStreamHandle is a test double for domain.StreamHandle.
type MockStreamHandle struct {
	CloseErr   error
	closeCalls int
	mu         sync.Mutex
}

// Close records the call.
func (h *MockStreamHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeCalls++
	return h.CloseErr
}

// CloseCalls returns how many times Close was called.
func (h *MockStreamHandle) CloseCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closeCalls
}

// LogEntry is one line recorded by MockLogger.
type LogEntry struct {
	Level     string
	Category  string
	Msg       string
	SessionID int
}

// String formats the entry for assertion messages.
func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] [%d] [%s] %s", e.Level, e.SessionID, e.Category, e.Msg)
}

// MockLogger is a test double for domain.Logger that records every line.
type MockLogger struct {
	Entries []LogEntry
	mu      sync.Mutex
}

// Debug records a debug line.
func (l *MockLogger) Debug(sessionID int, category, msg string) {
	l.add("DEBUG", sessionID, category, msg)
}

// Info records an info line.
func (l *MockLogger) Info(sessionID int, category, msg string) {
	l.add("INFO", sessionID, category, msg)
}

// Warn records a warn line.
func (l *MockLogger) Warn(sessionID int, category, msg string) {
	l.add("WARN", sessionID, category, msg)
}

// Error records an error line.
func (l *MockLogger) Error(sessionID int, category, msg string) {
	l.add("ERROR", sessionID, category, msg)
}

// ByCategory returns the entries logged under category.
func (l *MockLogger) ByCategory(category string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogEntry
	for _, e := range l.Entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

func (l *MockLogger) add(level string, sessionID int, category, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, SessionID: sessionID, Category: category, Msg: msg})
}
