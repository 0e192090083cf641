// Package session drives one task stream at a time: it opens the transport,
// folds every delivered payload into the task collection and publishes the
// result.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/runoshun/taskstream/internal/domain"
)

// Log categories.
const (
	logCategoryStream   = "stream"
	logCategoryClassify = "classify"
)

// Controller owns the stream session. Exactly one session is active at a
// time; starting a new one tears down the previous connection first.
// Fields are ordered to minimize memory padding.
type Controller struct {
	transport domain.Transport
	publisher Publisher
	logger    domain.Logger
	handle    domain.StreamHandle
	done      chan struct{} // Closed when the current session leaves Active
	endpoint  string
	prompt    string
	errDetail string
	tasks     domain.Collection
	gen       uint64 // Incremented per session; stale callbacks compare against it
	sessionID int
	mu        sync.Mutex
	state     domain.SessionState
	loading   bool
	failed    bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithPublisher sets where snapshots are sent. A nil p is ignored.
func WithPublisher(p Publisher) Option {
	return func(c *Controller) {
		if p != nil {
			c.publisher = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l domain.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController creates a Controller that streams from endpoint.
func NewController(transport domain.Transport, endpoint string, opts ...Option) *Controller {
	c := &Controller{
		transport: transport,
		endpoint:  endpoint,
		publisher: nopPublisher{},
		state:     domain.SessionIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins a new session for prompt. An active session is closed
// silently first. A connection that cannot be opened ends the new session
// with the generic connection error instead of returning it.
func (c *Controller) Start(ctx context.Context, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return domain.ErrEmptyPrompt
	}
	url, err := domain.StreamURL(c.endpoint, prompt)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardownLocked("replaced by a new session")

	c.gen++
	c.sessionID++
	c.prompt = prompt
	c.tasks = nil
	c.errDetail = ""
	c.failed = false
	c.state = domain.SessionActive
	c.loading = true
	c.done = make(chan struct{})
	c.logInfo(logCategoryStream, "connecting: "+url)

	h, err := c.transport.Open(ctx, url, &sessionHandler{c: c, gen: c.gen})
	if err != nil {
		c.logError(logCategoryStream, fmt.Sprintf("open failed: %v", err))
		c.terminateLocked()
		c.errDetail = domain.ConnectionFailedDetail
		c.failed = true
		c.publishLocked()
		return nil
	}
	c.handle = h
	c.publishLocked()
	return nil
}

// Dispose closes an active session without publishing anything.
// It is safe to call more than once.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked("disposed")
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait blocks until the current session is no longer active and returns the
// final state. It returns immediately when no session is active.
func (c *Controller) Wait(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return c.Snapshot(), ctx.Err()
		}
	}
	return c.Snapshot(), nil
}

func (c *Controller) handleMessage(gen uint64, payload string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != domain.SessionActive {
		return
	}

	msg := domain.Classify(payload)
	if u, ok := msg.(domain.MsgUnrecognized); ok {
		c.logWarn(logCategoryClassify, "ignored message: "+u.Reason)
	}

	tasks, sig := domain.Reconcile(c.tasks, msg)
	c.tasks = tasks

	switch sig.Kind {
	case domain.SignalContinue:
	case domain.SignalFinish:
		c.logInfo(logCategoryStream, fmt.Sprintf("completed with %d tasks", len(c.tasks)))
		c.closeHandleLocked()
		c.terminateLocked()
	case domain.SignalFail:
		c.logError(logCategoryStream, "producer error: "+sig.Detail)
		c.closeHandleLocked()
		c.terminateLocked()
		c.errDetail = sig.Detail
		c.failed = true
	}
	c.publishLocked()
}

func (c *Controller) handleError(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != domain.SessionActive {
		return
	}

	c.logError(logCategoryStream, fmt.Sprintf("connection failed: %v", err))
	c.closeHandleLocked()
	c.terminateLocked()
	c.errDetail = domain.ConnectionFailedDetail
	c.failed = true
	c.publishLocked()
}

// teardownLocked ends an active session without publishing.
func (c *Controller) teardownLocked(reason string) {
	if c.state != domain.SessionActive {
		return
	}
	c.logInfo(logCategoryStream, "closed: "+reason)
	c.closeHandleLocked()
	c.terminateLocked()
	// callbacks already queued for this connection must not land
	c.gen++
}

func (c *Controller) closeHandleLocked() {
	if c.handle == nil {
		return
	}
	if err := c.handle.Close(); err != nil {
		c.logWarn(logCategoryStream, fmt.Sprintf("close: %v", err))
	}
	c.handle = nil
}

func (c *Controller) terminateLocked() {
	c.state = domain.SessionTerminated
	c.loading = false
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Prompt:     c.prompt,
		Err:        c.errDetail,
		Tasks:      c.tasks.Clone(),
		SessionID:  c.sessionID,
		State:      c.state,
		InProgress: c.loading,
		Failed:     c.failed,
	}
}

func (c *Controller) publishLocked() {
	c.publisher.Publish(c.snapshotLocked())
}

func (c *Controller) logInfo(category, msg string) {
	if c.logger != nil {
		c.logger.Info(c.sessionID, category, msg)
	}
}

func (c *Controller) logWarn(category, msg string) {
	if c.logger != nil {
		c.logger.Warn(c.sessionID, category, msg)
	}
}

func (c *Controller) logError(category, msg string) {
	if c.logger != nil {
		c.logger.Error(c.sessionID, category, msg)
	}
}

// sessionHandler routes transport callbacks of one connection back to the
// Controller, tagged with the session generation it was opened for.
type sessionHandler struct {
	c   *Controller
	gen uint64
}

func (h *sessionHandler) OnMessage(payload string) { h.c.handleMessage(h.gen, payload) }

func (h *sessionHandler) OnError(err error) { h.c.handleError(h.gen, err) }
