// Package sse implements the server-sent events transport used to consume
// the task stream.
package sse

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	r3sse "github.com/r3labs/sse/v2"
	"gopkg.in/cenkalti/backoff.v1"

	"github.com/runoshun/taskstream/internal/domain"
)

// Ensure Transport implements domain.Transport.
var _ domain.Transport = (*Transport)(nil)

// Allow up to 1MB for a single event.
const maxEventSize = 1024 * 1024

// ErrUnexpectedEnd is reported when the server ends the stream before the
// client closed it.
var ErrUnexpectedEnd = errors.New("event stream ended unexpectedly")

var errNoResponse = errors.New("no response")

// StatusError is reported for non-2xx responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Transport opens event streams over HTTP. It never reconnects: any failure
// is reported once through the handler and the stream is over.
type Transport struct {
	client      *http.Client
	openTimeout time.Duration
}

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient sets the HTTP client. The client must not set Timeout,
// which would cut long-lived streams.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) { t.client = c }
}

// WithOpenTimeout bounds the wait for response headers. Zero disables it.
func WithOpenTimeout(d time.Duration) Option {
	return func(t *Transport) { t.openTimeout = d }
}

// New creates a new Transport.
func New(opts ...Option) *Transport {
	t := &Transport{client: http.DefaultClient}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Open starts a GET request to rawURL and delivers events to h from a
// background goroutine.
func (t *Transport) Open(ctx context.Context, rawURL string, h domain.StreamHandler) (domain.StreamHandle, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse url: unsupported scheme %q", u.Scheme)
	}

	client := r3sse.NewClient(rawURL, r3sse.ClientMaxBufferSize(maxEventSize))
	client.Connection = t.client
	client.ReconnectStrategy = &backoff.StopBackOff{}

	ctx, cancel := context.WithCancel(ctx)
	s := &stream{cancel: cancel, done: make(chan struct{})}
	go s.run(ctx, t.openTimeout, client, h)
	return s, nil
}

// stream is the handle of one open connection.
type stream struct {
	cancel    context.CancelFunc
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
}

// Close cancels the request. It is safe to call from a handler callback and
// more than once.
func (s *stream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
	})
	return nil
}

// Done is closed when the reader goroutine has exited.
func (s *stream) Done() <-chan struct{} {
	return s.done
}

func (s *stream) run(ctx context.Context, openTimeout time.Duration, client *r3sse.Client, h domain.StreamHandler) {
	defer close(s.done)
	defer s.cancel()

	// The timer is stopped once headers arrive; firing cancels the request.
	var timer *time.Timer
	var timedOut atomic.Bool
	if openTimeout > 0 {
		timer = time.AfterFunc(openTimeout, func() {
			timedOut.Store(true)
			s.cancel()
		})
		defer timer.Stop()
	}

	client.ResponseValidator = func(_ *r3sse.Client, resp *http.Response) error {
		if timer != nil && !timer.Stop() {
			_ = resp.Body.Close()
			return errNoResponse
		}
		if err := checkResponse(resp); err != nil {
			_ = resp.Body.Close()
			return err
		}
		return nil
	}

	err := client.SubscribeRawWithContext(ctx, func(ev *r3sse.Event) {
		if len(ev.Data) == 0 {
			return
		}
		if len(ev.Event) > 0 && string(ev.Event) != "message" {
			return
		}
		if s.closed.Load() {
			return
		}
		h.OnMessage(string(ev.Data))
	})
	if err == nil {
		err = ErrUnexpectedEnd
	}
	if timedOut.Load() {
		err = fmt.Errorf("no response within %s: %w", openTimeout, err)
	}
	s.fail(h, err)
}

// checkResponse accepts 2xx event-stream responses only.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	ct := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "text/event-stream" {
		return fmt.Errorf("unexpected content type %q", ct)
	}
	return nil
}

func (s *stream) fail(h domain.StreamHandler, err error) {
	if s.closed.Load() {
		return
	}
	h.OnError(err)
}
