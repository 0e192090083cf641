package sse

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects handler callbacks.
type recorder struct {
	errCh    chan error
	messages []string
	mu       sync.Mutex
}

func newRecorder() *recorder {
	return &recorder{errCh: make(chan error, 1)}
}

func (r *recorder) OnMessage(payload string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, payload)
}

func (r *recorder) OnError(err error) {
	r.errCh <- err
}

func (r *recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func (r *recorder) waitErr(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for OnError")
		return nil
	}
}

func streamServer(frames ...string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for _, f := range frames {
			_, _ = fmt.Fprintf(w, "data: %s\n\n", f)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
}

func TestTransport_Open_DeliversMessagesInOrder(t *testing.T) {
	srv := streamServer(`{"id":"1"}`, `{"id":"2"}`, `{"status":"completed"}`)
	defer srv.Close()
	rec := newRecorder()

	h, err := New().Open(context.Background(), srv.URL, rec)
	require.NoError(t, err)
	defer func() { _ = h.Close() }()

	// the server closes after the last frame, which the client sees as an unexpected end
	err = rec.waitErr(t)
	assert.ErrorIs(t, err, ErrUnexpectedEnd)
	assert.Equal(t, []string{`{"id":"1"}`, `{"id":"2"}`, `{"status":"completed"}`}, rec.Messages())
}

func TestTransport_Open_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	rec := newRecorder()

	_, err := New().Open(context.Background(), srv.URL, rec)
	require.NoError(t, err)

	err = rec.waitErr(t)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
}

func TestTransport_Open_WrongContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	rec := newRecorder()

	_, err := New().Open(context.Background(), srv.URL, rec)
	require.NoError(t, err)

	assert.ErrorContains(t, rec.waitErr(t), "unexpected content type")
}

func TestTransport_Open_SendsAcceptHeader(t *testing.T) {
	accept := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept <- r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/event-stream")
	}))
	defer srv.Close()
	rec := newRecorder()

	_, err := New().Open(context.Background(), srv.URL, rec)
	require.NoError(t, err)

	assert.Equal(t, "text/event-stream", <-accept)
	rec.waitErr(t)
}

func TestTransport_Open_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)
	rec := newRecorder()

	_, err := New(WithOpenTimeout(50*time.Millisecond)).Open(context.Background(), srv.URL, rec)
	require.NoError(t, err)

	assert.ErrorContains(t, rec.waitErr(t), "no response within")
}

func TestTransport_Open_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	rec := newRecorder()

	_, err := New().Open(context.Background(), url, rec)
	require.NoError(t, err)

	assert.Error(t, rec.waitErr(t))
}

func TestTransport_Open_InvalidURL(t *testing.T) {
	_, err := New().Open(context.Background(), "://bad", newRecorder())
	assert.Error(t, err)
}

func TestTransport_Close_SuppressesCallbacks(t *testing.T) {
	sent := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = fmt.Fprint(w, "data: first\n\n")
		w.(http.Flusher).Flush()
		close(sent)
		<-r.Context().Done()
	}))
	defer srv.Close()
	rec := newRecorder()

	h, err := New().Open(context.Background(), srv.URL, rec)
	require.NoError(t, err)
	<-sent
	require.Eventually(t, func() bool { return len(rec.Messages()) == 1 }, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	select {
	case <-h.(*stream).Done():
	case <-time.After(5 * time.Second):
		t.Fatal("reader goroutine did not exit")
	}
	select {
	case err := <-rec.errCh:
		t.Fatalf("unexpected OnError after Close: %v", err)
	default:
	}
	assert.Equal(t, []string{"first"}, rec.Messages())
}

func rawServer(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		_, _ = fmt.Fprint(w, body)
	}))
}

func TestTransport_Open_Framing(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "multi line data joined with newline",
			body: "data: a\ndata: b\n\n",
			want: []string{"a\nb"},
		},
		{
			name: "crlf line endings",
			body: "data: x\r\n\r\ndata: y\r\n\r\n",
			want: []string{"x", "y"},
		},
		{
			name: "comments are skipped",
			body: ": keepalive\n\ndata: x\n\n",
			want: []string{"x"},
		},
		{
			name: "named events are skipped",
			body: "event: ping\ndata: p\n\nevent: message\ndata: m\n\n",
			want: []string{"m"},
		},
		{
			name: "id and retry fields are ignored",
			body: "id: 7\nretry: 1500\ndata: x\n\nid: 8\n\n",
			want: []string{"x"},
		},
		{
			name: "value without space after colon",
			body: "data:x\n\n",
			want: []string{"x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := rawServer(tt.body)
			defer srv.Close()
			rec := newRecorder()

			_, err := New().Open(context.Background(), srv.URL, rec)
			require.NoError(t, err)

			assert.ErrorIs(t, rec.waitErr(t), ErrUnexpectedEnd)
			assert.Equal(t, tt.want, rec.Messages())
		})
	}
}

func TestTransport_Open_DoesNotReconnect(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = fmt.Fprint(w, "retry: 1\ndata: once\n\n")
	}))
	defer srv.Close()
	rec := newRecorder()

	_, err := New().Open(context.Background(), srv.URL, rec)
	require.NoError(t, err)

	assert.ErrorIs(t, rec.waitErr(t), ErrUnexpectedEnd)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, []string{"once"}, rec.Messages())
}

func TestTransport_Open_LargeEvent(t *testing.T) {
	payload := strings.Repeat("x", 200*1024)
	srv := streamServer(payload)
	defer srv.Close()
	rec := newRecorder()

	_, err := New().Open(context.Background(), srv.URL, rec)
	require.NoError(t, err)

	assert.ErrorIs(t, rec.waitErr(t), ErrUnexpectedEnd)
	assert.Equal(t, []string{payload}, rec.Messages())
}

func TestTransport_Open_UnsupportedScheme(t *testing.T) {
	_, err := New().Open(context.Background(), "ftp://example.com/stream", newRecorder())
	assert.ErrorContains(t, err, "unsupported scheme")
}
