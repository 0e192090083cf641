package producer_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/taskstream/internal/domain"
	"github.com/runoshun/taskstream/internal/infra/producer"
	"github.com/runoshun/taskstream/internal/infra/sse"
	"github.com/runoshun/taskstream/internal/session"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedPlanner(tasks ...domain.Task) producer.Planner {
	return producer.PlannerFunc(func(_ context.Context, _ string, prior []domain.Task) (domain.Task, bool, error) {
		if len(prior) >= len(tasks) {
			return domain.Task{}, false, nil
		}
		return tasks[len(prior)], true, nil
	})
}

func newTestServer(t *testing.T, opts producer.Options) *httptest.Server {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	srv := httptest.NewServer(producer.New(opts).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func streamURL(srv *httptest.Server, prompt string) string {
	return srv.URL + producer.StreamPath + "?prompt=" + url.QueryEscape(prompt)
}

// frames returns the data payloads of a full response body. Every event
// the producer writes is a single data line.
func frames(t *testing.T, body io.Reader) []string {
	t.Helper()
	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	var out []string
	for _, event := range strings.Split(string(raw), "\n\n") {
		if event == "" {
			continue
		}
		data, ok := strings.CutPrefix(event, "data: ")
		require.True(t, ok, "unexpected event %q", event)
		require.NotContains(t, data, "\n")
		out = append(out, data)
	}
	return out
}

func get(t *testing.T, rawURL string) *http.Response {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestServer_StreamTasks_Frames(t *testing.T) {
	srv := newTestServer(t, producer.Options{
		Planner: fixedPlanner(
			domain.Task{ID: "a", Title: "Alpha", Description: "abcdefghij", Tags: []string{"x"}},
			domain.Task{ID: "b", Title: "Beta"},
		),
	})

	resp := get(t, streamURL(srv, "p"))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, []string{
		`{"id":"a","title":"Alpha","description":"","tags":["x"]}`,
		`{"id":"a","title":"Alpha","description":"abcd","tags":["x"]}`,
		`{"id":"a","title":"Alpha","description":"abcdefgh","tags":["x"]}`,
		`{"id":"a","title":"Alpha","description":"abcdefghij","tags":["x"]}`,
		`{"id":"a","title":"Alpha","description":"abcdefghij","tags":["x"]}`,
		`{"id":"b","title":"Beta","description":"","tags":[]}`,
		`{"id":"b","title":"Beta","description":"","tags":[]}`,
		`{"status":"completed"}`,
	}, frames(t, resp.Body))
}

func TestServer_StreamTasks_ChunksByCharacter(t *testing.T) {
	srv := newTestServer(t, producer.Options{
		Planner:   fixedPlanner(domain.Task{ID: "a", Description: "héllo wörld"}),
		ChunkSize: 5,
	})

	got := frames(t, get(t, streamURL(srv, "p")).Body)

	var descs []string
	for _, f := range got[:len(got)-1] {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(f), &m))
		descs = append(descs, m["description"].(string))
	}
	assert.Equal(t, []string{"", "héllo", "héllo wörl", "héllo wörld", "héllo wörld"}, descs)
}

func TestServer_StreamTasks_AssignsIDs(t *testing.T) {
	srv := newTestServer(t, producer.Options{Planner: fixedPlanner(domain.Task{Title: "No id"})})

	got := frames(t, get(t, streamURL(srv, "p")).Body)

	var first, last map[string]any
	require.NoError(t, json.Unmarshal([]byte(got[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(got[len(got)-2]), &last))
	assert.Len(t, first["id"], 36)
	assert.Equal(t, first["id"], last["id"])
}

func TestServer_StreamTasks_MaxTasks(t *testing.T) {
	srv := newTestServer(t, producer.Options{MaxTasks: 2})

	got := frames(t, get(t, streamURL(srv, "p")).Body)

	ids := map[string]bool{}
	for _, f := range got {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(f), &m))
		if id, ok := m["id"].(string); ok {
			ids[id] = true
		}
	}
	assert.Len(t, ids, 2)
	assert.Equal(t, `{"status":"completed"}`, got[len(got)-1])
}

func TestServer_StreamTasks_PlannerError(t *testing.T) {
	srv := newTestServer(t, producer.Options{
		Planner: producer.PlannerFunc(func(context.Context, string, []domain.Task) (domain.Task, bool, error) {
			return domain.Task{}, false, errors.New("model unavailable")
		}),
	})

	got := frames(t, get(t, streamURL(srv, "p")).Body)

	assert.Equal(t, []string{`{"status":"error","detail":"model unavailable"}`}, got)
}

func TestServer_StreamTasks_MissingPrompt(t *testing.T) {
	srv := newTestServer(t, producer.Options{})

	for _, u := range []string{srv.URL + producer.StreamPath, streamURL(srv, "  ")} {
		resp := get(t, u)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
}

func TestServer_Healthz(t *testing.T) {
	srv := newTestServer(t, producer.Options{})

	resp := get(t, srv.URL+"/healthz")
	body, err := io.ReadAll(resp.Body)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestServer_CORSPreflight(t *testing.T) {
	srv := newTestServer(t, producer.Options{})
	req, err := http.NewRequest(http.MethodOptions, srv.URL+producer.StreamPath, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_ClientDisconnectStopsGeneration(t *testing.T) {
	calls := make(chan struct{}, 100)
	srv := newTestServer(t, producer.Options{
		Planner: producer.PlannerFunc(func(_ context.Context, _ string, prior []domain.Task) (domain.Task, bool, error) {
			calls <- struct{}{}
			return domain.Task{ID: string(rune('a' + len(prior))), Description: strings.Repeat("x", 400)}, true, nil
		}),
		ChunkDelay: 20 * time.Millisecond,
		MaxTasks:   100,
	})
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL(srv, "p"), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	buf := make([]byte, 64)
	_, err = resp.Body.Read(buf)
	require.NoError(t, err)
	cancel()

	// each task takes seconds to stream, so only the first was planned
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, calls, 1)
}

func TestServer_RoundTripThroughController(t *testing.T) {
	srv := newTestServer(t, producer.Options{
		Planner: fixedPlanner(
			domain.Task{ID: "1", Title: "One", Description: "first task", Tags: []string{"Backend"}},
			domain.Task{ID: "2", Title: "Two", Description: "second task"},
			domain.Task{ID: "3", Title: "Three"},
		),
	})
	c := session.NewController(sse.New(), srv.URL+producer.StreamPath)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, c.Start(ctx, "build a thing"))
	snap, err := c.Wait(ctx)

	require.NoError(t, err)
	assert.Equal(t, domain.SessionTerminated, snap.State)
	assert.False(t, snap.Failed)
	assert.Empty(t, snap.Err)
	assert.Equal(t, domain.Collection{
		{ID: "1", Title: "One", Description: "first task", Tags: []string{"Backend"}, Status: domain.StatusCompleted},
		{ID: "2", Title: "Two", Description: "second task", Tags: []string{}, Status: domain.StatusCompleted},
		{ID: "3", Title: "Three", Tags: []string{}, Status: domain.StatusCompleted},
	}, snap.Tasks)
}

func TestServer_RoundTripProducerError(t *testing.T) {
	plan, err := producer.ParsePlan([]byte("tasks:\n  - id: \"1\"\n    title: One\n  - error: boom\n"))
	require.NoError(t, err)
	srv := newTestServer(t, producer.Options{Planner: plan})
	c := session.NewController(sse.New(), srv.URL+producer.StreamPath)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, c.Start(ctx, "p"))
	snap, err := c.Wait(ctx)

	require.NoError(t, err)
	assert.True(t, snap.Failed)
	assert.Equal(t, "boom", snap.Err)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, domain.StatusStreaming, snap.Tasks[0].Status)
}

func TestServer_RoundTripUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := session.NewController(sse.New(), "http://"+addr+producer.StreamPath)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, c.Start(ctx, "p"))
	snap, err := c.Wait(ctx)

	require.NoError(t, err)
	assert.Equal(t, domain.ConnectionFailedDetail, snap.Err)
}

func TestServer_ServeShutsDownOnContextDone(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	s := producer.New(producer.Options{Logger: quietLogger()})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return")
	}
}
