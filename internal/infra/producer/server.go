// Package producer serves a demo task stream over server-sent events.
package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/runoshun/taskstream/internal/domain"
)

// StreamPath is the route of the task stream.
const StreamPath = "/api/stream_tasks"

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
// Fields are ordered to minimize memory padding.
type Options struct {
	Planner    Planner      // Defaults to OutlinePlanner
	Logger     *slog.Logger // Defaults to slog.Default()
	ChunkDelay time.Duration
	ChunkSize  int // Characters added per description frame; defaults to domain.DefaultChunkSize
	MaxTasks   int // Defaults to domain.DefaultMaxTasks
}

// Server streams planned tasks to clients.
type Server struct {
	planner    Planner
	logger     *slog.Logger
	chunkDelay time.Duration
	chunkSize  int
	maxTasks   int
}

// New creates a new Server.
func New(opts Options) *Server {
	s := &Server{
		planner:    opts.Planner,
		logger:     opts.Logger,
		chunkDelay: opts.ChunkDelay,
		chunkSize:  opts.ChunkSize,
		maxTasks:   opts.MaxTasks,
	}
	if s.planner == nil {
		s.planner = OutlinePlanner{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.chunkSize <= 0 {
		s.chunkSize = domain.DefaultChunkSize
	}
	if s.maxTasks <= 0 {
		s.maxTasks = domain.DefaultMaxTasks
	}
	return s
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(CORS)
	r.Use(RequestLogger(s.logger))
	r.Use(Recovery(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get(StreamPath, s.streamTasks)

	return r
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// taskFrame is the wire shape of a task. Every field is always present.
type taskFrame struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type statusFrame struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// streamTasks handles GET /api/stream_tasks?prompt=...
func (s *Server) streamTasks(w http.ResponseWriter, r *http.Request) {
	prompt := r.URL.Query().Get("prompt")
	if strings.TrimSpace(prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	fw := &frameWriter{w: w, flusher: flusher}
	logger := s.logger.With("request_id", middleware.GetReqID(ctx))
	logger.Info("stream started", "prompt", prompt)

	var sent []domain.Task
	for len(sent) < s.maxTasks {
		task, more, err := s.planner.NextTask(ctx, prompt, sent)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("planner failed", "error", err)
			_ = fw.write(statusFrame{Status: "error", Detail: err.Error()})
			return
		}
		if !more {
			break
		}
		if task.ID == "" {
			task.ID = uuid.NewString()
		}
		if err := s.streamTask(ctx, fw, task); err != nil {
			logger.Info("stream aborted", "error", err, "tasks", len(sent))
			return
		}
		sent = append(sent, task)
	}

	if err := fw.write(statusFrame{Status: "completed"}); err != nil {
		return
	}
	logger.Info("stream completed", "tasks", len(sent))
}

// streamTask sends a skeleton, the description in growing chunks, then the
// full task.
func (s *Server) streamTask(ctx context.Context, fw *frameWriter, task domain.Task) error {
	frame := taskFrame{ID: task.ID, Title: task.Title, Tags: task.Tags}
	if frame.Tags == nil {
		frame.Tags = []string{}
	}
	if err := fw.write(frame); err != nil {
		return err
	}

	desc := []rune(task.Description)
	for end := s.chunkSize; end-s.chunkSize < len(desc); end += s.chunkSize {
		frame.Description = string(desc[:min(end, len(desc))])
		if err := fw.write(frame); err != nil {
			return err
		}
		if err := sleep(ctx, s.chunkDelay); err != nil {
			return err
		}
	}

	frame.Description = task.Description
	return fw.write(frame)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// frameWriter writes one data event per value and flushes it.
type frameWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (fw *frameWriter) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(fw.w, "data: %s\n\n", data); err != nil {
		return err
	}
	fw.flusher.Flush()
	return nil
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
