// Package logging provides file-based logging for taskstream.
// It outputs logs to both a global log file (<dir>/taskstream.log)
// and session-specific log files (<dir>/session-N.log).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/runoshun/taskstream/internal/domain"
)

// Ensure Logger implements domain.Logger interface.
var _ domain.Logger = (*Logger)(nil)

// Logger writes formatted log lines to files, filtered by level.
// Fields are ordered to minimize memory padding.
type Logger struct {
	globalFile   *os.File
	sessionFiles map[int]*os.File
	dir          string
	mu           sync.Mutex
	level        slog.Level
}

// New creates a new Logger that writes to dir.
// If dir is empty, logging is disabled (returns a no-op logger).
func New(dir string, level slog.Level) *Logger {
	return &Logger{
		dir:          dir,
		level:        level,
		sessionFiles: make(map[int]*os.File),
	}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return New("", slog.LevelInfo)
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openLocked opens path for appending. Callers hold l.mu.
func (l *Logger) openLocked(path string) (*os.File, error) {
	if err := os.MkdirAll(l.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// ensureGlobalFile opens or returns the global log file.
func (l *Logger) ensureGlobalFile() (*os.File, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.globalFile != nil {
		return l.globalFile, nil
	}
	f, err := l.openLocked(domain.GlobalLogPath(l.dir))
	if err != nil {
		return nil, err
	}
	l.globalFile = f
	return f, nil
}

// ensureSessionFile opens or returns the session log file.
func (l *Logger) ensureSessionFile(sessionID int) (*os.File, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.sessionFiles[sessionID]; ok {
		return f, nil
	}
	f, err := l.openLocked(domain.SessionLogPath(l.dir, sessionID))
	if err != nil {
		return nil, err
	}
	l.sessionFiles[sessionID] = f
	return f, nil
}

// Close closes all open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lastErr error
	if l.globalFile != nil {
		if err := l.globalFile.Close(); err != nil {
			lastErr = err
		}
		l.globalFile = nil
	}
	for id, f := range l.sessionFiles {
		if err := f.Close(); err != nil {
			lastErr = err
		}
		delete(l.sessionFiles, id)
	}
	return lastErr
}

// formatLog formats a log entry.
// Format: [2025-12-30 09:32:51] [INFO] [session-1] [category] message
func formatLog(t time.Time, level slog.Level, sessionID int, category, msg string) string {
	scope := "global"
	if sessionID > 0 {
		scope = fmt.Sprintf("session-%d", sessionID)
	}
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s\n",
		t.Format("2006-01-02 15:04:05"),
		levelToString(level),
		scope,
		category,
		msg,
	)
}

func levelToString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// log writes a log entry to the global log and, for sessionID > 0, to the
// session log as well.
func (l *Logger) log(level slog.Level, sessionID int, category, msg string) {
	if l.dir == "" || level < l.level {
		return
	}

	entry := formatLog(time.Now(), level, sessionID, category, msg)

	if gf, err := l.ensureGlobalFile(); err == nil {
		_, _ = io.WriteString(gf, entry)
	}
	if sessionID > 0 {
		if sf, err := l.ensureSessionFile(sessionID); err == nil {
			_, _ = io.WriteString(sf, entry)
		}
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(sessionID int, category, msg string) {
	l.log(slog.LevelDebug, sessionID, category, msg)
}

// Info logs an info message.
func (l *Logger) Info(sessionID int, category, msg string) {
	l.log(slog.LevelInfo, sessionID, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(sessionID int, category, msg string) {
	l.log(slog.LevelWarn, sessionID, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(sessionID int, category, msg string) {
	l.log(slog.LevelError, sessionID, category, msg)
}
