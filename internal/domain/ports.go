package domain

import "context"

// Transport opens server-push connections that deliver text payloads.
type Transport interface {
	// Open connects to url and starts delivering payloads to h.
	// Failures after Open returns are reported through h.OnError.
	Open(ctx context.Context, url string, h StreamHandler) (StreamHandle, error)
}

// StreamHandler receives the events of one connection, in order.
type StreamHandler interface {
	// OnMessage is called once per inbound message with its raw payload.
	OnMessage(payload string)

	// OnError is called when the connection fails or ends unexpectedly.
	OnError(err error)
}

// StreamHandle releases an open connection.
type StreamHandle interface {
	// Close releases the connection. No new callbacks start after Close
	// returns; Close does not wait for a callback already running.
	Close() error
}

// Logger writes categorized log lines, optionally scoped to a stream session.
type Logger interface {
	Debug(sessionID int, category, msg string)
	Info(sessionID int, category, msg string)
	Warn(sessionID int, category, msg string)
	Error(sessionID int, category, msg string)
}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (global + project).
	Load() (*Config, error)

	// LoadGlobal returns only the global configuration.
	LoadGlobal() (*Config, error)

	// GlobalPath and ProjectPath return the files Load reads.
	// GlobalPath is empty when no global directory is known.
	GlobalPath() string
	ProjectPath() string
}

// ConfigManager writes configuration files.
type ConfigManager interface {
	// InitProject writes the commented template to the project config file.
	InitProject(cfg *Config, force bool) (string, error)

	// InitGlobal writes the commented template to the global config file.
	InitGlobal(cfg *Config, force bool) (string, error)
}
