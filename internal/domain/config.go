package domain

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
	"time"
)

//go:embed config_template.toml
var configTemplateContent string

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings []string     `toml:"-"`
	Stream   StreamConfig `toml:"stream"`
	Serve    ServeConfig  `toml:"serve"`
	Log      LogConfig    `toml:"log"`
}

// StreamConfig holds client settings from [stream] section.
type StreamConfig struct {
	Endpoint    string   `toml:"endpoint,omitempty"`     // Producer endpoint the prompt is appended to
	OpenTimeout Duration `toml:"open_timeout,omitempty"` // Time to wait for response headers
}

// ServeConfig holds demo producer settings from [serve] section.
type ServeConfig struct {
	Addr       string   `toml:"addr,omitempty"`        // Listen address
	Plan       string   `toml:"plan,omitempty"`        // YAML plan file (empty = built-in outline)
	ChunkDelay Duration `toml:"chunk_delay,omitempty"` // Delay between description chunks
	ChunkSize  int      `toml:"chunk_size,omitempty"`  // Characters added per description chunk
	MaxTasks   int      `toml:"max_tasks,omitempty"`   // Upper bound of tasks per stream
}

// LogConfig holds logging settings from [log] section.
type LogConfig struct {
	Level string `toml:"level,omitempty"` // Log level: debug, info, warn, error
	Dir   string `toml:"dir,omitempty"`   // Log directory (empty = logging disabled)
}

// Duration is a time.Duration written as a string such as "10ms" in TOML.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// String returns the duration in time.Duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default configuration values.
const (
	DefaultEndpoint    = "http://127.0.0.1:8000/api/stream_tasks"
	DefaultOpenTimeout = Duration(10 * time.Second)
	DefaultServeAddr   = "127.0.0.1:8000"
	DefaultChunkSize   = 4
	DefaultChunkDelay  = Duration(10 * time.Millisecond)
	DefaultMaxTasks    = 10
	DefaultLogLevel    = "info"
)

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Stream: StreamConfig{
			Endpoint:    DefaultEndpoint,
			OpenTimeout: DefaultOpenTimeout,
		},
		Serve: ServeConfig{
			Addr:       DefaultServeAddr,
			ChunkSize:  DefaultChunkSize,
			ChunkDelay: DefaultChunkDelay,
			MaxTasks:   DefaultMaxTasks,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// RenderConfigTemplate renders the commented config template with the
// values of cfg as the suggested settings.
func RenderConfigTemplate(cfg *Config) string {
	tmpl, err := template.New("config").Delims("<<", ">>").Parse(configTemplateContent)
	if err != nil {
		// Should never happen with embedded template
		panic(fmt.Sprintf("failed to parse config template: %v", err))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		panic(fmt.Sprintf("failed to execute config template: %v", err))
	}
	return buf.String()
}
