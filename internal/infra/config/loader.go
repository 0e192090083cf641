// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/runoshun/taskstream/internal/domain"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files.
type Loader struct {
	projectDir    string // Directory holding .taskstream.toml
	globalConfDir string // Path to global config directory (e.g., ~/.config/taskstream)
}

// NewLoader creates a new Loader for the given working directory.
func NewLoader(projectDir string) *Loader {
	return &Loader{
		projectDir:    projectDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory.
// This is useful for testing.
func NewLoaderWithGlobalDir(projectDir, globalConfDir string) *Loader {
	return &Loader{
		projectDir:    projectDir,
		globalConfDir: globalConfDir,
	}
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalConfigDir(configHome)
}

// GlobalPath returns the global config file path, or "" when unknown.
func (l *Loader) GlobalPath() string {
	if l.globalConfDir == "" {
		return ""
	}
	return filepath.Join(l.globalConfDir, domain.ConfigFileName)
}

// ProjectPath returns the project config file path.
func (l *Loader) ProjectPath() string {
	return domain.ProjectConfigPath(l.projectDir)
}

// Load returns the merged configuration.
// Precedence: default <- global <- project.
func (l *Loader) Load() (*domain.Config, error) {
	global, err := l.LoadGlobal()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	project, err := l.LoadProject()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	base := domain.NewDefaultConfig()
	if global != nil {
		base = mergeConfigs(base, global)
	}
	if project != nil {
		base = mergeConfigs(base, project)
	}
	return base, nil
}

// LoadGlobal returns only the global configuration.
func (l *Loader) LoadGlobal() (*domain.Config, error) {
	path := l.GlobalPath()
	if path == "" {
		return nil, os.ErrNotExist
	}
	return l.loadFile(path)
}

// LoadProject returns only the project configuration.
func (l *Loader) LoadProject() (*domain.Config, error) {
	if l.projectDir == "" {
		return nil, os.ErrNotExist
	}
	return l.loadFile(domain.ProjectConfigPath(l.projectDir))
}

// loadFile loads a configuration from a file.
func (l *Loader) loadFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return convertRawToDomainConfig(raw), nil
}

// convertRawToDomainConfig converts the raw map to domain config and collects warnings.
func convertRawToDomainConfig(raw map[string]any) *domain.Config {
	res := &domain.Config{}
	var warnings []string

	for section, value := range raw {
		m, ok := value.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown key: %s", section))
			continue
		}
		switch section {
		case "stream":
			for k, v := range m {
				switch k {
				case "endpoint":
					if s, ok := v.(string); ok {
						res.Stream.Endpoint = s
					}
				case "open_timeout":
					if d, ok := parseDuration(v, &warnings, "stream", k); ok {
						res.Stream.OpenTimeout = d
					}
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [stream]: %s", k))
				}
			}
		case "log":
			for k, v := range m {
				switch k {
				case "level":
					if s, ok := v.(string); ok {
						res.Log.Level = s
					}
				case "dir":
					if s, ok := v.(string); ok {
						res.Log.Dir = s
					}
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [log]: %s", k))
				}
			}
		case "serve":
			for k, v := range m {
				switch k {
				case "addr":
					if s, ok := v.(string); ok {
						res.Serve.Addr = s
					}
				case "plan":
					if s, ok := v.(string); ok {
						res.Serve.Plan = s
					}
				case "chunk_size":
					if n, ok := v.(int64); ok {
						res.Serve.ChunkSize = int(n)
					}
				case "chunk_delay":
					if d, ok := parseDuration(v, &warnings, "serve", k); ok {
						res.Serve.ChunkDelay = d
					}
				case "max_tasks":
					if n, ok := v.(int64); ok {
						res.Serve.MaxTasks = int(n)
					}
				default:
					warnings = append(warnings, fmt.Sprintf("unknown key in [serve]: %s", k))
				}
			}
		default:
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", section))
		}
	}

	sort.Strings(warnings)
	res.Warnings = warnings
	return res
}

// parseDuration accepts strings such as "250ms".
func parseDuration(v any, warnings *[]string, section, key string) (domain.Duration, bool) {
	s, ok := v.(string)
	if !ok {
		*warnings = append(*warnings, fmt.Sprintf("invalid duration in [%s]: %s", section, key))
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("invalid duration in [%s]: %s = %q", section, key, s))
		return 0, false
	}
	return domain.Duration(d), true
}

// mergeConfigs merges two configs, with override taking precedence.
func mergeConfigs(base, override *domain.Config) *domain.Config {
	result := &domain.Config{
		Stream:   base.Stream,
		Serve:    base.Serve,
		Log:      base.Log,
		Warnings: append([]string{}, base.Warnings...),
	}
	result.Warnings = append(result.Warnings, override.Warnings...)

	if override.Stream.Endpoint != "" {
		result.Stream.Endpoint = override.Stream.Endpoint
	}
	if override.Stream.OpenTimeout != 0 {
		result.Stream.OpenTimeout = override.Stream.OpenTimeout
	}
	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}
	if override.Log.Dir != "" {
		result.Log.Dir = override.Log.Dir
	}
	if override.Serve.Addr != "" {
		result.Serve.Addr = override.Serve.Addr
	}
	if override.Serve.Plan != "" {
		result.Serve.Plan = override.Serve.Plan
	}
	if override.Serve.ChunkSize > 0 {
		result.Serve.ChunkSize = override.Serve.ChunkSize
	}
	if override.Serve.ChunkDelay != 0 {
		result.Serve.ChunkDelay = override.Serve.ChunkDelay
	}
	if override.Serve.MaxTasks > 0 {
		result.Serve.MaxTasks = override.Serve.MaxTasks
	}

	return result
}
