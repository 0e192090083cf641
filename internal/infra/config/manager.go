package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/runoshun/taskstream/internal/domain"
)

// Ensure Manager implements domain.ConfigManager.
var _ domain.ConfigManager = (*Manager)(nil)

// Manager writes configuration files.
type Manager struct {
	projectDir    string // Directory holding .taskstream.toml
	globalConfDir string // Path to global config directory (e.g., ~/.config/taskstream)
}

// NewManager creates a new Manager.
func NewManager(projectDir string) *Manager {
	return &Manager{
		projectDir:    projectDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewManagerWithGlobalDir creates a new Manager with a custom global config directory.
// This is useful for testing.
func NewManagerWithGlobalDir(projectDir, globalConfDir string) *Manager {
	return &Manager{
		projectDir:    projectDir,
		globalConfDir: globalConfDir,
	}
}

// InitProject writes the config template to ./.taskstream.toml and returns its path.
func (m *Manager) InitProject(cfg *domain.Config, force bool) (string, error) {
	path := domain.ProjectConfigPath(m.projectDir)
	return path, m.initConfig(path, cfg, force)
}

// InitGlobal writes the config template to the global config directory.
func (m *Manager) InitGlobal(cfg *domain.Config, force bool) (string, error) {
	if m.globalConfDir == "" {
		return "", errors.New("global config directory not available")
	}
	if err := os.MkdirAll(m.globalConfDir, 0o700); err != nil {
		return "", err
	}
	path := filepath.Join(m.globalConfDir, domain.ConfigFileName)
	return path, m.initConfig(path, cfg, force)
}

// initConfig creates a config file with the default template.
func (m *Manager) initConfig(path string, cfg *domain.Config, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return domain.ErrConfigExists
	}
	content := domain.RenderConfigTemplate(cfg)
	return os.WriteFile(path, []byte(content), 0o600)
}
