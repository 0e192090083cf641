package app

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/taskstream/internal/domain"
	"github.com/runoshun/taskstream/internal/testutil"
)

func TestNew_DefaultsWithoutConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	c, err := New(dir)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.Equal(t, domain.DefaultEndpoint, c.AppConfig.Stream.Endpoint)
	assert.Equal(t, dir, c.Config.ProjectDir)
	assert.NotNil(t, c.Transport)
	assert.NotNil(t, c.ConfigManager)
}

func TestNew_InvalidConfigFallsBack(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(domain.ProjectConfigPath(dir), []byte("[stream"), 0o600))

	c, err := New(dir)

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultEndpoint, c.AppConfig.Stream.Endpoint)
	require.Len(t, c.AppConfig.Warnings, 1)
	assert.Contains(t, c.AppConfig.Warnings[0], "config not loaded")
}

func TestContainer_SetEndpoint(t *testing.T) {
	tr := testutil.NewScriptedTransport()
	c := NewWithDeps(Config{}, nil, tr, slog.New(slog.NewTextHandler(io.Discard, nil)))

	c.SetEndpoint("http://other/api")
	ctrl := c.NewController(nil)
	require.NoError(t, ctrl.Start(t.Context(), "p"))

	assert.Equal(t, []string{"http://other/api?prompt=p"}, tr.URLs)
}

func TestContainer_NewProducer_PlanRelativeToProject(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plan.yaml"), []byte("tasks:\n  - title: One\n"), 0o600))
	cfg := domain.NewDefaultConfig()
	cfg.Serve.Plan = "plan.yaml"
	c := NewWithDeps(Config{ProjectDir: dir}, cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	srv, err := c.NewProducer()

	require.NoError(t, err)
	assert.NotNil(t, srv)
}

func TestContainer_NewProducer_MissingPlan(t *testing.T) {
	cfg := domain.NewDefaultConfig()
	cfg.Serve.Plan = "missing.yaml"
	c := NewWithDeps(Config{ProjectDir: t.TempDir()}, cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := c.NewProducer()

	assert.ErrorIs(t, err, os.ErrNotExist)
}
