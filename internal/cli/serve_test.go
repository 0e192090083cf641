package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/taskstream/internal/app"
	"github.com/runoshun/taskstream/internal/domain"
	"github.com/runoshun/taskstream/internal/infra/producer"
)

func TestServeCommand_StopsWhenContextDone(t *testing.T) {
	c := app.NewWithDeps(app.Config{ProjectDir: t.TempDir()}, nil, nil, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newServeCommand(c)
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--addr", "127.0.0.1:0"})

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Contains(t, stderr.String(), "127.0.0.1:0"+producer.StreamPath)
}

func TestServeCommand_MissingPlanFile(t *testing.T) {
	cfg := domain.NewDefaultConfig()
	cfg.Serve.Plan = "missing.yaml"
	c := app.NewWithDeps(app.Config{ProjectDir: t.TempDir()}, cfg, nil, discardLogger())

	cmd := newServeCommand(c)
	cmd.SetArgs([]string{"--addr", "127.0.0.1:0"})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "read plan")
}

func TestServeCommand_RequiresContainer(t *testing.T) {
	cmd := newServeCommand(nil)
	cmd.SetArgs([]string{})
	assert.ErrorIs(t, cmd.Execute(), errContainerRequired)
}
