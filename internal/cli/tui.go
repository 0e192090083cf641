package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runoshun/taskstream/internal/app"
)

var errContainerRequired = errors.New("configuration is not available")

// newTUICommand creates the tui command for launching the interactive TUI.
// Running `taskstream` without arguments does the same without a prompt.
func newTUICommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui [prompt...]",
		Short: "Launch interactive TUI",
		Long: `Launch the interactive terminal user interface.

When a prompt is given, generation starts immediately.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return launchTUIFunc(cmd.Context(), c, strings.Join(args, " "))
		},
	}
	return cmd
}
