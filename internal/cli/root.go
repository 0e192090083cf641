// Package cli provides the command-line interface for taskstream.
package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/runoshun/taskstream/internal/app"
	"github.com/runoshun/taskstream/internal/session"
	"github.com/runoshun/taskstream/internal/tui"
)

// Command group IDs.
const (
	groupStream = "stream"
	groupSetup  = "setup"
)

// launchTUIFunc is a function variable for launching the TUI, allowing it to be mocked in tests.
var launchTUIFunc = launchTUI

// NewRootCommand creates the root command for taskstream.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	var endpoint string

	root := &cobra.Command{
		Use:   "taskstream",
		Short: "Stream a task plan for a project idea",
		Long: `taskstream sends a project idea to a task-planning service and shows
the tasks as they stream in: each task appears as soon as the service
starts on it, its description fills in while it is written, and it is
marked completed when the next one begins.

Run without arguments to open the interactive view.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip if container is nil (e.g. in tests)
			if c == nil {
				return nil
			}

			for _, w := range c.AppConfig.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			if cmd.Flags().Changed("endpoint") {
				c.SetEndpoint(endpoint)
			}
			return nil
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return launchTUIFunc(cmd.Context(), c, "")
		},
	}

	root.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Task stream endpoint (overrides [stream] endpoint)")

	root.AddGroup(
		&cobra.Group{ID: groupStream, Title: "Streaming Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)

	tuiCmd := newTUICommand(c)
	tuiCmd.GroupID = groupStream

	streamCmd := newStreamCommand(c)
	streamCmd.GroupID = groupStream

	serveCmd := newServeCommand(c)
	serveCmd.GroupID = groupStream

	configCmd := newConfigCommand(c)
	configCmd.GroupID = groupSetup

	root.AddCommand(
		tuiCmd,
		streamCmd,
		serveCmd,
		configCmd,
	)

	return root
}

// launchTUI runs the interactive view until the user quits.
func launchTUI(_ context.Context, c *app.Container, prompt string) error {
	if c == nil {
		return errContainerRequired
	}
	pub := session.NewChannelPublisher()
	ctrl := c.NewController(pub)
	defer ctrl.Dispose()

	model := tui.New(ctrl, pub.C(), prompt)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
