package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/runoshun/taskstream/internal/app"
	"github.com/runoshun/taskstream/internal/domain"
	"github.com/runoshun/taskstream/internal/session"
)

// errStreamFailed is returned when the stream ends with an error.
var errStreamFailed = errors.New("task stream failed")

// newStreamCommand creates the stream command.
func newStreamCommand(c *app.Container) *cobra.Command {
	var opts struct {
		json  bool
		quiet bool
	}

	cmd := &cobra.Command{
		Use:   "stream <prompt...>",
		Short: "Stream tasks for a prompt without the TUI",
		Long: `Stream tasks for a prompt and print them as plain text.

Progress lines are written to stderr as tasks appear and complete.
When the stream ends, the final task list is printed to stdout as a
table, or as JSON with --json.

Exits with status 1 when the service reports an error or the connection fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c == nil {
				return errContainerRequired
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			progress := io.Writer(cmd.ErrOrStderr())
			if opts.quiet {
				progress = io.Discard
			}
			snap, err := runStream(ctx, c, strings.Join(args, " "), newProgressPrinter(progress))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.json {
				if err := printTasksJSON(w, snap.Tasks); err != nil {
					return err
				}
			} else if len(snap.Tasks) > 0 {
				printTasksTable(w, snap.Tasks)
			}

			if snap.Failed {
				if snap.Err == "" {
					return errStreamFailed
				}
				return fmt.Errorf("%w: %s", errStreamFailed, snap.Err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the final task list as JSON")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Do not print progress")

	return cmd
}

// runStream runs one session to its end. Interrupting ctx disposes the
// session and returns what was received so far with ctx's error.
func runStream(ctx context.Context, c *app.Container, prompt string, pub session.Publisher) (session.Snapshot, error) {
	ctrl := c.NewController(pub)
	defer ctrl.Dispose()

	if err := ctrl.Start(ctx, prompt); err != nil {
		return session.Snapshot{}, err
	}
	snap, err := ctrl.Wait(ctx)
	if err != nil {
		return snap, fmt.Errorf("interrupted: %w", err)
	}
	return snap, nil
}

// progressPrinter writes one line when a task appears and one when it
// completes. It runs inside the controller's publish call.
type progressPrinter struct {
	w         io.Writer
	seen      map[string]bool
	completed map[string]bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{
		w:         w,
		seen:      make(map[string]bool),
		completed: make(map[string]bool),
	}
}

// Publish implements session.Publisher.
func (p *progressPrinter) Publish(s session.Snapshot) {
	for _, t := range s.Tasks {
		if !p.seen[t.ID] {
			p.seen[t.ID] = true
			_, _ = fmt.Fprintf(p.w, "… %s\n", taskLabel(t))
		}
		if t.Status.IsCompleted() && !p.completed[t.ID] {
			p.completed[t.ID] = true
			_, _ = fmt.Fprintf(p.w, "✓ %s\n", taskLabel(t))
		}
	}
	if s.State == domain.SessionTerminated && s.Failed {
		_, _ = fmt.Fprintf(p.w, "✗ %s\n", s.Err)
	}
}

func taskLabel(t domain.Task) string {
	if t.Title != "" {
		return t.Title
	}
	return "task " + t.ID
}

func printTasksTable(w io.Writer, tasks domain.Collection) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"#", "Title", "Status", "Tags", "Description"})
	for i, t := range tasks {
		tw.AppendRow(table.Row{i + 1, t.Title, t.Status.Display(), strings.Join(t.Tags, ", "), t.Description})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 40},
		{Number: 5, WidthMax: 60},
	})
	tw.Render()
}

func printTasksJSON(w io.Writer, tasks domain.Collection) error {
	if tasks == nil {
		tasks = domain.Collection{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tasks)
}
