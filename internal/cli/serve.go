package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/runoshun/taskstream/internal/app"
	"github.com/runoshun/taskstream/internal/infra/producer"
)

// newServeCommand creates the serve command.
func newServeCommand(c *app.Container) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a demo task stream server",
		Long: `Run a local server that streams a task plan for any prompt.

The plan comes from the YAML file in [serve] plan, or from a built-in
delivery outline when none is set. Each description is sent in small
chunks so clients can show it being typed.

Endpoint: GET ` + producer.StreamPath + `?prompt=...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c == nil {
				return errContainerRequired
			}
			if addr == "" {
				addr = c.AppConfig.Serve.Addr
			}

			srv, err := c.NewProducer()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Serving task stream on http://%s%s\n", addr, producer.StreamPath)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides [serve] addr)")

	return cmd
}
