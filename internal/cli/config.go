package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/runoshun/taskstream/internal/app"
	"github.com/runoshun/taskstream/internal/domain"
)

// newConfigCommand creates the config command.
func newConfigCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Manage taskstream configuration files and settings.`,
		// No RunE: shows subcommand list when called without arguments
	}

	cmd.AddCommand(newConfigShowCommand(c))
	cmd.AddCommand(newConfigTemplateCommand())
	cmd.AddCommand(newConfigInitCommand(c))

	return cmd
}

// newConfigShowCommand creates the config show subcommand.
func newConfigShowCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration",
		Long: `Display effective configuration after merging all sources.

Precedence: built-in defaults, then the global file, then ./` + domain.ProjectConfigFileName + `.
The --endpoint flag is applied on top.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c == nil {
				return errContainerRequired
			}
			w := cmd.OutOrStdout()

			_, _ = fmt.Fprintln(w, "[Loaded from]")
			printSource(w, c.ConfigLoader.GlobalPath())
			printSource(w, c.ConfigLoader.ProjectPath())
			_, _ = fmt.Fprintln(w)

			_, _ = fmt.Fprintln(w, "[Effective Config]")
			return formatEffectiveConfig(w, c.AppConfig)
		},
	}
	return cmd
}

func printSource(w io.Writer, path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err == nil {
		_, _ = fmt.Fprintf(w, "- %s\n", path)
	} else {
		_, _ = fmt.Fprintf(w, "- %s (not found)\n", path)
	}
}

// formatEffectiveConfig writes cfg as TOML.
func formatEffectiveConfig(w io.Writer, cfg *domain.Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// newConfigTemplateCommand creates the config template subcommand.
func newConfigTemplateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Output configuration template",
		Long: `Output the commented configuration template with default values to stdout.

It does not read existing configuration files and works even if they are broken.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), domain.RenderConfigTemplate(domain.NewDefaultConfig()))
			return nil
		},
	}
	return cmd
}

// newConfigInitCommand creates the config init subcommand.
func newConfigInitCommand(c *app.Container) *cobra.Command {
	var global, force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate configuration file template",
		Long: `Generate a configuration file template.

By default, creates ./` + domain.ProjectConfigFileName + ` in the current directory.
With --global, creates the global configuration file at ~/.config/taskstream/config.toml.

Error conditions:
- Target file already exists: error (use --force to overwrite)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c == nil {
				return errContainerRequired
			}
			cfg := domain.NewDefaultConfig()

			var path string
			var err error
			if global {
				path, err = c.ConfigManager.InitGlobal(cfg, force)
			} else {
				path, err = c.ConfigManager.InitProject(cfg, force)
			}
			if err != nil {
				if path != "" {
					return fmt.Errorf("%s: %w", path, err)
				}
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Generate global configuration")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
