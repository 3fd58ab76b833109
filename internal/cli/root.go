package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/phylotangle/phylotangle/pkg/buildinfo"
	"github.com/phylotangle/phylotangle/pkg/config"
)

// configKey is the context key for the loaded configuration.
const configKey ctxKey = 1

// Execute runs the phylotangle CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// The function sets up the root command with all subcommands, loads the
// TOML configuration, and configures logging based on the --verbose flag.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger and configuration are attached to the context and accessible
// to all commands via loggerFromContext and configFromContext.
func Execute(ctx context.Context) error {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "phylotangle",
		Short:        "Phylotangle draws and compares phylogenetic trees",
		Long:         `Phylotangle is a CLI tool for parsing Newick trees, rendering phylograms and tanglegrams, and comparing tree topologies with the Robinson-Foulds distance.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cctx, configKey, cfg))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.config/phylotangle/config.toml)")

	root.AddCommand(newParseCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newTangleCmd())
	root.AddCommand(newDistanceCmd())
	root.AddCommand(newTreesCmd())
	root.AddCommand(newViewCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newCompletionCmd())

	return root.ExecuteContext(ctx)
}

// loadConfig loads the configuration from path, or from the default
// location when path is empty. A missing default file yields defaults.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return config.Default(), nil
		}
		path = p
	}
	return config.Load(path)
}

// configFromContext retrieves the configuration from ctx.
// If none is attached, it returns the built-in defaults.
func configFromContext(ctx context.Context) config.Config {
	if cfg, ok := ctx.Value(configKey).(config.Config); ok {
		return cfg
	}
	return config.Default()
}
