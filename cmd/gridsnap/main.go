// Command gridsnap snaps the shapes of a slide deck onto a layout grid.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/banshee-data/gridsnap/internal/config"
	"github.com/banshee-data/gridsnap/internal/monitoring"
	"github.com/banshee-data/gridsnap/internal/version"
)

// app holds the global flags and the logger of one invocation.
type app struct {
	configPath string
	verbose    bool
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "gridsnap",
		Short: "Snap slide shapes onto a layout grid",
		Long: `gridsnap aligns the shapes of a slide deck to a grid.

Each slide gets a grid built by recursively halving the slide width and
height. Every shape anchor (corners and centre) proposes a move onto the
nearest line or intersection; the smallest move within the configured
limits wins. Repeated shapes can then be grouped into templates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := monitoring.NewZapLogger(a.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			monitoring.UseZap(logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (.json, .yaml or .yml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.snapCmd(),
		a.templatesCmd(),
		a.gridCmd(),
		a.dbCmd(),
		versionCmd(),
	)
	return root
}

// loadConfig returns the --config file, or the defaults when none is given.
func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(a.configPath)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gridsnap %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
