// Package cli provides the command-line interface for corrflux.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/qchemtools/corrflux/internal/config"
	"github.com/qchemtools/corrflux/internal/logging"
)

var (
	// Global flags
	cfgFile string
	dbPath  string
	verbose bool

	// Global logger
	logger zerolog.Logger
)

// Version information - set by main package at startup.
var (
	Version   = "v0.3.0-dev"
	BuildTime = "unknown"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "corrflux",
		Short: "Orchestrates correlation-indicator calculations on an HPC cluster",
		Long: `corrflux ` + Version + ` - Built: ` + BuildTime + `
Runs multi-stage quantum-chemistry calculation fluxes on a remote SLURM
cluster and caches every finished calculation in a local registry, so the
same calculation never runs twice.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefault()
			logging.SetVerbose(verbose)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "corrflux.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "registry database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newStatusCmd())

	return rootCmd
}

// Execute runs the CLI with a signal-cancelled root context.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return NewRootCmd().ExecuteContext(ctx)
}

// loadConfig resolves the configuration file plus global overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database = dbPath
	}
	return cfg, nil
}
