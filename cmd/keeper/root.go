package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"opengate-hq/keeper/pkg/catalog"
	"opengate-hq/keeper/pkg/cli"
	"opengate-hq/keeper/pkg/config"
	"opengate-hq/keeper/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "keeper",
	Short: "Keeper - recording retention for OpenGate",
	Long: `Keeper expires recorded video segments once they fall outside the
retention window of their camera.

Segments inside the window are always kept. Older segments are kept only when
an event overlaps them and the camera's retention mode is satisfied:
  - all: any overlapping event keeps the segment
  - motion: the segment must also contain motion
  - active_objects: the segment must also contain active objects

Recordings of cameras that are no longer configured expire after the default
retention.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.ExitCode(err)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "/config/keeper.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadConfig reads the configuration file with environment overrides and
// installs it as the global configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}
	config.SetConfig(cfg)
	return cfg, nil
}

// setupLogging installs the configured logger as the slog default. Component
// loggers are derived from the default when they are constructed, so this
// must run before anything else is built.
func setupLogging(cfg *config.Config) error {
	logCfg := logging.FromConfig(cfg.Telemetry.Logging)
	if verbose {
		logCfg.Level = "debug"
	}

	logger, err := logging.New(logCfg)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)
	return nil
}

// openCatalog opens the SQLite catalog described by cfg.
func openCatalog(cfg *config.DatabaseConfig) (*catalog.SQLiteStore, error) {
	store, err := catalog.OpenSQLite(&catalog.SQLiteConfig{
		Path:         cfg.Path,
		Driver:       cfg.Driver,
		JournalMode:  cfg.JournalMode,
		BusyTimeout:  cfg.BusyTimeout,
		MaxOpenConns: cfg.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", cfg.Path, err)
	}
	return store, nil
}

// commandContext returns the command's context, or Background when the
// command is invoked directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
