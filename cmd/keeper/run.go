package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"opengate-hq/keeper/pkg/cli"
	"opengate-hq/keeper/pkg/config"
	"opengate-hq/keeper/pkg/recordfs"
	"opengate-hq/keeper/pkg/retention"
	"opengate-hq/keeper/pkg/server"
	"opengate-hq/keeper/pkg/telemetry/health"
	"opengate-hq/keeper/pkg/telemetry/metrics"
	"opengate-hq/keeper/pkg/telemetry/tracing"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the maintenance loop",
	Long: `Start the retention daemon.

Every record.tick_interval the loop removes stale scratch clips and, once a
day at record.sync_hour UTC, reconciles recent catalog rows with the disk.
Every record.expire_interval ticks it runs an expiration pass and removes
empty recording directories.

Changes to the configuration file are picked up at the next expiration pass.
SIGINT or SIGTERM stop the loop after the current pass.

Examples:
  # Start with the default config path
  keeper run

  # Start with a custom config
  keeper run --config /etc/keeper/keeper.yaml`,
	Args: cobra.NoArgs,
	RunE: runKeeper,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runKeeper(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	ctx, cancel := cli.SetupSignalHandler(commandContext(cmd))
	defer cancel()

	slog.Info("starting keeper", "version", Version, "config", cfgFile)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize tracing: %w", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	store, err := openCatalog(&cfg.Database)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer store.Close()

	expirer := retention.NewExpirer(store,
		&retention.ExpirerConfig{
			BatchSize: cfg.Record.DeleteBatchSize,
			DryRun:    cfg.Record.DryRun,
		},
		retention.WithMetrics(collector),
		retention.WithTracer(tracer),
	)

	syncHour := config.DefaultSyncHour
	if cfg.Record.SyncHour != nil {
		syncHour = *cfg.Record.SyncHour
	}

	scheduler, err := retention.NewScheduler(expirer, currentPlan,
		&retention.SchedulerConfig{
			TickInterval:   cfg.Record.TickInterval,
			ExpireInterval: cfg.Record.ExpireInterval,
			SyncEnabled:    cfg.Record.SyncRecordings,
			SyncHour:       syncHour,
			RecordingsDir:  cfg.Storage.RecordingsDir,
		},
		retention.WithSyncer(recordfs.NewSyncer(store,
			&recordfs.SyncConfig{
				Root:      cfg.Storage.RecordingsDir,
				Window:    cfg.Record.SyncWindow,
				BatchSize: cfg.Record.DeleteBatchSize,
			},
			recordfs.WithSyncTracer(tracer),
		)),
		retention.WithReaper(recordfs.NewReaper(&recordfs.ReaperConfig{
			Dir:     cfg.Storage.CacheDir,
			Pattern: cfg.Storage.TmpClipPattern,
			MaxAge:  cfg.Storage.TmpClipMaxAge,
		})),
		retention.WithCompactor(recordfs.NewCompactor(cfg.Storage.RecordingsDir)),
		retention.WithSchedulerMetrics(collector),
	)
	if err != nil {
		return cli.NewConfigError("record.sync_hour", err.Error())
	}

	if err := scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	defer scheduler.Stop()

	watcher, err := config.NewWatcher(cfgFile, 0)
	if err != nil {
		slog.Warn("configuration hot reload disabled", "error", err)
	} else {
		defer watcher.Stop()
		go func() {
			if err := watcher.Watch(ctx, reloadConfig); err != nil {
				slog.Warn("configuration watcher stopped", "error", err)
			}
		}()
	}

	checker := health.New(0)
	checker.RegisterCheck("catalog", health.PingCheck(store))
	checker.RegisterCheck("scheduler", health.HeartbeatCheck(scheduler.LastTick, 3*cfg.Record.TickInterval))

	var serverErr <-chan error
	if cfg.Telemetry.Metrics.Enabled {
		srv := server.NewServer(&cfg.Telemetry.Metrics, collector, checker, server.BuildInfo{
			Version:   Version,
			Commit:    GitCommit,
			BuildTime: BuildDate,
		})
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start(ctx)
		}()
		serverErr = errCh
	}

	slog.Info("keeper running",
		"cameras", len(cfg.Cameras),
		"tick_interval", cfg.Record.TickInterval,
		"expire_interval", cfg.Record.ExpireInterval,
		"dry_run", cfg.Record.DryRun,
	)

	// serverErr is nil without an ops server and never fires.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		if serverErr != nil {
			if err := <-serverErr; err != nil {
				slog.Error("ops server shutdown failed", "error", err)
			}
		}
		return nil
	case err := <-serverErr:
		return cli.NewCommandError("run", err)
	}
}

// currentPlan builds the retention plan from the configuration in effect,
// so reloads apply at the next pass.
func currentPlan() retention.Plan {
	return retention.PlanFromConfig(config.GetConfig())
}

func reloadConfig(path string) error {
	if err := config.ReloadConfig(path); err != nil {
		return err
	}
	cfg := config.GetConfig()
	slog.Info("configuration reloaded",
		"path", path,
		"cameras", len(cfg.Cameras),
		"default_retain_days", cfg.Record.DefaultRetainDays(),
	)
	return nil
}
