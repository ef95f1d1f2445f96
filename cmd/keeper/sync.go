package main

import (
	"github.com/spf13/cobra"

	"opengate-hq/keeper/pkg/cli"
	"opengate-hq/keeper/pkg/recordfs"
)

var syncFlags struct {
	limited bool
	output  string
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the catalog with the recordings directory",
	Long: `Reconcile the recordings catalog with the segment files on disk.

Rows whose file is gone are deleted, and segment files without a row are
added to the catalog. A full sync checks everything; --limited only checks
rows and files newer than record.sync_window.

The recordings directory must exist: an unmounted disk is reported as an
error instead of emptying the catalog.

Examples:
  # Full reconciliation
  keeper sync

  # Only the last record.sync_window
  keeper sync --limited`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVar(&syncFlags.limited, "limited", false, "only reconcile recent rows and files")
	syncCmd.Flags().StringVarP(&syncFlags.output, "output", "o", "text", "output format: text, json")
}

func runSync(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(syncFlags.output)
	if err != nil {
		return cli.NewConfigError("output", err.Error())
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	store, err := openCatalog(&cfg.Database)
	if err != nil {
		return cli.NewCommandError("sync", err)
	}
	defer store.Close()

	mode := recordfs.SyncFull
	if syncFlags.limited {
		mode = recordfs.SyncLimited
	}

	syncer := recordfs.NewSyncer(store, &recordfs.SyncConfig{
		Root:      cfg.Storage.RecordingsDir,
		Window:    cfg.Record.SyncWindow,
		BatchSize: cfg.Record.DeleteBatchSize,
	})

	result, err := syncer.Sync(commandContext(cmd), mode)
	if result != nil {
		if ferr := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result); ferr != nil {
			return ferr
		}
	}
	if err != nil {
		return cli.NewCommandError("sync", err)
	}
	return nil
}
