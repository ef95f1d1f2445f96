package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"opengate-hq/keeper/pkg/cli"
	"opengate-hq/keeper/pkg/recordfs"
)

var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Remove stale scratch clips",
	Long: `Remove scratch clips left in storage.cache_dir by interrupted clip
exports. Files matching storage.tmp_clip_pattern that were last modified
more than storage.tmp_clip_max_age ago are deleted.`,
	Args: cobra.NoArgs,
	RunE: runReap,
}

func init() {
	rootCmd.AddCommand(reapCmd)
}

func runReap(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	reaper := recordfs.NewReaper(&recordfs.ReaperConfig{
		Dir:     cfg.Storage.CacheDir,
		Pattern: cfg.Storage.TmpClipPattern,
		MaxAge:  cfg.Storage.TmpClipMaxAge,
	})

	removed, err := reaper.Reap(commandContext(cmd))
	if err != nil {
		return cli.NewCommandError("reap", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stale clips from %s\n", removed, cfg.Storage.CacheDir)
	return nil
}
