package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"opengate-hq/keeper/pkg/retention"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file with environment overrides and defaults,
validate it, and print the effective retention of every camera.

Examples:
  keeper config validate -c /config/keeper.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n\n", cfgFile)

	plan := retention.PlanFromConfig(cfg)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CAMERA\tRETAIN DAYS\tMODE\tENABLED")
	for _, policy := range plan.Cameras {
		enabled := cfg.Cameras[policy.Camera].IsEnabled()
		fmt.Fprintf(tw, "%s\t%g\t%s\t%t\n", policy.Camera, policy.Days, policy.Mode, enabled)
	}
	fmt.Fprintf(tw, "(orphaned)\t%g\t-\t-\n", plan.DefaultDays)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nCatalog: %s (%s)\n", cfg.Database.Path, cfg.Database.Driver)
	fmt.Fprintf(out, "Recordings: %s\n", cfg.Storage.RecordingsDir)
	if cfg.Record.SyncRecordings {
		fmt.Fprintf(out, "Sync: daily at %02d:00 UTC, window %s\n", *cfg.Record.SyncHour, cfg.Record.SyncWindow)
	}
	if cfg.Record.DryRun {
		fmt.Fprintln(out, "Dry run: enabled")
	}
	return nil
}
