package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"opengate-hq/keeper/pkg/cli"
	"opengate-hq/keeper/pkg/retention"
)

var expireFlags struct {
	camera string
	dryRun bool
	output string
}

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Run one expiration pass",
	Long: `Run one expiration pass over every configured camera, followed by the
sweep of recordings from cameras that are no longer configured.

With --camera only that camera is expired and the orphan sweep is skipped.
With --dry-run the decisions are reported but no file or row is removed.

Examples:
  # Expire everything that is due
  keeper expire

  # Preview what would be removed for one camera
  keeper expire --camera front --dry-run

  # Machine-readable summary
  keeper expire --output json`,
	Args: cobra.NoArgs,
	RunE: runExpire,
}

func init() {
	rootCmd.AddCommand(expireCmd)

	expireCmd.Flags().StringVar(&expireFlags.camera, "camera", "", "expire a single configured camera")
	expireCmd.Flags().BoolVar(&expireFlags.dryRun, "dry-run", false, "report decisions without deleting")
	expireCmd.Flags().StringVarP(&expireFlags.output, "output", "o", "text", "output format: text, json")
}

func runExpire(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(expireFlags.output)
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

	plan := retention.PlanFromConfig(cfg)
	var policy retention.Policy
	if expireFlags.camera != "" {
		var ok bool
		if policy, ok = plan.Policy(expireFlags.camera); !ok {
			return cli.NewConfigError("camera", fmt.Sprintf("camera %q is not configured", expireFlags.camera))
		}
	}

	store, err := openCatalog(&cfg.Database)
	if err != nil {
		return cli.NewCommandError("expire", err)
	}
	defer store.Close()

	expirer := retention.NewExpirer(store, &retention.ExpirerConfig{
		BatchSize: cfg.Record.DeleteBatchSize,
		DryRun:    expireFlags.dryRun || cfg.Record.DryRun,
	})

	ctx := commandContext(cmd)
	formatter := cli.NewFormatter(format)

	if expireFlags.camera != "" {
		result, passErr := expirer.ExpireCamera(ctx, policy)
		if err := formatter.FormatTo(cmd.OutOrStdout(), result); err != nil {
			return err
		}
		if passErr != nil {
			return cli.NewCommandError("expire", passErr)
		}
		return nil
	}

	result, passErr := expirer.Expire(ctx, plan)
	if err := formatter.FormatTo(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if passErr != nil {
		return cli.NewCommandError("expire", passErr)
	}
	return nil
}
