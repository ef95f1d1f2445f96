/*
Package cli provides helpers shared by the keeper commands.

Output Formatting:

Expiration and sync results are printed as a table or as JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, cancel := cli.SetupSignalHandler(context.Background())
	defer cancel()

Exit Codes:

ExitCode maps command errors to the process exit status: 2 for
configuration errors, 1 for anything else.
*/
package cli
