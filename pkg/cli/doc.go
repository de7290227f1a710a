/*
Package cli provides command-line interface utilities for turnstile.

The cli package includes output formatters, progress reporters, typed
errors with exit codes and signal handling used by the turnstile command.

Output Formatting:

Results implementing Table render as aligned text or CSV; any result
renders as JSON:

	format, err := cli.ParseFormat(outputFlag)
	if err != nil {
		return err
	}
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, result); err != nil {
		return err
	}

Progress Reporting:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(totalCalls)
	// from any goroutine
	progress.Increment()
	progress.Finish()

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
