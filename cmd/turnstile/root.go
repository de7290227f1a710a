package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/turnstile/pkg/cli"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
	output   string
)

var rootCmd = &cobra.Command{
	Use:   "turnstile",
	Short: "Turnstile - per-client sliding-window admission control",
	Long: `Turnstile decides whether a client may make another request now.

Each client may make at most max_requests requests within a trailing window.
Decisions are exact under concurrency: simultaneous calls for the same client
never admit more than the limit.

Configuration is read from a YAML file (--config) and TURNSTILE_* environment
variables. Without a file, built-in defaults apply.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a status derived from the
// returned error.
func Execute() {
	ctx, stop := cli.SetupSignalHandler(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "output format: text, json, csv")
}
