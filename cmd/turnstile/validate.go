package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"mercator-hq/turnstile/pkg/cli"
	"mercator-hq/turnstile/pkg/config"
)

var validateFlags struct {
	show bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate configuration, including TURNSTILE_* environment
overrides, and report every invalid field.

With --show, the effective configuration is printed as YAML after defaults
and overrides have been applied.

Examples:
  # Validate a file
  turnstile validate --config turnstile.yaml

  # Show the effective configuration
  turnstile validate --config turnstile.yaml --show

  # Show the built-in defaults
  turnstile validate --show`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.show, "show", false, "print the effective configuration")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if validateFlags.show {
		data, err := config.Marshal(cfg)
		if err != nil {
			return cli.NewCommandError("validate", err)
		}
		_, err = out.Write(data)
		return err
	}

	source := cfgFile
	if source == "" {
		source = "defaults"
	}
	fmt.Fprintf(out, "Configuration valid (%s)\n", source)
	fmt.Fprintf(out, "  Limit:   %d requests per %s\n", cfg.Limiter.MaxRequests, cfg.Limiter.Window)
	fmt.Fprintf(out, "  Audit:   %s (record %s)\n", cfg.Audit.Backend, cfg.Audit.Record)
	if cfg.Janitor.Enabled {
		fmt.Fprintf(out, "  Janitor: %s\n", cfg.Janitor.Schedule)
	} else {
		fmt.Fprintln(out, "  Janitor: disabled")
	}

	return nil
}
