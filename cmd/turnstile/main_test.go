package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// executeCommand runs the root command with args and stdin, returning what
// was written to stdout and stderr. Flag values from earlier runs are reset.
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	resetFlags(rootCmd)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "turnstile.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// quietConfig disables the janitor and keeps logs at warn level.
const quietConfig = `
janitor:
  enabled: false
telemetry:
  logging:
    level: warn
`

func TestRootCommandTree(t *testing.T) {
	want := []string{"audit", "bench", "check", "validate", "version"}

	have := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}

	for _, name := range want {
		if !have[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestRootCommandUnknownOutput(t *testing.T) {
	_, _, err := executeCommand(t, "", "check", "-o", "yaml", "alice")
	if err == nil {
		t.Fatal("expected error for unknown output format")
	}
}
