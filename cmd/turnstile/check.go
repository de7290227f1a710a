package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"mercator-hq/turnstile/pkg/cli"
	"mercator-hq/turnstile/pkg/limits"
	"mercator-hq/turnstile/pkg/telemetry/logging"
	"mercator-hq/turnstile/pkg/telemetry/tracing"
)

var checkFlags struct {
	failOnDeny bool
}

var checkCmd = &cobra.Command{
	Use:   "check [client-id...]",
	Short: "Check client identifiers against the limit",
	Long: `Run each client identifier through the admission limiter, in order,
and print one decision per call.

Identifiers are taken from the arguments. Without arguments they are read
from stdin, one per line; blank lines are ignored.

All calls share one limiter, so repeating an identifier consumes its quota:

  turnstile check alice alice alice alice alice alice

admits the first five calls and denies the sixth under the default limit.

Examples:
  # Check identifiers given as arguments
  turnstile check 10.0.0.7 10.0.0.8

  # Check identifiers from a file with a custom limit
  turnstile check --config turnstile.yaml < clients.txt

  # JSON output, failing when any call is denied
  turnstile check -o json --fail-on-deny alice bob`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkFlags.failOnDeny, "fail-on-deny", false, "exit non-zero if any call is denied")
}

// checkResult is the outcome of one call.
type checkResult struct {
	Seq      int    `json:"seq"`
	ClientID string `json:"client_id"`
	Allowed  bool   `json:"allowed"`
}

// checkReport lists decisions in call order.
type checkReport []checkResult

func (r checkReport) Header() []string {
	return []string{"SEQ", "CLIENT", "RESULT"}
}

func (r checkReport) Rows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, res := range r {
		result := limits.ResultDenied
		if res.Allowed {
			result = limits.ResultAllowed
		}
		rows = append(rows, []string{strconv.Itoa(res.Seq), res.ClientID, result})
	}
	return rows
}

func (r checkReport) denied() int {
	n := 0
	for _, res := range r {
		if !res.Allowed {
			n++
		}
	}
	return n
}

func runCheck(cmd *cobra.Command, args []string) error {
	_, formatter, err := outputFormatter()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	clientIDs := args
	if len(clientIDs) == 0 {
		clientIDs, err = readClientIDs(cmd)
		if err != nil {
			return cli.NewCommandError("check", err)
		}
	}

	runID := uuid.NewString()
	env, err := newEnvironment(cfg, runID, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, span := env.tracer.Start(logging.WithRunID(cmd.Context(), runID), "turnstile check")
	defer span.End()
	span.SetAttributes(tracing.AttrRunID.String(runID))

	report := make(checkReport, 0, len(clientIDs))
	for i, clientID := range clientIDs {
		report = append(report, checkResult{
			Seq:      i + 1,
			ClientID: clientID,
			Allowed:  env.manager.Allow(ctx, clientID),
		})
	}

	if err := formatter.FormatTo(cmd.OutOrStdout(), report); err != nil {
		return cli.NewCommandError("check", err)
	}

	if denied := report.denied(); checkFlags.failOnDeny && denied > 0 {
		return cli.NewCommandError("check", fmt.Errorf("%d of %d calls denied", denied, len(report)))
	}

	return nil
}

// readClientIDs reads one identifier per non-blank line of the command's
// input.
func readClientIDs(cmd *cobra.Command) ([]string, error) {
	var ids []string
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read client identifiers: %w", err)
	}
	return ids, nil
}
