package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/turnstile/pkg/cli"
	"mercator-hq/turnstile/pkg/limits"
	"mercator-hq/turnstile/pkg/limits/storage"
)

var auditFlags struct {
	client  string
	allowed bool
	denied  bool
	runID   string
	since   time.Duration
	limit   int
	purge   bool
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the decision audit log",
	Long: `List admission decisions recorded in the audit log, newest first.

Only the sqlite backend persists decisions between invocations; the memory
backend starts empty in every process.

With --purge, decisions older than audit.retention are deleted instead of
listed.

Examples:
  # Last 100 decisions
  turnstile audit --config turnstile.yaml

  # Denials for one client in the last hour
  turnstile audit --client 10.0.0.7 --denied --since 1h

  # Export as CSV
  turnstile audit -o csv --limit 0 > decisions.csv

  # Apply the retention policy
  turnstile audit --purge`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVar(&auditFlags.client, "client", "", "filter by client identifier")
	auditCmd.Flags().BoolVar(&auditFlags.allowed, "allowed", false, "only allowed decisions")
	auditCmd.Flags().BoolVar(&auditFlags.denied, "denied", false, "only denied decisions")
	auditCmd.Flags().StringVar(&auditFlags.runID, "run-id", "", "filter by run ID")
	auditCmd.Flags().DurationVar(&auditFlags.since, "since", 0, "only decisions newer than this age")
	auditCmd.Flags().IntVar(&auditFlags.limit, "limit", 100, "max results (0 for all)")
	auditCmd.Flags().BoolVar(&auditFlags.purge, "purge", false, "delete decisions older than the retention period")

	auditCmd.MarkFlagsMutuallyExclusive("allowed", "denied")
}

// decisionTable renders audit decisions.
type decisionTable []*storage.Decision

func (t decisionTable) Header() []string {
	return []string{"TIME", "CLIENT", "RESULT", "RUN", "ID"}
}

func (t decisionTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, d := range t {
		result := limits.ResultDenied
		if d.Allowed {
			result = limits.ResultAllowed
		}
		rows = append(rows, []string{
			d.Timestamp.Format(time.RFC3339Nano),
			d.ClientID,
			result,
			d.RunID,
			d.ID,
		})
	}
	return rows
}

// purgeResult reports an applied retention policy.
type purgeResult struct {
	Retention string `json:"retention"`
	Deleted   int    `json:"deleted"`
}

func (r purgeResult) Header() []string {
	return []string{"RETENTION", "DELETED"}
}

func (r purgeResult) Rows() [][]string {
	return [][]string{{r.Retention, strconv.Itoa(r.Deleted)}}
}

func runAudit(cmd *cobra.Command, args []string) error {
	_, formatter, err := outputFormatter()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	backend, err := limits.OpenAudit(cfg.Audit)
	if err != nil {
		return cli.NewConfigError("audit", err.Error())
	}
	if backend == nil {
		return cli.NewConfigError("audit.backend", limits.ErrAuditDisabled.Error())
	}
	defer backend.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if auditFlags.purge {
		if cfg.Audit.Retention <= 0 {
			return cli.NewConfigError("audit.retention", "retention is disabled")
		}
		deleted, err := backend.Cleanup(ctx, time.Now().Add(-cfg.Audit.Retention))
		if err != nil {
			return cli.NewCommandError("audit", err)
		}
		return formatter.FormatTo(out, purgeResult{
			Retention: cfg.Audit.Retention.String(),
			Deleted:   deleted,
		})
	}

	decisions, err := backend.Query(ctx, auditFilter(time.Now()))
	if err != nil {
		return cli.NewCommandError("audit", err)
	}

	if err := formatter.FormatTo(out, decisionTable(decisions)); err != nil {
		return cli.NewCommandError("audit", err)
	}
	return nil
}

// auditFilter builds a query filter from the audit flags.
func auditFilter(now time.Time) *storage.Filter {
	filter := &storage.Filter{
		RunID: auditFlags.runID,
		Limit: auditFlags.limit,
	}

	if auditFlags.client != "" {
		client := auditFlags.client
		filter.ClientID = &client
	}
	switch {
	case auditFlags.allowed:
		allowed := true
		filter.Allowed = &allowed
	case auditFlags.denied:
		allowed := false
		filter.Allowed = &allowed
	}
	if auditFlags.since > 0 {
		filter.Since = now.Add(-auditFlags.since)
	}

	return filter
}
