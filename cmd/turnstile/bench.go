package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"mercator-hq/turnstile/pkg/cli"
	"mercator-hq/turnstile/pkg/limits/janitor"
	"mercator-hq/turnstile/pkg/limits/storage"
	"mercator-hq/turnstile/pkg/telemetry/health"
	"mercator-hq/turnstile/pkg/telemetry/logging"
	"mercator-hq/turnstile/pkg/telemetry/tracing"
)

var benchFlags struct {
	clients     int
	calls       int
	prefix      string
	metricsAddr string
	linger      time.Duration
	quiet       bool
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Simulate concurrent load against the limiter",
	Long: `Simulate concurrent clients against a single limiter.

The bench command starts clients x calls goroutines at once, releasing them
together, and reports how many calls each client had admitted. With a limit
of max_requests per window and a run shorter than the window, every client
is admitted exactly min(calls, max_requests) times.

Metrics Collected:
  - Admitted and denied calls per client
  - Total elapsed time and call throughput
  - Prometheus decision metrics (with --metrics-addr)

Examples:
  # 5 clients, 10 simultaneous calls each
  turnstile bench --clients 5 --calls 10

  # Heavy contention on one client
  turnstile bench --clients 1 --calls 10000

  # Expose metrics while running and for a minute afterwards
  turnstile bench --metrics-addr :9090 --linger 1m`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().IntVar(&benchFlags.clients, "clients", 5, "number of distinct clients")
	benchCmd.Flags().IntVar(&benchFlags.calls, "calls", 10, "simultaneous calls per client")
	benchCmd.Flags().StringVar(&benchFlags.prefix, "prefix", "client-", "client identifier prefix")
	benchCmd.Flags().StringVar(&benchFlags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	benchCmd.Flags().DurationVar(&benchFlags.linger, "linger", 0, "keep serving metrics this long after the run")
	benchCmd.Flags().BoolVarP(&benchFlags.quiet, "quiet", "q", false, "suppress the progress bar")
}

// benchClientResult counts decisions for one simulated client.
type benchClientResult struct {
	ClientID string `json:"client_id"`
	Admitted int    `json:"admitted"`
	Denied   int    `json:"denied"`
}

// benchReport summarizes a bench run.
type benchReport struct {
	RunID          string              `json:"run_id"`
	TraceID        string              `json:"trace_id,omitempty"`
	Clients        int                 `json:"clients"`
	CallsPerClient int                 `json:"calls_per_client"`
	MaxRequests    int                 `json:"max_requests"`
	Window         string              `json:"window"`
	Admitted       int                 `json:"admitted"`
	Denied         int                 `json:"denied"`
	ElapsedMS      float64             `json:"elapsed_ms"`
	Results        []benchClientResult `json:"results"`
}

func (r *benchReport) Header() []string {
	return []string{"CLIENT", "ADMITTED", "DENIED"}
}

func (r *benchReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Results))
	for _, res := range r.Results {
		rows = append(rows, []string{res.ClientID, strconv.Itoa(res.Admitted), strconv.Itoa(res.Denied)})
	}
	return rows
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchFlags.clients <= 0 {
		return cli.NewConfigError("clients", "must be positive")
	}
	if benchFlags.calls <= 0 {
		return cli.NewConfigError("calls", "must be positive")
	}

	format, formatter, err := outputFormatter()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	env, err := newEnvironment(cfg, runID, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, span := env.tracer.Start(logging.WithRunID(cmd.Context(), runID), "turnstile bench")
	defer span.End()
	span.SetAttributes(tracing.AttrRunID.String(runID))

	checker := health.New(2 * time.Second)
	if cfg.Audit.Backend != "" && cfg.Audit.Backend != "none" {
		checker.RegisterCheck("audit", func(ctx context.Context) error {
			_, err := env.manager.Decisions(ctx, &storage.Filter{Limit: 1})
			return err
		})
	}

	if cfg.Janitor.Enabled {
		scheduler := janitor.NewScheduler(env.manager, cfg.Janitor.Schedule, env.logger)
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("bench", err)
		}
		defer scheduler.Stop()

		checker.RegisterCheck("janitor", func(ctx context.Context) error {
			if !scheduler.IsRunning() {
				return errors.New("sweep scheduler is not running")
			}
			return nil
		})
	}

	if benchFlags.metricsAddr != "" {
		if !env.collector.Enabled() {
			return cli.NewConfigError("metrics-addr", "metrics are disabled in configuration")
		}
		addr, shutdown, err := serveMetrics(ctx, env, checker, benchFlags.metricsAddr)
		if err != nil {
			return cli.NewCommandError("bench", err)
		}
		defer shutdown()

		fmt.Fprintf(cmd.ErrOrStderr(), "Serving metrics on http://%s%s\n", addr, env.collector.Path())
	}

	var progress cli.ProgressReporter
	if !benchFlags.quiet && format == cli.FormatText {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr())
	}

	report := runLoad(ctx, env, progress)
	report.TraceID = tracing.TraceID(ctx)
	report.MaxRequests = cfg.Limiter.MaxRequests
	report.Window = cfg.Limiter.Window.String()

	env.logger.InfoContext(ctx, "bench completed",
		"clients", report.Clients,
		"calls_per_client", report.CallsPerClient,
		"admitted", report.Admitted,
		"denied", report.Denied,
		"elapsed_ms", report.ElapsedMS,
	)

	out := cmd.OutOrStdout()
	if format == cli.FormatText {
		displayBenchSummary(out, report)
	}
	if err := formatter.FormatTo(out, report); err != nil {
		return cli.NewCommandError("bench", err)
	}

	if benchFlags.metricsAddr != "" && benchFlags.linger > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(benchFlags.linger):
		}
	}

	return nil
}

// runLoad releases every simulated call at once and waits for all of them.
func runLoad(ctx context.Context, env *environment, progress cli.ProgressReporter) *benchReport {
	clients, calls := benchFlags.clients, benchFlags.calls

	admitted := make([]atomic.Int64, clients)
	clientIDs := make([]string, clients)
	for i := range clientIDs {
		clientIDs[i] = benchFlags.prefix + strconv.Itoa(i+1)
	}

	if progress != nil {
		progress.Start(int64(clients * calls))
	}

	start := make(chan struct{})
	var wg sync.WaitGroup
	for c := 0; c < clients; c++ {
		for k := 0; k < calls; k++ {
			wg.Add(1)
			go func(c int) {
				defer wg.Done()
				<-start
				if env.manager.Allow(ctx, clientIDs[c]) {
					admitted[c].Add(1)
				}
				if progress != nil {
					progress.Increment()
				}
			}(c)
		}
	}

	began := time.Now()
	close(start)
	wg.Wait()
	elapsed := time.Since(began)

	if progress != nil {
		progress.Finish()
	}

	report := &benchReport{
		RunID:          logging.GetRunID(ctx),
		Clients:        clients,
		CallsPerClient: calls,
		ElapsedMS:      float64(elapsed.Microseconds()) / 1000,
		Results:        make([]benchClientResult, 0, clients),
	}
	for c, id := range clientIDs {
		a := int(admitted[c].Load())
		report.Results = append(report.Results, benchClientResult{
			ClientID: id,
			Admitted: a,
			Denied:   calls - a,
		})
		report.Admitted += a
		report.Denied += calls - a
	}

	return report
}

func displayBenchSummary(w io.Writer, r *benchReport) {
	total := r.Admitted + r.Denied

	fmt.Fprintln(w, "Turnstile Benchmark")
	fmt.Fprintln(w, "===================")
	fmt.Fprintf(w, "Run ID:      %s\n", r.RunID)
	if r.TraceID != "" {
		fmt.Fprintf(w, "Trace ID:    %s\n", r.TraceID)
	}
	fmt.Fprintf(w, "Limit:       %d per %s\n", r.MaxRequests, r.Window)
	fmt.Fprintf(w, "Load:        %d clients x %d calls\n", r.Clients, r.CallsPerClient)
	fmt.Fprintf(w, "Calls:       %d total, %d admitted, %d denied\n", total, r.Admitted, r.Denied)
	fmt.Fprintf(w, "Elapsed:     %.1fms\n", r.ElapsedMS)
	if r.ElapsedMS > 0 {
		fmt.Fprintf(w, "Throughput:  %.0f calls/s\n", float64(total)/(r.ElapsedMS/1000))
	}
	fmt.Fprintln(w)
}

// serveMetrics exposes the collector's registry and the health probes on
// addr until the returned shutdown function is called. It returns the bound
// address, which differs from addr when addr has port 0.
func serveMetrics(ctx context.Context, env *environment, checker *health.Checker, addr string) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := env.collector.Mux()
	checker.Register(mux, health.VersionInfo{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			env.logger.ErrorContext(ctx, "metrics server failed", "error", err)
		}
	}()

	return ln.Addr().String(), func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}, nil
}
