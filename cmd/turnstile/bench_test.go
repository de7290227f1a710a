package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/turnstile/pkg/cli"
	"mercator-hq/turnstile/pkg/config"
	"mercator-hq/turnstile/pkg/limits/storage"
	"mercator-hq/turnstile/pkg/telemetry/health"
)

func TestBench_ClientsByCalls(t *testing.T) {
	path := writeConfig(t, quietConfig)

	tests := []struct {
		name         string
		clients      string
		calls        string
		wantAdmitted int
	}{
		{"fewer calls than limit", "3", "4", 4},
		{"calls at limit", "2", "5", 5},
		{"simultaneous burst", "5", "10", 5},
		{"single hot client", "1", "500", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := executeCommand(t, "", "bench", "--config", path,
				"--clients", tt.clients, "--calls", tt.calls, "-o", "json")
			if err != nil {
				t.Fatalf("bench failed: %v", err)
			}

			var report benchReport
			if err := json.Unmarshal([]byte(out), &report); err != nil {
				t.Fatalf("output is not valid JSON: %v\n%s", err, out)
			}

			if report.RunID == "" {
				t.Error("expected a run ID")
			}
			if len(report.Results) != report.Clients {
				t.Fatalf("expected %d results, got %d", report.Clients, len(report.Results))
			}
			for _, r := range report.Results {
				if r.Admitted != tt.wantAdmitted {
					t.Errorf("%s: admitted = %d, want %d", r.ClientID, r.Admitted, tt.wantAdmitted)
				}
				if r.Admitted+r.Denied != report.CallsPerClient {
					t.Errorf("%s: admitted+denied = %d, want %d", r.ClientID, r.Admitted+r.Denied, report.CallsPerClient)
				}
			}
			if report.Admitted != tt.wantAdmitted*report.Clients {
				t.Errorf("total admitted = %d, want %d", report.Admitted, tt.wantAdmitted*report.Clients)
			}
		})
	}
}

func TestBench_TextOutput(t *testing.T) {
	path := writeConfig(t, quietConfig)

	out, stderr, err := executeCommand(t, "", "bench", "--config", path, "--clients", "2", "--calls", "6")
	if err != nil {
		t.Fatalf("bench failed: %v", err)
	}

	for _, want := range []string{"Run ID:", "Limit:       5 per 1m0s", "12 total, 10 admitted, 2 denied", "client-1", "client-2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(stderr, "Progress:") {
		t.Errorf("expected progress on stderr, got:\n%s", stderr)
	}
}

func TestBench_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero clients", []string{"bench", "--clients", "0"}},
		{"negative calls", []string{"bench", "--calls", "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(t, "", tt.args...)
			if code := cli.ExitCode(err); code != cli.ExitConfigError {
				t.Errorf("exit code = %d, want %d (err: %v)", code, cli.ExitConfigError, err)
			}
		})
	}
}

func TestBench_MetricsAddr(t *testing.T) {
	path := writeConfig(t, quietConfig)

	_, stderr, err := executeCommand(t, "", "bench", "--config", path,
		"--clients", "1", "--calls", "3", "--quiet", "--metrics-addr", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("bench failed: %v", err)
	}
	if !strings.Contains(stderr, "Serving metrics on http://127.0.0.1:") {
		t.Errorf("expected metrics address on stderr, got:\n%s", stderr)
	}
}

func TestBench_MetricsDisabled(t *testing.T) {
	path := writeConfig(t, quietConfig+`
  metrics:
    enabled: false
`)

	_, _, err := executeCommand(t, "", "bench", "--config", path, "--metrics-addr", "127.0.0.1:0")
	if code := cli.ExitCode(err); code != cli.ExitConfigError {
		t.Errorf("exit code = %d, want %d (err: %v)", code, cli.ExitConfigError, err)
	}
}

func TestServeMetrics(t *testing.T) {
	cfg := config.Default()
	cfg.Audit.Backend = "sqlite"
	cfg.Audit.SQLite.Path = filepath.Join(t.TempDir(), "audit.db")

	env, err := newEnvironment(cfg, "run-1", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("newEnvironment failed: %v", err)
	}
	defer env.Close()

	checker := health.New(time.Second)
	checker.RegisterCheck("audit", func(ctx context.Context) error {
		_, err := env.manager.Decisions(ctx, &storage.Filter{Limit: 1})
		return err
	})

	ctx := context.Background()
	for i := 0; i < 6; i++ {
		env.manager.Allow(ctx, "alice")
	}

	addr, shutdown, err := serveMetrics(ctx, env, checker, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("serveMetrics failed: %v", err)
	}
	defer shutdown()

	get := func(path string) (int, string) {
		t.Helper()
		resp, err := http.Get("http://" + addr + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	code, body := get("/metrics")
	if code != http.StatusOK {
		t.Fatalf("/metrics: status %d", code)
	}
	for _, want := range []string{`turnstile_admission_decisions_total{result="allowed"} 5`, `turnstile_admission_decisions_total{result="denied"} 1`} {
		if !strings.Contains(body, want) {
			t.Errorf("/metrics missing %q", want)
		}
	}

	if code, body := get("/ready"); code != http.StatusOK || !strings.Contains(body, `"audit"`) {
		t.Errorf("/ready: status %d body %s", code, body)
	}

	if code, body := get("/version"); code != http.StatusOK || !strings.Contains(body, Version) {
		t.Errorf("/version: status %d body %s", code, body)
	}
}
