package main

import (
	"encoding/json"
	"strings"
	"testing"

	"mercator-hq/turnstile/pkg/cli"
)

func TestCheck_Args(t *testing.T) {
	path := writeConfig(t, quietConfig)

	args := []string{"check", "--config", path}
	for i := 0; i < 6; i++ {
		args = append(args, "alice")
	}
	args = append(args, "bob")

	out, _, err := executeCommand(t, "", args...)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected header and 7 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "CLIENT") {
		t.Errorf("expected header line, got %q", lines[0])
	}
	for i := 1; i <= 5; i++ {
		if !strings.Contains(lines[i], "allowed") {
			t.Errorf("call %d: expected allowed, got %q", i, lines[i])
		}
	}
	if !strings.Contains(lines[6], "denied") {
		t.Errorf("call 6: expected denied, got %q", lines[6])
	}
	if !strings.Contains(lines[7], "bob") || !strings.Contains(lines[7], "allowed") {
		t.Errorf("bob should be isolated from alice, got %q", lines[7])
	}
}

func TestCheck_StdinJSON(t *testing.T) {
	path := writeConfig(t, quietConfig+`
limiter:
  max_requests: 2
  window: 1m
`)

	stdin := "10.0.0.7\n\n10.0.0.7\n  10.0.0.7  \n"
	out, _, err := executeCommand(t, stdin, "check", "--config", path, "-o", "json")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	var results []checkResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}

	want := []bool{true, true, false}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(results))
	}
	for i, r := range results {
		if r.ClientID != "10.0.0.7" {
			t.Errorf("result %d: client = %q, want 10.0.0.7", i, r.ClientID)
		}
		if r.Allowed != want[i] {
			t.Errorf("result %d: allowed = %v, want %v", i, r.Allowed, want[i])
		}
		if r.Seq != i+1 {
			t.Errorf("result %d: seq = %d, want %d", i, r.Seq, i+1)
		}
	}
}

func TestCheck_FailOnDeny(t *testing.T) {
	path := writeConfig(t, quietConfig+`
limiter:
  max_requests: 1
`)

	_, _, err := executeCommand(t, "", "check", "--config", path, "--fail-on-deny", "alice", "alice")
	if err == nil {
		t.Fatal("expected error when a call is denied")
	}
	if code := cli.ExitCode(err); code != cli.ExitFailure {
		t.Errorf("exit code = %d, want %d", code, cli.ExitFailure)
	}

	if _, _, err := executeCommand(t, "", "check", "--config", path, "--fail-on-deny", "alice", "bob"); err != nil {
		t.Errorf("expected success when nothing is denied, got %v", err)
	}
}

func TestCheck_InvalidConfig(t *testing.T) {
	path := writeConfig(t, `
limiter:
  max_requests: -1
`)

	_, _, err := executeCommand(t, "", "check", "--config", path, "alice")
	if err == nil {
		t.Fatal("expected error for invalid config")
	}
	if code := cli.ExitCode(err); code != cli.ExitConfigError {
		t.Errorf("exit code = %d, want %d", code, cli.ExitConfigError)
	}
}

func TestCheck_InvalidLogLevel(t *testing.T) {
	_, _, err := executeCommand(t, "", "check", "--log-level", "verbose", "alice")
	if code := cli.ExitCode(err); code != cli.ExitConfigError {
		t.Errorf("exit code = %d, want %d (err: %v)", code, cli.ExitConfigError, err)
	}
}

func TestCheck_DenialLogged(t *testing.T) {
	path := writeConfig(t, `
limiter:
  max_requests: 1
janitor:
  enabled: false
telemetry:
  logging:
    format: json
`)

	_, stderr, err := executeCommand(t, "", "check", "--config", path, "--log-level", "debug", "203.0.113.9", "203.0.113.9")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if !strings.Contains(stderr, "run_id") {
		t.Errorf("expected run_id in logs, got:\n%s", stderr)
	}
	if strings.Contains(stderr, "203.0.113.9") {
		t.Errorf("client identifier should be redacted in logs, got:\n%s", stderr)
	}
}
