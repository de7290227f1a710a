package main

import (
	"runtime"
	"strings"
	"testing"
)

func TestVersionDefaults(t *testing.T) {
	origVersion := Version
	origGitCommit := GitCommit
	origBuildDate := BuildDate
	defer func() {
		Version = origVersion
		GitCommit = origGitCommit
		BuildDate = origBuildDate
	}()

	Version = "0.1.0-test"
	GitCommit = "abc123"
	BuildDate = "2025-11-20"

	out, _, err := executeCommand(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}

	for _, want := range []string{"Turnstile 0.1.0-test", "Git Commit: abc123", "Build Date: 2025-11-20", runtime.Version()} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestVersionShort(t *testing.T) {
	out, _, err := executeCommand(t, "", "version", "--short")
	if err != nil {
		t.Fatalf("version --short failed: %v", err)
	}
	if strings.TrimSpace(out) != Version {
		t.Errorf("version --short = %q, want %q", strings.TrimSpace(out), Version)
	}
}

func TestVersionCommandExists(t *testing.T) {
	if versionCmd == nil {
		t.Fatal("versionCmd is nil")
	}

	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}

	if versionCmd.Short == "" {
		t.Error("versionCmd.Short should not be empty")
	}

	if versionCmd.Run == nil {
		t.Error("versionCmd.Run should not be nil")
	}
}
