package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, feedPath string) string {
	t.Helper()
	base := t.TempDir()
	content := strings.Join([]string{
		"[paths]",
		`data_dir = "` + filepath.Join(base, "data") + `"`,
		`log_dir = "` + filepath.Join(base, "logs") + `"`,
		"",
		"[[ingest.feeds]]",
		`agency = "CPSC"`,
		`url = "` + feedPath + `"`,
		`mode = "full"`,
		"",
	}, "\n")

	path := filepath.Join(base, "recallhub.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func writeTestFeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.json")
	payload := `[
		{"id": "X1", "model": "ABC-123", "name": "Infant Swing", "date": "2026-03-01", "hazard": "fall hazard", "severity": "high"},
		{"id": "X2", "name": "Space Heater", "date": "2026-02-12"}
	]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("command %v failed: %v\noutput:\n%s", args, err, buf.String())
	}
	return buf.String()
}

func TestIngestThenQueryWorkflow(t *testing.T) {
	cfgPath := writeTestConfig(t, writeTestFeed(t))

	output := runCommand(t, "--config", cfgPath, "ingest", "--all")
	if !strings.Contains(output, "CPSC") || !strings.Contains(output, "success") {
		t.Fatalf("unexpected ingest output:\n%s", output)
	}

	output = runCommand(t, "--config", cfgPath, "runs")
	if !strings.Contains(output, "success") {
		t.Fatalf("expected recorded run:\n%s", output)
	}

	output = runCommand(t, "--config", cfgPath, "match", "--model", "abc-123")
	if !strings.Contains(output, "CPSC-X1") {
		t.Fatalf("expected model match output:\n%s", output)
	}

	output = runCommand(t, "--config", cfgPath, "check", "--model", "abc-123")
	if !strings.Contains(output, "completed") {
		t.Fatalf("expected completed check:\n%s", output)
	}
	if !strings.Contains(output, "fall hazard") {
		t.Fatalf("expected hazard in finding:\n%s", output)
	}

	output = runCommand(t, "--config", cfgPath, "status")
	if !strings.Contains(output, "CPSC") {
		t.Fatalf("expected agency counts:\n%s", output)
	}
}

func TestIngestRequiresAgencyOrAll(t *testing.T) {
	cfgPath := writeTestConfig(t, writeTestFeed(t))

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--config", cfgPath, "ingest"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error without agency or --all")
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	output := runCommand(t, "config", "init", "--path", target)
	if !strings.Contains(output, target) {
		t.Fatalf("expected target path in output:\n%s", output)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config written: %v", err)
	}
}

func TestCheckInconclusiveForUnknownProduct(t *testing.T) {
	cfgPath := writeTestConfig(t, writeTestFeed(t))

	output := runCommand(t, "--config", cfgPath, "check", "--model", "GHOST-1")
	if !strings.Contains(output, "inconclusive") {
		t.Fatalf("expected inconclusive status:\n%s", output)
	}
}
