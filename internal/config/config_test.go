package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"recallhub/internal/config"
)

func TestLoadAppliesDefaultsWhenFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	cfg, path, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if path == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Matching.ResultLimit != 20 {
		t.Fatalf("expected default result limit 20, got %d", cfg.Matching.ResultLimit)
	}
	if cfg.Ingest.PollInterval != 3600 {
		t.Fatalf("expected default poll interval, got %d", cfg.Ingest.PollInterval)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected console log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadParsesFeedsAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[[ingest.feeds]]
agency = "cpsc"
url = "https://example.test/recalls.json"

[[ingest.feeds]]
agency = "FDA"
url = "https://example.test/fda.json"
mode = "FULL"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if len(cfg.Ingest.Feeds) != 2 {
		t.Fatalf("expected 2 feeds, got %d", len(cfg.Ingest.Feeds))
	}
	if cfg.Ingest.Feeds[0].Agency != "CPSC" {
		t.Fatalf("expected agency uppercased, got %q", cfg.Ingest.Feeds[0].Agency)
	}
	if cfg.Ingest.Feeds[0].Mode != "delta" {
		t.Fatalf("expected default mode delta, got %q", cfg.Ingest.Feeds[0].Mode)
	}
	if cfg.Ingest.Feeds[1].Mode != "full" {
		t.Fatalf("expected mode lowercased, got %q", cfg.Ingest.Feeds[1].Mode)
	}
	if !strings.HasSuffix(cfg.DatabasePath(), "recalls.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
}

func TestLoadRejectsDuplicateFeeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[[ingest.feeds]]
agency = "FDA"
url = "https://example.test/a.json"
mode = "delta"

[[ingest.feeds]]
agency = "FDA"
url = "https://example.test/b.json"
mode = "delta"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected duplicate feed error")
	}
}

func TestValidateRejectsBadMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[[ingest.feeds]]
agency = "FDA"
url = "https://example.test/a.json"
mode = "weekly"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected invalid mode error")
	}
}

func TestCreateSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected error when config already exists")
	}
}
