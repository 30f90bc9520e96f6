package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SQLitePath != "./supplylens.db" {
		t.Errorf("unexpected sqlite path %q", cfg.SQLitePath)
	}
	if cfg.BatchSize != 1000 {
		t.Errorf("unexpected batch size %d", cfg.BatchSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "import.yaml")
	content := "database_url: postgres://localhost/trade\nbatch_size: 50\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DatabaseURL != "postgres://localhost/trade" {
		t.Errorf("unexpected database url %q", cfg.DatabaseURL)
	}
	if cfg.BatchSize != 50 {
		t.Errorf("unexpected batch size %d", cfg.BatchSize)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("unexpected log level %q", cfg.LogLevel)
	}
	// Unset keys keep their defaults.
	if cfg.DataDir != "./data" {
		t.Errorf("unexpected data dir %q", cfg.DataDir)
	}
}

func TestLoadMissingFileIsAnError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for explicit missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{BatchSize: 10}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without a database target")
	}

	cfg = &Config{SQLitePath: "x.db", BatchSize: 0}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero batch size")
	}
}
