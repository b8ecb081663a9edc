package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidate_TTLBounds(t *testing.T) {
	cfg := &Config{}
	cfg.DataPath = "./data"
	cfg.TTL.Short = 0
	cfg.TTL.Medium = 60
	cfg.TTL.Long = 300
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected ttl.short validation error")
	}
}

func TestValidate_EnvDefaultsToTest(t *testing.T) {
	cfg := &Config{}
	cfg.DataPath = "./data"
	cfg.TTL = CacheTTL{Short: 10, Medium: 60, Long: 300}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Env != "test" {
		t.Fatalf("expected Env to default to test, got %q", cfg.Env)
	}
}

func TestValidate_RejectsUnknownEnv(t *testing.T) {
	cfg := &Config{Env: "staging"}
	cfg.DataPath = "./data"
	cfg.TTL = CacheTTL{Short: 10, Medium: 60, Long: 300}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown env")
	}
}

func TestLedgerEnabled(t *testing.T) {
	cfg := &Config{}
	if cfg.LedgerEnabled() {
		t.Fatalf("expected ledger disabled with empty DataSource")
	}
	cfg.Postgres.DataSource = "postgres://localhost/grid"
	if !cfg.LedgerEnabled() {
		t.Fatalf("expected ledger enabled once DataSource is set")
	}
}

func TestHydrateSections_EngineSection(t *testing.T) {
	dir := t.TempDir()
	engineYAML := []byte("price_history_size: 50\nstate_file: state.json\n")
	enginePath := filepath.Join(dir, "engine.yaml")
	if err := os.WriteFile(enginePath, engineYAML, 0o600); err != nil {
		t.Fatalf("write engine.yaml: %v", err)
	}

	cfg := &Config{baseDir: dir}
	cfg.Engine.File = "engine.yaml"
	if err := cfg.hydrateSections(); err != nil {
		t.Fatalf("hydrateSections: %v", err)
	}
	if cfg.Engine.Value == nil {
		t.Fatalf("Engine.Value not hydrated")
	}
	if cfg.Engine.Value.PriceHistorySize != 50 {
		t.Fatalf("PriceHistorySize got %d", cfg.Engine.Value.PriceHistorySize)
	}
	if cfg.Engine.Value.StateFile != "state.json" {
		t.Fatalf("StateFile got %q", cfg.Engine.Value.StateFile)
	}
}

func TestHydrateSections_NoFileIsNoop(t *testing.T) {
	cfg := &Config{baseDir: t.TempDir()}
	if err := cfg.hydrateSections(); err != nil {
		t.Fatalf("hydrateSections: %v", err)
	}
	if cfg.Engine.Value != nil {
		t.Fatalf("expected Engine.Value to stay nil without a File")
	}
}
