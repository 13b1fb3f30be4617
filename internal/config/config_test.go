package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseEnvDefaults(t *testing.T) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults %+v, got %+v", Default(), cfg)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg Config
	t.Setenv("POLICYSAVER_GLOBAL_SEED", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidateFormat(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("POLICYSAVER_LOG_FORMAT=json\nPOLICYSAVER_GLOBAL_SEED=7\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Registered so t.Setenv restores the variables after the test.
	t.Setenv("POLICYSAVER_LOG_FORMAT", "")
	t.Setenv("POLICYSAVER_GLOBAL_SEED", "")
	os.Unsetenv("POLICYSAVER_LOG_FORMAT")
	os.Unsetenv("POLICYSAVER_GLOBAL_SEED")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("load: %v", err)
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.LogFormat != FormatJSON || cfg.GlobalSeed != 7 {
		t.Fatalf("dotenv values not applied: %+v", cfg)
	}
}
