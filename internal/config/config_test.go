package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StoreFile || cfg.StateFile != "./data/ledger.json" {
		t.Fatalf("unexpected store defaults: %+v", cfg)
	}
	if cfg.JournalBackend != JournalJSONL || cfg.MaxRetries != 5 || cfg.RetryBackoff != 50*time.Millisecond {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfgPath := filepath.Join(dir, "amm.yaml")
	if err := os.WriteFile(cfgPath, []byte("store: memory\nlog-level: warn\nmax-retries: 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AMM_LOG_LEVEL", "debug")
	t.Setenv("AMM_REDIS_DB", "3")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-retries", 0, "")
	if err := flags.Parse([]string{"--max-retries=7"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(cfgPath, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StoreMemory {
		t.Fatalf("expected store from file, got %q", cfg.Store)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected env to override file, got %q", cfg.LogLevel)
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("expected redis db from env, got %d", cfg.RedisDB)
	}
	if cfg.MaxRetries != 7 {
		t.Fatalf("expected flag to win, got %d", cfg.MaxRetries)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("AMM_STORE=memory\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("AMM_STORE") })

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store != StoreMemory {
		t.Fatalf("expected store from .env, got %q", cfg.Store)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Store: StoreMemory, JournalBackend: JournalNone}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []Config{
		{Store: "etcd", JournalBackend: JournalNone},
		{Store: StorePostgres, JournalBackend: JournalNone},
		{Store: StoreRedis, JournalBackend: JournalNone},
		{Store: StoreFile, JournalBackend: JournalNone},
		{Store: StoreMemory, JournalBackend: JournalPostgres},
		{Store: StoreMemory, JournalBackend: JournalJSONL},
		{Store: StoreMemory, JournalBackend: "kafka"},
		{Store: StoreMemory, JournalBackend: JournalNone, MaxRetries: -1},
	}
	for _, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("1700000000")
	if err != nil || ts.Unix() != 1700000000 {
		t.Fatalf("unix seconds: %v %v", ts, err)
	}
	ts, err = ParseTimestamp("2026-01-02T03:04:05Z")
	if err != nil || ts.Year() != 2026 || ts.Hour() != 3 {
		t.Fatalf("rfc3339: %v %v", ts, err)
	}
	ts, err = ParseTimestamp(" ")
	if err != nil || !ts.IsZero() {
		t.Fatalf("empty: %v %v", ts, err)
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected error")
	}
}
