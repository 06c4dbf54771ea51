package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PROMPTPICKER_HOME", home)
	t.Setenv("PROMPTPICKER_DATA_DIR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != home {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, home)
	}
	if cfg.StoreBackend != BackendJSON {
		t.Errorf("StoreBackend = %q", cfg.StoreBackend)
	}
	if !cfg.ConfirmDelete {
		t.Error("ConfirmDelete should default to true")
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Errorf("PollInterval = %v", cfg.PollInterval())
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PROMPTPICKER_HOME", home)

	cfg := DefaultConfig()
	cfg.StoreBackend = BackendSQLite
	cfg.PollSeconds = 5
	cfg.AI.Model = "openai/gpt-4o-mini"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(filepath.Join(home, "config.yaml"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config perms = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.StoreBackend != BackendSQLite || loaded.PollSeconds != 5 || loaded.AI.Model != "openai/gpt-4o-mini" {
		t.Errorf("unexpected config: %+v", loaded)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PROMPTPICKER_HOME", home)

	bad := []byte("store_backend: redis\n")
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), bad, 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for unknown backend")
	}

	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte("inject_mode: command\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected error for command mode without command")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PROMPTPICKER_HOME", t.TempDir())
	t.Setenv("PROMPTPICKER_POLL_SECONDS", "7")
	t.Setenv("PROMPTPICKER_RELAY_URL", "http://127.0.0.1:7777")

	cfg := DefaultConfig()
	if cfg.PollSeconds != 7 {
		t.Errorf("PollSeconds = %d", cfg.PollSeconds)
	}
	if cfg.RelayURL != "http://127.0.0.1:7777" {
		t.Errorf("RelayURL = %q", cfg.RelayURL)
	}
}
