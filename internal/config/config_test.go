package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.ConfirmDelete {
		t.Error("confirm_delete should default on")
	}
	if cfg.ChangePollInterval() != 30*time.Second {
		t.Errorf("unexpected poll interval: %v", cfg.ChangePollInterval())
	}
	if cfg.ProbeInterval() != 15*time.Second {
		t.Errorf("unexpected probe interval: %v", cfg.ProbeInterval())
	}
	if cfg.LogLevel != "INFO" {
		t.Errorf("unexpected log level: %q", cfg.LogLevel)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TASKRELAY_CHANGE_POLL_SECONDS", "5")
	t.Setenv("TASKRELAY_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ChangePollInterval() != 5*time.Second {
		t.Errorf("env override ignored: %v", cfg.ChangePollInterval())
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("env override ignored: %q", cfg.LogLevel)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.ConfirmDelete = false
	cfg.ProbeSeconds = 60
	if err := cfg.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ConfirmDelete {
		t.Error("confirm_delete not persisted")
	}
	if got.ProbeSeconds != 60 {
		t.Errorf("probe_seconds not persisted: %d", got.ProbeSeconds)
	}
}
