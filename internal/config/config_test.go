package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv unsets every config variable for the duration of a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "TRAILING_WINDOW", "SWEEP_INTERVAL",
		"STREAM_SEND_BUFFER", "READ_TIMEOUT", "WRITE_TIMEOUT",
		"IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %s", cfg.LogLevel)
	}
	if cfg.TrailingWindow != time.Hour {
		t.Errorf("expected default trailing window 1h, got %s", cfg.TrailingWindow)
	}
	if cfg.SweepInterval != time.Minute {
		t.Errorf("expected default sweep interval 1m, got %s", cfg.SweepInterval)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRAILING_WINDOW", "30m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.LogLevel)
	}
	if cfg.TrailingWindow != 30*time.Minute {
		t.Errorf("expected trailing window 30m, got %s", cfg.TrailingWindow)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "venue.yaml")
	data := "port: 9000\nlog_level: warn\ntrailing_window: 2h\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("expected port 9000 from file, got %d", cfg.Port)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected log level warn from file, got %s", cfg.LogLevel)
	}
	if cfg.TrailingWindow != 2*time.Hour {
		t.Errorf("expected trailing window 2h from file, got %s", cfg.TrailingWindow)
	}
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7777")

	path := filepath.Join(t.TempDir(), "venue.yaml")
	if err := os.WriteFile(path, []byte("port: 9000\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 7777 {
		t.Errorf("expected env to override file, got port %d", cfg.Port)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "PORT", "not-a-number"},
		{"port out of range", "PORT", "70000"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad duration", "TRAILING_WINDOW", "soon"},
		{"negative window", "TRAILING_WINDOW", "-1h"},
		{"zero buffer", "STREAM_SEND_BUFFER", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(""); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load("/nonexistent/venue.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
