package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsForAbsentKeys(t *testing.T) {
	path := writeConfigFile(t, `
[server]
port = 9090

[engine]
kind = "stub"
model = "echo"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host, got %q", cfg.Server.Host)
	}
	if cfg.Engine.Kind != "stub" || cfg.Engine.Model != "echo" {
		t.Errorf("expected engine overrides, got %s/%s", cfg.Engine.Kind, cfg.Engine.Model)
	}
	if cfg.Session.AudioQueueSize != 256 {
		t.Errorf("expected default audio queue size, got %d", cfg.Session.AudioQueueSize)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level, got %q", cfg.Logging.Level)
	}
}

func TestLoadParsesEngineParams(t *testing.T) {
	path := writeConfigFile(t, `
[engine]
kind = "windowed"
model = "small"

[engine.params]
window_seconds = "4"
min_silence_ms = "300"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Engine.Params["window_seconds"] != "4" {
		t.Errorf("expected window_seconds param, got %v", cfg.Engine.Params)
	}
	if cfg.Engine.Params["min_silence_ms"] != "300" {
		t.Errorf("expected min_silence_ms param, got %v", cfg.Engine.Params)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "port"},
		{"bad queue", func(c *Config) { c.Session.SegmentQueueSize = -1 }, "queue"},
		{"bad poll interval", func(c *Config) { c.Session.PollIntervalMS = 0 }, "poll interval"},
		{"bad chunk", func(c *Config) { c.Session.ChunkMS = 0 }, "chunk"},
		{"empty engine kind", func(c *Config) { c.Engine.Kind = "" }, "engine kind"},
		{"polisher without key", func(c *Config) { c.Polisher.Enabled = true }, "API key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}
