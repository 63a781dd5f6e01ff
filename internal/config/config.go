// Package config loads the service configuration from TOML.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the root service configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
	Storage  StorageConfig  `toml:"storage"`
	Session  SessionConfig  `toml:"session"`
	Engine   EngineConfig   `toml:"engine"`
	Polisher PolisherConfig `toml:"polisher"`
}

// ServerConfig configures the HTTP and WebSocket service
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	AudioDir           string   `toml:"audio_dir"`
}

// LoggingConfig configures log output
type LoggingConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json, console
}

// StorageConfig configures transcript persistence. An empty path disables
// the store entirely.
type StorageConfig struct {
	Path string `toml:"path"`
}

// SessionConfig tunes the pipeline queues and timing
type SessionConfig struct {
	AudioQueueSize   int `toml:"audio_queue_size"`
	SegmentQueueSize int `toml:"segment_queue_size"`
	PollIntervalMS   int `toml:"poll_interval_ms"`
	JoinTimeoutSecs  int `toml:"join_timeout_secs"`
	ChunkMS          int `toml:"chunk_ms"`
}

// EngineConfig selects and configures the default recognition engine
type EngineConfig struct {
	Kind      string            `toml:"kind"`
	Model     string            `toml:"model"`
	Device    string            `toml:"device"`
	Precision string            `toml:"precision"`
	CacheDir  string            `toml:"cache_dir"`
	Params    map[string]string `toml:"params"`
}

// PolisherConfig configures optional transcript polishing
type PolisherConfig struct {
	Enabled     bool    `toml:"enabled"`
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     8080,
			AudioDir: "audio",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Session: SessionConfig{
			AudioQueueSize:   256,
			SegmentQueueSize: 32,
			PollIntervalMS:   100,
			JoinTimeoutSecs:  5,
			ChunkMS:          100,
		},
		Engine: EngineConfig{
			Kind:      "windowed",
			Model:     "base",
			Device:    "cpu",
			Precision: "auto",
		},
	}
}

// Load reads a TOML configuration file. Keys absent from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	config := Default()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return config, nil
}

// Validate checks configuration invariants
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Session.AudioQueueSize <= 0 || c.Session.SegmentQueueSize <= 0 {
		return fmt.Errorf("session queue sizes must be positive")
	}
	if c.Session.PollIntervalMS <= 0 {
		return fmt.Errorf("poll interval must be positive, got %d ms", c.Session.PollIntervalMS)
	}
	if c.Session.ChunkMS <= 0 {
		return fmt.Errorf("chunk duration must be positive, got %d ms", c.Session.ChunkMS)
	}
	if c.Engine.Kind == "" {
		return fmt.Errorf("engine kind must not be empty")
	}
	if c.Polisher.Enabled && c.Polisher.APIKey == "" {
		return fmt.Errorf("polisher enabled without an API key")
	}
	return nil
}
