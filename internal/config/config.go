package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for the venue.
type Config struct {
	Port             int           `yaml:"port"`
	LogLevel         string        `yaml:"log_level"`
	TrailingWindow   time.Duration `yaml:"trailing_window"`
	SweepInterval    time.Duration `yaml:"sweep_interval"`
	StreamSendBuffer int           `yaml:"stream_send_buffer"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
}

// defaults returns a Config populated with default values.
func defaults() *Config {
	return &Config{
		Port:             8080,
		LogLevel:         "info",
		TrailingWindow:   time.Hour,
		SweepInterval:    time.Minute,
		StreamSendBuffer: 64,
		ReadTimeout:      5 * time.Second,
		WriteTimeout:     10 * time.Second,
		IdleTimeout:      60 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Load builds the configuration in three layers: defaults, then an
// optional YAML file, then environment-variable overrides. It validates
// the result and returns an error for any invalid value.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.loadEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvOverrides applies environment variables on top of the current
// values. Unset variables leave the existing value in place.
func (c *Config) loadEnvOverrides() error {
	var err error

	if c.Port, err = getInt("PORT", c.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}
	c.LogLevel = getStr("LOG_LEVEL", c.LogLevel)
	if c.TrailingWindow, err = getDuration("TRAILING_WINDOW", c.TrailingWindow); err != nil {
		return fmt.Errorf("invalid TRAILING_WINDOW: %w", err)
	}
	if c.SweepInterval, err = getDuration("SWEEP_INTERVAL", c.SweepInterval); err != nil {
		return fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}
	if c.StreamSendBuffer, err = getInt("STREAM_SEND_BUFFER", c.StreamSendBuffer); err != nil {
		return fmt.Errorf("invalid STREAM_SEND_BUFFER: %w", err)
	}
	if c.ReadTimeout, err = getDuration("READ_TIMEOUT", c.ReadTimeout); err != nil {
		return fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}
	if c.WriteTimeout, err = getDuration("WRITE_TIMEOUT", c.WriteTimeout); err != nil {
		return fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}
	if c.IdleTimeout, err = getDuration("IDLE_TIMEOUT", c.IdleTimeout); err != nil {
		return fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}
	if c.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return nil
}

// validate checks the assembled configuration.
func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d, must be between 1 and 65535", c.Port)
	}
	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", c.LogLevel)
	}
	if c.TrailingWindow <= 0 {
		return fmt.Errorf("invalid TRAILING_WINDOW: must be positive")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("invalid SWEEP_INTERVAL: must be positive")
	}
	if c.StreamSendBuffer < 1 {
		return fmt.Errorf("invalid STREAM_SEND_BUFFER: must be at least 1")
	}
	return nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
