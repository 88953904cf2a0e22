// FILE: lixenwraith/asrproxy/log/config.go
package log

import (
	"strings"
	"time"
)

// Config holds all logging facility configuration values
type Config struct {
	// Basic settings
	Level          string `toml:"level"`
	PollIntervalMs int64  `toml:"poll_interval_ms"` // Dispatch loop termination check period
	BlastAvoidance bool   `toml:"blast_avoidance"`  // Sleep producers proportionally to backlog

	// Console receiver
	EnableConsole bool   `toml:"enable_console"`
	ConsoleTarget string `toml:"console_target"` // "stdout" or "stderr"
	ConsoleTitle  string `toml:"console_title"`  // Title pattern routed to console

	// Formatting
	Format          string `toml:"format"` // "txt" or "json"
	TimestampFormat string `toml:"timestamp_format"`

	// File receiver, disabled when File is empty
	File       string `toml:"file"`
	FileTitle  string `toml:"file_title"`
	MaxSizeMB  int64  `toml:"max_size_mb"`
	MaxBackups int64  `toml:"max_backups"`
	MaxAgeDays int64  `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`

	// Heartbeat interval in seconds, 0 disables
	HeartbeatIntervalS int64 `toml:"heartbeat_interval_s"`

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"`
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	Level:          "info",
	PollIntervalMs: 100,
	BlastAvoidance: true,

	EnableConsole: false,
	ConsoleTarget: "stdout",
	ConsoleTitle:  "",

	Format:          "txt",
	TimestampFormat: time.RFC3339Nano,

	File:       "",
	FileTitle:  "",
	MaxSizeMB:  10,
	MaxBackups: 5,
	MaxAgeDays: 7,
	Compress:   false,

	HeartbeatIntervalS: 0,

	InternalErrorsToStderr: false,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// PollInterval returns the dispatch loop poll period
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// MinLevel returns the parsed level, falling back to INFO
func (c *Config) MinLevel() Level {
	lvl, err := ParseLevel(c.Level)
	if err != nil {
		return LevelInfo
	}
	return lvl
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}

	if c.Format != "txt" && c.Format != "json" {
		return fmtErrorf("invalid format: '%s' (use txt or json)", c.Format)
	}

	if strings.TrimSpace(c.TimestampFormat) == "" {
		return fmtErrorf("timestamp_format cannot be empty")
	}

	if c.ConsoleTarget != "stdout" && c.ConsoleTarget != "stderr" {
		return fmtErrorf("invalid console_target: '%s' (use stdout or stderr)", c.ConsoleTarget)
	}

	if c.PollIntervalMs <= 0 {
		return fmtErrorf("poll_interval_ms must be positive: %d", c.PollIntervalMs)
	}

	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmtErrorf("file rotation limits cannot be negative")
	}

	if c.HeartbeatIntervalS < 0 {
		return fmtErrorf("heartbeat_interval_s cannot be negative: %d", c.HeartbeatIntervalS)
	}

	return nil
}
