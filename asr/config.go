// FILE: lixenwraith/asrproxy/asr/config.go
package asr

import (
	"strings"
	"time"
)

// Config holds provider settings. It is not modified after a Client is built.
type Config struct {
	Provider  string `toml:"provider"`
	APIKey    string `toml:"api_key"`
	SecretKey string `toml:"secret_key"`

	TokenURL     string `toml:"token_url"`
	RecognizeURL string `toml:"recognize_url"`

	// Audio format
	Format  string `toml:"format"`
	Rate    int64  `toml:"rate"`
	Channel int64  `toml:"channel"`
	CUID    string `toml:"cuid"`
	DevPID  int64  `toml:"dev_pid"`

	TimeoutMs      int64 `toml:"timeout_ms"`
	RefreshMarginS int64 `toml:"refresh_margin_s"` // Refresh this long before expiry
	RetryBackoffS  int64 `toml:"retry_backoff_s"`  // Delay after a failed background refresh

	// Relative paths in path-mode requests resolve against this directory
	AudioDir string `toml:"audio_dir"`
}

var defaultConfig = Config{
	Provider:       "baidu",
	TokenURL:       "https://aip.baidubce.com/oauth/2.0/token",
	RecognizeURL:   "https://vop.baidu.com/server_api",
	Format:         "pcm",
	Rate:           16000,
	Channel:        1,
	CUID:           "asrproxy",
	DevPID:         1537,
	TimeoutMs:      10000,
	RefreshMarginS: 300,
	RetryBackoffS:  5,
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

// Timeout returns the per-call HTTP timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// RefreshMargin returns how long before expiry a token counts as stale
func (c *Config) RefreshMargin() time.Duration {
	return time.Duration(c.RefreshMarginS) * time.Second
}

// RetryBackoff returns the delay between failed background refreshes
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffS) * time.Second
}

// Validate checks the settings needed to reach the provider
func (c *Config) Validate() error {
	const op = "asr.Config.Validate"
	if _, err := ParseProvider(c.Provider); err != nil {
		return err
	}
	if strings.TrimSpace(c.APIKey) == "" || strings.TrimSpace(c.SecretKey) == "" {
		return E(KindConfig, op, "api_key and secret_key are required", nil)
	}
	if c.TokenURL == "" || c.RecognizeURL == "" {
		return E(KindConfig, op, "token_url and recognize_url are required", nil)
	}
	if c.Format == "" {
		return E(KindConfig, op, "format is required", nil)
	}
	if c.Rate <= 0 || c.Channel <= 0 {
		return E(KindConfig, op, "rate and channel must be positive", nil)
	}
	if c.TimeoutMs <= 0 {
		return E(KindConfig, op, "timeout_ms must be positive", nil)
	}
	if c.RefreshMarginS < 0 || c.RetryBackoffS <= 0 {
		return E(KindConfig, op, "refresh_margin_s cannot be negative and retry_backoff_s must be positive", nil)
	}
	return nil
}
