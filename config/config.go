// FILE: lixenwraith/asrproxy/config/config.go
// Package config loads the process configuration from a TOML file and
// command line overrides such as --asr.api_key=...
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	lconfig "github.com/lixenwraith/config"

	"github.com/lixenwraith/asrproxy/asr"
	"github.com/lixenwraith/asrproxy/log"
)

// Server holds listener settings
type Server struct {
	RPCAddr          string `toml:"rpc_addr"`  // empty disables the RPC listener
	HTTPAddr         string `toml:"http_addr"` // empty disables the HTTP listener
	Multicore        bool   `toml:"multicore"`
	MaxFrameBytes    int64  `toml:"max_frame_bytes"`
	RequestTimeoutMs int64  `toml:"request_timeout_ms"`
}

// Redis holds the optional shared token store settings
type Redis struct {
	Addr     string `toml:"addr"` // empty keeps tokens in memory
	Password string `toml:"password"`
	DB       int64  `toml:"db"`
	Key      string `toml:"key"`
}

// Config is the whole process configuration
type Config struct {
	Log    *log.Config
	ASR    *asr.Config
	Server *Server
	Redis  *Redis
}

// Section prefixes
const (
	PrefixLog    = "log."
	PrefixASR    = "asr."
	PrefixServer = "server."
	PrefixRedis  = "redis."
)

var defaultServer = Server{
	RPCAddr:          "0.0.0.0:7000",
	HTTPAddr:         "0.0.0.0:7080",
	Multicore:        true,
	MaxFrameBytes:    16 << 20,
	RequestTimeoutMs: 30000,
}

var defaultRedis = Redis{
	Key: "asrproxy:token",
}

// Default returns the default process configuration. The console receiver
// is on so a bare start logs somewhere.
func Default() *Config {
	logCfg := log.DefaultConfig()
	logCfg.EnableConsole = true
	srv, rds := defaultServer, defaultRedis
	return &Config{
		Log:    logCfg,
		ASR:    asr.DefaultConfig(),
		Server: &srv,
		Redis:  &rds,
	}
}

// RequestTimeout returns the per-request deadline
func (s *Server) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutMs) * time.Millisecond
}

// Load reads path (missing file tolerated) and args over the defaults and
// validates the result.
func Load(path string, args []string) (*Config, error) {
	cfg := Default()

	loader := lconfig.New()
	sections := cfg.sections()
	for _, prefix := range sectionOrder {
		if err := loader.RegisterStruct(prefix, reflect.ValueOf(sections[prefix]).Elem().Interface()); err != nil {
			return nil, fmt.Errorf("config: failed to register %s section: %w", prefix, err)
		}
	}

	if err := loader.Load(path, args); err != nil && !errors.Is(err, lconfig.ErrConfigNotFound) {
		return nil, fmt.Errorf("config: failed to load %s: %w", path, err)
	}

	for _, prefix := range sectionOrder {
		if err := extractSection(loader, prefix, sections[prefix]); err != nil {
			return nil, fmt.Errorf("config: %s section: %w", prefix, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var sectionOrder = []string{PrefixLog, PrefixASR, PrefixServer, PrefixRedis}

func (c *Config) sections() map[string]any {
	return map[string]any{
		PrefixLog:    c.Log,
		PrefixASR:    c.ASR,
		PrefixServer: c.Server,
		PrefixRedis:  c.Redis,
	}
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.ASR.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Server.RPCAddr == "" && c.Server.HTTPAddr == "" {
		return fmt.Errorf("config: at least one of server.rpc_addr and server.http_addr is required")
	}
	if c.Server.MaxFrameBytes <= 0 {
		return fmt.Errorf("config: server.max_frame_bytes must be positive: %d", c.Server.MaxFrameBytes)
	}
	if c.Server.RequestTimeoutMs <= 0 {
		return fmt.Errorf("config: server.request_timeout_ms must be positive: %d", c.Server.RequestTimeoutMs)
	}
	if c.Redis.Addr != "" && c.Redis.Key == "" {
		return fmt.Errorf("config: redis.key is required when redis.addr is set")
	}
	return nil
}

// extractSection copies loader values under prefix into the struct target
// points to, keyed by toml tags. Keys the loader does not know keep their
// defaults.
func extractSection(loader *lconfig.Config, prefix string, target any) error {
	v := reflect.ValueOf(target).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue
		}

		if err := setFieldValue(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}
	return nil
}

// setFieldValue sets a reflect.Value with type conversion. Strings are
// parsed for numeric and bool fields since CLI values arrive as text.
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		case float64:
			field.SetInt(int64(v))
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("expected int64, got %q", v)
			}
			field.SetInt(n)
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		switch v := value.(type) {
		case bool:
			field.SetBool(v)
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("expected bool, got %q", v)
			}
			field.SetBool(b)
		default:
			return fmt.Errorf("expected bool, got %T", value)
		}

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}
