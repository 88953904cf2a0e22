// FILE: lixenwraith/asrproxy/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
[log]
level = "debug"
format = "json"
poll_interval_ms = 50
file = "/var/log/asrproxy/asrproxy.log"

[asr]
provider = "bd"
api_key = "file-key"
secret_key = "file-secret"
dev_pid = 1737
audio_dir = "/srv/audio"

[server]
rpc_addr = "127.0.0.1:9000"
multicore = false

[redis]
addr = "127.0.0.1:6379"
db = 2
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "asrproxy.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleTOML), nil)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, int64(50), cfg.Log.PollIntervalMs)
	assert.True(t, cfg.Log.EnableConsole, "unset keys keep their defaults")

	assert.Equal(t, "bd", cfg.ASR.Provider)
	assert.Equal(t, "file-key", cfg.ASR.APIKey)
	assert.Equal(t, int64(1737), cfg.ASR.DevPID)
	assert.Equal(t, int64(16000), cfg.ASR.Rate)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.RPCAddr)
	assert.False(t, cfg.Server.Multicore)
	assert.Equal(t, "0.0.0.0:7080", cfg.Server.HTTPAddr)

	assert.Equal(t, "127.0.0.1:6379", cfg.Redis.Addr)
	assert.Equal(t, int64(2), cfg.Redis.DB)
	assert.Equal(t, "asrproxy:token", cfg.Redis.Key)
}

func TestLoadMissingFileUsesDefaultsAndArgs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, err := Load(path, []string{"--asr.api_key=cli-key", "--asr.secret_key=cli-secret"})
	require.NoError(t, err)

	assert.Equal(t, "cli-key", cfg.ASR.APIKey)
	assert.Equal(t, "cli-secret", cfg.ASR.SecretKey)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"), nil)
	require.Error(t, err, "credentials are required")
	assert.Contains(t, err.Error(), "api_key")

	_, err = Load(writeConfig(t, sampleTOML+"\n"), []string{"--log.format=xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.ASR.APIKey, cfg.ASR.SecretKey = "k", "s"
		return cfg
	}
	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Server.RPCAddr, cfg.Server.HTTPAddr = "", ""
	assert.ErrorContains(t, cfg.Validate(), "rpc_addr")

	cfg = valid()
	cfg.Server.RequestTimeoutMs = 0
	assert.ErrorContains(t, cfg.Validate(), "request_timeout_ms")

	cfg = valid()
	cfg.Redis.Addr, cfg.Redis.Key = "localhost:6379", ""
	assert.ErrorContains(t, cfg.Validate(), "redis.key")
}

func TestSetFieldValue(t *testing.T) {
	var target struct {
		S string
		I int64
		B bool
	}
	v := reflect.ValueOf(&target).Elem()

	require.NoError(t, setFieldValue(v.Field(0), "x"))
	require.NoError(t, setFieldValue(v.Field(1), "42"))
	require.NoError(t, setFieldValue(v.Field(2), "true"))
	assert.Equal(t, "x", target.S)
	assert.Equal(t, int64(42), target.I)
	assert.True(t, target.B)

	require.NoError(t, setFieldValue(v.Field(1), 7))
	assert.Equal(t, int64(7), target.I)

	assert.Error(t, setFieldValue(v.Field(0), 1))
	assert.Error(t, setFieldValue(v.Field(1), "seven"))
	assert.Error(t, setFieldValue(v.Field(2), 1.5))
}
