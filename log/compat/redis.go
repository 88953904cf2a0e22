// FILE: lixenwraith/asrproxy/log/compat/redis.go
package compat

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lixenwraith/asrproxy/log"
)

// RedisAdapter implements go-redis's internal logger on top of a Facility.
// Install it with redis.SetLogger.
type RedisAdapter struct {
	facility *log.Facility
	title    string
}

// NewRedisAdapter creates a go-redis logger writing records titled "redis"
func NewRedisAdapter(facility *log.Facility) *RedisAdapter {
	return &RedisAdapter{facility: facility, title: "redis"}
}

// Printf implements go-redis's logging interface
func (a *RedisAdapter) Printf(ctx context.Context, format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	a.facility.AppendLog(DetectLogLevel(msg), "redis", a.title, msg)
}

// InstallRedisLogger routes go-redis diagnostics into facility
func InstallRedisLogger(facility *log.Facility) {
	redis.SetLogger(NewRedisAdapter(facility))
}
