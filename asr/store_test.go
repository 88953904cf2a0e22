// FILE: lixenwraith/asrproxy/asr/store_test.go
package asr

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements the two commands RedisStore uses
type fakeRedis struct {
	redis.Cmdable
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string), ttl: make(map[string]time.Duration)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewStringCmd(ctx, "get", key)
	if v, ok := f.data[key]; ok {
		cmd.SetVal(v)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttl[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	_, ok, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	tok := validToken("t", time.Hour)
	require.NoError(t, s.Save(context.Background(), tok))
	got, ok, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, tok, got)
}

func TestRedisStore(t *testing.T) {
	rc := newFakeRedis()
	s := NewRedisStore(rc, "asrproxy:token")

	_, ok, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "redis.Nil is a miss, not an error")

	tok := Token{Value: "abc", Scope: baiduSpeechScope, ExpiresAt: time.Now().Add(time.Hour).Truncate(time.Second)}
	require.NoError(t, s.Save(context.Background(), tok))
	assert.InDelta(t, time.Hour.Seconds(), rc.ttl["asrproxy:token"].Seconds(), 5, "key expires with the token")
	assert.Contains(t, rc.data["asrproxy:token"], `"value":"abc"`)

	got, ok, err := s.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tok.Value, got.Value)
	assert.True(t, tok.ExpiresAt.Equal(got.ExpiresAt))
}

func TestRedisStoreSkipsExpired(t *testing.T) {
	rc := newFakeRedis()
	s := NewRedisStore(rc, "k")

	require.NoError(t, s.Save(context.Background(), validToken("old", -time.Second)))
	assert.Empty(t, rc.data)

	require.NoError(t, s.Save(context.Background(), Token{Value: "forever"}))
	assert.Equal(t, time.Duration(0), rc.ttl["k"])
}

func TestRedisStoreCorruptValue(t *testing.T) {
	rc := newFakeRedis()
	rc.data["k"] = "{not json"
	_, _, err := NewRedisStore(rc, "k").Load(context.Background())
	assert.Equal(t, KindParse, KindOf(err))
}
