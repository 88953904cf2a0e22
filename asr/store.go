// FILE: lixenwraith/asrproxy/asr/store.go
package asr

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// TokenStore persists the current token outside the process
type TokenStore interface {
	Load(ctx context.Context) (Token, bool, error)
	Save(ctx context.Context, tok Token) error
}

// MemoryStore keeps the token in process memory
type MemoryStore struct {
	mu    sync.Mutex
	token Token
	ok    bool
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (Token, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.ok, nil
}

func (s *MemoryStore) Save(_ context.Context, tok Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.ok = tok, true
	return nil
}

// RedisStore shares the token between proxy instances through Redis. The
// key expires together with the token.
type RedisStore struct {
	rc  redis.Cmdable
	key string
}

// NewRedisStore stores the token under key
func NewRedisStore(rc redis.Cmdable, key string) *RedisStore {
	return &RedisStore{rc: rc, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (Token, bool, error) {
	data, err := s.rc.Get(ctx, s.key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return Token{}, false, nil
	case err != nil:
		return Token{}, false, err
	}

	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return Token{}, false, E(KindParse, "RedisStore.Load", "decode token", err)
	}
	return tok, true, nil
}

func (s *RedisStore) Save(ctx context.Context, tok Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	var ttl time.Duration
	if !tok.ExpiresAt.IsZero() {
		ttl = time.Until(tok.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}
	return s.rc.Set(ctx, s.key, data, ttl).Err()
}
