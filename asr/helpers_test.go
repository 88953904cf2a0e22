// FILE: lixenwraith/asrproxy/asr/helpers_test.go
package asr

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/asrproxy/log"
)

func createTestFacility(t *testing.T) *log.Facility {
	t.Helper()
	cfg := log.DefaultConfig()
	cfg.PollIntervalMs = 10
	cfg.BlastAvoidance = false
	f, err := log.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Release() })
	return f
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.APIKey = "key"
	cfg.SecretKey = "secret"
	return cfg
}

// fakeSource returns queued results in order, repeating the last one once
// the queue is empty. An optional gate blocks every fetch until closed.
type fakeSource struct {
	mu      sync.Mutex
	results []fakeResult
	last    *fakeResult
	gate    chan struct{}
	entered chan struct{}
	calls   atomic.Int32
}

type fakeResult struct {
	tok Token
	err error
}

func (f *fakeSource) push(tok Token, err error) *fakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, fakeResult{tok, err})
	return f
}

func (f *fakeSource) FetchToken(ctx context.Context) (Token, error) {
	f.calls.Add(1)
	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.results) > 0 {
		f.last = &f.results[0]
		f.results = f.results[1:]
	}
	if f.last == nil {
		return Token{}, E(KindTransport, "fake", "no result queued", nil)
	}
	return f.last.tok, f.last.err
}

// fakeBackend is a Backend over a fakeSource with scripted recognition
type fakeBackend struct {
	*fakeSource
	recognize func(token string, audio []byte) (string, error)
	tokens    []string
	mu        sync.Mutex
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Recognize(_ context.Context, token string, audio []byte) (string, error) {
	b.mu.Lock()
	b.tokens = append(b.tokens, token)
	b.mu.Unlock()
	return b.recognize(token, audio)
}

func (b *fakeBackend) seenTokens() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.tokens...)
}

func validToken(value string, ttl time.Duration) Token {
	return Token{Value: value, Scope: baiduSpeechScope, ExpiresAt: time.Now().Add(ttl)}
}
