// FILE: lixenwraith/asrproxy/asr/token.go
package asr

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lixenwraith/asrproxy/log"
)

// Token is a provider access token
type Token struct {
	Value     string    `json:"value"`
	Scope     string    `json:"scope"`
	ExpiresAt time.Time `json:"expires_at"` // zero means no known expiry
}

// Expired reports whether the token is past its expiry at now
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

const (
	flightKey       = "token"
	minRefreshDelay = time.Second
	idleRefresh     = time.Hour // recheck period for tokens without expiry
)

// CacheStats is a snapshot of refresh counters
type CacheStats struct {
	Refreshes uint64
	Failures  uint64
	Valid     bool
	ExpiresAt time.Time
}

// TokenCache serves the current token and refreshes it in the background.
// Readers never wait on a refresh while a token is cached; only the first
// use, with nothing cached, blocks on the provider.
type TokenCache struct {
	source  TokenSource
	store   TokenStore
	logger  *log.Facility
	margin  time.Duration
	backoff time.Duration
	now     func() time.Time

	mu    sync.RWMutex
	token Token
	valid bool

	group      singleflight.Group
	refreshing atomic.Bool

	refreshes atomic.Uint64
	failures  atomic.Uint64
}

// CacheOption configures a TokenCache
type CacheOption func(*TokenCache)

// WithStore persists tokens across restarts
func WithStore(store TokenStore) CacheOption {
	return func(c *TokenCache) { c.store = store }
}

// WithCacheLogger sets the facility refresh events are logged to
func WithCacheLogger(logger *log.Facility) CacheOption {
	return func(c *TokenCache) { c.logger = logger }
}

// WithRefreshMargin sets how long before expiry a token counts as stale
func WithRefreshMargin(d time.Duration) CacheOption {
	return func(c *TokenCache) { c.margin = d }
}

// WithRetryBackoff sets the delay after a failed background refresh
func WithRetryBackoff(d time.Duration) CacheOption {
	return func(c *TokenCache) { c.backoff = d }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) CacheOption {
	return func(c *TokenCache) { c.now = now }
}

// NewTokenCache creates an empty cache over source
func NewTokenCache(source TokenSource, opts ...CacheOption) *TokenCache {
	c := &TokenCache{
		source:  source,
		margin:  DefaultConfig().RefreshMargin(),
		backoff: DefaultConfig().RetryBackoff(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	return c
}

// Seed loads a persisted token from the store. An expired or missing token
// leaves the cache empty.
func (c *TokenCache) Seed(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	tok, ok, err := c.store.Load(ctx)
	if err != nil {
		return E(KindTransport, "TokenCache.Seed", "load token", err)
	}
	if !ok || tok.Value == "" || tok.Expired(c.now()) {
		return nil
	}
	c.mu.Lock()
	c.token, c.valid = tok, true
	c.mu.Unlock()
	c.logger.Info("asr", "token", "seeded token from store, expires %s", tok.ExpiresAt.Format(time.RFC3339))
	return nil
}

// Get returns the cached token. A stale token is returned as is while a
// background refresh runs. With nothing cached the caller joins the single
// refresh in flight and gets its result.
func (c *TokenCache) Get(ctx context.Context) (string, error) {
	c.mu.RLock()
	tok, valid := c.token, c.valid
	c.mu.RUnlock()

	if valid {
		if !c.stale(tok) {
			return tok.Value, nil
		}
		c.refreshAsync()
		return tok.Value, nil
	}

	tok, err := c.refreshShared(ctx, false)
	if err != nil {
		return "", err
	}
	return tok.Value, nil
}

// Token returns a snapshot of the cached token
func (c *TokenCache) Token() (Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.valid
}

// Refresh fetches a new token, joining a refresh already in flight. On
// failure the previous token stays cached.
func (c *TokenCache) Refresh(ctx context.Context) error {
	_, err := c.refreshShared(ctx, true)
	return err
}

// MarkStale keeps the cached value but expires it, so the next Get
// revalidates in the background.
func (c *TokenCache) MarkStale() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid {
		c.token.ExpiresAt = c.now()
	}
}

// Stats returns refresh counters
func (c *TokenCache) Stats() CacheStats {
	tok, valid := c.Token()
	return CacheStats{
		Refreshes: c.refreshes.Load(),
		Failures:  c.failures.Load(),
		Valid:     valid,
		ExpiresAt: tok.ExpiresAt,
	}
}

// Run refreshes ahead of expiry until ctx is done, retrying failures after
// the backoff.
func (c *TokenCache) Run(ctx context.Context) error {
	delay := c.untilRefresh()
	for {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if _, err := c.refreshShared(ctx, true); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			delay = c.backoff
			continue
		}
		delay = c.untilRefresh()
	}
}

// stale reports whether tok is inside the refresh margin or expired
func (c *TokenCache) stale(tok Token) bool {
	if tok.ExpiresAt.IsZero() {
		return false
	}
	return !c.now().Add(c.margin).Before(tok.ExpiresAt)
}

// untilRefresh returns the delay before the next scheduled refresh
func (c *TokenCache) untilRefresh() time.Duration {
	tok, valid := c.Token()
	if !valid {
		return 0
	}
	if tok.ExpiresAt.IsZero() {
		return idleRefresh
	}
	return max(tok.ExpiresAt.Add(-c.margin).Sub(c.now()), minRefreshDelay)
}

// refreshAsync starts a background refresh unless one is running
func (c *TokenCache) refreshAsync() {
	if !c.refreshing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.refreshing.Store(false)
		_, _ = c.refreshShared(context.Background(), true)
	}()
}

// refreshShared runs at most one provider call at a time. The call is
// detached from ctx so one caller giving up does not fail the others.
// Unless force is set, a token published by a flight that finished after
// the caller looked is reused.
func (c *TokenCache) refreshShared(ctx context.Context, force bool) (Token, error) {
	ch := c.group.DoChan(flightKey, func() (any, error) {
		if !force {
			if tok, valid := c.Token(); valid {
				return tok, nil
			}
		}
		return c.refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Token{}, res.Err
		}
		return res.Val.(Token), nil
	case <-ctx.Done():
		return Token{}, E(KindTransport, "TokenCache.Refresh", "waiting for token", ctx.Err())
	}
}

// refresh performs the provider call outside the lock and publishes the
// result under it.
func (c *TokenCache) refresh(ctx context.Context) (Token, error) {
	tok, err := c.source.FetchToken(ctx)
	if err == nil && tok.Value == "" {
		err = E(KindNoToken, "TokenCache.Refresh", "provider returned an empty token", nil)
	}
	if err != nil {
		c.failures.Add(1)
		c.logger.Warning("asr", "token", "token refresh failed (%s): %v", KindOf(err), err)
		return Token{}, err
	}

	c.mu.Lock()
	c.token, c.valid = tok, true
	c.mu.Unlock()
	c.refreshes.Add(1)

	if c.store != nil {
		if err := c.store.Save(ctx, tok); err != nil {
			c.logger.Warning("asr", "token", "failed to persist token: %v", err)
		}
	}
	c.logger.Info("asr", "token", "token refreshed, expires %s", tok.ExpiresAt.Format(time.RFC3339))
	return tok, nil
}
