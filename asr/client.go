// FILE: lixenwraith/asrproxy/asr/client.go
package asr

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/lixenwraith/asrproxy/log"
)

// Client recognizes audio through a Backend using a shared TokenCache. Safe
// for concurrent use.
type Client struct {
	cfg     *Config
	backend Backend
	tokens  *TokenCache
	logger  *log.Facility

	requests atomic.Uint64
	failures atomic.Uint64
}

// ClientOption configures a Client
type ClientOption func(*clientOptions)

type clientOptions struct {
	backend Backend
	store   TokenStore
	logger  *log.Facility
}

// WithBackend bypasses the provider factory
func WithBackend(b Backend) ClientOption {
	return func(o *clientOptions) { o.backend = b }
}

// WithTokenStore persists tokens in store
func WithTokenStore(store TokenStore) ClientOption {
	return func(o *clientOptions) { o.store = store }
}

// WithLogger sets the facility the client logs to
func WithLogger(logger *log.Facility) ClientOption {
	return func(o *clientOptions) { o.logger = logger }
}

// NewClient validates cfg and wires the backend and token cache. A
// configured store is read once to seed the cache.
func NewClient(ctx context.Context, cfg *Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, E(KindConfig, "asr.NewClient", "configuration cannot be nil", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()

	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	if o.backend == nil {
		b, err := NewBackend(cfg, o.logger)
		if err != nil {
			return nil, err
		}
		o.backend = b
	}

	cacheOpts := []CacheOption{
		WithCacheLogger(o.logger),
		WithRefreshMargin(cfg.RefreshMargin()),
		WithRetryBackoff(cfg.RetryBackoff()),
	}
	if o.store != nil {
		cacheOpts = append(cacheOpts, WithStore(o.store))
	}

	c := &Client{
		cfg:     cfg,
		backend: o.backend,
		tokens:  NewTokenCache(o.backend, cacheOpts...),
		logger:  o.logger,
	}
	if err := c.tokens.Seed(ctx); err != nil {
		c.logger.Warning("asr", "token", "ignoring token store: %v", err)
	}
	return c, nil
}

// Tokens returns the client's token cache
func (c *Client) Tokens() *TokenCache { return c.tokens }

// Backend returns the provider backend
func (c *Client) Backend() Backend { return c.backend }

// Run keeps the token fresh until ctx is done
func (c *Client) Run(ctx context.Context) error {
	return c.tokens.Run(ctx)
}

// Recognize transcribes audio. A token rejected by the provider is marked
// stale so the next call revalidates it.
func (c *Client) Recognize(ctx context.Context, audio []byte) (string, error) {
	c.requests.Add(1)

	token, err := c.tokens.Get(ctx)
	if err != nil {
		c.failures.Add(1)
		return "", err
	}

	text, err := c.backend.Recognize(ctx, token, audio)
	if err != nil {
		c.failures.Add(1)
		if IsKind(err, KindAuth) {
			c.tokens.MarkStale()
		}
		c.logger.Error("asr", "asr", "recognition failed (%s): %v", KindOf(err), err)
		return "", err
	}

	c.logger.Notice("asr", "asr", "result: %s", text)
	return text, nil
}

// RecognizeFile transcribes a file under the configured audio directory.
// path must be local to it: absolute paths and paths escaping the directory
// are rejected. With no audio directory configured path mode is disabled.
func (c *Client) RecognizeFile(ctx context.Context, path string) (string, error) {
	audio, err := c.readAudio(path)
	if err != nil {
		c.requests.Add(1)
		c.failures.Add(1)
		c.logger.Warning("asr", "asr", "path request '%s' refused: %v", path, err)
		return "", err
	}
	return c.Recognize(ctx, audio)
}

// readAudio reads path through an os.Root opened on the audio directory.
// Every read failure reports the same message so callers cannot probe
// which files exist.
func (c *Client) readAudio(path string) ([]byte, error) {
	const op = "asr.RecognizeFile"
	if c.cfg.AudioDir == "" {
		return nil, E(KindConfig, op, "path mode disabled, audio_dir not set", nil)
	}
	if path == "" || !filepath.IsLocal(path) {
		return nil, E(KindFileMissing, op, "audio file unavailable", nil)
	}

	root, err := os.OpenRoot(c.cfg.AudioDir)
	if err != nil {
		return nil, E(KindConfig, op, "cannot open audio_dir", err)
	}
	defer root.Close()

	f, err := root.Open(path)
	if err != nil {
		return nil, E(KindFileMissing, op, "audio file unavailable", err)
	}
	defer f.Close()

	audio, err := io.ReadAll(f)
	if err != nil {
		return nil, E(KindFileMissing, op, "audio file unavailable", err)
	}
	return audio, nil
}

// Counters returns the number of requests and failed requests
func (c *Client) Counters() (requests, failures uint64) {
	return c.requests.Load(), c.failures.Load()
}
