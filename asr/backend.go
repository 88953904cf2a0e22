// FILE: lixenwraith/asrproxy/asr/backend.go
package asr

import (
	"context"
	"strings"

	"github.com/lixenwraith/asrproxy/log"
)

// TokenSource fetches a new access token from a provider
type TokenSource interface {
	FetchToken(ctx context.Context) (Token, error)
}

// Backend is one speech recognition provider
type Backend interface {
	TokenSource
	Name() string
	Recognize(ctx context.Context, token string, audio []byte) (string, error)
}

// Provider selects a Backend implementation
type Provider string

const (
	ProviderBaidu Provider = "baidu"
)

var providerAliases = map[string]Provider{
	"baidu": ProviderBaidu,
	"bd":    ProviderBaidu,
}

var providers = map[Provider]func(cfg *Config, logger *log.Facility) Backend{
	ProviderBaidu: func(cfg *Config, logger *log.Facility) Backend { return NewBaiduBackend(cfg, logger) },
}

// ParseProvider resolves a provider tag or alias, case-insensitively
func ParseProvider(tag string) (Provider, error) {
	if p, ok := providerAliases[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return p, nil
	}
	return "", E(KindConfig, "asr.ParseProvider", "unknown provider '"+tag+"'", nil)
}

// NewBackend builds the backend named by cfg.Provider
func NewBackend(cfg *Config, logger *log.Facility) (Backend, error) {
	p, err := ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return providers[p](cfg, logger), nil
}
