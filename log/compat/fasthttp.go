// FILE: lixenwraith/asrproxy/log/compat/fasthttp.go
package compat

import (
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/asrproxy/log"
)

var _ fasthttp.Logger = (*FastHTTPAdapter)(nil)

// FastHTTPAdapter implements fasthttp's Logger on top of a Facility
type FastHTTPAdapter struct {
	facility      *log.Facility
	title         string
	levelDetector func(string) log.Level // Detects the level from message content
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithLevelDetector sets a custom function to detect log level from message content
func WithLevelDetector(detector func(string) log.Level) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.levelDetector = detector
	}
}

// WithFastHTTPTitle sets the record title, "fasthttp" by default
func WithFastHTTPTitle(title string) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.title = title
	}
}

// NewFastHTTPAdapter creates a fasthttp-compatible logger adapter
func NewFastHTTPAdapter(facility *log.Facility, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		facility:      facility,
		title:         "fasthttp",
		levelDetector: DetectLogLevel,
	}
	for _, opt := range opts {
		opt(adapter)
	}
	return adapter
}

// Printf implements fasthttp's Logger interface
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	level := log.LevelInfo
	if a.levelDetector != nil {
		level = a.levelDetector(msg)
	}
	a.facility.AppendLog(level, "fasthttp", a.title, msg)
}

// DetectLogLevel guesses a level from message content
func DetectLogLevel(msg string) log.Level {
	msgLower := strings.ToLower(msg)

	if strings.Contains(msgLower, "error") ||
		strings.Contains(msgLower, "failed") ||
		strings.Contains(msgLower, "fatal") ||
		strings.Contains(msgLower, "panic") {
		return log.LevelError
	}

	if strings.Contains(msgLower, "warn") ||
		strings.Contains(msgLower, "deprecated") {
		return log.LevelWarning
	}

	if strings.Contains(msgLower, "debug") ||
		strings.Contains(msgLower, "trace") {
		return log.LevelDebug
	}

	return log.LevelInfo
}
