// FILE: lixenwraith/asrproxy/log/compat/gnet.go
// Package compat adapts the logging facility to the logger interfaces of
// third-party libraries.
package compat

import (
	"fmt"

	"github.com/panjf2000/gnet/v2/pkg/logging"

	"github.com/lixenwraith/asrproxy/log"
)

var _ logging.Logger = (*GnetAdapter)(nil)

// GnetAdapter implements gnet's logging.Logger on top of a Facility
type GnetAdapter struct {
	facility     *log.Facility
	title        string
	fatalHandler func(msg string) // Customizable fatal behavior
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a handler called after a Fatalf record is logged
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// WithGnetTitle sets the record title, "gnet" by default
func WithGnetTitle(title string) GnetOption {
	return func(a *GnetAdapter) {
		a.title = title
	}
}

// NewGnetAdapter creates a gnet-compatible logger. Fatalf never exits the
// process unless a fatal handler does so.
func NewGnetAdapter(facility *log.Facility, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		facility: facility,
		title:    "gnet",
	}
	for _, opt := range opts {
		opt(adapter)
	}
	return adapter
}

// Debugf logs at debug level with printf-style formatting
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.facility.Logf(log.LevelDebug, "gnet", a.title, format, args...)
}

// Infof logs at info level with printf-style formatting
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.facility.Logf(log.LevelInfo, "gnet", a.title, format, args...)
}

// Warnf logs at warning level with printf-style formatting
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.facility.Logf(log.LevelWarning, "gnet", a.title, format, args...)
}

// Errorf logs at error level with printf-style formatting
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.facility.Logf(log.LevelError, "gnet", a.title, format, args...)
}

// Fatalf logs at fatal level and triggers the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.facility.AppendLog(log.LevelFatal, "gnet", a.title, msg)
	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}
