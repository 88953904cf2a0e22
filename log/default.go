// FILE: lixenwraith/asrproxy/log/default.go
package log

import "sync"

var (
	defaultMu       sync.Mutex
	defaultFacility *Facility
)

// Default returns the process-wide facility, creating an empty one with
// DefaultConfig on first use or after Release.
func Default() *Facility {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultFacility == nil || defaultFacility.Released() {
		f, err := New(DefaultConfig())
		if err != nil {
			// DefaultConfig always validates
			panic(err)
		}
		defaultFacility = f
	}
	return defaultFacility
}

// SetDefault installs f as the process-wide facility and returns the
// previous one, which the caller owns.
func SetDefault(f *Facility) *Facility {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultFacility
	defaultFacility = f
	return prev
}

// Release tears down the process-wide facility. The next use of Default
// creates a fresh one with no receivers.
func Release() error {
	defaultMu.Lock()
	f := defaultFacility
	defaultFacility = nil
	defaultMu.Unlock()
	if f == nil {
		return nil
	}
	return f.Release()
}

// AppendLog routes a preformatted message through the default facility
func AppendLog(level Level, module, title, message string) {
	Default().AppendLog(level, module, title, message)
}

// Logf logs through the default facility
func Logf(level Level, module, title, format string, args ...any) {
	Default().Logf(level, module, title, format, args...)
}

// Debug logs at DEBUG through the default facility
func Debug(module, title, format string, args ...any) {
	Default().Logf(LevelDebug, module, title, format, args...)
}

// Info logs at INFO through the default facility
func Info(module, title, format string, args ...any) {
	Default().Logf(LevelInfo, module, title, format, args...)
}

// Notice logs at NOTICE through the default facility
func Notice(module, title, format string, args ...any) {
	Default().Logf(LevelNotice, module, title, format, args...)
}

// Warning logs at WARNING through the default facility
func Warning(module, title, format string, args ...any) {
	Default().Logf(LevelWarning, module, title, format, args...)
}

// Error logs at ERROR through the default facility
func Error(module, title, format string, args ...any) {
	Default().Logf(LevelError, module, title, format, args...)
}

// Fatal logs at FATAL through the default facility. It does not exit.
func Fatal(module, title, format string, args ...any) {
	Default().Logf(LevelFatal, module, title, format, args...)
}

// Notify logs at NOTIFY through the default facility
func Notify(module, title, format string, args ...any) {
	Default().Logf(LevelNotify, module, title, format, args...)
}

// SetLevel sets the default facility's minimum level
func SetLevel(level Level) { Default().SetLevel(level) }

// GetLevel returns the default facility's minimum level
func GetLevel() Level { return Default().GetLevel() }

// ResetLevel restores the default facility's configured level
func ResetLevel() { Default().ResetLevel() }

// SetGlobalCallback installs a bypass callback on the default facility
func SetGlobalCallback(fn ReceiverFunc) { Default().SetGlobalCallback(fn) }

// RegisterReceiver registers r on the default facility
func RegisterReceiver(r Receiver, titlePattern string, dedicated bool) (bool, error) {
	return Default().RegisterReceiver(r, titlePattern, dedicated)
}

// UnregisterReceiver removes r from the default facility
func UnregisterReceiver(r Receiver) error {
	return Default().UnregisterReceiver(r)
}
