// FILE: lixenwraith/asrproxy/log/level.go
package log

import (
	"strings"
)

// Level is the severity of a log record.
type Level int32

// Log level constants, ordered by severity
const (
	LevelDebug Level = iota
	LevelInfo
	LevelNotice
	LevelWarning
	LevelError
	LevelFatal
	LevelNotify
)

var levelNames = [...]string{
	LevelDebug:   "DEBUG",
	LevelInfo:    "INFO",
	LevelNotice:  "NOTICE",
	LevelWarning: "WARNING",
	LevelError:   "ERROR",
	LevelFatal:   "FATAL",
	LevelNotify:  "NOTIFY",
}

// String returns the upper-case level name.
func (l Level) String() string {
	if l < LevelDebug || l > LevelNotify {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= LevelDebug && l <= LevelNotify
}

// ParseLevel converts a level name to its constant.
func ParseLevel(levelStr string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "notice":
		return LevelNotice, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	case "notify":
		return LevelNotify, nil
	default:
		return LevelInfo, fmtErrorf("invalid level string: '%s' (use debug, info, notice, warning, error, fatal, notify)", levelStr)
	}
}
