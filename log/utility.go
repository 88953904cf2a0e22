// FILE: lixenwraith/asrproxy/log/utility.go
package log

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
)

// internalErrors toggles internal diagnostics on stderr
var internalErrors atomic.Bool

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "log: ") {
		format = "log: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%v; %w", err1, err2)
}

// internalLog writes logger diagnostics to stderr when enabled. It never goes
// through a Facility, so it is safe to call from inside the dispatch loop.
func internalLog(format string, args ...any) {
	if !internalErrors.Load() {
		return
	}
	if !strings.HasPrefix(format, "log: ") {
		format = "log: " + format
	}
	fmt.Fprintf(os.Stderr, format, args...)
}
