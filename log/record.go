// FILE: lixenwraith/asrproxy/log/record.go
package log

import (
	"bytes"
	"runtime"
	"strconv"
	"time"
)

// Record is one log line plus its metadata. Records are never modified after
// construction, so the same record may be held by several workers at once.
type Record struct {
	Level    Level
	Module   string
	Title    string
	Message  string
	ThreadID uint64
	Time     time.Time
}

// newRecord captures the producing goroutine and the current time.
func newRecord(level Level, module, title, message string) *Record {
	return &Record{
		Level:    level,
		Module:   module,
		Title:    title,
		Message:  message,
		ThreadID: goroutineID(),
		Time:     time.Now(),
	}
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the current goroutine id from the stack header
// ("goroutine 42 [running]:"). Returns 0 if the header is not recognized.
func goroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
