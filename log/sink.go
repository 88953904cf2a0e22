// FILE: lixenwraith/asrproxy/log/sink.go
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lixenwraith/asrproxy/log/formatter"
)

// WriterReceiver renders every record it receives to an io.Writer. It never
// reports a record as handled, so receivers registered after it still run.
type WriterReceiver struct {
	mu        sync.Mutex
	w         io.Writer
	formatter *formatter.Formatter
	handled   bool
}

// NewWriterReceiver creates a receiver writing format ("txt" or "json") lines to w
func NewWriterReceiver(w io.Writer, format, timestampFormat string) *WriterReceiver {
	return &WriterReceiver{
		w:         w,
		formatter: formatter.New().Type(format).TimestampFormat(timestampFormat),
	}
}

// Receive implements Receiver, stamping the line with the delivery time
func (r *WriterReceiver) Receive(level Level, module, title, message string, threadID uint64) bool {
	return r.write(time.Now(), level, module, title, message, threadID)
}

// ReceiveRecord implements RecordReceiver, keeping the creation time
func (r *WriterReceiver) ReceiveRecord(rec *Record) bool {
	return r.write(rec.Time, rec.Level, rec.Module, rec.Title, rec.Message, rec.ThreadID)
}

func (r *WriterReceiver) write(ts time.Time, level Level, module, title, message string, threadID uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	line := r.formatter.Format(ts, level.String(), module, title, message, threadID)
	if _, err := r.w.Write(line); err != nil {
		internalLog("write failed: %v\n", err)
	}
	return r.handled
}

// Close closes the underlying writer when it is closable and not a standard stream
func (r *WriterReceiver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == os.Stdout || r.w == os.Stderr {
		return nil
	}
	if c, ok := r.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// newConsoleReceiver builds the console sink described by cfg
func newConsoleReceiver(cfg *Config) *WriterReceiver {
	var w io.Writer = os.Stdout
	if cfg.ConsoleTarget == "stderr" {
		w = os.Stderr
	}
	return NewWriterReceiver(w, cfg.Format, cfg.TimestampFormat)
}

// newFileReceiver builds a size-rotated file sink. It runs alone on its own
// worker, so it reports records as handled.
func newFileReceiver(cfg *Config) *WriterReceiver {
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    int(cfg.MaxSizeMB),
		MaxBackups: int(cfg.MaxBackups),
		MaxAge:     int(cfg.MaxAgeDays),
		Compress:   cfg.Compress,
	}
	r := NewWriterReceiver(rotator, cfg.Format, cfg.TimestampFormat)
	r.handled = true
	return r
}
