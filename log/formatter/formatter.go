// FILE: lixenwraith/asrproxy/log/formatter/formatter.go
// Package formatter renders log records as single txt or json lines.
package formatter

import (
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Formatter renders records into a reused buffer. Not safe for concurrent
// use; callers serialize access.
type Formatter struct {
	sanitizer       *Sanitizer
	fieldSanitizer  *Sanitizer // module and title in txt lines
	format          string
	timestampFormat string
	buf             []byte
}

// New creates a txt formatter with the txt sanitizing policy
func New() *Formatter {
	return &Formatter{
		sanitizer:       NewSanitizer().Policy(PolicyTxt),
		fieldSanitizer:  newFieldSanitizer(),
		format:          "txt",
		timestampFormat: time.RFC3339Nano,
		buf:             make([]byte, 0, 1024),
	}
}

// newFieldSanitizer keeps "[module/title]" a single whitespace-free token
func newFieldSanitizer() *Sanitizer {
	return NewSanitizer().Rule(FilterWhitespace, TransformHexEncode).Policy(PolicyTxt)
}

// Type sets the output format ("txt" or "json") and the matching sanitizer policy
func (f *Formatter) Type(format string) *Formatter {
	f.format = format
	switch format {
	case "json":
		f.sanitizer = NewSanitizer().Policy(PolicyJSON)
	default:
		f.sanitizer = NewSanitizer().Policy(PolicyTxt)
	}
	return f
}

// Sanitizer replaces the text sanitizer
func (f *Formatter) Sanitizer(s *Sanitizer) *Formatter {
	if s != nil {
		f.sanitizer = s
	}
	return f
}

// TimestampFormat sets the timestamp layout
func (f *Formatter) TimestampFormat(format string) *Formatter {
	if format != "" {
		f.timestampFormat = format
	}
	return f
}

// jsonLine is the json output shape
type jsonLine struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Module  string `json:"module,omitempty"`
	Title   string `json:"title,omitempty"`
	Thread  uint64 `json:"thread"`
	Message string `json:"message"`
}

// Format renders one record terminated by a newline. The returned slice is
// only valid until the next call.
func (f *Formatter) Format(ts time.Time, level, module, title, message string, threadID uint64) []byte {
	f.buf = f.buf[:0]

	if f.format == "json" {
		line := jsonLine{
			Time:    ts.Format(f.timestampFormat),
			Level:   level,
			Module:  module,
			Title:   title,
			Thread:  threadID,
			Message: f.sanitizer.Sanitize(message),
		}
		data, err := json.Marshal(line)
		if err != nil {
			// Only reachable with an invalid timestamp layout
			data = []byte(`{"level":"ERROR","message":"log: json marshal failed"}`)
		}
		f.buf = append(f.buf, data...)
		f.buf = append(f.buf, '\n')
		return f.buf
	}

	f.buf = ts.AppendFormat(f.buf, f.timestampFormat)
	f.buf = append(f.buf, ' ')
	f.buf = append(f.buf, level...)
	f.buf = append(f.buf, " ["...)
	f.buf = append(f.buf, f.fieldSanitizer.Sanitize(module)...)
	f.buf = append(f.buf, '/')
	f.buf = append(f.buf, f.fieldSanitizer.Sanitize(title)...)
	f.buf = append(f.buf, "] ("...)
	f.buf = strconv.AppendUint(f.buf, threadID, 10)
	f.buf = append(f.buf, ") "...)
	f.buf = append(f.buf, f.sanitizer.Sanitize(message)...)
	f.buf = append(f.buf, '\n')
	return f.buf
}
