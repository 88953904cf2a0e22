// FILE: lixenwraith/asrproxy/asr/errors.go
package asr

import (
	"errors"
	"fmt"
)

// Kind classifies failures. The numeric value doubles as the RPC status code.
type Kind int32

const (
	KindConfig      Kind = iota + 1 // invalid or missing settings
	KindTransport                   // network failure or non-2xx response
	KindParse                       // malformed provider response
	KindNoToken                     // token response without an access token
	KindBadScope                    // token lacks the speech scope
	KindFileMissing                 // local audio file not found
	KindInternal                    // unexpected state, e.g. no client wired
	KindBackend                     // provider rejected the request
	KindAuth                        // provider rejected the token
)

var kindNames = map[Kind]string{
	KindConfig:      "config",
	KindTransport:   "transport",
	KindParse:       "parse",
	KindNoToken:     "no_token",
	KindBadScope:    "bad_scope",
	KindFileMissing: "file_missing",
	KindInternal:    "internal",
	KindBackend:     "backend",
	KindAuth:        "auth",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int32(k))
}

// Error is the error type returned by this package
type Error struct {
	Kind Kind
	Op   string // operation name, ex: "baidu.FetchToken"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Op != "" && e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Op != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String() + " error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error
func E(kind Kind, op, msg string, err error) error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf returns the kind of err. Errors not produced by this package are internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries kind
func IsKind(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}
