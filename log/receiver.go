// FILE: lixenwraith/asrproxy/log/receiver.go
package log

import (
	"errors"
	"reflect"
	"regexp"
	"sync"
	"sync/atomic"
)

var (
	// ErrReceiverNotFound is returned when unregistering an unknown receiver
	ErrReceiverNotFound = errors.New("log: receiver not registered")
	// ErrReceiverNotComparable is returned for receivers without a usable identity
	ErrReceiverNotComparable = errors.New("log: receiver type is not comparable, register a pointer")
)

// Receiver consumes log records. Receive returns true when the record has
// been handled, which stops delivery to the remaining receivers of the same
// worker. A receiver is identified by interface equality, so implementations
// should be pointer types.
type Receiver interface {
	Receive(level Level, module, title, message string, threadID uint64) bool
}

// RecordReceiver is optionally implemented by receivers that want the whole
// record, including its creation time. Dispatch prefers it over Receive.
type RecordReceiver interface {
	Receiver
	ReceiveRecord(rec *Record) bool
}

// ReceiverFunc is the callback shape accepted by Func.
type ReceiverFunc func(level Level, module, title, message string, threadID uint64) bool

type funcReceiver struct {
	fn ReceiverFunc
}

func (f *funcReceiver) Receive(level Level, module, title, message string, threadID uint64) bool {
	return f.fn(level, module, title, message, threadID)
}

// Func wraps a function into a Receiver. Each call returns a distinct
// identity; keep the result to unregister it later.
func Func(fn ReceiverFunc) Receiver {
	return &funcReceiver{fn: fn}
}

// entry is one registration: receiver, compiled title pattern, routing flag.
type entry struct {
	receiver  Receiver
	pattern   *regexp.Regexp
	dedicated bool
}

// newEntry compiles the title pattern case-insensitively. An empty pattern
// matches every title.
func newEntry(r Receiver, titlePattern string, dedicated bool) (*entry, error) {
	if r == nil {
		return nil, fmtErrorf("receiver cannot be nil")
	}
	if !reflect.TypeOf(r).Comparable() {
		return nil, ErrReceiverNotComparable
	}
	re, err := regexp.Compile("(?i)" + titlePattern)
	if err != nil {
		return nil, fmtErrorf("invalid title pattern '%s': %w", titlePattern, err)
	}
	return &entry{receiver: r, pattern: re, dedicated: dedicated}, nil
}

// Registry is an ordered set of receivers. The most recently added receiver
// is tried first. A single mutex serializes mutation and dispatch. Title
// matching reads a copy-on-write snapshot and never takes the mutex, so
// producers routing a record do not wait on a receiver being called.
type Registry struct {
	mu      sync.Mutex
	entries []*entry // replaced, never modified in place

	snapshot atomic.Pointer[[]*entry]
	panics   atomic.Uint64
}

// publish installs entries as the current list. Caller holds mu.
func (r *Registry) publish(entries []*entry) {
	r.entries = entries
	r.snapshot.Store(&entries)
}

// add inserts e at the front. Returns false if the receiver is present.
func (r *Registry) add(e *entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cur := range r.entries {
		if cur.receiver == e.receiver {
			return false
		}
	}
	r.publish(append([]*entry{e}, r.entries...))
	return true
}

// remove drops the entry for rcv. Returns false if not found.
func (r *Registry) remove(rcv Receiver) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.entries {
		if cur.receiver == rcv {
			next := make([]*entry, 0, len(r.entries)-1)
			next = append(next, r.entries[:i]...)
			r.publish(append(next, r.entries[i+1:]...))
			return true
		}
	}
	return false
}

// contains reports whether rcv is registered.
func (r *Registry) contains(rcv Receiver) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cur := range r.entries {
		if cur.receiver == rcv {
			return true
		}
	}
	return false
}

// Matches reports whether any entry's pattern matches title. It does not
// block on a dispatch in progress.
func (r *Registry) Matches(title string) bool {
	entries := r.snapshot.Load()
	if entries == nil {
		return false
	}
	for _, cur := range *entries {
		if cur.pattern.MatchString(title) {
			return true
		}
	}
	return false
}

// clear drops every entry
func (r *Registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publish(nil)
}

// Len returns the number of registered receivers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// dispatch offers rec to each matching entry, front to back, until one
// reports it handled.
func (r *Registry) dispatch(rec *Record) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cur := range r.entries {
		if !cur.pattern.MatchString(rec.Title) {
			continue
		}
		if r.deliver(cur.receiver, rec) {
			return true
		}
	}
	return false
}

// deliver calls one receiver, swallowing panics
func (r *Registry) deliver(rcv Receiver, rec *Record) (handled bool) {
	defer func() {
		if p := recover(); p != nil {
			r.panics.Add(1)
			internalLog("receiver %T panicked on record '%s': %v\n", rcv, rec.Title, p)
			handled = false
		}
	}()
	if rr, ok := rcv.(RecordReceiver); ok {
		return rr.ReceiveRecord(rec)
	}
	return rcv.Receive(rec.Level, rec.Module, rec.Title, rec.Message, rec.ThreadID)
}
