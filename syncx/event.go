// FILE: lixenwraith/asrproxy/syncx/event.go
// Package syncx provides the blocking and signaling primitives used by the
// log dispatch workers: a binary Event and a counting Semaphore.
//
// Both types follow the same timeout convention: a negative timeout blocks
// until signaled, zero polls, and a positive timeout bounds the wait.
package syncx

import (
	"sync"
	"time"
)

// Event is a binary signal. An auto-reset event is cleared by the waiter that
// observes it; a manual-reset event stays set until Reset is called.
type Event struct {
	mu     sync.Mutex
	set    bool
	manual bool
	wake   chan struct{} // closed and replaced on every Set
}

// NewEvent creates a cleared event.
func NewEvent(manualReset bool) *Event {
	return &Event{
		manual: manualReset,
		wake:   make(chan struct{}),
	}
}

// Set signals the event and wakes all current waiters.
func (e *Event) Set() {
	e.mu.Lock()
	e.set = true
	close(e.wake)
	e.wake = make(chan struct{})
	e.mu.Unlock()
}

// Reset clears the event.
func (e *Event) Reset() {
	e.mu.Lock()
	e.set = false
	e.mu.Unlock()
}

// IsSet reports the current state without consuming it.
func (e *Event) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// Wait blocks until the event is set or the timeout expires and reports
// whether the event was observed set.
func (e *Event) Wait(timeout time.Duration) bool {
	return waitFor(timeout, func() (bool, <-chan struct{}) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.set {
			if !e.manual {
				e.set = false
			}
			return true, nil
		}
		return false, e.wake
	})
}

// waitFor runs try until it succeeds or the deadline passes. try returns the
// channel to block on when it does not succeed.
func waitFor(timeout time.Duration, try func() (bool, <-chan struct{})) bool {
	var deadline <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		ok, wake := try()
		if ok {
			return true
		}
		if timeout == 0 {
			return false
		}
		select {
		case <-wake:
		case <-deadline:
			// Last look in case the signal raced the timer
			ok, _ = try()
			return ok
		}
	}
}
