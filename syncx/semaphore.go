// FILE: lixenwraith/asrproxy/syncx/semaphore.go
package syncx

import (
	"sync"
	"time"
)

// Semaphore is a counting semaphore. Signal reports the resulting count so
// producers can see how far the consumer has fallen behind.
type Semaphore struct {
	mu    sync.Mutex
	count int64
	wake  chan struct{}
}

// NewSemaphore creates a semaphore with a zero count.
func NewSemaphore() *Semaphore {
	return &Semaphore{wake: make(chan struct{})}
}

// Signal increments the count and returns the new value.
func (s *Semaphore) Signal() int64 {
	s.mu.Lock()
	s.count++
	n := s.count
	close(s.wake)
	s.wake = make(chan struct{})
	s.mu.Unlock()
	return n
}

// Wait blocks until the count is positive, then decrements it. It honors the
// same timeout semantics as Event.Wait.
func (s *Semaphore) Wait(timeout time.Duration) bool {
	return waitFor(timeout, func() (bool, <-chan struct{}) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.count > 0 {
			s.count--
			return true, nil
		}
		return false, s.wake
	})
}

// Reset drops the count to zero.
func (s *Semaphore) Reset() {
	s.mu.Lock()
	s.count = 0
	s.mu.Unlock()
}

// Count returns the current count.
func (s *Semaphore) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
