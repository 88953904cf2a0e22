// FILE: lixenwraith/asrproxy/log/helpers_test.go
package log

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recorder collects every record it receives
type recorder struct {
	mu      sync.Mutex
	records []Record
	handled bool
}

func (r *recorder) Receive(level Level, module, title, message string, threadID uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, Record{Level: level, Module: module, Title: title, Message: message, ThreadID: threadID})
	return r.handled
}

func (r *recorder) snapshot() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// createTestFacility creates a facility with a short poll interval and no throttling
func createTestFacility(t testing.TB) *Facility {
	t.Helper()
	cfg := DefaultConfig()
	cfg.PollIntervalMs = 10
	cfg.BlastAvoidance = false

	f, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Release() })
	return f
}

func waitForCount(t *testing.T, r *recorder, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return r.count() >= n }, 2*time.Second, 5*time.Millisecond)
}
