// FILE: lixenwraith/asrproxy/log/worker.go
package log

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/asrproxy/syncx"
)

// WorkerState is the lifecycle state of a Worker
type WorkerState int32

const (
	WorkerStopped WorkerState = iota
	WorkerStarting
	WorkerRunning
	WorkerStopping
)

func (s WorkerState) String() string {
	switch s {
	case WorkerStopped:
		return "stopped"
	case WorkerStarting:
		return "starting"
	case WorkerRunning:
		return "running"
	case WorkerStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// WorkerStats is a snapshot of a worker's counters
type WorkerStats struct {
	Dispatched uint64 // records taken off the queue and offered to receivers
	Direct     uint64 // records dispatched on the producer goroutine
	Released   uint64 // records dropped from the queue without delivery
	Panics     uint64 // receiver panics swallowed
	Queued     int    // records currently pending
}

// Worker drains a FIFO queue of records on its own goroutine and fans each
// record out to its registry.
type Worker struct {
	name         string
	registry     Registry
	pollInterval time.Duration

	stateMu sync.Mutex // serializes Start and Stop
	state   atomic.Int32
	running atomic.Bool // loop has confirmed it is running

	queueMu sync.Mutex
	queue   []*Record

	sem       *syncx.Semaphore
	terminate *syncx.Event
	stopped   *syncx.Event

	dispatched atomic.Uint64
	direct     atomic.Uint64
	released   atomic.Uint64
}

// NewWorker creates a stopped worker. pollInterval bounds how long the loop
// blocks before re-checking for termination.
func NewWorker(name string, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = DefaultConfig().PollInterval()
	}
	return &Worker{
		name:         name,
		pollInterval: pollInterval,
		sem:          syncx.NewSemaphore(),
		terminate:    syncx.NewEvent(true),
		stopped:      syncx.NewEvent(true),
	}
}

// Name returns the worker name
func (w *Worker) Name() string { return w.name }

// Registry returns the worker's receiver registry
func (w *Worker) Registry() *Registry { return &w.registry }

// State returns the current lifecycle state
func (w *Worker) State() WorkerState { return WorkerState(w.state.Load()) }

// Start launches the dispatch loop and returns once the loop is running.
// Safe to call multiple times.
func (w *Worker) Start() error {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	if w.State() == WorkerRunning {
		return nil
	}

	w.terminate.Reset()
	w.stopped.Reset()
	w.state.Store(int32(WorkerStarting))

	started := make(chan struct{})
	go w.loop(started)
	<-started

	w.state.Store(int32(WorkerRunning))
	return nil
}

// Stop asks the loop to exit, waits for it, then releases every record still
// queued. Safe to call on a stopped worker.
func (w *Worker) Stop() {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	if w.running.Load() {
		w.state.Store(int32(WorkerStopping))
		w.terminate.Set()
		w.sem.Signal() // wake the loop
		w.stopped.Wait(-1)
	}
	w.state.Store(int32(WorkerStopped))

	w.queueMu.Lock()
	if n := len(w.queue); n > 0 {
		w.released.Add(uint64(n))
		clear(w.queue)
		w.queue = w.queue[:0]
	}
	w.sem.Reset()
	w.queueMu.Unlock()
}

// Enqueue hands rec to the worker and returns the backlog seen before this
// record was added. If the loop is not running the record is dispatched on
// the caller's goroutine and 0 is returned.
func (w *Worker) Enqueue(rec *Record) int64 {
	w.queueMu.Lock()
	if !w.running.Load() {
		w.queueMu.Unlock()
		w.direct.Add(1)
		w.registry.dispatch(rec)
		return 0
	}
	w.queue = append(w.queue, rec)
	backlog := w.sem.Signal() - 1
	w.queueMu.Unlock()
	return backlog
}

// Stats returns a snapshot of the worker counters.
func (w *Worker) Stats() WorkerStats {
	w.queueMu.Lock()
	queued := len(w.queue)
	w.queueMu.Unlock()
	return WorkerStats{
		Dispatched: w.dispatched.Load(),
		Direct:     w.direct.Load(),
		Released:   w.released.Load(),
		Panics:     w.registry.panics.Load(),
		Queued:     queued,
	}
}

// loop is the dispatch goroutine
func (w *Worker) loop(started chan<- struct{}) {
	w.running.Store(true)
	close(started)

	defer func() {
		w.queueMu.Lock()
		w.running.Store(false)
		w.queueMu.Unlock()
		w.stopped.Set()
	}()

	for {
		if w.terminate.IsSet() {
			return
		}
		if !w.sem.Wait(w.pollInterval) {
			continue
		}
		// Termination wins over pending records
		if w.terminate.IsSet() {
			return
		}

		rec := w.pop()
		if rec == nil {
			continue
		}
		w.dispatched.Add(1)
		w.registry.dispatch(rec)
	}
}

// pop removes the oldest queued record
func (w *Worker) pop() *Record {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	if len(w.queue) == 0 {
		return nil
	}
	rec := w.queue[0]
	w.queue[0] = nil
	w.queue = w.queue[1:]
	return rec
}
