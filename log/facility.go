// FILE: lixenwraith/asrproxy/log/facility.go
package log

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// ErrFacilityReleased is returned by registration calls on a released Facility
var ErrFacilityReleased = errors.New("log: facility released")

// maxBlastSleep caps the producer throttle applied after an enqueue
const maxBlastSleep = 5 * time.Millisecond

// FacilityStats is a snapshot of a facility's workers
type FacilityStats struct {
	Default   WorkerStats
	Dedicated WorkerStats // summed over all dedicated workers
	Workers   int         // number of dedicated workers
}

// Facility routes records to one default worker and any number of dedicated
// workers. All methods are safe for concurrent use.
type Facility struct {
	cfg *Config

	level          atomic.Int32
	defaultLevel   Level
	blastAvoidance bool
	callback       atomic.Pointer[ReceiverFunc]
	released       atomic.Bool

	defaultWorker *Worker

	mu        sync.Mutex // guards dedicated and seq
	dedicated map[Receiver]*Worker
	seq       int

	sinks     []io.Closer
	heartbeat *heartbeat
}

// New creates a started facility from cfg. A nil cfg uses DefaultConfig.
func New(cfg *Config) (*Facility, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, fmtErrorf("invalid configuration: %w", err)
	}

	internalErrors.Store(cfg.InternalErrorsToStderr)

	f := &Facility{
		cfg:            cfg,
		defaultLevel:   cfg.MinLevel(),
		blastAvoidance: cfg.BlastAvoidance,
		defaultWorker:  NewWorker("default", cfg.PollInterval()),
		dedicated:      make(map[Receiver]*Worker),
	}
	f.level.Store(int32(f.defaultLevel))

	if err := f.defaultWorker.Start(); err != nil {
		return nil, fmtErrorf("failed to start default worker: %w", err)
	}

	if err := f.attachSinks(); err != nil {
		f.Release()
		return nil, err
	}

	if cfg.HeartbeatIntervalS > 0 {
		f.heartbeat = startHeartbeat(f, time.Duration(cfg.HeartbeatIntervalS)*time.Second)
	}

	return f, nil
}

// attachSinks registers the console and file receivers enabled in the config
func (f *Facility) attachSinks() error {
	if f.cfg.EnableConsole {
		console := newConsoleReceiver(f.cfg)
		if _, err := f.RegisterReceiver(console, f.cfg.ConsoleTitle, false); err != nil {
			return fmtErrorf("failed to register console receiver: %w", err)
		}
		f.sinks = append(f.sinks, console)
	}
	if f.cfg.File != "" {
		file := newFileReceiver(f.cfg)
		if _, err := f.RegisterReceiver(file, f.cfg.FileTitle, true); err != nil {
			return fmtErrorf("failed to register file receiver: %w", err)
		}
		f.sinks = append(f.sinks, file)
	}
	return nil
}

// Config returns a copy of the configuration the facility was built from
func (f *Facility) Config() *Config {
	return f.cfg.Clone()
}

// Enabled reports whether a record at level would be emitted
func (f *Facility) Enabled(level Level) bool {
	return level >= Level(f.level.Load()) && !f.released.Load()
}

// SetLevel sets the minimum level
func (f *Facility) SetLevel(level Level) {
	f.level.Store(int32(level))
}

// GetLevel returns the minimum level
func (f *Facility) GetLevel() Level {
	return Level(f.level.Load())
}

// ResetLevel restores the configured minimum level
func (f *Facility) ResetLevel() {
	f.level.Store(int32(f.defaultLevel))
}

// SetGlobalCallback installs fn to receive every emitted record instead of
// the registered receivers. A nil fn restores receiver routing.
func (f *Facility) SetGlobalCallback(fn ReceiverFunc) {
	if fn == nil {
		f.callback.Store(nil)
		return
	}
	f.callback.Store(&fn)
}

// AppendLog builds a record and routes it to every dedicated worker whose
// registry matches the title and to the default worker.
func (f *Facility) AppendLog(level Level, module, title, message string) {
	if !f.Enabled(level) {
		return
	}

	if cb := f.callback.Load(); cb != nil {
		(*cb)(level, module, title, message, goroutineID())
		return
	}

	rec := newRecord(level, module, title, message)

	var backlog int64
	for _, w := range f.dedicatedWorkers() {
		if w.Registry().Matches(title) {
			backlog = max(backlog, w.Enqueue(rec))
		}
	}
	backlog = max(backlog, f.defaultWorker.Enqueue(rec))

	if f.blastAvoidance && backlog > 0 {
		time.Sleep(min(time.Duration(backlog)*time.Microsecond, maxBlastSleep))
	}
}

// Logf formats and appends a record. Formatting is skipped below the minimum level.
func (f *Facility) Logf(level Level, module, title, format string, args ...any) {
	if !f.Enabled(level) {
		return
	}
	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}
	f.AppendLog(level, module, title, message)
}

// Debug logs at DEBUG
func (f *Facility) Debug(module, title, format string, args ...any) {
	f.Logf(LevelDebug, module, title, format, args...)
}

// Info logs at INFO
func (f *Facility) Info(module, title, format string, args ...any) {
	f.Logf(LevelInfo, module, title, format, args...)
}

// Notice logs at NOTICE
func (f *Facility) Notice(module, title, format string, args ...any) {
	f.Logf(LevelNotice, module, title, format, args...)
}

// Warning logs at WARNING
func (f *Facility) Warning(module, title, format string, args ...any) {
	f.Logf(LevelWarning, module, title, format, args...)
}

// Error logs at ERROR
func (f *Facility) Error(module, title, format string, args ...any) {
	f.Logf(LevelError, module, title, format, args...)
}

// Fatal logs at FATAL. It does not exit the process.
func (f *Facility) Fatal(module, title, format string, args ...any) {
	f.Logf(LevelFatal, module, title, format, args...)
}

// Notify logs at NOTIFY
func (f *Facility) Notify(module, title, format string, args ...any) {
	f.Logf(LevelNotify, module, title, format, args...)
}

// RegisterReceiver adds r with a case-insensitive title pattern. A dedicated
// receiver gets its own worker. Returns false with a nil error when r is
// already registered in the same place.
func (f *Facility) RegisterReceiver(r Receiver, titlePattern string, dedicated bool) (bool, error) {
	if f.released.Load() {
		return false, ErrFacilityReleased
	}
	e, err := newEntry(r, titlePattern, dedicated)
	if err != nil {
		return false, err
	}

	if !dedicated {
		return f.defaultWorker.Registry().add(e), nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.dedicated[r]; exists {
		return false, nil
	}

	f.seq++
	w := NewWorker("dedicated-"+strconv.Itoa(f.seq), f.cfg.PollInterval())
	w.Registry().add(e)
	if err := w.Start(); err != nil {
		return false, fmtErrorf("failed to start dedicated worker: %w", err)
	}
	f.dedicated[r] = w
	return true, nil
}

// dedicatedWorkers returns a snapshot of the dedicated workers
func (f *Facility) dedicatedWorkers() []*Worker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.dedicated) == 0 {
		return nil
	}
	workers := make([]*Worker, 0, len(f.dedicated))
	for _, w := range f.dedicated {
		workers = append(workers, w)
	}
	return workers
}

// lookupDedicated returns the worker owning r. Receivers that cannot be map
// keys are never registered.
func (f *Facility) lookupDedicated(r Receiver) (*Worker, bool) {
	if r == nil || !reflect.TypeOf(r).Comparable() {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.dedicated[r]
	return w, ok
}

// UnregisterReceiver removes r, stopping its worker if it was dedicated.
// Returns ErrReceiverNotFound when r is not registered. Once it returns, r
// receives no further records.
func (f *Facility) UnregisterReceiver(r Receiver) error {
	if r == nil || !reflect.TypeOf(r).Comparable() {
		return ErrReceiverNotFound
	}

	f.mu.Lock()
	w, ok := f.dedicated[r]
	if ok {
		delete(f.dedicated, r)
	}
	f.mu.Unlock()

	if ok {
		// Producers holding an older snapshot may still reach w
		w.Registry().clear()
		w.Stop()
		return nil
	}

	if f.defaultWorker.Registry().remove(r) {
		return nil
	}
	return ErrReceiverNotFound
}

// IsRegistered reports whether r is registered on any worker
func (f *Facility) IsRegistered(r Receiver) bool {
	if _, ok := f.lookupDedicated(r); ok {
		return true
	}
	return r != nil && f.defaultWorker.Registry().contains(r)
}

// Stats returns a snapshot of the worker counters
func (f *Facility) Stats() FacilityStats {
	workers := f.dedicatedWorkers()

	stats := FacilityStats{
		Default: f.defaultWorker.Stats(),
		Workers: len(workers),
	}
	for _, w := range workers {
		ws := w.Stats()
		stats.Dedicated.Dispatched += ws.Dispatched
		stats.Dedicated.Direct += ws.Direct
		stats.Dedicated.Released += ws.Released
		stats.Dedicated.Panics += ws.Panics
		stats.Dedicated.Queued += ws.Queued
	}
	return stats
}

// Release stops every worker and drops all registrations. Later logging on
// this facility is a no-op. Safe to call more than once.
func (f *Facility) Release() error {
	if !f.released.CompareAndSwap(false, true) {
		return nil
	}

	if f.heartbeat != nil {
		f.heartbeat.stop()
	}

	f.mu.Lock()
	workers := f.dedicated
	f.dedicated = make(map[Receiver]*Worker)
	f.mu.Unlock()

	for _, w := range workers {
		w.Stop()
		w.Registry().clear()
	}
	f.defaultWorker.Stop()
	f.defaultWorker.Registry().clear()

	var err error
	for _, s := range f.sinks {
		err = combineErrors(err, s.Close())
	}
	f.sinks = nil
	return err
}

// Released reports whether Release has been called
func (f *Facility) Released() bool {
	return f.released.Load()
}
