// FILE: lixenwraith/asrproxy/log/heartbeat.go
package log

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

// heartbeat periodically logs facility statistics at NOTIFY
type heartbeat struct {
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func startHeartbeat(f *Facility, interval time.Duration) *heartbeat {
	hb := &heartbeat{done: make(chan struct{})}
	hb.wg.Add(1)
	go func() {
		defer hb.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var sequence uint64
		start := time.Now()
		for {
			select {
			case <-hb.done:
				return
			case <-ticker.C:
				sequence++
				f.AppendLog(LevelNotify, "log", "heartbeat", heartbeatMessage(f.Stats(), sequence, time.Since(start)))
			}
		}
	}()
	return hb
}

func (hb *heartbeat) stop() {
	hb.once.Do(func() { close(hb.done) })
	hb.wg.Wait()
}

// heartbeatMessage renders stats as space separated key=value pairs
func heartbeatMessage(s FacilityStats, sequence uint64, uptime time.Duration) string {
	return fmt.Sprintf("sequence=%d uptime_hours=%.2f dispatched=%d direct=%d released=%d panics=%d queued=%d dedicated_workers=%d goroutines=%d",
		sequence,
		uptime.Hours(),
		s.Default.Dispatched+s.Dedicated.Dispatched,
		s.Default.Direct+s.Dedicated.Direct,
		s.Default.Released+s.Dedicated.Released,
		s.Default.Panics+s.Dedicated.Panics,
		s.Default.Queued+s.Dedicated.Queued,
		s.Workers,
		runtime.NumGoroutine(),
	)
}
