// FILE: lixenwraith/asrproxy/cmd/logstress/main.go
// Command logstress floods a log facility from many goroutines to exercise
// queueing, blast avoidance, dedicated workers and file rotation.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/asrproxy/log"
)

var levels = []log.Level{
	log.LevelDebug,
	log.LevelInfo,
	log.LevelNotice,
	log.LevelWarning,
	log.LevelError,
}

var titles = []string{"rpc", "http", "token", "asr"}

func randomMessage(size int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "
	var sb strings.Builder
	sb.Grow(size)
	for i := 0; i < size; i++ {
		sb.WriteByte(chars[rand.Intn(len(chars))])
	}
	return sb.String()
}

func burst(f *log.Facility, id, records, maxSize int) {
	for i := 0; i < records; i++ {
		f.Logf(levels[rand.Intn(len(levels))], "stress", titles[rand.Intn(len(titles))],
			"wkr=%d seq=%d msg=%s", id, i, randomMessage(rand.Intn(maxSize)+10))
	}
}

func main() {
	dir := flag.String("dir", "./logstress", "log output directory")
	bursts := flag.Int("bursts", 100, "number of bursts")
	perBurst := flag.Int("records", 500, "records per burst")
	producers := flag.Int("producers", 64, "concurrent producers")
	maxSize := flag.Int("max-message", 2000, "largest random message")
	blast := flag.Bool("blast", true, "throttle producers by backlog")
	flag.Parse()

	_ = os.RemoveAll(*dir)
	f, err := log.NewBuilder().
		Level(log.LevelDebug).
		BlastAvoidance(*blast).
		File(filepath.Join(*dir, "stress.log"), "").
		Rotation(1, 20, 0, false).
		InternalErrorsToStderr(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logstress: %v\n", err)
		os.Exit(1)
	}

	// The token title goes to its own worker so a slow default receiver
	// cannot hold it up.
	var tokenRecords atomic.Int64
	counter := log.Func(func(level log.Level, module, title, message string, threadID uint64) bool {
		tokenRecords.Add(1)
		return false
	})
	if _, err := f.RegisterReceiver(counter, "token", true); err != nil {
		fmt.Fprintf(os.Stderr, "logstress: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("logstress: %d producers, %d bursts of %d records into %s\n", *producers, *bursts, *perBurst, *dir)
	start := time.Now()

	work := make(chan int)
	var wg sync.WaitGroup
	var completed atomic.Int64
	for p := 0; p < *producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range work {
				burst(f, id, *perBurst, *maxSize)
				if n := completed.Add(1); n%10 == 0 || n == int64(*bursts) {
					fmt.Printf("\rprogress: %d/%d bursts", n, *bursts)
				}
			}
		}()
	}
	for id := 0; id < *bursts; id++ {
		work <- id
	}
	close(work)
	wg.Wait()
	produced := time.Since(start)

	before := f.Stats()
	if err := f.UnregisterReceiver(counter); err != nil || f.IsRegistered(counter) {
		fmt.Fprintf(os.Stderr, "logstress: token receiver not removed: %v\n", err)
	}
	if err := f.Release(); err != nil {
		fmt.Fprintf(os.Stderr, "\nlogstress: release: %v\n", err)
	}

	total := *bursts * *perBurst
	fmt.Printf("\nproduced %d records in %v (%.0f/s)\n", total, produced, float64(total)/produced.Seconds())
	fmt.Printf("default worker: dispatched=%d direct=%d queued_at_release=%d\n",
		before.Default.Dispatched, before.Default.Direct, before.Default.Queued)
	fmt.Printf("dedicated workers=%d dispatched=%d token_records=%d\n",
		before.Workers, before.Dedicated.Dispatched, tokenRecords.Load())

	files, _ := filepath.Glob(filepath.Join(*dir, "*"))
	fmt.Printf("log files after rotation: %d\n", len(files))
}
