package metrics

import (
	"context"
	"runtime"
	"time"
)

const nanosecondsPerMillisecond = 1e6

// CollectSystem samples runtime memory, goroutine and GC figures.
func CollectSystem() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	UpdateSystemMemoryUsage(m.Alloc)
	UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		RecordSystemGCPauseTime(avgPauseMs)
	}
}

// RunSystemCollector calls CollectSystem every interval until ctx is done.
func RunSystemCollector(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			CollectSystem()
		}
	}
}
