package concurrency

import (
	"fmt"
	"sync/atomic"
	"time"
)

// ThreadMetrics tracks statistics for a Thread.
type ThreadMetrics struct {
	Submitted    atomic.Uint64
	Completed    atomic.Uint64
	Panicked     atomic.Uint64
	Active       atomic.Int32
	TotalLatency atomic.Int64 // Nanoseconds
	MinLatency   atomic.Int64 // Nanoseconds
	MaxLatency   atomic.Int64 // Nanoseconds
}

// AverageLatency returns the average time spent in the Received callback.
func (m *ThreadMetrics) AverageLatency() time.Duration {
	completed := m.Completed.Load()
	if completed == 0 {
		return 0
	}
	return time.Duration(m.TotalLatency.Load() / int64(completed))
}

// recordLatency updates latency metrics.
func (m *ThreadMetrics) recordLatency(duration time.Duration) {
	nanos := duration.Nanoseconds()
	m.TotalLatency.Add(nanos)

	for {
		current := m.MinLatency.Load()
		if current != 0 && nanos >= current {
			break
		}
		if m.MinLatency.CompareAndSwap(current, nanos) {
			break
		}
	}

	for {
		current := m.MaxLatency.Load()
		if nanos <= current {
			break
		}
		if m.MaxLatency.CompareAndSwap(current, nanos) {
			break
		}
	}
}

// String returns a formatted string representation of the metrics.
func (m *ThreadMetrics) String() string {
	return fmt.Sprintf(
		"Messages: %d submitted, %d completed, %d panicked, %d active | "+
			"Latency: avg=%v, min=%v, max=%v",
		m.Submitted.Load(),
		m.Completed.Load(),
		m.Panicked.Load(),
		m.Active.Load(),
		m.AverageLatency(),
		time.Duration(m.MinLatency.Load()),
		time.Duration(m.MaxLatency.Load()),
	)
}
