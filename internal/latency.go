package internal

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// latencyRingSize bounds the read-latency sample window. 256 samples cover a
// few seconds of healthy production while keeping Snapshot cheap.
const latencyRingSize = 256

// latencyRing collects recent raster read durations for the stats snapshot.
// Fixed capacity, overwrite-oldest; workers pay one short lock per produced
// chip, never while holding a slot lock.
type latencyRing struct {
	mu      sync.Mutex
	samples []float64
	next    int
	full    bool
}

func newLatencyRing(size int) *latencyRing {
	return &latencyRing{samples: make([]float64, size)}
}

// Add records one read duration.
func (l *latencyRing) Add(d time.Duration) {
	l.mu.Lock()
	l.samples[l.next] = d.Seconds()
	l.next++
	if l.next == len(l.samples) {
		l.next = 0
		l.full = true
	}
	l.mu.Unlock()
}

// Reset discards all samples.
func (l *latencyRing) Reset() {
	l.mu.Lock()
	l.next = 0
	l.full = false
	l.mu.Unlock()
}

// Snapshot summarizes the current sample window.
func (l *latencyRing) Snapshot() LatencyStats {
	l.mu.Lock()
	n := l.next
	if l.full {
		n = len(l.samples)
	}
	window := make([]float64, n)
	copy(window, l.samples[:n])
	l.mu.Unlock()

	if n == 0 {
		return LatencyStats{}
	}

	stats := LatencyStats{
		Samples: n,
		Mean:    stat.Mean(window, nil),
		Min:     floats.Min(window),
		Max:     floats.Max(window),
	}
	if n > 1 {
		stats.StdDev = stat.StdDev(window, nil)
	}
	return stats
}
