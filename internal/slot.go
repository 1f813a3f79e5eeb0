package internal

import (
	"sync"
	"time"
)

// slot is one element of the prefetch ring: pre-allocated imagery and label
// buffers, a readiness bit and the metadata of the chip currently held.
//
// Invariants:
//   - ready == true: the buffers hold a chip produced by exactly one worker
//     and not yet consumed
//   - ready == false: the buffers are writable
//   - mu must be held to inspect or mutate any field
//
// All acquisition goes through TryLock. A caller that loses the race moves
// to another slot instead of waiting, so a stalled consumer cannot back up
// every producer and a slow producer cannot stall the consumer.
type slot struct {
	mu    sync.Mutex
	ready bool

	imagery []byte
	label   []byte

	// Chip metadata, valid while ready is true.
	x, y    int
	seq     uint64
	traceID string
	readAt  time.Time
	worker  int
}

// newSlotRing allocates the M-slot ring with per-slot payload buffers sized
// from the configuration. Label buffers are only allocated when a label
// source is configured. These are the only payload allocations the supplier
// makes; the hot loop reuses them.
func newSlotRing(cfg *Config) []*slot {
	slots := make([]*slot, cfg.Slots)
	labelSize := cfg.LabelSize()
	for i := range slots {
		s := &slot{imagery: make([]byte, cfg.ImagerySize())}
		if labelSize > 0 {
			s.label = make([]byte, labelSize)
		}
		slots[i] = s
	}
	return slots
}
