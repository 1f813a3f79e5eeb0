package internal

import "time"

// Stats returns an operational snapshot.
//
// Non-blocking: counters are read atomically, the per-worker timestamp takes
// one short lock per worker. The snapshot may be slightly stale relative to
// concurrent production, which is acceptable for monitoring.
func (r *Reader) Stats() SupplierStats {
	r.startedMu.Lock()
	workers := r.workers
	r.startedMu.Unlock()

	stats := SupplierStats{
		Mode:             r.Mode(),
		ChipsProduced:    r.produced.Load(),
		ChipsDelivered:   r.delivered.Load(),
		ReadErrors:       r.readErrors.Load(),
		SlotBusy:         r.slotBusy.Load(),
		PredicateRejects: r.predicateRejects.Load(),
		CoverageRejects:  r.coverageRejects.Load(),
		ReadLatency:      r.latency.Snapshot(),
	}

	stats.Workers = make([]WorkerStats, 0, len(workers))
	for _, w := range workers {
		w.mu.Lock()
		last := w.lastProducedAt
		w.mu.Unlock()

		stats.Workers = append(stats.Workers, WorkerStats{
			Worker:         w.id,
			ChipsProduced:  w.produced.Load(),
			ReadErrors:     w.readErrors.Load(),
			LastProducedAt: last,
			IsIdle:         time.Since(last) > idleThreshold,
		})
	}

	return stats
}
