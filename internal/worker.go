package internal

import (
	"context"
	"log/slog"
	"math/rand"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/jamesmcclain/chipsupplier/raster"
)

// runWorker is the reader worker loop for one worker id.
//
// Algorithm:
//  1. Pick an admissible window with the worker-local rng and this worker's
//     own raster handles.
//  2. Walk the slot ring from a random start, try-locking each slot; claim
//     the first one that is unlocked and empty.
//  3. Read imagery (and labels, when configured) into the slot buffers while
//     holding the slot lock; the lock is held no longer than the read.
//  4. Stamp metadata, set ready, release, yield.
//
// Error policy: a failed read releases the slot, backs off 1ms and restarts
// with a fresh window and a fresh slot. Nothing is fatal in steady state.
//
// Termination: the mode flag is re-checked at the loop condition and at
// every try-lock step, so shutdown is observed promptly even under heavy
// slot contention. In-flight reads are never interrupted.
func (r *Reader) runWorker(ctx context.Context, w *workerState, imagery, label raster.Source, slots []*slot) {
	defer r.wg.Done()

	// Worker-local rng, seeded from the worker id so each worker explores a
	// different deterministic sequence.
	rng := rand.New(rand.NewSource(int64(w.id) + 1))

	slog.Debug("chipsupplier: worker started", "worker", w.id)

	for {
		mode := r.Mode()
		if mode != ModeTraining && mode != ModeEvaluation {
			break
		}
		if ctx.Err() != nil {
			break
		}

		x, y, ok := r.pickWindow(rng, imagery)
		if !ok {
			// Nothing admissible right now (wholly-masked raster, or a
			// drained deterministic pass). Yield, then re-check the mode.
			time.Sleep(slotBusyBackoff)
			continue
		}

		if !r.produceChip(ctx, w, imagery, label, slots, rng, x, y) {
			break
		}
	}

	slog.Debug("chipsupplier: worker exiting", "worker", w.id)
}

// produceChip claims an empty slot and fills it with the window at (x, y).
// Returns false when the termination flag was observed and the worker must
// exit; true otherwise, whether or not a chip was produced.
func (r *Reader) produceChip(ctx context.Context, w *workerState, imagery, label raster.Source, slots []*slot, rng *rand.Rand, x, y int) bool {
	ws := r.cfg.WindowSize
	start := rng.Intn(len(slots))

	for {
		for k := 0; k < len(slots); k++ {
			if m := r.Mode(); m != ModeTraining && m != ModeEvaluation {
				return false
			}
			if ctx.Err() != nil {
				return false
			}

			s := slots[(start+k)%len(slots)]
			if !s.mu.TryLock() {
				r.slotBusy.Add(1)
				continue
			}
			if s.ready {
				s.mu.Unlock()
				r.slotBusy.Add(1)
				continue
			}

			// Claimed an empty slot. Read while holding the lock; the lock
			// covers only the reads and the metadata stamp.
			readStart := time.Now()
			err := imagery.Read(x, y, ws, ws, r.cfg.ImageryDType, r.cfg.Bands, s.imagery)
			if err == nil && label != nil {
				// Labels are always a single band; a nil band list selects
				// band 1.
				err = label.Read(x, y, ws, ws, r.cfg.LabelDType, nil, s.label)
			}
			if err != nil {
				s.mu.Unlock()
				w.readErrors.Add(1)
				r.readErrors.Add(1)
				slog.Debug("chipsupplier: read failed, retrying with fresh window",
					"worker", w.id, "x", x, "y", y, "error", err)
				time.Sleep(readErrorBackoff)
				return true
			}
			elapsed := time.Since(readStart)

			s.x, s.y = x, y
			s.seq = r.seq.Add(1)
			s.traceID = uuid.New().String()
			s.readAt = time.Now()
			s.worker = w.id
			s.ready = true
			s.mu.Unlock()

			r.latency.Add(elapsed)
			w.produced.Add(1)
			r.produced.Add(1)
			w.mu.Lock()
			w.lastProducedAt = time.Now()
			w.mu.Unlock()

			runtime.Gosched()
			return true
		}

		// Full pass over the ring without a claim: every slot was locked or
		// still full. Yield off the lock before walking again.
		time.Sleep(slotBusyBackoff)
	}
}
