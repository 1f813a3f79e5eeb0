// Package chipsupplier implements concurrent chip prefetching from large
// georeferenced rasters for machine-learning trainers.
//
// # Philosophy
//
// "Hide read latency, never block the trainer on I/O."
//
// A trainer consumes fixed-size windows ("chips") far faster than one
// synchronous raster read can serve them. ChipSupplier keeps a bounded ring
// of prefetched chips filled by parallel reader workers, so the trainer's
// blocking pull almost always finds a chip already in memory. When it does
// not, the slow path is visible only as backpressure.
//
// # Architecture
//
// ChipSupplier sits between the raster backend and the trainer:
//
//	raster backend → Reader Workers (N) → Slot Ring (M) → Next()
//	  (one handle        window selector     try-lock        blocking pull,
//	   per worker)       + partition         discipline      round-robin
//
// Workers draw chip origins uniformly over the chip grid and keep only those
// admitted by the mode's partition predicate: training keeps origins with
// (i+j) % 7 != 0, evaluation keeps the complement. The two sets are disjoint
// and total, so training and evaluation samples can never overlap. Windows
// whose coverage probe reports no data are skipped the same way.
//
// Every slot access - producer or consumer - is a non-blocking try-lock; a
// caller that loses a race moves to the next slot. Nobody waits on a
// contended slot, so a stalled consumer cannot back up all producers and
// shutdown is always observed promptly.
//
// # Basic Usage
//
// Trainer side:
//
//	chipsupplier.Init()
//	defer chipsupplier.Deinit()
//
//	supplier := chipsupplier.New()
//	err := supplier.Start(ctx, chipsupplier.Config{
//	    Workers:      4,
//	    Slots:        8,
//	    ImageryPath:  "mem://scene",
//	    ImageryDType: raster.DTypeUInt8,
//	    Mode:         chipsupplier.ModeTraining,
//	    WindowSize:   256,
//	    Bands:        []int{1, 2, 3},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer supplier.Stop()
//
//	imagery := make([]byte, 3*256*256)
//	for {
//	    info, err := supplier.Next(imagery, nil)
//	    if err != nil {
//	        break // ErrStopped after Stop()
//	    }
//	    train(imagery, info)
//	}
//
// Inference side (no workers, synchronous reads):
//
//	supplier.Start(ctx, chipsupplier.Config{Mode: chipsupplier.ModeInference, ...})
//	if supplier.InferenceChip(buf, x, y, 3) {
//	    predict(buf)
//	}
//
// # Delivery Semantics
//
// Chips are sampled with replacement from the admissible set. There is no
// uniqueness, coverage or fairness guarantee, and delivery order is
// approximately round-robin over slots rather than production order. These
// are deliberate: the trainer wants a firehose, not an enumeration. For
// reproducible evaluation sweeps, Config.DeterministicEval drains the
// evaluation origins in row-major order instead.
//
// # Thread Safety
//
//   - Start, Stop, Stats: safe for concurrent use
//   - Next, InferenceChip: single consumer goroutine only
//   - Raster handles: one per worker, never shared; backends need not be
//     thread-safe
//
// # Shutdown
//
// Stop flips the operation mode to Idle; the flag is the only termination
// signal. Workers re-check it at every try-lock step and exit after their
// in-flight read, so Stop latency is bounded by the slowest outstanding
// read. Blocked Next callers return ErrStopped. Stop is idempotent.
package chipsupplier
