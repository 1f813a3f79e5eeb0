package internal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jamesmcclain/chipsupplier/raster"
)

const (
	// slotBusyBackoff is how long a walker yields after failing to claim
	// any slot in a full pass over the ring.
	slotBusyBackoff = 100 * time.Microsecond

	// readErrorBackoff is how long a worker sleeps after a failed raster
	// read before picking a fresh window. Always applied after releasing
	// the slot lock.
	readErrorBackoff = 1 * time.Millisecond

	// idleThreshold defines when a worker is considered idle (no produce
	// activity). On a healthy raster workers produce many times per second;
	// 30s of silence means the selector finds nothing or reads always fail.
	idleThreshold = 30 * time.Second
)

// Reader is the concrete supplier implementation.
//
// Goroutine topology:
//   - N reader workers (spawned by Start in training/evaluation, joined by Stop)
//   - consumer goroutines are external; Next and InferenceChip are called
//     from a single consumer goroutine (caller contract)
//
// The operation mode doubles as the termination flag: workers poll it with
// acquire loads, Stop publishes Idle with a release store. Go's sync/atomic
// is sequentially consistent, which subsumes the required ordering.
type Reader struct {
	cfg    Config
	width  int
	height int

	mode atomic.Int32

	primary        raster.Source
	imagerySources []raster.Source
	labelSources   []raster.Source

	slots   []*slot
	workers []*workerState

	// evalOrigins is the precomputed row-major enumeration of evaluation
	// origins, in chip coordinates, used when DeterministicEval is set.
	// evalCursor is shared by all evaluation workers and wraps around.
	evalOrigins [][2]int
	evalCursor  atomic.Uint64

	// cursor is the consumer's round-robin position. Consumer-owned:
	// Next must be called from a single goroutine.
	cursor uint64

	seq              atomic.Uint64
	produced         atomic.Uint64
	delivered        atomic.Uint64
	readErrors       atomic.Uint64
	slotBusy         atomic.Uint64
	predicateRejects atomic.Uint64
	coverageRejects  atomic.Uint64

	latency *latencyRing

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startedMu sync.Mutex
	started   bool
}

// workerState is the per-worker stats record. Counters are atomic so Stats
// can snapshot them while the worker runs; the produce timestamp needs the
// mutex.
type workerState struct {
	id         int
	produced   atomic.Uint64
	readErrors atomic.Uint64

	mu             sync.Mutex
	lastProducedAt time.Time
}

// NewReader creates an idle supplier instance. Multiple independent readers
// per process are supported; nothing here is process-global.
func NewReader() *Reader {
	return &Reader{latency: newLatencyRing(latencyRingSize)}
}

// Mode returns the current operation mode (acquire load).
func (r *Reader) Mode() Mode {
	return Mode(r.mode.Load())
}

// Width returns the cached raster width. Valid after Start.
func (r *Reader) Width() int {
	r.startedMu.Lock()
	defer r.startedMu.Unlock()
	return r.width
}

// Height returns the cached raster height. Valid after Start.
func (r *Reader) Height() int {
	r.startedMu.Lock()
	defer r.startedMu.Unlock()
	return r.height
}

// Start freezes the configuration, opens raster handles, allocates the slot
// ring and, in training or evaluation mode, spawns the reader workers.
//
// Handle ownership: one imagery handle (and one label handle, when labels
// are configured) is opened per worker and never shared between workers; a
// separate primary handle serves dimension caching and the inference path.
//
// On any failure every resource opened so far is released and no workers are
// started.
//
// Cancelling ctx stops production (workers exit) but does not release
// resources; call Stop for that.
func (r *Reader) Start(ctx context.Context, cfg Config) error {
	r.startedMu.Lock()
	defer r.startedMu.Unlock()

	if r.started {
		return ErrAlreadyRun
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Freeze the configuration; the band list is copied in so later caller
	// mutation cannot reach the workers.
	cfg.Bands = append([]int(nil), cfg.Bands...)
	r.cfg = cfg

	primary, err := raster.Open(cfg.ImageryPath)
	if err != nil {
		return fmt.Errorf("chipsupplier: open imagery: %w", err)
	}
	r.width = primary.Width()
	r.height = primary.Height()

	chipsX := r.width / cfg.WindowSize
	chipsY := r.height / cfg.WindowSize
	if chipsX < 1 || chipsY < 1 {
		primary.Close()
		return fmt.Errorf("chipsupplier: window size %d exceeds raster %dx%d",
			cfg.WindowSize, r.width, r.height)
	}

	spawnWorkers := cfg.Mode == ModeTraining || cfg.Mode == ModeEvaluation

	var imagerySources, labelSources []raster.Source
	closeAll := func() {
		for _, s := range imagerySources {
			s.Close()
		}
		for _, s := range labelSources {
			s.Close()
		}
		primary.Close()
	}

	if spawnWorkers {
		for i := 0; i < cfg.Workers; i++ {
			src, err := raster.Open(cfg.ImageryPath)
			if err != nil {
				closeAll()
				return fmt.Errorf("chipsupplier: open imagery for worker %d: %w", i, err)
			}
			imagerySources = append(imagerySources, src)

			if cfg.LabelPath != "" {
				lbl, err := raster.Open(cfg.LabelPath)
				if err != nil {
					closeAll()
					return fmt.Errorf("chipsupplier: open labels for worker %d: %w", i, err)
				}
				labelSources = append(labelSources, lbl)
			}
		}
	}

	r.primary = primary
	r.imagerySources = imagerySources
	r.labelSources = labelSources
	r.slots = newSlotRing(&cfg)
	r.cursor = 0
	r.resetCounters()

	r.evalOrigins = nil
	r.evalCursor.Store(0)
	if cfg.Mode == ModeEvaluation && cfg.DeterministicEval {
		r.evalOrigins = enumerateEvalOrigins(chipsX, chipsY)
	}

	r.workers = make([]*workerState, 0, cfg.Workers)
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.mode.Store(int32(cfg.Mode))

	if spawnWorkers {
		for i := 0; i < cfg.Workers; i++ {
			w := &workerState{id: i, lastProducedAt: time.Now()}
			r.workers = append(r.workers, w)

			var lbl raster.Source
			if cfg.LabelPath != "" {
				lbl = labelSources[i]
			}
			r.wg.Add(1)
			go r.runWorker(r.ctx, w, imagerySources[i], lbl, r.slots)
		}
	}

	r.started = true

	slog.Info("chipsupplier: started",
		"mode", cfg.Mode.String(),
		"workers", cfg.Workers,
		"slots", cfg.Slots,
		"window", cfg.WindowSize,
		"bands", len(cfg.Bands),
		"raster", fmt.Sprintf("%dx%d", r.width, r.height),
		"labels", cfg.LabelPath != "",
	)

	return nil
}

// Stop flips the mode to Idle, joins every worker and releases raster
// handles and buffers.
//
// The mode store is the termination signal; workers observe it at their loop
// condition and at every try-lock step. In-flight raster reads are not
// interrupted, so Stop latency is bounded by the slowest outstanding read.
//
// Idempotent: calling Stop on an idle supplier is a no-op.
func (r *Reader) Stop() error {
	r.startedMu.Lock()
	if !r.started {
		r.startedMu.Unlock()
		return nil
	}

	// Signal termination before joining. Blocked Next callers observe the
	// flag and return ErrStopped.
	r.mode.Store(int32(ModeIdle))
	r.cancel()
	r.startedMu.Unlock()

	r.wg.Wait()

	r.startedMu.Lock()
	defer r.startedMu.Unlock()

	for _, s := range r.imagerySources {
		s.Close()
	}
	for _, s := range r.labelSources {
		s.Close()
	}
	if r.primary != nil {
		r.primary.Close()
	}
	r.imagerySources = nil
	r.labelSources = nil
	r.primary = nil

	// Dropping the ring releases the payload buffers. A consumer racing Stop
	// inside Next holds its own reference to the ring and exits on the mode
	// flag.
	r.slots = nil
	r.ctx = nil
	r.cancel = nil
	r.started = false

	slog.Info("chipsupplier: stopped",
		"produced", r.produced.Load(),
		"delivered", r.delivered.Load(),
		"read_errors", r.readErrors.Load(),
	)

	return nil
}

func (r *Reader) resetCounters() {
	r.seq.Store(0)
	r.produced.Store(0)
	r.delivered.Store(0)
	r.readErrors.Store(0)
	r.slotBusy.Store(0)
	r.predicateRejects.Store(0)
	r.coverageRejects.Store(0)
	r.latency.Reset()
}
