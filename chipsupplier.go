package chipsupplier

import (
	"context"
	"sync"

	"github.com/jamesmcclain/chipsupplier/internal"
	"github.com/jamesmcclain/chipsupplier/raster"
)

// Supplier is the public interface for chip prefetching.
//
// Lifecycle: New() → Start() → Next()/InferenceChip() → Stop(). A stopped
// supplier can be started again with a fresh configuration.
//
// Implementation is in internal/ (hidden from clients).
type Supplier interface {
	// Start freezes the configuration, opens one raster handle per worker
	// plus a primary handle, allocates the slot ring and, in training or
	// evaluation mode, spawns the reader workers. Inference mode spawns no
	// workers; only the synchronous InferenceChip path is live.
	//
	// Cancelling ctx halts production; Stop is still required to release
	// resources.
	//
	// Returns an error on invalid configuration or open failure; on error
	// every resource opened so far is released and no workers run.
	Start(ctx context.Context, cfg Config) error

	// Stop signals termination through the mode flag, joins all workers and
	// releases handles and buffers. In-flight raster reads are not
	// interrupted, so Stop latency is bounded by the slowest outstanding
	// read. Idempotent.
	Stop() error

	// Next blocks until a prefetched chip is delivered, copying imagery
	// (and label when label is non-nil) into the caller's buffers.
	//
	// Buffers must be sized exactly: word_size(imagery dtype) x bands x
	// window^2 for imagery, word_size(label dtype) x window^2 for label.
	// A nil label suppresses the label copy.
	//
	// Single consumer goroutine only. Returns ErrStopped after Stop.
	Next(imagery, label []byte) (ChipInfo, error)

	// InferenceChip synchronously reads the window containing pixel (x, y),
	// trying up to attempts times. Valid only in inference mode; on any
	// failure the buffer is zero-filled and false is returned.
	InferenceChip(imagery []byte, x, y, attempts int) bool

	// Width returns the cached raster width in pixels. Valid after Start.
	Width() int

	// Height returns the cached raster height in pixels. Valid after Start.
	Height() int

	// Stats returns an operational snapshot (non-blocking).
	Stats() SupplierStats
}

// New creates an idle Supplier. Instances are independent; any number may
// coexist in one process.
func New() Supplier {
	return internal.NewReader()
}

// --- Backend lifecycle ---

var (
	initMu      sync.Mutex
	initialized bool
	memDriver   *raster.MemDriver
)

// Init registers the built-in raster drivers. Idempotent: two calls behave
// as one. Call once before the first Start; additional backends can be
// registered directly with raster.RegisterDriver.
func Init() {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized {
		return
	}
	memDriver = raster.NewMemDriver()
	raster.RegisterDriver("mem", memDriver)
	initialized = true
}

// Deinit tears the driver registry down. Open handles stay valid; only
// future opens are affected.
func Deinit() {
	initMu.Lock()
	defer initMu.Unlock()

	raster.DeregisterAll()
	memDriver = nil
	initialized = false
}

// Mem returns the built-in in-memory driver so callers can register
// synthetic datasets under mem:// paths. Returns nil before Init.
func Mem() *raster.MemDriver {
	initMu.Lock()
	defer initMu.Unlock()
	return memDriver
}
