// Package internal implements the chip supplier: slot pool, window selector,
// reader workers and the blocking consumer.
//
// This package is INTERNAL - clients MUST use the public API in the parent
// package. Reason: allows internal refactoring without breaking changes.
package internal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jamesmcclain/chipsupplier/raster"
)

// Package errors - re-exported by the parent package.
var (
	ErrStopped      = errors.New("chipsupplier: supplier is stopped")
	ErrWrongMode    = errors.New("chipsupplier: operation not valid in current mode")
	ErrBufferSize   = errors.New("chipsupplier: buffer size mismatch")
	ErrNoLabels     = errors.New("chipsupplier: no label source configured")
	ErrAlreadyRun   = errors.New("chipsupplier: supplier already started")
	ErrNotInference = errors.New("chipsupplier: inference reads require inference mode")
)

// Mode selects what the supplier does after Start.
//
// Training and Evaluation spawn reader workers that prefetch chips into the
// slot pool for Next. Inference spawns no workers; only the synchronous
// InferenceChip path is live. Idle is the stopped state.
//
// The numeric values are part of the external contract and must not change.
type Mode int32

const (
	// ModeIdle is the stopped state; no API is live.
	ModeIdle Mode = 0
	// ModeTraining prefetches chips whose origins satisfy (i+j) % 7 != 0.
	ModeTraining Mode = 1
	// ModeEvaluation prefetches chips whose origins satisfy (i+j) % 7 == 0.
	ModeEvaluation Mode = 2
	// ModeInference serves only synchronous single-window reads.
	ModeInference Mode = 3
)

// String returns a human-readable string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeTraining:
		return "training"
	case ModeEvaluation:
		return "evaluation"
	case ModeInference:
		return "inference"
	default:
		return fmt.Sprintf("mode(%d)", int32(m))
	}
}

// ParseMode converts a mode name back to a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "idle":
		return ModeIdle, nil
	case "training":
		return ModeTraining, nil
	case "evaluation":
		return ModeEvaluation, nil
	case "inference":
		return ModeInference, nil
	default:
		return ModeIdle, fmt.Errorf("chipsupplier: unknown mode %q", name)
	}
}

// MarshalYAML implements yaml.Marshaler, emitting the mode name.
func (m Mode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler, accepting the mode name.
func (m *Mode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := ParseMode(name)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Config is the supplier configuration, frozen from Start until Stop.
type Config struct {
	// Workers is the number of reader goroutines (N). Must be >= 1.
	Workers int `yaml:"workers"`

	// Slots is the size of the prefetch ring (M). Must be >= 1.
	Slots int `yaml:"slots"`

	// ImageryPath is the raster path, scheme-prefixed (e.g. "mem://train").
	ImageryPath string `yaml:"imagery_path"`

	// LabelPath is the optional label raster path. Empty means no labels.
	LabelPath string `yaml:"label_path,omitempty"`

	// ImageryDType is the pixel type chips are read as.
	ImageryDType raster.DType `yaml:"imagery_dtype"`

	// LabelDType is the pixel type labels are read as. Required when
	// LabelPath is set.
	LabelDType raster.DType `yaml:"label_dtype,omitempty"`

	// Mode selects training, evaluation or inference operation.
	Mode Mode `yaml:"mode"`

	// WindowSize is the chip edge length in pixels. Chip origins are
	// constrained to integer multiples of WindowSize; raster remainders
	// beyond the last full chip are ignored.
	WindowSize int `yaml:"window_size"`

	// Bands lists the 1-based band indices to read, in delivery order.
	Bands []int `yaml:"bands"`

	// DeterministicEval makes evaluation workers drain a shared row-major
	// enumeration of admissible origins instead of sampling with
	// replacement. Off by default; the default matches the historical
	// sampled-with-replacement behavior.
	DeterministicEval bool `yaml:"deterministic_eval,omitempty"`
}

// Validate checks the configuration the way Start will use it.
// Fail-fast: every problem is reported before any resource is opened.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("chipsupplier: workers must be >= 1, got %d", c.Workers)
	}
	if c.Slots < 1 {
		return fmt.Errorf("chipsupplier: slots must be >= 1, got %d", c.Slots)
	}
	if c.ImageryPath == "" {
		return fmt.Errorf("chipsupplier: imagery path is required")
	}
	if !c.ImageryDType.Valid() {
		return fmt.Errorf("chipsupplier: invalid imagery dtype %d", int(c.ImageryDType))
	}
	if c.LabelPath != "" && !c.LabelDType.Valid() {
		return fmt.Errorf("chipsupplier: invalid label dtype %d", int(c.LabelDType))
	}
	if c.Mode != ModeTraining && c.Mode != ModeEvaluation && c.Mode != ModeInference {
		return fmt.Errorf("chipsupplier: invalid start mode %s", c.Mode)
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("chipsupplier: window size must be >= 1, got %d", c.WindowSize)
	}
	if len(c.Bands) == 0 {
		return fmt.Errorf("chipsupplier: at least one band is required")
	}
	for _, b := range c.Bands {
		if b < 1 {
			return fmt.Errorf("chipsupplier: band indices are 1-based, got %d", b)
		}
	}
	return nil
}

// ImagerySize returns the byte size of one imagery payload:
// word_size(dtype) x band count x window^2.
func (c *Config) ImagerySize() int {
	return c.ImageryDType.WordSize() * len(c.Bands) * c.WindowSize * c.WindowSize
}

// LabelSize returns the byte size of one label payload (single band), or 0
// when no label source is configured.
func (c *Config) LabelSize() int {
	if c.LabelPath == "" {
		return 0
	}
	return c.LabelDType.WordSize() * c.WindowSize * c.WindowSize
}

// ChipInfo describes one delivered chip.
type ChipInfo struct {
	// X, Y is the chip origin in pixels on the source grid.
	X int
	// Y is documented with X.
	Y int

	// Seq is a global sequence number assigned when the chip was produced.
	// Monotonically increasing; delivery order may differ from Seq order.
	Seq uint64

	// TraceID is a unique identifier for tracing a chip through downstream
	// systems.
	TraceID string

	// ReadAt is when the producing worker finished reading the chip.
	ReadAt time.Time

	// Worker is the id of the producing worker.
	Worker int
}

// SupplierStats is a snapshot of supplier operational state.
type SupplierStats struct {
	// Mode is the operation mode at snapshot time.
	Mode Mode

	// ChipsProduced counts chips marked ready by workers.
	ChipsProduced uint64

	// ChipsDelivered counts chips copied out by Next.
	ChipsDelivered uint64

	// ReadErrors counts transient raster read failures across all workers.
	ReadErrors uint64

	// SlotBusy counts producer slot-walk steps that found the slot locked
	// or still full. Sustained growth means the consumer is the bottleneck,
	// which is the intended backpressure signal.
	SlotBusy uint64

	// PredicateRejects counts selector draws rejected by the mode's
	// partition predicate (~1/7 of draws in training, ~6/7 in evaluation).
	PredicateRejects uint64

	// CoverageRejects counts selector draws rejected because the coverage
	// probe reported an empty window.
	CoverageRejects uint64

	// Workers holds per-worker statistics, indexed by worker id.
	Workers []WorkerStats

	// ReadLatency summarizes recent raster read durations.
	ReadLatency LatencyStats
}

// WorkerStats tracks per-worker operational state.
type WorkerStats struct {
	// Worker is the worker id in [0, N).
	Worker int

	// ChipsProduced counts chips this worker marked ready.
	ChipsProduced uint64

	// ReadErrors counts this worker's transient read failures.
	ReadErrors uint64

	// LastProducedAt is when this worker last marked a slot ready.
	LastProducedAt time.Time

	// IsIdle indicates the worker hasn't produced in over 30s. On a raster
	// that is wholly nodata this is the expected steady state.
	IsIdle bool
}

// LatencyStats summarizes raster read durations over a bounded window of
// recent samples. All values are in seconds.
type LatencyStats struct {
	// Samples is how many reads the summary covers (bounded by the ring).
	Samples int
	// Mean is the mean read duration.
	Mean float64
	// StdDev is the standard deviation of read durations.
	StdDev float64
	// Min is the fastest recent read.
	Min float64
	// Max is the slowest recent read.
	Max float64
}
