package internal

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jamesmcclain/chipsupplier/raster"
)

// Next blocks until a prefetched chip is delivered, copying its imagery (and
// label, when label is non-nil) into the caller's buffers and returning the
// chip's metadata.
//
// Delivery walks the slot ring round-robin from a monotonically advancing
// cursor: locked slots and empty slots are skipped, the first ready slot is
// copied out and cleared. Delivery order is therefore approximately
// round-robin over slots, not production order.
//
// Buffer contract: len(imagery) must equal the imagery payload size; label
// must be nil when no label source is configured, and exactly the label
// payload size otherwise. A nil label suppresses the label copy even when
// labels are configured.
//
// Next must be called from a single consumer goroutine. It returns
// ErrStopped once Stop flips the mode to Idle and ErrWrongMode in inference
// mode.
func (r *Reader) Next(imagery, label []byte) (ChipInfo, error) {
	switch r.Mode() {
	case ModeIdle:
		return ChipInfo{}, ErrStopped
	case ModeInference:
		return ChipInfo{}, fmt.Errorf("%w: Next in %s mode", ErrWrongMode, ModeInference)
	}

	r.startedMu.Lock()
	slots := r.slots
	imagerySize := r.cfg.ImagerySize()
	labelSize := r.cfg.LabelSize()
	r.startedMu.Unlock()

	if len(imagery) != imagerySize {
		return ChipInfo{}, fmt.Errorf("%w: imagery buffer %d bytes, want %d",
			ErrBufferSize, len(imagery), imagerySize)
	}
	if label != nil {
		if labelSize == 0 {
			return ChipInfo{}, ErrNoLabels
		}
		if len(label) != labelSize {
			return ChipInfo{}, fmt.Errorf("%w: label buffer %d bytes, want %d",
				ErrBufferSize, len(label), labelSize)
		}
	}

	ring := uint64(len(slots))
	for {
		if m := r.Mode(); m != ModeTraining && m != ModeEvaluation {
			return ChipInfo{}, ErrStopped
		}

		for k := uint64(0); k < ring; k++ {
			s := slots[r.cursor%ring]
			if s.mu.TryLock() {
				if s.ready {
					copy(imagery, s.imagery)
					if label != nil {
						copy(label, s.label)
					}
					info := ChipInfo{
						X:       s.x,
						Y:       s.y,
						Seq:     s.seq,
						TraceID: s.traceID,
						ReadAt:  s.readAt,
						Worker:  s.worker,
					}
					s.ready = false
					s.mu.Unlock()
					r.cursor++
					r.delivered.Add(1)
					return info, nil
				}
				s.mu.Unlock()
			}
			r.cursor++
		}

		// Full pass without a ready slot: the producers are behind. Yield
		// off the locks and walk again.
		time.Sleep(slotBusyBackoff)
	}
}

// InferenceChip synchronously reads the window containing pixel (x, y) into
// imagery, trying up to attempts times. Valid only in inference mode.
//
// The requested coordinates are snapped down to the chip grid. On any
// failure - wrong mode, bad buffer, out-of-bounds window, empty coverage, or
// attempts exhausted - the buffer is zero-filled and false is returned.
//
// Like Next, InferenceChip is single-consumer: it reads through the primary
// raster handle, which is not shared with any worker.
func (r *Reader) InferenceChip(imagery []byte, x, y, attempts int) bool {
	r.startedMu.Lock()
	started := r.started
	src := r.primary
	ws := r.cfg.WindowSize
	dt := r.cfg.ImageryDType
	bands := r.cfg.Bands
	imagerySize := r.cfg.ImagerySize()
	width, height := r.width, r.height
	r.startedMu.Unlock()

	zeroFill(imagery)

	if !started || r.Mode() != ModeInference {
		return false
	}
	if len(imagery) != imagerySize {
		return false
	}
	if x < 0 || y < 0 {
		return false
	}

	px := (x / ws) * ws
	py := (y / ws) * ws
	if px+ws > width || py+ws > height {
		return false
	}

	if src.Coverage(px, py, ws, ws) == raster.CoverageEmpty {
		return false
	}

	for a := 0; a < attempts; a++ {
		err := src.Read(px, py, ws, ws, dt, bands, imagery)
		if err == nil {
			return true
		}
		r.readErrors.Add(1)
		slog.Debug("chipsupplier: inference read failed",
			"x", px, "y", py, "attempt", a+1, "error", err)
	}

	zeroFill(imagery)
	return false
}

func zeroFill(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
