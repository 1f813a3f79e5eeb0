package internal

import (
	"math/rand"

	"github.com/jamesmcclain/chipsupplier/raster"
)

// selectorMaxDraws bounds one pickWindow call. The bound exists so a worker
// facing a wholly-masked raster returns to its loop condition and observes
// the termination flag instead of drawing forever. On any raster with
// admissible coverage the expected draw count is single-digit.
const selectorMaxDraws = 4096

// admissible is the train/eval partition predicate on chip coordinates.
//
// Training keeps origins with (i+j) % 7 != 0, evaluation keeps the
// complement. The two sets are disjoint and together cover the whole chip
// grid, partitioning the raster along anti-diagonals into a ~6/7 train and
// ~1/7 eval split.
func admissible(mode Mode, i, j int) bool {
	switch mode {
	case ModeTraining:
		return (i+j)%7 != 0
	case ModeEvaluation:
		return (i+j)%7 == 0
	default:
		return true
	}
}

// enumerateEvalOrigins lists every evaluation-admissible origin in row-major
// order, in chip coordinates. Used by the deterministic evaluation mode.
func enumerateEvalOrigins(chipsX, chipsY int) [][2]int {
	origins := make([][2]int, 0, chipsX*chipsY/7+chipsY)
	for j := 0; j < chipsY; j++ {
		for i := 0; i < chipsX; i++ {
			if (i+j)%7 == 0 {
				origins = append(origins, [2]int{i, j})
			}
		}
	}
	return origins
}

// pickWindow selects an admissible chip origin in pixels.
//
// Default path: draw uniform chip coordinates from the worker's own rng,
// reject by the mode predicate, then reject windows whose coverage probe
// reports empty. Sampling is with replacement; uniqueness is not attempted.
//
// Deterministic evaluation path: drain the shared enumeration through the
// atomic cursor, skipping coverage-empty origins, wrapping at the end.
//
// Returns ok=false when the draw budget is exhausted (e.g. every window is
// masked) so the caller can re-check the termination flag.
func (r *Reader) pickWindow(rng *rand.Rand, src raster.Source) (x, y int, ok bool) {
	ws := r.cfg.WindowSize
	chipsX := r.width / ws
	chipsY := r.height / ws
	mode := r.Mode()

	if mode == ModeEvaluation && r.evalOrigins != nil {
		for k := 0; k < len(r.evalOrigins); k++ {
			idx := int((r.evalCursor.Add(1) - 1) % uint64(len(r.evalOrigins)))
			o := r.evalOrigins[idx]
			px, py := o[0]*ws, o[1]*ws
			if src.Coverage(px, py, ws, ws) != raster.CoverageEmpty {
				return px, py, true
			}
			r.coverageRejects.Add(1)
		}
		return 0, 0, false
	}

	for draws := 0; draws < selectorMaxDraws; draws++ {
		i := rng.Intn(chipsX)
		j := rng.Intn(chipsY)
		if !admissible(mode, i, j) {
			r.predicateRejects.Add(1)
			continue
		}
		px, py := i*ws, j*ws
		if src.Coverage(px, py, ws, ws) == raster.CoverageEmpty {
			r.coverageRejects.Add(1)
			continue
		}
		return px, py, true
	}
	return 0, 0, false
}
