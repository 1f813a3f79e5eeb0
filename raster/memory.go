package raster

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
)

// MemSource is a synthetic in-memory raster. Sample values come from a fill
// function of (band, x, y), so datasets of arbitrary size cost no backing
// storage; rectangular nodata masks make the coverage probe meaningful.
//
// Reads are pure functions of immutable state, so a single MemSource may be
// opened from several goroutines even though the Source contract does not
// demand it. Mutators (SetFill, AddNoData) must not race with reads; set the
// dataset up before registering it.
type MemSource struct {
	width  int
	height int
	bands  int

	fill   func(band, x, y int) float64
	nodata []rect

	closed bool
}

type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y, w, h int) bool {
	return x >= r.x && y >= r.y && x+w <= r.x+r.w && y+h <= r.y+r.h
}

func (r rect) intersects(x, y, w, h int) bool {
	return x < r.x+r.w && r.x < x+w && y < r.y+r.h && r.y < y+h
}

func (r rect) containsPoint(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// NewMemSource creates a synthetic raster of the given dimensions. The
// default fill returns the 1-based band index for every pixel, which makes
// band-order verification trivial.
func NewMemSource(width, height, bands int) *MemSource {
	return &MemSource{
		width:  width,
		height: height,
		bands:  bands,
		fill: func(band, x, y int) float64 {
			return float64(band)
		},
	}
}

// SetFill replaces the sample synthesis function. band is 1-based.
func (m *MemSource) SetFill(fill func(band, x, y int) float64) {
	m.fill = fill
}

// AddNoData masks the given pixel rectangle as nodata. Masked pixels read as
// zero and count against coverage.
func (m *MemSource) AddNoData(x, y, w, h int) {
	m.nodata = append(m.nodata, rect{x, y, w, h})
}

// Width returns the raster width in pixels.
func (m *MemSource) Width() int { return m.width }

// Height returns the raster height in pixels.
func (m *MemSource) Height() int { return m.height }

// Bands returns the number of bands.
func (m *MemSource) Bands() int { return m.bands }

// Coverage classifies the window against the nodata masks. A window fully
// inside one mask is Empty; a window touching any mask is Partial; otherwise
// Full. Unions of overlapping masks are not merged, so a window covered only
// by the union of several masks reports Partial, which errs on the side of
// keeping the window admissible.
func (m *MemSource) Coverage(x, y, w, h int) Coverage {
	for _, r := range m.nodata {
		if r.contains(x, y, w, h) {
			return CoverageEmpty
		}
	}
	for _, r := range m.nodata {
		if r.intersects(x, y, w, h) {
			return CoveragePartial
		}
	}
	return CoverageFull
}

func (m *MemSource) masked(x, y int) bool {
	for _, r := range m.nodata {
		if r.containsPoint(x, y) {
			return true
		}
	}
	return false
}

// Read fills out with the requested window, converting synthesized samples
// to dt and interleaving bands per pixel in list order.
func (m *MemSource) Read(x, y, w, h int, dt DType, bands []int, out []byte) error {
	if w <= 0 || h <= 0 || x < 0 || y < 0 || x+w > m.width || y+h > m.height {
		return fmt.Errorf("%w: (%d,%d)+%dx%d in %dx%d", ErrWindowBounds, x, y, w, h, m.width, m.height)
	}
	if !dt.Valid() {
		return fmt.Errorf("raster: invalid dtype %d", int(dt))
	}
	if bands == nil {
		bands = []int{1}
	}
	for _, b := range bands {
		if b < 1 || b > m.bands {
			return fmt.Errorf("%w: band %d of %d", ErrBadBandList, b, m.bands)
		}
	}

	word := dt.WordSize()
	want := word * len(bands) * w * h
	if len(out) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrBufferSize, len(out), want)
	}

	off := 0
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			px, py := x+col, y+row
			for _, b := range bands {
				var v float64
				if !m.masked(px, py) {
					v = m.fill(b, px, py)
				}
				putSample(out[off:off+word], dt, v)
				off += word
			}
		}
	}
	return nil
}

// Close releases the source. Idempotent; reads after Close keep working
// because the dataset is immutable, but well-behaved callers stop here.
func (m *MemSource) Close() error {
	m.closed = true
	return nil
}

// putSample encodes one sample value into buf (little-endian). Complex types
// carry the value in the real component and zero in the imaginary one.
func putSample(buf []byte, dt DType, v float64) {
	switch dt {
	case DTypeUInt8:
		buf[0] = byte(v)
	case DTypeInt16:
		binary.LittleEndian.PutUint16(buf, uint16(int16(v)))
	case DTypeUInt16:
		binary.LittleEndian.PutUint16(buf, uint16(v))
	case DTypeInt32:
		binary.LittleEndian.PutUint32(buf, uint32(int32(v)))
	case DTypeUInt32:
		binary.LittleEndian.PutUint32(buf, uint32(v))
	case DTypeFloat32:
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v)))
	case DTypeFloat64:
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
	case DTypeCInt16:
		binary.LittleEndian.PutUint16(buf[0:2], uint16(int16(v)))
		binary.LittleEndian.PutUint16(buf[2:4], 0)
	case DTypeCInt32:
		binary.LittleEndian.PutUint32(buf[0:4], uint32(int32(v)))
		binary.LittleEndian.PutUint32(buf[4:8], 0)
	case DTypeCFloat32:
		binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(float32(v)))
		binary.LittleEndian.PutUint32(buf[4:8], 0)
	case DTypeCFloat64:
		binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(v))
		binary.LittleEndian.PutUint64(buf[8:16], 0)
	}
}

// --- mem:// driver ---

// MemDriver resolves mem:// paths against a named registry of MemSources.
// It is the backend the examples and tests run on.
type MemDriver struct {
	mu      sync.RWMutex
	sources map[string]*MemSource
}

// NewMemDriver creates an empty in-memory driver.
func NewMemDriver() *MemDriver {
	return &MemDriver{sources: make(map[string]*MemSource)}
}

// Add registers a dataset under name, replacing any previous one.
func (d *MemDriver) Add(name string, src *MemSource) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sources[name] = src
}

// Remove drops the dataset registered under name.
func (d *MemDriver) Remove(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sources, name)
}

// Open implements Driver. The returned handle is the registered MemSource
// itself; its reads are pure, so handing it to several workers is safe.
func (d *MemDriver) Open(name string) (Source, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	src, ok := d.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: mem source %q", ErrNotFound, name)
	}
	return src, nil
}
