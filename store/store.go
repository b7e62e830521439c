// Package store provides typed-array storage for plot point attributes.
//
// A PointStore holds parallel attribute arrays (position, size, color) plus
// optional sparse per-point metadata. It runs in one of two capacity modes,
// chosen before the first append:
//
//   - linear (the default): capacity grows by ×1.5 as needed and points are
//     only removed by Clear
//   - rolling: a fixed-capacity ring buffer that evicts the oldest points on
//     overflow, and on age or count limits via ExpireIfNeeded
//
// Reads are cheap: Attributes returns zero-copy sub-slices whenever the
// logical sequence is contiguous in memory, and materializes an ordered copy
// only when a ring has wrapped.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/plotcore"
)

// DefaultSize is the point size used when a chunk carries no sizes.
const DefaultSize = 4.0

var (
	// ErrChunkShape reports attribute arrays of mismatched length in a chunk.
	ErrChunkShape = errors.New("store: chunk attribute arrays have mismatched lengths")

	// ErrRollingConfig reports a rolling configuration with no eviction
	// criterion: at least one of MaxPoints and MaxAge must be set.
	ErrRollingConfig = errors.New("store: rolling mode requires MaxPoints or MaxAge")

	// ErrRollingAfterAppend reports an attempt to enable rolling mode on a
	// store that already holds points.
	ErrRollingAfterAppend = errors.New("store: rolling mode must be enabled before the first append")
)

// Attributes is a bundle of parallel attribute arrays. X, Y, and Size have
// one element per point; Color has four (RGBA). All arrays share the same
// logical length.
//
// Attributes returned by PointStore may alias the store's backing arrays;
// treat them as read-only and do not retain them across mutations.
type Attributes struct {
	X     []float32
	Y     []float32
	Size  []float32
	Color []uint8
}

// Len returns the number of points in the bundle.
func (a Attributes) Len() int { return len(a.X) }

// Chunk is a batch of points for Append. X and Y are required and must have
// equal length. Size and Color are optional; when omitted, points get
// DefaultSize and opaque white. Meta carries optional per-point metadata
// keyed by index within the chunk.
type Chunk struct {
	X     []float32
	Y     []float32
	Size  []float32
	Color []uint8
	Meta  map[int]map[string]any
}

func (c Chunk) validate() error {
	n := len(c.X)
	if len(c.Y) != n {
		return fmt.Errorf("%w: x=%d y=%d", ErrChunkShape, n, len(c.Y))
	}
	if c.Size != nil && len(c.Size) != n {
		return fmt.Errorf("%w: x=%d size=%d", ErrChunkShape, n, len(c.Size))
	}
	if c.Color != nil && len(c.Color) != 4*n {
		return fmt.Errorf("%w: x=%d color=%d (want %d)", ErrChunkShape, n, len(c.Color), 4*n)
	}
	return nil
}

// PointStore owns a set of parallel point attribute buffers.
//
// A PointStore is not safe for concurrent use; it belongs to the goroutine
// that owns the surrounding plot.
type PointStore struct {
	x, y, size []float32 // capacity-length backing arrays
	color      []uint8   // 4 bytes per slot
	count      int

	// rolling state
	rolling   bool
	head      int     // next write slot
	tail      int     // oldest live slot
	stamps    []int64 // write time per slot, ms epoch
	maxPoints int
	maxAge    time.Duration

	meta map[int]map[string]any // keyed by absolute index (linear) or slot (rolling)
	now  func() time.Time

	changed plotcore.Signal[int] // points appended (0 for Clear)
	expired plotcore.Signal[int] // points evicted by ExpireIfNeeded
}

// Option configures a PointStore during creation.
type Option func(*PointStore)

// WithInitialCapacity sets the initial buffer capacity. In rolling mode
// without a MaxPoints limit this is also the fixed ring capacity.
func WithInitialCapacity(n int) Option {
	return func(s *PointStore) {
		if n > 0 {
			s.alloc(n)
		}
	}
}

// WithClock injects the time source used for rolling-mode write stamps.
// Tests use this to drive age-based expiry deterministically.
func WithClock(now func() time.Time) Option {
	return func(s *PointStore) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty PointStore in linear mode.
func New(opts ...Option) *PointStore {
	s := &PointStore{
		meta: make(map[int]map[string]any),
		now:  time.Now,
	}
	s.alloc(defaultCapacity)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const defaultCapacity = 256

func (s *PointStore) alloc(capacity int) {
	s.x = make([]float32, capacity)
	s.y = make([]float32, capacity)
	s.size = make([]float32, capacity)
	s.color = make([]uint8, 4*capacity)
}

// Len returns the number of points currently stored.
func (s *PointStore) Len() int { return s.count }

// Cap returns the current buffer capacity in points.
func (s *PointStore) Cap() int { return len(s.x) }

// Rolling reports whether the store is in rolling (ring buffer) mode.
func (s *PointStore) Rolling() bool { return s.rolling }

// Append adds a batch of points. An empty chunk is a no-op, not an error.
// In linear mode the buffers grow by ×1.5 until the chunk fits; in rolling
// mode each point is written at the ring head, evicting the oldest point
// when the ring is full.
func (s *PointStore) Append(chunk Chunk) error {
	if err := chunk.validate(); err != nil {
		return err
	}
	n := len(chunk.X)
	if n == 0 {
		return nil
	}
	if s.rolling {
		s.appendRing(chunk)
	} else {
		s.appendLinear(chunk)
	}
	s.changed.Emit(n)
	return nil
}

func (s *PointStore) appendLinear(chunk Chunk) {
	n := len(chunk.X)
	s.grow(s.count + n)
	base := s.count
	copy(s.x[base:], chunk.X)
	copy(s.y[base:], chunk.Y)
	for i := 0; i < n; i++ {
		s.size[base+i] = pointSize(chunk, i)
		writeColor(s.color, base+i, chunk, i)
	}
	for i, m := range chunk.Meta {
		s.meta[base+i] = m
	}
	s.count += n
}

// grow enlarges the backing arrays by repeated ×1.5 until they hold at
// least want points. Existing points are copied; capacity never shrinks.
func (s *PointStore) grow(want int) {
	capacity := len(s.x)
	if want <= capacity {
		return
	}
	for capacity < want {
		capacity += capacity / 2
		if capacity < defaultCapacity {
			capacity = defaultCapacity
		}
	}
	x, y, size := s.x, s.y, s.size
	color := s.color
	s.alloc(capacity)
	copy(s.x, x[:s.count])
	copy(s.y, y[:s.count])
	copy(s.size, size[:s.count])
	copy(s.color, color[:4*s.count])
	plotcore.Logger().Debug("point buffer grown",
		"capacity", capacity, "count", s.count)
}

// Attributes returns the stored points in logical order. In linear mode the
// returned slices are zero-copy views of the backing arrays; in rolling mode
// they are zero-copy only while the ring has not wrapped, and an ordered
// two-segment copy afterwards.
func (s *PointStore) Attributes() Attributes {
	if !s.rolling || s.count == 0 || s.tail+s.count <= len(s.x) {
		lo := 0
		if s.rolling {
			lo = s.tail
		}
		hi := lo + s.count
		return Attributes{
			X:     s.x[lo:hi],
			Y:     s.y[lo:hi],
			Size:  s.size[lo:hi],
			Color: s.color[4*lo : 4*hi],
		}
	}
	// Wrapped ring: materialize [tail..cap) then [0..head).
	out := Attributes{
		X:     make([]float32, s.count),
		Y:     make([]float32, s.count),
		Size:  make([]float32, s.count),
		Color: make([]uint8, 4*s.count),
	}
	first := len(s.x) - s.tail
	copy(out.X, s.x[s.tail:])
	copy(out.X[first:], s.x[:s.head])
	copy(out.Y, s.y[s.tail:])
	copy(out.Y[first:], s.y[:s.head])
	copy(out.Size, s.size[s.tail:])
	copy(out.Size[first:], s.size[:s.head])
	copy(out.Color, s.color[4*s.tail:])
	copy(out.Color[4*first:], s.color[:4*s.head])
	return out
}

// LogicalData returns the points in logical append order. It is the read
// the view graph pulls from; it is identical to Attributes.
func (s *PointStore) LogicalData() Attributes { return s.Attributes() }

// Meta returns the metadata attached to the point at logical index i, or
// nil if none was recorded.
func (s *PointStore) Meta(i int) map[string]any {
	if i < 0 || i >= s.count {
		return nil
	}
	if s.rolling {
		i = (s.tail + i) % len(s.x)
	}
	return s.meta[i]
}

// Clear resets the store to empty without deallocating capacity.
func (s *PointStore) Clear() {
	s.count = 0
	s.head = 0
	s.tail = 0
	clear(s.meta)
	s.changed.Emit(0)
}

// OnChange registers fn to run after every mutation (append or clear) with
// the number of points appended. It returns a cancel function.
func (s *PointStore) OnChange(fn func(appended int)) (cancel func()) {
	return s.changed.Subscribe(fn)
}

// OnExpire registers fn to run after ExpireIfNeeded evicts points, with the
// number evicted. It fires only when at least one point was evicted.
func (s *PointStore) OnExpire(fn func(evicted int)) (cancel func()) {
	return s.expired.Subscribe(fn)
}

func pointSize(chunk Chunk, i int) float32 {
	if chunk.Size != nil {
		return chunk.Size[i]
	}
	return DefaultSize
}

func writeColor(dst []uint8, slot int, chunk Chunk, i int) {
	if chunk.Color != nil {
		copy(dst[4*slot:4*slot+4], chunk.Color[4*i:4*i+4])
		return
	}
	// Opaque white.
	dst[4*slot] = 0xff
	dst[4*slot+1] = 0xff
	dst[4*slot+2] = 0xff
	dst[4*slot+3] = 0xff
}
