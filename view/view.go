// Package view provides lazy, dirty-flag-cached transformation views over
// point stores.
//
// A View wraps exactly one source — a store.PointStore or another View —
// plus an optional transform. Views form a DAG: marking a view dirty
// cascades to every view derived from it, but recomputation is deferred
// until Data is read. Two reads with no intervening dirty mark return the
// identical cached frame, so consumers can detect change by pointer
// comparison.
//
// Views derived from region filters follow the commit-only dirtying rule:
// they are invalidated by committed region updates (drag finalize, external
// apply, delete), never by in-progress drag frames. A drag gesture
// therefore costs at most one recompute regardless of how many intermediate
// updates it produced.
package view

import (
	"errors"
	"fmt"

	"github.com/gogpu/plotcore"
	"github.com/gogpu/plotcore/store"
)

var (
	// ErrUnknownField reports a histogram over a field the attribute bundle
	// does not carry.
	ErrUnknownField = errors.New("view: unknown histogram field")

	// ErrBadBinCount reports a histogram with fewer than one bin.
	ErrBadBinCount = errors.New("view: histogram needs at least one bin")
)

// Transform rewrites one attribute frame into another. Transforms must not
// mutate the input frame; its slices may alias store memory.
type Transform func(store.Attributes) store.Attributes

// RegionSource is the region-lookup capability a region-filtered view
// needs: current bounds by id, and a subscription to committed (finalized,
// externally applied, or deleted) region changes. region.Controller
// implements it.
type RegionSource interface {
	RegionBounds(id string) (plotcore.Bounds, bool)
	OnCommitted(fn func(id string)) (cancel func())
}

// View is a lazy transformation node over a point source.
//
// A View is not safe for concurrent use; like the rest of plotcore it
// belongs to one goroutine.
type View struct {
	pull      func() store.Attributes
	transform Transform

	dirty bool
	snap  *store.Attributes

	cancels   []func()
	destroyed bool

	changed    plotcore.Signal[struct{}]
	recomputed plotcore.Signal[struct{}]
}

// FromStore creates a root view over a point store. The view is marked
// dirty by the store's data-changed and data-expired notifications.
func FromStore(ps *store.PointStore) *View {
	v := &View{pull: ps.LogicalData, dirty: true}
	v.cancels = append(v.cancels,
		ps.OnChange(func(int) { v.MarkDirty() }),
		ps.OnExpire(func(int) { v.MarkDirty() }),
	)
	return v
}

// Derive creates a child view that pulls this view's data and applies
// transform. The child is marked dirty whenever this view is.
func (v *View) Derive(transform Transform) *View {
	child := &View{
		pull:      func() store.Attributes { return *v.Data() },
		transform: transform,
		dirty:     true,
	}
	child.cancels = append(child.cancels,
		v.changed.Subscribe(func(struct{}) { child.MarkDirty() }),
	)
	return child
}

// Data returns the view's current frame, recomputing it only if the view is
// dirty. While clean, repeated calls return the identical cached frame.
func (v *View) Data() *store.Attributes {
	if !v.dirty && v.snap != nil {
		return v.snap
	}
	frame := v.pull()
	if v.transform != nil {
		frame = v.transform(frame)
	}
	v.snap = &frame
	v.dirty = false
	plotcore.Logger().Debug("view recomputed", "points", frame.Len())
	v.recomputed.Emit(struct{}{})
	return v.snap
}

// MarkDirty flags the view for recomputation on the next read and cascades
// to derived views. Marking an already-dirty view is a no-op: downstream
// views are dirty too.
func (v *View) MarkDirty() {
	if v.destroyed || v.dirty {
		return
	}
	v.dirty = true
	v.changed.Emit(struct{}{})
}

// Dirty reports whether the next Data call will recompute.
func (v *View) Dirty() bool { return v.dirty }

// OnRecomputed registers fn to run after every actual recompute. Metrics
// collectors hook this to count recomputation work.
func (v *View) OnRecomputed(fn func()) (cancel func()) {
	return v.recomputed.Subscribe(func(struct{}) { fn() })
}

// Destroy detaches the view from its source and any region source. A view
// that is not destroyed keeps its listeners alive and leaks. Destroy is
// idempotent; reading a destroyed view returns its last frame.
func (v *View) Destroy() {
	if v.destroyed {
		return
	}
	v.destroyed = true
	for _, cancel := range v.cancels {
		cancel()
	}
	v.cancels = nil
}

// FilterByDomain derives a view keeping only points whose coordinates fall
// within the closed intervals of d. A nil axis passes everything on that
// axis.
func (v *View) FilterByDomain(d plotcore.Domain) *View {
	b := d.Bounds()
	return v.Derive(func(in store.Attributes) store.Attributes {
		return filterBounds(in, b)
	})
}

// FilterByROI derives a view keeping only points inside the bounding box of
// the region named id. The bounds are looked up at recompute time, so the
// view tracks the region as it moves; if the region no longer exists the
// view degrades to passing its source through unfiltered.
//
// The derived view is additionally marked dirty by committed updates to the
// region — and only committed ones, never in-progress drag frames.
func (v *View) FilterByROI(regions RegionSource, id string) *View {
	child := v.Derive(func(in store.Attributes) store.Attributes {
		b, ok := regions.RegionBounds(id)
		if !ok {
			plotcore.Logger().Warn("region filter passthrough: region missing", "region", id)
			return in
		}
		return filterBounds(in, b)
	})
	child.cancels = append(child.cancels,
		regions.OnCommitted(func(rid string) {
			if rid == id {
				child.MarkDirty()
			}
		}),
	)
	return child
}

// filterBounds keeps points inside b. Two passes: count the matches, then
// copy into exact-size output arrays.
func filterBounds(in store.Attributes, b plotcore.Bounds) store.Attributes {
	n := 0
	for i := range in.X {
		if b.ContainsPoint(float64(in.X[i]), float64(in.Y[i])) {
			n++
		}
	}
	if n == in.Len() {
		return in
	}
	out := store.Attributes{
		X:     make([]float32, 0, n),
		Y:     make([]float32, 0, n),
		Size:  make([]float32, 0, n),
		Color: make([]uint8, 0, 4*n),
	}
	for i := range in.X {
		if b.ContainsPoint(float64(in.X[i]), float64(in.Y[i])) {
			out.X = append(out.X, in.X[i])
			out.Y = append(out.Y, in.Y[i])
			out.Size = append(out.Size, in.Size[i])
			out.Color = append(out.Color, in.Color[4*i:4*i+4]...)
		}
	}
	return out
}

// Histogram derives a view that bins the named field ("x", "y", or "size")
// into bins equal-width buckets. The output frame carries bin centers in X
// and bin counts in Y, so it plots directly. It returns an error for an
// unknown field or a bin count below one.
//
// Degenerate data is handled rather than rejected: an empty source yields
// an empty frame, all-equal values land in bin 0, and the maximum value is
// clamped into the last bin instead of overflowing past it.
func (v *View) Histogram(field string, bins int) (*View, error) {
	switch field {
	case "x", "y", "size":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if bins < 1 {
		return nil, fmt.Errorf("%w: %d", ErrBadBinCount, bins)
	}
	return v.Derive(func(in store.Attributes) store.Attributes {
		return histogram(fieldValues(in, field), bins)
	}), nil
}

func fieldValues(a store.Attributes, field string) []float32 {
	switch field {
	case "x":
		return a.X
	case "y":
		return a.Y
	default:
		return a.Size
	}
}

func histogram(values []float32, bins int) store.Attributes {
	if len(values) == 0 {
		return store.Attributes{}
	}
	lo, hi := values[0], values[0]
	for _, val := range values[1:] {
		if val < lo {
			lo = val
		}
		if val > hi {
			hi = val
		}
	}
	counts := make([]float32, bins)
	span := float64(hi) - float64(lo)
	for _, val := range values {
		idx := 0
		if span > 0 {
			idx = int(float64(val-lo) / span * float64(bins))
			if idx >= bins {
				// Floating rounding can push the maximum just past the
				// last bin; clamp it in.
				idx = bins - 1
			}
		}
		counts[idx]++
	}
	centers := make([]float32, bins)
	width := span / float64(bins)
	for i := range centers {
		centers[i] = lo + float32((float64(i)+0.5)*width)
	}
	return store.Attributes{X: centers, Y: counts}
}
