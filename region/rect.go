package region

import (
	"math"

	"github.com/gogpu/plotcore"
)

// metaXLock is the metadata key under which a rect's x-lock survives
// serialization; the record shape has no variant field for it.
const metaXLock = "xLocked"

// Rect is a 2-D box region.
//
// An x-locked rect mirrors its parent's X interval exactly: it exposes only
// vertical handles (horizontal ones collapse to their vertical-only
// equivalents) and its move is restricted to the Y axis. The constraint
// engine keeps its X edges equal to the parent's.
type Rect struct {
	node
	xLocked bool
}

func newRect(id string, b plotcore.Bounds) *Rect {
	r := &Rect{}
	r.node = newNode(r, id, KindRect, b)
	return r
}

// XLocked reports whether the rect mirrors its parent on the X axis.
func (r *Rect) XLocked() bool { return r.xLocked }

func (r *Rect) lockedAxes() (bool, bool) { return r.xLocked, false }

// HitTest names handles by visual position. With an inverted vertical pixel
// axis (larger data-y visually higher), the visual top edge is the
// maximum-y edge. Corners win over edges, edges over the interior.
func (r *Rect) HitTest(px, py float64, t Transform, slop float64) Handle {
	b := r.bounds
	ax, ay := t.ToPixel(b.X1, b.Y1)
	bx, by := t.ToPixel(b.X2, b.Y2)
	left, right := math.Min(ax, bx), math.Max(ax, bx)
	top, bottom := math.Min(ay, by), math.Max(ay, by)

	nearLeft := math.Abs(px-left) <= slop
	nearRight := math.Abs(px-right) <= slop
	nearTop := math.Abs(py-top) <= slop
	nearBottom := math.Abs(py-bottom) <= slop
	withinX := px >= left-slop && px <= right+slop
	withinY := py >= top-slop && py <= bottom+slop

	if r.resizable && withinX && withinY {
		var h Handle
		switch {
		case nearTop && nearLeft:
			h = HandleTopLeft
		case nearTop && nearRight:
			h = HandleTopRight
		case nearBottom && nearLeft:
			h = HandleBottomLeft
		case nearBottom && nearRight:
			h = HandleBottomRight
		case nearTop:
			h = HandleTop
		case nearBottom:
			h = HandleBottom
		case nearLeft:
			h = HandleLeft
		case nearRight:
			h = HandleRight
		}
		if h != HandleNone {
			return r.collapseHandle(h)
		}
	}
	if r.movable && px >= left && px <= right && py >= top && py <= bottom {
		return HandleMove
	}
	return HandleNone
}

// collapseHandle folds horizontal handles into vertical-only equivalents
// for an x-locked rect.
func (r *Rect) collapseHandle(h Handle) Handle {
	if !r.xLocked {
		return h
	}
	switch h {
	case HandleTopLeft, HandleTopRight:
		return HandleTop
	case HandleBottomLeft, HandleBottomRight:
		return HandleBottom
	case HandleLeft, HandleRight:
		return HandleMove
	default:
		return h
	}
}

// ApplyDelta applies a move or resize in data units. Visual top maps to the
// maximum-y edge, bottom to the minimum-y edge. Resizing edges clamp at the
// opposite edge rather than crossing it; an x-locked rect ignores the
// horizontal component entirely.
func (r *Rect) ApplyDelta(h Handle, dx, dy float64) {
	h = r.collapseHandle(h)
	if r.xLocked {
		dx = 0
	}
	b := r.bounds
	switch h {
	case HandleMove:
		b = b.Translate(dx, dy)
	case HandleLeft:
		b.X1 = math.Min(b.X1+dx, b.X2)
	case HandleRight:
		b.X2 = math.Max(b.X2+dx, b.X1)
	case HandleTop:
		b.Y2 = math.Max(b.Y2+dy, b.Y1)
	case HandleBottom:
		b.Y1 = math.Min(b.Y1+dy, b.Y2)
	case HandleTopLeft:
		b.X1 = math.Min(b.X1+dx, b.X2)
		b.Y2 = math.Max(b.Y2+dy, b.Y1)
	case HandleTopRight:
		b.X2 = math.Max(b.X2+dx, b.X1)
		b.Y2 = math.Max(b.Y2+dy, b.Y1)
	case HandleBottomLeft:
		b.X1 = math.Min(b.X1+dx, b.X2)
		b.Y1 = math.Min(b.Y1+dy, b.Y2)
	case HandleBottomRight:
		b.X2 = math.Max(b.X2+dx, b.X1)
		b.Y1 = math.Min(b.Y1+dy, b.Y2)
	default:
		return
	}
	r.bounds = b.Normalize()
}

// Record serializes the rect. The x-lock travels in metadata.
func (r *Rect) Record() Record {
	rec := r.record()
	if r.xLocked {
		meta := make(map[string]any, len(rec.Metadata)+1)
		for k, v := range rec.Metadata {
			meta[k] = v
		}
		meta[metaXLock] = true
		rec.Metadata = meta
	}
	return rec
}
