package region

import (
	"math"

	"github.com/gogpu/plotcore"
)

// Range is a 1-D interval region: finite X edges, unbounded Y. It renders
// as a vertical band and typically parents rects and vertical lines.
type Range struct {
	node
}

func newRange(id string, x1, x2 float64) *Range {
	r := &Range{}
	r.node = newNode(r, id, KindRange, plotcore.Bounds{
		X1: x1, X2: x2,
		Y1: math.Inf(-1), Y2: math.Inf(1),
	})
	return r
}

// HitTest returns the edge handle when the pointer is within slop pixels of
// an edge, HandleMove when it is inside the band, and HandleNone otherwise.
func (r *Range) HitTest(px, py float64, t Transform, slop float64) Handle {
	_ = py // the band is unbounded vertically
	b := r.bounds
	px1, _ := t.ToPixel(b.X1, 0)
	px2, _ := t.ToPixel(b.X2, 0)
	if r.resizable {
		if math.Abs(px-px1) <= slop {
			return HandleLeft
		}
		if math.Abs(px-px2) <= slop {
			return HandleRight
		}
	}
	if r.movable && px >= px1 && px <= px2 {
		return HandleMove
	}
	return HandleNone
}

// ApplyDelta moves the band or drags one edge. Edge handles clamp at the
// opposite edge; they never cross and swap.
func (r *Range) ApplyDelta(h Handle, dx, dy float64) {
	_ = dy
	b := r.bounds
	switch h {
	case HandleMove:
		b.X1 += dx
		b.X2 += dx
	case HandleLeft:
		b.X1 = math.Min(b.X1+dx, b.X2)
	case HandleRight:
		b.X2 = math.Max(b.X2+dx, b.X1)
	default:
		return
	}
	r.bounds = b
}

// Record serializes the range.
func (r *Range) Record() Record { return r.record() }
