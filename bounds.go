package plotcore

import "math"

// Bounds is an axis-aligned extent in data coordinates. An edge of ±Inf
// means the bounds are unbounded on that side; a vertical band, for
// example, has finite X edges and an infinite Y extent.
//
// Bounds are kept normalized (X1 ≤ X2, Y1 ≤ Y2). Constructors and mutating
// code normalize on write; code that assembles a Bounds literal by hand
// should call Normalize before handing it to anything else.
type Bounds struct {
	X1, X2, Y1, Y2 float64
}

// NewBounds returns normalized bounds covering both corners.
func NewBounds(x1, x2, y1, y2 float64) Bounds {
	return Bounds{X1: x1, X2: x2, Y1: y1, Y2: y2}.Normalize()
}

// UnboundedBounds returns bounds that are infinite on both axes.
func UnboundedBounds() Bounds {
	return Bounds{
		X1: math.Inf(-1), X2: math.Inf(1),
		Y1: math.Inf(-1), Y2: math.Inf(1),
	}
}

// Normalize returns the bounds with edges ordered so X1 ≤ X2 and Y1 ≤ Y2.
func (b Bounds) Normalize() Bounds {
	if b.X2 < b.X1 {
		b.X1, b.X2 = b.X2, b.X1
	}
	if b.Y2 < b.Y1 {
		b.Y1, b.Y2 = b.Y2, b.Y1
	}
	return b
}

// Width returns the X extent. It is +Inf when either X edge is infinite.
func (b Bounds) Width() float64 { return b.X2 - b.X1 }

// Height returns the Y extent. It is +Inf when either Y edge is infinite.
func (b Bounds) Height() float64 { return b.Y2 - b.Y1 }

// FiniteX reports whether both X edges are finite.
func (b Bounds) FiniteX() bool {
	return !math.IsInf(b.X1, 0) && !math.IsInf(b.X2, 0)
}

// FiniteY reports whether both Y edges are finite.
func (b Bounds) FiniteY() bool {
	return !math.IsInf(b.Y1, 0) && !math.IsInf(b.Y2, 0)
}

// Translate returns the bounds shifted by (dx, dy). Infinite edges stay
// infinite (Inf + finite == Inf).
func (b Bounds) Translate(dx, dy float64) Bounds {
	return Bounds{X1: b.X1 + dx, X2: b.X2 + dx, Y1: b.Y1 + dy, Y2: b.Y2 + dy}
}

// ContainsPoint reports whether (x, y) lies within the closed bounds.
func (b Bounds) ContainsPoint(x, y float64) bool {
	return x >= b.X1 && x <= b.X2 && y >= b.Y1 && y <= b.Y2
}

// Contains reports whether o lies entirely within the closed bounds.
func (b Bounds) Contains(o Bounds) bool {
	return o.X1 >= b.X1 && o.X2 <= b.X2 && o.Y1 >= b.Y1 && o.Y2 <= b.Y2
}

// OverlapsX reports whether the X intervals of b and o intersect.
func (b Bounds) OverlapsX(o Bounds) bool {
	return b.X1 <= o.X2 && o.X1 <= b.X2
}

// Equal reports exact numeric equality of all four edges. Infinities of the
// same sign compare equal; change detection in the constraint engine relies
// on this being a plain == on each edge.
func (b Bounds) Equal(o Bounds) bool {
	return b.X1 == o.X1 && b.X2 == o.X2 && b.Y1 == o.Y1 && b.Y2 == o.Y2
}

// Domain is the serialized form of Bounds used by the record protocol.
// A nil axis means the bounds are unbounded on that axis.
type Domain struct {
	X *[2]float64 `json:"x,omitempty"`
	Y *[2]float64 `json:"y,omitempty"`
}

// Domain converts bounds to their serialized form. An axis with any
// infinite edge is omitted entirely; partially-bounded axes do not occur in
// the record protocol.
func (b Bounds) Domain() Domain {
	var d Domain
	if b.FiniteX() {
		d.X = &[2]float64{b.X1, b.X2}
	}
	if b.FiniteY() {
		d.Y = &[2]float64{b.Y1, b.Y2}
	}
	return d
}

// Bounds converts a serialized domain back into bounds, restoring ±Inf on
// omitted axes.
func (d Domain) Bounds() Bounds {
	b := UnboundedBounds()
	if d.X != nil {
		b.X1, b.X2 = d.X[0], d.X[1]
	}
	if d.Y != nil {
		b.Y1, b.Y2 = d.Y[0], d.Y[1]
	}
	return b.Normalize()
}
