package region

import (
	"math"

	"github.com/gogpu/plotcore"
)

// Line is a single-position region: a vertical line at x = position or a
// horizontal line at y = position, with infinite extent on its own axis.
// Bounds and position are never allowed to disagree: every mutation goes
// through the position or is followed by a resync.
type Line struct {
	node
	orientation Orientation
	mode        LineMode
	position    float64
	label       string
}

func newLine(id string, orientation Orientation, position float64, mode LineMode, label string) *Line {
	l := &Line{orientation: orientation, mode: mode}
	l.node = newNode(l, id, KindLine, plotcore.Bounds{})
	l.resizable = false
	l.SetLabel(label)
	l.setPosition(position)
	return l
}

// Orientation returns the line's orientation.
func (l *Line) Orientation() Orientation { return l.orientation }

// Mode returns the display mode.
func (l *Line) Mode() LineMode { return l.mode }

// SetMode sets the display mode.
func (l *Line) SetMode(m LineMode) { l.mode = m }

// Position returns the scalar position.
func (l *Line) Position() float64 { return l.position }

// SetPosition moves the line, resynchronizing its bounds.
func (l *Line) SetPosition(p float64) {
	l.setPosition(p)
	if l.notify != nil {
		l.notify(l.self)
	}
}

func (l *Line) setPosition(p float64) {
	l.position = p
	if l.orientation == Vertical {
		l.bounds = plotcore.Bounds{X1: p, X2: p, Y1: math.Inf(-1), Y2: math.Inf(1)}
	} else {
		l.bounds = plotcore.Bounds{X1: math.Inf(-1), X2: math.Inf(1), Y1: p, Y2: p}
	}
}

// Label returns the line's label.
func (l *Line) Label() string { return l.label }

// SetLabel sets the label, truncating past MaxLabelLen runes.
func (l *Line) SetLabel(s string) {
	runes := []rune(s)
	if len(runes) > MaxLabelLen {
		s = string(runes[:MaxLabelLen])
	}
	l.label = s
}

// resync recovers the scalar position from the bounds after an outside
// mutation (a constraint clamp, an external record), then rebuilds the
// bounds so the orthogonal extent is infinite again.
func (l *Line) resync() {
	if l.orientation == Vertical {
		l.setPosition(l.bounds.X1)
	} else {
		l.setPosition(l.bounds.Y1)
	}
}

// HitTest returns HandleMove when the pointer is within slop pixels of the
// line, HandleNone otherwise.
func (l *Line) HitTest(px, py float64, t Transform, slop float64) Handle {
	if !l.movable {
		return HandleNone
	}
	if l.orientation == Vertical {
		lx, _ := t.ToPixel(l.position, 0)
		if math.Abs(px-lx) <= slop {
			return HandleMove
		}
		return HandleNone
	}
	_, ly := t.ToPixel(0, l.position)
	if math.Abs(py-ly) <= slop {
		return HandleMove
	}
	return HandleNone
}

// ApplyDelta moves the line along its free axis and resyncs the bounds.
func (l *Line) ApplyDelta(h Handle, dx, dy float64) {
	if h != HandleMove {
		return
	}
	if l.orientation == Vertical {
		l.setPosition(l.position + dx)
	} else {
		l.setPosition(l.position + dy)
	}
}

// Record serializes the line with its variant fields.
func (l *Line) Record() Record {
	rec := l.record()
	rec.Orientation = l.orientation
	rec.Mode = l.mode
	pos := l.position
	rec.Position = &pos
	rec.Label = l.label
	return rec
}
