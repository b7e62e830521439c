package region

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/gogpu/plotcore"
)

// testTransform maps data to pixels 1:1 with the vertical axis flipped,
// the usual plot orientation (larger data-y is visually higher).
type testTransform struct{}

func (testTransform) ToPixel(x, y float64) (float64, float64)  { return x, -y }
func (testTransform) ToData(px, py float64) (float64, float64) { return px, -py }

// seqIDs hands out deterministic ids r1, r2, ...
type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("r%d", s.n)
}

func newTestController() *Controller {
	base := time.UnixMilli(1_700_000_000_000)
	tick := 0
	return NewController(testTransform{},
		WithIDSource(&seqIDs{}),
		WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Millisecond)
		}),
	)
}

// TestRangeBoundsShape verifies a range is unbounded vertically.
func TestRangeBoundsShape(t *testing.T) {
	c := newTestController()
	r := c.CreateRange(30, 10) // reversed on purpose
	b := r.Bounds()
	if b.X1 != 10 || b.X2 != 30 {
		t.Errorf("X = (%v, %v), want (10, 30)", b.X1, b.X2)
	}
	if !math.IsInf(b.Y1, -1) || !math.IsInf(b.Y2, 1) {
		t.Errorf("Y should be unbounded, got (%v, %v)", b.Y1, b.Y2)
	}
}

// TestRangeEdgesClampNotSwap verifies an edge dragged past the opposite
// edge clamps instead of crossing.
func TestRangeEdgesClampNotSwap(t *testing.T) {
	c := newTestController()
	r := c.CreateRange(10, 20)

	r.ApplyDelta(HandleLeft, 100, 0) // would cross the right edge
	if b := r.Bounds(); b.X1 != 20 || b.X2 != 20 {
		t.Errorf("after left overshoot: (%v, %v), want (20, 20)", b.X1, b.X2)
	}

	r = c.CreateRange(10, 20)
	r.ApplyDelta(HandleRight, -100, 0)
	if b := r.Bounds(); b.X1 != 10 || b.X2 != 10 {
		t.Errorf("after right overshoot: (%v, %v), want (10, 10)", b.X1, b.X2)
	}
}

// TestTreeLinkInvariant verifies parent.Children contains a node exactly
// when the node's parent is set to it.
func TestTreeLinkInvariant(t *testing.T) {
	c := newTestController()
	a := c.CreateRange(0, 10)
	b := c.CreateRange(20, 30)
	child := c.CreateRect(plotcore.NewBounds(1, 2, 3, 4)) // auto-parents to a

	if child.Parent() == nil || child.Parent().ID() != a.ID() {
		t.Fatalf("child parent = %v, want %s", child.Parent(), a.ID())
	}
	if len(a.Children()) != 1 {
		t.Fatalf("a has %d children, want 1", len(a.Children()))
	}

	child.SetParent(b)
	if len(a.Children()) != 0 {
		t.Error("a should have no children after re-parenting")
	}
	if kids := b.Children(); len(kids) != 1 || kids[0].ID() != child.ID() {
		t.Errorf("b children = %v, want [%s]", kids, child.ID())
	}

	child.SetParent(nil)
	if len(b.Children()) != 0 || child.Parent() != nil {
		t.Error("detach left stale links")
	}
}

// TestWalkDescendantsDepthFirst verifies traversal order and the cycle
// guard.
func TestWalkDescendantsDepthFirst(t *testing.T) {
	c := newTestController()
	root := c.CreateRange(0, 100)
	mid := c.CreateRect(plotcore.NewBounds(1, 2, 1, 2))
	leaf := c.CreateRect(plotcore.NewBounds(1, 2, 1, 2))
	mid.SetParent(root)
	leaf.SetParent(mid)

	var order []string
	root.WalkDescendants(func(r Region) { order = append(order, r.ID()) })
	if len(order) != 2 || order[0] != mid.ID() || order[1] != leaf.ID() {
		t.Errorf("walk order = %v, want [%s %s]", order, mid.ID(), leaf.ID())
	}

	// Force a cycle; the walk must still terminate.
	root.base().parent = leaf
	leaf.base().children = append(leaf.base().children, root)
	count := 0
	root.WalkDescendants(func(Region) { count++ })
	if count != 2 {
		t.Errorf("cyclic walk visited %d nodes, want 2", count)
	}
}

// TestLinePositionBoundsSync verifies a line's bounds and scalar position
// never disagree, through deltas and external clamps.
func TestLinePositionBoundsSync(t *testing.T) {
	c := newTestController()
	l := c.CreateLine(Vertical, 5, LineFull, "")

	b := l.Bounds()
	if b.X1 != 5 || b.X2 != 5 {
		t.Fatalf("bounds X = (%v, %v), want (5, 5)", b.X1, b.X2)
	}
	if !math.IsInf(b.Y1, -1) || !math.IsInf(b.Y2, 1) {
		t.Fatalf("bounds Y should be infinite")
	}

	l.ApplyDelta(HandleMove, 3, 99) // dy is ignored for a vertical line
	if l.Position() != 8 || l.Bounds().X1 != 8 || l.Bounds().X2 != 8 {
		t.Errorf("after move: position %v bounds %+v", l.Position(), l.Bounds())
	}

	// A clamp writes bounds behind the line's back; resync recovers the
	// position and restores the infinite extent.
	l.SetBoundsSilent(plotcore.NewBounds(2, 2, 0, 10))
	l.resync()
	if l.Position() != 2 {
		t.Errorf("position after resync = %v, want 2", l.Position())
	}
	if !math.IsInf(l.Bounds().Y2, 1) {
		t.Error("resync should restore the infinite extent")
	}
}

// TestHorizontalLine verifies the symmetric orientation.
func TestHorizontalLine(t *testing.T) {
	c := newTestController()
	l := c.CreateLine(Horizontal, 7, LineHalfTop, "threshold")

	b := l.Bounds()
	if b.Y1 != 7 || b.Y2 != 7 || !math.IsInf(b.X1, -1) {
		t.Fatalf("bounds = %+v, want y pinned at 7, x infinite", b)
	}
	l.ApplyDelta(HandleMove, 99, -2)
	if l.Position() != 5 {
		t.Errorf("position = %v, want 5", l.Position())
	}
}

// TestLineLabelTruncation verifies labels cap at MaxLabelLen runes.
func TestLineLabelTruncation(t *testing.T) {
	c := newTestController()
	long := "abcdefghijklmnopqrstuvwxyz" // 26 runes
	l := c.CreateLine(Vertical, 0, LineHalfBottom, long)
	if got := l.Label(); len([]rune(got)) != MaxLabelLen || got != long[:25] {
		t.Errorf("label = %q (%d runes), want first %d runes", got, len([]rune(got)), MaxLabelLen)
	}
}

// TestRecordShapes spot-checks serialized records per variant.
func TestRecordShapes(t *testing.T) {
	c := newTestController()
	band := c.CreateRange(0, 100)
	box := c.CreateRect(plotcore.NewBounds(10, 20, 0, 50))
	line := c.CreateLine(Vertical, 42, LineHalfTop, "note")

	brec := band.Record()
	if brec.Type != KindRange || brec.Domain.X == nil || brec.Domain.Y != nil {
		t.Errorf("range record = %+v, want x-only domain", brec)
	}
	if brec.Version != 0 {
		t.Errorf("fresh version = %d, want 0", brec.Version)
	}

	xrec := box.Record()
	if xrec.ParentID != band.ID() {
		t.Errorf("rect parentId = %q, want %q", xrec.ParentID, band.ID())
	}

	lrec := line.Record()
	if lrec.Orientation != Vertical || lrec.Mode != LineHalfTop || lrec.Label != "note" {
		t.Errorf("line record = %+v", lrec)
	}
	if lrec.Position == nil || *lrec.Position != 42 {
		t.Errorf("line position = %v, want 42", lrec.Position)
	}
	if lrec.ParentID != band.ID() {
		t.Errorf("vline inside the band should auto-parent, got %q", lrec.ParentID)
	}
}
