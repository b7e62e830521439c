package region

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/gogpu/plotcore"
)

// Mode is the controller's interaction state.
type Mode int

// Interaction modes. Two-click creation (range, rect) buffers the first
// click and completes on the second; line creation completes on one click.
const (
	ModeIdle Mode = iota
	ModeCreateRange
	ModeCreateRect
	ModeCreateVLine
	ModeCreateHLine
)

// Command is a keybind-style action dispatched to a controller. Dispatch is
// gated on the pointer hovering this controller's surface, so independent
// controllers sharing a page ignore each other's key events.
type Command int

// Commands.
const (
	CommandCancel Command = iota
	CommandCreateRange
	CommandCreateRect
	CommandCreateVLine
	CommandCreateHLine
	CommandDeleteSelected
)

// IDSource assigns region ids. Injecting one keeps id assignment
// deterministic in tests; the default draws random UUIDs.
type IDSource interface {
	NewID() string
}

type uuidSource struct{}

func (uuidSource) NewID() string { return uuid.NewString() }

// ControllerOption configures a Controller during creation.
type ControllerOption func(*Controller)

// WithIDSource injects the id generator.
func WithIDSource(ids IDSource) ControllerOption {
	return func(c *Controller) { c.ids = ids }
}

// WithClock injects the time source used for version timestamps.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// WithHitSlop sets the pixel tolerance for edge and line hit tests.
func WithHitSlop(px float64) ControllerOption {
	return func(c *Controller) { c.hitSlop = px }
}

const defaultHitSlop = 6

// Controller owns a registry of regions and runs the interaction state
// machine over them: creation flows, drag/resize gestures, hit-test
// dispatch, the commit protocol, and the version gate for external updates.
//
// A Controller is not safe for concurrent use. All mutation happens
// synchronously inside pointer-event handlers and external-update calls on
// the owning goroutine.
type Controller struct {
	transform Transform
	ids       IDSource
	now       func() time.Time
	hitSlop   float64

	regions map[string]Region
	order   []string // insertion order; last is visually topmost

	mode        Mode
	pending     *[2]float64 // first click of a two-click creation, data coords
	drag        *dragState
	pointerOver bool

	created   plotcore.Signal[Record]
	updated   plotcore.Signal[Record] // in-progress, not committed
	finalized plotcore.Signal[Record] // committed with bumped version
	external  plotcore.Signal[Record] // committed by an external writer
	deleted   plotcore.Signal[string]
	committed plotcore.Signal[string] // any committed change, by id
	changed   plotcore.Signal[struct{}]
}

type dragState struct {
	region      Region
	handle      Handle
	startBounds plotcore.Bounds
	subtree     map[string]plotcore.Bounds // descendant gesture-start bounds, by id
	startX      float64                    // pointer-down position, data coords
	startY      float64
}

// restoreSubtree puts every snapshotted descendant back at its gesture-start
// bounds. Each frame reconstrains from this state so descendants never
// accumulate per-frame displacements.
func (d *dragState) restoreSubtree() {
	d.region.WalkDescendants(func(child Region) {
		b, ok := d.subtree[child.ID()]
		if !ok || child.Bounds().Equal(b) {
			return
		}
		child.SetBoundsSilent(b)
		child.resync()
	})
}

// NewController creates an empty controller. The transform is the injected
// data↔pixel capability used for hit testing.
func NewController(t Transform, opts ...ControllerOption) *Controller {
	c := &Controller{
		transform: t,
		ids:       uuidSource{},
		now:       time.Now,
		hitSlop:   defaultHitSlop,
		regions:   make(map[string]Region),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode returns the current interaction mode.
func (c *Controller) Mode() Mode { return c.mode }

// Dragging reports whether a drag gesture is in progress.
func (c *Controller) Dragging() bool { return c.drag != nil }

// Get returns the region with the given id.
func (c *Controller) Get(id string) (Region, bool) {
	r, ok := c.regions[id]
	return r, ok
}

// Regions returns all regions in paint order (oldest first, topmost last).
// The render layer reads this once per frame.
func (c *Controller) Regions() []Region {
	out := make([]Region, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.regions[id])
	}
	return out
}

// RegionBounds returns the current bounds of the region with the given id.
// It satisfies the view package's RegionSource capability.
func (c *Controller) RegionBounds(id string) (plotcore.Bounds, bool) {
	r, ok := c.regions[id]
	if !ok {
		return plotcore.Bounds{}, false
	}
	return r.Bounds(), true
}

// Subscriptions. Updated fires per drag frame for every region whose bounds
// moved that frame; Finalized fires on commit with the bumped record;
// External fires when an external record passes the version gate;
// Committed fires with the region id on any committed change (finalize,
// external apply, delete) — it is what region-filtered views key dirtying
// to, never Updated.

// OnCreated registers fn for region creation events.
func (c *Controller) OnCreated(fn func(Record)) (cancel func()) { return c.created.Subscribe(fn) }

// OnUpdated registers fn for in-progress (uncommitted) bound updates.
func (c *Controller) OnUpdated(fn func(Record)) (cancel func()) { return c.updated.Subscribe(fn) }

// OnFinalized registers fn for committed gestures.
func (c *Controller) OnFinalized(fn func(Record)) (cancel func()) { return c.finalized.Subscribe(fn) }

// OnExternal registers fn for applied external updates.
func (c *Controller) OnExternal(fn func(Record)) (cancel func()) { return c.external.Subscribe(fn) }

// OnDeleted registers fn for region deletions.
func (c *Controller) OnDeleted(fn func(string)) (cancel func()) { return c.deleted.Subscribe(fn) }

// OnCommitted registers fn for committed changes of any kind. It satisfies
// the view package's RegionSource capability.
func (c *Controller) OnCommitted(fn func(id string)) (cancel func()) {
	return c.committed.Subscribe(fn)
}

// OnChanged registers fn for any registry change.
func (c *Controller) OnChanged(fn func()) (cancel func()) {
	return c.changed.Subscribe(func(struct{}) { fn() })
}

// register wires a region into the registry and announces it.
func (c *Controller) register(r Region, parent Region, announce bool) {
	n := r.base()
	n.now = c.now
	n.notify = func(reg Region) {
		c.updated.Emit(reg.Record())
		c.changed.Emit(struct{}{})
	}
	c.regions[r.ID()] = r
	c.order = append(c.order, r.ID())
	if parent != nil {
		r.SetParent(parent)
	}
	n.committed = r.Record()
	if announce {
		c.created.Emit(r.Record())
		c.changed.Emit(struct{}{})
	}
}

// CreateRange creates a vertical band spanning [x1, x2].
func (c *Controller) CreateRange(x1, x2 float64) *Range {
	r := newRange(c.ids.NewID(), x1, x2)
	c.register(r, nil, true)
	return r
}

// RectOption configures rect creation.
type RectOption func(*Rect)

// XLocked makes the rect mirror its parent range on the X axis.
func XLocked() RectOption {
	return func(r *Rect) { r.xLocked = true }
}

// CreateRect creates a box region. It auto-parents to the first created
// Range whose X interval overlaps the box, if any.
func (c *Controller) CreateRect(b plotcore.Bounds, opts ...RectOption) *Rect {
	r := newRect(c.ids.NewID(), b)
	for _, opt := range opts {
		opt(r)
	}
	parent := c.firstOverlappingRange(r.Bounds())
	if parent != nil && r.xLocked {
		r.SetBoundsSilent(clampToParent(r, r.Bounds(), parent.Bounds()))
	}
	c.register(r, parent, true)
	return r
}

// CreateLine creates a line region. A vertical line auto-parents to the
// first created Range containing its position.
func (c *Controller) CreateLine(o Orientation, position float64, mode LineMode, label string) *Line {
	l := newLine(c.ids.NewID(), o, position, mode, label)
	var parent Region
	if o == Vertical {
		parent = c.firstRangeContaining(position)
	}
	c.register(l, parent, true)
	return l
}

func (c *Controller) firstOverlappingRange(b plotcore.Bounds) Region {
	for _, id := range c.order {
		r := c.regions[id]
		if r.Kind() == KindRange && r.Bounds().OverlapsX(b) {
			return r
		}
	}
	return nil
}

func (c *Controller) firstRangeContaining(x float64) Region {
	for _, id := range c.order {
		r := c.regions[id]
		if r.Kind() == KindRange && x >= r.Bounds().X1 && x <= r.Bounds().X2 {
			return r
		}
	}
	return nil
}

// EnterCreate switches from idle into a creation mode. It reports whether
// the transition happened.
func (c *Controller) EnterCreate(m Mode) bool {
	if c.mode != ModeIdle || m == ModeIdle {
		return false
	}
	c.mode = m
	c.pending = nil
	return true
}

// Cancel aborts any creation flow and returns to idle. A buffered first
// click is discarded.
func (c *Controller) Cancel() {
	c.mode = ModeIdle
	c.pending = nil
}

// PointerDown feeds a pointer-press at pixel coordinates into the state
// machine: it advances creation flows, or in idle mode hit-tests the
// topmost visible region (last created wins for overlaps) and begins a
// drag.
func (c *Controller) PointerDown(px, py float64) {
	x, y := c.transform.ToData(px, py)
	switch c.mode {
	case ModeCreateRange, ModeCreateRect:
		if c.pending == nil {
			c.pending = &[2]float64{x, y}
			return
		}
		first := *c.pending
		c.pending = nil
		if c.mode == ModeCreateRange {
			c.CreateRange(first[0], x)
		} else {
			c.CreateRect(plotcore.NewBounds(first[0], x, first[1], y))
		}
		c.mode = ModeIdle
	case ModeCreateVLine:
		c.CreateLine(Vertical, x, LineFull, "")
		c.mode = ModeIdle
	case ModeCreateHLine:
		c.CreateLine(Horizontal, y, LineFull, "")
		c.mode = ModeIdle
	default:
		c.pointerDownIdle(px, py, x, y)
	}
}

func (c *Controller) pointerDownIdle(px, py, x, y float64) {
	if c.drag != nil {
		return // one drag at a time, by construction
	}
	for i := len(c.order) - 1; i >= 0; i-- {
		r := c.regions[c.order[i]]
		if !r.Visible() {
			continue
		}
		h := r.HitTest(px, py, c.transform, c.hitSlop)
		if h == HandleNone {
			continue
		}
		c.selectExclusive(r)
		d := &dragState{
			region:      r,
			handle:      h,
			startBounds: r.Bounds(),
			subtree:     make(map[string]plotcore.Bounds),
			startX:      x,
			startY:      y,
		}
		r.WalkDescendants(func(child Region) {
			d.subtree[child.ID()] = child.Bounds()
		})
		c.drag = d
		return
	}
	c.selectExclusive(nil)
}

func (c *Controller) selectExclusive(r Region) {
	for _, id := range c.order {
		other := c.regions[id]
		other.SetSelected(r != nil && other.ID() == r.ID())
	}
}

// PointerMove feeds a pointer motion. During a drag it restores the
// gesture-start bounds of the dragged region and its whole subtree and
// re-applies the total displacement (avoiding float drift from incremental
// deltas and keeping descendants from compounding earlier frames), clamps
// against the parent with the constraint engine's clamp rule, propagates
// the realized (post-clamp) delta through the subtree, and emits an
// uncommitted Updated notification for the dragged region and every
// descendant that moved this frame. Outside a drag it refreshes hover
// state.
func (c *Controller) PointerMove(px, py float64) {
	if c.drag == nil {
		c.hover(px, py)
		return
	}
	d := c.drag
	x, y := c.transform.ToData(px, py)
	r := d.region

	r.SetBoundsSilent(d.startBounds)
	r.resync()
	d.restoreSubtree()
	r.ApplyDelta(d.handle, x-d.startX, y-d.startY)
	if p := r.Parent(); p != nil {
		r.SetBoundsSilent(clampToParent(r, r.Bounds(), p.Bounds()))
		r.resync()
	}

	// Children shift only when the whole region translated. An edge resize
	// passes a zero delta so descendants are clamped against the new bounds
	// instead of riding along with the moved edge.
	var realized Delta
	if d.handle == HandleMove {
		realized = boundsDelta(d.startBounds, r.Bounds())
	}
	moved := ApplyConstraints(r, realized)

	c.updated.Emit(r.Record())
	for _, m := range moved {
		c.updated.Emit(m.Record())
	}
	c.changed.Emit(struct{}{})
}

func (c *Controller) hover(px, py float64) {
	hit := false
	for i := len(c.order) - 1; i >= 0; i-- {
		r := c.regions[c.order[i]]
		over := false
		if !hit && r.Visible() {
			over = r.HitTest(px, py, c.transform, c.hitSlop) != HandleNone
			hit = hit || over
		}
		r.SetHovered(over)
	}
}

// PointerUp commits the drag gesture: the dragged region's version advances
// exactly once and a Finalized record is emitted; every descendant whose
// bounds differ from its last committed snapshot gets its own version bump
// and Finalized event. Unchanged descendants are never bumped.
func (c *Controller) PointerUp() {
	if c.drag == nil {
		return
	}
	r := c.drag.region
	c.drag = nil

	r.base().bumpVersion()
	c.finalized.Emit(r.base().committed)
	c.committed.Emit(r.ID())

	r.WalkDescendants(func(d Region) {
		n := d.base()
		if d.Bounds().Equal(n.committed.Domain.Bounds()) {
			return
		}
		n.bumpVersion()
		c.finalized.Emit(n.committed)
		c.committed.Emit(d.ID())
	})
	c.changed.Emit(struct{}{})
	plotcore.Logger().Debug("gesture committed", "region", r.ID(), "version", r.Version())
}

// CancelDrag aborts an in-progress drag, restoring the gesture-start bounds
// of the dragged region and every snapshotted descendant. No versions
// advance and nothing is finalized; only uncommitted Updated notifications
// fire.
func (c *Controller) CancelDrag() {
	if c.drag == nil {
		return
	}
	d := c.drag
	c.drag = nil
	r := d.region

	var moved []Region
	r.WalkDescendants(func(child Region) {
		b, ok := d.subtree[child.ID()]
		if ok && !child.Bounds().Equal(b) {
			moved = append(moved, child)
		}
	})
	r.SetBoundsSilent(d.startBounds)
	r.resync()
	d.restoreSubtree()

	c.updated.Emit(r.Record())
	for _, m := range moved {
		c.updated.Emit(m.Record())
	}
	c.changed.Emit(struct{}{})
}

// boundsDelta measures the realized translation between two bounds,
// axis-by-axis. Axes without a comparable finite edge contribute zero.
func boundsDelta(from, to plotcore.Bounds) Delta {
	var d Delta
	switch {
	case finite(from.X1) && finite(to.X1):
		d.DX = to.X1 - from.X1
	case finite(from.X2) && finite(to.X2):
		d.DX = to.X2 - from.X2
	}
	switch {
	case finite(from.Y1) && finite(to.Y1):
		d.DY = to.Y1 - from.Y1
	case finite(from.Y2) && finite(to.Y2):
		d.DY = to.Y2 - from.Y2
	}
	return d
}

func finite(v float64) bool { return !math.IsInf(v, 0) }

// DeleteRegion deletes a region and, recursively, all of its descendants,
// detaching everything from the tree. It reports whether the id existed.
func (c *Controller) DeleteRegion(id string) bool {
	r, ok := c.regions[id]
	if !ok {
		return false
	}
	var doomed []Region
	r.WalkDescendants(func(d Region) { doomed = append(doomed, d) })
	// Children first, then the region itself.
	for i := len(doomed) - 1; i >= 0; i-- {
		c.removeOne(doomed[i])
	}
	c.removeOne(r)
	c.changed.Emit(struct{}{})
	return true
}

func (c *Controller) removeOne(r Region) {
	r.SetParent(nil)
	n := r.base()
	n.children = nil
	n.notify = nil
	delete(c.regions, r.ID())
	for i, id := range c.order {
		if id == r.ID() {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.deleted.Emit(r.ID())
	c.committed.Emit(r.ID())
}

// DeleteSelected deletes every selected region and returns how many root
// deletions happened.
func (c *Controller) DeleteSelected() int {
	var ids []string
	for _, id := range c.order {
		if c.regions[id].Selected() {
			ids = append(ids, id)
		}
	}
	deleted := 0
	for _, id := range ids {
		if c.DeleteRegion(id) {
			deleted++
		}
	}
	return deleted
}

// SetPointerOver tells the controller whether the pointer currently hovers
// its owned surface. Command dispatch is gated on this.
func (c *Controller) SetPointerOver(over bool) { c.pointerOver = over }

// HandleCommand dispatches a keybind-style command. It reports whether the
// command was consumed; a controller whose surface is not hovered consumes
// nothing, so several controllers can share one global key handler.
func (c *Controller) HandleCommand(cmd Command) bool {
	if !c.pointerOver {
		return false
	}
	switch cmd {
	case CommandCancel:
		c.CancelDrag()
		c.Cancel()
	case CommandCreateRange:
		return c.EnterCreate(ModeCreateRange)
	case CommandCreateRect:
		return c.EnterCreate(ModeCreateRect)
	case CommandCreateVLine:
		return c.EnterCreate(ModeCreateVLine)
	case CommandCreateHLine:
		return c.EnterCreate(ModeCreateHLine)
	case CommandDeleteSelected:
		return c.DeleteSelected() > 0
	default:
		return false
	}
	return true
}
