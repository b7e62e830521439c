// Package region implements the region-of-interest model for interactive
// plots: range, rectangle, and line regions with parent/child geometric
// constraints, an interaction state machine, and a monotonic-version
// protocol for reconciling local edits with externally pushed updates.
//
// # Regions
//
// The variant set is closed: Range (a 1-D band, unbounded on the orthogonal
// axis), Rect (a 2-D box), and Line (a single position with an orientation
// and display mode). All three satisfy Region through a shared node core,
// and the unexported interface methods keep the set closed so Controller
// dispatch stays exhaustive.
//
// # Versions and commits
//
// Every region carries a monotonic version counter. In-progress drag frames
// mutate bounds without touching the version; the version advances exactly
// once per committed gesture, on pointer-up. External updates are gated on
// the version: an incoming record is applied only if its version exceeds
// the stored one (last-writer-wins by version, not wall clock).
package region

import (
	"time"

	"github.com/gogpu/plotcore"
)

// Kind tags the region variant. Values match the serialized record type.
type Kind string

// Region variants.
const (
	KindRange Kind = "range"
	KindRect  Kind = "rect"
	KindLine  Kind = "line"
)

// Orientation of a Line region.
type Orientation string

// Line orientations.
const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// LineMode selects how much of a line the render layer draws. The label of
// a line renders only in the half-extent modes; plotcore carries the mode
// and label as data and leaves drawing to the render collaborator.
type LineMode string

// Line display modes.
const (
	LineFull       LineMode = "full"
	LineHalfTop    LineMode = "half-top"
	LineHalfBottom LineMode = "half-bottom"
)

// MaxLabelLen is the longest label a Line region carries. Longer labels are
// truncated on write.
const MaxLabelLen = 25

// Handle identifies the part of a region a pointer interaction grabbed.
// Rect handles are named by visual position: with the usual inverted
// vertical pixel axis, larger data-y is visually higher, so the visual top
// edge is the region's maximum-y edge.
type Handle int

// Interaction handles.
const (
	HandleNone Handle = iota
	HandleMove
	HandleLeft
	HandleRight
	HandleTop
	HandleBottom
	HandleTopLeft
	HandleTopRight
	HandleBottomLeft
	HandleBottomRight
)

var handleNames = map[Handle]string{
	HandleNone:        "none",
	HandleMove:        "move",
	HandleLeft:        "left",
	HandleRight:       "right",
	HandleTop:         "top",
	HandleBottom:      "bottom",
	HandleTopLeft:     "top-left",
	HandleTopRight:    "top-right",
	HandleBottomLeft:  "bottom-left",
	HandleBottomRight: "bottom-right",
}

func (h Handle) String() string {
	if s, ok := handleNames[h]; ok {
		return s
	}
	return "invalid"
}

// Delta is a displacement in data units.
type Delta struct {
	DX, DY float64
}

// IsZero reports whether the delta moves nothing.
func (d Delta) IsZero() bool { return d.DX == 0 && d.DY == 0 }

// Transform is the injected coordinate capability mapping between data and
// pixel space. plotcore never computes pixel geometry itself beyond
// comparing against caller-supplied pointer positions; the scale/axis layer
// supplies this.
type Transform interface {
	ToPixel(x, y float64) (px, py float64)
	ToData(px, py float64) (x, y float64)
}

// Record is the serialized form of a region, used for persistence and the
// external multi-writer sync protocol.
type Record struct {
	ID          string          `json:"id"`
	Type        Kind            `json:"type"`
	Version     int64           `json:"version"`
	UpdatedAt   int64           `json:"updatedAt"` // ms epoch
	Domain      plotcore.Domain `json:"domain"`
	Orientation Orientation     `json:"orientation,omitempty"` // line only
	Mode        LineMode        `json:"mode,omitempty"`        // line only
	Position    *float64        `json:"position,omitempty"`    // line only
	Label       string          `json:"label,omitempty"`       // line only
	ParentID    string          `json:"parentId,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

// Region is the capability shared by all region variants. The unexported
// methods close the variant set to this package.
type Region interface {
	ID() string
	Kind() Kind

	// Bounds returns the current normalized bounds. SetBounds normalizes
	// and emits an update notification through the owning controller;
	// SetBoundsSilent does the same mutation without notifying.
	Bounds() plotcore.Bounds
	SetBounds(plotcore.Bounds)
	SetBoundsSilent(plotcore.Bounds)

	// Tree links. A region has at most one parent; parent/child links are
	// back-references within one controller's registry.
	Parent() Region
	Children() []Region
	SetParent(Region)
	WalkDescendants(fn func(Region))

	Version() int64
	UpdatedAt() time.Time

	Movable() bool
	Resizable() bool
	Visible() bool
	SetVisible(bool)
	Selected() bool
	SetSelected(bool)
	Hovered() bool
	SetHovered(bool)
	Metadata() map[string]any

	// HitTest returns the handle under the pointer (pixel coordinates),
	// or HandleNone. slop is the pixel tolerance around edges.
	HitTest(px, py float64, t Transform, slop float64) Handle

	// ApplyDelta moves or resizes via the given handle by (dx, dy) data
	// units, respecting the variant's clamping rules.
	ApplyDelta(h Handle, dx, dy float64)

	// Record serializes the current state.
	Record() Record

	base() *node
	// resync restores variant invariants after an external bounds
	// mutation; a Line recomputes its scalar position here.
	resync()
	// lockedAxes reports axes on which the region mirrors its parent
	// exactly instead of being clamped independently.
	lockedAxes() (x, y bool)
}

// node is the shared core embedded in every variant.
type node struct {
	id        string
	kind      Kind
	bounds    plotcore.Bounds
	version   int64
	updatedAt time.Time

	parent   Region
	children []Region

	movable   bool
	resizable bool
	visible   bool
	selected  bool
	hovered   bool

	meta map[string]any

	// committed is the last committed (versioned) record snapshot; drag
	// frames diverge from it until pointer-up.
	committed Record

	self   Region // concrete variant, for Record dispatch
	now    func() time.Time
	notify func(Region) // update sink, wired by the owning controller
}

func newNode(self Region, id string, kind Kind, b plotcore.Bounds) node {
	return node{
		id:        id,
		kind:      kind,
		bounds:    b.Normalize(),
		updatedAt: time.Now(),
		movable:   true,
		resizable: true,
		visible:   true,
		meta:      map[string]any{},
		self:      self,
		now:       time.Now,
	}
}

func (n *node) ID() string               { return n.id }
func (n *node) Kind() Kind               { return n.kind }
func (n *node) base() *node              { return n }
func (n *node) resync()                  {}
func (n *node) lockedAxes() (bool, bool) { return false, false }

func (n *node) Bounds() plotcore.Bounds { return n.bounds }

func (n *node) SetBounds(b plotcore.Bounds) {
	n.bounds = b.Normalize()
	if n.notify != nil {
		n.notify(n.self)
	}
}

func (n *node) SetBoundsSilent(b plotcore.Bounds) {
	n.bounds = b.Normalize()
}

func (n *node) Parent() Region { return n.parent }

// Children returns the ordered child list. The returned slice is a copy;
// mutate the tree through SetParent.
func (n *node) Children() []Region {
	out := make([]Region, len(n.children))
	copy(out, n.children)
	return out
}

// SetParent moves the region under parent (or detaches it when parent is
// nil), keeping the invariant that parent.Children contains the region iff
// the region's parent is that node.
func (n *node) SetParent(parent Region) {
	if n.parent != nil {
		n.parent.base().removeChild(n.self)
	}
	n.parent = parent
	if parent != nil {
		parent.base().addChild(n.self)
	}
}

func (n *node) addChild(child Region) {
	for _, c := range n.children {
		if c.ID() == child.ID() {
			return
		}
	}
	n.children = append(n.children, child)
}

func (n *node) removeChild(child Region) {
	for i, c := range n.children {
		if c.ID() == child.ID() {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// WalkDescendants visits every descendant depth-first. The visited set
// makes the walk terminate even over a misconfigured cyclic graph.
func (n *node) WalkDescendants(fn func(Region)) {
	visited := map[string]struct{}{n.id: {}}
	n.walk(fn, visited)
}

func (n *node) walk(fn func(Region), visited map[string]struct{}) {
	for _, child := range n.children {
		if _, seen := visited[child.ID()]; seen {
			continue
		}
		visited[child.ID()] = struct{}{}
		fn(child)
		child.base().walk(fn, visited)
	}
}

func (n *node) Version() int64       { return n.version }
func (n *node) UpdatedAt() time.Time { return n.updatedAt }

func (n *node) Movable() bool      { return n.movable }
func (n *node) Resizable() bool    { return n.resizable }
func (n *node) Visible() bool      { return n.visible }
func (n *node) SetVisible(v bool)  { n.visible = v }
func (n *node) Selected() bool     { return n.selected }
func (n *node) SetSelected(s bool) { n.selected = s }
func (n *node) Hovered() bool      { return n.hovered }
func (n *node) SetHovered(h bool)  { n.hovered = h }

func (n *node) Metadata() map[string]any { return n.meta }

// bumpVersion advances the version, stamps the update time, and refreshes
// the committed record snapshot. Called exactly once per committed gesture,
// never per drag frame.
func (n *node) bumpVersion() {
	n.version++
	n.updatedAt = n.now()
	n.committed = n.self.Record()
}

// adoptVersion takes an external record's version and timestamp verbatim
// (no re-bump) and refreshes the committed snapshot.
func (n *node) adoptVersion(version int64, updatedAtMs int64) {
	n.version = version
	n.updatedAt = time.UnixMilli(updatedAtMs)
	n.committed = n.self.Record()
}

// record fills the variant-independent record fields.
func (n *node) record() Record {
	parentID := ""
	if n.parent != nil {
		parentID = n.parent.ID()
	}
	return Record{
		ID:        n.id,
		Type:      n.kind,
		Version:   n.version,
		UpdatedAt: n.updatedAt.UnixMilli(),
		Domain:    n.bounds.Domain(),
		ParentID:  parentID,
		Metadata:  n.meta,
	}
}
