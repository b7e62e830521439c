package region

import (
	"github.com/gogpu/plotcore"
)

// ApplyExternalUpdate feeds a record pushed by an external writer through
// the version gate. If a region with the record's id exists and the
// incoming version is not strictly newer, the record is rejected silently:
// no mutation, no notification, false returned. A stale record is not an
// error — the writer simply lost the race and re-sends with a fresher
// version.
//
// An accepted record is applied verbatim: bounds and variant fields are
// overwritten and the incoming version and timestamp are adopted without a
// re-bump (last-writer-wins by version number, not wall clock). A record
// with an unknown id constructs a new region.
func (c *Controller) ApplyExternalUpdate(rec Record) bool {
	if existing, ok := c.regions[rec.ID]; ok {
		if rec.Version <= existing.Version() {
			plotcore.Logger().Debug("stale external update rejected",
				"region", rec.ID, "incoming", rec.Version, "current", existing.Version())
			return false
		}
		c.overwrite(existing, rec)
		c.external.Emit(existing.base().committed)
	} else {
		r := c.regionFromRecord(rec)
		c.register(r, c.lookup(rec.ParentID), false)
		r.base().adoptVersion(rec.Version, rec.UpdatedAt)
		c.external.Emit(r.base().committed)
	}
	c.committed.Emit(rec.ID)
	c.changed.Emit(struct{}{})
	return true
}

func (c *Controller) lookup(id string) Region {
	if id == "" {
		return nil
	}
	return c.regions[id] // nil when unresolvable
}

// overwrite applies an accepted external record onto a live region.
func (c *Controller) overwrite(r Region, rec Record) {
	n := r.base()
	r.SetBoundsSilent(rec.Domain.Bounds())
	switch v := r.(type) {
	case *Line:
		if rec.Orientation != "" {
			v.orientation = rec.Orientation
		}
		if rec.Mode != "" {
			v.mode = rec.Mode
		}
		v.SetLabel(rec.Label)
		if rec.Position != nil {
			v.setPosition(*rec.Position)
		} else {
			v.resync()
		}
	case *Rect:
		if rec.Metadata != nil {
			v.xLocked = metaBool(rec.Metadata, metaXLock)
		}
		v.resync()
	default:
		r.resync()
	}
	if rec.Metadata != nil {
		n.meta = cloneMeta(rec.Metadata)
	}
	if parent := c.lookup(rec.ParentID); parent != nil || rec.ParentID == "" {
		currentID := ""
		if n.parent != nil {
			currentID = n.parent.ID()
		}
		if currentID != rec.ParentID {
			r.SetParent(parent)
		}
	}
	n.adoptVersion(rec.Version, rec.UpdatedAt)
}

// regionFromRecord reconstructs a region variant from its serialized form.
// The version and timestamp are adopted by the caller.
func (c *Controller) regionFromRecord(rec Record) Region {
	b := rec.Domain.Bounds()
	var r Region
	switch rec.Type {
	case KindRect:
		rect := newRect(rec.ID, b)
		rect.xLocked = metaBool(rec.Metadata, metaXLock)
		r = rect
	case KindLine:
		o := rec.Orientation
		if o == "" {
			o = Vertical
		}
		mode := rec.Mode
		if mode == "" {
			mode = LineFull
		}
		pos := 0.0
		switch {
		case rec.Position != nil:
			pos = *rec.Position
		case o == Vertical:
			pos = b.X1
		default:
			pos = b.Y1
		}
		r = newLine(rec.ID, o, pos, mode, rec.Label)
	default:
		r = newRange(rec.ID, b.X1, b.X2)
	}
	if rec.Metadata != nil {
		r.base().meta = cloneMeta(rec.Metadata)
	}
	return r
}

// SerializeAll exports every region in paint order. The records feed
// persistence and the external sync protocol.
func (c *Controller) SerializeAll() []Record {
	out := make([]Record, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.regions[id].Record())
	}
	return out
}

// DeserializeAll clears the registry and rebuilds it from records, then
// re-links parent/child references by parentId (hierarchy-preserving
// reload). Records whose parentId no longer resolves load as roots. Any
// in-progress interaction is discarded.
func (c *Controller) DeserializeAll(recs []Record) {
	c.regions = make(map[string]Region, len(recs))
	c.order = c.order[:0]
	c.drag = nil
	c.mode = ModeIdle
	c.pending = nil

	for _, rec := range recs {
		r := c.regionFromRecord(rec)
		c.register(r, nil, false)
		r.base().adoptVersion(rec.Version, rec.UpdatedAt)
	}
	for _, rec := range recs {
		if rec.ParentID == "" {
			continue
		}
		parent := c.lookup(rec.ParentID)
		if parent == nil {
			plotcore.Logger().Warn("reload: parent missing, loading as root",
				"region", rec.ID, "parent", rec.ParentID)
			continue
		}
		child := c.regions[rec.ID]
		child.SetParent(parent)
		child.base().committed = child.Record()
	}
	c.changed.Emit(struct{}{})
	plotcore.Logger().Info("registry reloaded", "regions", len(recs))
}

func cloneMeta(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func metaBool(m map[string]any, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
