package region

import (
	"math"

	"github.com/gogpu/plotcore"
)

// ApplyConstraints propagates a change of parent's bounds to all of its
// descendants and returns the regions whose bounds actually changed, in
// visit order. It is pure apart from the bounds writes: it emits no
// notifications; the caller decides how to announce the returned set.
//
// The algorithm is depth-first. Each direct child is shifted by delta
// (per-axis, only on axes where the parent is finite — a Range parent has
// infinite Y, so only X shifts), then clamped into the parent: a locked
// axis is forced to mirror the parent exactly, an unlocked axis is clamped
// edge-by-edge with the opposite edge sliding inward to preserve width
// (shrink-to-fit, never translating past the opposite constraint). Line
// regions resync their scalar position afterwards. Recursion into
// grandchildren always uses a zero delta: a clamped child may sit where no
// pure shift would have put it, so its own children must be constrained
// against the clamped result, not the naive shift.
//
// A visited-id set scoped to this call guarantees termination, even over a
// misconfigured cyclic parent/child graph.
func ApplyConstraints(parent Region, delta Delta) []Region {
	visited := map[string]struct{}{parent.ID(): {}}
	var changed []Region
	constrainChildren(parent, delta, visited, &changed)
	return changed
}

func constrainChildren(parent Region, delta Delta, visited map[string]struct{}, changed *[]Region) {
	pb := parent.Bounds()
	for _, child := range parent.Children() {
		if _, seen := visited[child.ID()]; seen {
			continue
		}
		visited[child.ID()] = struct{}{}

		before := child.Bounds()
		nb := before
		if !delta.IsZero() {
			dx, dy := delta.DX, delta.DY
			if !pb.FiniteX() {
				dx = 0
			}
			if !pb.FiniteY() {
				dy = 0
			}
			nb = nb.Translate(dx, dy)
		}
		nb = clampToParent(child, nb, pb)
		child.SetBoundsSilent(nb)
		child.resync()

		if after := child.Bounds(); !after.Equal(before) {
			*changed = append(*changed, child)
		}
		constrainChildren(child, Delta{}, visited, changed)
	}
}

// clampToParent fits bounds b into parent bounds pb under the child's
// locking rules. It is the single clamp rule shared by constraint
// propagation and the controller's drag flow.
func clampToParent(child Region, b, pb plotcore.Bounds) plotcore.Bounds {
	lockX, lockY := child.lockedAxes()
	if lockX {
		b.X1, b.X2 = pb.X1, pb.X2
	} else {
		b.X1, b.X2 = clampInterval(b.X1, b.X2, pb.X1, pb.X2)
	}
	if lockY {
		b.Y1, b.Y2 = pb.Y1, pb.Y2
	} else {
		b.Y1, b.Y2 = clampInterval(b.Y1, b.Y2, pb.Y1, pb.Y2)
	}
	return b
}

// clampInterval fits [lo, hi] into [plo, phi]. An edge pushed past a parent
// boundary is moved onto it, and the opposite edge slides inward to keep
// the width when there is room — but never past the opposite constraint,
// so an oversized child collapses onto the parent interval. Infinite parent
// edges constrain nothing.
func clampInterval(lo, hi, plo, phi float64) (float64, float64) {
	width := hi - lo
	if lo < plo {
		lo = plo
		hi = math.Min(lo+width, phi)
	}
	if hi > phi {
		hi = phi
		lo = math.Max(hi-width, plo)
	}
	return lo, hi
}
