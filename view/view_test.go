package view

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/plotcore"
	"github.com/gogpu/plotcore/store"
)

func storeWith(t *testing.T, xs, ys []float32) *store.PointStore {
	t.Helper()
	s := store.New()
	if err := s.Append(store.Chunk{X: xs, Y: ys}); err != nil {
		t.Fatal(err)
	}
	return s
}

// fakeRegions is a RegionSource test double.
type fakeRegions struct {
	bounds    map[string]plotcore.Bounds
	committed plotcore.Signal[string]
}

func newFakeRegions() *fakeRegions {
	return &fakeRegions{bounds: map[string]plotcore.Bounds{}}
}

func (f *fakeRegions) RegionBounds(id string) (plotcore.Bounds, bool) {
	b, ok := f.bounds[id]
	return b, ok
}

func (f *fakeRegions) OnCommitted(fn func(string)) func() {
	return f.committed.Subscribe(fn)
}

// TestIdempotentRead verifies two reads without an intervening dirty mark
// return the identical cached frame (reference equality).
func TestIdempotentRead(t *testing.T) {
	s := storeWith(t, []float32{1, 2}, []float32{3, 4})
	v := FromStore(s)
	defer v.Destroy()

	first := v.Data()
	second := v.Data()
	if first != second {
		t.Fatal("reads without a dirty mark must return the same cached frame")
	}

	if err := s.Append(store.Chunk{X: []float32{5}, Y: []float32{6}}); err != nil {
		t.Fatal(err)
	}
	third := v.Data()
	if third == first {
		t.Fatal("a store change must produce a fresh frame")
	}
	if third.Len() != 3 {
		t.Errorf("frame length = %d, want 3", third.Len())
	}
}

// TestDirtyCascades verifies marking a view dirty propagates to views
// derived from it, but recomputation waits for the next read.
func TestDirtyCascades(t *testing.T) {
	s := storeWith(t, []float32{1}, []float32{1})
	root := FromStore(s)
	defer root.Destroy()
	child := root.FilterByDomain(plotcore.Domain{})
	defer child.Destroy()

	root.Data()
	child.Data()
	if root.Dirty() || child.Dirty() {
		t.Fatal("both views should be clean after reads")
	}

	recomputes := 0
	child.OnRecomputed(func() { recomputes++ })

	root.MarkDirty()
	if !child.Dirty() {
		t.Fatal("dirty mark must cascade to the derived view")
	}
	if recomputes != 0 {
		t.Fatal("cascade must not eagerly recompute")
	}

	child.Data()
	if recomputes != 1 {
		t.Errorf("recomputes = %d, want 1", recomputes)
	}
}

// TestFilterByDomainExactness verifies the filter returns exactly the
// points satisfying the closed intervals, in order.
func TestFilterByDomainExactness(t *testing.T) {
	xs := []float32{0, 1, 2, 3, 4, 5, 6, 7}
	ys := []float32{0, 10, 20, 30, 40, 50, 60, 70}
	s := storeWith(t, xs, ys)
	v := FromStore(s)
	defer v.Destroy()

	filtered := v.FilterByDomain(plotcore.Domain{X: &[2]float64{2, 5}})
	defer filtered.Destroy()

	got := filtered.Data()
	if diff := cmp.Diff([]float32{2, 3, 4, 5}, got.X); diff != "" {
		t.Errorf("filtered X (-want +got):\n%s", diff)
	}

	// Manual predicate count must match.
	want := 0
	for _, x := range xs {
		if x >= 2 && x <= 5 {
			want++
		}
	}
	if got.Len() != want {
		t.Errorf("count = %d, want %d", got.Len(), want)
	}
}

// TestFilterByROITracksRegion verifies the region bounds are looked up at
// recompute time, not captured at creation.
func TestFilterByROITracksRegion(t *testing.T) {
	s := storeWith(t, []float32{1, 5, 9}, []float32{0, 0, 0})
	regions := newFakeRegions()
	regions.bounds["r1"] = plotcore.NewBounds(0, 2, -1, 1)

	v := FromStore(s)
	defer v.Destroy()
	roi := v.FilterByROI(regions, "r1")
	defer roi.Destroy()

	if got := roi.Data(); got.Len() != 1 || got.X[0] != 1 {
		t.Fatalf("initial filter: got %v", got.X)
	}

	// Move the region and commit: the view refilters against the new bounds.
	regions.bounds["r1"] = plotcore.NewBounds(4, 10, -1, 1)
	regions.committed.Emit("r1")
	if diff := cmp.Diff([]float32{5, 9}, roi.Data().X); diff != "" {
		t.Errorf("after move (-want +got):\n%s", diff)
	}
}

// TestFilterByROIMissingRegionPassthrough verifies the documented
// degradation: a deleted region filter passes all data through, silently.
func TestFilterByROIMissingRegionPassthrough(t *testing.T) {
	s := storeWith(t, []float32{1, 2, 3}, []float32{0, 0, 0})
	regions := newFakeRegions()
	regions.bounds["r1"] = plotcore.NewBounds(0, 1.5, -1, 1)

	v := FromStore(s)
	defer v.Destroy()
	roi := v.FilterByROI(regions, "r1")
	defer roi.Destroy()

	if got := roi.Data(); got.Len() != 1 {
		t.Fatalf("initial filter: got %d points, want 1", got.Len())
	}

	delete(regions.bounds, "r1")
	regions.committed.Emit("r1")
	if got := roi.Data(); got.Len() != 3 {
		t.Errorf("after delete: got %d points, want all 3 (passthrough)", got.Len())
	}
}

// TestCommitOnlyDirtying verifies a region-filtered view ignores committed
// events for other regions.
func TestCommitOnlyDirtying(t *testing.T) {
	s := storeWith(t, []float32{1}, []float32{1})
	regions := newFakeRegions()
	regions.bounds["mine"] = plotcore.NewBounds(0, 2, 0, 2)

	v := FromStore(s)
	defer v.Destroy()
	roi := v.FilterByROI(regions, "mine")
	defer roi.Destroy()
	roi.Data()

	regions.committed.Emit("other")
	if roi.Dirty() {
		t.Error("commit of an unrelated region must not dirty the view")
	}
	regions.committed.Emit("mine")
	if !roi.Dirty() {
		t.Error("commit of the filtered region must dirty the view")
	}
}

// TestDestroyDetaches verifies a destroyed view stops reacting to its
// sources and that Destroy is idempotent.
func TestDestroyDetaches(t *testing.T) {
	s := storeWith(t, []float32{1}, []float32{1})
	regions := newFakeRegions()
	regions.bounds["r1"] = plotcore.NewBounds(0, 2, 0, 2)

	v := FromStore(s)
	roi := v.FilterByROI(regions, "r1")
	roi.Data()

	roi.Destroy()
	roi.Destroy() // double destroy must be harmless

	if err := s.Append(store.Chunk{X: []float32{2}, Y: []float32{2}}); err != nil {
		t.Fatal(err)
	}
	regions.committed.Emit("r1")
	if roi.Dirty() {
		t.Error("destroyed view must not be marked dirty by former sources")
	}
	v.Destroy()
}
