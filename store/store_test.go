package store

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func chunkOf(xs ...float32) Chunk {
	ys := make([]float32, len(xs))
	for i, x := range xs {
		ys[i] = x * 10
	}
	return Chunk{X: xs, Y: ys}
}

// TestAppendGrowth verifies that after any sequence of appends the store
// returns exactly the concatenation of all appended points in order,
// however many internal grows happened.
func TestAppendGrowth(t *testing.T) {
	s := New(WithInitialCapacity(2))
	var wantX []float32

	batches := [][]float32{
		{1},
		{2, 3, 4},
		{5, 6, 7, 8, 9, 10, 11},
		{12},
	}
	for _, xs := range batches {
		if err := s.Append(chunkOf(xs...)); err != nil {
			t.Fatalf("append %v: %v", xs, err)
		}
		wantX = append(wantX, xs...)

		a := s.Attributes()
		if diff := cmp.Diff(wantX, a.X); diff != "" {
			t.Fatalf("X after appending %v (-want +got):\n%s", xs, diff)
		}
		if a.Len() != len(wantX) || s.Len() != len(wantX) {
			t.Fatalf("count = %d/%d, want %d", a.Len(), s.Len(), len(wantX))
		}
	}
	if s.Cap() < len(wantX) {
		t.Errorf("capacity %d below count %d", s.Cap(), len(wantX))
	}
}

// TestAppendDefaults verifies omitted size and color attributes get their
// documented defaults.
func TestAppendDefaults(t *testing.T) {
	s := New()
	if err := s.Append(chunkOf(1, 2)); err != nil {
		t.Fatal(err)
	}
	a := s.Attributes()
	for i := 0; i < 2; i++ {
		if a.Size[i] != DefaultSize {
			t.Errorf("size[%d] = %v, want %v", i, a.Size[i], DefaultSize)
		}
		for c := 0; c < 4; c++ {
			if a.Color[4*i+c] != 0xff {
				t.Errorf("color[%d][%d] = %d, want 255 (opaque white)", i, c, a.Color[4*i+c])
			}
		}
	}
}

// TestAppendEmptyChunkNoOp verifies an empty chunk neither errors nor
// notifies.
func TestAppendEmptyChunkNoOp(t *testing.T) {
	s := New()
	notified := 0
	s.OnChange(func(int) { notified++ })

	if err := s.Append(Chunk{}); err != nil {
		t.Fatalf("empty chunk: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("count = %d, want 0", s.Len())
	}
	if notified != 0 {
		t.Errorf("change notifications = %d, want 0", notified)
	}
}

// TestAppendShapeErrors verifies mismatched attribute lengths are caller
// errors.
func TestAppendShapeErrors(t *testing.T) {
	cases := []struct {
		name  string
		chunk Chunk
	}{
		{"y short", Chunk{X: []float32{1, 2}, Y: []float32{1}}},
		{"size short", Chunk{X: []float32{1, 2}, Y: []float32{1, 2}, Size: []float32{1}}},
		{"color short", Chunk{X: []float32{1}, Y: []float32{1}, Color: []uint8{1, 2, 3}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := New().Append(c.chunk); !errors.Is(err, ErrChunkShape) {
				t.Errorf("err = %v, want ErrChunkShape", err)
			}
		})
	}
}

// TestClearRetainsCapacity verifies Clear resets the count but keeps the
// allocation.
func TestClearRetainsCapacity(t *testing.T) {
	s := New(WithInitialCapacity(4))
	if err := s.Append(chunkOf(1, 2, 3, 4, 5, 6, 7, 8)); err != nil {
		t.Fatal(err)
	}
	grown := s.Cap()

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("count after clear = %d, want 0", s.Len())
	}
	if s.Cap() != grown {
		t.Errorf("capacity after clear = %d, want %d", s.Cap(), grown)
	}

	// The store is fully usable after a clear.
	if err := s.Append(chunkOf(9)); err != nil {
		t.Fatal(err)
	}
	if got := s.Attributes().X[0]; got != 9 {
		t.Errorf("first point after clear = %v, want 9", got)
	}
}

// TestMetadataByIndex verifies sparse metadata is keyed to the right point.
func TestMetadataByIndex(t *testing.T) {
	s := New()
	err := s.Append(Chunk{
		X:    []float32{1, 2, 3},
		Y:    []float32{1, 2, 3},
		Meta: map[int]map[string]any{1: {"tag": "peak"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	// Second chunk shifts absolute indices.
	err = s.Append(Chunk{
		X:    []float32{4},
		Y:    []float32{4},
		Meta: map[int]map[string]any{0: {"tag": "edge"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if m := s.Meta(1); m == nil || m["tag"] != "peak" {
		t.Errorf("Meta(1) = %v, want tag=peak", m)
	}
	if m := s.Meta(3); m == nil || m["tag"] != "edge" {
		t.Errorf("Meta(3) = %v, want tag=edge", m)
	}
	if m := s.Meta(0); m != nil {
		t.Errorf("Meta(0) = %v, want nil", m)
	}
}

// TestAttributesZeroCopyLinear verifies linear-mode reads alias the backing
// arrays rather than copying.
func TestAttributesZeroCopyLinear(t *testing.T) {
	s := New()
	if err := s.Append(chunkOf(1, 2, 3)); err != nil {
		t.Fatal(err)
	}
	a := s.Attributes()
	s.x[0] = 42 // mutate backing array directly
	if a.X[0] != 42 {
		t.Error("linear Attributes should be a zero-copy view")
	}
}
