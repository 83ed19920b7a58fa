package windows

import (
	"reflect"
	"testing"
)

func TestCount(t *testing.T) {
	cases := []struct{ n, lookBack, want int }{
		{100, 10, 89},
		{12, 10, 1},
		{11, 10, 0},
		{10, 10, 0},
		{3, 10, 0},
	}
	for _, c := range cases {
		if got := Count(c.n, c.lookBack); got != c.want {
			t.Fatalf("Count(%d,%d) = %d, want %d", c.n, c.lookBack, got, c.want)
		}
	}
	for n := 12; n < 40; n++ {
		if got := len(Slide(n, 10, 1)); got != n-11 {
			t.Fatalf("Slide(%d,10,1) produced %d windows, want %d", n, got, n-11)
		}
	}
}

func TestIndices_Stride(t *testing.T) {
	if got := Indices(3, 10, 1); !reflect.DeepEqual(got, []int{3, 4, 5, 6, 7, 8, 9, 10, 11, 12}) {
		t.Fatalf("step 1: %v", got)
	}
	if got := Indices(5, 10, 3); !reflect.DeepEqual(got, []int{5, 8, 11, 14}) {
		t.Fatalf("step 3: %v", got)
	}
	if got := Indices(0, 4, 4); !reflect.DeepEqual(got, []int{0}) {
		t.Fatalf("step 4: %v", got)
	}
}

func TestIndex_TwoFiles(t *testing.T) {
	ix, err := NewIndex([]int{100, 100}, 10, 1)
	if err != nil {
		t.Fatalf("NewIndex error: %v", err)
	}
	if ix.Len() != 178 {
		t.Fatalf("expected 178 windows, got %d", ix.Len())
	}
	if ix.FileCount(0) != 89 || ix.FileCount(1) != 89 {
		t.Fatalf("unexpected per-file counts: %d %d", ix.FileCount(0), ix.FileCount(1))
	}
	file, start, err := ix.Locate(88)
	if err != nil || file != 0 || start != 88 {
		t.Fatalf("Locate(88) = %d,%d,%v", file, start, err)
	}
	file, start, err = ix.Locate(89)
	if err != nil || file != 1 || start != 0 {
		t.Fatalf("Locate(89) = %d,%d,%v", file, start, err)
	}
	if _, _, err := ix.Locate(178); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestIndex_ShortFileContributesNothing(t *testing.T) {
	ix, err := NewIndex([]int{20, 5, 20}, 10, 2)
	if err != nil {
		t.Fatalf("NewIndex error: %v", err)
	}
	if ix.Len() != 18 {
		t.Fatalf("expected 18 windows, got %d", ix.Len())
	}
	w, err := ix.Window(9)
	if err != nil {
		t.Fatalf("Window error: %v", err)
	}
	if w.File != 2 || w.Start != 0 {
		t.Fatalf("window 9 should be the first of file 2, got %+v", w)
	}
	if ix.Steps() != 5 || len(w.Indices) != 5 {
		t.Fatalf("expected 5 strided steps, got %d/%d", ix.Steps(), len(w.Indices))
	}
}

func TestMaterialize(t *testing.T) {
	rows := make([][]float64, 30)
	for i := range rows {
		rows[i] = []float64{float64(i), float64(-i)}
	}
	for _, step := range []int{1, 2, 3} {
		for _, w := range Slide(len(rows), 10, step) {
			got := w.Materialize(rows)
			k := 0
			for i := w.Start; i < w.Start+10; i += step {
				if got[k][0] != rows[i][0] || got[k][1] != rows[i][1] {
					t.Fatalf("step %d window %d pos %d: got %v want %v", step, w.Start, k, got[k], rows[i])
				}
				k++
			}
			if k != len(got) {
				t.Fatalf("step %d window %d: %d rows, want %d", step, w.Start, len(got), k)
			}
		}
	}
}

func TestNewIndex_InvalidParams(t *testing.T) {
	if _, err := NewIndex([]int{10}, 0, 1); err == nil {
		t.Fatalf("expected error for look_back 0")
	}
	if _, err := NewIndex([]int{10}, 5, 0); err == nil {
		t.Fatalf("expected error for step 0")
	}
}
