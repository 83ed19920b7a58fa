// Package windows slides fixed-length, strided windows over time-ordered
// rows. Windows never span two files; they are described by (file, start)
// and materialized only when an example is fetched.
package windows

import (
	"fmt"
	"sort"
)

// Window identifies one window: rows Indices of file File.
type Window struct {
	File    int
	Start   int
	Indices []int
}

// Count returns how many windows a file of n rows yields. The last possible
// window is not produced: a file of n rows gives n-lookBack-1 windows.
func Count(n, lookBack int) int {
	c := n - lookBack - 1
	if c < 0 {
		return 0
	}
	return c
}

// Indices returns the row indices of the window starting at start:
// start, start+step, ... while < start+lookBack.
func Indices(start, lookBack, step int) []int {
	out := make([]int, 0, (lookBack+step-1)/step)
	for i := start; i < start+lookBack; i += step {
		out = append(out, i)
	}
	return out
}

// Index maps global window numbers onto per-file windows.
type Index struct {
	LookBack int
	Step     int

	counts    []int
	cumCounts []int
}

// NewIndex builds the window index for files with the given row counts.
func NewIndex(lengths []int, lookBack, step int) (*Index, error) {
	if lookBack < 1 {
		return nil, fmt.Errorf("look_back must be >= 1, got %d", lookBack)
	}
	if step < 1 {
		return nil, fmt.Errorf("step_value must be >= 1, got %d", step)
	}
	ix := &Index{
		LookBack:  lookBack,
		Step:      step,
		counts:    make([]int, len(lengths)),
		cumCounts: make([]int, len(lengths)+1),
	}
	for i, n := range lengths {
		ix.counts[i] = Count(n, lookBack)
		ix.cumCounts[i+1] = ix.cumCounts[i] + ix.counts[i]
	}
	return ix, nil
}

// Len returns the total number of windows across files.
func (ix *Index) Len() int { return ix.cumCounts[len(ix.cumCounts)-1] }

// FileCount returns the number of windows of one file.
func (ix *Index) FileCount(file int) int { return ix.counts[file] }

// Steps is the number of rows a window yields after striding.
func (ix *Index) Steps() int { return (ix.LookBack + ix.Step - 1) / ix.Step }

// Locate maps a global window number to (file, start row).
func (ix *Index) Locate(i int) (file, start int, err error) {
	if i < 0 || i >= ix.Len() {
		return 0, 0, fmt.Errorf("window %d out of range [0, %d)", i, ix.Len())
	}
	file = sort.SearchInts(ix.cumCounts[1:], i+1)
	return file, i - ix.cumCounts[file], nil
}

// Window returns the window for a global number.
func (ix *Index) Window(i int) (Window, error) {
	file, start, err := ix.Locate(i)
	if err != nil {
		return Window{}, err
	}
	return Window{File: file, Start: start, Indices: Indices(start, ix.LookBack, ix.Step)}, nil
}

// Materialize copies the window's rows out of a file's rows.
func (w Window) Materialize(rows [][]float64) [][]float64 {
	out := make([][]float64, len(w.Indices))
	for k, r := range w.Indices {
		out[k] = rows[r]
	}
	return out
}

// Slide returns every window of a single file in order.
func Slide(n, lookBack, step int) []Window {
	c := Count(n, lookBack)
	out := make([]Window, c)
	for i := 0; i < c; i++ {
		out[i] = Window{Start: i, Indices: Indices(i, lookBack, step)}
	}
	return out
}
