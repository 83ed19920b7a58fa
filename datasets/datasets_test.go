package datasets

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/Noofbiz/vrmotion/features"
	"github.com/Noofbiz/vrmotion/scaler"
)

// writeCSV writes a CSV file with the given header and rows to path.
func writeCSV(t *testing.T, path, header string, rows []string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create csv %s: %v", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(header + "\n"); err != nil {
		t.Fatalf("failed to write header: %v", err)
	}
	for _, r := range rows {
		if _, err := f.WriteString(r + "\n"); err != nil {
			t.Fatalf("failed to write row: %v", err)
		}
	}
}

// captureRows builds n rows of the full schema where column c of row r holds
// r*(c+1)+seed, so every column varies and relative positions are non-zero.
// label(r) returns the label cell, or "" for no label column.
func captureRows(n int, seed float64, cols []string, label func(r int) string) []string {
	rows := make([]string, n)
	for r := 0; r < n; r++ {
		cells := []string{fmt.Sprint(1000 + r)}
		for c := range cols {
			cells = append(cells, fmt.Sprint(float64(r*(c+1))+seed))
		}
		if label != nil {
			cells = append(cells, label(r))
		}
		rows[r] = strings.Join(cells, ",")
	}
	return rows
}

func captureHeader(cols []string, extra ...string) string {
	return strings.Join(append(append([]string{TimestampColumn}, cols...), extra...), ",")
}

func writeFullCapture(t *testing.T, dir, name string, n int, seed float64) {
	t.Helper()
	writeCSV(t, filepath.Join(dir, name), captureHeader(features.RawColumns), captureRows(n, seed, features.RawColumns, nil))
}

func regressionOptions(sel Selector) Options {
	return Options{Selector: sel, Range: scaler.Symmetric, LookBack: 10, Step: 1, Seed: 1}
}

func TestSequenceDataset_TwoFiles(t *testing.T) {
	tmp := t.TempDir()
	writeFullCapture(t, tmp, "a.csv", 100, 0)
	writeFullCapture(t, tmp, "b.csv", 100, 5)

	tables, err := ReadDir(tmp, ReadOptions{Drop: []string{TimestampColumn}})
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	ds, err := NewSequenceDataset(tables, regressionOptions(Relative))
	if err != nil {
		t.Fatalf("NewSequenceDataset failed: %v", err)
	}

	if got := ds.Len(); got != 178 {
		t.Fatalf("expected 178 windows, got %d", got)
	}
	if got := ds.InputShape(); len(got) != 2 || got[0] != 10 || got[1] != 19 {
		t.Fatalf("unexpected input shape %v", got)
	}
	if got := ds.LabelShape(); len(got) != 2 || got[0] != 10 || got[1] != 7 {
		t.Fatalf("unexpected label shape %v", got)
	}

	// window 89 is the first window of the second file
	w, err := ds.Window(89)
	if err != nil {
		t.Fatalf("Window(89) error: %v", err)
	}
	if w.File != 1 || w.Start != 0 {
		t.Fatalf("expected file 1 start 0, got %+v", w)
	}

	in, lab, err := ds.Example(0)
	if err != nil {
		t.Fatalf("Example(0) error: %v", err)
	}
	if len(in) != 10*19 || len(lab) != 10*7 {
		t.Fatalf("unexpected example sizes: %d %d", len(in), len(lab))
	}
	for _, v := range in {
		if v < -1-1e-6 || v > 1+1e-6 {
			t.Fatalf("input %v outside the scaled range", v)
		}
	}
}

func TestSequenceDataset_ScalerArtifactOrder(t *testing.T) {
	tmp := t.TempDir()
	writeFullCapture(t, tmp, "a.csv", 30, 0)

	tables, err := ReadDir(tmp, ReadOptions{Drop: []string{TimestampColumn}})
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	ds, err := NewSequenceDataset(tables, regressionOptions(Euler))
	if err != nil {
		t.Fatalf("NewSequenceDataset failed: %v", err)
	}
	a, err := ds.Artifact()
	if err != nil {
		t.Fatalf("Artifact failed: %v", err)
	}
	if len(a.Scalers) != 49 {
		t.Fatalf("expected 49 scaler entries, got %d", len(a.Scalers))
	}
	for i, name := range features.FullColumns {
		if a.Scalers[i].Type != name {
			t.Fatalf("entry %d is %q, want %q", i, a.Scalers[i].Type, name)
		}
	}
	if a.Scalers[0].NSamplesSeen != 30 {
		t.Fatalf("expected 30 samples seen, got %d", a.Scalers[0].NSamplesSeen)
	}
}

func TestSequenceDataset_ShortFileAndStride(t *testing.T) {
	tmp := t.TempDir()
	writeFullCapture(t, tmp, "a.csv", 20, 0)
	writeFullCapture(t, tmp, "b.csv", 5, 0)

	tables, err := ReadDir(tmp, ReadOptions{Drop: []string{TimestampColumn}})
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	opts := regressionOptions(Euler)
	opts.Step = 3
	ds, err := NewSequenceDataset(tables, opts)
	if err != nil {
		t.Fatalf("NewSequenceDataset failed: %v", err)
	}
	if got := ds.Len(); got != 9 {
		t.Fatalf("expected 9 windows, got %d", got)
	}
	w, _ := ds.Window(2)
	want := []int{2, 5, 8, 11}
	if len(w.Indices) != len(want) {
		t.Fatalf("unexpected indices %v", w.Indices)
	}
	for i := range want {
		if w.Indices[i] != want[i] {
			t.Fatalf("unexpected indices %v", w.Indices)
		}
	}
	if got := ds.InputShape(); got[0] != 4 || got[1] != 18 {
		t.Fatalf("unexpected input shape %v", got)
	}
}

func TestPointDataset_UnitRange(t *testing.T) {
	tmp := t.TempDir()
	writeFullCapture(t, tmp, "a.csv", 10, 0)
	writeFullCapture(t, tmp, "b.csv", 10, 100)

	tables, err := ReadDir(tmp, ReadOptions{Drop: []string{TimestampColumn}})
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	opts := regressionOptions(Both)
	opts.Range = scaler.Unit
	ds, err := NewPointDataset(tables, opts)
	if err != nil {
		t.Fatalf("NewPointDataset failed: %v", err)
	}
	if ds.Len() != 20 {
		t.Fatalf("expected 20 examples, got %d", ds.Len())
	}
	in, lab, err := ds.Example(0)
	if err != nil {
		t.Fatalf("Example(0) error: %v", err)
	}
	if len(in) != 30 || len(lab) != 10 {
		t.Fatalf("unexpected sizes %d %d", len(in), len(lab))
	}
	// row 0 of the first file holds the corpus minimum of every raw column
	if in[0] != 0 {
		t.Fatalf("expected headPosx scaled to 0, got %v", in[0])
	}
	last, _, _ := ds.Example(19)
	if math.Abs(float64(last[0])-1) > 1e-6 {
		t.Fatalf("expected headPosx scaled to 1, got %v", last[0])
	}
}

func TestReadDir_Errors(t *testing.T) {
	t.Run("empty directory", func(t *testing.T) {
		_, err := ReadDir(t.TempDir(), ReadOptions{})
		if !errors.Is(err, ErrNoCSV) {
			t.Fatalf("expected ErrNoCSV, got %v", err)
		}
	})

	t.Run("missing column", func(t *testing.T) {
		tmp := t.TempDir()
		cols := features.RawColumns[:39]
		writeCSV(t, filepath.Join(tmp, "a.csv"), captureHeader(cols), captureRows(20, 0, cols, nil))
		tables, err := ReadDir(tmp, ReadOptions{Drop: []string{TimestampColumn}})
		if err != nil {
			t.Fatalf("ReadDir failed: %v", err)
		}
		_, err = NewSequenceDataset(tables, regressionOptions(Quaternion))
		if !errors.Is(err, ErrMissingColumn) {
			t.Fatalf("expected ErrMissingColumn, got %v", err)
		}
	})

	t.Run("missing label column", func(t *testing.T) {
		tmp := t.TempDir()
		writeFullCapture(t, tmp, "a.csv", 5, 0)
		_, err := ReadDir(tmp, ReadOptions{LabelColumn: GestureColumn})
		if !errors.Is(err, ErrMissingColumn) {
			t.Fatalf("expected ErrMissingColumn, got %v", err)
		}
	})

	t.Run("bad number", func(t *testing.T) {
		tmp := t.TempDir()
		writeCSV(t, filepath.Join(tmp, "a.csv"), "headPosx,headPosy", []string{"1,abc"})
		if _, err := ReadDir(tmp, ReadOptions{}); err == nil {
			t.Fatalf("expected parse error, got nil")
		}
	})
}

func TestParseSelector(t *testing.T) {
	cases := map[string]Selector{
		"euler":        Euler,
		"quaternion":   Quaternion,
		"both":         Both,
		"relative":     Relative,
		"relative_svm": Relative,
		"hacklstm":     Relative,
		"gesture":      Gesture,
		"grab":         Grab,
		"end":          TypingEnd,
		"start+end":    TypingStartEnd,
	}
	for in, want := range cases {
		got, err := ParseSelector(in)
		if err != nil || got != want {
			t.Fatalf("ParseSelector(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseSelector("euler_svm"); !errors.Is(err, ErrUnknownSelector) {
		t.Fatalf("expected ErrUnknownSelector, got %v", err)
	}
}

func TestLayouts(t *testing.T) {
	sizes := map[Selector][2]int{
		Euler:      {18, 6},
		Quaternion: {21, 7},
		Both:       {30, 10},
		Relative:   {19, 7},
		Grab:       {28, 0},
		TypingEnd:  {15, 0},
	}
	for sel, want := range sizes {
		l, err := LayoutFor(sel, LayoutOptions{})
		if err != nil {
			t.Fatalf("LayoutFor(%v): %v", sel, err)
		}
		if len(l.Inputs) != want[0] || len(l.Targets) != want[1] {
			t.Fatalf("%v: got %d/%d fields, want %d/%d", sel, len(l.Inputs), len(l.Targets), want[0], want[1])
		}
	}

	rel, _ := LayoutFor(Relative, LayoutOptions{})
	if rel.Inputs[0] != "headPosy" || rel.Inputs[5] != "relativeHandRPosx" || rel.Targets[0] != "relativeTracker1Posx" {
		t.Fatalf("unexpected relative layout %v -> %v", rel.Inputs, rel.Targets)
	}

	g, _ := LayoutFor(Gesture, LayoutOptions{GestureSteps: 10})
	if len(g.Inputs) != 150 {
		t.Fatalf("expected 150 gesture fields, got %d", len(g.Inputs))
	}
	if g.Inputs[0] != "relativeHandRPosx0" || g.Inputs[3] != "relativeHandRPosx1" || g.Inputs[30] != "relativeHandLPosx0" {
		t.Fatalf("unexpected gesture order %v", g.Inputs[:31])
	}

	se, _ := LayoutFor(TypingStartEnd, LayoutOptions{})
	if len(se.Inputs) != 30 || se.Inputs[0] != "relativeHandRPosx_start" || se.Inputs[15] != "relativeHandRPosx_end" {
		t.Fatalf("unexpected start+end layout %v", se.Inputs)
	}

	left, _ := LayoutFor(TypingEnd, LayoutOptions{Hand: "left"})
	if len(left.Inputs) != 9 || left.Inputs[0] != "relativeHandLPosx" || left.Inputs[8] != "handLRotz" {
		t.Fatalf("unexpected left hand layout %v", left.Inputs)
	}
}

func TestYieldAndSplit(t *testing.T) {
	tmp := t.TempDir()
	writeFullCapture(t, tmp, "a.csv", 30, 0)

	tables, err := ReadDir(tmp, ReadOptions{Drop: []string{TimestampColumn}})
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	ds, err := NewSequenceDataset(tables, regressionOptions(Relative))
	if err != nil {
		t.Fatalf("NewSequenceDataset failed: %v", err)
	}
	if ds.Len() != 19 {
		t.Fatalf("expected 19 windows, got %d", ds.Len())
	}

	ds.SetBatchSize(8)
	ds.Shuffle(7)
	batches := 0
	for {
		_, in, lab, err := ds.Yield()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Yield error: %v", err)
		}
		if len(in) != 1 || len(lab) != 1 || in[0] == nil || lab[0] == nil {
			t.Fatalf("unexpected yield output")
		}
		batches++
	}
	if batches != 3 {
		t.Fatalf("expected 3 batches, got %d", batches)
	}
	if _, _, _, err := ds.Yield(); err != io.EOF {
		t.Fatalf("expected io.EOF before Reset, got %v", err)
	}
	ds.Reset()
	if _, _, _, err := ds.Yield(); err != nil {
		t.Fatalf("expected a batch after Reset, got %v", err)
	}

	train, valid, err := RandomSplit(ds, 0.9, 3)
	if err != nil {
		t.Fatalf("RandomSplit failed: %v", err)
	}
	if train.Len() != 17 || valid.Len() != 2 {
		t.Fatalf("unexpected split %d/%d", train.Len(), valid.Len())
	}
	seen := map[int]bool{}
	for _, i := range append(train.Indices(), valid.Indices()...) {
		if seen[i] {
			t.Fatalf("index %d appears twice", i)
		}
		seen[i] = true
	}
	want, _, _ := ds.Example(valid.Indices()[0])
	got, _, _ := valid.Example(0)
	if want[0] != got[0] {
		t.Fatalf("subset example differs from parent")
	}
}

func TestBatchFlat(t *testing.T) {
	inputs := [][]float32{{1, 2, 3, 4}, {5, 6, 7, 8}}
	labels := [][]float32{{2}, {0}}

	b, err := MakeBatchFlat(inputs, labels, []int{2, 2}, nil)
	if err != nil {
		t.Fatalf("MakeBatchFlat error: %v", err)
	}
	if b.BatchSize != 2 || len(b.Inputs) != 8 || len(b.Labels) != 2 {
		t.Fatalf("unexpected flat batch %+v", b)
	}
	inT, labT, err := b.ToGomlxTensors()
	if err != nil {
		t.Fatalf("ToGomlxTensors error: %v", err)
	}
	if inT == nil || labT == nil {
		t.Fatalf("ToGomlxTensors returned nil tensor(s)")
	}

	if _, err := MakeBatchFlat(inputs, labels, []int{3}, nil); err == nil {
		t.Fatalf("expected dimension error")
	}
	if _, err := MakeBatchFlat(inputs, labels[:1], []int{4}, nil); err == nil {
		t.Fatalf("expected batch size error")
	}
}

func TestDecodeTargets_RawUnits(t *testing.T) {
	ds, err := NewSequenceDataset([]*features.Table{captureTable("a.csv", features.RawColumns, 40, 0, nil)}, regressionOptions(Euler))
	if err != nil {
		t.Fatalf("NewSequenceDataset failed: %v", err)
	}
	_, targets, err := ds.Example(3)
	if err != nil {
		t.Fatalf("Example failed: %v", err)
	}
	raw, err := ds.DecodeTargets(targets)
	if err != nil {
		t.Fatalf("DecodeTargets failed: %v", err)
	}
	w, _ := ds.Window(3)
	fields := ds.Layout().Targets
	if len(raw) != len(w.Indices)*len(fields) {
		t.Fatalf("expected %d decoded values, got %d", len(w.Indices)*len(fields), len(raw))
	}
	for k, r := range w.Indices {
		for j, name := range fields {
			c := slices.Index(features.RawColumns, name)
			want := float64(r * (c + 1))
			if got := raw[k*len(fields)+j]; math.Abs(got-want) > 1e-2 {
				t.Fatalf("step %d field %s: decoded %v, want %v", k, name, got, want)
			}
		}
	}

	if _, err := ds.DecodeTargets(targets[:5]); !errors.Is(err, scaler.ErrDimension) {
		t.Fatalf("expected ErrDimension for a partial target, got %v", err)
	}
}

// TestFitCorpus_KeepsDerivedIdentities scales a derived capture and checks
// that the relative columns still decode to head minus sensor, and that the
// scaled table cannot be derived again.
func TestFitCorpus_KeepsDerivedIdentities(t *testing.T) {
	tbl := features.NewTable("a.csv", features.RawColumns)
	for r := 0; r < 25; r++ {
		row := make([]float64, len(features.RawColumns))
		for c := range row {
			row[c] = 10 * math.Sin(float64(r)/3+float64(c))
		}
		tbl.Append(row, "", "")
	}
	if err := features.DeriveRelative(tbl); err != nil {
		t.Fatalf("DeriveRelative failed: %v", err)
	}
	s, err := fitCorpus([]*features.Table{tbl}, scaler.Symmetric)
	if err != nil {
		t.Fatalf("fitCorpus failed: %v", err)
	}
	if err := features.DeriveRelative(tbl); err == nil {
		t.Fatalf("expected the scaled table to refuse a second derive")
	}

	head := features.Pos(features.Head)
	for r, row := range tbl.Rows {
		for _, v := range row {
			if v < -1-1e-9 || v > 1+1e-9 {
				t.Fatalf("row %d not scaled into [-1, 1]: %v", r, row)
			}
		}
		raw, err := s.InverseTransform(row)
		if err != nil {
			t.Fatalf("InverseTransform failed: %v", err)
		}
		at := func(col string) float64 {
			i, _ := tbl.Index(col)
			return raw[i]
		}
		for _, sensor := range []string{features.HandR, features.HandL, features.Tracker1} {
			rel := features.Relative(sensor)
			pos := features.Pos(sensor)
			for axis := 0; axis < 3; axis++ {
				want := at(head[axis]) - at(pos[axis])
				if got := at(rel[axis]); math.Abs(got-want) > 1e-9 {
					t.Fatalf("row %d %s: got %v want %v", r, rel[axis], got, want)
				}
			}
		}
	}
}
