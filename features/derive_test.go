package features

import (
	"errors"
	"testing"
)

func fullTable(t *testing.T, rows [][]float64) *Table {
	t.Helper()
	tbl := NewTable("capture.csv", RawColumns)
	for _, r := range rows {
		if len(r) != len(RawColumns) {
			t.Fatalf("row has %d values, want %d", len(r), len(RawColumns))
		}
		tbl.Append(r, "", "")
	}
	return tbl
}

func rampRow(base float64) []float64 {
	row := make([]float64, len(RawColumns))
	for i := range row {
		row[i] = base + float64(i)*0.37
	}
	return row
}

func TestSchemaOrder(t *testing.T) {
	if len(RawColumns) != 40 {
		t.Fatalf("expected 40 raw columns, got %d", len(RawColumns))
	}
	if len(FullColumns) != 49 {
		t.Fatalf("expected 49 full columns, got %d", len(FullColumns))
	}
	if RawColumns[0] != "headPosx" || RawColumns[9] != "headRotQw" || RawColumns[30] != "tracker1Posx" {
		t.Fatalf("unexpected raw order: %v", RawColumns)
	}
	if FullColumns[40] != "relativeHandRPosx" || FullColumns[48] != "relativeTracker1Posz" {
		t.Fatalf("unexpected relative order: %v", FullColumns[40:])
	}
	if got := Step("handLRotz", 9); got != "handLRotz9" {
		t.Fatalf("Step: got %q", got)
	}
}

// TestDeriveRelative_Identities checks headPos - sensorPos holds exactly for
// all nine derived fields.
func TestDeriveRelative_Identities(t *testing.T) {
	tbl := fullTable(t, [][]float64{rampRow(0.5), rampRow(-3.25), rampRow(17.125)})
	if err := DeriveRelative(tbl); err != nil {
		t.Fatalf("DeriveRelative error: %v", err)
	}
	if len(tbl.Columns) != len(FullColumns) {
		t.Fatalf("expected %d columns after derive, got %d", len(FullColumns), len(tbl.Columns))
	}
	for i, c := range FullColumns {
		if tbl.Columns[i] != c {
			t.Fatalf("column %d: got %q want %q", i, tbl.Columns[i], c)
		}
	}
	for r := 0; r < tbl.Len(); r++ {
		for _, sensor := range []string{HandR, HandL, Tracker1} {
			rel := Relative(sensor)
			pos := Pos(sensor)
			head := Pos(Head)
			for axis := 0; axis < 3; axis++ {
				want := tbl.Value(r, head[axis]) - tbl.Value(r, pos[axis])
				if got := tbl.Value(r, rel[axis]); got != want {
					t.Fatalf("row %d %s: got %v want %v", r, rel[axis], got, want)
				}
			}
		}
	}
}

func TestDeriveRelative_Once(t *testing.T) {
	tbl := fullTable(t, [][]float64{rampRow(0.5), rampRow(-3.25)})
	if err := DeriveRelative(tbl); err != nil {
		t.Fatalf("DeriveRelative error: %v", err)
	}
	before := make([][]float64, tbl.Len())
	for r, row := range tbl.Rows {
		before[r] = append([]float64(nil), row...)
	}
	if err := DeriveRelative(tbl); err == nil {
		t.Fatalf("expected an error deriving an already derived table")
	}
	if err := DeriveHandRelative(tbl); err == nil {
		t.Fatalf("expected an error deriving hand columns twice")
	}
	if len(tbl.Columns) != len(FullColumns) {
		t.Fatalf("failed derive changed the schema: %d columns", len(tbl.Columns))
	}
	for r, row := range tbl.Rows {
		for c, v := range row {
			if v != before[r][c] {
				t.Fatalf("failed derive changed row %d column %s", r, tbl.Columns[c])
			}
		}
	}
}

func TestDeriveRelative_MissingColumn(t *testing.T) {
	cols := append([]string(nil), RawColumns...)
	cols = cols[:len(cols)-10] // drop tracker1
	tbl := NewTable("short.csv", cols)
	tbl.Append(make([]float64, len(cols)), "", "")
	err := DeriveRelative(tbl)
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestDeriveHandRelative_TypingSchema(t *testing.T) {
	tbl := NewTable("typing.csv", TypingRawColumns)
	row := make([]float64, len(TypingRawColumns))
	for i := range row {
		row[i] = float64(i)
	}
	tbl.Append(row, "a", "right")
	if err := DeriveHandRelative(tbl); err != nil {
		t.Fatalf("DeriveHandRelative error: %v", err)
	}
	for i, c := range TypingColumns {
		if tbl.Columns[i] != c {
			t.Fatalf("column %d: got %q want %q", i, tbl.Columns[i], c)
		}
	}
	// headPosx=0, handRPosx=10
	if got := tbl.Value(0, "relativeHandRPosx"); got != -10 {
		t.Fatalf("relativeHandRPosx: got %v want -10", got)
	}
	if got := tbl.Value(0, "relativeHandLPosz"); got != 2-22 {
		t.Fatalf("relativeHandLPosz: got %v want -20", got)
	}
}

func TestDeriveSteps(t *testing.T) {
	var cols []string
	for s := 0; s < 2; s++ {
		cols = append(cols, Steps(Pos(Head), s)...)
		cols = append(cols, Steps(Pos(HandR), s)...)
		cols = append(cols, Steps(Pos(HandL), s)...)
	}
	tbl := NewTable("gesture.csv", cols)
	row := make([]float64, len(cols))
	for i := range row {
		row[i] = float64(i * i)
	}
	tbl.Append(row, "Swipe", "")
	if err := DeriveSteps(tbl, 2); err != nil {
		t.Fatalf("DeriveSteps error: %v", err)
	}
	for s := 0; s < 2; s++ {
		for axis := 0; axis < 3; axis++ {
			head := tbl.Value(0, Steps(Pos(Head), s)[axis])
			want := head - tbl.Value(0, Steps(Pos(HandL), s)[axis])
			if got := tbl.Value(0, Steps(Relative(HandL), s)[axis]); got != want {
				t.Fatalf("step %d axis %d: got %v want %v", s, axis, got, want)
			}
		}
	}
	fresh := NewTable("gesture.csv", cols)
	fresh.Append(row, "Swipe", "")
	if err := DeriveSteps(fresh, 3); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn for step 2, got %v", err)
	}
}

func TestProjectKeepsLabels(t *testing.T) {
	tbl := NewTable("p.csv", []string{"timestamp", "headPosx", "headPosy"})
	tbl.Append([]float64{1, 2, 3}, "Up", "left")
	p, err := tbl.Project([]string{"headPosy", "headPosx"})
	if err != nil {
		t.Fatalf("Project error: %v", err)
	}
	if p.Rows[0][0] != 3 || p.Rows[0][1] != 2 || p.Labels[0] != "Up" || p.Hands[0] != "left" {
		t.Fatalf("unexpected projection: %+v", p)
	}
	if _, err := tbl.Project([]string{"nope"}); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}
