package labels

// Span is a run of rows [Start, End] (inclusive) labeled with the label of
// its end row.
type Span struct {
	Start int
	End   int
	Label string
}

// Len returns the number of rows of the span.
func (s Span) Len() int { return s.End - s.Start + 1 }

// Spans finds every row whose label differs from none and returns the span
// of the rowsPerGrab rows preceding it plus the row itself. Spans are
// clipped at the start of the file and may overlap.
func Spans(rowLabels []string, none string, rowsPerGrab int) []Span {
	if rowsPerGrab < 0 {
		rowsPerGrab = 0
	}
	var out []Span
	for i, l := range rowLabels {
		if l == none {
			continue
		}
		start := i - rowsPerGrab
		if start < 0 {
			start = 0
		}
		out = append(out, Span{Start: start, End: i, Label: l})
	}
	return out
}

// EndRows returns the rows whose label is not the sentinel and whose next row
// is the sentinel: the last sample before a key release.
func EndRows(rowLabels []string, sentinel string) []int {
	var out []int
	for i := 0; i+1 < len(rowLabels); i++ {
		if rowLabels[i] != sentinel && rowLabels[i+1] == sentinel {
			out = append(out, i)
		}
	}
	return out
}

// StartRows returns the rows whose label is not the sentinel and whose
// previous row is the sentinel: the first sample of a key press.
func StartRows(rowLabels []string, sentinel string) []int {
	var out []int
	for i := 1; i < len(rowLabels); i++ {
		if rowLabels[i] != sentinel && rowLabels[i-1] == sentinel {
			out = append(out, i)
		}
	}
	return out
}

// Press pairs the start and end rows of one key press.
type Press struct {
	Start int
	End   int
}

// Pairs joins every start row with the first end row at or after it that
// comes before the next start row. Starts without such an end (a press cut
// off by the end of the file) and ends without a start (a file that begins
// mid-press) are dropped. Both inputs must be ascending.
func Pairs(starts, ends []int) []Press {
	var out []Press
	e := 0
	for k, start := range starts {
		for e < len(ends) && ends[e] < start {
			e++
		}
		if e == len(ends) {
			break
		}
		if k+1 < len(starts) && ends[e] >= starts[k+1] {
			continue
		}
		out = append(out, Press{Start: start, End: ends[e]})
		e++
	}
	return out
}
