package features

import (
	"errors"
	"fmt"
)

// ErrMissingColumn is returned when a required column is absent from a table.
var ErrMissingColumn = errors.New("missing required column")

// Table is the numeric content of one capture file. Rows keep file order,
// which matters for windowing and event proximity. Labels and Hands hold the
// optional categorical columns (gesture/key label, hand tag) parallel to Rows.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]float64
	Labels  []string
	Hands   []string

	index map[string]int
}

// NewTable creates an empty table with the given column order.
func NewTable(name string, columns []string) *Table {
	t := &Table{Name: name, Columns: append([]string(nil), columns...)}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c] = i
	}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of a column.
func (t *Table) Index(col string) (int, bool) {
	i, ok := t.index[col]
	return i, ok
}

// Require checks that every column is present.
func (t *Table) Require(cols ...string) error {
	for _, c := range cols {
		if _, ok := t.index[c]; !ok {
			return fmt.Errorf("%w: %q in %s", ErrMissingColumn, c, t.Name)
		}
	}
	return nil
}

// Indices resolves column names to positions.
func (t *Table) Indices(cols []string) ([]int, error) {
	out := make([]int, len(cols))
	for i, c := range cols {
		idx, ok := t.index[c]
		if !ok {
			return nil, fmt.Errorf("%w: %q in %s", ErrMissingColumn, c, t.Name)
		}
		out[i] = idx
	}
	return out, nil
}

// Value returns a single cell by column name. The column must exist.
func (t *Table) Value(row int, col string) float64 {
	return t.Rows[row][t.index[col]]
}

// Append adds a row. The label and hand are optional.
func (t *Table) Append(row []float64, label, hand string) {
	t.Rows = append(t.Rows, row)
	t.Labels = append(t.Labels, label)
	t.Hands = append(t.Hands, hand)
}

// AddColumn appends a new column with one value per row.
func (t *Table) AddColumn(name string, values []float64) error {
	if _, ok := t.index[name]; ok {
		return fmt.Errorf("column %q already exists in %s", name, t.Name)
	}
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values, table %s has %d rows", name, len(values), t.Name, len(t.Rows))
	}
	t.Columns = append(t.Columns, name)
	t.index[name] = len(t.Columns) - 1
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], values[i])
	}
	return nil
}

// Project returns a copy holding only the given columns, in that order.
// Labels and hand tags are carried over.
func (t *Table) Project(cols []string) (*Table, error) {
	idx, err := t.Indices(cols)
	if err != nil {
		return nil, err
	}
	out := NewTable(t.Name, cols)
	out.Rows = make([][]float64, len(t.Rows))
	for r, row := range t.Rows {
		vals := make([]float64, len(idx))
		for i, c := range idx {
			vals[i] = row[c]
		}
		out.Rows[r] = vals
	}
	out.Labels = append([]string(nil), t.Labels...)
	out.Hands = append([]string(nil), t.Hands...)
	return out, nil
}
