package datasets

import (
	"fmt"

	"github.com/Noofbiz/vrmotion/features"
	"github.com/Noofbiz/vrmotion/scaler"
)

// projectAll restricts every table to cols, in that order. A missing column
// in any file is fatal.
func projectAll(tables []*features.Table, cols []string) ([]*features.Table, error) {
	out := make([]*features.Table, len(tables))
	for i, t := range tables {
		p, err := t.Project(cols)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// fitCorpus fits one scaler over the rows of every table and replaces the
// rows with their scaled values. The tables must share their column order.
func fitCorpus(tables []*features.Table, r scaler.Range) (*scaler.MinMax, error) {
	if len(tables) == 0 {
		return nil, ErrEmpty
	}
	var rows [][]float64
	for _, t := range tables {
		rows = append(rows, t.Rows...)
	}
	s := scaler.New(r, tables[0].Columns)
	if err := s.Fit(rows); err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	for _, t := range tables {
		scaled, err := s.TransformAll(t.Rows)
		if err != nil {
			return nil, fmt.Errorf("scale %s: %w", t.Name, err)
		}
		t.Rows = scaled
	}
	return s, nil
}

// fitEach fits and applies one scaler per table. Empty tables get an
// unfitted scaler and are left untouched.
func fitEach(tables []*features.Table, r scaler.Range) ([]*scaler.MinMax, error) {
	out := make([]*scaler.MinMax, len(tables))
	for i, t := range tables {
		s := scaler.New(r, t.Columns)
		out[i] = s
		if t.Len() == 0 {
			continue
		}
		if err := s.Fit(t.Rows); err != nil {
			return nil, fmt.Errorf("fit scaler for %s: %w", t.Name, err)
		}
		scaled, err := s.TransformAll(t.Rows)
		if err != nil {
			return nil, fmt.Errorf("scale %s: %w", t.Name, err)
		}
		t.Rows = scaled
	}
	return out, nil
}

func lengths(tables []*features.Table) []int {
	out := make([]int, len(tables))
	for i, t := range tables {
		out[i] = t.Len()
	}
	return out
}

// labelCounts tallies labels by name.
func labelCounts(names []string) map[string]int {
	out := make(map[string]int)
	for _, n := range names {
		out[n]++
	}
	return out
}
