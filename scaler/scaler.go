// Package scaler implements the per-feature affine min-max normalization
// fitted once over a corpus and reused, through its persisted artifact, at
// inference time.
package scaler

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrNotFitted is returned by Transform before Fit.
	ErrNotFitted = errors.New("scaler is not fitted")
	// ErrDimension is returned when a row does not match the fitted width.
	ErrDimension = errors.New("feature dimension mismatch")
	// ErrEmpty is returned when fitting an empty corpus.
	ErrEmpty = errors.New("cannot fit scaler on empty corpus")
)

// Range is the target interval of the scaled features.
type Range struct {
	Min float64
	Max float64
}

// Symmetric is the target range used by the sequence and classification
// datasets; Unit is the legacy pointwise range.
var (
	Symmetric = Range{Min: -1, Max: 1}
	Unit      = Range{Min: 0, Max: 1}
)

// MinMax holds the fitted state. Names are the feature names in column order;
// they are only used when the state is persisted.
type MinMax struct {
	FeatureRange Range
	Names        []string

	DataMin      []float64
	DataMax      []float64
	DataRange    []float64
	Scale        []float64
	Min          []float64
	NSamplesSeen int
}

// New returns an unfitted scaler for the given target range.
func New(r Range, names []string) *MinMax {
	return &MinMax{FeatureRange: r, Names: append([]string(nil), names...)}
}

// Fitted reports whether Fit has run.
func (s *MinMax) Fitted() bool { return s.NSamplesSeen > 0 }

// Fit computes per-column min, max, range, scale and offset over rows.
// A constant column gets a data range of 1 so its scale stays finite.
func (s *MinMax) Fit(rows [][]float64) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return ErrEmpty
	}
	if s.FeatureRange.Max <= s.FeatureRange.Min {
		return fmt.Errorf("invalid feature range [%v, %v]", s.FeatureRange.Min, s.FeatureRange.Max)
	}
	width := len(rows[0])
	if len(s.Names) != 0 && len(s.Names) != width {
		return fmt.Errorf("%w: %d names for %d columns", ErrDimension, len(s.Names), width)
	}

	s.DataMin = make([]float64, width)
	s.DataMax = make([]float64, width)
	s.DataRange = make([]float64, width)
	s.Scale = make([]float64, width)
	s.Min = make([]float64, width)

	col := make([]float64, len(rows))
	for c := 0; c < width; c++ {
		for r, row := range rows {
			if len(row) != width {
				return fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimension, r, len(row), width)
			}
			col[r] = row[c]
		}
		lo, hi := floats.Min(col), floats.Max(col)
		dr := hi - lo
		if dr == 0 {
			dr = 1
		}
		s.DataMin[c] = lo
		s.DataMax[c] = hi
		s.DataRange[c] = dr
		s.Scale[c] = (s.FeatureRange.Max - s.FeatureRange.Min) / dr
		s.Min[c] = s.FeatureRange.Min - lo*s.Scale[c]
	}
	s.NSamplesSeen = len(rows)
	return nil
}

// Transform scales one row: raw*scale + min, column by column.
func (s *MinMax) Transform(row []float64) ([]float64, error) {
	if !s.Fitted() {
		return nil, ErrNotFitted
	}
	if len(row) != len(s.Scale) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(row), len(s.Scale))
	}
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = v*s.Scale[i] + s.Min[i]
	}
	return out, nil
}

// TransformAll scales every row and returns a new matrix.
func (s *MinMax) TransformAll(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = scaled
	}
	return out, nil
}

// InverseTransform maps a scaled row back to raw units.
func (s *MinMax) InverseTransform(row []float64) ([]float64, error) {
	if !s.Fitted() {
		return nil, ErrNotFitted
	}
	if len(row) != len(s.Scale) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(row), len(s.Scale))
	}
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = (v - s.Min[i]) / s.Scale[i]
	}
	return out, nil
}

// Columns returns a scaler restricted to the given column positions, so a
// decoder can invert only the target fields of a model output.
func (s *MinMax) Columns(idx []int) *MinMax {
	sub := &MinMax{FeatureRange: s.FeatureRange, NSamplesSeen: s.NSamplesSeen}
	for _, i := range idx {
		if len(s.Names) > i {
			sub.Names = append(sub.Names, s.Names[i])
		}
		sub.DataMin = append(sub.DataMin, s.DataMin[i])
		sub.DataMax = append(sub.DataMax, s.DataMax[i])
		sub.DataRange = append(sub.DataRange, s.DataRange[i])
		sub.Scale = append(sub.Scale, s.Scale[i])
		sub.Min = append(sub.Min, s.Min[i])
	}
	return sub
}
