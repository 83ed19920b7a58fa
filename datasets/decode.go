package datasets

import (
	"fmt"

	"github.com/Noofbiz/vrmotion/scaler"
)

// Decoder is implemented by the regression datasets: it maps a flattened
// scaled target, or a model output of the same shape, back to raw units.
type Decoder interface {
	DecodeTargets(targets []float32) ([]float64, error)
}

var (
	_ Decoder = (*SequenceDataset)(nil)
	_ Decoder = (*PointDataset)(nil)
)

// DecodeTargets inverts the corpus scaling of every step of a target.
func (d *SequenceDataset) DecodeTargets(targets []float32) ([]float64, error) {
	return decodeTargets(d.scaler, d.binding.Targets, targets)
}

// DecodeTargets inverts the corpus scaling of a target.
func (d *PointDataset) DecodeTargets(targets []float32) ([]float64, error) {
	return decodeTargets(d.scaler, d.binding.Targets, targets)
}

// decodeTargets splits targets into rows of len(cols) fields and inverts each
// with the scaler restricted to cols.
func decodeTargets(s *scaler.MinMax, cols []int, targets []float32) ([]float64, error) {
	width := len(cols)
	if width == 0 || len(targets)%width != 0 {
		return nil, fmt.Errorf("%w: %d target values for %d fields", scaler.ErrDimension, len(targets), width)
	}
	sub := s.Columns(cols)
	out := make([]float64, 0, len(targets))
	row := make([]float64, width)
	for start := 0; start < len(targets); start += width {
		for j := range row {
			row[j] = float64(targets[start+j])
		}
		raw, err := sub.InverseTransform(row)
		if err != nil {
			return nil, err
		}
		out = append(out, raw...)
	}
	return out, nil
}
