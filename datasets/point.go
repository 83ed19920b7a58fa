package datasets

import (
	"fmt"

	"github.com/Noofbiz/vrmotion/features"
	"github.com/Noofbiz/vrmotion/scaler"
)

// PointDataset is the pointwise regression dataset: one example per frame,
// scaled over the whole corpus (legacy range [0, 1] by default).
type PointDataset struct {
	base

	Selector Selector

	layout  Layout
	binding Binding
	rows    [][]float64
	scaler  *scaler.MinMax
}

// NewPointDataset builds the per-frame dataset for a regression selector.
// The tables are modified in place.
func NewPointDataset(tables []*features.Table, opts Options) (*PointDataset, error) {
	if !opts.Selector.Regression() {
		return nil, fmt.Errorf("%w: %v is not a regression selector", ErrUnknownSelector, opts.Selector)
	}
	layout, err := LayoutFor(opts.Selector, opts.layoutOptions())
	if err != nil {
		return nil, err
	}
	full, err := regressionCorpus(tables)
	if err != nil {
		return nil, err
	}
	s, err := fitCorpus(full, opts.Range)
	if err != nil {
		return nil, err
	}
	binding, err := layout.Bind(full[0])
	if err != nil {
		return nil, err
	}

	d := &PointDataset{
		base:     newBase("PointDataset/"+opts.Selector.String(), opts.Seed),
		Selector: opts.Selector,
		layout:   layout,
		binding:  binding,
		scaler:   s,
	}
	for _, t := range full {
		d.rows = append(d.rows, t.Rows...)
	}
	d.n = len(d.rows)
	d.inputShape = []int{len(layout.Inputs)}
	d.labelShape = []int{len(layout.Targets)}
	d.fetch = func(i int) ([]float32, []float32, error) {
		in, out := d.binding.Select(d.rows[i])
		return in, out, nil
	}
	return d, nil
}

// Scaler returns the fitted corpus scaler.
func (d *PointDataset) Scaler() *scaler.MinMax { return d.scaler }

// Artifact returns the scaler state in the 49-column order.
func (d *PointDataset) Artifact() (*scaler.Artifact, error) {
	return d.scaler.Artifact(nil)
}
