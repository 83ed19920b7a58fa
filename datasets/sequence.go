package datasets

import (
	"fmt"

	"github.com/Noofbiz/vrmotion/features"
	"github.com/Noofbiz/vrmotion/scaler"
	"github.com/Noofbiz/vrmotion/windows"
)

// SequenceDataset is the windowed regression dataset for the euler,
// quaternion, both and relative selectors. Each example is a window of
// consecutive scaled frames from one file; inputs and targets are the
// selector's fields for every frame of the window.
type SequenceDataset struct {
	base

	Selector Selector

	layout  Layout
	binding Binding
	tables  []*features.Table
	index   *windows.Index
	scaler  *scaler.MinMax
}

// NewSequenceDataset derives the relative features of every table, fits the
// scaler over the full 49-column corpus and indexes the windows of each file.
// The tables are modified in place.
func NewSequenceDataset(tables []*features.Table, opts Options) (*SequenceDataset, error) {
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
	index, err := windows.NewIndex(lengths(full), opts.LookBack, opts.Step)
	if err != nil {
		return nil, err
	}

	d := &SequenceDataset{
		base:     newBase("SequenceDataset/"+opts.Selector.String(), opts.Seed),
		Selector: opts.Selector,
		layout:   layout,
		binding:  binding,
		tables:   full,
		index:    index,
		scaler:   s,
	}
	d.n = index.Len()
	d.inputShape = []int{index.Steps(), len(layout.Inputs)}
	d.labelShape = []int{index.Steps(), len(layout.Targets)}
	d.fetch = d.readExample
	return d, nil
}

// regressionCorpus derives the nine relative columns and projects each table
// onto the 49-column order the scaler is persisted in.
func regressionCorpus(tables []*features.Table) ([]*features.Table, error) {
	if len(tables) == 0 {
		return nil, ErrEmpty
	}
	for _, t := range tables {
		if err := t.Require(features.RawColumns...); err != nil {
			return nil, err
		}
		if err := features.DeriveRelative(t); err != nil {
			return nil, err
		}
	}
	return projectAll(tables, features.FullColumns)
}

func (d *SequenceDataset) readExample(i int) ([]float32, []float32, error) {
	w, err := d.index.Window(i)
	if err != nil {
		return nil, nil, err
	}
	rows := d.tables[w.File].Rows
	inputs := make([]float32, 0, len(w.Indices)*len(d.binding.Inputs))
	targets := make([]float32, 0, len(w.Indices)*len(d.binding.Targets))
	for _, r := range w.Indices {
		in, out := d.binding.Select(rows[r])
		inputs = append(inputs, in...)
		targets = append(targets, out...)
	}
	return inputs, targets, nil
}

// Window returns the file and row indices behind example i.
func (d *SequenceDataset) Window(i int) (windows.Window, error) {
	return d.index.Window(i)
}

// Scaler returns the fitted corpus scaler.
func (d *SequenceDataset) Scaler() *scaler.MinMax { return d.scaler }

// Layout returns the field order of the examples.
func (d *SequenceDataset) Layout() Layout { return d.layout }

// Artifact returns the scaler state in the 49-column order.
func (d *SequenceDataset) Artifact() (*scaler.Artifact, error) {
	return d.scaler.Artifact(nil)
}
