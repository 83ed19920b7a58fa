package datasets

import (
	"github.com/Noofbiz/vrmotion/features"
	"github.com/Noofbiz/vrmotion/labels"
	"github.com/Noofbiz/vrmotion/scaler"
)

// TypingDataset holds key-press samples from the reduced typing telemetry.
// With the end selector an example is the last row before a key release;
// with start+end it is the first row of a press joined with the last one,
// labeled with the key of the start row.
type TypingDataset struct {
	base
	classified

	Selector Selector

	layout Layout
	scaler *scaler.MinMax
}

// NewTypingDataset derives the hand-relative columns, finds the press
// boundaries of every file, applies the hand filter and fits the scaler over
// the selected samples.
func NewTypingDataset(tables []*features.Table, opts Options) (*TypingDataset, error) {
	if len(tables) == 0 {
		return nil, ErrEmpty
	}
	if opts.Selector != TypingEnd && opts.Selector != TypingStartEnd {
		return nil, ErrUnknownSelector
	}
	sentinel := opts.KeySentinel
	if sentinel == "" {
		sentinel = "none"
	}
	layout, err := LayoutFor(opts.Selector, opts.layoutOptions())
	if err != nil {
		return nil, err
	}

	for _, t := range tables {
		if err := t.Require(features.TypingRawColumns...); err != nil {
			return nil, err
		}
		if err := features.DeriveHandRelative(t); err != nil {
			return nil, err
		}
	}
	corpus, err := projectAll(tables, features.TypingColumns)
	if err != nil {
		return nil, err
	}

	var samples *features.Table
	if opts.Selector == TypingEnd {
		samples = endSamples(corpus, sentinel, opts.Hand)
	} else {
		samples = pressSamples(corpus, sentinel, opts.Hand)
	}
	if samples.Len() == 0 {
		return nil, ErrEmpty
	}
	s, err := fitCorpus([]*features.Table{samples}, opts.Range)
	if err != nil {
		return nil, err
	}
	binding, err := layout.Bind(samples)
	if err != nil {
		return nil, err
	}

	d := &TypingDataset{
		base:     newBase("TypingDataset/"+opts.Selector.String(), opts.Seed),
		Selector: opts.Selector,
		layout:   layout,
		scaler:   s,
	}
	d.vocab = labels.NewVocabulary(samples.Labels, sentinel)
	for r, row := range samples.Rows {
		in, _ := binding.Select(row)
		code, err := d.vocab.Code(samples.Labels[r])
		if err != nil {
			return nil, err
		}
		d.inputs = append(d.inputs, in)
		d.codes = append(d.codes, code)
	}
	d.n = len(d.inputs)
	d.inputShape = []int{len(layout.Inputs)}
	d.fetch = d.example
	return d, nil
}

// endSamples keeps the end row of every press, per file.
func endSamples(corpus []*features.Table, sentinel, hand string) *features.Table {
	out := features.NewTable("end", features.TypingColumns)
	for _, t := range corpus {
		for _, r := range labels.EndRows(t.Labels, sentinel) {
			if hand != "" && t.Hands[r] != hand {
				continue
			}
			out.Append(append([]float64(nil), t.Rows[r]...), t.Labels[r], t.Hands[r])
		}
	}
	return out
}

// pressSamples joins the start row of every press with its release row.
func pressSamples(corpus []*features.Table, sentinel, hand string) *features.Table {
	cols := append(suffixed(features.TypingColumns, StartSuffix), suffixed(features.TypingColumns, EndSuffix)...)
	out := features.NewTable("start+end", cols)
	for _, t := range corpus {
		presses := labels.Pairs(labels.StartRows(t.Labels, sentinel), labels.EndRows(t.Labels, sentinel))
		for _, p := range presses {
			if hand != "" && t.Hands[p.End] != hand {
				continue
			}
			row := make([]float64, 0, len(cols))
			row = append(row, t.Rows[p.Start]...)
			row = append(row, t.Rows[p.End]...)
			out.Append(row, t.Labels[p.Start], t.Hands[p.End])
		}
	}
	return out
}

// Artifact returns the scaler state and the key vocabulary.
func (d *TypingDataset) Artifact() (*scaler.Artifact, error) {
	return d.scaler.Artifact(d.vocab.Labels)
}
