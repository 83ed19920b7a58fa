package datasets

import (
	"github.com/Noofbiz/vrmotion/features"
	"github.com/Noofbiz/vrmotion/labels"
	"github.com/Noofbiz/vrmotion/scaler"
)

// GrabDataset keeps the rows of every grab span. A non-None gesture label
// marks the last row of a grab; the RowsPerGrab rows before it are relabeled
// with the same gesture and every other row is discarded.
type GrabDataset struct {
	base
	classified

	spans  []labels.Span
	scaler *scaler.MinMax
}

// NewGrabDataset derives the nine relative columns, extracts the spans of
// every file and fits the scaler over the extracted rows only.
func NewGrabDataset(tables []*features.Table, opts Options) (*GrabDataset, error) {
	if len(tables) == 0 {
		return nil, ErrEmpty
	}
	none := opts.NoneLabel
	if none == "" {
		none = "None"
	}

	corpus, err := regressionCorpus(tables)
	if err != nil {
		return nil, err
	}
	extracted := features.NewTable("grabs", features.FullColumns)
	var spans []labels.Span
	for _, t := range corpus {
		for _, sp := range labels.Spans(t.Labels, none, opts.RowsPerGrab) {
			for r := sp.Start; r <= sp.End; r++ {
				extracted.Append(append([]float64(nil), t.Rows[r]...), sp.Label, "")
			}
			spans = append(spans, sp)
		}
	}
	if extracted.Len() == 0 {
		return nil, ErrEmpty
	}
	s, err := fitCorpus([]*features.Table{extracted}, opts.Range)
	if err != nil {
		return nil, err
	}
	binding, err := Layout{Inputs: GrabInputs}.Bind(extracted)
	if err != nil {
		return nil, err
	}

	d := &GrabDataset{
		base:   newBase("GrabDataset", opts.Seed),
		spans:  spans,
		scaler: s,
	}
	d.vocab = labels.NewVocabulary(extracted.Labels)
	for r, row := range extracted.Rows {
		in, _ := binding.Select(row)
		code, err := d.vocab.Code(extracted.Labels[r])
		if err != nil {
			return nil, err
		}
		d.inputs = append(d.inputs, in)
		d.codes = append(d.codes, code)
	}
	d.n = len(d.inputs)
	d.inputShape = []int{len(GrabInputs)}
	d.fetch = d.example
	return d, nil
}

// Spans returns the extracted spans in file order.
func (d *GrabDataset) Spans() []labels.Span { return d.spans }

// Artifact returns the scaler state and the grab vocabulary.
func (d *GrabDataset) Artifact() (*scaler.Artifact, error) {
	return d.scaler.Artifact(d.vocab.Labels)
}
