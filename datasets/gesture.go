package datasets

import (
	"fmt"

	"github.com/Noofbiz/vrmotion/features"
	"github.com/Noofbiz/vrmotion/labels"
	"github.com/Noofbiz/vrmotion/scaler"
	"github.com/Noofbiz/vrmotion/windows"
)

// classified holds the in-memory examples of a classification dataset.
type classified struct {
	inputs [][]float32
	codes  []int
	vocab  *labels.Vocabulary
}

func (c *classified) example(i int) ([]float32, []float32, error) {
	return c.inputs[i], []float32{float32(c.codes[i])}, nil
}

// Vocabulary returns the code to label mapping.
func (c *classified) Vocabulary() *labels.Vocabulary { return c.vocab }

// Counts returns the number of examples per label.
func (c *classified) Counts() map[string]int {
	names := make([]string, len(c.codes))
	for i, code := range c.codes {
		names[i], _ = c.vocab.Decode(code)
	}
	return labelCounts(names)
}

// GestureSequenceDataset serves pre-windowed gesture captures: every row holds
// GestureSteps suffixed timesteps and a gesture label. The inputs are the
// right and left relative positions followed by the head, right and left
// euler rotations, each group spanning all steps.
type GestureSequenceDataset struct {
	base
	classified

	layout Layout
	scaler *scaler.MinMax
}

// NewGestureSequenceDataset derives the per-step relative columns, fits the
// scaler over every numeric column and codes the labels in sorted order.
func NewGestureSequenceDataset(tables []*features.Table, opts Options) (*GestureSequenceDataset, error) {
	if len(tables) == 0 {
		return nil, ErrEmpty
	}
	layout, err := LayoutFor(Gesture, opts.layoutOptions())
	if err != nil {
		return nil, err
	}
	steps := opts.layoutOptions().GestureSteps
	if steps <= 0 {
		steps = 10
	}
	for _, t := range tables {
		if err := features.DeriveSteps(t, steps); err != nil {
			return nil, err
		}
	}
	corpus, err := projectAll(tables, tables[0].Columns)
	if err != nil {
		return nil, err
	}
	s, err := fitCorpus(corpus, opts.Range)
	if err != nil {
		return nil, err
	}
	binding, err := layout.Bind(corpus[0])
	if err != nil {
		return nil, err
	}

	var all []string
	for _, t := range corpus {
		all = append(all, t.Labels...)
	}
	d := &GestureSequenceDataset{
		base:   newBase("GestureSequenceDataset", opts.Seed),
		layout: layout,
		scaler: s,
	}
	d.vocab = labels.NewVocabulary(all)
	for _, t := range corpus {
		for r, row := range t.Rows {
			in, _ := binding.Select(row)
			code, err := d.vocab.Code(t.Labels[r])
			if err != nil {
				return nil, err
			}
			d.inputs = append(d.inputs, in)
			d.codes = append(d.codes, code)
		}
	}
	d.n = len(d.inputs)
	d.inputShape = []int{len(layout.Inputs)}
	d.fetch = d.example
	return d, nil
}

// Artifact returns the scaler state and the gesture vocabulary.
func (d *GestureSequenceDataset) Artifact() (*scaler.Artifact, error) {
	return d.scaler.Artifact(d.vocab.Labels)
}

// GestureWindowDataset windows a continuous gesture stream and labels each
// window by the proximity of its start row to annotated gesture events.
type GestureWindowDataset struct {
	base
	classified

	proximity *labels.Proximity
	tables    []*features.Table
	index     *windows.Index
	scalers   []*scaler.MinMax
	perFile   bool
}

// NewGestureWindowDataset finds the event rows of every file, derives the
// hand-relative columns, keeps the 19 relative input fields and scales them
// either per file or over the whole corpus.
func NewGestureWindowDataset(tables []*features.Table, opts Options) (*GestureWindowDataset, error) {
	if len(tables) == 0 {
		return nil, ErrEmpty
	}
	p := labels.NewProximity(opts.Threshold)
	events := make([][][]int, len(tables))
	for i, t := range tables {
		events[i] = p.Events(t.Labels)
		if err := features.DeriveHandRelative(t); err != nil {
			return nil, err
		}
	}
	corpus, err := projectAll(tables, RelativeInputs)
	if err != nil {
		return nil, err
	}

	d := &GestureWindowDataset{
		base:      newBase("GestureWindowDataset", opts.Seed),
		proximity: p,
		tables:    corpus,
		perFile:   opts.PerFileScaling,
	}
	if opts.PerFileScaling {
		d.scalers, err = fitEach(corpus, opts.Range)
	} else {
		var s *scaler.MinMax
		s, err = fitCorpus(corpus, opts.Range)
		d.scalers = []*scaler.MinMax{s}
	}
	if err != nil {
		return nil, err
	}

	d.index, err = windows.NewIndex(lengths(corpus), opts.LookBack, opts.Step)
	if err != nil {
		return nil, err
	}
	d.vocab = labels.FromLabels(p.Names())
	d.codes = make([]int, d.index.Len())
	for i := range d.codes {
		file, start, err := d.index.Locate(i)
		if err != nil {
			return nil, err
		}
		d.codes[i], _ = p.Label(start, events[file])
	}

	d.n = d.index.Len()
	d.inputShape = []int{d.index.Steps(), len(RelativeInputs)}
	d.fetch = d.readExample
	return d, nil
}

func (d *GestureWindowDataset) readExample(i int) ([]float32, []float32, error) {
	w, err := d.index.Window(i)
	if err != nil {
		return nil, nil, err
	}
	rows := w.Materialize(d.tables[w.File].Rows)
	inputs := make([]float32, 0, len(rows)*len(RelativeInputs))
	for _, row := range rows {
		for _, v := range row {
			inputs = append(inputs, float32(v))
		}
	}
	return inputs, []float32{float32(d.codes[i])}, nil
}

// Stats returns the number of windows assigned to each category.
func (d *GestureWindowDataset) Stats() map[string]int {
	out := make(map[string]int, len(d.proximity.Stats))
	for k, v := range d.proximity.Stats {
		out[k] = v
	}
	return out
}

// Artifact returns the scaler state, per file when the files were scaled
// separately, and the fixed category names.
func (d *GestureWindowDataset) Artifact() (*scaler.Artifact, error) {
	if !d.perFile {
		return d.scalers[0].Artifact(d.vocab.Labels)
	}
	var names []string
	var fitted []*scaler.MinMax
	for i, s := range d.scalers {
		if !s.Fitted() {
			continue
		}
		names = append(names, d.tables[i].Name)
		fitted = append(fitted, s)
	}
	if len(fitted) == 0 {
		return nil, fmt.Errorf("%w: no file was scaled", scaler.ErrNotFitted)
	}
	return scaler.PerFileArtifact(names, fitted, d.vocab.Labels)
}
