// Package datasets turns a directory of capture CSVs into supervised examples.
//
// Every dataset follows the same life cycle: the files are read into
// per-file feature tables, relative positions are derived, a min-max scaler
// is fit once and applied before any windowing or splitting, and examples are
// then served by index. Sequence datasets materialize their windows lazily at
// fetch time; the pointwise and classification datasets keep their already
// selected rows in memory.
//
// The datasets implement this interface in order to interact with GoMLX
// training loops and the in-repository trainer alike.
package datasets

import (
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/Noofbiz/vrmotion/features"
	"github.com/Noofbiz/vrmotion/labels"
	"github.com/Noofbiz/vrmotion/scaler"
	"github.com/gomlx/gomlx/pkg/core/tensors"
)

var (
	// ErrNoCSV is returned when the dataset directory holds no CSV files.
	ErrNoCSV = errors.New("no CSV files found")
	// ErrUnknownSelector is returned for a data_type outside the enumerated set.
	ErrUnknownSelector = errors.New("unknown output selector")
	// ErrMissingColumn is returned when a required column is absent from a file.
	ErrMissingColumn = features.ErrMissingColumn
	// ErrEmpty is returned when the corpus produced no examples.
	ErrEmpty = errors.New("dataset has no examples")
)

// Dataset is what the trainer and the command line tools consume.
type Dataset interface {
	Name() string
	Len() int
	Example(i int) (inputs []float32, labels []float32, err error)
	Batch(indices []int) (inputs [][]float32, labels [][]float32, err error)
	Shuffle(seed int64)

	// InputShape is the shape of one example's inputs, e.g. [steps, fields]
	// for windowed datasets or [fields] for pointwise ones.
	InputShape() []int
	// LabelShape is the shape of one example's target. Classification
	// datasets return nil: the target is a single category code.
	LabelShape() []int

	// Artifact returns the persisted scaler state together with the label
	// vocabulary of classification datasets.
	Artifact() (*scaler.Artifact, error)

	// To implement gomlx's train.Dataset interface
	Yield() (any, []*tensors.Tensor, []*tensors.Tensor, error)
	Reset()
	SetBatchSize(n int)
}

// Categorical is implemented by classification datasets.
type Categorical interface {
	Vocabulary() *labels.Vocabulary
}

// base carries the batching, shuffling and yielding shared by every dataset.
// The concrete types set n, fetch and the shapes.
type base struct {
	name       string
	n          int
	inputShape []int
	labelShape []int
	fetch      func(i int) ([]float32, []float32, error)

	// BatchSize for yielding batches
	BatchSize int

	order  []int
	cursor int
	rand   *rand.Rand
}

func newBase(name string, seed int64) base {
	return base{
		name:      name,
		BatchSize: 32,
		rand:      rand.New(rand.NewSource(seed)),
	}
}

// Name returns the name of the dataset.
func (b *base) Name() string { return b.name }

// Len returns the number of examples.
func (b *base) Len() int { return b.n }

// InputShape returns the per-example input shape.
func (b *base) InputShape() []int { return append([]int(nil), b.inputShape...) }

// LabelShape returns the per-example target shape, nil for category codes.
func (b *base) LabelShape() []int {
	if b.labelShape == nil {
		return nil
	}
	return append([]int(nil), b.labelShape...)
}

// Example reads a single example by index.
func (b *base) Example(i int) ([]float32, []float32, error) {
	if i < 0 || i >= b.n {
		return nil, nil, fmt.Errorf("index %d out of range [0, %d)", i, b.n)
	}
	return b.fetch(i)
}

// Batch reads multiple examples by their indices.
func (b *base) Batch(indices []int) ([][]float32, [][]float32, error) {
	inputs := make([][]float32, len(indices))
	targets := make([][]float32, len(indices))
	for pos, idx := range indices {
		in, la, err := b.Example(idx)
		if err != nil {
			return nil, nil, err
		}
		inputs[pos] = in
		targets[pos] = la
	}
	return inputs, targets, nil
}

// Shuffle reorders the sequence Yield walks through. Example indices are not
// affected.
func (b *base) Shuffle(seed int64) {
	b.rand.Seed(seed)
	b.ensureOrder()
	b.rand.Shuffle(len(b.order), func(i, j int) {
		b.order[i], b.order[j] = b.order[j], b.order[i]
	})
	b.cursor = 0
}

// SetBatchSize sets the number of examples per Yield.
func (b *base) SetBatchSize(n int) { b.BatchSize = n }

// Reset restarts Yield at the beginning of the epoch.
func (b *base) Reset() {
	b.cursor = 0
}

func (b *base) ensureOrder() {
	if len(b.order) == b.n {
		return
	}
	b.order = make([]int, b.n)
	for i := range b.order {
		b.order[i] = i
	}
}

// Tensors reads a batch of examples and returns them as gomlx tensors.
func (b *base) Tensors(indices []int) (*tensors.Tensor, *tensors.Tensor, error) {
	in, la, err := b.Batch(indices)
	if err != nil {
		return nil, nil, err
	}
	flat, err := MakeBatchFlat(in, la, b.inputShape, b.labelShape)
	if err != nil {
		return nil, nil, err
	}
	return flat.ToGomlxTensors()
}

// Yield returns the next batch of data for the gomlx Dataset interface. Batch
// size is determined by the BatchSize field; the last batch of an epoch may
// be smaller. io.EOF marks the end of the epoch until Reset is called.
func (b *base) Yield() (spec any, inputs []*tensors.Tensor, targets []*tensors.Tensor, err error) {
	b.ensureOrder()
	if b.cursor >= b.n {
		return nil, nil, nil, io.EOF
	}
	size := b.BatchSize
	if size <= 0 {
		size = 32
	}
	end := min(b.cursor+size, b.n)
	in, la, err := b.Tensors(b.order[b.cursor:end])
	if err != nil {
		return nil, nil, nil, err
	}
	b.cursor = end
	return b.name, []*tensors.Tensor{in}, []*tensors.Tensor{la}, nil
}
