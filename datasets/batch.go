package datasets

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// BatchFlat stores a batch in flat contiguous buffers.
type BatchFlat struct {
	Inputs     []float32
	Labels     []float32
	BatchSize  int
	InputShape []int
	// LabelShape is nil for category codes (one value per example).
	LabelShape []int
}

// MakeBatchFlat flattens a batch into contiguous buffers and checks every
// example against the declared shapes.
func MakeBatchFlat(inputs, labels [][]float32, inputShape, labelShape []int) (*BatchFlat, error) {
	if len(inputs) != len(labels) {
		return nil, fmt.Errorf("inputs and labels batch sizes don't match: %d != %d", len(inputs), len(labels))
	}
	inputDim := volume(inputShape)
	labelDim := volume(labelShape)

	b := &BatchFlat{
		Inputs:     make([]float32, 0, len(inputs)*inputDim),
		Labels:     make([]float32, 0, len(inputs)*labelDim),
		BatchSize:  len(inputs),
		InputShape: inputShape,
		LabelShape: labelShape,
	}
	for i := range inputs {
		if len(inputs[i]) != inputDim {
			return nil, fmt.Errorf("inconsistent input dimensions at example %d: expected %d, got %d",
				i, inputDim, len(inputs[i]))
		}
		if len(labels[i]) != labelDim {
			return nil, fmt.Errorf("inconsistent label dimensions at example %d: expected %d, got %d",
				i, labelDim, len(labels[i]))
		}
		b.Inputs = append(b.Inputs, inputs[i]...)
		b.Labels = append(b.Labels, labels[i]...)
	}
	return b, nil
}

// ToGomlxTensors converts the batch to gomlx tensors: inputs shaped
// [batch, InputShape...] as float32, labels shaped [batch, LabelShape...] as
// float32 or, for category codes, [batch] as int32.
func (b *BatchFlat) ToGomlxTensors() (*tensors.Tensor, *tensors.Tensor, error) {
	inT := tensors.FromFlatDataAndDimensions(b.Inputs, append([]int{b.BatchSize}, b.InputShape...)...)
	if b.LabelShape == nil {
		codes := make([]int32, len(b.Labels))
		for i, v := range b.Labels {
			codes[i] = int32(v)
		}
		return inT, tensors.FromFlatDataAndDimensions(codes, b.BatchSize), nil
	}
	labT := tensors.FromFlatDataAndDimensions(b.Labels, append([]int{b.BatchSize}, b.LabelShape...)...)
	return inT, labT, nil
}

// volume is the number of scalars of a shape; a nil shape holds one code.
func volume(shape []int) int {
	if shape == nil {
		return 1
	}
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
