package datasets

import (
	"fmt"
	"math/rand"

	"github.com/Noofbiz/vrmotion/scaler"
)

// Subset exposes a subset of another dataset's examples. The scaler of the
// parent is shared: it was fit before the split.
type Subset struct {
	base

	parent  Dataset
	indices []int
}

// NewSubset returns the view of parent restricted to indices.
func NewSubset(parent Dataset, name string, indices []int, seed int64) *Subset {
	s := &Subset{
		base:    newBase(name, seed),
		parent:  parent,
		indices: append([]int(nil), indices...),
	}
	s.n = len(s.indices)
	s.inputShape = parent.InputShape()
	s.labelShape = parent.LabelShape()
	s.fetch = func(i int) ([]float32, []float32, error) {
		return s.parent.Example(s.indices[i])
	}
	return s
}

// Indices returns the parent indices covered by the subset.
func (s *Subset) Indices() []int { return append([]int(nil), s.indices...) }

// Parent returns the dataset the subset views.
func (s *Subset) Parent() Dataset { return s.parent }

// Artifact returns the parent's artifact.
func (s *Subset) Artifact() (*scaler.Artifact, error) { return s.parent.Artifact() }

// RandomSplit shuffles the example indices with a seeded generator and cuts
// them into a training part of floor(ratio*n) examples and a validation part
// holding the rest.
func RandomSplit(ds Dataset, ratio float64, seed int64) (train, valid *Subset, err error) {
	if ratio <= 0 || ratio > 1 {
		return nil, nil, fmt.Errorf("split ratio must be in (0, 1], got %v", ratio)
	}
	n := ds.Len()
	if n == 0 {
		return nil, nil, ErrEmpty
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	cut := int(ratio * float64(n))
	train = NewSubset(ds, ds.Name()+"/train", perm[:cut], seed)
	valid = NewSubset(ds, ds.Name()+"/valid", perm[cut:], seed+1)
	return train, valid, nil
}
