package simple

import (
	"fmt"
	"math"
	"strings"
)

// Optimizer applies the accumulated gradients to the parameters.
type Optimizer interface {
	Step(params []*Param)
}

// SGD is plain gradient descent.
type SGD struct {
	LearningRate float64
}

// Step moves every value against its gradient.
func (o *SGD) Step(params []*Param) {
	lr := float32(o.LearningRate)
	for _, p := range params {
		for i, g := range p.Grad {
			p.Value[i] -= lr * g
		}
	}
}

// Adam keeps per-value first and second moment estimates.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	t int
	m map[*Param][]float64
	v map[*Param][]float64
}

// NewAdam returns Adam with the usual defaults for zero hyperparameters.
func NewAdam(lr, beta1, beta2, eps float64) *Adam {
	if beta1 == 0 {
		beta1 = 0.9
	}
	if beta2 == 0 {
		beta2 = 0.999
	}
	if eps == 0 {
		eps = 1e-8
	}
	return &Adam{
		LearningRate: lr,
		Beta1:        beta1,
		Beta2:        beta2,
		Epsilon:      eps,
		m:            make(map[*Param][]float64),
		v:            make(map[*Param][]float64),
	}
}

// Step applies one bias-corrected Adam update.
func (o *Adam) Step(params []*Param) {
	o.t++
	c1 := 1 - math.Pow(o.Beta1, float64(o.t))
	c2 := 1 - math.Pow(o.Beta2, float64(o.t))
	for _, p := range params {
		m, ok := o.m[p]
		if !ok {
			m = make([]float64, len(p.Value))
			o.m[p] = m
			o.v[p] = make([]float64, len(p.Value))
		}
		v := o.v[p]
		for i, g32 := range p.Grad {
			g := float64(g32)
			m[i] = o.Beta1*m[i] + (1-o.Beta1)*g
			v[i] = o.Beta2*v[i] + (1-o.Beta2)*g*g
			p.Value[i] -= float32(o.LearningRate * (m[i] / c1) / (math.Sqrt(v[i]/c2) + o.Epsilon))
		}
	}
}

// NewOptimizer returns the optimizer named "adam" or "sgd".
func NewOptimizer(name string, lr float64) (Optimizer, error) {
	switch strings.ToLower(name) {
	case "", "adam":
		return NewAdam(lr, 0, 0, 0), nil
	case "sgd":
		return &SGD{LearningRate: lr}, nil
	}
	return nil, fmt.Errorf("unknown optimizer %q", name)
}

// clipGradients rescales all gradients so their global L2 norm is at most
// maxNorm.
func clipGradients(params []*Param, maxNorm float64) {
	if maxNorm <= 0 {
		return
	}
	var sq float64
	for _, p := range params {
		for _, g := range p.Grad {
			sq += float64(g) * float64(g)
		}
	}
	norm := math.Sqrt(sq)
	if norm <= maxNorm {
		return
	}
	scale := float32(maxNorm / norm)
	for _, p := range params {
		for i := range p.Grad {
			p.Grad[i] *= scale
		}
	}
}
