package simple

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Objective selects the loss the model is trained with.
type Objective int

const (
	// SumSquaredError is the summed squared error of continuous targets.
	SumSquaredError Objective = iota
	// CrossEntropy is the summed softmax cross-entropy of category codes. A
	// target is a single value holding the code.
	CrossEntropy
)

func (o Objective) String() string {
	if o == CrossEntropy {
		return "cross_entropy"
	}
	return "sum_squared_error"
}

// Config holds configurable hyperparameters for the MLP model.
type Config struct {
	// HiddenSizes is the list of hidden layer sizes. Example: []int{64, 32}
	// If empty, a single hidden layer of size 64 will be used.
	HiddenSizes []int

	// InputDim is the length of a flattened example input.
	InputDim int

	// OutputDim is the length of a flattened target for SumSquaredError and
	// the number of categories for CrossEntropy.
	OutputDim int

	Objective Objective

	// Seed controls weight initialization.
	Seed int64
}

// Param is one named parameter tensor stored flat in row-major order,
// together with its gradient accumulator.
type Param struct {
	Name  string
	Shape []int
	Value []float32
	Grad  []float32
}

// Layer describes one dense layer for graph export.
type Layer struct {
	Op         string `json:"op"`
	In         int    `json:"in"`
	Out        int    `json:"out"`
	Activation string `json:"activation"`
	Weight     string `json:"weight"`
	Bias       string `json:"bias"`
}

// Graph is the portable description of a model's computation.
type Graph struct {
	Kind      string  `json:"kind"`
	InputDim  int     `json:"input_dim"`
	OutputDim int     `json:"output_dim"`
	Objective string  `json:"objective"`
	Layers    []Layer `json:"layers"`
}

// Model is what the training driver optimizes. Implementations expose their
// parameters so the driver can apply the penalty, the optimizer and the
// checkpointing without knowing the architecture.
type Model interface {
	// Params returns the parameters in a stable order.
	Params() []*Param
	// Backward runs the batch forward, adds the gradients of the summed batch
	// loss to the parameters' Grad and returns that loss.
	Backward(inputs, targets [][]float32) (float64, error)
	// Loss returns the summed batch loss without touching gradients.
	Loss(inputs, targets [][]float32) (float64, error)
	// PredictBatch returns the raw outputs, one vector per input.
	PredictBatch(inputs [][]float32) ([][]float32, error)
	// Graph describes the computation for export.
	Graph() Graph
}

// MLP is a small configurable multilayer perceptron with ReLU hidden layers
// and a linear output layer. It is the default model of the driver and runs
// in pure Go so tests stay fast and deterministic.
type MLP struct {
	// Config used for initialization.
	Config Config

	// layerSizes includes input size, hidden sizes, then output size.
	layerSizes []int

	// weights[l] has shape [out, in] for layer l -> l+1; biases[l] has [out].
	weights []*Param
	biases  []*Param
}

// NewMLP creates a model with small random weights and zero biases.
func NewMLP(cfg Config) (*MLP, error) {
	if cfg.InputDim <= 0 || cfg.OutputDim <= 0 {
		return nil, fmt.Errorf("input and output dimensions must be positive, got %d and %d", cfg.InputDim, cfg.OutputDim)
	}
	if len(cfg.HiddenSizes) == 0 {
		cfg.HiddenSizes = []int{64}
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	sizes := make([]int, 0, 2+len(cfg.HiddenSizes))
	sizes = append(sizes, cfg.InputDim)
	sizes = append(sizes, cfg.HiddenSizes...)
	sizes = append(sizes, cfg.OutputDim)

	m := &MLP{Config: cfg, layerSizes: sizes}
	for l := 0; l < len(sizes)-1; l++ {
		in, out := sizes[l], sizes[l+1]
		if out <= 0 {
			return nil, fmt.Errorf("layer %d has size %d", l+1, out)
		}
		w := &Param{
			Name:  fmt.Sprintf("dense%d.weight", l),
			Shape: []int{out, in},
			Value: make([]float32, out*in),
			Grad:  make([]float32, out*in),
		}
		// Xavier/Glorot uniform initialization heuristic
		limit := float32(math.Sqrt(6.0 / float64(in+out)))
		for i := range w.Value {
			w.Value[i] = (rng.Float32()*2.0 - 1.0) * limit * 0.5
		}
		b := &Param{
			Name:  fmt.Sprintf("dense%d.bias", l),
			Shape: []int{out},
			Value: make([]float32, out),
			Grad:  make([]float32, out),
		}
		m.weights = append(m.weights, w)
		m.biases = append(m.biases, b)
	}
	return m, nil
}

// Params returns weights and biases layer by layer.
func (m *MLP) Params() []*Param {
	out := make([]*Param, 0, 2*len(m.weights))
	for l := range m.weights {
		out = append(out, m.weights[l], m.biases[l])
	}
	return out
}

// Graph describes the dense stack.
func (m *MLP) Graph() Graph {
	g := Graph{
		Kind:      "mlp",
		InputDim:  m.layerSizes[0],
		OutputDim: m.layerSizes[len(m.layerSizes)-1],
		Objective: m.Config.Objective.String(),
	}
	for l, w := range m.weights {
		act := "relu"
		if l == len(m.weights)-1 {
			act = "linear"
		}
		g.Layers = append(g.Layers, Layer{
			Op: "dense", In: w.Shape[1], Out: w.Shape[0], Activation: act,
			Weight: w.Name, Bias: m.biases[l].Name,
		})
	}
	return g
}

// forwardSingle performs a forward pass for a single input vector, returning:
// - preActs: pre-activation vectors per layer (len = L)
// - acts: activation vectors per layer (len = L+1, acts[0] = input)
func (m *MLP) forwardSingle(input []float32) (preActs [][]float32, acts [][]float32, err error) {
	if len(input) != m.layerSizes[0] {
		return nil, nil, fmt.Errorf("input has %d values, model expects %d", len(input), m.layerSizes[0])
	}
	L := len(m.weights)
	acts = make([][]float32, L+1)
	acts[0] = input
	preActs = make([][]float32, L)
	for l := 0; l < L; l++ {
		in := acts[l]
		W, b := m.weights[l].Value, m.biases[l].Value
		outDim, inDim := len(b), len(in)
		pre := make([]float32, outDim)
		for j := 0; j < outDim; j++ {
			sum := b[j]
			row := W[j*inDim : (j+1)*inDim]
			for i, v := range in {
				sum += row[i] * v
			}
			pre[j] = sum
		}
		preActs[l] = pre

		// ReLU for hidden, linear for last layer
		act := make([]float32, outDim)
		copy(act, pre)
		if l < L-1 {
			for i := range act {
				if act[i] < 0 {
					act[i] = 0
				}
			}
		}
		acts[l+1] = act
	}
	return preActs, acts, nil
}

// PredictBatch returns the output layer of every input. For CrossEntropy the
// outputs are logits.
func (m *MLP) PredictBatch(inputs [][]float32) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		_, acts, err := m.forwardSingle(in)
		if err != nil {
			return nil, err
		}
		out[i] = acts[len(acts)-1]
	}
	return out, nil
}

// Loss returns the summed objective over the batch.
func (m *MLP) Loss(inputs, targets [][]float32) (float64, error) {
	if len(inputs) != len(targets) {
		return 0, fmt.Errorf("batch has %d inputs and %d targets", len(inputs), len(targets))
	}
	var total float64
	for ex := range inputs {
		_, acts, err := m.forwardSingle(inputs[ex])
		if err != nil {
			return 0, err
		}
		l, _, err := m.outputLoss(acts[len(acts)-1], targets[ex])
		if err != nil {
			return 0, err
		}
		total += l
	}
	return total, nil
}

// outputLoss returns the loss of one example and dLoss/dOutput.
func (m *MLP) outputLoss(out, target []float32) (float64, []float32, error) {
	delta := make([]float32, len(out))
	switch m.Config.Objective {
	case CrossEntropy:
		if len(target) != 1 {
			return 0, nil, fmt.Errorf("category target must hold one code, got %d values", len(target))
		}
		code := int(target[0])
		if code < 0 || code >= len(out) {
			return 0, nil, fmt.Errorf("category code %d out of range [0, %d)", code, len(out))
		}
		p := softmax(out)
		for j := range p {
			delta[j] = float32(p[j])
		}
		delta[code]--
		return -math.Log(math.Max(p[code], 1e-12)), delta, nil
	default:
		if len(target) != len(out) {
			return 0, nil, fmt.Errorf("target has %d values, model outputs %d", len(target), len(out))
		}
		var l float64
		for j := range out {
			d := out[j] - target[j]
			l += float64(d) * float64(d)
			// dLoss/dOutput = 2*(pred - label)
			delta[j] = 2.0 * d
		}
		return l, delta, nil
	}
}

// Backward accumulates the gradients of the summed batch loss.
func (m *MLP) Backward(inputs, targets [][]float32) (float64, error) {
	if len(inputs) != len(targets) {
		return 0, fmt.Errorf("batch has %d inputs and %d targets", len(inputs), len(targets))
	}
	if len(inputs) == 0 {
		return 0, errors.New("empty batch")
	}
	var total float64
	for ex := range inputs {
		preActs, acts, err := m.forwardSingle(inputs[ex])
		if err != nil {
			return 0, err
		}
		loss, delta, err := m.outputLoss(acts[len(acts)-1], targets[ex])
		if err != nil {
			return 0, err
		}
		total += loss

		for l := len(m.weights) - 1; l >= 0; l-- {
			in := acts[l]
			inDim := len(in)
			W := m.weights[l]
			for j, dj := range delta {
				m.biases[l].Grad[j] += dj
				g := W.Grad[j*inDim : (j+1)*inDim]
				for i, v := range in {
					g[i] += dj * v
				}
			}
			if l == 0 {
				break
			}
			// propagate delta to the previous layer through the ReLU
			prev := make([]float32, inDim)
			for i := 0; i < inDim; i++ {
				if preActs[l-1][i] <= 0 {
					continue
				}
				var sum float32
				for j, dj := range delta {
					sum += W.Value[j*inDim+i] * dj
				}
				prev[i] = sum
			}
			delta = prev
		}
	}
	return total, nil
}

// Classify returns the arg-max category of every input.
func Classify(m Model, inputs [][]float32) ([]int, error) {
	out, err := m.PredictBatch(inputs)
	if err != nil {
		return nil, err
	}
	codes := make([]int, len(out))
	for i, o := range out {
		best := 0
		for j := range o {
			if o[j] > o[best] {
				best = j
			}
		}
		codes[i] = best
	}
	return codes, nil
}

func softmax(logits []float32) []float64 {
	maxV := math.Inf(-1)
	for _, v := range logits {
		maxV = math.Max(maxV, float64(v))
	}
	p := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		p[i] = math.Exp(float64(v) - maxV)
		sum += p[i]
	}
	for i := range p {
		p[i] /= sum
	}
	return p
}
