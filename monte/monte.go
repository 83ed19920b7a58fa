// Package monte is a nearest-neighbour Monte Carlo baseline. A query input is
// answered by sampling among its k closest reference examples, weighted by
// inverse distance, and pooling the sampled targets: the mean for regression
// targets, a vote for category codes. It gives trained models something
// model-free to beat.
package monte

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
)

// Dataset is the part of a dataset the baseline reads. Every dataset of the
// datasets package satisfies it, including train/valid subsets.
type Dataset interface {
	// Len returns the number of examples in the dataset.
	Len() int

	// Example returns the flattened inputs and the target of one example.
	Example(idx int) (inputs []float32, labels []float32, err error)
}

// Monte holds the reference examples in memory and answers queries against
// them.
type Monte struct {
	K int
	// Categorical switches pooling from the mean of the sampled targets to a
	// vote over their first value, a category code.
	Categorical bool
	// Decode, when set, maps a target to raw units; Evaluate then also
	// reports RawMSE.
	Decode func(targets []float32) ([]float64, error)

	inputs [][]float32
	labels [][]float32
	rng    *rand.Rand
	mu     sync.Mutex
}

// Score summarizes an evaluation. MSE and RawMSE are averaged over every
// target value; RawMSE needs Decode. Accuracy is only set for categorical
// baselines.
type Score struct {
	N        int
	MSE      float64
	RawMSE   float64
	Accuracy float64
	// Errors holds the per-example squared error, or 0/1 misses for
	// categorical baselines, in evaluation order.
	Errors []float64
}

// NewMonte reads every example of ds into memory. k must be >= 1.
func NewMonte(ctx context.Context, ds Dataset, k int, seed int64) (*Monte, error) {
	if ds == nil {
		return nil, errors.New("dataset cannot be nil")
	}
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}
	n := ds.Len()
	if n == 0 {
		return nil, errors.New("reference dataset is empty")
	}
	m := &Monte{
		K:      k,
		inputs: make([][]float32, n),
		labels: make([][]float32, n),
		rng:    rand.New(rand.NewSource(seed)),
	}

	jobs := make(chan int, n)
	errs := make(chan error, 1)
	workerCount := min(runtime.NumCPU(), n)
	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				in, la, err := ds.Example(i)
				if err != nil {
					select {
					case errs <- fmt.Errorf("reference example %d: %w", i, err):
					default:
					}
					continue
				}
				// each worker writes distinct indices
				m.inputs[i], m.labels[i] = in, la
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case err := <-errs:
		return nil, err
	default:
	}
	return m, nil
}

// Len is the number of reference examples.
func (m *Monte) Len() int { return len(m.inputs) }

// Predict samples numSims neighbours of input and returns the mean of their
// targets.
func (m *Monte) Predict(input []float32, numSims int) ([]float32, error) {
	picks, err := m.sample(input, numSims)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(m.labels[picks[0]]))
	for _, idx := range picks {
		la := m.labels[idx]
		if len(la) != len(out) {
			return nil, fmt.Errorf("reference example %d has %d targets, want %d", idx, len(la), len(out))
		}
		for j, v := range la {
			out[j] += float64(v)
		}
	}
	pred := make([]float32, len(out))
	for j, v := range out {
		pred[j] = float32(v / float64(len(picks)))
	}
	return pred, nil
}

// Vote samples numSims neighbours of input and returns the most frequent
// category code among them. Ties go to the smaller code.
func (m *Monte) Vote(input []float32, numSims int) (int, error) {
	picks, err := m.sample(input, numSims)
	if err != nil {
		return 0, err
	}
	counts := map[int]int{}
	for _, idx := range picks {
		if len(m.labels[idx]) == 0 {
			return 0, fmt.Errorf("reference example %d has no category code", idx)
		}
		counts[int(m.labels[idx][0])]++
	}
	best, bestCount := 0, -1
	for code, c := range counts {
		if c > bestCount || (c == bestCount && code < best) {
			best, bestCount = code, c
		}
	}
	return best, nil
}

// Evaluate scores the baseline on up to limit examples of ds; limit <= 0
// evaluates all of them.
func (m *Monte) Evaluate(ctx context.Context, ds Dataset, numSims, limit int) (*Score, error) {
	n := ds.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	if n == 0 {
		return nil, errors.New("evaluation dataset is empty")
	}
	s := &Score{N: n, Errors: make([]float64, n)}
	var sum, rawSum float64
	var values, hits int
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		in, la, err := ds.Example(i)
		if err != nil {
			return nil, fmt.Errorf("example %d: %w", i, err)
		}
		if m.Categorical {
			code, err := m.Vote(in, numSims)
			if err != nil {
				return nil, err
			}
			if len(la) > 0 && code == int(la[0]) {
				hits++
			} else {
				s.Errors[i] = 1
			}
			continue
		}
		pred, err := m.Predict(in, numSims)
		if err != nil {
			return nil, err
		}
		s.Errors[i] = SquaredError(pred, la)
		sum += s.Errors[i]
		values += len(la)
		if m.Decode != nil {
			d, err := RawSquaredError(m.Decode, pred, la)
			if err != nil {
				return nil, fmt.Errorf("decode example %d: %w", i, err)
			}
			rawSum += d
		}
	}
	if m.Categorical {
		s.Accuracy = float64(hits) / float64(n)
	} else if values > 0 {
		s.MSE = sum / float64(values)
		s.RawMSE = rawSum / float64(values)
	}
	return s, nil
}

// SquaredError is the summed squared difference of two equal-length vectors.
func SquaredError(pred, target []float32) float64 {
	return euclideanDistanceSquared(pred, target)
}

// RawSquaredError decodes pred and target and returns their summed squared
// difference in raw units.
func RawSquaredError(decode func([]float32) ([]float64, error), pred, target []float32) (float64, error) {
	p, err := decode(pred)
	if err != nil {
		return 0, err
	}
	t, err := decode(target)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < len(p) && i < len(t); i++ {
		d := p[i] - t[i]
		sum += d * d
	}
	return sum, nil
}

// sample draws numSims neighbour indices with probability proportional to
// inverse distance.
func (m *Monte) sample(input []float32, numSims int) ([]int, error) {
	if numSims <= 0 {
		return nil, fmt.Errorf("numSims must be > 0")
	}
	neighbors, err := m.knnNeighbors(input, m.K)
	if err != nil {
		return nil, err
	}

	const eps = 1e-6
	weights := make([]float64, len(neighbors))
	var totalWeight float64
	for i, nb := range neighbors {
		weights[i] = 1.0 / (nb.distance + eps)
		totalWeight += weights[i]
	}

	picks := make([]int, numSims)
	m.mu.Lock()
	defer m.mu.Unlock()
	for s := range picks {
		target := m.rng.Float64() * totalWeight
		acc := 0.0
		choice := len(neighbors) - 1
		for i, w := range weights {
			acc += w
			if target <= acc {
				choice = i
				break
			}
		}
		picks[s] = neighbors[choice].idx
	}
	return picks, nil
}

type neighbor struct {
	idx      int
	distance float64
}

// knnNeighbors is a linear scan over the reference examples. It returns up to
// k neighbours sorted by increasing distance, ties broken by index.
func (m *Monte) knnNeighbors(input []float32, k int) ([]neighbor, error) {
	if len(m.inputs) == 0 {
		return nil, errors.New("reference dataset is empty")
	}
	candidates := make([]neighbor, 0, len(m.inputs))
	for i, ref := range m.inputs {
		if len(ref) != len(input) {
			return nil, fmt.Errorf("query has %d inputs, reference example %d has %d", len(input), i, len(ref))
		}
		candidates = append(candidates, neighbor{idx: i, distance: math.Sqrt(euclideanDistanceSquared(input, ref))})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	return candidates[:min(k, len(candidates))], nil
}

func euclideanDistanceSquared(a, b []float32) float64 {
	sum := 0.0
	for i := 0; i < len(a) && i < len(b); i++ {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return sum
}
