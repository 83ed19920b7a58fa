package simple

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// ParamState is the persisted value of one parameter.
type ParamState struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Value []float32 `json:"values"`
}

// Checkpoint is a copy of a model's weights at the end of an epoch.
type Checkpoint struct {
	RunID  string       `json:"run_id"`
	Epoch  int          `json:"epoch"`
	Graph  Graph        `json:"graph"`
	Params []ParamState `json:"params"`
}

// Snapshot copies the current weights of m.
func Snapshot(m Model, runID string, epoch int) *Checkpoint {
	c := &Checkpoint{RunID: runID, Epoch: epoch, Graph: m.Graph()}
	for _, p := range m.Params() {
		c.Params = append(c.Params, ParamState{
			Name:  p.Name,
			Shape: slices.Clone(p.Shape),
			Value: slices.Clone(p.Value),
		})
	}
	return c
}

// Restore writes the checkpoint weights back into m. Every parameter must
// match by name and shape.
func (c *Checkpoint) Restore(m Model) error {
	params := m.Params()
	if len(params) != len(c.Params) {
		return fmt.Errorf("checkpoint holds %d parameters, model has %d", len(c.Params), len(params))
	}
	for i, p := range params {
		s := c.Params[i]
		if s.Name != p.Name || !slices.Equal(s.Shape, p.Shape) || len(s.Value) != len(p.Value) {
			return fmt.Errorf("checkpoint parameter %s%v does not match %s%v", s.Name, s.Shape, p.Name, p.Shape)
		}
		copy(p.Value, s.Value)
	}
	return nil
}

// Save writes the checkpoint with encoding/gob.
func (c *Checkpoint) Save(path string) error {
	return writeAtomic(path, func(f *os.File) error {
		return gob.NewEncoder(f).Encode(c)
	})
}

// ExportGraph writes the computation graph and its weights as JSON so the
// model can be rebuilt outside of Go.
func (c *Checkpoint) ExportGraph(path string) error {
	return writeAtomic(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	})
}

// LoadCheckpoint reads a checkpoint written by Save.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer f.Close()
	var c Checkpoint
	if err := gob.NewDecoder(f).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", path, err)
	}
	return &c, nil
}

// writeAtomic writes to a temp file in the same directory and renames it
// into place.
func writeAtomic(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Model rebuilds the MLP a checkpoint was taken from and loads its weights.
func (c *Checkpoint) Model() (*MLP, error) {
	g := c.Graph
	if g.Kind != "mlp" || len(g.Layers) == 0 {
		return nil, fmt.Errorf("checkpoint graph %q with %d layers is not an mlp", g.Kind, len(g.Layers))
	}
	cfg := Config{InputDim: g.InputDim, OutputDim: g.OutputDim}
	if g.Objective == CrossEntropy.String() {
		cfg.Objective = CrossEntropy
	}
	for _, l := range g.Layers[:len(g.Layers)-1] {
		cfg.HiddenSizes = append(cfg.HiddenSizes, l.Out)
	}
	m, err := NewMLP(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Restore(m); err != nil {
		return nil, err
	}
	return m, nil
}
