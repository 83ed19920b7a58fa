package datasets

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Noofbiz/vrmotion/pkg/logger"
	"github.com/Noofbiz/vrmotion/scaler"
)

// cacheVersion is incremented when the on-disk cache format changes.
const cacheVersion = 1

// Precomputed wraps a dataset and holds every example in memory. It is
// filled by Precompute or LoadCache.
type Precomputed struct {
	base

	parent   Dataset
	Workers  int
	Progress time.Duration
	Log      logger.Logger

	precomputed bool
	inputs      [][]float32
	labels      [][]float32
}

// NewPrecomputed wraps ds. Workers <= 0 uses runtime.NumCPU().
func NewPrecomputed(ds Dataset, workers int, log logger.Logger) *Precomputed {
	if log == nil {
		log = logger.Nop()
	}
	p := &Precomputed{
		base:     newBase(ds.Name(), 0),
		parent:   ds,
		Workers:  workers,
		Progress: 3 * time.Second,
		Log:      log,
	}
	p.n = ds.Len()
	p.inputShape = ds.InputShape()
	p.labelShape = ds.LabelShape()
	p.fetch = func(i int) ([]float32, []float32, error) {
		if !p.precomputed {
			return p.parent.Example(i)
		}
		return p.inputs[i], p.labels[i], nil
	}
	return p
}

// Artifact returns the parent's artifact.
func (p *Precomputed) Artifact() (*scaler.Artifact, error) { return p.parent.Artifact() }

// Precompute materializes every example with a small worker pool. Results
// are written into pre-allocated slices at their example index. The first
// worker error aborts the run.
func (p *Precomputed) Precompute(ctx context.Context) error {
	if p.precomputed {
		return nil
	}
	n := p.n
	inputs := make([][]float32, n)
	targets := make([][]float32, n)
	if n == 0 {
		p.inputs, p.labels, p.precomputed = inputs, targets, true
		return nil
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	jobs := make(chan int, n)
	errCh := make(chan error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)

	var done int64
	interval := p.Progress
	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	stopProgress := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d := atomic.LoadInt64(&done)
				p.Log.Info(ctx, "precompute progress",
					logger.Int("done", int(d)), logger.Int("total", n),
					logger.Float64("percent", float64(d)/float64(n)*100))
			case <-stopProgress:
				return
			}
		}
	}()

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					errCh <- err
					return
				}
				in, la, err := p.parent.Example(i)
				if err != nil {
					errCh <- fmt.Errorf("read example %d: %w", i, err)
					return
				}
				inputs[i] = in
				targets[i] = la
				atomic.AddInt64(&done, 1)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(stopProgress)
	close(errCh)

	if err := <-errCh; err != nil {
		return err
	}
	p.inputs, p.labels, p.precomputed = inputs, targets, true
	p.Log.Info(ctx, "precompute completed", logger.Int("examples", n), logger.Int("workers", workers))
	return nil
}

// cacheFormat is the on-disk representation of precomputed examples.
type cacheFormat struct {
	Version    int
	Name       string
	InputShape []int
	LabelShape []int
	CreatedAt  int64
	Inputs     [][]float32
	Labels     [][]float32
}

// SaveCache writes the precomputed examples to path with encoding/gob,
// precomputing first if needed. The file is written to a temp file in the
// same directory and renamed into place.
func (p *Precomputed) SaveCache(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("empty cache path")
	}
	if err := p.Precompute(ctx); err != nil {
		return fmt.Errorf("precompute before save: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	c := cacheFormat{
		Version:    cacheVersion,
		Name:       p.name,
		InputShape: p.inputShape,
		LabelShape: p.labelShape,
		CreatedAt:  time.Now().Unix(),
		Inputs:     p.inputs,
		Labels:     p.labels,
	}
	if err := gob.NewEncoder(tmp).Encode(&c); err != nil {
		tmp.Close()
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename cache: %w", err)
	}
	return nil
}

// LoadCache fills the examples from a cache written by SaveCache. The cache
// must match the version, example count and shapes of the wrapped dataset.
func (p *Precomputed) LoadCache(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer f.Close()

	var c cacheFormat
	if err := gob.NewDecoder(f).Decode(&c); err != nil {
		return fmt.Errorf("decode cache %s: %w", path, err)
	}
	switch {
	case c.Version != cacheVersion:
		return fmt.Errorf("cache %s has version %d, want %d", path, c.Version, cacheVersion)
	case len(c.Inputs) != p.n || len(c.Labels) != p.n:
		return fmt.Errorf("cache %s holds %d examples, dataset has %d", path, len(c.Inputs), p.n)
	case !slices.Equal(c.InputShape, p.inputShape) || !slices.Equal(c.LabelShape, p.labelShape):
		return fmt.Errorf("cache %s shapes %v/%v do not match %v/%v", path, c.InputShape, c.LabelShape, p.inputShape, p.labelShape)
	}
	p.inputs, p.labels, p.precomputed = c.Inputs, c.Labels, true
	return nil
}
