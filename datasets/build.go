package datasets

import (
	"context"
	"fmt"
	"time"

	"github.com/Noofbiz/vrmotion/config"
	"github.com/Noofbiz/vrmotion/features"
	"github.com/Noofbiz/vrmotion/pkg/logger"
	"github.com/Noofbiz/vrmotion/pkg/metrics"
	"github.com/Noofbiz/vrmotion/scaler"
)

// Options holds the construction parameters of every dataset type.
type Options struct {
	Selector Selector
	Range    scaler.Range

	// Windowing.
	LookBack int
	Step     int

	// Pointwise selects PointDataset over SequenceDataset for regression.
	Pointwise bool

	// Gesture.
	GestureWindows bool
	GestureSteps   int
	Threshold      int
	PerFileScaling bool

	// Grab.
	RowsPerGrab int
	NoneLabel   string

	// Typing.
	KeySentinel string
	Hand        string

	Seed      int64
	BatchSize int
}

// OptionsFromConfig resolves the selector and scaling range of a config.
// The pointwise regression dataset uses the point feature range.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	sel, err := ParseSelector(cfg.DataType)
	if err != nil {
		return Options{}, err
	}
	r := scaler.Range{Min: cfg.FeatureMin, Max: cfg.FeatureMax}
	if sel.Regression() && cfg.Pointwise {
		r = scaler.Range{Min: cfg.PointFeatureMin, Max: cfg.PointFeatureMax}
	}
	return Options{
		Selector:       sel,
		Range:          r,
		LookBack:       cfg.LookBack,
		Step:           cfg.StepValue,
		Pointwise:      cfg.Pointwise,
		GestureWindows: cfg.GestureWindows,
		GestureSteps:   cfg.GestureSteps,
		Threshold:      cfg.ProximityThreshold,
		PerFileScaling: cfg.PerFileScaling,
		RowsPerGrab:    cfg.RowsPerGrab,
		NoneLabel:      cfg.NoneLabel,
		KeySentinel:    cfg.KeySentinel,
		Hand:           cfg.Hand,
		Seed:           cfg.Seed,
		BatchSize:      cfg.BatchSize,
	}, nil
}

func (o Options) layoutOptions() LayoutOptions {
	return LayoutOptions{GestureSteps: o.GestureSteps, Hand: o.Hand}
}

// readOptions returns how the capture files of the selector are parsed.
func (o Options) readOptions() ReadOptions {
	r := ReadOptions{Drop: []string{TimestampColumn}}
	switch o.Selector {
	case Gesture, Grab:
		r.LabelColumn = GestureColumn
	case TypingEnd, TypingStartEnd:
		r.LabelColumn = KeyColumn
		if o.Hand != "" {
			r.HandColumn = HandColumn
		}
	}
	return r
}

// New builds the dataset the options select from already-read tables.
func New(tables []*features.Table, opts Options) (Dataset, error) {
	var (
		ds  Dataset
		err error
	)
	switch opts.Selector {
	case Euler, Quaternion, Both, Relative:
		if opts.Pointwise {
			ds, err = NewPointDataset(tables, opts)
		} else {
			ds, err = NewSequenceDataset(tables, opts)
		}
	case Gesture:
		if opts.GestureWindows {
			ds, err = NewGestureWindowDataset(tables, opts)
		} else {
			ds, err = NewGestureSequenceDataset(tables, opts)
		}
	case Grab:
		ds, err = NewGrabDataset(tables, opts)
	case TypingEnd, TypingStartEnd:
		ds, err = NewTypingDataset(tables, opts)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownSelector, opts.Selector)
	}
	if err != nil {
		return nil, err
	}
	if opts.BatchSize > 0 {
		ds.SetBatchSize(opts.BatchSize)
	}
	return ds, nil
}

// Builder reads a capture directory and builds a dataset, logging and
// recording what it read.
type Builder struct {
	Log     logger.Logger
	Metrics *metrics.Manager
}

// NewBuilder returns a builder. A nil logger discards output and a nil
// manager records into a private registry.
func NewBuilder(log logger.Logger, m *metrics.Manager) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	if m == nil {
		m = metrics.NewManager()
	}
	return &Builder{Log: log, Metrics: m}
}

// Build reads every CSV of dir and builds the selected dataset.
func (b *Builder) Build(ctx context.Context, dir string, opts Options) (Dataset, error) {
	start := time.Now()
	paths, err := listCSV(dir)
	if err != nil {
		return nil, err
	}
	ro := opts.readOptions()
	tables := make([]*features.Table, 0, len(paths))
	for _, p := range paths {
		t, err := ReadTable(p, ro)
		if err != nil {
			return nil, err
		}
		b.Log.Debug(ctx, "read capture", logger.String("file", t.Name), logger.Int("rows", t.Len()))
		b.Metrics.FileRead(t.Len())
		tables = append(tables, t)
	}

	ds, err := New(tables, opts)
	if err != nil {
		return nil, fmt.Errorf("build %v dataset from %s: %w", opts.Selector, dir, err)
	}

	elapsed := time.Since(start)
	b.Metrics.BuildDuration(elapsed)
	b.Metrics.ExamplesBuilt(opts.Selector.String(), ds.Len())
	b.Log.Info(ctx, "dataset built",
		logger.String("dataset", ds.Name()),
		logger.Int("files", len(tables)),
		logger.Int("examples", ds.Len()),
		logger.Any("input_shape", ds.InputShape()),
		logger.Duration("elapsed", elapsed))

	if counted, ok := ds.(interface{ Counts() map[string]int }); ok {
		counts := counted.Counts()
		b.Metrics.LabelCounts(counts)
		b.Log.Info(ctx, "label statistics", logger.Any("counts", counts))
	}
	return ds, nil
}

// SaveArtifact writes the scaler state and vocabulary of ds to path. The
// bytes depend only on the corpus and the fit.
func SaveArtifact(ds Dataset, path string) (*scaler.Artifact, error) {
	a, err := ds.Artifact()
	if err != nil {
		return nil, fmt.Errorf("scaler artifact of %s: %w", ds.Name(), err)
	}
	if err := a.Save(path); err != nil {
		return nil, err
	}
	return a, nil
}
