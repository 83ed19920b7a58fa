package main

// compare scores a trained checkpoint against the nearest-neighbour Monte
// Carlo baseline on the validation split of the configured dataset. It writes
// per-example errors to <out>/compare.csv and plots them to
// <out>/compare_errors.png.
//
// Usage:
//   go run ./cmd/compare -config configs/relative.yaml -k 8 -sims 60

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Noofbiz/vrmotion/config"
	"github.com/Noofbiz/vrmotion/datasets"
	"github.com/Noofbiz/vrmotion/monte"
	"github.com/Noofbiz/vrmotion/pkg/logger"
	"github.com/Noofbiz/vrmotion/pkg/metrics"
	"github.com/Noofbiz/vrmotion/scaler"
	"github.com/Noofbiz/vrmotion/simple"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file (defaults to $VRMOTION_CONFIG)")
	checkpointPath := flag.String("checkpoint", "", "checkpoint to evaluate (defaults to <model_path>/checkpoints/model_final.gob)")
	monteK := flag.Int("k", 8, "number of nearest neighbours the baseline samples from")
	monteSims := flag.Int("sims", 60, "number of neighbour draws per query")
	evalN := flag.Int("eval-n", 300, "number of validation examples to evaluate (0 = all)")
	outDir := flag.String("out", "", "output directory (defaults to <model_path>/compare)")
	flag.Parse()

	ctx := context.Background()
	if err := logger.Init(); err != nil {
		panic(err)
	}
	log := logger.Named("compare")

	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		log.Fatal(ctx, "failed to load config", logger.Error(err))
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log level, keeping info", logger.Error(err))
	}
	if *checkpointPath == "" {
		*checkpointPath = filepath.Join(cfg.ModelPath, "checkpoints", "model_final.gob")
	}
	if *outDir == "" {
		*outDir = filepath.Join(cfg.ModelPath, "compare")
	}

	ckpt, err := simple.LoadCheckpoint(*checkpointPath)
	if err != nil {
		log.Fatal(ctx, "failed to load checkpoint", logger.Error(err))
	}
	model, err := ckpt.Model()
	if err != nil {
		log.Fatal(ctx, "failed to rebuild model", logger.Error(err))
	}
	log.Info(ctx, "checkpoint loaded",
		logger.String("path", *checkpointPath),
		logger.String("run_id", ckpt.RunID),
		logger.Int("epoch", ckpt.Epoch))

	opts, err := datasets.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatal(ctx, "invalid data_type", logger.Error(err))
	}
	ds, err := datasets.NewBuilder(log, metrics.NewManager()).Build(ctx, cfg.DatasetPath, opts)
	if err != nil {
		log.Fatal(ctx, "failed to build dataset", logger.Error(err))
	}
	checkArtifact(ctx, log, ds, filepath.Join(cfg.ModelPath, "scaler.json"))

	train, valid, err := datasets.RandomSplit(ds, cfg.TrainRatio, cfg.Seed)
	if err != nil {
		log.Fatal(ctx, "failed to split dataset", logger.Error(err))
	}
	if valid.Len() == 0 {
		log.Fatal(ctx, "validation split is empty", logger.Float64("train_ratio", cfg.TrainRatio))
	}

	_, categorical := ds.(datasets.Categorical)
	baseline, err := monte.NewMonte(ctx, train, *monteK, cfg.Seed)
	if err != nil {
		log.Fatal(ctx, "failed to create monte baseline", logger.Error(err))
	}
	baseline.Categorical = categorical
	var decode func([]float32) ([]float64, error)
	if dec, ok := ds.(datasets.Decoder); ok && !categorical {
		decode = dec.DecodeTargets
	}
	baseline.Decode = decode
	monteScore, err := baseline.Evaluate(ctx, valid, *monteSims, *evalN)
	if err != nil {
		log.Fatal(ctx, "baseline evaluation failed", logger.Error(err))
	}
	modelScore, err := evaluateModel(model, valid, monteScore.N, categorical, decode)
	if err != nil {
		log.Fatal(ctx, "model evaluation failed", logger.Error(err))
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatal(ctx, "failed to create output directory", logger.Error(err))
	}
	csvPath := filepath.Join(*outDir, "compare.csv")
	if err := writeErrors(csvPath, modelScore.Errors, monteScore.Errors); err != nil {
		log.Fatal(ctx, "failed to write comparison csv", logger.Error(err))
	}
	plotPath := filepath.Join(*outDir, "compare_errors.png")
	if err := plotCompare(plotPath, modelScore.Errors, monteScore.Errors, categorical); err != nil {
		log.Warn(ctx, "comparison plot not written", logger.Error(err))
	}

	if categorical {
		log.Info(ctx, "comparison finished",
			logger.Int("examples", modelScore.N),
			logger.Float64("model_accuracy", modelScore.Accuracy),
			logger.Float64("monte_accuracy", monteScore.Accuracy),
			logger.String("csv", csvPath))
		return
	}
	log.Info(ctx, "comparison finished",
		logger.Int("examples", modelScore.N),
		logger.Float64("model_rmse", math.Sqrt(modelScore.MSE)),
		logger.Float64("monte_rmse", math.Sqrt(monteScore.MSE)),
		logger.Float64("model_raw_rmse", math.Sqrt(modelScore.RawMSE)),
		logger.Float64("monte_raw_rmse", math.Sqrt(monteScore.RawMSE)),
		logger.String("csv", csvPath))
}

// checkArtifact warns when the scaler written next to the checkpoint no
// longer matches the one fit on the current data.
func checkArtifact(ctx context.Context, log logger.Logger, ds datasets.Dataset, path string) {
	saved, err := scaler.Load(path)
	if err != nil {
		log.Warn(ctx, "scaler artifact not readable", logger.String("path", path), logger.Error(err))
		return
	}
	current, err := ds.Artifact()
	if err != nil {
		log.Warn(ctx, "dataset artifact unavailable", logger.Error(err))
		return
	}
	if !saved.Matches(current) {
		log.Warn(ctx, "dataset no longer matches the saved scaler; errors are not comparable to training")
	}
}

// evaluateModel scores the first n examples of ds the way monte.Evaluate
// scores the baseline. decode may be nil.
func evaluateModel(m simple.Model, ds datasets.Dataset, n int, categorical bool, decode func([]float32) ([]float64, error)) (*monte.Score, error) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	inputs, targets, err := ds.Batch(idx)
	if err != nil {
		return nil, err
	}
	s := &monte.Score{N: n, Errors: make([]float64, n)}
	if categorical {
		codes, err := simple.Classify(m, inputs)
		if err != nil {
			return nil, err
		}
		hits := 0
		for i, c := range codes {
			if float32(c) == targets[i][0] {
				hits++
			} else {
				s.Errors[i] = 1
			}
		}
		s.Accuracy = float64(hits) / float64(n)
		return s, nil
	}
	preds, err := m.PredictBatch(inputs)
	if err != nil {
		return nil, err
	}
	var sum, rawSum float64
	var values int
	for i := range preds {
		s.Errors[i] = monte.SquaredError(preds[i], targets[i])
		sum += s.Errors[i]
		values += len(targets[i])
		if decode != nil {
			d, err := monte.RawSquaredError(decode, preds[i], targets[i])
			if err != nil {
				return nil, fmt.Errorf("decode example %d: %w", i, err)
			}
			rawSum += d
		}
	}
	if values > 0 {
		s.MSE = sum / float64(values)
		s.RawMSE = rawSum / float64(values)
	}
	return s, nil
}

func writeErrors(path string, model, baseline []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"example", "model_error", "monte_error"}); err != nil {
		return err
	}
	for i := range model {
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(model[i], 'f', 6, 64),
			strconv.FormatFloat(baseline[i], 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// plotCompare draws the per-example errors of the model (blue) and the
// baseline (red).
func plotCompare(path string, model, baseline []float64, categorical bool) error {
	p := plot.New()
	p.Title.Text = "Validation error per example: model (blue), monte (red)"
	p.X.Label.Text = "example"
	p.Y.Label.Text = "squared error"
	if categorical {
		p.Y.Label.Text = "miss"
	}

	series := []struct {
		name   string
		errs   []float64
		color  color.Color
		radius vg.Length
	}{
		{"model", model, color.RGBA{R: 20, G: 80, B: 200, A: 220}, vg.Points(2.4)},
		{"monte", baseline, color.RGBA{R: 200, G: 30, B: 30, A: 180}, vg.Points(1.8)},
	}
	var all plotter.XYs
	for _, s := range series {
		xys := make(plotter.XYs, len(s.errs))
		for i, e := range s.errs {
			xys[i] = plotter.XY{X: float64(i), Y: e}
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("create %s scatter: %w", s.name, err)
		}
		sc.GlyphStyle.Color = s.color
		sc.GlyphStyle.Radius = s.radius
		p.Add(sc)
		p.Legend.Add(s.name, sc)
		all = append(all, xys...)
	}
	p.Add(plotter.NewGrid())
	p.X.Min, p.X.Max, p.Y.Min, p.Y.Max = autoRange(all)

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}

// autoRange computes padded min/max for X and Y for a set of points.
func autoRange(xs plotter.XYs) (xmin, xmax, ymin, ymax float64) {
	if len(xs) == 0 {
		return -1, 1, -1, 1
	}
	xmin, xmax = math.Inf(1), math.Inf(-1)
	ymin, ymax = math.Inf(1), math.Inf(-1)
	for _, p := range xs {
		xmin, xmax = math.Min(xmin, p.X), math.Max(xmax, p.X)
		ymin, ymax = math.Min(ymin, p.Y), math.Max(ymax, p.Y)
	}
	padx := (xmax - xmin) * 0.06
	pady := (ymax - ymin) * 0.06
	if padx == 0 {
		padx = 1.0
	}
	if pady == 0 {
		pady = 1.0
	}
	return xmin - padx, xmax + padx, ymin - pady, ymax + pady
}
