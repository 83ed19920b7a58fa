package main

// train builds the configured dataset, writes its scaler artifact, splits it
// into training and validation sets and trains the default MLP. Checkpoints
// land in <model_path>/checkpoints every checkpoint_every epochs and the best
// validation weights are exported as model_final.gob and model_final.json.
//
// Usage:
//   go run ./cmd/train -config configs/relative.yaml

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/Noofbiz/vrmotion/config"
	"github.com/Noofbiz/vrmotion/datasets"
	"github.com/Noofbiz/vrmotion/pkg/logger"
	"github.com/Noofbiz/vrmotion/pkg/metrics"
	"github.com/Noofbiz/vrmotion/simple"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file (defaults to $VRMOTION_CONFIG)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := logger.Init(); err != nil {
		panic(err)
	}
	log := logger.Named("train")

	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		log.Fatal(ctx, "failed to load config", logger.Error(err))
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log level, keeping info", logger.Error(err))
	}

	opts, err := datasets.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatal(ctx, "invalid data_type", logger.Error(err))
	}
	m := metrics.NewManager()
	defer func() {
		if cfg.MetricsPath == "" {
			return
		}
		if err := m.WriteTextfile(cfg.MetricsPath); err != nil {
			log.Error(ctx, "failed to write metrics", logger.Error(err))
		}
	}()

	ds, err := datasets.NewBuilder(log, m).Build(ctx, cfg.DatasetPath, opts)
	if err != nil {
		log.Fatal(ctx, "failed to build dataset", logger.Error(err))
	}

	model, err := newModel(cfg, ds)
	if err != nil {
		log.Fatal(ctx, "failed to create model", logger.Error(err))
	}
	optimizer, err := simple.NewOptimizer(cfg.Optimizer, cfg.LearningRate)
	if err != nil {
		log.Fatal(ctx, "failed to create optimizer", logger.Error(err))
	}
	trainer := simple.NewTrainer(model, optimizer, simple.TrainConfig{
		Epochs:          cfg.Epochs,
		BatchSize:       cfg.BatchSize,
		L2Lambda:        cfg.L2Lambda,
		CheckpointEvery: cfg.CheckpointEvery,
		ClipNorm:        cfg.ClipNorm,
		OutputDir:       cfg.ModelPath,
		Seed:            cfg.Seed,
	}, log, m)

	// the scaler is written before training so an interrupted run still
	// leaves a usable artifact next to its checkpoints
	scalerPath := filepath.Join(cfg.ModelPath, "scaler.json")
	a, err := datasets.SaveArtifact(ds, scalerPath)
	if err != nil {
		log.Fatal(ctx, "failed to write scaler", logger.Error(err))
	}
	m.ScalerFeatures(len(a.Scalers))
	log.Info(ctx, "scaler written", logger.String("path", scalerPath), logger.String("run_id", trainer.RunID))

	// examples are materialized once; windows are otherwise rebuilt on every
	// epoch
	var source datasets.Dataset = ds
	if cfg.Workers != 1 || cfg.CachePath != "" {
		p := datasets.NewPrecomputed(ds, cfg.Workers, log)
		if cfg.CachePath == "" || p.LoadCache(cfg.CachePath) != nil {
			if err := p.Precompute(ctx); err != nil {
				log.Fatal(ctx, "failed to precompute examples", logger.Error(err))
			}
			if cfg.CachePath != "" {
				if err := p.SaveCache(ctx, cfg.CachePath); err != nil {
					log.Warn(ctx, "failed to save example cache", logger.Error(err))
				}
			}
		}
		source = p
	}

	train, valid, err := datasets.RandomSplit(source, cfg.TrainRatio, cfg.Seed)
	if err != nil {
		log.Fatal(ctx, "failed to split dataset", logger.Error(err))
	}
	m.SplitSizes(train.Len(), valid.Len())

	if _, err := trainer.Train(ctx, train, valid); err != nil {
		log.Error(ctx, "training failed", logger.Error(err))
		return
	}
	log.Info(ctx, "final model written", logger.String("path", trainer.CheckpointPath(-1, ".gob")))
}

// newModel sizes the MLP from the dataset: flattened inputs, flattened
// targets for regression and one output per category for classification.
func newModel(cfg *config.Config, ds datasets.Dataset) (*simple.MLP, error) {
	mc := simple.Config{
		HiddenSizes: cfg.HiddenSizes,
		InputDim:    product(ds.InputShape()),
		OutputDim:   product(ds.LabelShape()),
		Seed:        cfg.Seed,
	}
	if c, ok := ds.(datasets.Categorical); ok {
		mc.Objective = simple.CrossEntropy
		mc.OutputDim = c.Vocabulary().Len()
	}
	return simple.NewMLP(mc)
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
