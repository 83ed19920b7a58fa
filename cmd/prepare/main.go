package main

// prepare builds the dataset a configuration selects, writes the fitted
// scaler and label vocabulary to <model_path>/scaler.json and, when
// cache_path is set, materializes every example into a gob cache.
//
// Usage:
//   go run ./cmd/prepare -config configs/relative.yaml
//
// Every configuration key can be overridden with VRMOTION_<KEY>.

import (
	"context"
	"flag"
	"path/filepath"

	"github.com/Noofbiz/vrmotion/config"
	"github.com/Noofbiz/vrmotion/datasets"
	"github.com/Noofbiz/vrmotion/pkg/logger"
	"github.com/Noofbiz/vrmotion/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file (defaults to $VRMOTION_CONFIG)")
	force := flag.Bool("force", false, "recompute the example cache even if it exists")
	flag.Parse()

	ctx := context.Background()
	if err := logger.Init(); err != nil {
		panic(err)
	}
	log := logger.Named("prepare")

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
	ds, err := datasets.NewBuilder(log, m).Build(ctx, cfg.DatasetPath, opts)
	if err != nil {
		log.Fatal(ctx, "failed to build dataset", logger.Error(err))
	}

	scalerPath := filepath.Join(cfg.ModelPath, "scaler.json")
	a, err := datasets.SaveArtifact(ds, scalerPath)
	if err != nil {
		log.Fatal(ctx, "failed to write scaler", logger.Error(err))
	}
	m.ScalerFeatures(len(a.Scalers))
	log.Info(ctx, "scaler written",
		logger.String("path", scalerPath),
		logger.Int("features", len(a.Scalers)),
		logger.Int("files", len(a.Files)),
		logger.Int("labels", len(a.Labels)))

	if cfg.CachePath != "" {
		p := datasets.NewPrecomputed(ds, cfg.Workers, log)
		current := false
		if !*force {
			if err := p.LoadCache(cfg.CachePath); err != nil {
				log.Info(ctx, "example cache not usable, computing", logger.Error(err))
			} else {
				current = true
				log.Info(ctx, "example cache is current", logger.String("path", cfg.CachePath))
			}
		}
		if !current {
			if err := p.SaveCache(ctx, cfg.CachePath); err != nil {
				log.Fatal(ctx, "failed to write example cache", logger.Error(err))
			}
			log.Info(ctx, "example cache written", logger.String("path", cfg.CachePath), logger.Int("examples", p.Len()))
		}
	}

	if cfg.MetricsPath != "" {
		if err := m.WriteTextfile(cfg.MetricsPath); err != nil {
			log.Error(ctx, "failed to write metrics", logger.Error(err))
		}
	}
}
