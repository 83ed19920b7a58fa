// Package config defines the dataset-preparation and training configuration.
//
// A Config is built once (defaults, then an optional YAML file, then
// VRMOTION_* environment variables) and handed to the dataset builders and
// the training driver. Nothing reads configuration from package state.
package config

import (
	"context"
	"fmt"
)

// Config contains the process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DataType selects the task and output schema (euler, quaternion, both,
	// relative, relative_svm, hacklstm, gesture, grab, end, start+end).
	DataType string `koanf:"data_type"`

	// DatasetPath is the directory holding the capture CSVs.
	DatasetPath string `koanf:"dataset_path"`

	// ModelPath receives scaler.json, checkpoints and the final export.
	ModelPath string `koanf:"model_path"`

	// LookBack and StepValue configure the windower.
	LookBack  int `koanf:"look_back"`
	StepValue int `koanf:"step_value"`

	// FeatureMin/FeatureMax is the scaler target range of the sequence and
	// classification datasets.
	FeatureMin float64 `koanf:"feature_min"`
	FeatureMax float64 `koanf:"feature_max"`

	// PointFeatureMin/PointFeatureMax is the target range of the pointwise
	// regression dataset.
	PointFeatureMin float64 `koanf:"point_feature_min"`
	PointFeatureMax float64 `koanf:"point_feature_max"`

	// Pointwise builds the per-row regression dataset instead of windows for
	// the euler/quaternion/both/relative selectors.
	Pointwise bool `koanf:"pointwise"`

	// ProximityThreshold is the event radius, in rows, of the gesture window labeler.
	ProximityThreshold int `koanf:"proximity_threshold"`

	// GestureWindows selects the proximity-labeled stream variant for the
	// gesture selector instead of the pre-windowed captures.
	GestureWindows bool `koanf:"gesture_windows"`

	// GestureSteps is the number of suffixed timesteps in pre-windowed
	// gesture captures.
	GestureSteps int `koanf:"gesture_steps"`

	// PerFileScaling fits one scaler per file in the gesture window variant.
	PerFileScaling bool `koanf:"per_file_scaling"`

	// RowsPerGrab is the number of rows preceding a grab marker kept in its span.
	RowsPerGrab int `koanf:"rows_per_grab"`

	// NoneLabel marks rows without a gesture.
	NoneLabel string `koanf:"none_label"`

	// KeySentinel marks rows without a pressed key in typing captures.
	KeySentinel string `koanf:"key_sentinel"`

	// Hand restricts typing examples to "left" or "right"; empty keeps both.
	Hand string `koanf:"hand"`

	// Workers is the number of goroutines used to materialize examples.
	Workers int `koanf:"workers"`

	// CachePath, when set, stores the materialized examples as gob so later
	// runs skip the CSV pipeline.
	CachePath string `koanf:"cache_path"`

	// Training parameters.
	TrainRatio      float64 `koanf:"train_ratio"`
	Epochs          int     `koanf:"epochs"`
	BatchSize       int     `koanf:"batch_size"`
	LearningRate    float64 `koanf:"learning_rate"`
	L2Lambda        float64 `koanf:"l2_lambda"`
	CheckpointEvery int     `koanf:"checkpoint_every"`
	HiddenSizes     []int   `koanf:"hidden_sizes"`
	Optimizer       string  `koanf:"optimizer"`
	ClipNorm        float64 `koanf:"clip_norm"`
	Seed            int64   `koanf:"seed"`

	// MetricsPath, when set, receives a Prometheus text-format dump at exit.
	MetricsPath string `koanf:"metrics_path"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		DataType:           "relative",
		DatasetPath:        "data",
		ModelPath:          "output",
		LookBack:           10,
		StepValue:          1,
		FeatureMin:         -1,
		FeatureMax:         1,
		PointFeatureMin:    0,
		PointFeatureMax:    1,
		ProximityThreshold: 10,
		GestureSteps:       10,
		PerFileScaling:     true,
		RowsPerGrab:        0,
		NoneLabel:          "None",
		KeySentinel:        "none",
		Workers:            1,
		TrainRatio:         0.9,
		Epochs:             50,
		BatchSize:          64,
		LearningRate:       0.001,
		L2Lambda:           1e-5,
		CheckpointEvery:    5,
		HiddenSizes:        []int{64},
		Optimizer:          "adam",
		Seed:               1,
	}
}

// Validate checks the values the dataset builders and trainer rely on.
func (c *Config) Validate() error {
	switch {
	case c.DataType == "":
		return fmt.Errorf("%w: data_type must not be empty", ErrInvalidConfig)
	case c.DatasetPath == "":
		return fmt.Errorf("%w: dataset_path must not be empty", ErrInvalidConfig)
	case c.LookBack < 1:
		return fmt.Errorf("%w: look_back must be >= 1, got %d", ErrInvalidConfig, c.LookBack)
	case c.StepValue < 1:
		return fmt.Errorf("%w: step_value must be >= 1, got %d", ErrInvalidConfig, c.StepValue)
	case c.FeatureMax <= c.FeatureMin:
		return fmt.Errorf("%w: feature range [%v, %v] is empty", ErrInvalidConfig, c.FeatureMin, c.FeatureMax)
	case c.PointFeatureMax <= c.PointFeatureMin:
		return fmt.Errorf("%w: point feature range [%v, %v] is empty", ErrInvalidConfig, c.PointFeatureMin, c.PointFeatureMax)
	case c.GestureSteps < 1:
		return fmt.Errorf("%w: gesture_steps must be >= 1, got %d", ErrInvalidConfig, c.GestureSteps)
	case c.RowsPerGrab < 0:
		return fmt.Errorf("%w: rows_per_grab must be >= 0, got %d", ErrInvalidConfig, c.RowsPerGrab)
	case c.Hand != "" && c.Hand != "left" && c.Hand != "right":
		return fmt.Errorf("%w: hand must be left, right or empty, got %q", ErrInvalidConfig, c.Hand)
	case c.TrainRatio <= 0 || c.TrainRatio > 1:
		return fmt.Errorf("%w: train_ratio must be in (0, 1], got %v", ErrInvalidConfig, c.TrainRatio)
	case c.BatchSize < 1:
		return fmt.Errorf("%w: batch_size must be >= 1, got %d", ErrInvalidConfig, c.BatchSize)
	case c.CheckpointEvery < 0:
		return fmt.Errorf("%w: checkpoint_every must be >= 0, got %d", ErrInvalidConfig, c.CheckpointEvery)
	case c.Optimizer != "adam" && c.Optimizer != "sgd":
		return fmt.Errorf("%w: optimizer must be adam or sgd, got %q", ErrInvalidConfig, c.Optimizer)
	case c.ClipNorm < 0:
		return fmt.Errorf("%w: clip_norm must be >= 0, got %v", ErrInvalidConfig, c.ClipNorm)
	}
	return nil
}
