package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Noofbiz/vrmotion/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then the windowing defaults are set", func() {
			convey.So(cfg.LookBack, convey.ShouldEqual, 10)
			convey.So(cfg.StepValue, convey.ShouldEqual, 1)
			convey.So(cfg.ProximityThreshold, convey.ShouldEqual, 10)
			convey.So(cfg.RowsPerGrab, convey.ShouldEqual, 0)
		})

		convey.Convey("Then the scaler ranges are set", func() {
			convey.So(cfg.FeatureMin, convey.ShouldEqual, -1.0)
			convey.So(cfg.FeatureMax, convey.ShouldEqual, 1.0)
			convey.So(cfg.PointFeatureMin, convey.ShouldEqual, 0.0)
			convey.So(cfg.PointFeatureMax, convey.ShouldEqual, 1.0)
		})

		convey.Convey("Then the training defaults are set", func() {
			convey.So(cfg.TrainRatio, convey.ShouldEqual, 0.9)
			convey.So(cfg.L2Lambda, convey.ShouldEqual, 1e-5)
			convey.So(cfg.CheckpointEvery, convey.ShouldEqual, 5)
		})

		convey.Convey("Then it validates", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestValidate(t *testing.T) {
	convey.Convey("Given invalid configs", t, func() {
		cases := map[string]func(c *config.Config){
			"look_back":   func(c *config.Config) { c.LookBack = 0 },
			"step_value":  func(c *config.Config) { c.StepValue = 0 },
			"range":       func(c *config.Config) { c.FeatureMin, c.FeatureMax = 1, 1 },
			"hand":        func(c *config.Config) { c.Hand = "both" },
			"train_ratio": func(c *config.Config) { c.TrainRatio = 0 },
			"batch_size":  func(c *config.Config) { c.BatchSize = 0 },
			"data_type":   func(c *config.Config) { c.DataType = "" },
			"optimizer":   func(c *config.Config) { c.Optimizer = "rmsprop" },
			"clip_norm":   func(c *config.Config) { c.ClipNorm = -1 },
		}
		for name, mutate := range cases {
			cfg := config.New(context.Background())
			mutate(cfg)
			err := cfg.Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			_ = name
		}
	})
}
