package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Noofbiz/vrmotion/config"
	"github.com/smartystreets/goconvey/convey"
)

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, config.EnvPrefix) {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given no file and no environment", t, func() {
		clearConfigEnvVars(t)

		cfg, err := config.Load(ctx, "")
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.LookBack, convey.ShouldEqual, 10)
		convey.So(cfg.DataType, convey.ShouldEqual, "relative")
	})

	convey.Convey("Given a YAML file", t, func() {
		clearConfigEnvVars(t)
		path := createTempConfigFile(t, `
data_type: grab
dataset_path: /data/grab
look_back: 20
rows_per_grab: 5
feature_min: 0
feature_max: 1
hidden_sizes: [32, 16]
`)

		convey.Convey("When loaded", func() {
			cfg, err := config.Load(ctx, path)

			convey.Convey("Then file values override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DataType, convey.ShouldEqual, "grab")
				convey.So(cfg.DatasetPath, convey.ShouldEqual, "/data/grab")
				convey.So(cfg.LookBack, convey.ShouldEqual, 20)
				convey.So(cfg.RowsPerGrab, convey.ShouldEqual, 5)
				convey.So(cfg.FeatureMin, convey.ShouldEqual, 0.0)
				convey.So(cfg.HiddenSizes, convey.ShouldResemble, []int{32, 16})
			})

			convey.Convey("Then unset keys keep their defaults", func() {
				convey.So(cfg.StepValue, convey.ShouldEqual, 1)
				convey.So(cfg.L2Lambda, convey.ShouldEqual, 1e-5)
			})
		})

		convey.Convey("When the environment also sets a key", func() {
			t.Setenv("VRMOTION_LOOK_BACK", "30")
			cfg, err := config.Load(ctx, path)

			convey.Convey("Then the environment wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LookBack, convey.ShouldEqual, 30)
				convey.So(cfg.DataType, convey.ShouldEqual, "grab")
			})
		})

		convey.Convey("When the path comes from VRMOTION_CONFIG", func() {
			t.Setenv("VRMOTION_CONFIG", path)
			cfg, err := config.Load(ctx, "")

			convey.Convey("Then the file is used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DataType, convey.ShouldEqual, "grab")
			})
		})
	})

	convey.Convey("Given a file with invalid values", t, func() {
		clearConfigEnvVars(t)
		path := createTempConfigFile(t, "look_back: 0\n")

		_, err := config.Load(ctx, path)
		convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
	})

	convey.Convey("Given a missing file", t, func() {
		clearConfigEnvVars(t)

		_, err := config.Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
		convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
	})
}
