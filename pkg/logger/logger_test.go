package logger_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/Noofbiz/vrmotion/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestInitAndGet(t *testing.T) {
	convey.Convey("Given an initialized global logger", t, func() {
		var buf bytes.Buffer
		convey.So(logger.InitWriter(&buf), convey.ShouldBeNil)
		ctx := context.Background()

		convey.Convey("When logging at info", func() {
			logger.Get().Info(ctx, "files listed", logger.Int("files", 3))

			convey.Convey("Then the record carries the fields and the source", func() {
				out := buf.String()
				convey.So(out, convey.ShouldContainSubstring, "files listed")
				convey.So(out, convey.ShouldContainSubstring, "files=3")
				convey.So(out, convey.ShouldContainSubstring, "logger_test.go")
			})
		})

		convey.Convey("When logging debug below the level", func() {
			logger.Get().Debug(ctx, "hidden")
			convey.So(buf.String(), convey.ShouldNotContainSubstring, "hidden")
		})

		convey.Convey("When the level is lowered", func() {
			convey.So(logger.SetLevelString("debug"), convey.ShouldBeNil)
			logger.Named("windows").Debug(ctx, "visible", logger.Error(errors.New("boom")))

			convey.Convey("Then debug records appear grouped by name", func() {
				out := buf.String()
				convey.So(out, convey.ShouldContainSubstring, "visible")
				convey.So(out, convey.ShouldContainSubstring, "windows.error=boom")
			})
		})

		convey.Convey("Then unknown levels are rejected", func() {
			convey.So(logger.SetLevelString("verbose"), convey.ShouldNotBeNil)
		})

		convey.So(logger.Sync(), convey.ShouldBeNil)
	})
}

func TestNew(t *testing.T) {
	convey.Convey("Given a standalone logger at warn", t, func() {
		var buf bytes.Buffer
		l := logger.New(&buf, slog.LevelWarn)
		l.Info(context.Background(), "skip")
		l.Warn(context.Background(), "keep", logger.String("file", "a.csv"))

		convey.So(strings.Contains(buf.String(), "skip"), convey.ShouldBeFalse)
		convey.So(buf.String(), convey.ShouldContainSubstring, "file=a.csv")
	})

	convey.Convey("Given a nop logger", t, func() {
		convey.So(func() { logger.Nop().Error(context.Background(), "dropped") }, convey.ShouldNotPanic)
	})
}
