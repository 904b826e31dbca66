package logger

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap/zapcore"
)

func TestLogger(t *testing.T) {
	Convey("Given the Logger package", t, func() {
		Convey("New function", func() {
			Convey("When creating a logger with console output only", func() {
				logger, err := New(Options{Level: "info"})

				Convey("It should create a logger successfully", func() {
					So(err, ShouldBeNil)
					So(logger, ShouldNotBeNil)
					So(func() { logger.Info("Test log") }, ShouldNotPanic)
				})
			})

			Convey("When creating a colored console logger", func() {
				logger, err := New(Options{Level: "debug", Color: true})

				Convey("It should log without error", func() {
					So(err, ShouldBeNil)
					So(func() { logger.Errorf("%s colored", Tag("orders")) }, ShouldNotPanic)
				})
			})

			Convey("When creating a logger with a valid log file", func() {
				tempDir, err := os.MkdirTemp("", "logger_test")
				So(err, ShouldBeNil)
				defer os.RemoveAll(tempDir)

				logFile := filepath.Join(tempDir, "nested", "test.log")
				logger, err := New(Options{Level: "debug", File: logFile, Color: true})

				Convey("It should create a logger and log file successfully", func() {
					So(err, ShouldBeNil)
					So(logger, ShouldNotBeNil)

					logger.Debug("Test debug log")
					logger.Sync()

					content, err := os.ReadFile(logFile)
					So(err, ShouldBeNil)
					So(string(content), ShouldContainSubstring, `"level":"DEBUG"`)

					logger.Close()
				})
			})

			Convey("When creating a logger with an invalid log level", func() {
				logger, err := New(Options{Level: "invalid"})

				Convey("It should default to Info level and create a logger", func() {
					So(err, ShouldBeNil)
					So(logger, ShouldNotBeNil)
					So(logger.Desugar().Core().Enabled(zapcore.DebugLevel), ShouldBeFalse)
				})
			})

			Convey("When creating a logger with an invalid log file path", func() {
				logger, err := New(Options{Level: "info", File: "/proc/invalid/path/test.log"})

				Convey("It should return an error", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "failed to create log directory")
					So(logger, ShouldBeNil)
				})
			})
		})

		Convey("Tag function", func() {
			So(Tag("orders"), ShouldEqual, "[orders]")
		})

		Convey("Nop and Close", func() {
			logger := Nop()
			So(func() { logger.Infof("discarded %d", 1) }, ShouldNotPanic)
			So(func() { logger.Close() }, ShouldNotPanic)
		})
	})
}
