package config

import (
	"log/slog"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestConfigDefaults(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		cfg := New()

		convey.Convey("Then it validates", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the log level parses", func() {
			level, err := cfg.Level()
			convey.So(err, convey.ShouldBeNil)
			convey.So(level, convey.ShouldEqual, slog.LevelInfo)
		})

		convey.Convey("Then the daily location resolves to Paris", func() {
			loc, err := cfg.DailyLocation()
			convey.So(err, convey.ShouldBeNil)
			convey.So(loc.String(), convey.ShouldEqual, "Europe/Paris")
		})

		convey.Convey("When the level is upper case", func() {
			cfg.LogLevel = "DEBUG"
			level, err := cfg.Level()

			convey.Convey("Then it still parses", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(level, convey.ShouldEqual, slog.LevelDebug)
			})
		})
	})
}
