package config_test

import (
	"testing"

	"github.com/okian/tapcircle/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	convey.Convey("Given the config constructor", t, func() {
		convey.Convey("When building a default config", func() {
			cfg := config.New()

			convey.Convey("Then every field carries its documented default", func() {
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
				convey.So(cfg.RedisKeyPrefix, convey.ShouldEqual, "tapcircle")
				convey.So(cfg.HighScoreThreshold, convey.ShouldEqual, 10)
				convey.So(cfg.DefaultTopCount, convey.ShouldEqual, 10)
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			})
		})
	})
}
