package main

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/okian/tapcircle/internal/adapters/http/api"
	app "github.com/okian/tapcircle/internal/app"
	"github.com/okian/tapcircle/internal/config"
	"github.com/okian/tapcircle/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("TAPCIRCLE_ADDR", ":8080")
			_ = os.Setenv("TAPCIRCLE_HIGHSCORE_THRESHOLD", "10")
			_ = os.Setenv("TAPCIRCLE_DEDUPE_SIZE", "1000")
			defer func() {
				_ = os.Unsetenv("TAPCIRCLE_ADDR")
				_ = os.Unsetenv("TAPCIRCLE_HIGHSCORE_THRESHOLD")
				_ = os.Unsetenv("TAPCIRCLE_DEDUPE_SIZE")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.HighScoreThreshold, convey.ShouldEqual, 10)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := app.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := app.New(
					app.WithHighScoreThreshold(20),
					app.WithDefaultTopCount(5),
					app.WithDedupeSize(1000),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing HTTP server creation", func() {
			svc := app.New()
			ctx := context.Background()
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			mux := http.NewServeMux()
			server := api.NewServer(svc, svc, 100)
			server.Register(ctx, mux)

			convey.Convey("Then the mux should serve the registered routes", func() {
				convey.So(server, convey.ShouldNotBeNil)
				convey.So(mux, convey.ShouldNotBeNil)
			})
		})
	})
}
