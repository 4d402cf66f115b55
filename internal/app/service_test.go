package service_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/okian/tapcircle/internal/adapters/repository"
	app "github.com/okian/tapcircle/internal/app"
	"github.com/okian/tapcircle/internal/domain/model"
	"github.com/okian/tapcircle/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()

		Convey("When creating with default options", func() {
			svc := app.New()

			Convey("Then it should be creatable and startable", func() {
				So(svc, ShouldNotBeNil)
				So(svc.Start(ctx), ShouldBeNil)
				defer svc.Stop()

				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats["storeBackend"], ShouldEqual, "memory")
			})
		})

		Convey("When creating with custom options", func() {
			svc := app.New(
				app.WithHighScoreThreshold(5),
				app.WithDefaultTopCount(3),
				app.WithDedupeSize(100),
			)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then the options should be visible in monitoring", func() {
				stats := svc.GetStats()
				So(stats["highScoreThreshold"], ShouldEqual, 5)
				So(stats["dedupeSize"], ShouldEqual, 100)
			})
		})

		Convey("When starting twice", func() {
			svc := app.New()
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then the second start is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When the redis backend is selected", func() {
			mr := miniredis.RunT(t)
			svc := app.New(
				app.WithStoreBackend("redis"),
				app.WithRedis(mr.Addr(), "", 0),
				app.WithRedisKeyPrefix("test"),
			)

			Convey("Then the service starts against redis", func() {
				So(svc.Start(ctx), ShouldBeNil)
				defer svc.Stop()

				_, err := svc.SubmitScore(ctx, "Default", "ABC", 100)
				So(err, ShouldBeNil)
			})
		})

		Convey("When redis is unreachable", func() {
			svc := app.New(
				app.WithStoreBackend("redis"),
				app.WithRedis("127.0.0.1:1", "", 0),
			)

			Convey("Then start fails with ErrUnavailable", func() {
				err := svc.Start(ctx)
				So(err, ShouldWrap, repository.ErrUnavailable)
			})
		})
	})
}

func TestServiceScoreFlow(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := app.New()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When submitting a handful of scores", func() {
			for _, score := range []int{1000, 1100, 1200, 1300, 1400} {
				_, err := svc.SubmitScore(ctx, "Default", "ABC", score)
				So(err, ShouldBeNil)
			}

			Convey("Then the top of the board carries 1-based ranks", func() {
				entries, err := svc.TopScores(ctx, "Default", 3)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 3)
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[0].Score, ShouldEqual, 1400)
				So(entries[2].Rank, ShouldEqual, 3)
				So(entries[2].Score, ShouldEqual, 1200)
			})

			Convey("Then qualification and rank projections work", func() {
				qualifies, err := svc.IsHighScore(ctx, "Default", 2000)
				So(err, ShouldBeNil)
				So(qualifies, ShouldBeTrue)

				rank, err := svc.Rank(ctx, "Default", 1150)
				So(err, ShouldBeNil)
				So(rank, ShouldEqual, 4)
			})

			Convey("Then an entry can be deleted by key", func() {
				entry, err := svc.SubmitScore(ctx, "Default", "DEL", 9999)
				So(err, ShouldBeNil)

				So(svc.DeleteScore(ctx, "Default", entry.SortKey), ShouldBeNil)

				entries, err := svc.TopScores(ctx, "Default", 1)
				So(err, ShouldBeNil)
				So(entries[0].Score, ShouldEqual, 1400)
			})
		})
	})
}

func TestServiceSessionFlow(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := app.New()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When recording sessions for two players", func() {
			_, err := svc.RecordSession(ctx, model.Session{Initials: "AAA", Score: 100, CirclesTapped: 10, PlaytimeSeconds: 30})
			So(err, ShouldBeNil)
			_, err = svc.RecordSession(ctx, model.Session{Initials: "BBB", Score: 200, CirclesTapped: 20, PlaytimeSeconds: 40})
			So(err, ShouldBeNil)

			Convey("Then per-player stats are retrievable", func() {
				record, err := svc.PlayerStats(ctx, "AAA")
				So(err, ShouldBeNil)
				So(record.TotalGames, ShouldEqual, 1)
				So(record.HighestScore, ShouldEqual, 100)
			})

			Convey("Then the all-players listing sees both", func() {
				records, err := svc.AllPlayerStats(ctx)
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 2)
			})

			Convey("Then monitoring reports the player count", func() {
				stats := svc.GetStats()
				So(stats["totalPlayers"], ShouldEqual, 2)
			})
		})

		Convey("When tracking session ids", func() {
			So(svc.SeenAndRecord(ctx, "session-1"), ShouldBeFalse)
			So(svc.SeenAndRecord(ctx, "session-1"), ShouldBeTrue)

			svc.Unrecord(ctx, "session-1")
			So(svc.SeenAndRecord(ctx, "session-1"), ShouldBeFalse)
		})
	})
}
