package syncload_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/mazeball/internal/adapters/http/api"
	"github.com/okian/mazeball/internal/adapters/repository"
	service "github.com/okian/mazeball/internal/app"
	"github.com/okian/mazeball/internal/syncload"
	"github.com/okian/mazeball/pkg/logger"
)

func TestRun(t *testing.T) {
	Convey("Given a live server over a fresh store", t, func() {
		ctx := context.Background()
		store, err := repository.Open(ctx, filepath.Join(t.TempDir(), "load.db"))
		So(err, ShouldBeNil)
		svc := service.New(store)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		r := api.NewRouter(5 * time.Second)
		api.NewServer(svc).Register(ctx, r)
		srv := httptest.NewServer(r)
		defer srv.Close()

		Convey("When a load run completes", func() {
			stats, err := syncload.Run(ctx, &syncload.Config{
				BaseURL:   srv.URL,
				Devices:   20,
				Levels:    3,
				Rounds:    3,
				Workers:   4,
				NameShare: 0.8,
				Timeout:   5 * time.Second,
				Seed:      42,
			}, logger.Discard())

			Convey("Then the boards verify and each colliding pair produced one conflict", func() {
				So(err, ShouldBeNil)
				So(stats.SyncsSent, ShouldEqual, int64(60))
				So(stats.SyncsFailed, ShouldEqual, int64(0))
				So(stats.NamesClaimed, ShouldEqual, int64(13))
				So(stats.NameConflicts, ShouldEqual, int64(3))
				So(stats.EntriesVerified, ShouldBeGreaterThan, 0)
			})
		})
	})

	Convey("Given no server", t, func() {
		srv := httptest.NewServer(nil)
		url := srv.URL
		srv.Close()

		Convey("When a run starts", func() {
			_, err := syncload.Run(context.Background(), &syncload.Config{
				BaseURL: url, Devices: 1, Levels: 1, Rounds: 1, Workers: 1, Timeout: time.Second,
			}, logger.Discard())

			Convey("Then the health check fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "health check failed")
			})
		})
	})

	Convey("Given an invalid configuration", t, func() {
		_, err := syncload.Run(context.Background(), &syncload.Config{}, logger.Discard())
		Convey("Then Run refuses to start", func() {
			So(err.Error(), ShouldContainSubstring, "invalid config")
		})
	})
}
