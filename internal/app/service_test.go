package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/canon/internal/adapters/cache"
	"github.com/okian/canon/internal/adapters/repository/repotest"
	service "github.com/okian/canon/internal/app"
	"github.com/okian/canon/internal/domain/query"
	"github.com/okian/canon/internal/domain/types"
	"github.com/okian/canon/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func newService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	base := []service.Option{
		service.WithStore(repotest.NewSQLite(t)),
		service.WithCache(cache.New(cache.NewMemoryBackend(), cache.WithLogger(logger.Nop()))),
		service.WithLogger(logger.Nop()),
		service.WithWorkerCount(2),
		service.WithQueueSize(16),
	}
	return service.New(append(base, opts...)...)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 5)
			So(stats["queueSize"], ShouldEqual, 1024)
			So(stats["chunkSize"], ShouldEqual, 50)
			So(stats["cacheEnabled"], ShouldBeFalse)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithChunkSize(25),
			service.WithProbeConcurrency(4),
			service.WithWorkerCount(-1),
		)

		Convey("Then invalid values keep the previous setting", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 50_000)
			So(stats["chunkSize"], ShouldEqual, 25)
			So(stats["probeConcurrency"], ShouldEqual, 4)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a service with a store", t, func() {
		svc := newService(t)
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["queueLength"], ShouldEqual, 0)
				So(stats, ShouldContainKey, "store")
			})

			Convey("And starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When the start context is cancelled afterwards", func() {
			ctx, cancel := context.WithCancel(context.Background())
			So(svc.Start(ctx), ShouldBeNil)
			cancel()

			Convey("Then the workers keep serving batches", func() {
				res, err := svc.ResolveBatch(context.Background(), types.BatchRequest{Teams: []string{"Lakers"}, Sport: "Basketball"})
				So(err, ShouldBeNil)
				So(res[query.CategoryTeam]["Lakers"], ShouldNotBeNil)
			})
		})
	})

	Convey("Given a service without a store", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))

		Convey("When starting it", func() {
			err := svc.Start(context.Background())

			Convey("Then it should refuse", func() {
				So(err, ShouldEqual, service.ErrNoStore)
				So(svc.Ping(context.Background()), ShouldEqual, service.ErrNoStore)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newService(t)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})

			Convey("And resolution is refused", func() {
				_, err := svc.Resolve(ctx, query.Params{Team: "Lakers"})
				So(err, ShouldEqual, service.ErrNotStarted)
				_, err = svc.ResolveBatch(ctx, types.BatchRequest{Teams: []string{"Lakers"}})
				So(err, ShouldEqual, service.ErrNotStarted)
				_, err = svc.ResolvePrecisionBatch(ctx, []query.Params{{Team: "Lakers"}})
				So(err, ShouldEqual, service.ErrNotStarted)
			})

			Convey("And stopping twice is safe", func() {
				So(func() { svc.Stop() }, ShouldNotPanic)
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithLogger(logger.Nop()))

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should return basic stats", func() {
				So(stats, ShouldNotBeNil)
				So(stats["started"], ShouldEqual, false)
				So(stats, ShouldNotContainKey, "queueLength")
				So(stats, ShouldNotContainKey, "store")
			})
		})
	})
}
