package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/canon/internal/adapters/repository/repotest"
	"github.com/okian/canon/internal/domain/model"
	"github.com/okian/canon/internal/domain/query"
	"github.com/okian/canon/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service with a memory cache", t, func() {
		svc := newService(t)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Ping(ctx), ShouldBeNil)

		Convey("When resolving the same team twice", func() {
			first, err1 := svc.Resolve(ctx, query.Params{Team: "Lakers", Sport: "Basketball"})
			second, err2 := svc.Resolve(ctx, query.Params{Team: "  LAKERS ", Sport: "basketball"})

			Convey("Then the second call is served from the cache", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first, ShouldResemble, second)
				teams := first.(*model.TeamResult).Teams
				So(teams, ShouldHaveLength, 1)
				So(teams[0].ID, ShouldEqual, repotest.TeamLakers)

				stats := svc.CacheStats(ctx)
				So(stats.Hits, ShouldEqual, 1)
				So(stats.Misses, ShouldEqual, 1)
				So(stats.TotalKeys, ShouldEqual, 1)
			})
		})

		Convey("When a lookup names no entity", func() {
			_, err := svc.Resolve(ctx, query.Params{Sport: "Basketball"})

			Convey("Then it is rejected as empty", func() {
				So(err, ShouldEqual, query.ErrEmptyQuery)
			})
		})

		Convey("When nothing matches", func() {
			res, err := svc.Resolve(ctx, query.Params{Market: "xyz"})

			Convey("Then the result is nil without an error", func() {
				So(err, ShouldBeNil)
				So(res, ShouldBeNil)
			})
		})

		Convey("When invalidating a cached lookup", func() {
			_, err := svc.Resolve(ctx, query.Params{Team: "Lakers", Sport: "Basketball"})
			So(err, ShouldBeNil)

			removed, err := svc.Invalidate(ctx, query.Params{Team: "LAKERS", Sport: "BASKETBALL"})
			again, _ := svc.Invalidate(ctx, query.Params{Team: "Lakers", Sport: "Basketball"})

			Convey("Then only the first invalidation removes an entry", func() {
				So(err, ShouldBeNil)
				So(removed, ShouldBeTrue)
				So(again, ShouldBeFalse)
			})

			Convey("And empty params are rejected", func() {
				_, err := svc.Invalidate(ctx, query.Params{})
				So(err, ShouldEqual, query.ErrEmptyQuery)
			})
		})

		Convey("When invalidating a category", func() {
			_, _ = svc.Resolve(ctx, query.Params{Team: "Lakers", Sport: "Basketball"})
			_, _ = svc.Resolve(ctx, query.Params{Team: "Celtics", Sport: "Basketball"})
			_, _ = svc.Resolve(ctx, query.Params{Market: "Rush Yards"})

			n, ok := svc.InvalidateCategory(ctx, query.CategoryTeam)

			Convey("Then only that category is removed", func() {
				So(ok, ShouldBeTrue)
				So(n, ShouldEqual, 2)
				So(svc.CacheStats(ctx).TotalKeys, ShouldEqual, 1)
			})

			Convey("And clearing empties the cache", func() {
				So(svc.ClearAllCache(ctx), ShouldBeTrue)
				So(svc.CacheStats(ctx).TotalKeys, ShouldEqual, 0)
			})
		})

		Convey("When resolving an independent batch with spelling variants", func() {
			res, err := svc.ResolveBatch(ctx, types.BatchRequest{
				Teams:   []string{"Lakers", "LAKERS", " lakers", "Atlantis"},
				Markets: []string{"Rush Yards"},
				Sport:   "Basketball",
			})

			Convey("Then every variant receives the same result", func() {
				So(err, ShouldBeNil)
				teams := res[query.CategoryTeam]
				So(teams, ShouldHaveLength, 4)
				So(teams["Lakers"], ShouldNotBeNil)
				So(teams["LAKERS"], ShouldResemble, teams["Lakers"])
				So(teams[" lakers"], ShouldResemble, teams["Lakers"])
				So(teams["Atlantis"], ShouldBeNil)

				market := res[query.CategoryMarket]["Rush Yards"].(*model.MarketResult)
				So(market.ID, ShouldEqual, repotest.MarketRushYards)
			})
		})

		Convey("When resolving a precision batch", func() {
			queries := []query.Params{
				{Team: "Lakers", Player: "LeBron James", Sport: "Basketball"},
				{},
				{Market: "Rush Yards"},
				{Team: "Celtics", Player: "LeBron James"},
			}
			res, err := svc.ResolvePrecisionBatch(ctx, queries)

			Convey("Then outcomes follow input order", func() {
				So(err, ShouldBeNil)
				So(res.Total, ShouldEqual, 4)
				So(res.Successful, ShouldEqual, 2)
				So(res.Failed, ShouldEqual, 2)
				for i, q := range queries {
					So(res.Results[i].Query, ShouldResemble, q)
				}
				So(res.Results[0].Found, ShouldBeTrue)
				So(res.Results[1].Found, ShouldBeFalse)
				So(res.Results[2].Found, ShouldBeTrue)
				So(res.Results[3].Data, ShouldBeNil)
			})
		})

		Convey("When many callers resolve concurrently", func() {
			names := []string{"Lakers", "Celtics", "BOS", "LA Lakers"}
			var (
				wg     sync.WaitGroup
				mu     sync.Mutex
				failed int
			)
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(name string) {
					defer wg.Done()
					res, err := svc.Resolve(ctx, query.Params{Team: name, Sport: "Basketball"})
					if err != nil || res == nil {
						mu.Lock()
						failed++
						mu.Unlock()
					}
				}(names[i%len(names)])
			}
			wg.Wait()

			Convey("Then every call resolves", func() {
				So(failed, ShouldEqual, 0)
				So(svc.CacheStats(ctx).TotalKeys, ShouldEqual, len(names))
			})
		})
	})
}
