package batch_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/canon/internal/adapters/cache"
	"github.com/okian/canon/internal/adapters/mq/queue"
	"github.com/okian/canon/internal/adapters/mq/worker"
	"github.com/okian/canon/internal/adapters/repository"
	"github.com/okian/canon/internal/adapters/repository/repotest"
	"github.com/okian/canon/internal/domain/batch"
	"github.com/okian/canon/internal/domain/model"
	"github.com/okian/canon/internal/domain/query"
	"github.com/okian/canon/internal/domain/resolver"
	"github.com/okian/canon/internal/domain/types"
	"github.com/okian/canon/pkg/logger"
)

type fixture struct {
	batch  *batch.Resolver
	single *resolver.Resolver
	store  *repository.SQLStore
	cache  *cache.Client
}

func newFixture(t *testing.T, opts ...batch.Option) fixture {
	store := repotest.NewSQLite(t)
	return newFixtureOn(t, store, store, opts...)
}

// newFixtureOn builds resolvers over src with a fresh cache; store is kept
// for tests that need the underlying handle.
func newFixtureOn(t *testing.T, store *repository.SQLStore, src repository.Store, opts ...batch.Option) fixture {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	c := cache.New(cache.NewMemoryBackend(), cache.WithLogger(logger.Nop()))
	pool := worker.NewPool(2, queue.NewInMemoryQueue(queue.WithCapacity(16)), worker.WithLogger(logger.Nop()))
	pool.Start(ctx)

	single := resolver.New(src, resolver.WithCache(c), resolver.WithLogger(logger.Nop()))
	opts = append([]batch.Option{
		batch.WithPool(pool),
		batch.WithCache(c),
		batch.WithLogger(logger.Nop()),
	}, opts...)
	return fixture{batch: batch.New(src, single, opts...), single: single, store: store, cache: c}
}

// failingStore hands out sessions whose alias lookups fail for any
// statement that includes the key bad.
type failingStore struct {
	repository.Store
	bad string
}

func (s failingStore) Session(ctx context.Context) (repository.Session, error) {
	sess, err := s.Store.Session(ctx)
	if err != nil {
		return nil, err
	}
	return failingSession{Session: sess, bad: s.bad}, nil
}

type failingSession struct {
	repository.Session
	bad string
}

func (s failingSession) AliasMatches(ctx context.Context, e repository.Entity, keys []string, f repository.Filter) (repository.Matches, error) {
	if slices.Contains(keys, s.bad) {
		return nil, errors.New("alias lookup failed")
	}
	return s.Session.AliasMatches(ctx, e, keys, f)
}

func teamIDs(r model.Result) []int64 {
	team, ok := r.(*model.TeamResult)
	if !ok || team == nil {
		return nil
	}
	ids := make([]int64, 0, len(team.Teams))
	for _, v := range team.Teams {
		ids = append(ids, v.ID)
	}
	slices.Sort(ids)
	return ids
}

func TestResolveBatchFanOut(t *testing.T) {
	Convey("Given a batch with several spellings of the same names", t, func() {
		ctx := context.Background()
		f := newFixture(t)
		req := types.BatchRequest{
			Teams:   []string{"lakers", "LAKERS", "Lakers", "Celtics", "Nowhere"},
			Players: []string{"King James", "KING JAMES", "James"},
			Markets: []string{"Rush Yards", "RUSH YARDS", "rush_yards", "rush att", "xyz"},
			Leagues: []string{"EPL", "la liga"},
			Sport:   "basketball",
		}

		Convey("When the batch is resolved", func() {
			res := f.batch.ResolveBatch(ctx, req)

			Convey("Then every input name has an entry", func() {
				So(res, ShouldHaveLength, 4)
				So(res[query.CategoryTeam], ShouldHaveLength, 5)
				So(res[query.CategoryMarket], ShouldHaveLength, 5)
				So(res[query.CategoryTeam]["Nowhere"], ShouldBeNil)
				So(res[query.CategoryMarket]["xyz"], ShouldBeNil)
			})

			Convey("Then spellings of one canonical key share one result", func() {
				teams := res[query.CategoryTeam]
				So(teams["lakers"], ShouldPointTo, teams["LAKERS"])
				So(teams["lakers"], ShouldPointTo, teams["Lakers"])
				So(teams["lakers"].(*model.TeamResult).Teams[0].NormalizedName, ShouldEqual, "Los Angeles Lakers")

				players := res[query.CategoryPlayer]
				So(players["King James"], ShouldPointTo, players["KING JAMES"])
				So(players["James"].(*model.PlayerResult).PlayerCount, ShouldEqual, 3)

				markets := res[query.CategoryMarket]
				So(markets["Rush Yards"], ShouldPointTo, markets["RUSH YARDS"])
				So(markets["rush_yards"].(*model.MarketResult).ID, ShouldEqual, repotest.MarketRushYards)
				So(markets["rush att"].(*model.MarketResult).ID, ShouldEqual, repotest.MarketRushingAttempts)
				So(markets["Rush Yards"].(*model.MarketResult).Sports, ShouldResemble, []string{"Football"})
			})

			Convey("Then the sport scopes teams and leagues", func() {
				So(res[query.CategoryLeague]["EPL"], ShouldBeNil)
				So(res[query.CategoryLeague]["la liga"], ShouldBeNil)
			})

			Convey("Then the ordering matches a single lookup", func() {
				single, err := resolver.New(f.store, resolver.WithLogger(logger.Nop())).
					Resolve(ctx, query.PlayerQuery{Name: "james"})
				So(err, ShouldBeNil)
				So(res[query.CategoryPlayer]["James"], ShouldResemble, single)
			})
		})
	})
}

func TestResolveBatchNicknames(t *testing.T) {
	Convey("Given a team nickname without an alias row", t, func() {
		ctx := context.Background()
		f := newFixture(t)

		Convey("When it is resolved in a batch", func() {
			res := f.batch.ResolveBatch(ctx, types.BatchRequest{Teams: []string{"Sonics"}})

			Convey("Then the nickname matches exactly", func() {
				team := res[query.CategoryTeam]["Sonics"].(*model.TeamResult)
				So(team.Teams[0].ID, ShouldEqual, repotest.TeamSonics)
			})
		})
	})
}

func TestTeamResolutionAgreesAcrossPaths(t *testing.T) {
	Convey("Given a name that is both an alias and another team's nickname", t, func() {
		ctx := context.Background()
		store := repotest.NewSQLiteWith(t, []string{`INSERT INTO team_aliases (alias, team_id) VALUES ('Galaxy', 1)`})

		Convey("When it is resolved alone first and then in a batch", func() {
			f := newFixtureOn(t, store, store)
			single, err := f.single.Resolve(ctx, query.TeamQuery{Name: "Galaxy"})
			So(err, ShouldBeNil)
			res := f.batch.ResolveBatch(ctx, types.BatchRequest{Teams: []string{"Galaxy"}})

			Convey("Then both paths see the alias and the nickname", func() {
				So(teamIDs(single), ShouldResemble, []int64{repotest.TeamLakers, repotest.TeamGalaxy})
				So(teamIDs(res[query.CategoryTeam]["Galaxy"]), ShouldResemble, teamIDs(single))
			})
		})

		Convey("When it is resolved in a batch first and then alone", func() {
			f := newFixtureOn(t, store, store)
			res := f.batch.ResolveBatch(ctx, types.BatchRequest{Teams: []string{"Galaxy"}})
			single, err := f.single.Resolve(ctx, query.TeamQuery{Name: "Galaxy"})
			So(err, ShouldBeNil)

			Convey("Then the results are the same", func() {
				So(teamIDs(res[query.CategoryTeam]["Galaxy"]), ShouldResemble, []int64{repotest.TeamLakers, repotest.TeamGalaxy})
				So(teamIDs(single), ShouldResemble, teamIDs(res[query.CategoryTeam]["Galaxy"]))
			})
		})

		Convey("When each path runs on its own cold cache", func() {
			alone, err := newFixtureOn(t, store, store).single.Resolve(ctx, query.TeamQuery{Name: "Galaxy"})
			So(err, ShouldBeNil)
			res := newFixtureOn(t, store, store).batch.ResolveBatch(ctx, types.BatchRequest{Teams: []string{"Galaxy"}})

			Convey("Then they agree", func() {
				So(teamIDs(res[query.CategoryTeam]["Galaxy"]), ShouldResemble, teamIDs(alone))
			})
		})
	})
}

func TestResolveBatchBoundedQueries(t *testing.T) {
	Convey("Given a large batch of team names", t, func() {
		ctx := context.Background()
		f := newFixture(t, batch.WithChunkSize(50))
		names := []string{"Lakers"}
		for i := 1; i < 120; i++ {
			names = append(names, fmt.Sprintf("unknown team %03d", i))
		}

		Convey("When it is resolved", func() {
			res := f.batch.ResolveBatch(ctx, types.BatchRequest{Teams: names})
			stats := f.store.Stats()

			Convey("Then the statement count depends on chunks, not names", func() {
				So(res[query.CategoryTeam], ShouldHaveLength, 120)
				So(res[query.CategoryTeam]["Lakers"], ShouldNotBeNil)
				// 3 chunks x (alias, exact, prefix) + teams + roster
				So(stats.Queries, ShouldBeLessThanOrEqualTo, 11)
				So(stats.Sessions, ShouldEqual, 1)
			})

			Convey("Then a repeated batch is answered from the cache", func() {
				again := f.batch.ResolveBatch(ctx, types.BatchRequest{Teams: []string{"LAKERS", "lakers"}})
				So(again[query.CategoryTeam]["LAKERS"], ShouldNotBeNil)
				So(f.store.Stats().Sessions, ShouldEqual, stats.Sessions)
				So(f.cache.Stats(ctx).Hits, ShouldEqual, 2)
			})
		})
	})
}

func TestResolvePrecisionBatch(t *testing.T) {
	Convey("Given ordered combined lookups", t, func() {
		ctx := context.Background()
		f := newFixture(t)
		queries := []query.Params{
			{Team: "Lakers", Player: "LeBron James", Sport: "Basketball"},
			{Sport: "Basketball"},
			{Market: "xyz"},
			{League: "EPL"},
			{Player: "James"},
		}

		Convey("When they are resolved", func() {
			res := f.batch.ResolvePrecisionBatch(ctx, queries)

			Convey("Then results follow input order", func() {
				So(res.Total, ShouldEqual, 5)
				So(res.Successful, ShouldEqual, 3)
				So(res.Failed, ShouldEqual, 2)
				found := make([]bool, len(res.Results))
				for i, r := range res.Results {
					So(r.Query, ShouldResemble, queries[i])
					found[i] = r.Found
				}
				So(found, ShouldResemble, []bool{true, false, false, true, true})
				So(res.Results[1].Data, ShouldBeNil)
				So(res.Results[0].Data.(*model.PlayerResult).Players[0].NormalizedName, ShouldEqual, "LeBron James")
			})

			Convey("Then one store session serves the whole batch", func() {
				So(f.store.Stats().Sessions, ShouldEqual, 1)
			})
		})

		Convey("When the list is empty", func() {
			res := f.batch.ResolvePrecisionBatch(ctx, nil)

			Convey("Then nothing is resolved", func() {
				So(res.Total, ShouldEqual, 0)
				So(res.Results, ShouldBeEmpty)
			})
		})
	})
}

type rejectingPool struct{}

func (rejectingPool) Do(context.Context, func(context.Context) error) error {
	return worker.ErrBackpressure
}

func TestBatchFailureIsolation(t *testing.T) {
	Convey("Given a closed store", t, func() {
		ctx := context.Background()
		f := newFixture(t)
		So(f.store.Close(), ShouldBeNil)

		Convey("When batches are resolved", func() {
			res := f.batch.ResolveBatch(ctx, types.BatchRequest{Teams: []string{"Lakers"}, Markets: []string{"Rush Yards"}})
			prec := f.batch.ResolvePrecisionBatch(ctx, []query.Params{{Team: "Lakers"}, {Player: "AD"}})

			Convey("Then every name reads as not found", func() {
				So(res[query.CategoryTeam], ShouldContainKey, "Lakers")
				So(res[query.CategoryTeam]["Lakers"], ShouldBeNil)
				So(res[query.CategoryMarket]["Rush Yards"], ShouldBeNil)
				So(prec.Failed, ShouldEqual, 2)
				So(prec.Successful, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a store whose alias lookup fails for one key", t, func() {
		ctx := context.Background()
		store := repotest.NewSQLite(t)
		f := newFixtureOn(t, store, failingStore{Store: store, bad: "boom"})

		Convey("When that key shares a batch with a good one", func() {
			res := f.batch.ResolveBatch(ctx, types.BatchRequest{Players: []string{"LeBron James", "boom"}})

			Convey("Then only the failing key reads as not found", func() {
				So(res[query.CategoryPlayer], ShouldHaveLength, 2)
				So(res[query.CategoryPlayer]["boom"], ShouldBeNil)
				player, ok := res[query.CategoryPlayer]["LeBron James"].(*model.PlayerResult)
				So(ok, ShouldBeTrue)
				So(player.Players[0].ID, ShouldEqual, repotest.PlayerLeBron)
			})
		})
	})

	Convey("Given a pool that rejects every job", t, func() {
		ctx := context.Background()
		f := newFixture(t, batch.WithPool(rejectingPool{}))

		Convey("When a batch is resolved", func() {
			res := f.batch.ResolveBatch(ctx, types.BatchRequest{Players: []string{"AD", "King James"}})

			Convey("Then the category degrades to nil results", func() {
				So(res[query.CategoryPlayer], ShouldHaveLength, 2)
				So(res[query.CategoryPlayer]["AD"], ShouldBeNil)
				So(res[query.CategoryPlayer]["King James"], ShouldBeNil)
			})
		})
	})
}
