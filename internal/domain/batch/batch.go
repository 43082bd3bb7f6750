// Package batch resolves many lookups per request.
//
// Independent batches resolve lists of names per category with a bounded
// number of store statements: names are probed in the cache, the misses are
// grouped by canonical key, and each group of keys is matched and projected
// in bulk. Precision batches resolve ordered combined lookups one by one on
// a single store session.
package batch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/canon/internal/adapters/repository"
	"github.com/okian/canon/internal/domain/dedupe"
	"github.com/okian/canon/internal/domain/model"
	"github.com/okian/canon/internal/domain/query"
	"github.com/okian/canon/internal/domain/resolver"
	"github.com/okian/canon/internal/domain/types"
	"github.com/okian/canon/pkg/logger"
	"github.com/okian/canon/pkg/metrics"
)

const (
	defaultChunkSize        = 50
	defaultProbeConcurrency = 8
)

// Cache is the subset of the cache client used by batches.
type Cache interface {
	Get(ctx context.Context, p query.Params) (model.Result, bool)
	Set(ctx context.Context, p query.Params, r model.Result) bool
}

// Pool runs a job and waits for it.
type Pool interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type noCache struct{}

func (noCache) Get(context.Context, query.Params) (model.Result, bool) { return nil, false }
func (noCache) Set(context.Context, query.Params, model.Result) bool   { return false }

// Resolver resolves independent and precision batches.
type Resolver struct {
	store   repository.Store
	single  *resolver.Resolver
	cache   Cache
	pool    Pool
	grouper *dedupe.Grouper
	logger  logger.Logger

	chunkSize        int
	probeConcurrency int
}

// New creates a batch Resolver. single provides result shaping and the
// precision path; it should share store and cache with this Resolver.
func New(store repository.Store, single *resolver.Resolver, opts ...Option) *Resolver {
	b := &Resolver{
		store:            store,
		single:           single,
		cache:            noCache{},
		grouper:          dedupe.New(),
		logger:           logger.Get().Named("batch"),
		chunkSize:        defaultChunkSize,
		probeConcurrency: defaultProbeConcurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.single == nil {
		b.single = resolver.New(store, resolver.WithCache(b.cache), resolver.WithLogger(b.logger))
	}
	return b
}

// ResolveBatch resolves every name of req. The result has one entry per
// requested category and, within it, one entry per distinct input name; a
// nil Result means the name did not resolve. Failures are isolated: a broken
// chunk or category yields nil results, never an error for the whole batch.
func (b *Resolver) ResolveBatch(ctx context.Context, req types.BatchRequest) types.BatchResults {
	start := time.Now()
	defer func() {
		metrics.RecordBatchLatency("independent", float64(time.Since(start).Microseconds())/1000)
	}()

	jobs := map[query.Category][]string{
		query.CategoryTeam:   req.Teams,
		query.CategoryPlayer: req.Players,
		query.CategoryLeague: req.Leagues,
		query.CategoryMarket: req.Markets,
	}

	var (
		mu  sync.Mutex
		out = make(types.BatchResults, len(jobs))
		g   errgroup.Group
	)
	for cat, names := range jobs {
		if len(names) == 0 {
			continue
		}
		metrics.RecordBatchItems(string(cat), len(names))
		g.Go(func() error {
			res := b.runCategory(ctx, cat, names, req.Sport)
			mu.Lock()
			out[cat] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// runCategory resolves one category as a single pool job. If the job cannot
// be run every name maps to nil.
func (b *Resolver) runCategory(ctx context.Context, cat query.Category, names []string, sport string) map[string]model.Result {
	var res map[string]model.Result
	job := func(ctx context.Context) error {
		res = b.resolveCategory(ctx, cat, names, sport)
		return nil
	}

	var err error
	if b.pool != nil {
		err = b.pool.Do(ctx, job)
	} else {
		err = job(ctx)
	}
	if err != nil || res == nil {
		if err != nil {
			metrics.RecordErrorByComponent("batch", "submit")
			b.logger.Error(ctx, "batch category not run",
				logger.String("category", string(cat)),
				logger.Int("names", len(names)),
				logger.Error(err))
		}
		return empty(names)
	}
	return res
}

func (b *Resolver) resolveCategory(ctx context.Context, cat query.Category, names []string, sport string) map[string]model.Result {
	switch cat {
	case query.CategoryTeam:
		f := repository.Filter{Sport: sport, Nicknames: true}
		return resolveEntities(ctx, b, entitySpec[model.TeamView]{
			category: cat,
			entity:   repository.EntityTeam,
			filter:   f,
			params:   func(n string) query.Params { return query.Params{Team: n, Sport: sport} },
			project:  func(ctx context.Context, s repository.Session, ids []int64) ([]model.TeamView, error) { return s.Teams(ctx, ids, f) },
			id:       func(v model.TeamView) int64 { return v.ID },
			shape:    b.single.TeamResult,
		}, names)
	case query.CategoryPlayer:
		return resolveEntities(ctx, b, entitySpec[model.PlayerView]{
			category: cat,
			entity:   repository.EntityPlayer,
			params:   func(n string) query.Params { return query.Params{Player: n} },
			project: func(ctx context.Context, s repository.Session, ids []int64) ([]model.PlayerView, error) {
				return s.Players(ctx, ids, repository.Filter{})
			},
			id:    func(v model.PlayerView) int64 { return v.ID },
			shape: b.single.PlayerResult,
		}, names)
	case query.CategoryLeague:
		f := repository.Filter{Sport: sport}
		return resolveEntities(ctx, b, entitySpec[model.LeagueView]{
			category: cat,
			entity:   repository.EntityLeague,
			filter:   f,
			params:   func(n string) query.Params { return query.Params{League: n, Sport: sport} },
			project: func(ctx context.Context, s repository.Session, ids []int64) ([]model.LeagueView, error) {
				return s.Leagues(ctx, ids, f)
			},
			id:    func(v model.LeagueView) int64 { return v.ID },
			shape: b.single.LeagueResult,
		}, names)
	case query.CategoryMarket:
		return b.resolveMarkets(ctx, names)
	default:
		return empty(names)
	}
}

// empty maps every distinct name to nil.
func empty(names []string) map[string]model.Result {
	out := make(map[string]model.Result, len(names))
	for _, n := range names {
		out[n] = nil
	}
	return out
}

// probe looks every name up in the cache, a few at a time, and returns the
// hits and the names that missed, in input order.
func (b *Resolver) probe(ctx context.Context, names []string, params func(string) query.Params) (map[string]model.Result, []string) {
	found := make([]model.Result, len(names))
	var g errgroup.Group
	g.SetLimit(b.probeConcurrency)
	for i, n := range names {
		g.Go(func() error {
			if r, ok := b.cache.Get(ctx, params(n)); ok {
				found[i] = r
			}
			return nil
		})
	}
	_ = g.Wait()

	hits := make(map[string]model.Result)
	var misses []string
	for i, n := range names {
		if found[i] != nil {
			hits[n] = found[i]
			continue
		}
		misses = append(misses, n)
	}
	return hits, misses
}

type write struct {
	name   string
	result model.Result
}

// remember writes results to the cache under each original spelling.
func (b *Resolver) remember(ctx context.Context, writes []write, params func(string) query.Params) {
	var g errgroup.Group
	g.SetLimit(b.probeConcurrency)
	for _, w := range writes {
		g.Go(func() error {
			b.cache.Set(ctx, params(w.name), w.result)
			return nil
		})
	}
	_ = g.Wait()
}
