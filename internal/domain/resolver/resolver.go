// Package resolver maps one free-text lookup to canonical entities.
//
// Team, player and league lookups run the same tier chain: alias matches
// and exact primary-field matches are unioned, and only when both are empty
// is a prefix match tried for keys longer than two characters. Markets use
// their own chain and always resolve to at most one market.
package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/canon/internal/adapters/repository"
	"github.com/okian/canon/internal/domain/model"
	"github.com/okian/canon/internal/domain/query"
	"github.com/okian/canon/internal/domain/ranking"
	"github.com/okian/canon/pkg/logger"
	"github.com/okian/canon/pkg/metrics"
)

// Cache is the read-through cache consulted before the store.
type Cache interface {
	Get(ctx context.Context, p query.Params) (model.Result, bool)
	Set(ctx context.Context, p query.Params, r model.Result) bool
}

type noCache struct{}

func (noCache) Get(context.Context, query.Params) (model.Result, bool) { return nil, false }
func (noCache) Set(context.Context, query.Params, model.Result) bool   { return false }

// Resolver resolves single lookups. It is safe for concurrent use.
type Resolver struct {
	store  repository.Store
	cache  Cache
	ranker *ranking.Ranker
	logger logger.Logger
}

// New creates a Resolver over store.
func New(store repository.Store, opts ...Option) *Resolver {
	r := &Resolver{
		store:  store,
		cache:  noCache{},
		ranker: ranking.New(),
		logger: logger.Get().Named("resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the result for q, or (nil, nil) when nothing matches.
// The store is only consulted on a cache miss, on a session scoped to this call.
func (r *Resolver) Resolve(ctx context.Context, q query.Query) (model.Result, error) {
	if res, ok := r.cached(ctx, q); ok {
		return res, nil
	}
	if r.store == nil {
		return nil, ErrNoStore
	}

	sess, err := r.store.Session(ctx)
	if err != nil {
		metrics.RecordResolution(string(q.Category()), "error")
		return nil, fmt.Errorf("resolve %s %q: %w", q.Category(), q.Key(), err)
	}
	defer sess.Close()

	return r.resolveMiss(ctx, sess, q)
}

// ResolveWith resolves q on a caller-owned session, with the same cache
// read-through as Resolve. The session is not closed.
func (r *Resolver) ResolveWith(ctx context.Context, sess repository.Session, q query.Query) (model.Result, error) {
	if res, ok := r.cached(ctx, q); ok {
		return res, nil
	}
	return r.resolveMiss(ctx, sess, q)
}

func (r *Resolver) cached(ctx context.Context, q query.Query) (model.Result, bool) {
	res, ok := r.cache.Get(ctx, q.Params())
	if ok {
		metrics.RecordResolution(string(q.Category()), "cache_hit")
	}
	return res, ok
}

func (r *Resolver) resolveMiss(ctx context.Context, sess repository.Session, q query.Query) (model.Result, error) {
	start := time.Now()
	category := string(q.Category())
	defer func() {
		metrics.RecordResolutionLatency(category, float64(time.Since(start).Microseconds())/1000)
	}()

	res, err := r.lookup(ctx, sess, q)
	if err != nil {
		metrics.RecordResolution(category, "error")
		r.logger.Error(ctx, "resolution failed",
			logger.String("category", category),
			logger.String("key", q.Key()),
			logger.Error(err))
		return nil, fmt.Errorf("resolve %s %q: %w", category, q.Key(), err)
	}
	if res == nil {
		metrics.RecordResolution(category, "not_found")
		r.logger.Debug(ctx, "no match", logger.String("category", category), logger.String("key", q.Key()))
		return nil, nil
	}

	metrics.RecordResolution(category, "found")
	r.cache.Set(ctx, q.Params(), res)
	return res, nil
}

func (r *Resolver) lookup(ctx context.Context, sess repository.Session, q query.Query) (model.Result, error) {
	switch v := q.(type) {
	case query.TeamQuery:
		return r.team(ctx, sess, v)
	case query.PlayerQuery:
		return r.player(ctx, sess, v)
	case query.TeamPlayerQuery:
		return r.teamPlayer(ctx, sess, v)
	case query.LeagueQuery:
		return r.league(ctx, sess, v)
	case query.MarketQuery:
		return r.market(ctx, sess, v)
	default:
		return nil, fmt.Errorf("unsupported query %T: %w", q, query.ErrEmptyQuery)
	}
}

// Match runs the alias/exact/prefix tier chain for one canonical key and
// returns the matched ids.
func Match(ctx context.Context, sess repository.Session, e repository.Entity, key string, f repository.Filter) ([]int64, error) {
	keys := []string{key}
	matches, err := sess.AliasMatches(ctx, e, keys, f)
	if err != nil {
		return nil, err
	}
	exact, err := sess.ExactMatches(ctx, e, keys, f)
	if err != nil {
		return nil, err
	}
	matches.Merge(exact)
	if ids := matches.IDs(keys); len(ids) > 0 {
		return ids, nil
	}

	if !query.PrefixEligible(key) {
		return nil, nil
	}
	prefix, err := sess.PrefixMatches(ctx, e, keys, f)
	if err != nil {
		return nil, err
	}
	return prefix.IDs(keys), nil
}
