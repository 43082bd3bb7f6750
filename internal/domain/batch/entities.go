package batch

import (
	"context"

	"github.com/okian/canon/internal/adapters/repository"
	"github.com/okian/canon/internal/domain/dedupe"
	"github.com/okian/canon/internal/domain/model"
	"github.com/okian/canon/internal/domain/query"
	"github.com/okian/canon/internal/domain/resolver"
	"github.com/okian/canon/pkg/logger"
	"github.com/okian/canon/pkg/metrics"
)

// entitySpec binds the generic bulk path to one entity family.
type entitySpec[V any] struct {
	category query.Category
	entity   repository.Entity
	filter   repository.Filter
	params   func(name string) query.Params
	project  func(ctx context.Context, s repository.Session, ids []int64) ([]V, error)
	id       func(V) int64
	shape    func(key string, views []V) model.Result
}

func resolveEntities[V any](ctx context.Context, b *Resolver, spec entitySpec[V], names []string) map[string]model.Result {
	cat := string(spec.category)
	out := empty(names)

	hits, misses := b.probe(ctx, dedupe.Unique(names), spec.params)
	for n, r := range hits {
		out[n] = r
	}
	groups := b.grouper.Group(misses)
	if len(groups) == 0 {
		return out
	}
	keys := dedupe.Keys(groups)
	metrics.RecordBatchUniqueKeys(cat, len(keys))

	sess, err := b.store.Session(ctx)
	if err != nil {
		b.fail(ctx, cat, "session", len(keys), err)
		return out
	}
	defer sess.Close()

	matched := repository.Matches{}
	for _, part := range chunk(keys, b.chunkSize) {
		m, err := bulkMatch(ctx, sess, spec.entity, part, spec.filter)
		if err != nil {
			b.fail(ctx, cat, "match", len(part), err)
			m = matchEach(ctx, b, sess, spec, part)
		}
		matched.Merge(m)
	}

	ids := matched.IDs(keys)
	if len(ids) == 0 {
		return out
	}
	byID := make(map[int64]V, len(ids))
	views, err := spec.project(ctx, sess, ids)
	if err != nil {
		b.fail(ctx, cat, "project", len(keys), err)
		views = projectEach(ctx, b, sess, spec, groups, matched)
	}
	for _, v := range views {
		byID[spec.id(v)] = v
	}

	var writes []write
	for _, grp := range groups {
		var mine []V
		for _, id := range matched[grp.Key] {
			if v, ok := byID[id]; ok {
				mine = append(mine, v)
			}
		}
		res := spec.shape(grp.Key, mine)
		if res == nil {
			continue
		}
		for _, s := range grp.Spellings {
			out[s] = res
			writes = append(writes, write{name: s, result: res})
		}
	}
	b.remember(ctx, writes, spec.params)
	return out
}

// matchEach falls back to one tier chain per key after a failed bulk
// statement, so a key that keeps failing loses only its own result.
func matchEach[V any](ctx context.Context, b *Resolver, sess repository.Session, spec entitySpec[V], keys []string) repository.Matches {
	out := repository.Matches{}
	for _, k := range keys {
		ids, err := resolver.Match(ctx, sess, spec.entity, k, spec.filter)
		if err != nil {
			b.fail(ctx, string(spec.category), "match_key", 1, err)
			continue
		}
		if len(ids) > 0 {
			out[k] = ids
		}
	}
	return out
}

// projectEach loads views group by group after a failed bulk projection.
// Groups whose projection fails stay unresolved.
func projectEach[V any](ctx context.Context, b *Resolver, sess repository.Session, spec entitySpec[V], groups []dedupe.Group, matched repository.Matches) []V {
	var views []V
	for _, grp := range groups {
		ids := matched[grp.Key]
		if len(ids) == 0 {
			continue
		}
		vs, err := spec.project(ctx, sess, ids)
		if err != nil {
			b.fail(ctx, string(spec.category), "project_key", 1, err)
			delete(matched, grp.Key)
			continue
		}
		views = append(views, vs...)
	}
	return views
}

// bulkMatch runs the tier chain for many keys at once: alias and exact
// matches are unioned per key, and keys still unmatched go through one
// prefix statement if they are long enough.
func bulkMatch(ctx context.Context, sess repository.Session, e repository.Entity, keys []string, f repository.Filter) (repository.Matches, error) {
	matches, err := sess.AliasMatches(ctx, e, keys, f)
	if err != nil {
		return nil, err
	}
	exact, err := sess.ExactMatches(ctx, e, keys, f)
	if err != nil {
		return nil, err
	}
	matches.Merge(exact)

	var pending []string
	for _, k := range keys {
		if len(matches[k]) == 0 && query.PrefixEligible(k) {
			pending = append(pending, k)
		}
	}
	if len(pending) == 0 {
		return matches, nil
	}
	prefix, err := sess.PrefixMatches(ctx, e, pending, f)
	if err != nil {
		return nil, err
	}
	matches.Merge(prefix)
	return matches, nil
}

func (b *Resolver) fail(ctx context.Context, category, stage string, keys int, err error) {
	metrics.RecordErrorByComponent("batch", stage)
	b.logger.Error(ctx, "batch stage failed",
		logger.String("category", category),
		logger.String("stage", stage),
		logger.Int("keys", keys),
		logger.Error(err))
}

func chunk(keys []string, size int) [][]string {
	if len(keys) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(keys)
	}
	out := make([][]string, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		out = append(out, keys[start:end])
	}
	return out
}
