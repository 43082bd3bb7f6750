package batch

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/okian/canon/internal/adapters/repository"
	"github.com/okian/canon/internal/domain/dedupe"
	"github.com/okian/canon/internal/domain/model"
	"github.com/okian/canon/internal/domain/query"
	"github.com/okian/canon/pkg/metrics"
)

// marketIndex holds the whole market table so a batch resolves every market
// name in memory with the same tiers as a single lookup.
type marketIndex struct {
	byAlias map[string]model.Market
	byName  map[string]model.Market
	// byLength is ordered by name length, then id, for prefix matching.
	byLength []model.Market
}

func loadMarketIndex(ctx context.Context, sess repository.Session) (*marketIndex, error) {
	markets, err := sess.Markets(ctx)
	if err != nil {
		return nil, err
	}
	aliases, err := sess.MarketAliases(ctx)
	if err != nil {
		return nil, err
	}
	return newMarketIndex(markets, aliases), nil
}

func newMarketIndex(markets []model.Market, aliases []repository.MarketAlias) *marketIndex {
	idx := &marketIndex{
		byAlias:  make(map[string]model.Market, len(aliases)),
		byName:   make(map[string]model.Market, len(markets)),
		byLength: append([]model.Market(nil), markets...),
	}
	sort.SliceStable(idx.byLength, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(idx.byLength[i].Name), utf8.RuneCountInString(idx.byLength[j].Name)
		if li != lj {
			return li < lj
		}
		return idx.byLength[i].ID < idx.byLength[j].ID
	})

	byID := make(map[int64]model.Market, len(markets))
	ordered := append([]model.Market(nil), markets...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	for _, m := range ordered {
		byID[m.ID] = m
		if k := query.StripMarket(m.Name); k != "" {
			if _, ok := idx.byName[k]; !ok {
				idx.byName[k] = m
			}
		}
	}

	sorted := append([]repository.MarketAlias(nil), aliases...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MarketID < sorted[j].MarketID })
	for _, a := range sorted {
		m, ok := byID[a.MarketID]
		if !ok {
			continue
		}
		if k := query.StripMarket(a.Alias); k != "" {
			if _, taken := idx.byAlias[k]; !taken {
				idx.byAlias[k] = m
			}
		}
	}
	return idx
}

// lookup resolves a canonical market key.
func (idx *marketIndex) lookup(key string) (model.Market, bool) {
	stripped := query.StripMarket(key)
	if m, ok := idx.byAlias[stripped]; ok {
		return m, true
	}
	if m, ok := idx.byName[stripped]; ok {
		return m, true
	}
	if m, ok := idx.prefix(key); ok {
		return m, true
	}
	if expanded := query.ExpandTerms(key); expanded != key {
		return idx.prefix(expanded)
	}
	return model.Market{}, false
}

func (idx *marketIndex) prefix(p string) (model.Market, bool) {
	if p == "" {
		return model.Market{}, false
	}
	for _, m := range idx.byLength {
		if strings.HasPrefix(strings.ToLower(m.Name), p) {
			return m, true
		}
	}
	return model.Market{}, false
}

func (b *Resolver) resolveMarkets(ctx context.Context, names []string) map[string]model.Result {
	const cat = string(query.CategoryMarket)
	params := func(n string) query.Params { return query.Params{Market: n} }
	out := empty(names)

	hits, misses := b.probe(ctx, dedupe.Unique(names), params)
	for n, r := range hits {
		out[n] = r
	}
	groups := b.grouper.Group(misses)
	if len(groups) == 0 {
		return out
	}
	metrics.RecordBatchUniqueKeys(cat, len(groups))

	sess, err := b.store.Session(ctx)
	if err != nil {
		b.fail(ctx, cat, "session", len(groups), err)
		return out
	}
	defer sess.Close()

	idx, err := loadMarketIndex(ctx, sess)
	if err != nil {
		b.fail(ctx, cat, "index", len(groups), err)
		return out
	}

	found := make(map[string]model.Market, len(groups))
	var ids []int64
	seen := make(map[int64]struct{})
	for _, grp := range groups {
		m, ok := idx.lookup(grp.Key)
		if !ok {
			continue
		}
		found[grp.Key] = m
		if _, dup := seen[m.ID]; !dup {
			seen[m.ID] = struct{}{}
			ids = append(ids, m.ID)
		}
	}
	if len(ids) == 0 {
		return out
	}
	sports, err := sess.MarketSports(ctx, ids)
	if err != nil {
		b.fail(ctx, cat, "project", len(ids), err)
		return out
	}

	var writes []write
	for _, grp := range groups {
		m, ok := found[grp.Key]
		if !ok {
			continue
		}
		res := model.NewMarketResult(grp.Key, m, sports[m.ID])
		for _, s := range grp.Spellings {
			out[s] = res
			writes = append(writes, write{name: s, result: res})
		}
	}
	b.remember(ctx, writes, params)
	return out
}
