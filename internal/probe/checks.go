package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/okian/canon/internal/domain/query"
	"github.com/okian/canon/internal/domain/types"
	"github.com/okian/canon/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ErrCheckFailed marks a service response that contradicts the expected behavior.
var ErrCheckFailed = errors.New("probe check failed")

// checkServiceHealth verifies the service is running and its store is reachable.
func checkServiceHealth(ctx context.Context, config *Config, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service health")

	var health healthResponse
	status, err := client.getJSON(ctx, config.BaseURL+"/healthz", &health)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: health check returned %d (%s)", ErrCheckFailed, status, health.Status)
	}
	if health.Status == "degraded" {
		logger.Get().Warn(ctx, "service is degraded; cache checks may be skipped")
		return nil
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// lookupURLs builds one GET /cache URL per configured name.
func lookupURLs(config *Config) []string {
	urls := make([]string, 0, len(config.Teams)+len(config.Players)+len(config.Markets))
	add := func(v url.Values) {
		urls = append(urls, config.BaseURL+"/cache?"+v.Encode())
	}
	for _, team := range config.Teams {
		add(url.Values{"team": {team}, "sport": {config.Sport}})
	}
	for _, player := range config.Players {
		add(url.Values{"player": {player}})
	}
	for _, market := range config.Markets {
		add(url.Values{"market": {market}})
	}
	return urls
}

// resolveAll issues every lookup concurrently and returns how many were found.
func resolveAll(ctx context.Context, config *Config, client *HTTPClient, urls []string) (int, error) {
	var found int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for _, u := range urls {
		g.Go(func() error {
			var resp lookupResponse
			status, err := client.getJSON(gctx, u, &resp)
			if err != nil {
				return err
			}
			switch status {
			case http.StatusOK:
				atomic.AddInt64(&found, 1)
			case http.StatusNotFound:
				logger.Get().Debug(gctx, "lookup not found", logger.String("url", u))
			default:
				return fmt.Errorf("%w: %s returned %d: %s", ErrCheckFailed, u, status, resp.Message)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return int(found), nil
}

// checkCacheHits resolves every name twice and verifies the second round was
// served from the cache.
func checkCacheHits(ctx context.Context, config *Config, client *HTTPClient, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "checking cache hits")

	statsURL := config.BaseURL + "/cache/stats"
	var before cacheStats
	if _, err := client.getJSON(ctx, statsURL, &before); err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	urls := lookupURLs(config)
	found, err := resolveAll(ctx, config, client, urls)
	if err != nil {
		return err
	}
	if _, err := resolveAll(ctx, config, client, urls); err != nil {
		return err
	}
	stats.LookupsSent = 2 * len(urls)
	stats.LookupsFound = found

	var after cacheStats
	if _, err := client.getJSON(ctx, statsURL, &after); err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}
	stats.HitsGained = after.Hits - before.Hits

	if after.Status != "online" {
		log.Warn(ctx, "cache is not online; skipping hit verification", logger.String("status", after.Status))
		return nil
	}
	if stats.HitsGained < int64(found) {
		return fmt.Errorf("%w: expected at least %d cache hits, gained %d", ErrCheckFailed, found, stats.HitsGained)
	}

	log.Info(ctx, "cache hits verified",
		logger.Int("found", found),
		logger.Int64("hitsGained", stats.HitsGained))
	return nil
}

// spellingVariants returns distinct case and whitespace variants of name.
func spellingVariants(name string) []string {
	candidates := []string{name, strings.ToUpper(name), strings.ToLower(name), "  " + name + "  "}
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// variantBatch expands every configured name into its variants. The groups
// map a category to the variant groups submitted for it.
func variantBatch(config *Config) (types.BatchRequest, map[query.Category][][]string) {
	req := types.BatchRequest{Sport: config.Sport}
	groups := make(map[query.Category][][]string)
	expand := func(cat query.Category, names []string) []string {
		var all []string
		for _, name := range names {
			v := spellingVariants(name)
			groups[cat] = append(groups[cat], v)
			all = append(all, v...)
		}
		return all
	}
	req.Teams = expand(query.CategoryTeam, config.Teams)
	req.Players = expand(query.CategoryPlayer, config.Players)
	req.Markets = expand(query.CategoryMarket, config.Markets)
	return req, groups
}

// checkBatchVariants submits an independent batch of spelling variants and
// verifies every variant of a name received identical data.
func checkBatchVariants(ctx context.Context, config *Config, client *HTTPClient, stats *Stats) error {
	logger.Get().Info(ctx, "checking batch variant consistency")

	req, groups := variantBatch(config)
	var out map[query.Category]map[string]json.RawMessage
	if _, err := client.postJSON(ctx, config.BaseURL+"/cache/batch", req, &out); err != nil {
		return err
	}

	for cat, catGroups := range groups {
		results, ok := out[cat]
		if !ok {
			return fmt.Errorf("%w: batch response has no %s category", ErrCheckFailed, cat)
		}
		for _, group := range catGroups {
			first, ok := results[group[0]]
			if !ok {
				return fmt.Errorf("%w: %s %q missing from batch response", ErrCheckFailed, cat, group[0])
			}
			for _, variant := range group[1:] {
				got, ok := results[variant]
				if !ok {
					return fmt.Errorf("%w: %s %q missing from batch response", ErrCheckFailed, cat, variant)
				}
				if !bytes.Equal(got, first) {
					return fmt.Errorf("%w: %s %q resolved differently from %q", ErrCheckFailed, cat, variant, group[0])
				}
				stats.VariantsChecked++
			}
		}
	}

	logger.Get().Info(ctx, "batch variants verified", logger.Int("variants", stats.VariantsChecked))
	return nil
}

// precisionQueries pairs the first team with every player and adds the
// remaining names as single-field lookups.
func precisionQueries(config *Config) []query.Params {
	var queries []query.Params
	if len(config.Teams) > 0 {
		for _, player := range config.Players {
			queries = append(queries, query.Params{Team: config.Teams[0], Player: player, Sport: config.Sport})
		}
	}
	for _, team := range config.Teams {
		queries = append(queries, query.Params{Team: team, Sport: config.Sport})
	}
	for _, market := range config.Markets {
		queries = append(queries, query.Params{Market: market})
	}
	return queries
}

// precisionResults mirrors types.PrecisionResults with the data left raw.
type precisionResults struct {
	Results []struct {
		Query query.Params    `json:"query"`
		Found bool            `json:"found"`
		Data  json.RawMessage `json:"data"`
	} `json:"results"`
	Total      int `json:"total_queries"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// checkPrecisionOrder submits a precision batch and verifies outcomes come
// back in input order with consistent totals.
func checkPrecisionOrder(ctx context.Context, config *Config, client *HTTPClient, stats *Stats) error {
	logger.Get().Info(ctx, "checking precision batch ordering")

	queries := precisionQueries(config)
	var out precisionResults
	if _, err := client.postJSON(ctx, config.BaseURL+"/cache/batch/precision",
		types.PrecisionRequest{Queries: queries}, &out); err != nil {
		return err
	}

	if len(out.Results) != len(queries) || out.Total != len(queries) {
		return fmt.Errorf("%w: sent %d queries, got %d results (total %d)",
			ErrCheckFailed, len(queries), len(out.Results), out.Total)
	}
	found := 0
	for i, res := range out.Results {
		if res.Query != queries[i] {
			return fmt.Errorf("%w: result %d echoes %+v, want %+v", ErrCheckFailed, i, res.Query, queries[i])
		}
		if res.Found {
			found++
		}
	}
	if out.Successful != found || out.Successful+out.Failed != out.Total {
		return fmt.Errorf("%w: inconsistent totals successful=%d failed=%d total=%d",
			ErrCheckFailed, out.Successful, out.Failed, out.Total)
	}
	stats.PrecisionQueries = len(queries)

	logger.Get().Info(ctx, "precision ordering verified",
		logger.Int("queries", len(queries)),
		logger.Int("successful", out.Successful))
	return nil
}
