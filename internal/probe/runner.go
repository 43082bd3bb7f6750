package probe

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/canon/pkg/logger"
)

// ErrNoNames is returned when a run has nothing to resolve.
var ErrNoNames = errors.New("no team, player or market names configured")

// Run executes the complete probe and returns the collected statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if err := config.normalize(); err != nil {
		return nil, err
	}

	stats := &Stats{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
	client := newHTTPClient(config.Timeout, stats.RunID)

	logger.Get().Info(ctx, "starting canon probe",
		logger.String("runID", stats.RunID),
		logger.String("baseURL", config.BaseURL),
		logger.Strings("teams", config.Teams),
		logger.Strings("players", config.Players),
		logger.Strings("markets", config.Markets),
		logger.String("sport", config.Sport),
		logger.Int("rounds", config.Rounds),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Resolve twice and compare cache hits
	if err := checkCacheHits(ctx, config, client, stats); err != nil {
		return stats, fmt.Errorf("cache hit check failed: %w", err)
	}

	// Step 3: Spelling variants in one batch
	if err := checkBatchVariants(ctx, config, client, stats); err != nil {
		return stats, fmt.Errorf("batch variant check failed: %w", err)
	}

	// Step 4: Precision batch ordering
	if err := checkPrecisionOrder(ctx, config, client, stats); err != nil {
		return stats, fmt.Errorf("precision check failed: %w", err)
	}

	// Step 5: Concurrent load
	batch, _ := variantBatch(config)
	if err := runLoad(ctx, config, client, batch, stats); err != nil {
		return stats, fmt.Errorf("load phase failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(ctx, stats)

	logger.Get().Info(ctx, "probe completed successfully")
	return stats, nil
}

// normalize applies defaults and drops blank names.
func (c *Config) normalize() error {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.BaseURL == "" {
		return errors.New("base URL is required")
	}
	c.Teams = compact(c.Teams)
	c.Players = compact(c.Players)
	c.Markets = compact(c.Markets)
	if len(c.Teams)+len(c.Players)+len(c.Markets) == 0 {
		return ErrNoNames
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU() * WorkerChannelMultiplier
	}
	if c.Rounds <= 0 {
		c.Rounds = DefaultRounds
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return nil
}

// SplitNames splits a comma separated flag value.
func SplitNames(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return compact(strings.Split(s, ","))
}

func compact(names []string) []string {
	out := names[:0:0]
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// displayFinalStats prints the final probe statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var foundRate float64
	if stats.LookupsSent > 0 {
		foundRate = float64(2*stats.LookupsFound) / float64(stats.LookupsSent) * PercentageMultiplier
	}

	logger.Get().Info(ctx, "final statistics",
		logger.String("runID", stats.RunID),
		logger.Int("lookupsSent", stats.LookupsSent),
		logger.Int("lookupsFound", stats.LookupsFound),
		logger.Float64("foundRate", foundRate),
		logger.Int64("hitsGained", stats.HitsGained),
		logger.Int("variantsChecked", stats.VariantsChecked),
		logger.Int("precisionQueries", stats.PrecisionQueries),
		logger.Int("batchesSent", stats.BatchesSent),
		logger.Int("batchesFailed", stats.BatchesFailed),
		logger.Duration("latencyP50", stats.LatencyP50),
		logger.Duration("latencyP95", stats.LatencyP95),
		logger.Duration("latencyP99", stats.LatencyP99),
		logger.Duration("latencyMax", stats.LatencyMax),
		logger.Float64("batchesPerSecond", stats.Throughput),
		logger.Duration("duration", stats.Duration))
}
