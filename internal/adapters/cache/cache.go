// Package cache is the read-through cache in front of the entity store.
//
// Client derives keys from lookup parameters, serializes results with their
// type discriminator and absorbs every backend failure: a broken backend
// looks like an empty cache to callers, never like an error.
package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/okian/canon/internal/domain/model"
	"github.com/okian/canon/internal/domain/query"
	"github.com/okian/canon/pkg/logger"
	"github.com/okian/canon/pkg/metrics"
)

const (
	defaultTTL       = time.Hour
	defaultOpTimeout = 500 * time.Millisecond
)

// Stats statuses.
const (
	StatusOnline      = "online"
	StatusUnavailable = "unavailable"
	StatusDisabled    = "disabled"
	StatusError       = "error"
)

// Client is the cache used by the resolvers. It is safe for concurrent use.
type Client struct {
	backend   Backend
	logger    logger.Logger
	ttl       time.Duration
	opTimeout time.Duration
	enabled   bool

	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64
	writes   atomic.Int64
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Status            string  `json:"status"`
	Connected         bool    `json:"connected"`
	Backend           string  `json:"backend,omitempty"`
	Hits              int64   `json:"hits"`
	Misses            int64   `json:"misses"`
	Errors            int64   `json:"errors"`
	Writes            int64   `json:"writes"`
	HitRate           float64 `json:"hit_rate"`
	TTLSeconds        int64   `json:"ttl_seconds"`
	TotalKeys         int64   `json:"total_cache_keys"`
	Version           string  `json:"version,omitempty"`
	UsedMemory        string  `json:"used_memory_human,omitempty"`
	ConnectedClients  int64   `json:"connected_clients,omitempty"`
	CommandsProcessed int64   `json:"total_commands_processed,omitempty"`
	UptimeSeconds     int64   `json:"uptime_in_seconds,omitempty"`
	Error             string  `json:"error,omitempty"`
}

// New creates a Client over backend. A nil backend yields a disabled client.
func New(backend Backend, opts ...Option) *Client {
	c := &Client{
		backend:   backend,
		logger:    logger.Get().Named("cache"),
		ttl:       defaultTTL,
		opTimeout: defaultOpTimeout,
		enabled:   true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.backend == nil {
		c.enabled = false
	}
	return c
}

// Enabled reports whether the client talks to a backend.
func (c *Client) Enabled() bool { return c.enabled }

// TTL is the default entry lifetime.
func (c *Client) TTL() time.Duration { return c.ttl }

func (c *Client) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opTimeout)
}

func (c *Client) degrade(ctx context.Context, op, key string, err error) {
	c.failures.Add(1)
	metrics.RecordCacheError(op)
	metrics.RecordErrorByComponent("cache", op)
	c.logger.Warn(ctx, "cache unavailable",
		logger.String("op", op),
		logger.String("key", key),
		logger.Error(err))
}

// Get returns the cached result for p. Any failure reads as a miss.
func (c *Client) Get(ctx context.Context, p query.Params) (model.Result, bool) {
	if !c.enabled {
		return nil, false
	}
	key := Key(p)
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	raw, err := c.backend.Get(opCtx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.degrade(ctx, "get", key, err)
		}
		c.misses.Add(1)
		metrics.RecordCacheMiss()
		c.logger.Debug(ctx, "cache miss", logger.String("key", key))
		return nil, false
	}

	r, err := model.Decode(raw)
	if err != nil {
		c.degrade(ctx, "decode", key, err)
		c.misses.Add(1)
		metrics.RecordCacheMiss()
		return nil, false
	}
	c.hits.Add(1)
	metrics.RecordCacheHit()
	c.logger.Debug(ctx, "cache hit", logger.String("key", key))
	return r, true
}

// Set stores r under p with the default TTL.
func (c *Client) Set(ctx context.Context, p query.Params, r model.Result) bool {
	return c.SetTTL(ctx, p, r, c.ttl)
}

// SetTTL stores r under p for ttl. Nil results are never stored and a
// non-positive ttl falls back to the client default.
func (c *Client) SetTTL(ctx context.Context, p query.Params, r model.Result, ttl time.Duration) bool {
	if !c.enabled || r == nil {
		return false
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	key := Key(p)
	raw, err := model.Encode(r)
	if err != nil {
		c.degrade(ctx, "encode", key, err)
		return false
	}

	opCtx, cancel := c.opContext(ctx)
	defer cancel()
	if err := c.backend.Set(opCtx, key, raw, ttl); err != nil {
		c.degrade(ctx, "set", key, err)
		return false
	}
	c.writes.Add(1)
	metrics.RecordCacheWrite()
	return true
}

// Invalidate deletes the entry for p. It reports false when nothing was
// deleted or the backend failed.
func (c *Client) Invalidate(ctx context.Context, p query.Params) bool {
	if !c.enabled {
		return false
	}
	key := Key(p)
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	n, err := c.backend.Delete(opCtx, key)
	if err != nil {
		c.degrade(ctx, "invalidate", key, err)
		return false
	}
	if n > 0 {
		c.logger.Info(ctx, "cache entry invalidated", logger.String("key", key))
	}
	return n > 0
}

// InvalidateCategory deletes every entry written for lookups of category cat.
func (c *Client) InvalidateCategory(ctx context.Context, cat query.Category) (int64, bool) {
	if !c.enabled {
		return 0, false
	}
	pattern := CategoryPattern(cat)
	n, err := c.backend.DeleteByPattern(ctx, pattern)
	if err != nil {
		c.degrade(ctx, "invalidate_category", pattern, err)
		return n, false
	}
	c.logger.Info(ctx, "cache category invalidated",
		logger.String("category", string(cat)),
		logger.Int64("deleted", n))
	return n, true
}

// ClearAll deletes every entry in the cache namespace.
func (c *Client) ClearAll(ctx context.Context) bool {
	if !c.enabled {
		return false
	}
	n, err := c.backend.DeleteByPattern(ctx, AllPattern())
	if err != nil {
		c.degrade(ctx, "clear", AllPattern(), err)
		return false
	}
	c.logger.Info(ctx, "cache cleared", logger.Int64("deleted", n))
	return true
}

// Ping checks the backend.
func (c *Client) Ping(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	opCtx, cancel := c.opContext(ctx)
	defer cancel()
	return c.backend.Ping(opCtx)
}

// Stats reports local counters plus backend state.
func (c *Client) Stats(ctx context.Context) Stats {
	s := Stats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Errors:     c.failures.Load(),
		Writes:     c.writes.Load(),
		TTLSeconds: int64(c.ttl.Seconds()),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	if !c.enabled {
		s.Status = StatusDisabled
		return s
	}
	s.Backend = c.backend.Name()

	opCtx, cancel := c.opContext(ctx)
	defer cancel()
	if err := c.backend.Ping(opCtx); err != nil {
		s.Status = StatusUnavailable
		s.Error = err.Error()
		return s
	}
	s.Connected = true

	info, err := c.backend.Info(opCtx)
	if err != nil {
		s.Status = StatusError
		s.Error = err.Error()
		return s
	}
	keys, err := c.backend.Count(ctx, AllPattern())
	if err != nil {
		s.Status = StatusError
		s.Error = err.Error()
		return s
	}
	s.Status = StatusOnline
	s.TotalKeys = keys
	s.Version = info.Version
	s.UsedMemory = info.UsedMemory
	s.ConnectedClients = info.ConnectedClients
	s.CommandsProcessed = info.CommandsProcessed
	s.UptimeSeconds = info.UptimeSeconds
	return s
}

// Close releases the backend.
func (c *Client) Close() error {
	if c.backend == nil {
		return nil
	}
	return c.backend.Close()
}
