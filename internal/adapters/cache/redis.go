package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultScanCount   = 500
	defaultDialTimeout = 2 * time.Second
	defaultIOTimeout   = time.Second
)

// RedisBackend stores entries in Redis. The underlying client dials lazily
// and re-dials on the next command after a failure, so a Redis outage at
// start-up or mid-flight only degrades the cache.
type RedisBackend struct {
	client    *redis.Client
	scanCount int64
}

// RedisOption configures a RedisBackend.
type RedisOption func(*redis.Options)

// WithDialTimeout bounds connection establishment.
func WithDialTimeout(d time.Duration) RedisOption {
	return func(o *redis.Options) {
		if d > 0 {
			o.DialTimeout = d
		}
	}
}

// WithIOTimeout bounds reads and writes on an established connection.
func WithIOTimeout(d time.Duration) RedisOption {
	return func(o *redis.Options) {
		if d > 0 {
			o.ReadTimeout = d
			o.WriteTimeout = d
		}
	}
}

// WithPoolSize caps the number of pooled Redis connections.
func WithPoolSize(n int) RedisOption {
	return func(o *redis.Options) {
		if n > 0 {
			o.PoolSize = n
		}
	}
}

// NewRedisBackend creates a backend for the Redis server at addr. It does not
// contact the server.
func NewRedisBackend(addr, password string, db int, opts ...RedisOption) *RedisBackend {
	o := &redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultIOTimeout,
		WriteTimeout: defaultIOTimeout,
		// every call attempts once; the caller degrades on failure
		MaxRetries: -1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return &RedisBackend{client: redis.NewClient(o), scanCount: defaultScanCount}
}

func (r *RedisBackend) Name() string { return "redis" }

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del: %w", err)
	}
	return n, nil
}

// DeleteByPattern walks the keyspace with SCAN and deletes in batches.
func (r *RedisBackend) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	var (
		deleted int64
		batch   = make([]string, 0, r.scanCount)
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := r.client.Del(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		deleted += n
		batch = batch[:0]
		return nil
	}

	iter := r.client.Scan(ctx, 0, pattern, r.scanCount).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if int64(len(batch)) >= r.scanCount {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("redis scan: %w", err)
	}
	if err := flush(); err != nil {
		return deleted, err
	}
	return deleted, nil
}

func (r *RedisBackend) Count(ctx context.Context, pattern string) (int64, error) {
	var n int64
	iter := r.client.Scan(ctx, 0, pattern, r.scanCount).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan: %w", err)
	}
	return n, nil
}

func (r *RedisBackend) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *RedisBackend) Info(ctx context.Context) (Info, error) {
	sections, err := r.client.InfoMap(ctx, "server", "clients", "memory", "stats").Result()
	if err != nil {
		return Info{}, fmt.Errorf("redis info: %w", err)
	}
	return infoFromSections(sections), nil
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}

// infoFromSections picks the reported fields out of an INFO reply parsed
// by go-redis into section -> field -> value.
func infoFromSections(sections map[string]map[string]string) Info {
	atoi := func(section, field string) int64 {
		n, _ := strconv.ParseInt(sections[section][field], 10, 64)
		return n
	}
	return Info{
		Version:           sections["Server"]["redis_version"],
		UptimeSeconds:     atoi("Server", "uptime_in_seconds"),
		ConnectedClients:  atoi("Clients", "connected_clients"),
		UsedMemory:        sections["Memory"]["used_memory_human"],
		CommandsProcessed: atoi("Stats", "total_commands_processed"),
	}
}
