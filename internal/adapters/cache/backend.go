package cache

import (
	"context"
	"time"
)

// Backend is the key-value store behind Client. Patterns use the Redis glob
// syntax; callers only ever pass a literal prefix followed by '*'.
type Backend interface {
	// Name identifies the backend in stats ("redis", "memory").
	Name() string
	// Get returns the stored value or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value for ttl. A zero ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes keys and reports how many existed.
	Delete(ctx context.Context, keys ...string) (int64, error)
	// DeleteByPattern removes every key matching pattern without blocking the server.
	DeleteByPattern(ctx context.Context, pattern string) (int64, error)
	// Count returns the number of keys matching pattern.
	Count(ctx context.Context, pattern string) (int64, error)
	Ping(ctx context.Context) error
	Info(ctx context.Context) (Info, error)
	Close() error
}

// Info describes the backend server.
type Info struct {
	Version           string
	UsedMemory        string
	ConnectedClients  int64
	CommandsProcessed int64
	UptimeSeconds     int64
}
