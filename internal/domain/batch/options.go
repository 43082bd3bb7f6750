package batch

import (
	"github.com/okian/canon/internal/domain/dedupe"
	"github.com/okian/canon/pkg/logger"
)

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithPool runs each category as one job on p. Without a pool categories
// run on their own goroutines.
func WithPool(p Pool) Option {
	return func(b *Resolver) {
		if p != nil {
			b.pool = p
		}
	}
}

// WithCache enables cache probes before, and cache writes after, store work.
func WithCache(c Cache) Option {
	return func(b *Resolver) {
		if c != nil {
			b.cache = c
		}
	}
}

// WithChunkSize caps the number of keys bound into one bulk statement.
func WithChunkSize(n int) Option {
	return func(b *Resolver) {
		if n > 0 {
			b.chunkSize = n
		}
	}
}

// WithProbeConcurrency caps parallel cache probes and writes per category.
func WithProbeConcurrency(n int) Option {
	return func(b *Resolver) {
		if n > 0 {
			b.probeConcurrency = n
		}
	}
}

// WithGrouper replaces the grouping of spellings by canonical key.
func WithGrouper(g *dedupe.Grouper) Option {
	return func(b *Resolver) {
		if g != nil {
			b.grouper = g
		}
	}
}

// WithLogger sets the batch logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Resolver) {
		if l != nil {
			b.logger = l
		}
	}
}
