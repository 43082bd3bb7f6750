package resolver

import (
	"github.com/okian/canon/internal/domain/ranking"
	"github.com/okian/canon/pkg/logger"
)

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithCache enables read-through caching.
func WithCache(c Cache) Option {
	return func(r *Resolver) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithRanker replaces the league ranking used to order results.
func WithRanker(rk *ranking.Ranker) Option {
	return func(r *Resolver) {
		if rk != nil {
			r.ranker = rk
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}
