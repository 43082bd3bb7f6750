package repository

import (
	"time"

	"github.com/okian/canon/pkg/logger"
)

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *SQLStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxOpenConns bounds the connection pool.
func WithMaxOpenConns(n int) Option {
	return func(s *SQLStore) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithMaxIdleConns sets how many idle connections are kept for reuse.
func WithMaxIdleConns(n int) Option {
	return func(s *SQLStore) {
		if n >= 0 {
			s.maxIdleConns = n
		}
	}
}

// WithConnMaxLifetime recycles pooled connections after d.
func WithConnMaxLifetime(d time.Duration) Option {
	return func(s *SQLStore) {
		if d > 0 {
			s.connMaxLifetime = d
		}
	}
}

// WithMaxParams caps the ids bound into a single IN (...) projection.
func WithMaxParams(n int) Option {
	return func(s *SQLStore) {
		if n > 0 {
			s.maxParams = n
		}
	}
}
