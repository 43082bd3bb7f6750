package service

import (
	"time"

	"github.com/okian/canon/internal/adapters/cache"
	"github.com/okian/canon/internal/adapters/repository"
	"github.com/okian/canon/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the entity store. The service owns it and closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCache sets the cache client. The service closes it on Stop.
func WithCache(c *cache.Client) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithWorkerCount sets the number of batch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the batch task queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithChunkSize sets how many keys a bulk match statement carries.
func WithChunkSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithProbeConcurrency bounds parallel cache reads and writes inside a batch category.
func WithProbeConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.probeConcurrency = n
		}
	}
}

// WithTaskTimeout bounds each batch task run on the worker pool. Zero disables it.
func WithTaskTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.taskTimeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
