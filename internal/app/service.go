// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/canon/internal/adapters/cache"
	taskqueue "github.com/okian/canon/internal/adapters/mq/queue"
	workerpool "github.com/okian/canon/internal/adapters/mq/worker"
	"github.com/okian/canon/internal/adapters/repository"
	"github.com/okian/canon/internal/domain/batch"
	"github.com/okian/canon/internal/domain/model"
	"github.com/okian/canon/internal/domain/query"
	"github.com/okian/canon/internal/domain/resolver"
	"github.com/okian/canon/internal/domain/types"
	"github.com/okian/canon/pkg/logger"
	"github.com/okian/canon/pkg/metrics"
)

const (
	defaultWorkerCount      = 5
	defaultQueueSize        = 1024
	defaultChunkSize        = 50
	defaultProbeConcurrency = 8
	stopTimeout             = 30 * time.Second
)

// Service implements the API dependencies for the resolution system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store  repository.Store
	cache  *cache.Client
	queue  *taskqueue.InMemoryQueue
	pool   *workerpool.Pool
	single *resolver.Resolver
	batch  *batch.Resolver

	// Configuration
	workerCount      int
	queueSize        int
	chunkSize        int
	probeConcurrency int
	taskTimeout      time.Duration

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      defaultWorkerCount,
		queueSize:        defaultQueueSize,
		chunkSize:        defaultChunkSize,
		probeConcurrency: defaultProbeConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.cache == nil {
		s.cache = cache.New(nil)
	}
	return s
}

// Start builds the task queue, the worker pool and both resolvers. Workers
// outlive ctx; they stop on Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil {
		return ErrNoStore
	}

	s.logger.Info(ctx, "starting resolution service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.queue = taskqueue.NewInMemoryQueue(taskqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue,
		workerpool.WithLogger(s.logger.Named("worker")),
		workerpool.WithTaskTimeout(s.taskTimeout),
	)
	s.pool.Start(runCtx)

	s.single = resolver.New(s.store,
		resolver.WithCache(s.cache),
		resolver.WithLogger(s.logger.Named("resolver")),
	)
	s.batch = batch.New(s.store, s.single,
		batch.WithCache(s.cache),
		batch.WithPool(s.pool),
		batch.WithChunkSize(s.chunkSize),
		batch.WithProbeConcurrency(s.probeConcurrency),
		batch.WithLogger(s.logger.Named("batch")),
	)

	s.started = true
	s.logger.Info(ctx, "resolution service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("chunkSize", s.chunkSize),
		logger.Bool("cache", s.cache.Enabled()),
	)
	return nil
}

// Stop drains the worker pool and closes the store and the cache. A stopped
// service cannot be started again since its store is closed.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	s.logger.Info(ctx, "stopping resolution service...")

	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing entity store", logger.Error(err))
	}
	if err := s.cache.Close(); err != nil {
		s.logger.Error(ctx, "error closing cache", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "resolution service stopped")
}

func (s *Service) resolvers() (*resolver.Resolver, *batch.Resolver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.single, s.batch, nil
}

// Resolve answers one lookup. A nil result with a nil error means nothing
// matched. query.ErrEmptyQuery is returned when p names no entity.
func (s *Service) Resolve(ctx context.Context, p query.Params) (model.Result, error) {
	single, _, err := s.resolvers()
	if err != nil {
		return nil, err
	}
	q, err := query.FromParams(p)
	if err != nil {
		return nil, err
	}
	return single.Resolve(ctx, q)
}

// ResolveBatch resolves lists of independent names per category.
func (s *Service) ResolveBatch(ctx context.Context, req types.BatchRequest) (types.BatchResults, error) {
	_, b, err := s.resolvers()
	if err != nil {
		return nil, err
	}
	return b.ResolveBatch(ctx, req), nil
}

// ResolvePrecisionBatch resolves combined lookups preserving input order.
func (s *Service) ResolvePrecisionBatch(ctx context.Context, queries []query.Params) (types.PrecisionResults, error) {
	_, b, err := s.resolvers()
	if err != nil {
		return types.PrecisionResults{}, err
	}
	return b.ResolvePrecisionBatch(ctx, queries), nil
}

// Invalidate removes the cached result of the lookup p would run. It reports
// whether an entry existed.
func (s *Service) Invalidate(ctx context.Context, p query.Params) (bool, error) {
	q, err := query.FromParams(p)
	if err != nil {
		return false, err
	}
	return s.cache.Invalidate(ctx, q.Params()), nil
}

// InvalidateCategory removes every cached result of one category.
func (s *Service) InvalidateCategory(ctx context.Context, c query.Category) (int64, bool) {
	n, ok := s.cache.InvalidateCategory(ctx, c)
	if ok {
		s.logger.Info(ctx, "cache category invalidated", logger.String("category", string(c)), logger.Int64("keys", n))
	}
	return n, ok
}

// ClearAllCache removes every cached result.
func (s *Service) ClearAllCache(ctx context.Context) bool {
	ok := s.cache.ClearAll(ctx)
	if ok {
		s.logger.Info(ctx, "cache cleared")
	}
	return ok
}

// CacheStats reports cache counters and backend state.
func (s *Service) CacheStats(ctx context.Context) cache.Stats {
	return s.cache.Stats(ctx)
}

// Ping checks that the entity store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		return ErrNoStore
	}
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("entity store: %w", err)
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"chunkSize":        s.chunkSize,
		"probeConcurrency": s.probeConcurrency,
		"cacheEnabled":     s.cache.Enabled(),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["busyWorkers"] = s.pool.Busy()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerActiveCount(s.pool.Size())
	}
	if st, ok := s.store.(interface{ Stats() repository.Stats }); ok {
		stats["store"] = st.Stats()
	}

	return stats
}
