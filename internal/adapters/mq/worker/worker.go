// Package worker runs queued tasks on a fixed set of goroutines.
//
// The pool is process-wide: every batch request submits its per-category
// jobs here, so the amount of concurrent entity store work is capped no
// matter how many requests are in flight.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/canon/internal/adapters/mq/queue"
	"github.com/okian/canon/pkg/logger"
	"github.com/okian/canon/pkg/metrics"
)

const (
	defaultWorkerCount  = 5
	poolShutdownTimeout = 30 * time.Second
)

// Queue defines how the pool hands tasks to workers.
type Queue interface {
	Enqueue(ctx context.Context, t queue.Task) bool
	Dequeue(ctx context.Context) <-chan queue.Task
	Close() error
}

// Worker runs tasks received from a queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current task.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue       Queue
	name        string
	busy        *atomic.Int64
	taskTimeout time.Duration
	logger      logger.Logger

	shutdown chan struct{}
	done     chan struct{}
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		name:     "worker",
		busy:     &atomic.Int64{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	tasks := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			w.execute(ctx, task)
		}
	}
}

// Shutdown stops the worker after its current task.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// execute runs one task. A panicking task is logged and counted; the worker
// keeps running.
func (w *InMemoryWorker) execute(ctx context.Context, task queue.Task) {
	start := time.Now()
	w.busy.Add(1)
	metrics.AddWorkerBusy(1)
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordWorkerPanic()
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "task panicked", logger.Any("panic", r))
		}
		w.busy.Add(-1)
		metrics.AddWorkerBusy(-1)
		metrics.RecordWorkerTaskLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if w.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.taskTimeout)
		defer cancel()
	}
	task(ctx)
}

// Pool manages a fixed number of workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	busy    atomic.Int64
	started atomic.Bool

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers reading from q. A count below
// one falls back to the default.
func NewPool(workerCount int, q Queue, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, wopts...)
		w.busy = &pool.busy
		pool.workers[i] = w
	}
	return pool
}

// Start starts all workers. Calling it twice has no effect.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Size is the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Busy is the number of tasks currently running.
func (p *Pool) Busy() int { return int(p.busy.Load()) }

// Submit queues fn without blocking. fn runs with ctx, the submitter's
// context, narrowed to the worker's task deadline when one is set.
// ErrBackpressure is returned when the queue is full or closed.
func (p *Pool) Submit(ctx context.Context, fn func(ctx context.Context)) error {
	ok := p.queue.Enqueue(ctx, func(wctx context.Context) {
		if deadline, ok := wctx.Deadline(); ok {
			tctx, cancel := context.WithDeadline(ctx, deadline)
			defer cancel()
			fn(tctx)
			return
		}
		fn(ctx)
	})
	if !ok {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrBackpressure
	}
	return nil
}

// Do submits fn and waits for it to finish. A panic inside fn is returned as
// ErrPanic. If ctx ends first Do returns ctx.Err(); fn sees the same ctx.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	result := make(chan error, 1)
	err := p.Submit(ctx, func(ctx context.Context) {
		var err error
		defer func() {
			if r := recover(); r != nil {
				metrics.RecordWorkerPanic()
				err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
			result <- err
		}()
		if err = ctx.Err(); err != nil {
			return
		}
		err = fn(ctx)
	})
	if err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}
	if !p.started.Load() {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
