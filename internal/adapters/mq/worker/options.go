package worker

import (
	"time"

	"github.com/okian/canon/pkg/logger"
)

// Option configures every worker a pool creates.
type Option func(*InMemoryWorker)

// WithName sets the worker name used in its log component.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithTaskTimeout bounds how long one task may run. Zero disables the bound.
func WithTaskTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d >= 0 {
			w.taskTimeout = d
		}
	}
}
