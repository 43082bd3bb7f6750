package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	// ErrBackpressure is returned when the task queue is full or closed.
	ErrBackpressure = errors.New("worker pool saturated")
	// ErrPanic wraps a panic recovered from a task run through Pool.Do.
	ErrPanic = errors.New("task panicked")
)
