package queue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func noop(context.Context) {}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	var ran atomic.Bool
	if !q.Enqueue(ctx, func(context.Context) { ran.Store(true) }) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	task := <-q.Dequeue(ctx)
	task(ctx)
	if !ran.Load() {
		t.Error("expected dequeued task to be the enqueued one")
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if q.Capacity() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Capacity())
	}
	if !q.Enqueue(ctx, noop) || !q.Enqueue(ctx, noop) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, noop) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_RejectsNilAndCancelled(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))

	if q.Enqueue(context.Background(), nil) {
		t.Error("expected nil task to be rejected")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if q.Enqueue(ctx, noop) {
		t.Error("expected enqueue with cancelled context to fail")
	}
	if l := q.Len(context.Background()); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()
	numGoroutines := 10
	numTasks := 100

	var executed atomic.Int64
	task := func(context.Context) { executed.Add(1) }

	done := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			for j := 0; j < numTasks; j++ {
				for !q.Enqueue(ctx, task) {
					time.Sleep(time.Millisecond)
				}
			}
			done <- true
		}()
	}

	consumersDone := make(chan struct{}, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			for task := range q.Dequeue(ctx) {
				task(ctx)
			}
			consumersDone <- struct{}{}
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		<-done
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	for i := 0; i < numGoroutines; i++ {
		<-consumersDone
	}

	if got := executed.Load(); got != int64(numGoroutines*numTasks) {
		t.Errorf("expected %d tasks executed, got %d", numGoroutines*numTasks, got)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, noop) || !q.Enqueue(ctx, noop) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, noop) {
		t.Error("expected enqueue to fail after closing")
	}

	// queued tasks stay receivable, then the channel closes
	drained := 0
	timeout := time.After(100 * time.Millisecond)
	tasks := q.Dequeue(ctx)
	for {
		select {
		case _, ok := <-tasks:
			if !ok {
				if drained != 2 {
					t.Errorf("expected 2 drained tasks, got %d", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained++
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}
