// Package scheduler provides the delayed task queue and the worker pool that
// drives pipeline stages.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

// Queue is a bounded in-memory task queue with context-aware operations.
type Queue struct {
	ch      chan analyzer.Task
	closeMu sync.Mutex
	closed  bool
}

// NewQueue constructs a queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ch: make(chan analyzer.Task, capacity),
	}
}

// Enqueue pushes a task into the queue or returns if the context ends.
func (q *Queue) Enqueue(ctx context.Context, task analyzer.Task) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- task:
		return nil
	}
}

// Dequeue pops the next task, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (analyzer.Task, error) {
	select {
	case <-ctx.Done():
		return analyzer.Task{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case task, ok := <-q.ch:
		if !ok {
			return analyzer.Task{}, errors.New("queue closed")
		}
		return task, nil
	}
}

// Close closes the underlying channel for shutdown.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
