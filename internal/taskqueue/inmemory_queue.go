package taskqueue

import (
	"context"
	"time"
)

// InMemoryQueue is a Queue backed by a buffered channel. It is safe
// for concurrent use. Deferred tasks are held back by a timer and
// delivered once their NotBefore time passes.
type InMemoryQueue struct {
	ch chan Task
}

// NewInMemoryQueue creates a queue with the given capacity.
// For tests and small deployments a modest capacity (e.g. 1024) is fine.
func NewInMemoryQueue(capacity int) *InMemoryQueue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &InMemoryQueue{
		ch: make(chan Task, capacity),
	}
}

var _ Queue = (*InMemoryQueue)(nil)

func (q *InMemoryQueue) Enqueue(ctx context.Context, t Task) error {
	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = time.Now()
	}
	if delay := time.Until(t.NotBefore); delay > 0 {
		// Deferred tasks survive only as long as the process; durable
		// scheduling is the SQLite queue's job.
		time.AfterFunc(delay, func() { q.ch <- t })
		return nil
	}
	select {
	case q.ch <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *InMemoryQueue) Dequeue(ctx context.Context) (*Task, error) {
	select {
	case t := <-q.ch:
		return &t, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *InMemoryQueue) Len() int {
	return len(q.ch)
}
