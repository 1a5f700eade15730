// Package taskqueue provides the dispatch queue that decouples run
// submission from run execution. Producers enqueue start-run and
// cancel-run tasks; worker goroutines dequeue and apply them to the
// matching workflow engine.
package taskqueue

import (
	"context"
	"time"

	"github.com/stepflow-io/stepflow/pkg/api"
)

// TaskType identifies what the worker should do with a task.
type TaskType string

const (
	TaskTypeStartRun  TaskType = "start-run"
	TaskTypeCancelRun TaskType = "cancel-run"
)

// Task is a unit of work for the worker pool.
type Task struct {
	ID   string   `json:"id"`
	Type TaskType `json:"type"`

	// Workflow names the registered engine the task targets.
	Workflow string `json:"workflow"`

	// For start-run tasks.
	Message api.Content     `json:"message,omitempty"`
	Options *api.RunOptions `json:"options,omitempty"`

	// For cancel-run tasks.
	RunID string `json:"run_id,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`

	// NotBefore is the earliest time the task becomes eligible for
	// processing. Zero means immediately.
	NotBefore time.Time `json:"not_before,omitempty"`
}

// Queue is the task queue abstraction shared by the in-memory and
// SQLite-backed implementations.
type Queue interface {
	// Enqueue adds a task to the queue, respecting ctx for cancellation.
	Enqueue(ctx context.Context, t Task) error

	// Dequeue removes and returns the next eligible task, blocking
	// until one is available or the context is cancelled.
	Dequeue(ctx context.Context) (*Task, error)

	// Len returns the approximate number of tasks queued.
	Len() int
}
