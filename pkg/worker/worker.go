// Package worker provides the background worker that drains the task
// queue and dispatches runs to registered workflow engines.
//
// Workers are decoupled from any particular queue backend: the
// in-memory queue serves embedded use, the SQLite queue gives deferred
// tasks durability across restarts. Multiple workers can safely drain
// the same queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stepflow-io/stepflow/internal/taskqueue"
	"github.com/stepflow-io/stepflow/pkg/api"
)

// Resolver maps a workflow name to its registered engine. The runner
// in the stepflow package implements it over its registry.
type Resolver interface {
	Lookup(name string) (api.Engine, bool)
}

// Worker pulls tasks from a Queue and applies them to engines found
// through the Resolver.
type Worker struct {
	resolver Resolver
	queue    taskqueue.Queue
}

// New creates a Worker. Both arguments are required.
func New(resolver Resolver, queue taskqueue.Queue) *Worker {
	if resolver == nil {
		panic("stepflow: worker requires a resolver")
	}
	if queue == nil {
		panic("stepflow: worker requires a queue")
	}
	return &Worker{resolver: resolver, queue: queue}
}

// EnqueueStartRun enqueues a task to start a background run of the
// named workflow. It does not run the workflow itself; that is done
// by ProcessOne.
func (w *Worker) EnqueueStartRun(ctx context.Context, workflow string, message api.Content, opts *api.RunOptions) error {
	t := taskqueue.Task{
		ID:         uuid.NewString(),
		Type:       taskqueue.TaskTypeStartRun,
		Workflow:   workflow,
		Message:    message,
		Options:    opts,
		EnqueuedAt: time.Now(),
	}
	return w.queue.Enqueue(ctx, t)
}

// EnqueueStartRunAt enqueues a start-run task that becomes eligible
// no earlier than 'at'.
func (w *Worker) EnqueueStartRunAt(ctx context.Context, workflow string, message api.Content, opts *api.RunOptions, at time.Time) error {
	t := taskqueue.Task{
		ID:         uuid.NewString(),
		Type:       taskqueue.TaskTypeStartRun,
		Workflow:   workflow,
		Message:    message,
		Options:    opts,
		EnqueuedAt: time.Now(),
		NotBefore:  at,
	}
	return w.queue.Enqueue(ctx, t)
}

// EnqueueCancelRun enqueues a cancellation request for a run of the
// named workflow.
func (w *Worker) EnqueueCancelRun(ctx context.Context, workflow, runID string) error {
	t := taskqueue.Task{
		ID:         uuid.NewString(),
		Type:       taskqueue.TaskTypeCancelRun,
		Workflow:   workflow,
		RunID:      runID,
		EnqueuedAt: time.Now(),
	}
	return w.queue.Enqueue(ctx, t)
}

// ProcessOne pulls a single task from the queue and processes it.
// Returns (processed, error):
//   - processed == false: no task was obtained (dequeue failed or ctx
//     was cancelled)
//   - processed == true: a task was processed; err reports whether the
//     handler succeeded.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	task, err := w.queue.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, nil
	}

	engine, ok := w.resolver.Lookup(task.Workflow)
	if !ok {
		return true, fmt.Errorf("worker: unknown workflow %q", task.Workflow)
	}

	switch task.Type {
	case taskqueue.TaskTypeStartRun:
		_, runErr := engine.StartRun(ctx, task.Message, task.Options)
		return true, runErr

	case taskqueue.TaskTypeCancelRun:
		if !engine.CancelRun(task.RunID) {
			return true, fmt.Errorf("worker: run %q not cancellable", task.RunID)
		}
		return true, nil

	default:
		return true, errors.New("worker: unknown task type: " + string(task.Type))
	}
}

// Loop processes tasks until ctx is cancelled. Handler errors are
// reported through onErr when non-nil and never stop the loop.
func (w *Worker) Loop(ctx context.Context, onErr func(error)) {
	for {
		processed, err := w.ProcessOne(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil && onErr != nil {
			onErr(err)
		}
		if !processed && err != nil {
			// Dequeue failure that is not a cancellation; back off
			// briefly to avoid a hot loop against a broken backend.
			select {
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
		}
	}
}
