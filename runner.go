package stepflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stepflow-io/stepflow/internal/taskqueue"
	workerpkg "github.com/stepflow-io/stepflow/pkg/worker"
)

// Runner bundles a registry of workflow engines, a task queue, and a
// worker pool, so background runs can be submitted by workflow name.
//
// Typical usage:
//
//	runner := stepflow.NewRunner()
//	runner.MustRegister(engine)
//
//	_ = runner.StartWorkers(ctx, 2)
//	_ = runner.RunAsync(ctx, engine.Name(), stepflow.Text("hello"), nil)
//	...
//	runner.Stop()
type Runner struct {
	// Queue delivers tasks to the worker pool.
	Queue taskqueue.Queue

	// Worker processes tasks from Queue against registered engines.
	Worker *workerpkg.Worker

	logger *slog.Logger

	mu      sync.Mutex
	engines map[string]Engine
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewRunner constructs a Runner backed by an in-memory queue. Queued
// tasks do not survive the process; use NewDurableRunner when they
// must.
func NewRunner() *Runner {
	return newRunner(taskqueue.NewInMemoryQueue(1024))
}

// NewDurableRunner constructs a Runner whose queue is persisted in
// the given SQLite database, so deferred and not-yet-processed tasks
// survive restarts.
func NewDurableRunner(db *sql.DB) (*Runner, error) {
	q, err := taskqueue.NewSQLiteQueue(db)
	if err != nil {
		return nil, err
	}
	return newRunner(q), nil
}

func newRunner(q taskqueue.Queue) *Runner {
	r := &Runner{
		Queue:   q,
		logger:  slog.Default(),
		engines: make(map[string]Engine),
	}
	r.Worker = workerpkg.New(r, q)
	return r
}

// Register adds an engine to the runner under its workflow name.
func (r *Runner) Register(eng Engine) error {
	if eng == nil {
		return errors.New("stepflow: cannot register nil engine")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.engines[eng.Name()]; exists {
		return fmt.Errorf("stepflow: workflow %q already registered", eng.Name())
	}
	r.engines[eng.Name()] = eng
	return nil
}

// MustRegister is like Register but panics on error. Useful for
// initialization in main().
func (r *Runner) MustRegister(eng Engine) {
	if err := r.Register(eng); err != nil {
		panic(err)
	}
}

// Lookup implements worker.Resolver.
func (r *Runner) Lookup(name string) (Engine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	eng, ok := r.engines[name]
	return eng, ok
}

// StartWorkers starts 'concurrency' worker goroutines draining the
// queue until Stop is called. Calling it again without Stop is an
// error.
func (r *Runner) StartWorkers(ctx context.Context, concurrency int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("stepflow: runner already started")
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	r.wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer r.wg.Done()
			r.Worker.Loop(ctx, func(err error) {
				// A bad task must not kill the worker loop.
				r.logger.Warn("runner worker error", "error", err)
			})
		}()
	}
	return nil
}

// Stop cancels the worker goroutines started by StartWorkers and
// waits for them to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

// RunAsync enqueues a background run of the named workflow. A worker
// picks it up and calls StartRun on the matching engine; poll the
// engine's GetRun for progress.
func (r *Runner) RunAsync(ctx context.Context, workflow string, message Content, opts *RunOptions) error {
	return r.Worker.EnqueueStartRun(ctx, workflow, message, opts)
}

// RunAsyncAt enqueues a background run that starts no earlier than
// 'at'.
func (r *Runner) RunAsyncAt(ctx context.Context, workflow string, message Content, opts *RunOptions, at time.Time) error {
	return r.Worker.EnqueueStartRunAt(ctx, workflow, message, opts, at)
}

// CancelAsync enqueues a cancellation request for a run of the named
// workflow.
func (r *Runner) CancelAsync(ctx context.Context, workflow, runID string) error {
	return r.Worker.EnqueueCancelRun(ctx, workflow, runID)
}
