// Package engine holds the workflow execution core: the sequential
// step walk, the run lifecycle state machine, and the background run
// table that serves polling and cancellation.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stepflow-io/stepflow/internal/storage"
	"github.com/stepflow-io/stepflow/pkg/api"
)

// Config carries everything a workflow engine needs. Zero fields get
// sensible defaults: generated IDs, an in-memory store, a noop
// observer and the default slog logger.
type Config struct {
	Name         string
	WorkflowID   string
	SessionID    string
	Steps        []api.Primitive
	Store        storage.SessionStore
	Observer     api.Observer
	Logger       *slog.Logger
	SessionState map[string]any
}

type workflowEngine struct {
	name       string
	workflowID string
	sessionID  string
	steps      []api.Primitive
	store      storage.SessionStore
	observer   api.Observer
	logger     *slog.Logger
	session    *api.SessionState

	mu        sync.Mutex
	runs      map[string]*runHandle
	history   []*runHandle
	loaded    bool
	createdAt int64
}

// runHandle pairs a run record with the controls the engine needs to
// drive it: a mutex for snapshot consistency, the cancel func of the
// detached run context, and a done channel closed on termination.
type runHandle struct {
	mu              sync.Mutex
	run             *api.RunResponse
	cancel          context.CancelFunc
	cancelRequested bool
	done            chan struct{}
}

func (h *runHandle) snapshot() *api.RunResponse {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.run.Clone()
}

func (h *runHandle) cancelled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelRequested
}

// New builds an Engine from cfg. It panics if cfg.Name is empty or
// cfg.Steps is empty, mirroring the builder contract: an engine with
// nothing to execute is a programming error, not a runtime condition.
func New(cfg Config) api.Engine {
	if cfg.Name == "" {
		panic("stepflow: engine requires a name")
	}
	if len(cfg.Steps) == 0 {
		panic("stepflow: engine requires at least one step")
	}
	if cfg.WorkflowID == "" {
		cfg.WorkflowID = uuid.NewString()
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if cfg.Store == nil {
		cfg.Store = storage.NewMemoryStore()
	}
	if cfg.Observer == nil {
		cfg.Observer = api.NoopObserver{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	session := api.NewSessionState()
	for k, v := range cfg.SessionState {
		session.Set(k, v)
	}
	return &workflowEngine{
		name:       cfg.Name,
		workflowID: cfg.WorkflowID,
		sessionID:  cfg.SessionID,
		steps:      cfg.Steps,
		store:      cfg.Store,
		observer:   cfg.Observer,
		logger:     cfg.Logger,
		session:    session,
		runs:       make(map[string]*runHandle),
	}
}

func (e *workflowEngine) Name() string       { return e.name }
func (e *workflowEngine) WorkflowID() string { return e.workflowID }
func (e *workflowEngine) SessionID() string  { return e.sessionID }

func (e *workflowEngine) SessionState() *api.SessionState { return e.session }

// Run executes the workflow synchronously and returns the terminal
// run response. Requesting background execution through opts is a
// configuration error; callers wanting background runs use StartRun.
func (e *workflowEngine) Run(ctx context.Context, message api.Content, opts *api.RunOptions) (*api.RunResponse, error) {
	if opts != nil && opts.Background {
		return nil, api.ErrBackgroundRun
	}
	if err := e.ensureSession(ctx); err != nil {
		return nil, err
	}
	h := e.newRun()
	e.execute(ctx, h, message, opts)
	if err := e.checkpoint(ctx); err != nil {
		return h.snapshot(), fmt.Errorf("stepflow: persist session %q: %w", e.sessionID, err)
	}
	return h.snapshot(), nil
}

// StartRun launches the workflow in the background and returns
// immediately with a pending run response. The caller polls GetRun
// with the returned RunID to observe progress. The run detaches from
// ctx's cancellation; CancelRun is the way to stop it.
func (e *workflowEngine) StartRun(ctx context.Context, message api.Content, opts *api.RunOptions) (*api.RunResponse, error) {
	if err := e.ensureSession(ctx); err != nil {
		return nil, err
	}
	h := e.newRun()
	pending := h.snapshot()

	// The pending record is persisted before the goroutine starts so a
	// crash between StartRun and the first step still leaves a trace.
	if err := e.checkpoint(ctx); err != nil {
		e.logger.Warn("persisting pending run failed",
			"session_id", e.sessionID, "run_id", pending.RunID, "error", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	go func() {
		defer cancel()
		e.execute(runCtx, h, message, opts)
		if err := e.checkpoint(context.WithoutCancel(runCtx)); err != nil {
			e.logger.Warn("session checkpoint failed",
				"session_id", e.sessionID, "run_id", pending.RunID, "error", err)
		}
	}()
	return pending, nil
}

// GetRun returns a snapshot of the run with the given ID, or false if
// the engine has no record of it. The snapshot is a deep copy; the
// caller can hold it across polls without racing the run goroutine.
func (e *workflowEngine) GetRun(runID string) (*api.RunResponse, bool) {
	e.mu.Lock()
	h, ok := e.runs[runID]
	e.mu.Unlock()
	if !ok {
		return nil, false
	}
	return h.snapshot(), true
}

// CancelRun requests cancellation of an in-flight run. It reports
// whether the request was accepted; runs already terminal and unknown
// run IDs return false. Cancellation is cooperative: a step already
// executing finishes, but its result is discarded and no further
// steps start.
func (e *workflowEngine) CancelRun(runID string) bool {
	e.mu.Lock()
	h, ok := e.runs[runID]
	e.mu.Unlock()
	if !ok {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.run.Status.Terminal() || h.cancelRequested {
		return false
	}
	h.cancelRequested = true
	if h.cancel != nil {
		h.cancel()
	}
	return true
}

// History returns snapshots of every run recorded against this
// engine's session, oldest first, including runs restored from the
// session store.
func (e *workflowEngine) History(ctx context.Context) ([]*api.RunResponse, error) {
	if err := e.ensureSession(ctx); err != nil {
		return nil, err
	}
	e.mu.Lock()
	handles := make([]*runHandle, len(e.history))
	copy(handles, e.history)
	e.mu.Unlock()
	out := make([]*api.RunResponse, len(handles))
	for i, h := range handles {
		out[i] = h.snapshot()
	}
	return out, nil
}

// DeleteSession removes the persisted session and clears in-memory
// session state and run history. A session absent from the store is
// not an error.
func (e *workflowEngine) DeleteSession(ctx context.Context) error {
	if err := e.store.Delete(ctx, e.sessionID); err != nil && err != storage.ErrSessionNotFound {
		return fmt.Errorf("stepflow: delete session %q: %w", e.sessionID, err)
	}
	e.session.Clear()
	e.mu.Lock()
	e.history = nil
	e.runs = make(map[string]*runHandle)
	e.loaded = true
	e.createdAt = 0
	e.mu.Unlock()
	return nil
}

// newRun registers a fresh pending run in the run table and history.
func (e *workflowEngine) newRun() *runHandle {
	now := time.Now().UTC()
	h := &runHandle{
		run: &api.RunResponse{
			RunID:        uuid.NewString(),
			SessionID:    e.sessionID,
			WorkflowID:   e.workflowID,
			WorkflowName: e.name,
			Status:       api.RunPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		done: make(chan struct{}),
	}
	e.mu.Lock()
	e.runs[h.run.RunID] = h
	e.history = append(e.history, h)
	e.mu.Unlock()
	return h
}

// execute drives the run to a terminal status. All mutations of the
// run record happen under the handle mutex so GetRun snapshots stay
// consistent.
func (e *workflowEngine) execute(ctx context.Context, h *runHandle, message api.Content, opts *api.RunOptions) {
	defer close(h.done)

	h.mu.Lock()
	h.run.Status = api.RunRunning
	h.run.UpdatedAt = time.Now().UTC()
	h.mu.Unlock()
	e.observer.OnRunStart(ctx, h.run)

	input := api.StepInput{Message: message}
	if opts != nil {
		input.AdditionalData = opts.AdditionalData
	}

	metrics := &api.RunMetrics{}
	finalize := func(status api.RunStatus, runErr error) {
		h.mu.Lock()
		h.run.Status = status
		if runErr != nil {
			h.run.Error = runErr.Error()
		}
		metrics.TotalSteps = len(h.run.StepResponses)
		h.run.Metrics = metrics
		h.run.UpdatedAt = time.Now().UTC()
		h.mu.Unlock()
		switch status {
		case api.RunCompleted:
			e.observer.OnRunCompleted(ctx, h.run)
		case api.RunFailed:
			e.observer.OnRunFailed(ctx, h.run, runErr)
		case api.RunCancelled:
			e.observer.OnRunCancelled(ctx, h.run)
		}
	}

	for i, step := range e.steps {
		if h.cancelled() {
			finalize(api.RunCancelled, nil)
			return
		}
		e.observer.OnStepStart(ctx, h.run, step.Name(), i)
		start := time.Now()
		outs, err := step.Execute(ctx, input, e.session)
		elapsed := time.Since(start)
		e.observer.OnStepCompleted(ctx, h.run, step.Name(), i, err, elapsed)
		metrics.Steps = append(metrics.Steps, api.StepTiming{StepName: step.Name(), Duration: elapsed})

		// A cancellation that lands while the step is executing wins
		// over whatever the step returned: the result is discarded.
		if h.cancelled() {
			finalize(api.RunCancelled, nil)
			return
		}
		if err != nil {
			h.mu.Lock()
			h.run.StepResponses = append(h.run.StepResponses, outs...)
			h.mu.Unlock()
			finalize(api.RunFailed, fmt.Errorf("step %q: %w", step.Name(), err))
			return
		}

		h.mu.Lock()
		h.run.StepResponses = append(h.run.StepResponses, outs...)
		h.mu.Unlock()

		stop := false
		if len(outs) > 0 {
			last := outs[len(outs)-1]
			h.mu.Lock()
			h.run.Content = last.Content
			h.mu.Unlock()
			input = input.Advance(step.Name(), last)
			for _, out := range outs {
				if out.Stop {
					stop = true
					break
				}
			}
		}
		if stop {
			break
		}
	}
	finalize(api.RunCompleted, nil)
}

// ensureSession lazily loads the persisted session, restoring shared
// state and run history on the first engine operation.
func (e *workflowEngine) ensureSession(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return nil
	}
	rec, err := e.store.Read(ctx, e.sessionID)
	if err == storage.ErrSessionNotFound {
		e.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("stepflow: load session %q: %w", e.sessionID, err)
	}
	e.session.Replace(rec.SessionState)
	e.createdAt = rec.CreatedAt
	restored := make([]*runHandle, 0, len(rec.Runs))
	for _, rr := range rec.Runs {
		h := &runHandle{run: recordToRun(rec, rr), done: make(chan struct{})}
		close(h.done)
		restored = append(restored, h)
		e.runs[rr.RunID] = h
	}
	e.history = append(restored, e.history...)
	e.loaded = true
	return nil
}

// checkpoint writes the current session state and full run history to
// the session store.
func (e *workflowEngine) checkpoint(ctx context.Context) error {
	now := time.Now().Unix()
	e.mu.Lock()
	if e.createdAt == 0 {
		e.createdAt = now
	}
	rec := &storage.SessionRecord{
		SessionID:    e.sessionID,
		WorkflowID:   e.workflowID,
		WorkflowName: e.name,
		SessionState: e.session.Snapshot(),
		CreatedAt:    e.createdAt,
		UpdatedAt:    now,
		Runs:         make([]storage.RunRecord, 0, len(e.history)),
	}
	for _, h := range e.history {
		rec.Runs = append(rec.Runs, runToRecord(h.snapshot()))
	}
	e.mu.Unlock()
	return e.store.Upsert(ctx, rec)
}

func runToRecord(run *api.RunResponse) storage.RunRecord {
	return storage.RunRecord{
		RunID:         run.RunID,
		WorkflowID:    run.WorkflowID,
		WorkflowName:  run.WorkflowName,
		Status:        string(run.Status),
		Content:       run.Content,
		StepResponses: run.StepResponses,
		Error:         run.Error,
		CreatedAt:     run.CreatedAt.Unix(),
		UpdatedAt:     run.UpdatedAt.Unix(),
	}
}

func recordToRun(rec *storage.SessionRecord, rr storage.RunRecord) *api.RunResponse {
	return &api.RunResponse{
		RunID:         rr.RunID,
		SessionID:     rec.SessionID,
		WorkflowID:    rr.WorkflowID,
		WorkflowName:  rr.WorkflowName,
		Status:        api.RunStatus(rr.Status),
		Content:       rr.Content,
		StepResponses: rr.StepResponses,
		Error:         rr.Error,
		CreatedAt:     time.Unix(rr.CreatedAt, 0).UTC(),
		UpdatedAt:     time.Unix(rr.UpdatedAt, 0).UTC(),
	}
}
