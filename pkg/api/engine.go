package api

import (
	"context"
	"errors"
)

// ErrBackgroundRun is returned when background semantics are requested
// on the synchronous entry point. Run fails fast rather than silently
// executing synchronously; use StartRun instead.
var ErrBackgroundRun = errors.New("stepflow: Run does not support background execution; use StartRun")

// RunOptions tunes a single run. A nil *RunOptions is equivalent to
// the zero value.
type RunOptions struct {
	// AdditionalData is carried on every StepInput of the run.
	AdditionalData map[string]any

	// Background requests non-blocking execution. Only honored by
	// StartRun; passing it to Run is a programming error.
	Background bool
}

// Engine runs one workflow: an ordered list of top-level primitives
// sharing a session. Engines are safe for concurrent use.
type Engine interface {
	// Name returns the workflow name.
	Name() string

	// WorkflowID returns the stable workflow identifier.
	WorkflowID() string

	// SessionID returns the session this engine is bound to.
	SessionID() string

	// SessionState returns the live shared state bag. Mutations are
	// visible to all subsequent steps and persist across runs.
	SessionState() *SessionState

	// Run executes the workflow synchronously and returns the terminal
	// run record. A failed run is returned as a normal record, not an
	// error; the returned error covers engine misuse (ErrBackgroundRun)
	// and persistence failures after the run finished.
	Run(ctx context.Context, message Content, opts *RunOptions) (*RunResponse, error)

	// StartRun schedules the workflow in the background and returns a
	// pending snapshot immediately. Progress is retrieved by polling
	// GetRun with the snapshot's RunID.
	StartRun(ctx context.Context, message Content, opts *RunOptions) (*RunResponse, error)

	// GetRun returns the latest snapshot of a run started by this
	// engine, or (nil, false) if the run ID is unknown.
	GetRun(runID string) (*RunResponse, bool)

	// CancelRun requests cooperative cancellation of a background run.
	// The engine stops scheduling further primitives; a primitive
	// already in flight is not force-killed, and its result is
	// discarded. Returns false if the run is unknown or already
	// terminal.
	CancelRun(runID string) bool

	// History returns the run records of this session, oldest first,
	// including records restored from storage.
	History(ctx context.Context) ([]*RunResponse, error)

	// DeleteSession removes the session from storage and clears the
	// in-memory state and history.
	DeleteSession(ctx context.Context) error
}
