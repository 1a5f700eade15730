package api

import "time"

// RunStatus is the lifecycle state of a workflow run.
type RunStatus string

const (
	RunPending   RunStatus = "PENDING"
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
	RunCancelled RunStatus = "CANCELLED"
)

// Terminal reports whether the status is final. A run that reached a
// terminal status is never mutated again.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCancelled:
		return true
	}
	return false
}

// StepTiming records how long one top-level primitive took.
type StepTiming struct {
	StepName string        `json:"step_name"`
	Duration time.Duration `json:"duration"`
}

// RunMetrics aggregates execution metrics for a run.
type RunMetrics struct {
	// TotalSteps counts the StepOutputs folded into the run.
	TotalSteps int `json:"total_steps"`

	// Steps holds per-top-level-primitive timings in execution order.
	Steps []StepTiming `json:"steps,omitempty"`
}

// RunResponse is the record of one end-to-end workflow run. It is
// owned and mutated exclusively by the engine until the status reaches
// a terminal value, after which it is an immutable snapshot.
type RunResponse struct {
	RunID        string `json:"run_id"`
	SessionID    string `json:"session_id"`
	WorkflowID   string `json:"workflow_id"`
	WorkflowName string `json:"workflow_name,omitempty"`

	Status RunStatus `json:"status"`

	// Content is the final aggregated output: the content of the last
	// StepOutput folded into the run.
	Content Content `json:"content"`

	// StepResponses collects every StepOutput produced by the run's
	// top-level primitives, in execution order.
	StepResponses []StepOutput `json:"step_responses,omitempty"`

	Metrics *RunMetrics `json:"metrics,omitempty"`

	// Error describes a structural failure when Status is RunFailed.
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep-enough copy for handing snapshots to pollers:
// the slices are copied, the outputs' contents are shared (they are
// immutable by convention once produced).
func (r *RunResponse) Clone() *RunResponse {
	if r == nil {
		return nil
	}
	out := *r
	if r.StepResponses != nil {
		out.StepResponses = make([]StepOutput, len(r.StepResponses))
		copy(out.StepResponses, r.StepResponses)
	}
	if r.Metrics != nil {
		m := *r.Metrics
		if r.Metrics.Steps != nil {
			m.Steps = make([]StepTiming, len(r.Metrics.Steps))
			copy(m.Steps, r.Metrics.Steps)
		}
		out.Metrics = &m
	}
	return &out
}
