package api

import (
	"context"
	"fmt"
)

// StepFunc is the plain-function form of a step's work. The returned
// content becomes a successful output; a returned error becomes a
// failed output (never a structural failure).
type StepFunc func(ctx context.Context, input StepInput, state *SessionState) (Content, error)

// OutputFunc is the advanced function form for steps that need full
// control over their StepOutput, e.g. to request early termination via
// Stop or to report failure with partial content.
type OutputFunc func(ctx context.Context, input StepInput, state *SessionState) (StepOutput, error)

// Step is the leaf primitive: one unit of work, backed either by an
// Agent or by a plain function. A Step never lets its work's failure
// escape as an error; failures are folded into the output. It does not
// retry. Retry policy belongs to the agent.
type Step struct {
	name  string
	agent Agent
	fn    OutputFunc
}

var _ Primitive = (*Step)(nil)

// NewStep creates a step that delegates to an agent.
func NewStep(name string, agent Agent) *Step {
	if name == "" {
		panic("stepflow: step name must not be empty")
	}
	if agent == nil {
		panic(fmt.Sprintf("stepflow: step %q has nil agent", name))
	}
	return &Step{name: name, agent: agent}
}

// NewFuncStep creates a step from a plain function.
func NewFuncStep(name string, fn StepFunc) *Step {
	if fn == nil {
		panic(fmt.Sprintf("stepflow: step %q has nil function", name))
	}
	return NewOutputStep(name, func(ctx context.Context, input StepInput, state *SessionState) (StepOutput, error) {
		content, err := fn(ctx, input, state)
		if err != nil {
			return StepOutput{}, err
		}
		return StepSucceeded(name, content), nil
	})
}

// NewOutputStep creates a step from an OutputFunc.
func NewOutputStep(name string, fn OutputFunc) *Step {
	if name == "" {
		panic("stepflow: step name must not be empty")
	}
	if fn == nil {
		panic(fmt.Sprintf("stepflow: step %q has nil function", name))
	}
	return &Step{name: name, fn: fn}
}

// Name returns the step name.
func (s *Step) Name() string { return s.name }

// Execute runs the step's work and wraps the result in exactly one
// StepOutput. Errors from the agent or function are converted into a
// failed output, so the enclosing graph continues past them.
func (s *Step) Execute(ctx context.Context, input StepInput, state *SessionState) ([]StepOutput, error) {
	if s.agent != nil {
		resp, err := s.agent.Invoke(ctx, AgentRequest{
			Message:        input.EffectiveMessage(),
			SessionState:   state,
			AdditionalData: input.AdditionalData,
		})
		if err != nil {
			return []StepOutput{StepFailed(s.name, err)}, nil
		}
		return []StepOutput{StepSucceeded(s.name, resp.Content)}, nil
	}

	out, err := s.fn(ctx, input, state)
	if err != nil {
		return []StepOutput{StepFailed(s.name, err)}, nil
	}
	if out.StepName == "" {
		out.StepName = s.name
	}
	if !out.Success && out.Error == "" {
		out.Error = "step reported failure without an error"
	}
	return []StepOutput{out}, nil
}
