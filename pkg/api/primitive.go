package api

import (
	"context"
	"fmt"
)

// Primitive is a composable execution unit: a leaf Step or one of the
// control-flow composites (Condition, Loop, Parallel, Router). Every
// variant implements the same contract, so primitives nest arbitrarily.
//
// Execute returns the outputs the primitive contributed to the run. A
// returned error is a structural failure of the primitive's own control
// flow and aborts the whole run; a business failure of a leaf step is
// reported as a StepOutput with Success=false instead.
type Primitive interface {
	Name() string
	Execute(ctx context.Context, input StepInput, state *SessionState) ([]StepOutput, error)
}

// executeChain runs primitives sequentially, threading each one's last
// output into the next one's previous-step content. It is the shared
// chaining logic behind Condition, Loop passes and Router selections.
//
// Outputs collected before a structural failure are returned alongside
// the error. A Stop request halts the chain after the requesting step.
func executeChain(ctx context.Context, steps []Primitive, input StepInput, state *SessionState) ([]StepOutput, error) {
	all := make([]StepOutput, 0, len(steps))
	current := input

	for _, p := range steps {
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		default:
		}

		outs, err := p.Execute(ctx, current, state)
		if err != nil {
			return all, fmt.Errorf("step %q: %w", p.Name(), err)
		}
		all = append(all, outs...)

		if len(outs) == 0 {
			// A skipped Condition contributes nothing; the next step
			// keeps the current previous-step content.
			continue
		}
		last := outs[len(outs)-1]
		current = current.Advance(p.Name(), last)

		if anyStop(outs) {
			break
		}
	}
	return all, nil
}

// lastOutput returns the final output of a primitive invocation, or a
// zero-content success for primitives that produced none.
func lastOutput(name string, outs []StepOutput) StepOutput {
	if len(outs) == 0 {
		return StepOutput{StepName: name, Success: true}
	}
	return outs[len(outs)-1]
}
