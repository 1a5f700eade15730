package api

import (
	"context"
	"sync"
)

// Parallel fans its children out concurrently and joins before
// returning. Every child receives the same input (no chaining), and
// the result list preserves declaration order regardless of completion
// order, so downstream primitives can index results deterministically.
//
// A failing branch becomes a failed StepOutput in its slot; it does not
// cancel its siblings. Parallel always waits for all branches.
type Parallel struct {
	name  string
	steps []Primitive
}

var _ Primitive = (*Parallel)(nil)

// NewParallel creates a parallel fan-out over steps.
func NewParallel(name string, steps ...Primitive) *Parallel {
	if name == "" {
		panic("stepflow: parallel name must not be empty")
	}
	return &Parallel{name: name, steps: steps}
}

// Name returns the parallel group's name.
func (p *Parallel) Name() string { return p.name }

// Execute runs all children concurrently and returns exactly one
// output per child, in declaration order. A composite child's slot
// holds its final output.
func (p *Parallel) Execute(ctx context.Context, input StepInput, state *SessionState) ([]StepOutput, error) {
	results := make([]StepOutput, len(p.steps))

	var wg sync.WaitGroup
	wg.Add(len(p.steps))
	for i, child := range p.steps {
		go func(i int, child Primitive) {
			defer wg.Done()
			outs, err := child.Execute(ctx, input, state)
			if err != nil {
				// Branch errors are contained: the slot records the
				// failure and the remaining branches run to completion.
				results[i] = StepFailed(child.Name(), err)
				return
			}
			results[i] = lastOutput(child.Name(), outs)
		}(i, child)
	}
	wg.Wait()

	return results, nil
}
