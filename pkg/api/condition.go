package api

import (
	"context"
	"fmt"
)

// EvaluatorFunc decides whether a Condition's children run. Evaluators
// must be side-effect-free and deterministic for a given input; reading
// session state is allowed, but no consistent snapshot is guaranteed if
// state is being mutated concurrently.
type EvaluatorFunc func(input StepInput, state *SessionState) bool

// Condition wraps a child list that only runs when its evaluator
// returns true. A false evaluation is a transparent skip, not an error:
// the Condition contributes zero outputs and the chain continues.
type Condition struct {
	name      string
	evaluator EvaluatorFunc
	steps     []Primitive
}

var _ Primitive = (*Condition)(nil)

// NewCondition creates a condition gating steps behind evaluator.
func NewCondition(name string, evaluator EvaluatorFunc, steps ...Primitive) *Condition {
	if name == "" {
		panic("stepflow: condition name must not be empty")
	}
	if evaluator == nil {
		panic(fmt.Sprintf("stepflow: condition %q has nil evaluator", name))
	}
	return &Condition{name: name, evaluator: evaluator, steps: steps}
}

// Name returns the condition name.
func (c *Condition) Name() string { return c.name }

// Execute evaluates the condition and, when true, runs the children as
// a sequential chain. When false it returns an empty output list.
func (c *Condition) Execute(ctx context.Context, input StepInput, state *SessionState) ([]StepOutput, error) {
	if !c.evaluator(input, state) {
		return []StepOutput{}, nil
	}
	return executeChain(ctx, c.steps, input, state)
}
