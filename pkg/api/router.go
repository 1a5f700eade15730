package api

import (
	"context"
	"fmt"
)

// SelectorFunc picks which of a Router's choices should run for a given
// input. The returned primitives must come from the Router's choice
// set; anything else is ignored.
type SelectorFunc func(input StepInput, state *SessionState) []Primitive

// Router dispatches dynamically: a selector examines the input and
// chooses a subset of the configured choices, which then run as a
// sequential chain. An empty selection is a reportable routing miss,
// not a silent no-op, because downstream primitives generally expect at
// least one output.
type Router struct {
	name     string
	selector SelectorFunc
	choices  []Primitive
}

var _ Primitive = (*Router)(nil)

// NewRouter creates a router over the given choice set.
func NewRouter(name string, selector SelectorFunc, choices ...Primitive) *Router {
	if name == "" {
		panic("stepflow: router name must not be empty")
	}
	if selector == nil {
		panic(fmt.Sprintf("stepflow: router %q has nil selector", name))
	}
	return &Router{name: name, selector: selector, choices: choices}
}

// Name returns the router name.
func (r *Router) Name() string { return r.name }

// Execute applies the selector and chains the selected choices. A
// selection that names no valid choice yields a single failed output
// describing the routing miss.
func (r *Router) Execute(ctx context.Context, input StepInput, state *SessionState) ([]StepOutput, error) {
	selected := r.filterChoices(r.selector(input, state))
	if len(selected) == 0 {
		return []StepOutput{{
			StepName: r.name,
			Success:  false,
			Error:    fmt.Sprintf("router %q selected no steps for input %q", r.name, input.EffectiveMessage().String()),
		}}, nil
	}
	return executeChain(ctx, selected, input, state)
}

// filterChoices keeps only selections that belong to the choice set.
func (r *Router) filterChoices(selected []Primitive) []Primitive {
	valid := make([]Primitive, 0, len(selected))
	for _, s := range selected {
		for _, c := range r.choices {
			if s == c {
				valid = append(valid, s)
				break
			}
		}
	}
	return valid
}
