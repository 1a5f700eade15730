package api

import "context"

// DefaultMaxIterations caps a Loop that was not given an explicit
// iteration budget.
const DefaultMaxIterations = 3

// EndConditionFunc inspects one pass's outputs and reports whether the
// loop should stop.
type EndConditionFunc func(passOutputs []StepOutput) bool

// Loop repeats its child list until the end condition is satisfied or
// MaxIterations passes have run, whichever comes first. MaxIterations
// is the runaway-loop safety net: exhausting it is normal termination,
// not an error, and callers who care must inspect the final content.
type Loop struct {
	name          string
	steps         []Primitive
	maxIterations int
	endCondition  EndConditionFunc
}

var _ Primitive = (*Loop)(nil)

// NewLoop creates a loop over steps with DefaultMaxIterations and no
// end condition.
func NewLoop(name string, steps ...Primitive) *Loop {
	if name == "" {
		panic("stepflow: loop name must not be empty")
	}
	return &Loop{name: name, steps: steps, maxIterations: DefaultMaxIterations}
}

// WithMaxIterations sets the hard pass cap. Values below 1 are treated
// as 1.
func (l *Loop) WithMaxIterations(n int) *Loop {
	if n < 1 {
		n = 1
	}
	l.maxIterations = n
	return l
}

// WithEndCondition sets the predicate checked after each full pass.
func (l *Loop) WithEndCondition(fn EndConditionFunc) *Loop {
	l.endCondition = fn
	return l
}

// Name returns the loop name.
func (l *Loop) Name() string { return l.name }

// MaxIterations returns the configured pass cap.
func (l *Loop) MaxIterations() int { return l.maxIterations }

// Execute runs passes over the child chain. Each pass is seeded with
// the previous pass's last output, and all pass outputs are returned in
// execution order.
func (l *Loop) Execute(ctx context.Context, input StepInput, state *SessionState) ([]StepOutput, error) {
	var all []StepOutput
	current := input

	for pass := 0; pass < l.maxIterations; pass++ {
		passOuts, err := executeChain(ctx, l.steps, current, state)
		all = append(all, passOuts...)
		if err != nil {
			return all, err
		}

		if anyStop(passOuts) {
			break
		}
		if l.endCondition != nil && l.endCondition(passOuts) {
			break
		}

		// Seed the next pass from this pass's final output.
		if len(passOuts) > 0 {
			last := passOuts[len(passOuts)-1]
			name := last.StepName
			if name == "" {
				name = l.name
			}
			current = current.Advance(name, last)
		}
	}
	return all, nil
}
