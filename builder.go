package stepflow

import (
	"github.com/stepflow-io/stepflow/pkg/api"
)

// WorkflowBuilder provides a fluent API for composing workflows:
//
//	eng := stepflow.NewWorkflow("content-pipeline").
//	    Func("research", research).
//	    Condition("needs-review", needsReview, reviewStep).
//	    Loop("refine", maxThree, draftStep, editStep).
//	    Build()
//
//	resp, err := eng.Run(ctx, stepflow.Text("AI trends"), nil)
type WorkflowBuilder struct {
	cfg Config
}

// NewWorkflow creates a builder for a workflow with the given name.
func NewWorkflow(name string) *WorkflowBuilder {
	if name == "" {
		panic("stepflow: workflow name must not be empty")
	}
	return &WorkflowBuilder{cfg: Config{Name: name}}
}

// Name returns the workflow name.
func (b *WorkflowBuilder) Name() string {
	return b.cfg.Name
}

// WithWorkflowID sets a stable workflow identifier. Defaults to a
// generated UUID.
func (b *WorkflowBuilder) WithWorkflowID(id string) *WorkflowBuilder {
	b.cfg.WorkflowID = id
	return b
}

// WithSessionID pins the session. Reusing a session ID against the
// same store resumes its state and run history.
func (b *WorkflowBuilder) WithSessionID(id string) *WorkflowBuilder {
	b.cfg.SessionID = id
	return b
}

// WithSessionState seeds the shared session state.
func (b *WorkflowBuilder) WithSessionState(state map[string]any) *WorkflowBuilder {
	b.cfg.SessionState = state
	return b
}

// WithObserver attaches an observer for run and step lifecycle events.
func (b *WorkflowBuilder) WithObserver(obs Observer) *WorkflowBuilder {
	b.cfg.Observer = obs
	return b
}

// Add appends any primitive. The other builder methods are
// conveniences over Add.
func (b *WorkflowBuilder) Add(p Primitive) *WorkflowBuilder {
	if p == nil {
		panic("stepflow: cannot add nil step")
	}
	b.cfg.Steps = append(b.cfg.Steps, p)
	return b
}

// Step appends an agent-backed step.
func (b *WorkflowBuilder) Step(name string, agent Agent) *WorkflowBuilder {
	return b.Add(api.NewStep(name, agent))
}

// Func appends a function step.
func (b *WorkflowBuilder) Func(name string, fn StepFunc) *WorkflowBuilder {
	return b.Add(api.NewFuncStep(name, fn))
}

// Condition appends a conditional gate around the given steps.
func (b *WorkflowBuilder) Condition(name string, evaluator EvaluatorFunc, steps ...Primitive) *WorkflowBuilder {
	return b.Add(api.NewCondition(name, evaluator, steps...))
}

// Loop appends a loop over the given steps with the default iteration
// cap. Use Add with api.NewLoop for custom caps or end conditions.
func (b *WorkflowBuilder) Loop(name string, end EndConditionFunc, steps ...Primitive) *WorkflowBuilder {
	return b.Add(api.NewLoop(name, steps...).WithEndCondition(end))
}

// Parallel appends a fan-out over the given steps.
func (b *WorkflowBuilder) Parallel(name string, steps ...Primitive) *WorkflowBuilder {
	return b.Add(api.NewParallel(name, steps...))
}

// Router appends a dynamic dispatch over the given choices.
func (b *WorkflowBuilder) Router(name string, selector SelectorFunc, choices ...Primitive) *WorkflowBuilder {
	return b.Add(api.NewRouter(name, selector, choices...))
}

// Steps returns the primitives added so far, in order.
func (b *WorkflowBuilder) Steps() []Primitive {
	return b.cfg.Steps
}

// Config returns the accumulated configuration, ready for one of the
// persistent engine constructors.
func (b *WorkflowBuilder) Config() Config {
	return b.cfg
}

// Build constructs an in-memory Engine from the accumulated
// configuration. It panics if no steps were added.
func (b *WorkflowBuilder) Build() Engine {
	return NewEngine(b.cfg)
}
