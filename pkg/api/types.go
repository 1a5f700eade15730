package api

import (
	"sort"
	"strings"
)

// StepInput is the read-only input handed to a primitive invocation. It
// is built fresh by the executor (or by an enclosing composite) for
// every invocation; primitives must not mutate it.
type StepInput struct {
	// Message is the original task description for this run.
	Message Content `json:"message"`

	// PreviousStepContent is whatever the immediately preceding
	// primitive produced. Zero for the first primitive in a chain.
	PreviousStepContent Content `json:"previous_step_content"`

	// PreviousStepOutputs holds the last output of every prior step in
	// the current chain, keyed by step name.
	PreviousStepOutputs map[string]StepOutput `json:"previous_step_outputs,omitempty"`

	// AdditionalData carries caller-supplied side data for the run.
	AdditionalData map[string]any `json:"additional_data,omitempty"`
}

// EffectiveMessage returns the content a step should act on: the
// previous step's output when one exists, the run message otherwise.
func (in StepInput) EffectiveMessage() Content {
	if !in.PreviousStepContent.IsZero() {
		return in.PreviousStepContent
	}
	return in.Message
}

// StepContent returns the content produced by a named prior step.
func (in StepInput) StepContent(name string) Content {
	out, ok := in.PreviousStepOutputs[name]
	if !ok {
		return Content{}
	}
	return out.Content
}

// AllPreviousContent concatenates the content of every prior step,
// ordered by step name for determinism.
func (in StepInput) AllPreviousContent() string {
	if len(in.PreviousStepOutputs) == 0 {
		return ""
	}
	names := make([]string, 0, len(in.PreviousStepOutputs))
	for name := range in.PreviousStepOutputs {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		out := in.PreviousStepOutputs[name]
		if out.Content.IsZero() {
			continue
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("=== " + name + " ===\n")
		b.WriteString(out.Content.String())
	}
	return b.String()
}

// Advance derives the input for the step following stepName, threading
// that step's output as the new previous content. The receiver is left
// untouched.
func (in StepInput) Advance(stepName string, out StepOutput) StepInput {
	next := in
	next.PreviousStepContent = out.Content

	merged := make(map[string]StepOutput, len(in.PreviousStepOutputs)+1)
	for k, v := range in.PreviousStepOutputs {
		merged[k] = v
	}
	merged[stepName] = out
	next.PreviousStepOutputs = merged
	return next
}

// StepOutput is the result of one primitive invocation.
//
// Invariant: Success=false implies a non-empty Error; Content may be
// absent on failure.
type StepOutput struct {
	StepName string  `json:"step_name,omitempty"`
	Content  Content `json:"content"`
	Success  bool    `json:"success"`
	Error    string  `json:"error,omitempty"`

	// Stop requests early termination of the enclosing run. The
	// executor finishes the current step and schedules no further ones.
	Stop bool `json:"stop,omitempty"`
}

// StepSucceeded builds a successful output for the named step.
func StepSucceeded(stepName string, content Content) StepOutput {
	return StepOutput{StepName: stepName, Content: content, Success: true}
}

// StepFailed builds a failed output for the named step. A nil err
// still yields a non-empty Error to preserve the output invariant.
func StepFailed(stepName string, err error) StepOutput {
	msg := "step failed"
	if err != nil {
		msg = err.Error()
	}
	return StepOutput{StepName: stepName, Success: false, Error: msg}
}

// anyStop reports whether any output in outs requested termination.
func anyStop(outs []StepOutput) bool {
	for _, o := range outs {
		if o.Stop {
			return true
		}
	}
	return false
}
