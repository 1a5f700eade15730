package api

import (
	"context"
	"strings"
	"testing"
)

func upperStep(name string) *Step {
	return NewFuncStep(name, func(ctx context.Context, input StepInput, state *SessionState) (Content, error) {
		return Text(strings.ToUpper(input.EffectiveMessage().Text())), nil
	})
}

func TestConditionTrue(t *testing.T) {
	cond := NewCondition("maybe-upper",
		func(input StepInput, state *SessionState) bool { return true },
		upperStep("upper"),
	)

	outs, err := cond.Execute(context.Background(), StepInput{Message: Text("hi")}, NewSessionState())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(outs) != 1 || outs[0].Content.Text() != "HI" {
		t.Fatalf("unexpected outputs: %+v", outs)
	}
}

func TestConditionFalseIsTransparentSkip(t *testing.T) {
	cond := NewCondition("never",
		func(input StepInput, state *SessionState) bool { return false },
		upperStep("upper"),
	)

	outs, err := cond.Execute(context.Background(), StepInput{Message: Text("hi")}, NewSessionState())
	if err != nil {
		t.Fatalf("a false condition is not an error: %v", err)
	}
	if outs == nil {
		t.Fatalf("expected empty non-nil output list")
	}
	if len(outs) != 0 {
		t.Fatalf("expected zero outputs, got %d", len(outs))
	}
}

func TestConditionReadsSessionState(t *testing.T) {
	state := NewSessionState()
	state.Set("enabled", true)

	cond := NewCondition("gated",
		func(input StepInput, s *SessionState) bool {
			v, _ := s.Get("enabled")
			b, _ := v.(bool)
			return b
		},
		upperStep("upper"),
	)

	outs, err := cond.Execute(context.Background(), StepInput{Message: Text("go")}, state)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(outs) != 1 {
		t.Fatalf("expected the gated step to run")
	}
}

func TestConditionChainsChildren(t *testing.T) {
	cond := NewCondition("both",
		func(input StepInput, state *SessionState) bool { return true },
		NewFuncStep("first", func(ctx context.Context, input StepInput, state *SessionState) (Content, error) {
			return Text("one"), nil
		}),
		NewFuncStep("second", func(ctx context.Context, input StepInput, state *SessionState) (Content, error) {
			return Text(input.PreviousStepContent.Text()+"+two"), nil
		}),
	)

	outs, err := cond.Execute(context.Background(), StepInput{Message: Text("go")}, NewSessionState())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(outs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(outs))
	}
	if outs[1].Content.Text() != "one+two" {
		t.Fatalf("children not chained: %q", outs[1].Content.Text())
	}
}
