package api

import (
	"context"
	"errors"
	"testing"
)

func echoAgent(name string) Agent {
	return AgentFunc(name, func(ctx context.Context, req AgentRequest) (AgentResponse, error) {
		return AgentResponse{Content: req.Message}, nil
	})
}

func TestStepAgentSuccess(t *testing.T) {
	s := NewStep("echo", echoAgent("echo-agent"))
	state := NewSessionState()

	outs, err := s.Execute(context.Background(), StepInput{Message: Text("hi")}, state)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(outs) != 1 {
		t.Fatalf("expected exactly one output, got %d", len(outs))
	}
	out := outs[0]
	if !out.Success || out.StepName != "echo" || out.Content.Text() != "hi" {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestStepAgentPrefersPreviousContent(t *testing.T) {
	s := NewStep("echo", echoAgent("echo-agent"))
	in := StepInput{Message: Text("original"), PreviousStepContent: Text("chained")}

	outs, err := s.Execute(context.Background(), in, NewSessionState())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if outs[0].Content.Text() != "chained" {
		t.Fatalf("agent should receive previous step content, got %q", outs[0].Content.Text())
	}
}

func TestStepAgentErrorBecomesFailedOutput(t *testing.T) {
	s := NewStep("flaky", AgentFunc("flaky-agent", func(ctx context.Context, req AgentRequest) (AgentResponse, error) {
		return AgentResponse{}, errors.New("model unavailable")
	}))

	outs, err := s.Execute(context.Background(), StepInput{Message: Text("hi")}, NewSessionState())
	if err != nil {
		t.Fatalf("agent errors must not escape as structural failures: %v", err)
	}
	out := outs[0]
	if out.Success {
		t.Fatalf("expected failed output")
	}
	if out.Error != "model unavailable" {
		t.Fatalf("expected agent error message, got %q", out.Error)
	}
}

func TestFuncStep(t *testing.T) {
	s := NewFuncStep("upper", func(ctx context.Context, input StepInput, state *SessionState) (Content, error) {
		return Text("HI"), nil
	})

	outs, err := s.Execute(context.Background(), StepInput{Message: Text("hi")}, NewSessionState())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if outs[0].Content.Text() != "HI" || !outs[0].Success {
		t.Fatalf("unexpected output: %+v", outs[0])
	}
}

func TestFuncStepError(t *testing.T) {
	s := NewFuncStep("boom", func(ctx context.Context, input StepInput, state *SessionState) (Content, error) {
		return Content{}, errors.New("boom")
	})

	outs, err := s.Execute(context.Background(), StepInput{}, NewSessionState())
	if err != nil {
		t.Fatalf("function errors must fold into the output: %v", err)
	}
	if outs[0].Success || outs[0].Error != "boom" {
		t.Fatalf("unexpected output: %+v", outs[0])
	}
}

func TestOutputStepNormalization(t *testing.T) {
	s := NewOutputStep("raw", func(ctx context.Context, input StepInput, state *SessionState) (StepOutput, error) {
		// Missing step name and a failure without an error message.
		return StepOutput{Success: false}, nil
	})

	outs, err := s.Execute(context.Background(), StepInput{}, NewSessionState())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	out := outs[0]
	if out.StepName != "raw" {
		t.Fatalf("step name should be filled in, got %q", out.StepName)
	}
	if out.Error == "" {
		t.Fatalf("failed output must carry an error message")
	}
}

func TestOutputStepStop(t *testing.T) {
	s := NewOutputStep("halt", func(ctx context.Context, input StepInput, state *SessionState) (StepOutput, error) {
		return StepOutput{Success: true, Content: Text("done"), Stop: true}, nil
	})

	outs, err := s.Execute(context.Background(), StepInput{}, NewSessionState())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !outs[0].Stop {
		t.Fatalf("Stop flag should survive")
	}
}

func TestNewStepPanics(t *testing.T) {
	assertPanics(t, func() { NewStep("", echoAgent("a")) })
	assertPanics(t, func() { NewStep("s", nil) })
	assertPanics(t, func() { NewFuncStep("s", nil) })
}

func assertPanics(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	fn()
}
