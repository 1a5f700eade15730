package api

import "context"

// AgentRequest is the engine's request to a reasoning unit.
type AgentRequest struct {
	// Message is the content the agent should act on: either the run's
	// message or the previous step's output.
	Message Content

	// SessionID identifies the workflow session this call belongs to.
	SessionID string

	// SessionState is shared by reference; the agent may read and
	// write it, and mutations are visible to subsequent steps.
	SessionState *SessionState

	// AdditionalData carries caller-supplied side data for the run.
	AdditionalData map[string]any
}

// AgentResponse is a reasoning unit's reply.
type AgentResponse struct {
	Content Content
}

// Agent is the reasoning unit a Step delegates its work to. The engine
// treats it as opaque: it forwards a request and wraps the reply; any
// error is converted into a failed StepOutput rather than propagated.
// Retry and timeout policy, if any, belong to the implementation.
type Agent interface {
	Name() string
	Invoke(ctx context.Context, req AgentRequest) (AgentResponse, error)
}

// StreamingAgent is an Agent that can additionally surface incremental
// content before the final reply. The engine itself only consumes the
// final AgentResponse; the chunk callback exists for callers that relay
// progress to a user interface.
type StreamingAgent interface {
	Agent
	InvokeStream(ctx context.Context, req AgentRequest, onChunk func(Content)) (AgentResponse, error)
}

// agentFunc adapts a plain function into an Agent.
type agentFunc struct {
	name string
	fn   func(ctx context.Context, req AgentRequest) (AgentResponse, error)
}

// AgentFunc wraps fn as an Agent with the given name.
func AgentFunc(name string, fn func(ctx context.Context, req AgentRequest) (AgentResponse, error)) Agent {
	return &agentFunc{name: name, fn: fn}
}

func (a *agentFunc) Name() string { return a.name }

func (a *agentFunc) Invoke(ctx context.Context, req AgentRequest) (AgentResponse, error) {
	return a.fn(ctx, req)
}
