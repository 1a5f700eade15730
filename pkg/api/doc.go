// Package api defines the public types of the stepflow engine: the
// Content value passed between steps, the StepInput/StepOutput
// contracts, the five composable primitives (Step, Condition, Loop,
// Parallel, Router), the Agent collaborator interface, the shared
// SessionState, the RunResponse lifecycle record, and the Engine and
// Observer interfaces.
//
// Most users import the root stepflow package, which re-exports
// everything here alongside the engine constructors.
package api
