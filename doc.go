// Package stepflow provides a lightweight, embeddable step
// orchestration engine for Go.
//
// Stepflow composes workflows from small primitives and runs them
// against pluggable agents. It is designed for backend services that
// chain model calls, tools, and plain functions into deterministic
// pipelines, without introducing heavy infrastructure. It runs fully
// in Go and supports multiple persistence backends.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. Primitive
//  2. Engine
//  3. Session
//  4. Runner
//
// # Primitives
//
// A workflow is an ordered list of primitives, each transforming a
// StepInput into one or more StepOutputs:
//
//   - Step: a leaf unit of work backed by an Agent or a plain function
//   - Condition: gates a sub-sequence behind a boolean evaluator
//   - Loop: repeats a sub-sequence up to an iteration cap, with an
//     optional early-exit condition
//   - Parallel: fans a sub-sequence out concurrently and collects one
//     output per branch
//   - Router: picks which of its choices to execute based on the input
//
// Primitives nest freely: a Loop can contain a Parallel whose branches
// are Conditions, and so on. Between top-level steps the engine chains
// content forward, so each step sees its predecessor's output.
//
// # Engine and Runs
//
// The Engine executes the configured steps against a session. Run
// blocks until the run reaches a terminal status. StartRun returns a
// pending response immediately and executes in the background; the
// caller polls GetRun with the returned run ID and may request
// cooperative cancellation through CancelRun.
//
// # Sessions
//
// Runs against the same engine share a session: a mutable key-value
// state visible to every step, plus the accumulated run history. With
// a persistent backend, reusing a session ID resumes state and
// history across processes. Backends:
//
//   - In-memory (non-durable, best for tests)
//   - SQLite (embedded durability)
//   - Postgres
//   - Redis
//   - MongoDB
//
// # Runner
//
// The Runner adds name-based background dispatch: engines register
// under their workflow name, submissions go through a task queue, and
// a worker pool drains it. The SQLite-backed queue keeps deferred
// submissions durable across restarts.
//
// # Observability
//
// Observers receive run and step lifecycle events. The package ships
// a slog-based LoggingObserver, a BasicMetrics aggregator, and a
// CompositeObserver for fan-out.
//
// See the examples directory for complete programs.
package stepflow
