package stepflow

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stepflow-io/stepflow/internal/engine"
	"github.com/stepflow-io/stepflow/internal/storage"
	"github.com/stepflow-io/stepflow/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Engine               = api.Engine
	Primitive            = api.Primitive
	Step                 = api.Step
	Condition            = api.Condition
	Loop                 = api.Loop
	Parallel             = api.Parallel
	Router               = api.Router
	StepInput            = api.StepInput
	StepOutput           = api.StepOutput
	StepFunc             = api.StepFunc
	OutputFunc           = api.OutputFunc
	EvaluatorFunc        = api.EvaluatorFunc
	EndConditionFunc     = api.EndConditionFunc
	SelectorFunc         = api.SelectorFunc
	Agent                = api.Agent
	StreamingAgent       = api.StreamingAgent
	AgentRequest         = api.AgentRequest
	AgentResponse        = api.AgentResponse
	Content              = api.Content
	SessionState         = api.SessionState
	RunStatus            = api.RunStatus
	RunOptions           = api.RunOptions
	RunResponse          = api.RunResponse
	RunMetrics           = api.RunMetrics
	StepTiming           = api.StepTiming
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
)

// Re-export constructors and helpers.

var (
	Text                 = api.Text
	Data                 = api.Data
	AgentFunc            = api.AgentFunc
	NewStep              = api.NewStep
	NewFuncStep          = api.NewFuncStep
	NewOutputStep        = api.NewOutputStep
	NewCondition         = api.NewCondition
	NewLoop              = api.NewLoop
	NewParallel          = api.NewParallel
	NewRouter            = api.NewRouter
	NewSessionState      = api.NewSessionState
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
	StepSucceeded        = api.StepSucceeded
	StepFailed           = api.StepFailed
)

// ErrBackgroundRun is returned by Engine.Run when opts request
// background execution; background runs go through Engine.StartRun.
var ErrBackgroundRun = api.ErrBackgroundRun

// Re-export run status values for convenience.

const (
	RunPending   = api.RunPending
	RunRunning   = api.RunRunning
	RunCompleted = api.RunCompleted
	RunFailed    = api.RunFailed
	RunCancelled = api.RunCancelled
)

// Config configures a workflow engine. Name and Steps are required;
// everything else defaults (generated IDs, in-memory persistence, a
// noop observer, slog's default logger).
type Config struct {
	// Name identifies the workflow. Required.
	Name string

	// WorkflowID and SessionID default to generated UUIDs. Reusing a
	// SessionID against the same store resumes that session's state
	// and run history.
	WorkflowID string
	SessionID  string

	// Steps execute in order. Required, at least one.
	Steps []Primitive

	// SessionState seeds the shared session state.
	SessionState map[string]any

	// Observer receives run and step lifecycle events.
	Observer Observer

	// Logger is used for engine-internal reporting, such as failed
	// background checkpoints.
	Logger *slog.Logger
}

func (c Config) engineConfig(store storage.SessionStore) engine.Config {
	return engine.Config{
		Name:         c.Name,
		WorkflowID:   c.WorkflowID,
		SessionID:    c.SessionID,
		Steps:        c.Steps,
		Store:        store,
		Observer:     c.Observer,
		Logger:       c.Logger,
		SessionState: c.SessionState,
	}
}

// Engine constructors. These wrap the internal engine and storage
// packages so external callers never import internal paths.

// NewEngine returns an Engine backed by in-memory session storage.
// Sessions do not survive the process; use a persistent constructor
// for durability.
func NewEngine(cfg Config) Engine {
	return engine.New(cfg.engineConfig(storage.NewMemoryStore()))
}

// NewSQLiteEngine returns an Engine persisting sessions in a SQLite
// database. The schema is created if missing.
func NewSQLiteEngine(db *sql.DB, cfg Config) (Engine, error) {
	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	return engine.New(cfg.engineConfig(store)), nil
}

// NewPostgresEngine returns an Engine persisting sessions in
// PostgreSQL. The caller supplies the driver through sql.Open.
func NewPostgresEngine(db *sql.DB, cfg Config) (Engine, error) {
	store, err := storage.NewPostgresStore(db)
	if err != nil {
		return nil, err
	}
	return engine.New(cfg.engineConfig(store)), nil
}

// NewRedisEngine returns an Engine persisting sessions in Redis.
func NewRedisEngine(client *redis.Client, cfg Config) Engine {
	return engine.New(cfg.engineConfig(storage.NewRedisStore(client, "")))
}

// NewMongoEngine returns an Engine persisting sessions in MongoDB.
func NewMongoEngine(client *mongo.Client, cfg Config) Engine {
	return engine.New(cfg.engineConfig(storage.NewMongoStore(client, "", "")))
}
