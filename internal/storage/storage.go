package storage

import (
	"context"
	"errors"

	"github.com/stepflow-io/stepflow/pkg/api"
)

// ErrSessionNotFound is returned when a session record is not found.
var ErrSessionNotFound = errors.New("session not found")

// RunRecord is the persisted snapshot of one workflow run.
type RunRecord struct {
	RunID         string           `json:"run_id"`
	WorkflowID    string           `json:"workflow_id"`
	WorkflowName  string           `json:"workflow_name,omitempty"`
	Status        string           `json:"status"`
	Content       api.Content      `json:"content"`
	StepResponses []api.StepOutput `json:"step_responses,omitempty"`
	Error         string           `json:"error,omitempty"`
	CreatedAt     int64            `json:"created_at"`
	UpdatedAt     int64            `json:"updated_at"`
}

// SessionRecord is the persisted state of one workflow session: the
// shared session state plus the run history. It is upserted keyed by
// SessionID after each run reaches a terminal status.
type SessionRecord struct {
	SessionID    string         `json:"session_id"`
	WorkflowID   string         `json:"workflow_id"`
	WorkflowName string         `json:"workflow_name,omitempty"`
	SessionState map[string]any `json:"session_state,omitempty"`
	Runs         []RunRecord    `json:"runs,omitempty"`
	CreatedAt    int64          `json:"created_at"`
	UpdatedAt    int64          `json:"updated_at"`
}

// SessionFilter selects sessions from a store. Empty fields mean "no
// filter".
type SessionFilter struct {
	WorkflowID string
}

// SessionStore persists workflow sessions. Upsert is idempotent and
// keyed by session ID; the engine holds no lock while persisting and
// treats store errors as surfaced, non-corrupting failures.
type SessionStore interface {
	Upsert(ctx context.Context, rec *SessionRecord) error
	Read(ctx context.Context, sessionID string) (*SessionRecord, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context, filter SessionFilter) ([]*SessionRecord, error)
}
