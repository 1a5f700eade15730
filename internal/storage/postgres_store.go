package storage

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresStore is a SessionStore backed by PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib" or "github.com/lib/pq").
//
// The caller is responsible for:
//   - importing the driver for its side effects, e.g.:
//     _ "github.com/jackc/pgx/v5/stdlib"
//   - providing a DSN via sql.Open.
type PostgresStore struct {
	db *sql.DB
}

var _ SessionStore = (*PostgresStore)(nil)

// NewPostgresStore initializes the required schema in the given
// database and returns a new PostgresStore.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			workflow_id TEXT NOT NULL,
			workflow_name TEXT,
			session_state BYTEA,
			runs BYTEA,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		);
	`)
	return err
}

func (s *PostgresStore) Upsert(ctx context.Context, rec *SessionRecord) error {
	state, err := encodeValue(rec.SessionState)
	if err != nil {
		return err
	}
	runs, err := encodeValue(rec.Runs)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, workflow_id, workflow_name, session_state, runs, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id) DO UPDATE SET
			workflow_id = EXCLUDED.workflow_id,
			workflow_name = EXCLUDED.workflow_name,
			session_state = EXCLUDED.session_state,
			runs = EXCLUDED.runs,
			updated_at = EXCLUDED.updated_at`,
		rec.SessionID,
		rec.WorkflowID,
		rec.WorkflowName,
		state,
		runs,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) Read(ctx context.Context, sessionID string) (*SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, workflow_id, workflow_name, session_state, runs, created_at, updated_at
		FROM sessions
		WHERE session_id = $1`,
		sessionID,
	)
	rec, err := scanSessionRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = $1`, sessionID)
	return err
}

func (s *PostgresStore) List(ctx context.Context, filter SessionFilter) ([]*SessionRecord, error) {
	query := `
		SELECT session_id, workflow_id, workflow_name, session_state, runs, created_at, updated_at
		FROM sessions`
	var args []any
	if filter.WorkflowID != "" {
		query += ` WHERE workflow_id = $1`
		args = append(args, filter.WorkflowID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*SessionRecord
	for rows.Next() {
		rec, err := scanSessionRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
