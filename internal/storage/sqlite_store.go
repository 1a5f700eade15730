package storage

import (
	"context"
	"database/sql"
	"errors"
)

// SQLiteStore is a SessionStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing the
// driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

var _ SessionStore = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database
// and returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			workflow_id TEXT NOT NULL,
			workflow_name TEXT,
			session_state BLOB,
			runs BLOB,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteStore) Upsert(ctx context.Context, rec *SessionRecord) error {
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
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			workflow_id = excluded.workflow_id,
			workflow_name = excluded.workflow_name,
			session_state = excluded.session_state,
			runs = excluded.runs,
			updated_at = excluded.updated_at`,
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

func (s *SQLiteStore) Read(ctx context.Context, sessionID string) (*SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, workflow_id, workflow_name, session_state, runs, created_at, updated_at
		FROM sessions
		WHERE session_id = ?`,
		sessionID,
	)
	return scanSessionRow(row.Scan)
}

func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) List(ctx context.Context, filter SessionFilter) ([]*SessionRecord, error) {
	query := `
		SELECT session_id, workflow_id, workflow_name, session_state, runs, created_at, updated_at
		FROM sessions`
	var args []any
	if filter.WorkflowID != "" {
		query += ` WHERE workflow_id = ?`
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

// scanSessionRow decodes one sessions row from either *sql.Row or
// *sql.Rows via their shared Scan shape.
func scanSessionRow(scan func(dest ...any) error) (*SessionRecord, error) {
	var rec SessionRecord
	var name sql.NullString
	var state, runs []byte

	err := scan(&rec.SessionID, &rec.WorkflowID, &name, &state, &runs, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	rec.WorkflowName = name.String

	if rec.SessionState, err = decodeValue[map[string]any](state); err != nil {
		return nil, err
	}
	if rec.Runs, err = decodeValue[[]RunRecord](runs); err != nil {
		return nil, err
	}
	return &rec, nil
}
