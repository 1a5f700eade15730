package storage

import (
	"context"
	"sync"
)

// MemoryStore is a goroutine-safe SessionStore backed by a map. It is
// non-durable and intended for tests and single-process deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionRecord
}

var _ SessionStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*SessionRecord)}
}

func (s *MemoryStore) Upsert(ctx context.Context, rec *SessionRecord) error {
	// Store a codec round-trip of the record so the "persisted" copy
	// behaves like the durable backends: no aliasing of caller memory.
	stored, err := cloneRecord(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[rec.SessionID] = stored
	return nil
}

func (s *MemoryStore) Read(ctx context.Context, sessionID string) (*SessionRecord, error) {
	s.mu.RLock()
	rec, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	return cloneRecord(rec)
}

func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, filter SessionFilter) ([]*SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*SessionRecord
	for _, rec := range s.sessions {
		if filter.WorkflowID != "" && rec.WorkflowID != filter.WorkflowID {
			continue
		}
		copied, err := cloneRecord(rec)
		if err != nil {
			return nil, err
		}
		result = append(result, copied)
	}
	return result, nil
}
