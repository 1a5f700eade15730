package api

import "sync"

// SessionState is the shared mutable data bag threaded through a run.
// The same instance is visible, by reference, to every primitive and
// every agent invocation in a run, and it survives across runs of the
// same engine until the caller resets it.
//
// Access to individual keys is synchronized so that concurrent Parallel
// branches cannot corrupt the map, but there is no isolation beyond
// that: two branches writing the same key race, and the last write
// wins. Callers needing safe shared mutation should key their writes by
// branch identity or avoid concurrent writers to the same key.
type SessionState struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewSessionState creates an empty session state.
func NewSessionState() *SessionState {
	return &SessionState{data: make(map[string]any)}
}

// Get returns the value stored under key.
func (s *SessionState) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores a value under key, replacing any previous value.
func (s *SessionState) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Delete removes key. Deleting a missing key is a no-op.
func (s *SessionState) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Len returns the number of stored keys.
func (s *SessionState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Snapshot returns a shallow copy of the current contents, suitable
// for checkpointing. Values are shared with the live state.
func (s *SessionState) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Replace swaps the entire contents, used when restoring a session
// from storage.
func (s *SessionState) Replace(m map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]any, len(m))
	for k, v := range m {
		s.data[k] = v
	}
}

// Clear removes all keys.
func (s *SessionState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]any)
}
