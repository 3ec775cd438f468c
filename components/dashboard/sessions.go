package dashboard

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("dashboard: session not found")

// SessionStore persists UI state per session.
type SessionStore interface {
	Create(ctx context.Context, state UIState) error
	Get(ctx context.Context, id string) (UIState, error)
	// Update applies fn atomically and returns the stored result. When fn
	// fails the stored state is left untouched.
	Update(ctx context.Context, id string, fn func(*UIState) error) (UIState, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// InMemorySessionStore keeps sessions in process memory.
type InMemorySessionStore struct {
	mu   sync.RWMutex
	data map[string]UIState
}

// NewInMemorySessionStore creates an empty store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		data: make(map[string]UIState),
	}
}

// Create stores a new session.
func (s *InMemorySessionStore) Create(_ context.Context, state UIState) error {
	if state.SessionID == "" {
		return errors.New("dashboard: session id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[state.SessionID] = state.Clone()
	return nil
}

// Get returns a copy of the session state.
func (s *InMemorySessionStore) Get(_ context.Context, id string) (UIState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.data[id]
	if !ok {
		return UIState{}, ErrSessionNotFound
	}
	return state.Clone(), nil
}

// Update runs fn on a copy and stores it when fn succeeds.
func (s *InMemorySessionStore) Update(_ context.Context, id string, fn func(*UIState) error) (UIState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.data[id]
	if !ok {
		return UIState{}, ErrSessionNotFound
	}
	next := state.Clone()
	if err := fn(&next); err != nil {
		return state.Clone(), err
	}
	s.data[id] = next
	return next.Clone(), nil
}

// Delete removes the session. Deleting an unknown id is not an error.
func (s *InMemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// Count returns the number of stored sessions.
func (s *InMemorySessionStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}
