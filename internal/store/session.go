package store

import (
	"sync"

	"github.com/efreitasn/makeamarket/internal/domain"
)

// SessionStore is a thread-safe in-memory store of live games, keyed by
// game ID. The value type is left to the caller so the store does not
// depend on the engine.
type SessionStore[T any] struct {
	mu       sync.RWMutex
	sessions map[string]T
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore[T any]() *SessionStore[T] {
	return &SessionStore[T]{
		sessions: make(map[string]T),
	}
}

// Create adds a session. It returns domain.ErrGameAlreadyExists if the
// ID is taken.
func (s *SessionStore[T]) Create(id string, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; exists {
		return domain.ErrGameAlreadyExists
	}
	s.sessions[id] = v
	return nil
}

// Get retrieves a session by ID. It returns domain.ErrGameNotFound if
// the session does not exist.
func (s *SessionStore[T]) Get(id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.sessions[id]
	if !ok {
		var zero T
		return zero, domain.ErrGameNotFound
	}
	return v, nil
}

// Delete removes a session. It returns domain.ErrGameNotFound if the
// session does not exist.
func (s *SessionStore[T]) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return domain.ErrGameNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (s *SessionStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
