package memory

import (
	"sync"
	"time"

	"meishi-backend/application/workflow"
	pkgerrors "meishi-backend/pkg/errors"
)

// SessionStore provides an in-memory implementation of workflow.Store.
// Sessions are per-upload transient state, so they expire after a TTL;
// eviction cancels any OCR invocation still in flight.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
}

type sessionEntry struct {
	session  *workflow.Session
	storedAt time.Time
}

// NewSessionStore creates a new in-memory session store
func NewSessionStore(ttl time.Duration) *SessionStore {
	store := &SessionStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
	}

	go store.cleanupRoutine()

	return store
}

// Put saves an upload session
func (s *SessionStore) Put(session *workflow.Session) error {
	if session == nil || session.ID() == "" {
		return pkgerrors.NewValidationError("invalid upload session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID()] = &sessionEntry{
		session:  session,
		storedAt: time.Now(),
	}
	return nil
}

// Get retrieves an upload session by ID
func (s *SessionStore) Get(sessionID string) (*workflow.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.sessions[sessionID]
	if !exists || s.isExpired(entry) {
		return nil, pkgerrors.NewNotFoundError("upload session")
	}

	return entry.session, nil
}

// Delete removes an upload session
func (s *SessionStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, exists := s.sessions[sessionID]; exists {
		entry.session.Expire()
		delete(s.sessions, sessionID)
	}
	return nil
}

// isExpired checks if a session has outlived its TTL
func (s *SessionStore) isExpired(entry *sessionEntry) bool {
	return time.Since(entry.storedAt) > s.ttl
}

// cleanupRoutine periodically drops expired sessions
func (s *SessionStore) cleanupRoutine() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		for id, entry := range s.sessions {
			if s.isExpired(entry) {
				entry.session.Expire()
				delete(s.sessions, id)
			}
		}
		s.mu.Unlock()
	}
}
