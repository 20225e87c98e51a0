package session

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/pkg/storage"
)

// MemoryStore implements Store interface using in-memory storage.
// It is meant for tests and single-process development setups.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates a new in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

// Create stores a new session
func (m *MemoryStore) Create(ctx context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID]; exists {
		return ErrSessionExists
	}

	m.sessions[session.ID] = session.Clone()
	return nil
}

// Get retrieves a session by id
func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}

	return session.Clone(), nil
}

// Update updates an existing session if the version matches.
// The stored expiry only moves forward: a renewal that landed through Touch
// after the caller loaded the session is kept.
func (m *MemoryStore) Update(ctx context.Context, session *Session) error {
	if session == nil || session.ID == "" {
		return ErrInvalidSession
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.sessions[session.ID]
	if !exists {
		return ErrSessionNotFound
	}
	if stored.Version != session.Version {
		return storage.ErrConflict
	}

	if stored.ExpiresAt.After(session.ExpiresAt) {
		session.ExpiresAt = stored.ExpiresAt
	}
	session.Version++
	m.sessions[session.ID] = session.Clone()
	return nil
}

// Touch updates only the expiry
func (m *MemoryStore) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[id]
	if !exists {
		return ErrSessionNotFound
	}

	session.ExpiresAt = expiresAt
	return nil
}

// Delete removes a session by id
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// ListByUser returns the user's sessions, oldest first
func (m *MemoryStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.IsBoundTo(userID) {
			result = append(result, session.Clone())
		}
	}

	slices.SortFunc(result, func(a, b *Session) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return result, nil
}

// CountActiveByUser counts the user's sessions valid at now
func (m *MemoryStore) CountActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int
	for _, session := range m.sessions {
		if session.IsBoundTo(userID) && !session.IsExpiredAt(now) {
			n++
		}
	}
	return n, nil
}

// DeleteByUser removes all sessions for a specific user
func (m *MemoryStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int
	for id, session := range m.sessions {
		if session.IsBoundTo(userID) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// DeleteExpired removes all sessions expired at now
func (m *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int
	for id, session := range m.sessions {
		if session.IsExpiredAt(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// Stats returns memory store statistics
func (m *MemoryStore) Stats() (total, authenticated, anonymous int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total = len(m.sessions)
	for _, session := range m.sessions {
		if session.IsAuthenticated() {
			authenticated++
		} else {
			anonymous++
		}
	}
	return
}
