package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStorage is an in-process Storage for tests and single-node runs.
type MemoryStorage struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]*User
	byEmail    map[string]uuid.UUID
	byUsername map[string]uuid.UUID
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:      make(map[uuid.UUID]*User),
		byEmail:    make(map[string]uuid.UUID),
		byUsername: make(map[string]uuid.UUID),
	}
}

func (m *MemoryStorage) Create(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; ok {
		return ErrUserExists
	}
	if _, ok := m.byEmail[user.Email]; ok {
		return ErrUserExists
	}
	if _, ok := m.byUsername[user.Username]; ok {
		return ErrUserExists
	}

	u := cloneUser(user)
	m.users[u.ID] = u
	m.byEmail[u.Email] = u.ID
	m.byUsername[u.Username] = u.ID
	return nil
}

func (m *MemoryStorage) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (m *MemoryStorage) GetByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	id, ok := m.byEmail[email]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrUserNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *MemoryStorage) GetByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	id, ok := m.byUsername[username]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrUserNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *MemoryStorage) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil
	}
	delete(m.users, id)
	delete(m.byEmail, u.Email)
	delete(m.byUsername, u.Username)
	return nil
}

func cloneUser(u *User) *User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return &c
}
