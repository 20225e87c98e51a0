package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines the interface for session persistence.
// Expiry is judged by the Manager; stores return records as they are.
type Store interface {
	// Create stores a new session. Returns ErrSessionExists on id collision.
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by id
	Get(ctx context.Context, id string) (*Session, error)

	// Update replaces the stored session if its version still equals
	// session.Version, then increments session.Version.
	// A stale version yields storage.ErrConflict.
	Update(ctx context.Context, session *Session) error

	// Touch moves the expiry of a session without bumping its version
	Touch(ctx context.Context, id string, expiresAt time.Time) error

	// Delete removes a session by id. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// ListByUser returns every stored session of the user ordered by CreatedAt ascending
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Session, error)

	// CountActiveByUser counts the user's sessions that are still valid at now
	CountActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)

	// DeleteByUser removes all sessions of the user and returns how many were removed
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error)

	// DeleteExpired removes sessions expired at now and returns how many were removed
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
