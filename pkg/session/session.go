package session

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// CartLine is a cart entry staged inside an anonymous session.
type CartLine struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// Session is the server side record referenced by the session cookie.
// A nil UserID means the session is anonymous.
type Session struct {
	ID        string     `json:"id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	CartLines []CartLine `json:"cart_lines"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Version is the optimistic concurrency token. Stores bump it on every
	// successful Update and reject updates carrying a stale value.
	Version int64 `json:"version"`
}

// newSession creates an anonymous session that expires ttl after now.
func newSession(id string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        id,
		CartLines: []CartLine{},
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAuthenticated returns true if the session is bound to a user
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != nil
}

// IsBoundTo reports whether the session is bound to userID.
func (s *Session) IsBoundTo(userID uuid.UUID) bool {
	return s.IsAuthenticated() && *s.UserID == userID
}

// IsExpiredAt reports whether the session is no longer valid at now.
// A session is invalid from the instant ExpiresAt is reached.
func (s *Session) IsExpiredAt(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}

// HasCartLines reports whether anonymous cart lines are staged on the session.
func (s *Session) HasCartLines() bool {
	return s != nil && len(s.CartLines) > 0
}

// Clone returns a deep copy so callers can mutate it without touching a
// stored or shared instance.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.UserID != nil {
		uid := *s.UserID
		c.UserID = &uid
	}
	c.CartLines = slices.Clone(s.CartLines)
	if c.CartLines == nil {
		c.CartLines = []CartLine{}
	}
	return &c
}
