package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a registered customer. Email and Username are stored normalised
// (trimmed, lower case) and are each unique.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Storage persists users. Create returns ErrUserExists when either the email
// or the username is taken; getters return ErrUserNotFound. Delete of a
// missing user is not an error.
type Storage interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NormalizeLogin trims and lower-cases an email or username.
func NormalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

// isEmail reports whether a normalised login should be looked up by email.
// Usernames cannot contain '@'.
func isEmail(login string) bool {
	return strings.Contains(login, "@")
}
