package pgstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/pkg/identity"
	"github.com/dmitrymomot/storefront/pkg/pg"
)

const userColumns = `id, email, username, password_hash, created_at`

// UserStorage implements identity.Storage.
type UserStorage struct {
	db DB
}

func NewUserStorage(db DB) *UserStorage {
	return &UserStorage{db: db}
}

func (s *UserStorage) Create(ctx context.Context, u *identity.User) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.Username, u.PasswordHash, u.CreatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return identity.ErrUserExists
	}
	return mapErr(err)
}

func (s *UserStorage) GetByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return s.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *UserStorage) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	return s.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (s *UserStorage) GetByUsername(ctx context.Context, username string) (*identity.User, error) {
	return s.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (s *UserStorage) queryOne(ctx context.Context, sql string, args ...any) (*identity.User, error) {
	var u identity.User
	err := s.db.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if pg.IsNotFoundError(err) {
		return nil, identity.ErrUserNotFound
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *UserStorage) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return mapErr(err)
}

