package pgstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/storefront/pkg/pg"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

const sessionColumns = `id, user_id, cart_lines, expires_at, created_at, updated_at, version`

// SessionStore implements session.Store. Anonymous cart lines live in a jsonb
// column; the version column guards every Update.
type SessionStore struct {
	db DB
}

func NewSessionStore(db DB) *SessionStore {
	return &SessionStore{db: db}
}

func scanSession(row pgx.Row) (*session.Session, error) {
	var s session.Session
	if err := row.Scan(&s.ID, &s.UserID, &s.CartLines, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt, &s.Version); err != nil {
		return nil, err
	}
	if s.CartLines == nil {
		s.CartLines = []session.CartLine{}
	}
	return &s, nil
}

func cartLinesParam(s *session.Session) []session.CartLine {
	if s.CartLines == nil {
		return []session.CartLine{}
	}
	return s.CartLines
}

func (s *SessionStore) Create(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.ID == "" {
		return session.ErrInvalidSession
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sess.ID, sess.UserID, cartLinesParam(sess), sess.ExpiresAt, sess.CreatedAt, sess.UpdatedAt, sess.Version,
	)
	if pg.IsDuplicateKeyError(err) {
		return session.ErrSessionExists
	}
	return mapErr(err)
}

func (s *SessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	sess, err := scanSession(s.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if pg.IsNotFoundError(err) {
		return nil, session.ErrSessionNotFound
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return sess, nil
}

// Update writes the session only when the stored version still matches.
func (s *SessionStore) Update(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.ID == "" {
		return session.ErrInvalidSession
	}

	// expires_at never moves back; Touch renews it without a version bump.
	var expiresAt time.Time
	err := s.db.QueryRow(ctx,
		`UPDATE sessions
		    SET user_id = $2, cart_lines = $3, expires_at = GREATEST(expires_at, $4), updated_at = $5, version = version + 1
		  WHERE id = $1 AND version = $6
		 RETURNING expires_at`,
		sess.ID, sess.UserID, cartLinesParam(sess), sess.ExpiresAt, sess.UpdatedAt, sess.Version,
	).Scan(&expiresAt)
	if pg.IsNotFoundError(err) {
		var exists bool
		if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`, sess.ID).Scan(&exists); err != nil {
			return mapErr(err)
		}
		if !exists {
			return session.ErrSessionNotFound
		}
		return storage.ErrConflict
	}
	if err != nil {
		return mapErr(err)
	}

	sess.ExpiresAt = expiresAt
	sess.Version++
	return nil
}

func (s *SessionStore) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	tag, err := s.db.Exec(ctx, `UPDATE sessions SET expires_at = $2 WHERE id = $1`, id, expiresAt)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return mapErr(err)
}

func (s *SessionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*session.Session, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, mapErr(err)
	}

	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*session.Session, error) {
		return scanSession(row)
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return sessions, nil
}

func (s *SessionStore) CountActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM sessions WHERE user_id = $1 AND expires_at > $2`, userID, now,
	).Scan(&n)
	if err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(tag.RowsAffected()), nil
}
