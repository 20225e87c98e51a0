package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/pkg/cookie"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

// Manager handles session operations
type Manager struct {
	store         Store
	transport     Transport
	config        Config
	retrier       *storage.Retrier
	logger        *slog.Logger
	now           func() time.Time
	cookieManager *cookie.Manager
	cookieOptions []cookie.Option
	errorHandler  func(w http.ResponseWriter, r *http.Request, err error)
}

// New creates a new session manager with the given options
func New(opts ...Option) *Manager {
	m := &Manager{
		config: DefaultConfig(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore()
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if m.config.TTL <= 0 {
		m.config.TTL = DefaultConfig().TTL
	}
	if m.config.CookieName == "" {
		m.config.CookieName = DefaultConfig().CookieName
	}
	if m.errorHandler == nil {
		m.errorHandler = defaultErrorHandler
	}

	if m.transport == nil {
		if m.cookieManager == nil {
			// Fail fast on misconfiguration to prevent insecure runtime behavior
			panic("session: cookie manager is required when using default cookie transport")
		}
		t, err := NewCookieTransport(m.cookieManager, m.config, m.cookieOptions...)
		if err != nil {
			panic(fmt.Sprintf("session: %v", err))
		}
		m.transport = t
	}

	return m
}

// Config returns the effective configuration.
func (m *Manager) Config() Config { return m.config }

// Store returns the underlying session store.
func (m *Manager) Store() Store { return m.store }

// ResolveOrCreate returns the valid session referenced by the request cookie,
// sliding its expiry forward, or mints a new anonymous session when the
// cookie is missing, tampered, unknown or expired. The response cookie is set
// in both cases. Only store failures are returned as errors.
func (m *Manager) ResolveOrCreate(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	if id, err := m.transport.GetToken(r); err == nil {
		sess, err := m.resume(ctx, id)
		switch {
		case err == nil:
			if err := m.Issue(w, sess); err != nil {
				return nil, err
			}
			return sess, nil
		case !errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrSessionExpired):
			return nil, err
		}
	}

	sess, err := m.Create(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.Issue(w, sess); err != nil {
		_ = m.store.Delete(ctx, sess.ID)
		return nil, err
	}

	return sess, nil
}

// resume loads a valid session and renews it. A record revoked between the
// two steps is reported as ErrSessionNotFound.
func (m *Manager) resume(ctx context.Context, id string) (*Session, error) {
	sess, err := m.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.Renew(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load returns the session with the given id if it is still valid.
// An expired record is deleted and reported as ErrSessionExpired.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	var sess *Session
	err := m.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		sess, err = m.store.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if sess.IsExpiredAt(m.now()) {
		if err := m.Revoke(ctx, id); err != nil {
			m.logger.WarnContext(ctx, "failed to delete expired session",
				logger.Component("session"), logger.Error(err))
		}
		return nil, ErrSessionExpired
	}

	return sess, nil
}

// Create stores a new anonymous session.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	id, err := generateToken()
	if err != nil {
		return nil, err
	}

	sess := newSession(id, m.now(), m.config.TTL)
	if err := m.retrier.Do(ctx, func(ctx context.Context) error {
		err := m.store.Create(ctx, sess)
		if errors.Is(err, ErrSessionExists) {
			// Only a retried write that had already landed can collide on a
			// 256-bit random id.
			return nil
		}
		return err
	}); err != nil {
		return nil, err
	}

	return sess, nil
}

// BindUser attaches userID to the session and extends its expiry.
// Binding to the user the session already belongs to is a no-op; binding a
// session owned by someone else fails with ErrAlreadyBoundToOtherUser and
// leaves the record untouched.
func (m *Manager) BindUser(ctx context.Context, sess *Session, userID uuid.UUID) (*Session, error) {
	if sess.IsAuthenticated() {
		if sess.IsBoundTo(userID) {
			return sess, nil
		}
		return nil, ErrAlreadyBoundToOtherUser
	}

	bound, err := m.Modify(ctx, sess.ID, func(s *Session) (bool, error) {
		if s.IsAuthenticated() {
			if s.IsBoundTo(userID) {
				return false, nil
			}
			return false, ErrAlreadyBoundToOtherUser
		}
		uid := userID
		s.UserID = &uid
		s.ExpiresAt = m.now().Add(m.config.TTL)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "session bound to user",
		logger.Component("session"),
		logger.UserID(userID),
	)

	return bound, nil
}

// Renew slides the session expiry forward by the configured TTL.
func (m *Manager) Renew(ctx context.Context, sess *Session) error {
	expiresAt := m.now().Add(m.config.TTL)
	if err := m.retrier.Do(ctx, func(ctx context.Context) error {
		return m.store.Touch(ctx, sess.ID, expiresAt)
	}); err != nil {
		return err
	}
	sess.ExpiresAt = expiresAt
	return nil
}

// Rotate moves the session content under a freshly generated id and
// deletes the old record.
func (m *Manager) Rotate(ctx context.Context, sess *Session) (*Session, error) {
	id, err := generateToken()
	if err != nil {
		return nil, err
	}

	rotated := sess.Clone()
	rotated.ID = id
	rotated.Version = 0
	rotated.UpdatedAt = m.now()

	if err := m.retrier.Do(ctx, func(ctx context.Context) error {
		err := m.store.Create(ctx, rotated)
		if errors.Is(err, ErrSessionExists) {
			return nil
		}
		return err
	}); err != nil {
		return nil, err
	}

	if err := m.Revoke(ctx, sess.ID); err != nil {
		// Two records for one device until the old one expires or the
		// sweeper collects it; the new id is already valid.
		m.logger.WarnContext(ctx, "failed to delete rotated session",
			logger.Component("session"), logger.Error(err))
	}

	return rotated, nil
}

// Revoke deletes the session record. Revoking a missing session succeeds.
func (m *Manager) Revoke(ctx context.Context, id string) error {
	return m.retrier.Do(ctx, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// Modify performs an optimistic read-modify-write of the session.
// fn receives a fresh copy and reports whether it changed anything; on a
// lost update the session is reloaded and fn runs again, at most
// STORE_CAS_ATTEMPTS times. The final stored state is returned.
func (m *Manager) Modify(ctx context.Context, id string, fn func(*Session) (bool, error)) (*Session, error) {
	attempts := m.retrier.CASAttempts()
	for range attempts {
		sess, err := m.Load(ctx, id)
		if err != nil {
			return nil, err
		}

		changed, err := fn(sess)
		if err != nil {
			return nil, err
		}
		if !changed {
			return sess, nil
		}

		sess.UpdatedAt = m.now()
		err = m.retrier.Once(ctx, func(ctx context.Context) error {
			return m.store.Update(ctx, sess)
		})
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return nil, err
		}
	}

	m.logger.WarnContext(ctx, "session update kept conflicting",
		logger.Component("session"),
		logger.RetryCount(attempts),
	)
	return nil, fmt.Errorf("session update: %w", storage.ErrConflict)
}

// Issue writes the session cookie to the response.
func (m *Manager) Issue(w http.ResponseWriter, sess *Session) error {
	return m.transport.SetToken(w, sess.ID, m.config.TTL)
}

// Clear removes the session cookie from the client.
func (m *Manager) Clear(w http.ResponseWriter) error {
	return m.transport.ClearToken(w)
}

// generateToken creates a cryptographically secure token
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
