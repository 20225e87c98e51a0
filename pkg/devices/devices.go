package devices

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

// ErrTooManyDevices means the user already has the maximum number of live
// sessions. The caller should offer evicting one or all of them.
var ErrTooManyDevices = errors.New("devices.too_many_devices")

// Config holds the device cap.
type Config struct {
	MaxDevices int `env:"DEVICES_MAX_PER_USER" envDefault:"3"`
}

// SessionIndex is the part of a session store the enforcer needs.
type SessionIndex interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*session.Session, error)
	CountActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// Enforcer limits how many sessions a user may keep at once. Live sessions
// are counted on demand, so passively expired sessions never need
// bookkeeping. Concurrent logins may briefly overshoot the cap.
type Enforcer struct {
	sessions SessionIndex
	cfg      Config
	retrier  *storage.Retrier
	logger   *slog.Logger
	now      func() time.Time
}

// Option is a functional option for configuring the Enforcer
type Option func(*Enforcer)

// WithRetrier sets the retry policy for session store reads and deletes
func WithRetrier(r *storage.Retrier) Option {
	return func(e *Enforcer) { e.retrier = r }
}

// WithLogger sets the logger for evictions and cap warnings
func WithLogger(l *slog.Logger) Option {
	return func(e *Enforcer) { e.logger = l }
}

// WithClock overrides the time source used to tell active sessions from expired ones
func WithClock(now func() time.Time) Option {
	return func(e *Enforcer) { e.now = now }
}

// NewEnforcer creates an Enforcer over the session index.
// A non-positive MaxDevices falls back to 3.
func NewEnforcer(sessions SessionIndex, cfg Config, opts ...Option) *Enforcer {
	if cfg.MaxDevices <= 0 {
		cfg.MaxDevices = 3
	}
	e := &Enforcer{
		sessions: sessions,
		cfg:      cfg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logger.Component("devices"))
	return e
}

// MaxDevices returns the configured cap.
func (e *Enforcer) MaxDevices() int { return e.cfg.MaxDevices }

// CheckAndAdmit returns ErrTooManyDevices when the user already holds
// MaxDevices live sessions, nil otherwise.
func (e *Enforcer) CheckAndAdmit(ctx context.Context, userID uuid.UUID) error {
	var n int
	if err := e.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		n, err = e.sessions.CountActiveByUser(ctx, userID, e.now())
		return err
	}); err != nil {
		return err
	}

	if n >= e.cfg.MaxDevices {
		e.logger.WarnContext(ctx, "login rejected by device cap",
			logger.UserID(userID),
			logger.Count(n),
		)
		return ErrTooManyDevices
	}
	return nil
}

// ActiveSessions lists the user's live sessions, oldest first.
func (e *Enforcer) ActiveSessions(ctx context.Context, userID uuid.UUID) ([]*session.Session, error) {
	var all []*session.Session
	if err := e.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		all, err = e.sessions.ListByUser(ctx, userID)
		return err
	}); err != nil {
		return nil, err
	}

	now := e.now()
	active := all[:0]
	for _, s := range all {
		if !s.IsExpiredAt(now) {
			active = append(active, s)
		}
	}
	return active, nil
}

// EvictOldest deletes the user's live session with the earliest creation
// time and returns how many sessions were deleted (0 or 1).
func (e *Enforcer) EvictOldest(ctx context.Context, userID uuid.UUID) (int, error) {
	active, err := e.ActiveSessions(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(active) == 0 {
		return 0, nil
	}

	oldest := active[0]
	if err := e.retrier.Do(ctx, func(ctx context.Context) error {
		return e.sessions.Delete(ctx, oldest.ID)
	}); err != nil {
		return 0, err
	}

	e.logger.InfoContext(ctx, "oldest device evicted",
		logger.UserID(userID),
		logger.SessionID(oldest.ID),
	)
	return 1, nil
}

// EvictAll deletes every session of the user and returns how many there were.
func (e *Enforcer) EvictAll(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := e.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		n, err = e.sessions.DeleteByUser(ctx, userID)
		return err
	}); err != nil {
		return 0, err
	}

	e.logger.InfoContext(ctx, "all devices evicted",
		logger.UserID(userID),
		logger.Count(n),
	)
	return n, nil
}
