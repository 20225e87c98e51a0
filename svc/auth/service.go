package auth

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/devices"
	"github.com/dmitrymomot/storefront/pkg/identity"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/session"
)

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	// Session is the bound session. When Rotated is set its id differs from
	// the one the client presented and the cookie must be reissued.
	Session *session.Session
	User    *identity.User
	Merge   cart.MergeReport
	Rotated bool
}

// Device describes one live session of a user. Session ids are bearer
// credentials and are never exposed.
type Device struct {
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Current   bool      `json:"current"`
}

// Service runs the login, eviction and account flows on top of the
// identity, session, device and cart packages.
type Service struct {
	users    *identity.Service
	sessions *session.Manager
	devices  *devices.Enforcer
	carts    *cart.Resolver
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger for login, logout and account events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService wires the account flows over the identity, session, device
// and cart components.
func NewService(
	users *identity.Service,
	sessions *session.Manager,
	enforcer *devices.Enforcer,
	carts *cart.Resolver,
	opts ...Option,
) *Service {
	s := &Service{
		users:    users,
		sessions: sessions,
		devices:  enforcer,
		carts:    carts,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("auth"))
	return s
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, email, username, password string) (*identity.User, error) {
	return s.users.Register(ctx, email, username, password)
}

// Login verifies the credentials and binds sess to the user.
//
// A session already bound to the same user is accepted as is, and any merge
// a previous attempt left unfinished is completed. A session bound to a
// different user fails with session.ErrAlreadyBoundToOtherUser. When the
// user is at the device cap the login fails with devices.ErrTooManyDevices
// and sess is left untouched.
func (s *Service) Login(ctx context.Context, sess *session.Session, login, password string) (LoginResult, error) {
	user, err := s.users.Authenticate(ctx, login, password)
	if err != nil {
		return LoginResult{}, err
	}

	if sess.IsAuthenticated() {
		if !sess.IsBoundTo(user.ID) {
			return LoginResult{}, session.ErrAlreadyBoundToOtherUser
		}
		return s.finishLogin(ctx, sess, user, false)
	}

	if err := s.devices.CheckAndAdmit(ctx, user.ID); err != nil {
		return LoginResult{}, err
	}

	bound, err := s.sessions.BindUser(ctx, sess, user.ID)
	if err != nil {
		return LoginResult{}, err
	}

	return s.finishLogin(ctx, bound, user, s.sessions.Config().RotateOnBind)
}

func (s *Service) finishLogin(ctx context.Context, sess *session.Session, user *identity.User, rotate bool) (LoginResult, error) {
	result := LoginResult{
		Session: sess,
		User:    user,
		Merge:   cart.MergeReport{Merged: []cart.Line{}, Skipped: []cart.MergeWarning{}},
	}

	if sess.HasCartLines() {
		report, err := s.carts.MergeOnBind(ctx, sess, user.ID)
		if err != nil {
			// The session stays bound; repeating the login resumes the merge.
			return LoginResult{}, err
		}
		result.Merge = report

		if report.Partial() {
			s.logger.WarnContext(ctx, "cart merged partially",
				logger.UserID(user.ID),
				logger.Count(len(report.Skipped)),
			)
		}

		// Reload so rotation copies the emptied cart.
		if result.Session, err = s.sessions.Load(ctx, sess.ID); err != nil {
			return LoginResult{}, err
		}
	}

	if rotate {
		rotated, err := s.sessions.Rotate(ctx, result.Session)
		if err != nil {
			s.logger.WarnContext(ctx, "session rotation failed, keeping current id",
				logger.UserID(user.ID),
				logger.Error(err),
			)
		} else {
			result.Session = rotated
			result.Rotated = true
		}
	}

	s.logger.InfoContext(ctx, "user logged in",
		logger.Event("login"),
		logger.UserID(user.ID),
		logger.Count(len(result.Merge.Merged)),
	)
	return result, nil
}

// EvictOldest re-verifies the credentials and deletes the user's oldest live
// session. It reports how many sessions were deleted; zero is not an error.
func (s *Service) EvictOldest(ctx context.Context, login, password string) (int, error) {
	user, err := s.users.Authenticate(ctx, login, password)
	if err != nil {
		return 0, err
	}
	return s.devices.EvictOldest(ctx, user.ID)
}

// EvictAll re-verifies the credentials and deletes every session of the user.
func (s *Service) EvictAll(ctx context.Context, login, password string) (int, error) {
	user, err := s.users.Authenticate(ctx, login, password)
	if err != nil {
		return 0, err
	}
	return s.devices.EvictAll(ctx, user.ID)
}

// Logout deletes the session. Logging out twice succeeds.
func (s *Service) Logout(ctx context.Context, sess *session.Session) error {
	if err := s.sessions.Revoke(ctx, sess.ID); err != nil {
		return err
	}
	if sess.IsAuthenticated() {
		s.logger.InfoContext(ctx, "user logged out", logger.Event("logout"), logger.UserID(*sess.UserID))
	}
	return nil
}

// Devices lists the live sessions of the user sess is bound to, oldest first.
func (s *Service) Devices(ctx context.Context, sess *session.Session) ([]Device, error) {
	userID, err := boundUser(sess)
	if err != nil {
		return nil, err
	}

	active, err := s.devices.ActiveSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Device, 0, len(active))
	for _, a := range active {
		out = append(out, Device{
			CreatedAt: a.CreatedAt,
			ExpiresAt: a.ExpiresAt,
			Current:   a.ID == sess.ID,
		})
	}
	return out, nil
}

// DeleteAccount removes the user sess is bound to together with the user's
// cart items and sessions. The store has no cascades, so every record set
// is deleted explicitly. Sessions go last so a failed attempt can be
// repeated from the same session.
func (s *Service) DeleteAccount(ctx context.Context, sess *session.Session) error {
	userID, err := boundUser(sess)
	if err != nil {
		return err
	}

	items, err := s.carts.DeleteUserCart(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	sessions, err := s.devices.EvictAll(ctx, userID)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "account deleted",
		logger.Event("account_deleted"),
		logger.UserID(userID),
		slog.Int("cart_items", items),
		slog.Int("sessions", sessions),
	)
	return nil
}

func boundUser(sess *session.Session) (uuid.UUID, error) {
	if !sess.IsAuthenticated() {
		return uuid.Nil, session.ErrNotAuthenticated
	}
	return *sess.UserID, nil
}
