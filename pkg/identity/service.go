package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/storage"
	"github.com/dmitrymomot/storefront/pkg/validator"
)

// Config holds credential hashing and password policy settings.
type Config struct {
	BcryptCost        int `env:"AUTH_BCRYPT_COST" envDefault:"10"`
	MinPasswordLength int `env:"AUTH_MIN_PASSWORD_LENGTH" envDefault:"8"`
}

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

// Service registers users and verifies first-party credentials.
type Service struct {
	storage Storage
	cfg     Config
	retrier *storage.Retrier
	logger  *slog.Logger
	now     func() time.Time

	// compared against when the login is unknown so both paths cost one bcrypt run
	dummyHash []byte
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets password hashing and validation settings.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// WithBcryptCost overrides only the bcrypt cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cfg.BcryptCost = cost }
}

// WithRetrier sets the retry policy for user storage reads.
func WithRetrier(r *storage.Retrier) Option {
	return func(s *Service) { s.retrier = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the identity service. Invalid bcrypt costs fall back to
// bcrypt.DefaultCost.
func NewService(st Storage, opts ...Option) *Service {
	s := &Service{
		storage: st,
		cfg:     Config{BcryptCost: bcrypt.DefaultCost, MinPasswordLength: 8},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.BcryptCost < bcrypt.MinCost || s.cfg.BcryptCost > bcrypt.MaxCost {
		s.cfg.BcryptCost = bcrypt.DefaultCost
	}
	if s.cfg.MinPasswordLength <= 0 {
		s.cfg.MinPasswordLength = 8
	}
	s.logger = s.logger.With(logger.Component("identity"))

	// A hashing failure here only removes the timing equalisation.
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("storefront-dummy-password"), s.cfg.BcryptCost)
	return s
}

// Register validates input, hashes the password and creates the user.
func (s *Service) Register(ctx context.Context, email, username, password string) (*User, error) {
	email = NormalizeLogin(email)
	username = NormalizeLogin(username)

	if err := validator.Apply(
		validator.Required("email", email),
		validator.Email("email", email),
		validator.MaxLen("email", email, 254),
		validator.Required("username", username),
		validator.MinLen("username", username, 3),
		validator.MaxLen("username", username, 32),
		validator.Username("username", username),
		validator.MinLen("password", password, s.cfg.MinPasswordLength),
		passwordFitsHash("password", password),
	); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.retrier.Once(ctx, func(ctx context.Context) error {
		return s.storage.Create(ctx, user)
	}); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", logger.UserID(user.ID))
	return user, nil
}

// Authenticate resolves login (email or username) and checks the password.
// Unknown logins and wrong passwords both yield ErrInvalidCredentials; store
// failures are returned as is so callers can tell them apart.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*User, error) {
	user, err := s.LookupByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		s.logger.DebugContext(ctx, "password mismatch", logger.UserID(user.ID))
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// LookupByLogin finds a user by email when login contains '@', by username
// otherwise.
func (s *Service) LookupByLogin(ctx context.Context, login string) (*User, error) {
	login = NormalizeLogin(login)
	if login == "" {
		return nil, ErrUserNotFound
	}

	var user *User
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		if isEmail(login) {
			user, err = s.storage.GetByEmail(ctx, login)
		} else {
			user, err = s.storage.GetByUsername(ctx, login)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	var user *User
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.storage.GetByID(ctx, id)
		return err
	})
	return user, err
}

// Delete removes the user record only. Sessions and cart items are the
// caller's to clean up.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.storage.Delete(ctx, id)
	}); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.InfoContext(ctx, "user deleted", logger.UserID(id))
	return nil
}

func passwordFitsHash(field, password string) validator.Rule {
	return validator.Rule{
		Check: func() bool { return len(password) <= maxPasswordBytes },
		Error: validator.FieldError{
			Field:   field,
			Message: fmt.Sprintf("must be at most %d bytes long", maxPasswordBytes),
			Code:    "max_length",
		},
	}
}
