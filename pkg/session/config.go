package session

import "time"

// Config holds session configuration
type Config struct {
	// CookieName is the name of the session cookie (default: "_sid")
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"_sid"`

	// TTL is both the sliding expiry window and the cookie Max-Age
	TTL time.Duration `env:"SESSION_TTL" envDefault:"240h"`

	// SecureCookies enables the Secure flag on session cookies
	SecureCookies bool `env:"SESSION_SECURE_COOKIES" envDefault:"true"`

	// SameSite is lax, strict or none. The front-end lives on another
	// origin, so none is the default.
	SameSite string `env:"SESSION_SAME_SITE" envDefault:"none"`

	CookieDomain string `env:"SESSION_COOKIE_DOMAIN"`

	// SweepInterval for expired sessions (0 to disable)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"10m"`

	// RotateOnBind issues a fresh session id after a successful login
	RotateOnBind bool `env:"SESSION_ROTATE_ON_BIND" envDefault:"true"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		CookieName:    "_sid",
		TTL:           10 * 24 * time.Hour,
		SecureCookies: true,
		SameSite:      "none",
		SweepInterval: 10 * time.Minute,
		RotateOnBind:  true,
	}
}

// NewFromConfig creates a new Manager from the provided Config.
// Cookie manager required for default cookie transport.
func NewFromConfig(cfg Config, opts ...Option) *Manager {
	return New(append([]Option{WithConfig(cfg)}, opts...)...)
}
