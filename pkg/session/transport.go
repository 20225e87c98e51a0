package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/storefront/pkg/cookie"
)

// Transport defines how session ids are transmitted between client and server
type Transport interface {
	// GetToken extracts the session id from the request
	GetToken(r *http.Request) (string, error)

	// SetToken sends the session id in the response
	SetToken(w http.ResponseWriter, token string, ttl time.Duration) error

	// ClearToken removes the session id from the client
	ClearToken(w http.ResponseWriter) error
}

// CookieTransport carries the session id in an HMAC signed cookie
type CookieTransport struct {
	cookieMgr  *cookie.Manager
	cookieName string
	options    []cookie.Option
}

// NewCookieTransport creates a cookie transport from the session config.
// Extra options are applied after the config derived ones.
func NewCookieTransport(cookieMgr *cookie.Manager, cfg Config, opts ...cookie.Option) (*CookieTransport, error) {
	sameSite, err := cookie.ParseSameSite(cfg.SameSite)
	if err != nil {
		return nil, err
	}
	if sameSite == http.SameSiteNoneMode && !cfg.SecureCookies {
		return nil, cookie.ErrInsecureSameSiteNone
	}

	base := []cookie.Option{
		cookie.WithPath("/"),
		cookie.WithHTTPOnly(true),
		cookie.WithSecure(cfg.SecureCookies),
		cookie.WithSameSite(sameSite),
	}
	if cfg.CookieDomain != "" {
		base = append(base, cookie.WithDomain(cfg.CookieDomain))
	}

	return &CookieTransport{
		cookieMgr:  cookieMgr,
		cookieName: cfg.CookieName,
		options:    append(base, opts...),
	}, nil
}

// GetToken extracts the verified session id from the cookie.
// A missing cookie yields ErrSessionNotFound, a tampered one ErrInvalidSession.
func (t *CookieTransport) GetToken(r *http.Request) (string, error) {
	token, err := t.cookieMgr.GetSigned(r, t.cookieName)
	switch {
	case errors.Is(err, cookie.ErrCookieNotFound):
		return "", ErrSessionNotFound
	case err != nil:
		return "", errors.Join(ErrInvalidSession, err)
	case token == "":
		return "", ErrSessionNotFound
	}
	return token, nil
}

// SetToken stores the signed session id in a cookie living for ttl
func (t *CookieTransport) SetToken(w http.ResponseWriter, token string, ttl time.Duration) error {
	opts := append(t.options[:len(t.options):len(t.options)], cookie.WithMaxAge(int(ttl.Seconds())))
	return t.cookieMgr.SetSigned(w, t.cookieName, token, opts...)
}

// ClearToken removes the session cookie
func (t *CookieTransport) ClearToken(w http.ResponseWriter) error {
	t.cookieMgr.Delete(w, t.cookieName, t.options...)
	return nil
}
