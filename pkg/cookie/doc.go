// Package cookie issues and reads HTTP cookies, with HMAC-SHA256 signing for
// values that must not be forged by the client.
//
// A Manager is created with one or more secrets (each at least 32 bytes).
// The first secret signs new cookies; all secrets are tried on verification,
// so secrets can be rotated without logging everybody out.
//
//	m, err := cookie.New([]string{os.Getenv("COOKIE_SECRET")},
//	    cookie.WithSecure(true),
//	    cookie.WithSameSite(http.SameSiteNoneMode),
//	)
//	_ = m.SetSigned(w, "_sid", sessionID, cookie.WithMaxAge(864000))
//	id, err := m.GetSigned(r, "_sid") // ErrInvalidSignature when tampered
//
// SameSite=None is only accepted together with Secure; Set returns
// ErrInsecureSameSiteNone otherwise, because browsers silently drop such
// cookies.
package cookie
