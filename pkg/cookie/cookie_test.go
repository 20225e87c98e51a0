package cookie_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrymomot/storefront/pkg/cookie"
)

const (
	secret    = "this-is-a-very-long-secret-key-32-chars-long"
	oldSecret = "this-is-old-very-long-secret-key-32-chars-ok"
)

func roundTrip(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		secrets []string
		wantErr error
	}{
		{name: "no secrets", secrets: []string{}, wantErr: cookie.ErrNoSecret},
		{name: "empty secrets", secrets: []string{"", ""}, wantErr: cookie.ErrNoSecret},
		{name: "secret too short", secrets: []string{"short"}, wantErr: cookie.ErrSecretTooShort},
		{name: "valid secret", secrets: []string{secret}},
		{name: "rotation", secrets: []string{secret, oldSecret}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := cookie.New(tt.secrets)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestManager_SetGetSigned(t *testing.T) {
	t.Parallel()
	m, err := cookie.New([]string{secret})
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	if err := m.SetSigned(w, "_sid", "session-123"); err != nil {
		t.Fatalf("SetSigned() error = %v", err)
	}

	got, err := m.GetSigned(roundTrip(w), "_sid")
	if err != nil {
		t.Fatalf("GetSigned() error = %v", err)
	}
	if got != "session-123" {
		t.Errorf("GetSigned() = %q, want %q", got, "session-123")
	}
}

func TestManager_SignedTamperDetection(t *testing.T) {
	t.Parallel()
	m, _ := cookie.New([]string{secret})
	signed := m.Sign("session-123")
	encoded, sig, _ := strings.Cut(signed, "|")

	tests := []struct {
		name    string
		value   string
		wantErr error
	}{
		{name: "unsigned raw value", value: "session-123", wantErr: cookie.ErrInvalidFormat},
		{name: "empty signature", value: encoded + "|", wantErr: cookie.ErrInvalidFormat},
		{name: "bad base64", value: "!!!|" + sig, wantErr: cookie.ErrInvalidFormat},
		{name: "forged signature", value: encoded + "|" + strings.Repeat("A", len(sig)), wantErr: cookie.ErrInvalidSignature},
		{name: "swapped value", value: m.Sign("other")[:strings.Index(m.Sign("other"), "|")] + "|" + sig, wantErr: cookie.ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.AddCookie(&http.Cookie{Name: "_sid", Value: tt.value})
			_, err := m.GetSigned(r, "_sid")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("GetSigned() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestManager_MissingCookie(t *testing.T) {
	t.Parallel()
	m, _ := cookie.New([]string{secret})
	_, err := m.GetSigned(httptest.NewRequest(http.MethodGet, "/", nil), "_sid")
	if !errors.Is(err, cookie.ErrCookieNotFound) {
		t.Errorf("GetSigned() error = %v, want %v", err, cookie.ErrCookieNotFound)
	}
}

func TestManager_SecretRotation(t *testing.T) {
	t.Parallel()
	oldMgr, _ := cookie.New([]string{oldSecret})
	newMgr, _ := cookie.New([]string{secret, oldSecret})

	w := httptest.NewRecorder()
	_ = oldMgr.SetSigned(w, "_sid", "legacy")

	got, err := newMgr.GetSigned(roundTrip(w), "_sid")
	if err != nil || got != "legacy" {
		t.Errorf("GetSigned() = %q, %v; want legacy value", got, err)
	}

	onlyNew, _ := cookie.New([]string{secret})
	if _, err := onlyNew.GetSigned(roundTrip(w), "_sid"); !errors.Is(err, cookie.ErrInvalidSignature) {
		t.Errorf("retired secret still accepted: %v", err)
	}
}

func TestManager_SameSiteNone(t *testing.T) {
	t.Parallel()

	t.Run("requires secure", func(t *testing.T) {
		m, _ := cookie.New([]string{secret}, cookie.WithSameSite(http.SameSiteNoneMode))
		err := m.Set(httptest.NewRecorder(), "_sid", "v")
		if !errors.Is(err, cookie.ErrInsecureSameSiteNone) {
			t.Errorf("Set() error = %v, want %v", err, cookie.ErrInsecureSameSiteNone)
		}
	})

	t.Run("secure cross site cookie attributes", func(t *testing.T) {
		m, _ := cookie.New([]string{secret}, cookie.WithSameSite(http.SameSiteNoneMode), cookie.WithSecure(true))
		w := httptest.NewRecorder()
		if err := m.SetSigned(w, "_sid", "v", cookie.WithMaxAge(60)); err != nil {
			t.Fatal(err)
		}
		c := w.Result().Cookies()[0]
		if !c.Secure || !c.HttpOnly || c.SameSite != http.SameSiteNoneMode || c.MaxAge != 60 {
			t.Errorf("unexpected attributes: %+v", c)
		}
	})
}

func TestManager_Delete(t *testing.T) {
	t.Parallel()
	m, _ := cookie.New([]string{secret}, cookie.WithSecure(true))
	w := httptest.NewRecorder()
	m.Delete(w, "_sid")

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge != -1 || cookies[0].Value != "" || !cookies[0].Secure {
		t.Errorf("unexpected delete cookie: %+v", cookies[0])
	}
}

func TestParseSameSite(t *testing.T) {
	t.Parallel()
	tests := map[string]http.SameSite{
		"":       http.SameSiteLaxMode,
		"lax":    http.SameSiteLaxMode,
		"Strict": http.SameSiteStrictMode,
		"none":   http.SameSiteNoneMode,
	}
	for in, want := range tests {
		got, err := cookie.ParseSameSite(in)
		if err != nil || got != want {
			t.Errorf("ParseSameSite(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := cookie.ParseSameSite("sideways"); !errors.Is(err, cookie.ErrInvalidSameSite) {
		t.Errorf("expected ErrInvalidSameSite, got %v", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()
	m, err := cookie.NewFromConfig(cookie.Config{
		Secrets:  secret + ", " + oldSecret,
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
		SameSite: "none",
	})
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}
	w := httptest.NewRecorder()
	if err := m.SetSigned(w, "_sid", "x"); err != nil {
		t.Fatalf("SetSigned() error = %v", err)
	}

	if _, err := cookie.NewFromConfig(cookie.Config{Secrets: secret, SameSite: "bogus"}); !errors.Is(err, cookie.ErrInvalidSameSite) {
		t.Errorf("expected ErrInvalidSameSite, got %v", err)
	}
}
