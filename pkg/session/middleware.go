package session

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/storefront/pkg/storage"
)

// Middleware resolves the request session, creating an anonymous one when
// needed, and stores it in the request context. The cookie is refreshed on
// every request.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.ResolveOrCreate(r.Context(), w, r)
		if err != nil {
			m.errorHandler(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// RequireUser rejects requests whose session is not bound to a user.
// It must run after Middleware.
func (m *Manager) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := FromContext(r.Context())
		if !ok || !session.IsAuthenticated() {
			m.errorHandler(w, r, ErrNotAuthenticated)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case storage.IsTransient(err):
		w.Header().Set("Retry-After", "1")
		http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Session error", http.StatusInternalServerError)
	}
}
