package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/storefront/binder"
	"github.com/dmitrymomot/storefront/handler"
	"github.com/dmitrymomot/storefront/pkg/ratelimiter"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/svc/auth"
)

// RouterOptions configures the account module.
type RouterOptions struct {
	Auth     *auth.Service
	Sessions *session.Manager
	Errors   *handler.ErrorMapper

	// LoginLimiter guards the endpoints that check credentials. Nil
	// disables rate limiting.
	LoginLimiter ratelimiter.Limiter
}

// Router creates the account routes. It expects session.Manager.Middleware
// to run before it.
//
//	r.Route("/api/v1", func(api chi.Router) {
//		api.Use(sessions.Middleware)
//		api.Mount("/", account.Router(account.RouterOptions{...}))
//	})
func Router(opts RouterOptions) chi.Router {
	h := &handlers{
		auth:     opts.Auth,
		sessions: opts.Sessions,
		errs:     opts.Errors,
	}
	if h.errs == nil {
		h.errs = handler.NewErrorMapper(nil)
	}
	h.errs = h.errs.With(ErrorRules()...)

	guard := func(next http.Handler) http.Handler { return next }
	if opts.LoginLimiter != nil {
		guard = ratelimiter.Middleware(opts.LoginLimiter, ratelimiter.ByClientIP("login"),
			ratelimiter.WithDeniedHandler(func(w http.ResponseWriter, r *http.Request, _ *ratelimiter.Result) {
				h.errs.ServeError(w, r, handler.ErrTooManyRequests)
			}),
			ratelimiter.WithErrorHandler(h.errs.ServeError),
		)
	}

	r := chi.NewRouter()

	r.Post("/session", handler.Wrap(h.currentSession,
		handler.WithErrorHandler[handler.Context, struct{}](h.errs.Handle),
	))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", handler.Wrap(h.register,
			handler.WithBinders[handler.Context, registerRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, registerRequest](h.errs.Handle),
		))
		r.With(guard).Post("/login", handler.Wrap(h.login,
			handler.WithBinders[handler.Context, credentialsRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, credentialsRequest](h.errs.Handle),
		))
		r.Post("/logout", handler.Wrap(h.logout,
			handler.WithErrorHandler[handler.Context, struct{}](h.errs.Handle),
		))
	})

	r.Route("/devices", func(r chi.Router) {
		r.Use(guard)
		r.Post("/evict-single", handler.Wrap(h.evictSingle,
			handler.WithBinders[handler.Context, credentialsRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, credentialsRequest](h.errs.Handle),
		))
		r.Post("/evict-all", handler.Wrap(h.evictAll,
			handler.WithBinders[handler.Context, credentialsRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, credentialsRequest](h.errs.Handle),
		))
	})

	r.Route("/account", func(r chi.Router) {
		r.Use(requireUser(h.errs))
		r.Get("/devices", handler.Wrap(h.devices,
			handler.WithErrorHandler[handler.Context, struct{}](h.errs.Handle),
		))
		r.Delete("/", handler.Wrap(h.deleteAccount,
			handler.WithErrorHandler[handler.Context, struct{}](h.errs.Handle),
		))
	})

	return r
}

func requireUser(errs *handler.ErrorMapper) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok || !sess.IsAuthenticated() {
				errs.ServeError(w, r, session.ErrNotAuthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
