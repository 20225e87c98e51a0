package cart

import (
	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/storefront/binder"
	"github.com/dmitrymomot/storefront/handler"
	"github.com/dmitrymomot/storefront/pkg/cart"
)

// RouterOptions configures the cart module.
type RouterOptions struct {
	Resolver *cart.Resolver
	Errors   *handler.ErrorMapper
}

// Router creates the cart routes. It expects session.Manager.Middleware to
// run before it. Whether a line lives in the session or in the user's
// persistent cart is invisible to clients.
func Router(opts RouterOptions) chi.Router {
	errs := opts.Errors
	if errs == nil {
		errs = handler.NewErrorMapper(nil)
	}
	h := &handlers{resolver: opts.Resolver}
	onErr := errs.With(ErrorRules()...).Handle

	path := binder.Path(chi.URLParam)

	r := chi.NewRouter()
	r.Get("/", handler.Wrap(h.list,
		handler.WithErrorHandler[handler.Context, struct{}](onErr),
	))
	r.Delete("/", handler.Wrap(h.removeMany,
		handler.WithBinders[handler.Context, []string](binder.JSON()),
		handler.WithErrorHandler[handler.Context, []string](onErr),
	))

	r.Route("/{id}", func(r chi.Router) {
		r.Post("/", handler.Wrap(h.add,
			handler.WithBinders[handler.Context, productRequest](path),
			handler.WithErrorHandler[handler.Context, productRequest](onErr),
		))
		r.Patch("/", handler.Wrap(h.adjust,
			handler.WithBinders[handler.Context, adjustRequest](path, binder.JSON()),
			handler.WithErrorHandler[handler.Context, adjustRequest](onErr),
		))
		r.Delete("/", handler.Wrap(h.remove,
			handler.WithBinders[handler.Context, lineRequest](path),
			handler.WithErrorHandler[handler.Context, lineRequest](onErr),
		))
		r.Post("/increase", handler.Wrap(h.step(1),
			handler.WithBinders[handler.Context, lineRequest](path),
			handler.WithErrorHandler[handler.Context, lineRequest](onErr),
		))
		r.Post("/decrease", handler.Wrap(h.step(-1),
			handler.WithBinders[handler.Context, lineRequest](path),
			handler.WithErrorHandler[handler.Context, lineRequest](onErr),
		))
	})

	return r
}
