package account

import (
	"cmp"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/handler"
	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/identity"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/validator"
	"github.com/dmitrymomot/storefront/svc/auth"
)

type handlers struct {
	auth     *auth.Service
	sessions *session.Manager
	errs     *handler.ErrorMapper
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// credentialsRequest accepts the login under any of its names.
type credentialsRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c credentialsRequest) login() string {
	return cmp.Or(c.Login, c.Email, c.Username)
}

func (c credentialsRequest) validate() error {
	return validator.Apply(
		validator.Required("login", c.login()),
		validator.Required("password", c.Password),
	)
}

type sessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	UserID        *uuid.UUID `json:"user_id,omitempty"`
	ExpiresAt     time.Time  `json:"expires_at"`
	CartLength    int        `json:"cart_length"`
}

type loginResponse struct {
	User    *identity.User   `json:"user"`
	Session sessionResponse  `json:"session"`
	Merge   cart.MergeReport `json:"merge"`
}

type evictResponse struct {
	Evicted int `json:"evicted"`
}

func toSessionResponse(s *session.Session) sessionResponse {
	return sessionResponse{
		Authenticated: s.IsAuthenticated(),
		UserID:        s.UserID,
		ExpiresAt:     s.ExpiresAt,
		CartLength:    len(s.CartLines),
	}
}

func current(ctx handler.Context) (*session.Session, error) {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return nil, errNoSession
	}
	return sess, nil
}

// currentSession reports the session the middleware resolved or minted. Its
// cookie is already on the response.
func (h *handlers) currentSession(ctx handler.Context, _ struct{}) handler.Response {
	sess, err := current(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(toSessionResponse(sess))
}

func (h *handlers) register(ctx handler.Context, req registerRequest) handler.Response {
	user, err := h.auth.Register(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(user, handler.WithJSONStatus(http.StatusCreated))
}

func (h *handlers) login(ctx handler.Context, req credentialsRequest) handler.Response {
	if err := req.validate(); err != nil {
		return handler.Error(err)
	}
	sess, err := current(ctx)
	if err != nil {
		return handler.Error(err)
	}

	res, err := h.auth.Login(ctx, sess, req.login(), req.Password)
	if err != nil {
		return handler.Error(err)
	}
	if res.Rotated {
		if err := h.sessions.Issue(ctx.ResponseWriter(), res.Session); err != nil {
			return handler.Error(err)
		}
	}

	return handler.JSON(loginResponse{
		User:    res.User,
		Session: toSessionResponse(res.Session),
		Merge:   res.Merge,
	}, handler.WithJSONMeta(map[string]any{"partial_merge": res.Merge.Partial()}))
}

func (h *handlers) logout(ctx handler.Context, _ struct{}) handler.Response {
	sess, err := current(ctx)
	if err != nil {
		return handler.Error(err)
	}
	if err := h.auth.Logout(ctx, sess); err != nil {
		return handler.Error(err)
	}
	if err := h.sessions.Clear(ctx.ResponseWriter()); err != nil {
		return handler.Error(err)
	}
	return handler.Empty()
}

func (h *handlers) evictSingle(ctx handler.Context, req credentialsRequest) handler.Response {
	if err := req.validate(); err != nil {
		return handler.Error(err)
	}
	n, err := h.auth.EvictOldest(ctx, req.login(), req.Password)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(evictResponse{Evicted: n})
}

func (h *handlers) evictAll(ctx handler.Context, req credentialsRequest) handler.Response {
	if err := req.validate(); err != nil {
		return handler.Error(err)
	}
	n, err := h.auth.EvictAll(ctx, req.login(), req.Password)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(evictResponse{Evicted: n})
}

func (h *handlers) devices(ctx handler.Context, _ struct{}) handler.Response {
	sess, err := current(ctx)
	if err != nil {
		return handler.Error(err)
	}
	list, err := h.auth.Devices(ctx, sess)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(list, handler.WithJSONMeta(map[string]any{"length": len(list)}))
}

func (h *handlers) deleteAccount(ctx handler.Context, _ struct{}) handler.Response {
	sess, err := current(ctx)
	if err != nil {
		return handler.Error(err)
	}
	if err := h.auth.DeleteAccount(ctx, sess); err != nil {
		return handler.Error(err)
	}
	if err := h.sessions.Clear(ctx.ResponseWriter()); err != nil {
		return handler.Error(err)
	}
	return handler.Empty()
}
