package cart

import (
	"net/http"

	"github.com/dmitrymomot/storefront/handler"
	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/validator"
)

type handlers struct {
	resolver *cart.Resolver
}

type productRequest struct {
	ProductID string `path:"id"`
}

type lineRequest struct {
	LineID string `path:"id"`
}

type adjustRequest struct {
	LineID string `path:"id" json:"-"`
	Delta  int    `json:"delta"`
}

type adjustResponse struct {
	Line    *cart.Line `json:"line,omitempty"`
	Removed bool       `json:"removed"`
}

type removeResponse struct {
	Removed int `json:"removed"`
}

func current(ctx handler.Context) (*session.Session, error) {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return nil, errNoSession
	}
	return sess, nil
}

func (h *handlers) list(ctx handler.Context, _ struct{}) handler.Response {
	sess, err := current(ctx)
	if err != nil {
		return handler.Error(err)
	}
	view, err := h.resolver.ListItems(ctx, sess)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(view.Lines, handler.WithJSONMeta(map[string]any{
		"length": view.Length,
		"total":  view.Total,
	}))
}

func (h *handlers) add(ctx handler.Context, req productRequest) handler.Response {
	sess, err := current(ctx)
	if err != nil {
		return handler.Error(err)
	}
	line, err := h.resolver.AddItem(ctx, sess, req.ProductID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(line, handler.WithJSONStatus(http.StatusCreated))
}

func (h *handlers) adjust(ctx handler.Context, req adjustRequest) handler.Response {
	if err := validator.Apply(validator.NonZero("delta", req.Delta)); err != nil {
		return handler.Error(err)
	}
	return h.change(ctx, req.LineID, req.Delta)
}

func (h *handlers) step(delta int) handler.HandlerFunc[handler.Context, lineRequest] {
	return func(ctx handler.Context, req lineRequest) handler.Response {
		return h.change(ctx, req.LineID, delta)
	}
}

func (h *handlers) change(ctx handler.Context, lineID string, delta int) handler.Response {
	sess, err := current(ctx)
	if err != nil {
		return handler.Error(err)
	}
	line, removed, err := h.resolver.Increment(ctx, sess, lineID, delta)
	if err != nil {
		return handler.Error(err)
	}
	if removed {
		return handler.JSON(adjustResponse{Removed: true})
	}
	return handler.JSON(adjustResponse{Line: &line})
}

func (h *handlers) remove(ctx handler.Context, req lineRequest) handler.Response {
	sess, err := current(ctx)
	if err != nil {
		return handler.Error(err)
	}
	if err := h.resolver.Remove(ctx, sess, req.LineID); err != nil {
		return handler.Error(err)
	}
	return handler.Empty()
}

func (h *handlers) removeMany(ctx handler.Context, ids []string) handler.Response {
	if err := validator.Apply(validator.NotEmpty("ids", ids)); err != nil {
		return handler.Error(err)
	}
	sess, err := current(ctx)
	if err != nil {
		return handler.Error(err)
	}
	n, err := h.resolver.RemoveMany(ctx, sess, ids)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(removeResponse{Removed: n})
}
