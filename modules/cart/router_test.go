package cart_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/storefront/handler"
	"github.com/dmitrymomot/storefront/modules/account"
	cartmodule "github.com/dmitrymomot/storefront/modules/cart"
	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/catalog"
	"github.com/dmitrymomot/storefront/pkg/cookie"
	"github.com/dmitrymomot/storefront/pkg/devices"
	"github.com/dmitrymomot/storefront/pkg/identity"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/svc/auth"
)

const password = "correct-horse-battery"

type envelope struct {
	Data  json.RawMessage      `json:"data"`
	Meta  map[string]any       `json:"meta"`
	Error *handler.ErrorDetail `json:"error"`
}

type lineView struct {
	ID                 string `json:"id"`
	ProductID          string `json:"product_id"`
	Quantity           int    `json:"quantity"`
	Source             string `json:"source"`
	Title              string `json:"title"`
	Subtotal           string `json:"subtotal"`
	AvailabilityStatus string `json:"availability_status"`
}

type browser struct {
	t       *testing.T
	srv     http.Handler
	cookies map[string]*http.Cookie
}

func (b *browser) do(method, path, body string) (*httptest.ResponseRecorder, envelope) {
	b.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	b.srv.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(b.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (b *browser) line(method, path string) lineView {
	b.t.Helper()
	rec, env := b.do(method, path, "")
	require.Less(b.t, rec.Code, 300, rec.Body.String())
	var l lineView
	require.NoError(b.t, json.Unmarshal(env.Data, &l))
	return l
}

func (b *browser) list() ([]lineView, envelope) {
	b.t.Helper()
	rec, env := b.do(http.MethodGet, "/api/v1/cart", "")
	require.Equal(b.t, http.StatusOK, rec.Code, rec.Body.String())
	var lines []lineView
	require.NoError(b.t, json.Unmarshal(env.Data, &lines))
	return lines, env
}

type app struct {
	srv     http.Handler
	users   *identity.Service
	catalog *catalog.MemoryCatalog
}

func newApp(t *testing.T) *app {
	t.Helper()
	cookies, err := cookie.New([]string{"cart-router-test-secret-long-enough!!"})
	require.NoError(t, err)

	store := session.NewMemoryStore()
	sessions := session.New(session.WithCookieManager(cookies), session.WithStore(store))
	users := identity.NewService(identity.NewMemoryStorage(), identity.WithBcryptCost(bcrypt.MinCost))
	products := catalog.NewMemoryCatalog(
		catalog.Product{ID: "p1", Title: "Mug", Price: decimal.RequireFromString("4.50"), AvailableQuantity: 10},
		catalog.Product{ID: "p2", Title: "Plate", Price: decimal.RequireFromString("3.00"), AvailableQuantity: 10},
		catalog.Product{ID: "scarce", Title: "Vase", Price: decimal.RequireFromString("20"), AvailableQuantity: 1},
	)
	resolver := cart.NewResolver(sessions, cart.NewMemoryItemStore(), products)
	svc := auth.NewService(users, sessions, devices.NewEnforcer(store, devices.Config{MaxDevices: 3}), resolver)

	r := chi.NewRouter()
	r.Route("/api/v1", func(api chi.Router) {
		api.Use(sessions.Middleware)
		api.Mount("/cart", cartmodule.Router(cartmodule.RouterOptions{Resolver: resolver}))
		api.Mount("/", account.Router(account.RouterOptions{Auth: svc, Sessions: sessions}))
	})
	return &app{srv: r, users: users, catalog: products}
}

func (a *app) browser(t *testing.T) *browser {
	return &browser{t: t, srv: a.srv, cookies: map[string]*http.Cookie{}}
}

func TestAnonymousCart(t *testing.T) {
	t.Parallel()
	b := newApp(t).browser(t)

	first := b.line(http.MethodPost, "/api/v1/cart/p1")
	assert.Equal(t, 1, first.Quantity)
	assert.Equal(t, "session", first.Source)

	again := b.line(http.MethodPost, "/api/v1/cart/p1")
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 2, again.Quantity)

	b.line(http.MethodPost, "/api/v1/cart/p2")

	lines, env := b.list()
	require.Len(t, lines, 2)
	assert.InDelta(t, 2, env.Meta["length"], 0)
	assert.Equal(t, "12", env.Meta["total"])
	assert.Equal(t, "Mug", lines[0].Title)
	assert.Equal(t, "9", lines[0].Subtotal)
	assert.Equal(t, "available", lines[0].AvailabilityStatus)
}

func TestAdjustAndRemove(t *testing.T) {
	t.Parallel()
	b := newApp(t).browser(t)
	line := b.line(http.MethodPost, "/api/v1/cart/p1")

	rec, env := b.do(http.MethodPatch, "/api/v1/cart/"+line.ID, `{"delta":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	rec, env = b.do(http.MethodPatch, "/api/v1/cart/"+line.ID, `{"delta":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `4`, string(mustField(t, env.Data, "line", "quantity")))

	rec, _ = b.do(http.MethodPost, "/api/v1/cart/"+line.ID+"/decrease", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = b.do(http.MethodPost, "/api/v1/cart/"+line.ID+"/increase", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = b.do(http.MethodPatch, "/api/v1/cart/"+line.ID, `{"delta":-4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":true}`, string(env.Data))

	lines, _ := b.list()
	assert.Empty(t, lines)

	rec, env = b.do(http.MethodDelete, "/api/v1/cart/"+line.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "LINE_NOT_FOUND", env.Error.Code)

	l1 := b.line(http.MethodPost, "/api/v1/cart/p1")
	l2 := b.line(http.MethodPost, "/api/v1/cart/p2")

	rec, _ = b.do(http.MethodDelete, "/api/v1/cart/"+l1.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = b.do(http.MethodDelete, "/api/v1/cart", `[]`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	rec, env = b.do(http.MethodDelete, "/api/v1/cart", `["`+l2.ID+`","missing"]`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":1}`, string(env.Data))
}

func TestStockChecks(t *testing.T) {
	t.Parallel()
	a := newApp(t)
	b := a.browser(t)

	rec, env := b.do(http.MethodPost, "/api/v1/cart/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", env.Error.Code)

	b.line(http.MethodPost, "/api/v1/cart/scarce")
	rec, env = b.do(http.MethodPost, "/api/v1/cart/scarce", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "OUT_OF_STOCK", env.Error.Code)

	b.line(http.MethodPost, "/api/v1/cart/p1")
	b.line(http.MethodPost, "/api/v1/cart/p1")
	require.NoError(t, a.catalog.SetStock("p1", 1))

	lines, _ := b.list()
	status := map[string]string{}
	for _, l := range lines {
		status[l.ProductID] = l.AvailabilityStatus
	}
	assert.Equal(t, map[string]string{"scarce": "available", "p1": "unavailable"}, status)
}

func TestCartFollowsLogin(t *testing.T) {
	t.Parallel()
	a := newApp(t)
	_, err := a.users.Register(t.Context(), "ann@example.com", "ann", password)
	require.NoError(t, err)

	b := a.browser(t)
	b.line(http.MethodPost, "/api/v1/cart/p1")
	b.line(http.MethodPost, "/api/v1/cart/p1")

	rec, env := b.do(http.MethodPost, "/api/v1/auth/login", `{"login":"ann","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `0`, string(mustField(t, env.Data, "session", "cart_length")))

	lines, _ := b.list()
	require.Len(t, lines, 1)
	assert.Equal(t, "user", lines[0].Source)
	assert.Equal(t, 2, lines[0].Quantity)

	// A second device adds to the same persistent cart.
	other := a.browser(t)
	rec, _ = other.do(http.MethodPost, "/api/v1/cart/p2", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	other.line(http.MethodPost, "/api/v1/cart/p1")
	rec, _ = other.do(http.MethodPost, "/api/v1/auth/login", `{"login":"ann","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	lines, _ = b.list()
	got := map[string]int{}
	for _, l := range lines {
		got[l.ProductID] = l.Quantity
	}
	assert.Equal(t, map[string]int{"p1": 3, "p2": 1}, got)

	line := lines[0]
	rec, _ = b.do(http.MethodDelete, "/api/v1/cart/"+line.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	lines, _ = other.list()
	assert.Len(t, lines, 1)
}

func mustField(t *testing.T, raw json.RawMessage, path ...string) json.RawMessage {
	t.Helper()
	for _, key := range path {
		var obj map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &obj))
		var ok bool
		raw, ok = obj[key]
		require.True(t, ok, "missing %s", key)
	}
	return raw
}
