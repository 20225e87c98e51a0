package cart_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/catalog"
	"github.com/dmitrymomot/storefront/pkg/cookie"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

type fixture struct {
	sessions *session.Manager
	store    session.Store
	items    *cart.MemoryItemStore
	catalog  *catalog.MemoryCatalog
	resolver *cart.Resolver
}

func newFixture(t *testing.T, items cart.ItemStore) *fixture {
	t.Helper()
	return newFixtureWithStore(t, items, session.NewMemoryStore())
}

func newFixtureWithStore(t *testing.T, items cart.ItemStore, store session.Store) *fixture {
	t.Helper()
	cookies, err := cookie.New([]string{"cart-test-secret-that-is-long-enough-ok"})
	require.NoError(t, err)

	sessions := session.New(
		session.WithCookieManager(cookies),
		session.WithStore(store),
		session.WithRetrier(storage.NewRetrier(storage.Config{CASAttempts: 200})),
	)

	products := catalog.NewMemoryCatalog(
		catalog.Product{ID: "p1", Title: "Mug", Category: "kitchen", Price: decimal.RequireFromString("4.50"), AvailableQuantity: 10},
		catalog.Product{ID: "p2", Title: "Plate", Category: "kitchen", Price: decimal.RequireFromString("3.00"), AvailableQuantity: 10},
		catalog.Product{ID: "scarce", Title: "Vase", Price: decimal.RequireFromString("20"), AvailableQuantity: 1},
	)

	mem := cart.NewMemoryItemStore()
	if items == nil {
		items = mem
	}

	return &fixture{
		sessions: sessions,
		store:    store,
		items:    mem,
		catalog:  products,
		resolver: cart.NewResolver(sessions, items, products, cart.WithConfig(cart.Config{MaxLineQuantity: 5})),
	}
}

func (f *fixture) anonymous(t *testing.T) *session.Session {
	t.Helper()
	sess, err := f.sessions.Create(context.Background())
	require.NoError(t, err)
	return sess
}

func (f *fixture) bound(t *testing.T, userID uuid.UUID) *session.Session {
	t.Helper()
	sess, err := f.sessions.BindUser(context.Background(), f.anonymous(t), userID)
	require.NoError(t, err)
	return sess
}

func (f *fixture) reload(t *testing.T, sess *session.Session) *session.Session {
	t.Helper()
	got, err := f.sessions.Load(context.Background(), sess.ID)
	require.NoError(t, err)
	return got
}

func quantities(t *testing.T, items cart.ItemStore, userID uuid.UUID) map[string]int {
	t.Helper()
	list, err := items.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	got := make(map[string]int, len(list))
	for _, it := range list {
		got[it.ProductID] = it.Quantity
	}
	return got
}

func TestResolver_AddItem_Anonymous(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	sess := f.anonymous(t)

	first, err := f.resolver.AddItem(ctx, sess, "p1")
	require.NoError(t, err)
	assert.Equal(t, cart.SourceSession, first.Source)
	assert.Equal(t, 1, first.Quantity)

	second, err := f.resolver.AddItem(ctx, sess, "p1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same product accumulates on one line")
	assert.Equal(t, 2, second.Quantity)

	stored := f.reload(t, sess)
	require.Len(t, stored.CartLines, 1)
	assert.Equal(t, 2, stored.CartLines[0].Quantity)
}

func TestResolver_AddItem_Checks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, bound := range []bool{false, true} {
		f := newFixture(t, nil)
		sess := f.anonymous(t)
		if bound {
			sess = f.bound(t, uuid.New())
		}

		_, err := f.resolver.AddItem(ctx, sess, "scarce")
		require.NoError(t, err)
		_, err = f.resolver.AddItem(ctx, sess, "scarce")
		assert.ErrorIs(t, err, cart.ErrOutOfStock, "bound=%v", bound)

		_, err = f.resolver.AddItem(ctx, sess, "missing")
		assert.ErrorIs(t, err, catalog.ErrProductNotFound, "bound=%v", bound)

		_, err = f.resolver.AddItem(ctx, sess, "")
		assert.ErrorIs(t, err, cart.ErrInvalidProductID)

		for range 5 {
			_, err = f.resolver.AddItem(ctx, sess, "p1")
			require.NoError(t, err)
		}
		_, err = f.resolver.AddItem(ctx, sess, "p1")
		assert.ErrorIs(t, err, cart.ErrQuantityLimit, "bound=%v", bound)
	}
}

func TestResolver_AddItem_BoundUsesPersistentCart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	uid := uuid.New()
	sess := f.bound(t, uid)

	line, err := f.resolver.AddItem(ctx, sess, "p1")
	require.NoError(t, err)
	assert.Equal(t, cart.SourceUser, line.Source)
	assert.Equal(t, map[string]int{"p1": 1}, quantities(t, f.items, uid))
	assert.Empty(t, f.reload(t, sess).CartLines)
}

func TestResolver_ConcurrentAdds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("bound user", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		uid := uuid.New()
		sess := f.bound(t, uid)

		var wg sync.WaitGroup
		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.resolver.AddItem(ctx, sess, "p1")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, map[string]int{"p1": 2}, quantities(t, f.items, uid))
	})

	t.Run("anonymous session", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		sess := f.anonymous(t)

		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.resolver.AddItem(ctx, sess, "p2")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		stored := f.reload(t, sess)
		require.Len(t, stored.CartLines, 1)
		assert.Equal(t, 4, stored.CartLines[0].Quantity)
	})
}

func TestResolver_ListItems(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	sess := f.anonymous(t)

	for _, pid := range []string{"p1", "p1", "p2"} {
		_, err := f.resolver.AddItem(ctx, sess, pid)
		require.NoError(t, err)
	}

	view, err := f.resolver.ListItems(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, 2, view.Length)
	assert.Equal(t, "Mug", view.Lines[0].Title)
	assert.Equal(t, cart.Available, view.Lines[0].AvailabilityStatus)
	assert.True(t, decimal.RequireFromString("9").Equal(view.Lines[0].Subtotal))
	assert.True(t, decimal.RequireFromString("12").Equal(view.Total))

	t.Run("availability follows stock without cart writes", func(t *testing.T) {
		before := f.reload(t, sess)
		require.NoError(t, f.catalog.SetStock("p1", 1))

		view, err := f.resolver.ListItems(ctx, sess)
		require.NoError(t, err)
		assert.Equal(t, cart.Unavailable, view.Lines[0].AvailabilityStatus)
		assert.Equal(t, 2, view.Lines[0].Quantity)
		assert.Equal(t, cart.Available, view.Lines[1].AvailabilityStatus)

		assert.Equal(t, before.Version, f.reload(t, sess).Version)
	})

	t.Run("vanished product is unavailable", func(t *testing.T) {
		other := f.anonymous(t)
		f.catalog.Put(catalog.Product{ID: "temp", AvailableQuantity: 3})
		_, err := f.resolver.AddItem(ctx, other, "temp")
		require.NoError(t, err)

		products := catalog.NewMemoryCatalog()
		resolver := cart.NewResolver(f.sessions, f.items, products)
		view, err := resolver.ListItems(ctx, other)
		require.NoError(t, err)
		require.Len(t, view.Lines, 1)
		assert.Equal(t, cart.Unavailable, view.Lines[0].AvailabilityStatus)
		assert.True(t, view.Total.IsZero())
	})
}

func TestResolver_Increment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, bound := range []bool{false, true} {
		f := newFixture(t, nil)
		sess := f.anonymous(t)
		if bound {
			sess = f.bound(t, uuid.New())
		}

		line, err := f.resolver.AddItem(ctx, sess, "p1")
		require.NoError(t, err)

		_, _, err = f.resolver.Increment(ctx, sess, line.ID, 0)
		assert.ErrorIs(t, err, cart.ErrInvalidDelta)

		got, removed, err := f.resolver.Increment(ctx, sess, line.ID, 2)
		require.NoError(t, err)
		assert.False(t, removed)
		assert.Equal(t, 3, got.Quantity)

		_, _, err = f.resolver.Increment(ctx, sess, line.ID, 20)
		assert.ErrorIs(t, err, cart.ErrQuantityLimit, "bound=%v", bound)

		require.NoError(t, f.catalog.SetStock("p1", 3))
		_, _, err = f.resolver.Increment(ctx, sess, line.ID, 1)
		assert.ErrorIs(t, err, cart.ErrOutOfStock, "bound=%v", bound)

		got, removed, err = f.resolver.Increment(ctx, sess, line.ID, -1)
		require.NoError(t, err)
		assert.False(t, removed)
		assert.Equal(t, 2, got.Quantity)

		_, removed, err = f.resolver.Increment(ctx, sess, line.ID, -2)
		require.NoError(t, err)
		assert.True(t, removed, "last unit removes the line")

		view, err := f.resolver.ListItems(ctx, sess)
		require.NoError(t, err)
		assert.Empty(t, view.Lines)

		_, _, err = f.resolver.Increment(ctx, sess, line.ID, 1)
		assert.ErrorIs(t, err, cart.ErrLineNotFound)
	}
}

func TestResolver_LinesOfOtherUsersAreInvisible(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	alice := f.bound(t, uuid.New())
	bob := f.bound(t, uuid.New())

	line, err := f.resolver.AddItem(ctx, alice, "p1")
	require.NoError(t, err)

	_, _, err = f.resolver.Increment(ctx, bob, line.ID, 1)
	assert.ErrorIs(t, err, cart.ErrLineNotFound)
	assert.ErrorIs(t, f.resolver.Remove(ctx, bob, line.ID), cart.ErrLineNotFound)
	assert.ErrorIs(t, f.resolver.Remove(ctx, bob, "not-a-uuid"), cart.ErrLineNotFound)
}

func TestResolver_Remove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, bound := range []bool{false, true} {
		f := newFixture(t, nil)
		sess := f.anonymous(t)
		if bound {
			sess = f.bound(t, uuid.New())
		}

		l1, err := f.resolver.AddItem(ctx, sess, "p1")
		require.NoError(t, err)
		l2, err := f.resolver.AddItem(ctx, sess, "p2")
		require.NoError(t, err)
		l3, err := f.resolver.AddItem(ctx, sess, "scarce")
		require.NoError(t, err)

		require.NoError(t, f.resolver.Remove(ctx, sess, l1.ID))
		assert.ErrorIs(t, f.resolver.Remove(ctx, sess, l1.ID), cart.ErrLineNotFound)

		_, err = f.resolver.RemoveMany(ctx, sess, nil)
		assert.ErrorIs(t, err, cart.ErrNoLines)

		n, err := f.resolver.RemoveMany(ctx, sess, []string{l2.ID, l3.ID, "unknown"})
		require.NoError(t, err)
		assert.Equal(t, 2, n, "bound=%v", bound)

		view, err := f.resolver.ListItems(ctx, sess)
		require.NoError(t, err)
		assert.Zero(t, view.Length)
	}
}

func TestResolver_SessionBoundConcurrently(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	stale := f.anonymous(t)
	uid := uuid.New()

	_, err := f.sessions.BindUser(ctx, stale, uid)
	require.NoError(t, err)

	// The request still holds the anonymous copy loaded before login.
	line, err := f.resolver.AddItem(ctx, stale, "p1")
	require.NoError(t, err)
	assert.Equal(t, cart.SourceUser, line.Source)
	assert.Equal(t, map[string]int{"p1": 1}, quantities(t, f.items, uid))
}

func TestResolver_DeleteUserCart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	uid := uuid.New()
	sess := f.bound(t, uid)

	for _, pid := range []string{"p1", "p2"} {
		_, err := f.resolver.AddItem(ctx, sess, pid)
		require.NoError(t, err)
	}

	n, err := f.resolver.DeleteUserCart(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, quantities(t, f.items, uid))
}
