package cart_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

// flakyItems fails Merge for one product while armed.
type flakyItems struct {
	*cart.MemoryItemStore
	failProduct string
	armed       atomic.Bool
}

func (f *flakyItems) Merge(ctx context.Context, userID uuid.UUID, productID, lineID string, delta int) (cart.Item, bool, error) {
	if f.armed.Load() && productID == f.failProduct {
		return cart.Item{}, false, storage.ErrUnavailable
	}
	return f.MemoryItemStore.Merge(ctx, userID, productID, lineID, delta)
}

// flakySessions fails the next failUpdates session writes.
type flakySessions struct {
	*session.MemoryStore
	failUpdates atomic.Int32
}

func (s *flakySessions) Update(ctx context.Context, sess *session.Session) error {
	if s.failUpdates.Add(-1) >= 0 {
		return storage.ErrUnavailable
	}
	return s.MemoryStore.Update(ctx, sess)
}

// stage puts anonymous lines on a session and binds it to userID.
func stage(t *testing.T, f *fixture, userID uuid.UUID, products ...string) *session.Session {
	t.Helper()
	ctx := context.Background()
	sess := f.anonymous(t)
	for _, pid := range products {
		_, err := f.resolver.AddItem(ctx, sess, pid)
		require.NoError(t, err)
	}
	bound, err := f.sessions.BindUser(ctx, sess, userID)
	require.NoError(t, err)
	return bound
}

func TestResolver_MergeOnBind_Additive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	uid := uuid.New()

	// Persistent cart {p1:2} from another device.
	other := f.bound(t, uid)
	for range 2 {
		_, err := f.resolver.AddItem(ctx, other, "p1")
		require.NoError(t, err)
	}

	sess := stage(t, f, uid, "p1", "p2")

	report, err := f.resolver.MergeOnBind(ctx, sess, uid)
	require.NoError(t, err)
	assert.Len(t, report.Merged, 2)
	assert.Empty(t, report.Skipped)
	assert.False(t, report.Partial())

	assert.Equal(t, map[string]int{"p1": 3, "p2": 1}, quantities(t, f.items, uid))
	assert.Empty(t, f.reload(t, sess).CartLines)

	t.Run("second merge is a no-op", func(t *testing.T) {
		again, err := f.resolver.MergeOnBind(ctx, sess, uid)
		require.NoError(t, err)
		assert.Empty(t, again.Merged)
		assert.Equal(t, map[string]int{"p1": 3, "p2": 1}, quantities(t, f.items, uid))
	})
}

func TestResolver_MergeOnBind_Scenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	uid := uuid.New()

	sess := stage(t, f, uid, "p1", "p1")

	_, err := f.resolver.MergeOnBind(ctx, sess, uid)
	require.NoError(t, err)

	sess = f.reload(t, sess)
	assert.Empty(t, sess.CartLines)

	view, err := f.resolver.ListItems(ctx, sess)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.Equal(t, cart.SourceUser, view.Lines[0].Source)
}

func TestResolver_MergeOnBind_SkipsUnavailableLines(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	uid := uuid.New()

	// Persistent cart already holds the only unit of "scarce".
	other := f.bound(t, uid)
	_, err := f.resolver.AddItem(ctx, other, "scarce")
	require.NoError(t, err)

	f.catalog.Put(f.mustProduct(t, "p1", "gone"))
	sess := stage(t, f, uid, "scarce", "gone", "p2")
	require.NoError(t, f.catalog.SetStock("gone", 0))

	report, err := f.resolver.MergeOnBind(ctx, sess, uid)
	require.NoError(t, err)
	assert.True(t, report.Partial())
	require.Len(t, report.Merged, 1)
	assert.Equal(t, "p2", report.Merged[0].ProductID)
	assert.ElementsMatch(t, []cart.MergeWarning{
		{ProductID: "scarce", Quantity: 1, Reason: cart.ReasonOutOfStock},
		{ProductID: "gone", Quantity: 1, Reason: cart.ReasonOutOfStock},
	}, report.Skipped)

	assert.Equal(t, map[string]int{"scarce": 1, "p2": 1}, quantities(t, f.items, uid))
	assert.Empty(t, f.reload(t, sess).CartLines)
}

func TestResolver_MergeOnBind_ProductRemovedFromCatalog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	uid := uuid.New()

	f.catalog.Put(f.mustProduct(t, "p1", "retired"))
	sess := stage(t, f, uid, "retired")

	resolver := cart.NewResolver(f.sessions, f.items, emptyCatalog())
	report, err := resolver.MergeOnBind(ctx, sess, uid)
	require.NoError(t, err)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, cart.ReasonProductNotFound, report.Skipped[0].Reason)
}

func TestResolver_MergeOnBind_Guards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)

	anon := f.anonymous(t)
	_, err := f.resolver.MergeOnBind(ctx, anon, uuid.New())
	assert.ErrorIs(t, err, cart.ErrSessionNotBound)

	bound := f.bound(t, uuid.New())
	_, err = f.resolver.MergeOnBind(ctx, bound, uuid.New())
	assert.ErrorIs(t, err, session.ErrAlreadyBoundToOtherUser)
}

func TestResolver_MergeOnBind_ResumesAfterFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	flaky := &flakyItems{MemoryItemStore: cart.NewMemoryItemStore(), failProduct: "p2"}
	f := newFixture(t, flaky)
	f.items = flaky.MemoryItemStore
	uid := uuid.New()

	sess := stage(t, f, uid, "p1", "p2")

	flaky.armed.Store(true)
	report, err := f.resolver.MergeOnBind(ctx, sess, uid)
	require.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Len(t, report.Merged, 1)

	left := f.reload(t, sess)
	require.Len(t, left.CartLines, 1, "unmerged line stays on the session")
	assert.Equal(t, "p2", left.CartLines[0].ProductID)
	assert.Equal(t, map[string]int{"p1": 1}, quantities(t, f.items, uid))

	// The next cart operation on the bound session finishes the merge.
	flaky.armed.Store(false)
	view, err := f.resolver.ListItems(ctx, left)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Length)
	assert.Equal(t, map[string]int{"p1": 1, "p2": 1}, quantities(t, f.items, uid))
	assert.Empty(t, f.reload(t, sess).CartLines)
}

func TestResolver_MergeOnBind_SessionWriteFailsAfterIncrement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sessions := &flakySessions{MemoryStore: session.NewMemoryStore()}
	f := newFixtureWithStore(t, nil, sessions)
	uid := uuid.New()

	sess := stage(t, f, uid, "p1")

	// The persistent increment lands, dropping the line from the session does not.
	sessions.failUpdates.Store(1)
	_, err := f.resolver.MergeOnBind(ctx, sess, uid)
	require.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Equal(t, map[string]int{"p1": 1}, quantities(t, f.items, uid))
	require.Len(t, f.reload(t, sess).CartLines, 1)

	report, err := f.resolver.MergeOnBind(ctx, sess, uid)
	require.NoError(t, err)
	require.Len(t, report.Merged, 1)
	assert.Equal(t, 1, report.Merged[0].Quantity)
	assert.Equal(t, map[string]int{"p1": 1}, quantities(t, f.items, uid))
	assert.Empty(t, f.reload(t, sess).CartLines)

	t.Run("replay skips the availability check", func(t *testing.T) {
		other := stage(t, f, uid, "scarce")
		sessions.failUpdates.Store(1)
		_, err := f.resolver.MergeOnBind(ctx, other, uid)
		require.ErrorIs(t, err, storage.ErrUnavailable)

		report, err := f.resolver.MergeOnBind(ctx, other, uid)
		require.NoError(t, err)
		assert.Empty(t, report.Skipped)
		assert.Equal(t, map[string]int{"p1": 1, "scarce": 1}, quantities(t, f.items, uid))
	})
}
