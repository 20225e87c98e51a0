package cart_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/cart"
)

func TestMemoryItemStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := cart.NewMemoryItemStore()
	uid := uuid.New()

	t.Run("increment upserts one row per product", func(t *testing.T) {
		a, err := s.Increment(ctx, uid, "p1", 1)
		require.NoError(t, err)
		b, err := s.Increment(ctx, uid, "p1", 2)
		require.NoError(t, err)
		assert.Equal(t, a.ID, b.ID)
		assert.Equal(t, 3, b.Quantity)

		_, err = s.Increment(ctx, uid, "p1", 0)
		assert.ErrorIs(t, err, cart.ErrInvalidDelta)

		list, err := s.ListByUser(ctx, uid)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("adjust deletes at zero", func(t *testing.T) {
		it, err := s.GetByProduct(ctx, uid, "p1")
		require.NoError(t, err)

		it, removed, err := s.Adjust(ctx, it.ID, -1)
		require.NoError(t, err)
		assert.False(t, removed)
		assert.Equal(t, 2, it.Quantity)

		_, removed, err = s.Adjust(ctx, it.ID, -5)
		require.NoError(t, err)
		assert.True(t, removed)

		_, err = s.GetByProduct(ctx, uid, "p1")
		assert.ErrorIs(t, err, cart.ErrLineNotFound)
		_, _, err = s.Adjust(ctx, it.ID, 1)
		assert.ErrorIs(t, err, cart.ErrLineNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		it, err := s.Increment(ctx, uid, "p2", 1)
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, it.ID))
		assert.ErrorIs(t, s.Delete(ctx, it.ID), cart.ErrLineNotFound)

		_, err = s.Increment(ctx, uid, "p3", 1)
		require.NoError(t, err)
		_, err = s.Increment(ctx, uuid.New(), "p3", 1)
		require.NoError(t, err)

		n, err := s.DeleteByUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("merge applies each line once", func(t *testing.T) {
		owner := uuid.New()
		it, applied, err := s.Merge(ctx, owner, "p1", "line-a", 2)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, 2, it.Quantity)

		it, applied, err = s.Merge(ctx, owner, "p1", "line-a", 2)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, 2, it.Quantity)

		it, applied, err = s.Merge(ctx, owner, "p1", "line-b", 1)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, 3, it.Quantity)
		assert.Equal(t, []string{"line-a", "line-b"}, it.MergedLines)

		_, _, err = s.Merge(ctx, owner, "p1", "line-c", 0)
		assert.ErrorIs(t, err, cart.ErrInvalidDelta)
	})
}
