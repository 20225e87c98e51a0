package devices_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/devices"
	"github.com/dmitrymomot/storefront/pkg/session"
)

var base = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, store *session.MemoryStore, userID uuid.UUID, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := range n {
		id := uuid.NewString()
		require.NoError(t, store.Create(context.Background(), &session.Session{
			ID:        id,
			UserID:    &userID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			ExpiresAt: base.Add(24 * time.Hour),
		}))
		ids = append(ids, id)
	}
	return ids
}

func newEnforcer(store *session.MemoryStore, now time.Time) *devices.Enforcer {
	return devices.NewEnforcer(store, devices.Config{MaxDevices: 3}, devices.WithClock(func() time.Time { return now }))
}

func TestEnforcer_CapAndEvictOldest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := session.NewMemoryStore()
	uid := uuid.New()
	ids := seed(t, store, uid, 3)
	e := newEnforcer(store, base.Add(time.Hour))

	require.ErrorIs(t, e.CheckAndAdmit(ctx, uid), devices.ErrTooManyDevices)

	n, err := e.EvictOldest(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = store.Get(ctx, ids[0])
	assert.ErrorIs(t, err, session.ErrSessionNotFound, "the earliest created session goes first")

	require.NoError(t, e.CheckAndAdmit(ctx, uid))

	// The admitted login adds a session; the user is back at exactly the cap.
	seed(t, store, uid, 1)
	count, err := store.CountActiveByUser(ctx, uid, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestEnforcer_ExpiredSessionsDoNotCount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := session.NewMemoryStore()
	uid := uuid.New()
	ids := seed(t, store, uid, 3)

	require.NoError(t, store.Touch(ctx, ids[1], base.Add(time.Minute)))
	e := newEnforcer(store, base.Add(time.Hour))

	assert.NoError(t, e.CheckAndAdmit(ctx, uid))

	active, err := e.ActiveSessions(ctx, uid)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, ids[0], active[0].ID)
	assert.Equal(t, ids[2], active[1].ID)
}

func TestEnforcer_EvictAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := session.NewMemoryStore()
	uid, other := uuid.New(), uuid.New()
	seed(t, store, uid, 3)
	seed(t, store, other, 1)
	e := newEnforcer(store, base)

	n, err := e.EvictAll(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	total, _, _ := store.Stats()
	assert.Equal(t, 1, total, "other users keep their sessions")
}

func TestEnforcer_EvictionIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnforcer(session.NewMemoryStore(), base)
	uid := uuid.New()

	n, err := e.EvictOldest(ctx, uid)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = e.EvictAll(ctx, uid)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewEnforcer_DefaultCap(t *testing.T) {
	t.Parallel()
	e := devices.NewEnforcer(session.NewMemoryStore(), devices.Config{})
	assert.Equal(t, 3, e.MaxDevices())
}
