package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/storedesk/internal/database/testutil"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func storesUnderTest(t *testing.T, clock *fakeClock) map[string]Store {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	return map[string]Store{
		"database": NewDatabaseStore(db, WithClock(clock.Now)),
		"memory":   NewMemoryStore(WithClock(clock.Now)),
	}
}

func TestSetGetDelete(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t, newClock()) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, "session", []byte("v1"), 0))
			require.NoError(t, store.Set(ctx, "session", []byte("v2"), 0))

			value, ok, err := store.Get(ctx, "session")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, []byte("v2"), value)

			require.NoError(t, store.Delete(ctx, "session", "missing"))
			_, ok, err = store.Get(ctx, "session")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	for name, store := range storesUnderTest(t, clock) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, "short-"+name, []byte("x"), time.Minute))

			_, ok, err := store.Get(ctx, "short-"+name)
			require.NoError(t, err)
			require.True(t, ok)

			clock.Advance(2 * time.Minute)
			_, ok, err = store.Get(ctx, "short-"+name)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestIncrementWithTTL(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	for name, store := range storesUnderTest(t, clock) {
		t.Run(name, func(t *testing.T) {
			key := "rate-" + name
			count, ttl, err := store.IncrementWithTTL(ctx, key, time.Minute)
			require.NoError(t, err)
			require.EqualValues(t, 1, count)
			require.Equal(t, time.Minute, ttl)

			clock.Advance(10 * time.Second)
			count, ttl, err = store.IncrementWithTTL(ctx, key, time.Minute)
			require.NoError(t, err)
			require.EqualValues(t, 2, count)
			require.Equal(t, 50*time.Second, ttl)

			clock.Advance(time.Minute)
			count, _, err = store.IncrementWithTTL(ctx, key, time.Minute)
			require.NoError(t, err)
			require.EqualValues(t, 1, count)
		})
	}
}

func TestDatabasePurge(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := NewDatabaseStore(db, WithClock(clock.Now))

	require.NoError(t, store.Set(ctx, "keep", []byte("1"), 0))
	require.NoError(t, store.Set(ctx, "drop", []byte("1"), time.Second))
	clock.Advance(time.Minute)

	removed, err := store.Purge(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, ok, err := store.Get(ctx, "keep")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestNilDatabaseStore(t *testing.T) {
	var store *DatabaseStore
	_, _, err := store.Get(context.Background(), "k")
	require.Error(t, err)
	require.Nil(t, NewDatabaseStore(nil))
}
