package position

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

// exerciseStore runs the shared contract against any backend using clock.
func exerciseStore(t *testing.T, store Store, clock *fakeClock) {
	t.Helper()
	ctx := context.Background()

	_, found, err := store.Get(ctx, "a.srt")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put(ctx, "a.srt", 5000))
	ms, found, err := store.Get(ctx, "a.srt")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(5000), ms)

	// last writer wins
	require.NoError(t, store.Put(ctx, "a.srt", 7000))
	ms, _, err = store.Get(ctx, "a.srt")
	require.NoError(t, err)
	assert.Equal(t, int64(7000), ms)

	// keys are used verbatim
	require.NoError(t, store.Put(ctx, "My Show/ep 1 (final).srt", 1))
	ms, found, err = store.Get(ctx, "My Show/ep 1 (final).srt")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(1), ms)

	require.NoError(t, store.Delete(ctx, "a.srt"))
	_, found, err = store.Get(ctx, "a.srt")
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, store.Delete(ctx, "never-written.srt"))

	if clock == nil {
		return
	}

	require.NoError(t, store.Put(ctx, "b.srt", 42))
	clock.Advance(DefaultTTL - time.Second)
	_, found, err = store.Get(ctx, "b.srt")
	require.NoError(t, err)
	assert.True(t, found)

	clock.Advance(time.Second)
	_, found, err = store.Get(ctx, "b.srt")
	require.NoError(t, err)
	assert.False(t, found, "expired record must read as not found")

	require.ErrorIs(t, store.Put(ctx, "", 1), ErrEmptyKey)
}

func TestMemoryStore(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now))
	exerciseStore(t, store, clock)
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now), WithTTL(time.Hour))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "old.srt", 1))
	clock.Advance(30 * time.Minute)
	require.NoError(t, store.Put(ctx, "new.srt", 2))

	n, err := store.DeleteExpired(ctx, clock.now.Add(45*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, found, err := store.Get(ctx, "new.srt")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, Settings{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open(ctx, Settings{Backend: "", DBPath: t.TempDir() + "/positions.db", TTL: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	sqlite, ok := store.(*SQLiteStore)
	require.True(t, ok)
	assert.Equal(t, time.Hour, sqlite.opts.ttl)

	_, err = Open(ctx, Settings{Backend: "etcd"})
	require.Error(t, err)
}
