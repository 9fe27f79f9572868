package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStateStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStateStore(client, ttl, nil), mr
}

func TestRedisStateStoreRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Hour)
	ctx := context.Background()

	step := SelectingDate{ServiceID: uuid.New(), Year: 2026, Month: time.March}
	require.NoError(t, store.Save(ctx, 42, step))

	loaded, err := store.Load(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, step, loaded)
}

func TestRedisStateStoreMissingSessionIsIdle(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Hour)

	step, err := store.Load(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, Idle{}, step)
}

func TestRedisStateStoreExpiry(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 42, SelectingTenant{}))
	mr.FastForward(2 * time.Minute)

	step, err := store.Load(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, Idle{}, step, "an expired session behaves like a fresh one")
}

func TestRedisStateStoreSavingIdleClears(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 42, SelectingTenant{}))
	require.NoError(t, store.Save(ctx, 42, Idle{}))

	assert.False(t, mr.Exists("chat_state:42"))
}

func TestRedisStateStoreUndecodableStateIsIdle(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Hour)

	require.NoError(t, mr.Set("chat_state:42", "SomethingFromTheFuture_1_2"))

	step, err := store.Load(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, Idle{}, step)
}

func TestMemoryStateStore(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	step, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Idle{}, step)

	want := SettingWorkTime{EmployeeID: uuid.New(), Weekday: time.Friday}
	require.NoError(t, store.Save(ctx, 1, want))

	loaded, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, want, loaded)

	require.NoError(t, store.Clear(ctx, 1))
	loaded, err = store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Idle{}, loaded)
}
