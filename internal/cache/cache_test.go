package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/nrbrt02/fast-shopping/internal/config"
)

type sample struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestKey(t *testing.T) {
	assert.Equal(t, "orders:42", Key("orders", 42))
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Minute)

	require.NoError(t, SetJSON(ctx, store, "products:1", sample{ID: 1, Name: "mug"}, 0))
	got, err := GetJSON[sample](ctx, store, "products:1")
	require.NoError(t, err)
	assert.Equal(t, &sample{ID: 1, Name: "mug"}, got)

	_, err = GetJSON[sample](ctx, store, "products:2")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, store.Set(ctx, "products:3", []byte("{"), 0))
	_, err = GetJSON[sample](ctx, store, "products:3")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)

	_, err = GetJSON[sample](ctx, nil, "products:1")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, SetJSON(ctx, nil, "products:1", sample{}, 0))
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemory(time.Minute)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Hour))

	now = now.Add(2 * time.Minute)
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
	v, err := store.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", string(v))

	require.NoError(t, store.Delete(ctx, "b"))
	_, err = store.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	store := Noop()
	require.NoError(t, store.Set(ctx, "a", []byte("1"), 0))
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNewStoreDrivers(t *testing.T) {
	for driver, want := range map[string]any{"noop": noopStore{}, "memory": &Memory{}, "redis": &redisStore{}} {
		t.Run(driver, func(t *testing.T) {
			var cfg config.Config
			cfg.Cache.Driver = driver
			cfg.Cache.Redis.Addr = "127.0.0.1:6379"

			store, err := NewStore(fxtest.NewLifecycle(t), cfg, zaptest.NewLogger(t))
			require.NoError(t, err)
			assert.IsType(t, want, store)
		})
	}

	var cfg config.Config
	cfg.Cache.Driver = "memcached"
	_, err := NewStore(fxtest.NewLifecycle(t), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestRedisKeyPrefix(t *testing.T) {
	s := &redisStore{prefix: "fastshop:"}
	assert.Equal(t, "fastshop:orders:1", s.key("orders:1"))
}
