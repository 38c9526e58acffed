package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/catalogrank/backend/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return mr, NewRedisCacheFromClient(client, "")
}

func TestRedisCache_SetAndGet(t *testing.T) {
	mr, cache := setupRedis(t)
	ctx := context.Background()

	payload := []byte(`[{"id":"b","score":0.5}]`)
	require.NoError(t, cache.Set(ctx, "similar:a:6", payload, time.Minute))

	got, err := cache.Get(ctx, "similar:a:6")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// keys are namespaced
	assert.True(t, mr.Exists("catalogrank:similar:a:6"))
	assert.Equal(t, time.Minute, mr.TTL("catalogrank:similar:a:6"))
}

func TestRedisCache_Miss(t *testing.T) {
	_, cache := setupRedis(t)

	_, err := cache.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestRedisCache_Expiry(t *testing.T) {
	mr, cache := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Second))
	mr.FastForward(2 * time.Second)

	_, err := cache.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestRedisCache_ExistsAndDelete(t *testing.T) {
	_, cache := setupRedis(t)
	ctx := context.Background()

	exists, err := cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))

	exists, err = cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, cache.Delete(ctx, "k"))

	exists, err = cache.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisCache_ServerDown(t *testing.T) {
	mr, cache := setupRedis(t)
	mr.Close()

	_, err := cache.Get(context.Background(), "k")
	assert.True(t, errors.Is(err, domain.ErrCacheUnavailable), "err = %v", err)
	assert.False(t, errors.Is(err, domain.ErrCacheMiss))
}

func TestNewRedisCache(t *testing.T) {
	t.Run("connects with a url", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)

		cache, err := NewRedisCache(context.Background(), RedisConfig{URL: "redis://" + mr.Addr() + "/0", Prefix: "test:"})
		require.NoError(t, err)
		t.Cleanup(func() { cache.Close() })

		require.NoError(t, cache.Set(context.Background(), "k", []byte("v"), time.Minute))
		assert.True(t, mr.Exists("test:k"))
	})

	t.Run("rejects invalid url", func(t *testing.T) {
		_, err := NewRedisCache(context.Background(), RedisConfig{URL: "not-a-url"})
		assert.Error(t, err)
	})

	t.Run("reports unreachable server", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		addr := mr.Addr()
		mr.Close()

		_, err = NewRedisCache(context.Background(), RedisConfig{URL: "redis://" + addr})
		assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
	})
}
