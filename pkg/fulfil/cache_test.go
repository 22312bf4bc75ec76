package fulfil_test

import (
	"context"
	"testing"
	"time"

	"github.com/fivetwenty-io/fulfil-client/pkg/fulfil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	t.Parallel()

	cache := fulfil.NewMemoryCache(10)
	ctx := context.Background()

	entry := &fulfil.CacheEntry{
		Data:      []byte("42"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
		ETag:      "abc123",
	}

	err := cache.Set(ctx, "count.sale.sale.x", entry)
	require.NoError(t, err)

	retrieved, err := cache.Get(ctx, "count.sale.sale.x")
	require.NoError(t, err)
	assert.Equal(t, entry.Data, retrieved.Data)
	assert.Equal(t, entry.ETag, retrieved.ETag)
}

func TestMemoryCache_GetNonExistent(t *testing.T) {
	t.Parallel()

	cache := fulfil.NewMemoryCache(10)

	_, err := cache.Get(context.Background(), "nonexistent")
	require.ErrorIs(t, err, fulfil.ErrKeyNotFound)
}

func TestMemoryCache_GetExpired(t *testing.T) {
	t.Parallel()

	cache := fulfil.NewMemoryCache(10)
	ctx := context.Background()

	err := cache.Set(ctx, "key1", &fulfil.CacheEntry{
		Data:      []byte("1"),
		ExpiresAt: time.Now().Add(-1 * time.Hour),
	})
	require.NoError(t, err)

	_, err = cache.Get(ctx, "key1")
	require.ErrorIs(t, err, fulfil.ErrEntryExpired)
	assert.False(t, cache.Has(ctx, "key1"))
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	t.Parallel()

	cache := fulfil.NewMemoryCache(10)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, cache.Set(ctx, key, &fulfil.CacheEntry{Data: []byte(key)}))
	}

	require.NoError(t, cache.Delete(ctx, "a"))
	assert.False(t, cache.Has(ctx, "a"))
	assert.True(t, cache.Has(ctx, "b"))

	require.NoError(t, cache.Clear(ctx))
	assert.False(t, cache.Has(ctx, "b"))
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryCache_EvictsOldest(t *testing.T) {
	t.Parallel()

	cache := fulfil.NewMemoryCache(2)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, cache.Set(ctx, key, &fulfil.CacheEntry{Data: []byte(key)}))
	}

	assert.False(t, cache.Has(ctx, "a"))
	assert.True(t, cache.Has(ctx, "b"))
	assert.True(t, cache.Has(ctx, "c"))
	assert.Equal(t, 2, cache.Len())
}

func TestMemoryCache_Cleanup(t *testing.T) {
	t.Parallel()

	cache := fulfil.NewMemoryCache(10)
	ctx := context.Background()

	_ = cache.Set(ctx, "expired", &fulfil.CacheEntry{Data: []byte("x"), ExpiresAt: time.Now().Add(-time.Hour)})
	_ = cache.Set(ctx, "valid", &fulfil.CacheEntry{Data: []byte("y"), ExpiresAt: time.Now().Add(time.Hour)})

	cache.Cleanup()

	assert.True(t, cache.Has(ctx, "valid"))
	assert.Equal(t, 1, cache.Len())
}

func TestCacheFactory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *fulfil.CacheConfig
		wantErr error
		check   func(t *testing.T, cache fulfil.Cache)
	}{
		{
			name:   "default",
			config: nil,
			check: func(t *testing.T, cache fulfil.Cache) {
				assert.IsType(t, &fulfil.MemoryCache{}, cache)
			},
		},
		{
			name:   "memory",
			config: &fulfil.CacheConfig{Type: fulfil.CacheTypeMemory, Memory: &fulfil.MemoryCacheConfig{MaxSize: 5}},
			check: func(t *testing.T, cache fulfil.Cache) {
				assert.IsType(t, &fulfil.MemoryCache{}, cache)
			},
		},
		{
			name:    "none",
			config:  &fulfil.CacheConfig{Type: fulfil.CacheTypeNone},
			wantErr: fulfil.ErrCacheDisabled,
		},
		{
			name:    "nats without config",
			config:  &fulfil.CacheConfig{Type: fulfil.CacheTypeNATS},
			wantErr: fulfil.ErrNATSConfigRequired,
		},
		{
			name:    "unknown",
			config:  &fulfil.CacheConfig{Type: "redis"},
			wantErr: fulfil.ErrUnsupportedCacheType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cache, err := fulfil.NewCacheFromConfig(tt.config)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			tt.check(t, cache)
		})
	}
}

func TestCacheConfig_TTL(t *testing.T) {
	t.Parallel()

	var empty *fulfil.CacheConfig
	assert.Equal(t, 5*time.Minute, empty.TTL())
	assert.Equal(t, 5*time.Minute, fulfil.DefaultCacheConfig().TTL())
	assert.Equal(t, 10*time.Minute, (&fulfil.CacheConfig{Options: &fulfil.CacheOptions{TTL: 10 * time.Minute}}).TTL())
}

func TestNewNATSKVCache_RequiresBucket(t *testing.T) {
	t.Parallel()

	_, err := fulfil.NewNATSKVCache(&fulfil.NATSKVConfig{URL: "nats://127.0.0.1:4222"})
	require.ErrorIs(t, err, fulfil.ErrNATSConfigRequired)

	_, err = fulfil.NewNATSKVCache(nil)
	require.ErrorIs(t, err, fulfil.ErrNATSConfigRequired)
}
