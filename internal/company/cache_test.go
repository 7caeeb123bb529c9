package company

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, ok := cache.Get(ctx, 1)
	require.False(t, ok)

	profile := Profile{
		OrgID: 1,
		Name:  "Meridian Traders",
		GSTIN: "29ABCDE1234F1Z5",
		Bank:  BankDetails{AccountNo: "1234567890", IFSC: "HDFC0000001"},
	}
	require.NoError(t, cache.Set(ctx, profile))

	got, ok := cache.Get(ctx, 1)
	require.True(t, ok)
	require.Equal(t, profile.Name, got.Name)
	require.Equal(t, profile.Bank.IFSC, got.Bank.IFSC)

	_, ok = cache.Get(ctx, 2)
	require.False(t, ok)
}

func TestCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, Profile{OrgID: 1, Name: "Meridian Traders"}))
	require.NoError(t, cache.Invalidate(ctx, 1))

	_, ok := cache.Get(ctx, 1)
	require.False(t, ok)

	require.NoError(t, cache.Invalidate(ctx, 1))
}

func TestCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, Profile{OrgID: 1, Name: "Meridian Traders"}))
	mr.FastForward(2 * time.Minute)

	_, ok := cache.Get(ctx, 1)
	require.False(t, ok)
}

func TestNilCacheIsInert(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	_, ok := cache.Get(ctx, 1)
	require.False(t, ok)
	require.NoError(t, cache.Set(ctx, Profile{OrgID: 1}))
	require.NoError(t, cache.Invalidate(ctx, 1))
}
