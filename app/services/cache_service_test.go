package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCacheServiceGetSet(t *testing.T) {
	ctx := context.Background()
	c, err := NewCacheService(2, time.Minute)
	require.NoError(t, err)

	_, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "a", []byte("1")))
	v, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, c.Set(ctx, "b", []byte("2")))
	require.NoError(t, c.Set(ctx, "c", []byte("3")))
	assert.Equal(t, 2, c.Size())
	_, ok, _ = c.Get(ctx, "a")
	assert.False(t, ok, "least recently used entry evicted")

	stats, err := c.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", stats.Backend)
	assert.Equal(t, int64(1), stats.TotalHits)
	assert.Equal(t, int64(2), stats.TotalMiss)
	assert.InDelta(t, 1.0/3.0, stats.HitRate, 1e-9)

	require.NoError(t, c.Delete(ctx, "b"))
	require.NoError(t, c.Clear(ctx))
	assert.Zero(t, c.Size())
}

func TestCacheServiceExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewCacheService(10, 20*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	assert.Eventually(t, func() bool {
		_, ok, _ := c.Get(ctx, "k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestNewCacheServiceRejectsZeroSize(t *testing.T) {
	_, err := NewCacheService(0, time.Minute)
	assert.Error(t, err)
}

type failingCache struct{ NoopCache }

var errCacheDown = errors.New("cache down")

func (failingCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errCacheDown }
func (failingCache) Set(context.Context, string, []byte) error         { return errCacheDown }
func (failingCache) GetStats(context.Context) (*CacheStats, error)     { return nil, errCacheDown }

func TestHybridCacheBackfillsL1(t *testing.T) {
	ctx := context.Background()
	l1, err := NewCacheService(10, time.Minute)
	require.NoError(t, err)
	l2, err := NewCacheService(10, time.Minute)
	require.NoError(t, err)
	h := NewHybridCacheService(l1, l2, zap.NewNop())

	require.NoError(t, l2.Set(ctx, "k", []byte("v")))
	v, ok, err := h.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), v)
	assert.Equal(t, 1, l1.Size())

	require.NoError(t, h.Set(ctx, "x", []byte("y")))
	assert.Equal(t, 2, l1.Size())
	assert.Equal(t, 2, l2.Size())

	stats, err := h.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory+memory", stats.Backend)
	assert.Equal(t, int64(2), stats.TotalItems)

	require.NoError(t, h.Clear(ctx))
	assert.Zero(t, l1.Size())
	assert.Zero(t, l2.Size())
}

func TestHybridCacheL2Failure(t *testing.T) {
	ctx := context.Background()
	l1, err := NewCacheService(10, time.Minute)
	require.NoError(t, err)
	h := NewHybridCacheService(l1, failingCache{}, zap.NewNop())

	err = h.Set(ctx, "k", []byte("v"))
	assert.ErrorIs(t, err, errCacheDown)

	v, ok, err := h.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "L1 still serves")
	assert.Equal(t, []byte("v"), v)

	stats, err := h.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", stats.Backend)
}

func TestNewCache(t *testing.T) {
	c, err := NewCache(false, 10, "", "", time.Minute, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, NoopCache{}, c)

	c, err = NewCache(true, 10, "", "", time.Minute, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &CacheService{}, c)

	c, err = NewCache(true, 10, "redis://127.0.0.1:1/0", "t:", time.Minute, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &CacheService{}, c, "unreachable redis falls back to memory")
}

func TestRedisCacheService(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	prefix := "test:" + uuid.NewString() + ":"

	c, err := NewRedisCacheService(url, prefix, time.Minute, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	stats, err := c.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalItems)

	require.NoError(t, c.Clear(ctx))
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
