package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CacheService is a bounded in-memory LRU with per-entry expiry.
type CacheService struct {
	lru *expirable.LRU[string, []byte]
	ttl time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCacheService creates an in-memory cache holding at most size entries.
func NewCacheService(size int, ttl time.Duration) (*CacheService, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &CacheService{
		lru: expirable.NewLRU[string, []byte](size, nil, ttl),
		ttl: ttl,
	}, nil
}

func (cs *CacheService) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := cs.lru.Get(key)
	if !ok {
		cs.misses.Add(1)
		return nil, false, nil
	}
	cs.hits.Add(1)
	return v, true, nil
}

func (cs *CacheService) Set(ctx context.Context, key string, value []byte) error {
	cs.lru.Add(key, value)
	return nil
}

func (cs *CacheService) Delete(ctx context.Context, key string) error {
	cs.lru.Remove(key)
	return nil
}

func (cs *CacheService) Clear(ctx context.Context) error {
	cs.lru.Purge()
	return nil
}

// Size returns the number of live entries.
func (cs *CacheService) Size() int {
	return cs.lru.Len()
}

func (cs *CacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	hits, misses := cs.hits.Load(), cs.misses.Load()
	return &CacheStats{
		Backend:    "memory",
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: int64(cs.lru.Len()),
	}, nil
}

// Close is a no-op for the in-memory cache.
func (cs *CacheService) Close() error {
	return nil
}
