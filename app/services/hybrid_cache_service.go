package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// HybridCacheService layers a local L1 in front of a shared L2. L1 errors
// are never fatal; L2 hits are copied back into L1.
type HybridCacheService struct {
	l1     ICacheService
	l2     ICacheService
	logger *zap.Logger
}

func NewHybridCacheService(l1, l2 ICacheService, logger *zap.Logger) *HybridCacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HybridCacheService{l1: l1, l2: l2, logger: logger}
}

func (hcs *HybridCacheService) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok, err := hcs.l1.Get(ctx, key); err == nil && ok {
		return v, true, nil
	}

	v, ok, err := hcs.l2.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}

	if err := hcs.l1.Set(ctx, key, v); err != nil {
		hcs.logger.Warn("L1 backfill failed", zap.Error(err), zap.String("key", key))
	}
	return v, true, nil
}

// Set writes both tiers concurrently.
func (hcs *HybridCacheService) Set(ctx context.Context, key string, value []byte) error {
	return hcs.both(func(c ICacheService) error { return c.Set(ctx, key, value) })
}

func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	return hcs.both(func(c ICacheService) error { return c.Delete(ctx, key) })
}

func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	if err := hcs.both(func(c ICacheService) error { return c.Clear(ctx) }); err != nil {
		return err
	}
	hcs.logger.Info("Hybrid cache cleared")
	return nil
}

func (hcs *HybridCacheService) Close() error {
	return hcs.both(func(c ICacheService) error { return c.Close() })
}

// GetStats reports L2 item counts with hit counters summed across tiers.
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	s1, err1 := hcs.l1.GetStats(ctx)
	s2, err2 := hcs.l2.GetStats(ctx)
	switch {
	case err1 != nil && err2 != nil:
		return nil, errors.Join(err1, err2)
	case err1 != nil:
		return s2, nil
	case err2 != nil:
		return s1, nil
	}

	// An L1 miss followed by an L2 hit is one hit overall.
	hits := s1.TotalHits + s2.TotalHits
	misses := s2.TotalMiss
	return &CacheStats{
		Backend:    s1.Backend + "+" + s2.Backend,
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: s2.TotalItems,
	}, nil
}

func (hcs *HybridCacheService) both(op func(ICacheService) error) error {
	errCh := make(chan error, 2)
	for _, c := range []ICacheService{hcs.l1, hcs.l2} {
		go func(c ICacheService) { errCh <- op(c) }(c)
	}

	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewCache builds the configured cache: none, memory only, or memory in
// front of Redis when redisURL is set. A Redis connection failure falls
// back to memory only.
func NewCache(enabled bool, size int, redisURL, prefix string, ttl time.Duration, logger *zap.Logger) (ICacheService, error) {
	if !enabled {
		return NoopCache{}, nil
	}
	mem, err := NewCacheService(size, ttl)
	if err != nil {
		return nil, err
	}
	if redisURL == "" {
		return mem, nil
	}
	rc, err := NewRedisCacheService(redisURL, prefix, ttl, logger)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory cache only", zap.Error(err))
		return mem, nil
	}
	return NewHybridCacheService(mem, rc, logger), nil
}
