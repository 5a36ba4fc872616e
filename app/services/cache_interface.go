package services

import (
	"context"
	"time"
)

// CacheStats summarizes cache effectiveness.
type CacheStats struct {
	Backend    string  `json:"backend"`
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService stores encoded query results. Keys already carry the
// dataset generation, so a reload never serves results from the previous
// generation even if Clear is never called.
type ICacheService interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	GetStats(ctx context.Context) (*CacheStats, error)
	Close() error
}

// NoopCache never stores anything. Used when caching is disabled.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NoopCache) Set(context.Context, string, []byte) error         { return nil }
func (NoopCache) Delete(context.Context, string) error              { return nil }
func (NoopCache) Clear(context.Context) error                       { return nil }
func (NoopCache) Close() error                                      { return nil }

func (NoopCache) GetStats(context.Context) (*CacheStats, error) {
	return &CacheStats{Backend: "none"}, nil
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// defaultTTL applies when a cache is built with a non-positive TTL.
const defaultTTL = 24 * time.Hour
