package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/postcode-matcher/app/models"
	"github.com/postcode-matcher/internal/dataset"
	"github.com/postcode-matcher/internal/observability"
)

// Reloader publishes new dataset generations.
type Reloader interface {
	Current() (*dataset.Snapshot, error)
	Reload(ctx context.Context) (*dataset.Snapshot, error)
}

// IndexPublisher pushes a snapshot to an external search index.
type IndexPublisher interface {
	Publish(ctx context.Context, snap *dataset.Snapshot, progress func(int)) (int, error)
}

// ErrIndexNotConfigured is returned by PublishIndex when no search index
// is wired in.
var ErrIndexNotConfigured = errors.New("search index is not configured")

// AdminService runs operational tasks: reloads, index publication and
// cache maintenance.
type AdminService struct {
	store     Reloader
	cache     ICacheService
	index     IndexPublisher
	metrics   *observability.Metrics
	logger    *zap.Logger
	startedAt time.Time
}

// ReloadResult describes a published generation.
type ReloadResult struct {
	Generation       uint64    `json:"generation"`
	Source           string    `json:"source"`
	Records          int       `json:"records"`
	Skipped          int       `json:"skipped"`
	LoadedAt         time.Time `json:"loaded_at"`
	Indexed          int       `json:"indexed"`
	IndexError       string    `json:"index_error,omitempty"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
}

// SystemStats is the admin view of the running service.
type SystemStats struct {
	Ready       bool                   `json:"ready"`
	Generation  uint64                 `json:"generation"`
	Source      string                 `json:"source,omitempty"`
	LoadedAt    *time.Time             `json:"loaded_at,omitempty"`
	Dataset     *models.DatasetStats   `json:"dataset,omitempty"`
	Cache       *CacheStats            `json:"cache,omitempty"`
	Uptime      string                 `json:"uptime"`
	Goroutines  int                    `json:"goroutines"`
	MemoryUsage map[string]interface{} `json:"memory_usage"`
}

// NewAdminService creates an AdminService. cache, index and metrics may be nil.
func NewAdminService(store Reloader, cache ICacheService, index IndexPublisher, metrics *observability.Metrics, logger *zap.Logger) *AdminService {
	if cache == nil {
		cache = NoopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		store:     store,
		cache:     cache,
		index:     index,
		metrics:   metrics,
		logger:    logger,
		startedAt: dataset.Now(),
	}
}

// Reload loads a new generation and, when an index is configured, publishes
// it there. An index failure is reported in the result but does not undo
// the reload.
func (as *AdminService) Reload(ctx context.Context) (*ReloadResult, error) {
	start := time.Now()

	snap, err := as.store.Reload(ctx)
	if err != nil {
		as.metrics.DatasetReloadFailed()
		return nil, err
	}
	as.metrics.DatasetPublished(snap.Generation, snap.Len())

	res := &ReloadResult{
		Generation: snap.Generation,
		Source:     snap.Source,
		Records:    snap.Len(),
		Skipped:    snap.Skipped,
		LoadedAt:   snap.LoadedAt,
	}
	if as.index != nil {
		n, err := as.index.Publish(ctx, snap, nil)
		if err != nil {
			as.logger.Error("Index publish failed after reload",
				zap.Uint64("generation", snap.Generation),
				zap.Error(err))
			res.IndexError = err.Error()
		}
		res.Indexed = n
	}
	res.ProcessingTimeMs = time.Since(start).Milliseconds()

	as.logger.Info("Reload complete",
		zap.Uint64("generation", res.Generation),
		zap.Int("records", res.Records),
		zap.Int("skipped", res.Skipped),
		zap.Int("indexed", res.Indexed),
		zap.Duration("duration", time.Since(start)))
	return res, nil
}

// PublishIndex pushes the current generation to the search index.
func (as *AdminService) PublishIndex(ctx context.Context) (int, error) {
	if as.index == nil {
		return 0, ErrIndexNotConfigured
	}
	snap, err := as.store.Current()
	if err != nil {
		return 0, err
	}
	return as.index.Publish(ctx, snap, nil)
}

// InvalidateCache drops every cached result.
func (as *AdminService) InvalidateCache(ctx context.Context) error {
	if err := as.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	as.logger.Info("Result cache invalidated")
	return nil
}

// GetSystemStats reports dataset, cache and runtime figures. It succeeds
// before the first load, with Ready false.
func (as *AdminService) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &SystemStats{
		Uptime:     dataset.Now().Sub(as.startedAt).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		MemoryUsage: map[string]interface{}{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
		},
	}

	if snap, err := as.store.Current(); err == nil {
		ds := snap.Stats()
		loaded := snap.LoadedAt
		stats.Ready = true
		stats.Generation = snap.Generation
		stats.Source = snap.Source
		stats.LoadedAt = &loaded
		stats.Dataset = &ds
	}

	cs, err := as.cache.GetStats(ctx)
	if err != nil {
		as.logger.Warn("Cache stats unavailable", zap.Error(err))
	} else {
		stats.Cache = cs
	}
	return stats, nil
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
