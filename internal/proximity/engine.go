// Package proximity answers radius queries over the coordinates of the
// current dataset snapshot.
package proximity

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/postcode-matcher/app/models"
	"github.com/postcode-matcher/internal/apperr"
	"github.com/postcode-matcher/internal/dataset"
	"github.com/postcode-matcher/internal/geo"
	"github.com/postcode-matcher/internal/matcher"
)

// Config bounds radius queries.
type Config struct {
	MaxRadiusKm float64
	MaxLimit    int
}

// DefaultConfig allows radii up to 500 km and 100 results.
func DefaultConfig() Config {
	return Config{MaxRadiusKm: 500, MaxLimit: 100}
}

// Engine is safe for concurrent use.
type Engine struct {
	provider matcher.SnapshotProvider
	cfg      Config
	logger   *zap.Logger
}

// NewEngine builds a proximity engine over provider.
func NewEngine(provider matcher.SnapshotProvider, cfg Config, logger *zap.Logger) *Engine {
	def := DefaultConfig()
	if cfg.MaxRadiusKm <= 0 {
		cfg.MaxRadiusKm = def.MaxRadiusKm
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = def.MaxLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{provider: provider, cfg: cfg, logger: logger}
}

// Config returns the engine bounds.
func (e *Engine) Config() Config { return e.cfg }

// FindWithinRadius returns records within radiusKm of (lat, lon), nearest
// first, ties broken by locality. Records without coordinates never appear.
func (e *Engine) FindWithinRadius(lat, lon, radiusKm float64, state string, limit int) ([]models.GeoResult, error) {
	if err := e.validate(lat, lon, radiusKm, limit); err != nil {
		return nil, err
	}
	filter, err := matcher.ParseStateFilter(state)
	if err != nil {
		return nil, err
	}
	snap, err := e.provider.Current()
	if err != nil {
		return nil, err
	}
	return e.FindIn(snap, lat, lon, radiusKm, filter, limit, nil), nil
}

// FindIn runs the query against one snapshot. skip, when non-nil, drops
// records before they count towards limit. Inputs are assumed valid.
func (e *Engine) FindIn(snap *dataset.Snapshot, lat, lon, radiusKm float64, filter models.State, limit int, skip func(*models.LocationRecord) bool) []models.GeoResult {
	start := time.Now()
	out := []models.GeoResult{}
	snap.Spatial().Within(lat, lon, radiusKm, func(r *models.LocationRecord, d float64) {
		if filter != "" && r.State != filter {
			return
		}
		if skip != nil && skip(r) {
			return
		}
		out = append(out, models.GeoResult{Record: r, DistanceKm: d})
	})

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		if a.Record.Locality != b.Record.Locality {
			return a.Record.Locality < b.Record.Locality
		}
		return a.Record.Postcode < b.Record.Postcode
	})
	total := len(out)
	if len(out) > limit {
		out = out[:limit]
	}

	e.logger.Debug("Radius search complete",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.Float64("radius_km", radiusKm),
		zap.Int("in_radius", total),
		zap.Int("returned", len(out)),
		zap.Duration("duration", time.Since(start)))
	return out
}

func (e *Engine) validate(lat, lon, radiusKm float64, limit int) error {
	if err := geo.ValidateCoordinate(lat, lon); err != nil {
		return err
	}
	if err := geo.ValidateRadius(radiusKm, e.cfg.MaxRadiusKm); err != nil {
		return err
	}
	if limit <= 0 || limit > e.cfg.MaxLimit {
		return apperr.Invalid("limit", "must be within [1, %d], got %d", e.cfg.MaxLimit, limit)
	}
	return nil
}

// Validate checks query bounds without running a search.
func (e *Engine) Validate(lat, lon, radiusKm float64, limit int) error {
	return e.validate(lat, lon, radiusKm, limit)
}
