package proximity

import (
	"github.com/postcode-matcher/app/models"
	"github.com/postcode-matcher/internal/apperr"
	"github.com/postcode-matcher/internal/dataset"
	"github.com/postcode-matcher/internal/geo"
	"github.com/postcode-matcher/internal/matcher"
)

// FindNearGeohash runs a radius query centred on the middle of a geohash cell.
func (e *Engine) FindNearGeohash(hash string, radiusKm float64, state string, limit int) ([]models.GeoResult, error) {
	lat, lon, err := geo.DecodeGeohash(hash)
	if err != nil {
		return nil, err
	}
	return e.FindWithinRadius(lat, lon, radiusKm, state, limit)
}

// NeighbourOptions narrows a neighbour lookup.
type NeighbourOptions struct {
	State    string
	RadiusKm float64
	Limit    int
	SameLGA  bool
}

// Neighbours returns localities around the first record named locality that
// has coordinates. The locality itself is excluded. The returned record is
// the centre used, nil when no coordinates are known for the name.
func (e *Engine) Neighbours(snap *dataset.Snapshot, normalized string, opts NeighbourOptions) (*models.LocationRecord, []models.GeoResult, error) {
	filter, err := matcher.ParseStateFilter(opts.State)
	if err != nil {
		return nil, nil, err
	}
	if err := geo.ValidateRadius(opts.RadiusKm, e.cfg.MaxRadiusKm); err != nil {
		return nil, nil, err
	}
	if opts.Limit <= 0 || opts.Limit > e.cfg.MaxLimit {
		return nil, nil, apperr.Invalid("limit", "must be within [1, %d], got %d", e.cfg.MaxLimit, opts.Limit)
	}

	var centre *models.LocationRecord
	for _, r := range snap.ByNormalized(normalized) {
		if filter != "" && r.State != filter {
			continue
		}
		if r.HasCoordinates() {
			centre = r
			break
		}
	}
	if centre == nil {
		return nil, []models.GeoResult{}, nil
	}

	skip := func(r *models.LocationRecord) bool {
		if r.NormalizedLocality == centre.NormalizedLocality && r.State == centre.State {
			return true
		}
		return opts.SameLGA && dataset.LGAKey(r.LGAName) != dataset.LGAKey(centre.LGAName)
	}
	results := e.FindIn(snap, *centre.Latitude, *centre.Longitude, opts.RadiusKm, filter, opts.Limit, skip)
	return centre, results, nil
}
