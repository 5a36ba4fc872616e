package geo

import (
	"sort"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/postcode-matcher/app/models"
)

// capSlack widens the search cap slightly so points sitting exactly on the
// radius survive rounding in the cap test. The exact distance filter runs
// afterwards.
const capSlack = s1.Angle(1e-6)

type indexEntry struct {
	cell s2.CellID
	rec  *models.LocationRecord
}

// Index is an immutable s2 leaf-cell index over records with coordinates.
type Index struct {
	entries []indexEntry
	coverer *s2.RegionCoverer
}

// NewIndex indexes every record that has coordinates.
func NewIndex(records []*models.LocationRecord) *Index {
	entries := make([]indexEntry, 0, len(records))
	for _, r := range records {
		if !r.HasCoordinates() {
			continue
		}
		ll := s2.LatLngFromDegrees(*r.Latitude, *r.Longitude)
		entries = append(entries, indexEntry{cell: s2.CellIDFromLatLng(ll), rec: r})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].cell < entries[j].cell })

	return &Index{
		entries: entries,
		coverer: &s2.RegionCoverer{MinLevel: 0, MaxLevel: 30, LevelMod: 1, MaxCells: 12},
	}
}

// Len is the number of indexed records.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Within calls fn for every indexed record whose great-circle distance from
// (lat, lon) is at most radiusKm. Visit order follows cell order, not distance.
func (ix *Index) Within(lat, lon, radiusKm float64, fn func(rec *models.LocationRecord, distanceKm float64)) {
	if len(ix.entries) == 0 {
		return
	}
	center := s2.LatLngFromDegrees(lat, lon)
	angle := s1.Angle(radiusKm/EarthRadiusKm) + capSlack
	region := s2.CapFromCenterAngle(s2.PointFromLatLng(center), angle)

	for _, cell := range ix.coverer.Covering(region) {
		lo, hi := cell.RangeMin(), cell.RangeMax()
		i := sort.Search(len(ix.entries), func(i int) bool { return ix.entries[i].cell >= lo })
		for ; i < len(ix.entries) && ix.entries[i].cell <= hi; i++ {
			r := ix.entries[i].rec
			d := center.Distance(s2.LatLngFromDegrees(*r.Latitude, *r.Longitude)).Radians() * EarthRadiusKm
			if d <= radiusKm {
				fn(r, d)
			}
		}
	}
}
