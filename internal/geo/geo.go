// Package geo holds the geodesy used by proximity search: great-circle
// distance, coordinate validation, an s2 cell index over records, and the
// H3 and geohash encodings attached to each record.
package geo

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/postcode-matcher/internal/apperr"
)

// EarthRadiusKm is the WGS84 mean Earth radius.
const EarthRadiusKm = 6371.0088

// DistanceKm returns the haversine great-circle distance between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * EarthRadiusKm
}

// ValidateCoordinate rejects NaN and out-of-range latitude or longitude.
func ValidateCoordinate(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return apperr.Invalid("lat", "must be within [-90, 90], got %v", lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return apperr.Invalid("lon", "must be within [-180, 180], got %v", lon)
	}
	return nil
}

// ValidateRadius requires 0 < radiusKm <= maxKm.
func ValidateRadius(radiusKm, maxKm float64) error {
	if math.IsNaN(radiusKm) || radiusKm <= 0 || radiusKm > maxKm {
		return apperr.Invalid("radius_km", "must be within (0, %v], got %v", maxKm, radiusKm)
	}
	return nil
}
