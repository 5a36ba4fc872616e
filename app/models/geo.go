package models

// GeoResult pairs a record with its great-circle distance from the query point.
type GeoResult struct {
	Record     *LocationRecord `json:"record"`
	DistanceKm float64         `json:"distance_km"`
}
