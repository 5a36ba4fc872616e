package geo

import (
	"strings"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/uber/h3-go/v4"

	"github.com/postcode-matcher/internal/apperr"
)

const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// H3Cell returns the hex index of the H3 cell containing the point.
func H3Cell(lat, lon float64, resolution int) (string, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(lat, lon), resolution)
	if err != nil {
		return "", err
	}
	return cell.String(), nil
}

// Geohash encodes the point at the given precision.
func Geohash(lat, lon float64, precision int) string {
	return geohash.EncodeWithPrecision(lat, lon, precision)
}

// DecodeGeohash returns the centre of the geohash cell.
func DecodeGeohash(hash string) (lat, lon float64, err error) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if hash == "" || len(hash) > 12 {
		return 0, 0, apperr.Invalid("geohash", "must be 1 to 12 characters")
	}
	for _, c := range hash {
		if !strings.ContainsRune(geohashAlphabet, c) {
			return 0, 0, apperr.Invalid("geohash", "unexpected character %q", c)
		}
	}
	center := geohash.Decode(hash).Center()
	return center.Lat(), center.Lng(), nil
}
