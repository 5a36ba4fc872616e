package proximity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/postcode-matcher/app/models"
	"github.com/postcode-matcher/internal/apperr"
	"github.com/postcode-matcher/internal/dataset"
	"github.com/postcode-matcher/internal/geo"
)

func f(v float64) *float64 { return &v }

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store := dataset.NewStore(nil, dataset.BuildOptions{}, zap.NewNop())
	store.Publish([]models.LocationRecord{
		{Postcode: "2300", Locality: "Newcastle", State: "NSW", Latitude: f(-32.9283), Longitude: f(151.7817)},
		{Postcode: "2302", Locality: "Newcastle West", State: "NSW", Latitude: f(-32.9250), Longitude: f(151.7700)},
		{Postcode: "2300", Locality: "Newcastle East", State: "NSW"},
		{Postcode: "2291", Locality: "Merewether", State: "NSW", Latitude: f(-32.9480), Longitude: f(151.7430)},
		{Postcode: "2287", Locality: "Wallsend", State: "NSW", Latitude: f(-32.9020), Longitude: f(151.6650)},
		{Postcode: "2320", Locality: "Maitland", State: "NSW", Latitude: f(-32.7330), Longitude: f(151.5570)},
		{Postcode: "2000", Locality: "Sydney", State: "NSW", Latitude: f(-33.8688), Longitude: f(151.2093)},
		// Same point as Newcastle, to exercise the locality tie-break.
		{Postcode: "2300", Locality: "Cooks Hill", State: "NSW", Latitude: f(-32.9283), Longitude: f(151.7817)},
	}, "fixture")
	return NewEngine(store, DefaultConfig(), zap.NewNop())
}

func TestFindWithinRadius(t *testing.T) {
	e := newTestEngine(t)

	got, err := e.FindWithinRadius(-32.9283, 151.7817, 10, "", 50)
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	for i, r := range got {
		names = append(names, r.Record.Locality)
		require.True(t, r.Record.HasCoordinates())
		d := geo.DistanceKm(-32.9283, 151.7817, *r.Record.Latitude, *r.Record.Longitude)
		assert.InDelta(t, d, r.DistanceKm, 1e-9)
		assert.LessOrEqual(t, r.DistanceKm, 10.0)
		if i > 0 {
			assert.GreaterOrEqual(t, r.DistanceKm, got[i-1].DistanceKm)
		}
	}
	assert.Equal(t, []string{"Cooks Hill", "Newcastle", "Newcastle West", "Merewether"}, names)
	assert.NotContains(t, names, "Newcastle East")
	assert.NotContains(t, names, "Maitland")
}

func TestFindWithinRadiusLimitAndState(t *testing.T) {
	e := newTestEngine(t)

	got, err := e.FindWithinRadius(-32.9283, 151.7817, 200, "", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = e.FindWithinRadius(-32.9283, 151.7817, 200, "VIC", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = e.FindWithinRadius(-32.9283, 151.7817, 200, "NSW", 10)
	require.NoError(t, err)
	assert.Len(t, got, 7)
	assert.Equal(t, "Sydney", got[len(got)-1].Record.Locality)
}

func TestFindWithinRadiusValidation(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name             string
		lat, lon, radius float64
		state            string
		limit            int
	}{
		{"latitude out of range", 200, 0, 10, "", 10},
		{"longitude out of range", 0, -181, 10, "", 10},
		{"zero radius", 0, 0, 0, "", 10},
		{"negative radius", 0, 0, -5, "", 10},
		{"radius too large", 0, 0, 501, "", 10},
		{"zero limit", 0, 0, 10, "", 0},
		{"bad state", 0, 0, 10, "ZZ", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.FindWithinRadius(tt.lat, tt.lon, tt.radius, tt.state, tt.limit)
			assert.True(t, apperr.IsInvalidParameter(err), "got %v", err)
		})
	}
}

func TestFindWithinRadiusUnavailable(t *testing.T) {
	store := dataset.NewStore(nil, dataset.BuildOptions{}, zap.NewNop())
	e := NewEngine(store, Config{}, zap.NewNop())

	_, err := e.FindWithinRadius(-32.9, 151.7, 10, "", 10)
	assert.True(t, apperr.IsDatasetUnavailable(err))
}

func TestFindInSkip(t *testing.T) {
	e := newTestEngine(t)
	snap, err := e.provider.Current()
	require.NoError(t, err)

	got := e.FindIn(snap, -32.9283, 151.7817, 10, "", 10, func(r *models.LocationRecord) bool {
		return r.Locality == "Cooks Hill"
	})
	require.NotEmpty(t, got)
	assert.Equal(t, "Newcastle", got[0].Record.Locality)
}

func TestFindNearGeohash(t *testing.T) {
	e := newTestEngine(t)

	hash := geo.Geohash(-32.9283, 151.7817, 7)
	got, err := e.FindNearGeohash(hash, 2, "", 10)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Contains(t, []string{"Cooks Hill", "Newcastle"}, got[0].Record.Locality)

	_, err = e.FindNearGeohash("not a hash!", 2, "", 10)
	assert.True(t, apperr.IsInvalidParameter(err))
}

func TestNeighbours(t *testing.T) {
	e := newTestEngine(t)
	snap, err := e.provider.Current()
	require.NoError(t, err)

	centre, got, err := e.Neighbours(snap, "newcastle", NeighbourOptions{RadiusKm: 8, Limit: 10})
	require.NoError(t, err)
	require.NotNil(t, centre)
	assert.Equal(t, "Newcastle", centre.Locality)
	for _, r := range got {
		assert.NotEqual(t, "Newcastle", r.Record.Locality)
	}
	require.NotEmpty(t, got)
	assert.Equal(t, "Cooks Hill", got[0].Record.Locality)

	centre, got, err = e.Neighbours(snap, "newcastle east", NeighbourOptions{RadiusKm: 8, Limit: 10})
	require.NoError(t, err)
	assert.Nil(t, centre)
	assert.Empty(t, got)

	_, _, err = e.Neighbours(snap, "newcastle", NeighbourOptions{RadiusKm: 8, Limit: 0})
	assert.True(t, apperr.IsInvalidParameter(err))
}

func TestNeighboursRadiusBounds(t *testing.T) {
	e := newTestEngine(t)
	snap, err := e.provider.Current()
	require.NoError(t, err)

	for _, radius := range []float64{0, -1, e.Config().MaxRadiusKm + 1} {
		_, _, err := e.Neighbours(snap, "newcastle", NeighbourOptions{RadiusKm: radius, Limit: 10})
		var invalid *apperr.InvalidParameterError
		require.ErrorAs(t, err, &invalid, "radius %v", radius)
		assert.Equal(t, "radius_km", invalid.Field)
	}

	_, _, err = e.Neighbours(snap, "newcastle", NeighbourOptions{RadiusKm: e.Config().MaxRadiusKm, Limit: 10})
	assert.NoError(t, err)
}
