package matcher

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/postcode-matcher/app/models"
	"github.com/postcode-matcher/internal/dataset"
)

func f(v float64) *float64 { return &v }

func fixtureRows() []models.LocationRecord {
	return []models.LocationRecord{
		{Postcode: "2300", Locality: "Newcastle", State: "NSW", Latitude: f(-32.9283), Longitude: f(151.7817), LGAName: "Newcastle"},
		{Postcode: "2302", Locality: "Newcastle West", State: "NSW", Latitude: f(-32.9250), Longitude: f(151.7700), LGAName: "Newcastle"},
		{Postcode: "2300", Locality: "Newcastle East", State: "NSW", LGAName: "Newcastle"},
		{Postcode: "0862", Locality: "Newcastle Waters", State: "NT", Latitude: f(-17.3833), Longitude: f(133.4167)},
		{Postcode: "2042", Locality: "Newtown", State: "NSW", Latitude: f(-33.8978), Longitude: f(151.1795)},
		{Postcode: "4825", Locality: "Mount Isa", State: "QLD", Latitude: f(-20.7256), Longitude: f(139.4927)},
		{Postcode: "3182", Locality: "St Kilda", State: "VIC", Latitude: f(-37.8676), Longitude: f(144.9811)},
		{Postcode: "5110", Locality: "St Kilda", State: "SA", Latitude: f(-34.7440), Longitude: f(138.5360)},
		{Postcode: "4300", Locality: "Springfield", State: "QLD", Latitude: f(-27.6530), Longitude: f(152.9170)},
		{Postcode: "2250", Locality: "Springfield", State: "NSW", Latitude: f(-33.4300), Longitude: f(151.3700)},
		{Postcode: "2150", Locality: "Parramatta", State: "NSW", Latitude: f(-33.8150), Longitude: f(151.0011)},
		{Postcode: "2780", Locality: "Katoomba", State: "NSW", Latitude: f(-33.7125), Longitude: f(150.3119)},
		{Postcode: "2650", Locality: "Wagga Wagga", State: "NSW", Latitude: f(-35.1082), Longitude: f(147.3598)},
		{Postcode: "2444", Locality: "Port Macquarie", State: "NSW", Latitude: f(-31.4333), Longitude: f(152.9000)},
		{Postcode: "2060", Locality: "North Sydney", State: "NSW", Latitude: f(-33.8390), Longitude: f(151.2070)},
	}
}

type staticProvider struct{ snap *dataset.Snapshot }

func (p staticProvider) Current() (*dataset.Snapshot, error) { return p.snap, nil }

func newTestEngine(t *testing.T, cfg Config) (*Engine, *dataset.Snapshot) {
	t.Helper()
	snap := dataset.Build(1, "fixture", fixtureRows(), dataset.BuildOptions{})
	require.Equal(t, 15, snap.Len())
	return NewEngine(staticProvider{snap: snap}, nil, cfg, zap.NewNop()), snap
}
