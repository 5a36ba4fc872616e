package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/postcode-matcher/app/models"
	"github.com/postcode-matcher/internal/dataset"
	"github.com/postcode-matcher/internal/observability"
)

type fakePublisher struct {
	generations []uint64
	err         error
}

func (p *fakePublisher) Publish(_ context.Context, snap *dataset.Snapshot, _ func(int)) (int, error) {
	p.generations = append(p.generations, snap.Generation)
	if p.err != nil {
		return 0, p.err
	}
	return snap.Len(), nil
}

type brokenSource struct{}

func (brokenSource) Name() string { return "broken" }
func (brokenSource) Load(context.Context) ([]models.LocationRecord, error) {
	return nil, errors.New("disk on fire")
}

func TestAdminReload(t *testing.T) {
	store := dataset.NewStore(&dataset.StaticSource{Label: "fixture", Rows: serviceRows()}, dataset.BuildOptions{}, zap.NewNop())
	pub := &fakePublisher{}
	metrics := observability.NewMetricsForTesting()
	as := NewAdminService(store, nil, pub, metrics, zap.NewNop())

	res, err := as.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Generation)
	assert.Equal(t, "fixture", res.Source)
	assert.Equal(t, 11, res.Records)
	assert.Equal(t, 11, res.Indexed)
	assert.Empty(t, res.IndexError)
	assert.Equal(t, []uint64{1}, pub.generations)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DatasetGeneration))
	assert.Equal(t, 11.0, testutil.ToFloat64(metrics.DatasetRecords))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DatasetReloads.WithLabelValues("success")))

	pub.err = errors.New("index down")
	res, err = as.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Generation)
	assert.Equal(t, "index down", res.IndexError)
}

func TestAdminReloadFailureKeepsGeneration(t *testing.T) {
	store := dataset.NewStore(brokenSource{}, dataset.BuildOptions{}, zap.NewNop())
	store.Publish(serviceRows(), "seed")
	metrics := observability.NewMetricsForTesting()
	as := NewAdminService(store, nil, nil, metrics, zap.NewNop())

	_, err := as.Reload(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DatasetReloads.WithLabelValues("error")))

	snap, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Generation)
}

func TestAdminPublishIndex(t *testing.T) {
	store := dataset.NewStore(nil, dataset.BuildOptions{}, zap.NewNop())

	_, err := NewAdminService(store, nil, nil, nil, nil).PublishIndex(context.Background())
	assert.ErrorIs(t, err, ErrIndexNotConfigured)

	pub := &fakePublisher{}
	as := NewAdminService(store, nil, pub, nil, nil)
	_, err = as.PublishIndex(context.Background())
	assert.Error(t, err, "nothing loaded yet")

	store.Publish(serviceRows(), "seed")
	n, err := as.PublishIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, n)
}

func TestAdminInvalidateCache(t *testing.T) {
	ctx := context.Background()
	cache, err := NewCacheService(10, time.Minute)
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, "k", []byte("v")))

	as := NewAdminService(dataset.NewStore(nil, dataset.BuildOptions{}, nil), cache, nil, nil, nil)
	require.NoError(t, as.InvalidateCache(ctx))
	assert.Zero(t, cache.Size())
}

func TestAdminSystemStats(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	dataset.SetClock(clk)
	t.Cleanup(func() { dataset.SetClock(nil) })

	store := dataset.NewStore(nil, dataset.BuildOptions{}, nil)
	as := NewAdminService(store, nil, nil, nil, nil)

	before, err := as.GetSystemStats(context.Background())
	require.NoError(t, err)
	assert.False(t, before.Ready)
	assert.Nil(t, before.Dataset)
	require.NotNil(t, before.Cache)
	assert.Equal(t, "none", before.Cache.Backend)

	store.Publish(serviceRows(), "seed")
	clk.Advance(90 * time.Second)

	after, err := as.GetSystemStats(context.Background())
	require.NoError(t, err)
	assert.True(t, after.Ready)
	assert.Equal(t, uint64(1), after.Generation)
	require.NotNil(t, after.Dataset)
	assert.Equal(t, 11, after.Dataset.TotalRecords)
	assert.Equal(t, "1m30s", after.Uptime)
	assert.Equal(t, clk.Now().Add(-90*time.Second), *after.LoadedAt)
}
