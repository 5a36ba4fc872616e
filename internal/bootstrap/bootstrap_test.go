package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/postcode-matcher/app/config"
	"github.com/postcode-matcher/internal/apperr"
	"github.com/postcode-matcher/internal/observability"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Dataset.Source = "csv"
	cfg.Dataset.CSVPath = filepath.Join("..", "dataset", "testdata", "localities.csv")
	cfg.Meilisearch.Enabled = false
	cfg.Cache.RedisURL = ""
	return cfg
}

func TestNewAndLoad(t *testing.T) {
	cfg := testConfig(t)
	app, err := New(cfg, zap.NewNop(), observability.NewMetricsForTesting())
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Index)
	_, err = app.Location.Resolve(context.Background(), "Newcastle", "", 0)
	assert.True(t, apperr.IsDatasetUnavailable(err))

	res, err := app.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Generation)
	assert.Positive(t, res.Records)

	got, err := app.Location.Resolve(context.Background(), "Newcastle", "NSW", 0)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "2300", got[0].Record.Postcode)
}

func TestNewRejectsUnknownSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dataset.Source = "ftp"
	_, err := New(cfg, nil, nil)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dataset.CSVPath = filepath.Join(t.TempDir(), "missing.csv")
	_, statErr := os.Stat(cfg.Dataset.CSVPath)
	require.True(t, os.IsNotExist(statErr))

	app, err := New(cfg, nil, nil)
	require.NoError(t, err)
	_, err = app.Load(context.Background())
	assert.Error(t, err)
	assert.False(t, app.Store.Ready())
}

func TestLocationConfig(t *testing.T) {
	cfg := testConfig(t)
	lc := LocationConfig(cfg)
	assert.Equal(t, cfg.Matching.DefaultLimit, lc.DefaultLimit)
	assert.Equal(t, cfg.Geo.NeighbourRadiusKm, lc.NeighbourRadiusKm)
	assert.Equal(t, cfg.Geo.MaxNeighbours, lc.MaxNeighbours)
}

func TestRouterServesProbes(t *testing.T) {
	app, err := New(testConfig(t), zap.NewNop(), nil)
	require.NoError(t, err)
	defer app.Close()
	router := app.Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	_, err = app.Load(context.Background())
	require.NoError(t, err)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/postcodes/2300", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "NEWCASTLE")
}

func TestRunReloaderTicks(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dataset.ReloadInterval = time.Minute
	app, err := New(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	defer app.Close()
	_, err = app.Load(context.Background())
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.RunReloader(ctx, clock)
		close(done)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	assert.Eventually(t, func() bool {
		snap, err := app.Store.Current()
		return err == nil && snap.Generation == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reloader did not stop")
	}
}

func TestRunReloaderDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dataset.ReloadInterval = 0
	app, err := New(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	defer app.Close()

	// Returns without waiting on the clock.
	app.RunReloader(context.Background(), clockwork.NewFakeClock())
}
