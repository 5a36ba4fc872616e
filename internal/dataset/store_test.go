package dataset

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postcode-matcher/app/models"
	"github.com/postcode-matcher/internal/apperr"
)

type failingSource struct{}

func (failingSource) Name() string { return "failing" }
func (failingSource) Load(context.Context) ([]models.LocationRecord, error) {
	return nil, errors.New("boom")
}

func TestStoreUnavailableBeforeLoad(t *testing.T) {
	s := NewStore(&StaticSource{}, BuildOptions{}, nil)
	_, err := s.Current()
	assert.True(t, apperr.IsDatasetUnavailable(err))
	assert.False(t, s.Ready())
}

func TestStoreReloadIncrementsGeneration(t *testing.T) {
	src := &StaticSource{Rows: []models.LocationRecord{{Postcode: "2300", Locality: "Newcastle", State: "NSW"}}}
	s := NewStore(src, BuildOptions{}, nil)

	first, err := s.Reload(context.Background())
	require.NoError(t, err)
	second, err := s.Reload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.Generation)
	assert.Equal(t, uint64(2), second.Generation)

	cur, err := s.Current()
	require.NoError(t, err)
	assert.Same(t, second, cur)
}

func TestStoreFailedReloadKeepsPrevious(t *testing.T) {
	s := NewStore(failingSource{}, BuildOptions{}, nil)
	_, err := s.Reload(context.Background())
	require.Error(t, err)
	assert.False(t, s.Ready())

	good := s.Publish([]models.LocationRecord{{Postcode: "3000", Locality: "Melbourne", State: "VIC"}}, "manual")
	_, err = s.Reload(context.Background())
	require.Error(t, err)

	cur, err := s.Current()
	require.NoError(t, err)
	assert.Same(t, good, cur)
}

func TestStoreHeldSnapshotSurvivesReload(t *testing.T) {
	s := NewStore(nil, BuildOptions{}, nil)
	s.Publish([]models.LocationRecord{{Postcode: "2300", Locality: "Newcastle", State: "NSW"}}, "gen1")

	held, err := s.Current()
	require.NoError(t, err)

	s.Publish([]models.LocationRecord{{Postcode: "3000", Locality: "Melbourne", State: "VIC"}}, "gen2")

	assert.Len(t, held.ByNormalized("newcastle"), 1)
	assert.Empty(t, held.ByNormalized("melbourne"))

	cur, _ := s.Current()
	assert.Empty(t, cur.ByNormalized("newcastle"))
	assert.Len(t, cur.ByNormalized("melbourne"), 1)
}

func TestStoreConcurrentReaders(t *testing.T) {
	s := NewStore(nil, BuildOptions{}, nil)
	genA := []models.LocationRecord{{Postcode: "2300", Locality: "Newcastle", State: "NSW"}, {Postcode: "2301", Locality: "Newcastle", State: "NSW"}}
	genB := []models.LocationRecord{{Postcode: "3000", Locality: "Melbourne", State: "VIC"}}
	s.Publish(genA, "a")

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap, err := s.Current()
				if !assert.NoError(t, err) {
					return
				}
				// Each generation is internally consistent.
				switch snap.Source {
				case "a":
					assert.Equal(t, 2, snap.Len())
					assert.Len(t, snap.ByNormalized("newcastle"), 2)
				case "b":
					assert.Equal(t, 1, snap.Len())
					assert.Empty(t, snap.ByNormalized("newcastle"))
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			s.Publish(genB, "b")
		} else {
			s.Publish(genA, "a")
		}
	}
	close(stop)
	wg.Wait()
}
