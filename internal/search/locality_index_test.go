package search

import (
	"context"
	"errors"
	"testing"

	"github.com/meilisearch/meilisearch-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/postcode-matcher/app/models"
	"github.com/postcode-matcher/internal/dataset"
)

type fakeIndex struct {
	settings *meilisearch.Settings
	batches  [][]LocalityDoc
	lastReq  *meilisearch.SearchRequest
	hits     []interface{}
	err      error
	nextUID  int64
}

func (f *fakeIndex) UpdateSettings(s *meilisearch.Settings) (*meilisearch.TaskInfo, error) {
	f.settings = s
	f.nextUID++
	return &meilisearch.TaskInfo{TaskUID: f.nextUID}, f.err
}

func (f *fakeIndex) AddDocuments(docs interface{}, _ ...string) (*meilisearch.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, docs.([]LocalityDoc))
	f.nextUID++
	return &meilisearch.TaskInfo{TaskUID: f.nextUID}, nil
}

func (f *fakeIndex) Search(_ string, req *meilisearch.SearchRequest) (*meilisearch.SearchResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &meilisearch.SearchResponse{Hits: f.hits}, nil
}

func testSnapshot() *dataset.Snapshot {
	return dataset.Build(3, "test", []models.LocationRecord{
		{Postcode: "2300", Locality: "Newcastle", State: "NSW", LGAName: "Newcastle"},
		{Postcode: "2300", Locality: "Newcastle", State: "NSW"},
		{Postcode: "2301", Locality: "Newcastle", State: "NSW"},
		{Postcode: "3182", Locality: "St Kilda", State: "VIC"},
		{Postcode: "5110", Locality: "St Kilda", State: "SA"},
		{Postcode: "4825", Locality: "Mount Isa", State: "QLD"},
	}, dataset.BuildOptions{})
}

func TestDocumentID(t *testing.T) {
	assert.Equal(t, "nsw-newcastle_west", DocumentID("newcastle west", models.StateNSW))
	assert.Equal(t, "wa-kalgoorlie-boulder", DocumentID("kalgoorlie-boulder", models.StateWA))
	assert.Equal(t, "qld-mount_isa", DocumentID("mount isa!", models.StateQLD))
}

func TestFilterGeneration(t *testing.T) {
	assert.Equal(t, "generation = 7", FilterGeneration(7, ""))
	assert.Equal(t, `generation = 7 AND state = "VIC"`, FilterGeneration(7, models.StateVIC))
}

func TestBuildDocuments(t *testing.T) {
	docs := BuildDocuments(testSnapshot())

	require.Len(t, docs, 4)
	byID := make(map[string]LocalityDoc)
	for _, d := range docs {
		byID[d.ID] = d
		assert.Equal(t, uint64(3), d.Generation)
	}
	assert.Equal(t, []string{"2300", "2301"}, byID["nsw-newcastle"].Postcodes)
	assert.Equal(t, "Mount Isa", byID["qld-mount_isa"].Locality)
	assert.Contains(t, byID, "vic-saint_kilda")
	assert.Contains(t, byID, "sa-saint_kilda")
}

func TestPublishBatches(t *testing.T) {
	idx := &fakeIndex{}
	li := newLocalityIndex(idx, Config{Index: "localities", BatchSize: 3}, zap.NewNop())

	var progressed int
	n, err := li.Publish(context.Background(), testSnapshot(), func(k int) { progressed += k })
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, progressed)
	require.Len(t, idx.batches, 2)
	assert.Len(t, idx.batches[0], 3)
	assert.Len(t, idx.batches[1], 1)
}

func TestPublishErrors(t *testing.T) {
	idx := &fakeIndex{err: errors.New("down")}
	li := newLocalityIndex(idx, Config{}, zap.NewNop())

	_, err := li.Publish(context.Background(), testSnapshot(), nil)
	assert.ErrorContains(t, err, "down")

	empty := dataset.Build(1, "empty", nil, dataset.BuildOptions{})
	_, err = li.Publish(context.Background(), empty, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newLocalityIndex(&fakeIndex{}, Config{}, nil).Publish(ctx, testSnapshot(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfigure(t *testing.T) {
	idx := &fakeIndex{}
	li := newLocalityIndex(idx, Config{Index: "localities"}, nil)

	require.NoError(t, li.Configure(context.Background()))
	require.NotNil(t, idx.settings)
	assert.Contains(t, idx.settings.FilterableAttributes, "generation")
	assert.True(t, idx.settings.TypoTolerance.Enabled)
}

func TestSuggest(t *testing.T) {
	idx := &fakeIndex{hits: []interface{}{
		map[string]interface{}{"locality": "Newcastle", "state": "NSW"},
		map[string]interface{}{"state": "NSW"},
		"garbage",
		map[string]interface{}{"locality": "Newcastle West"},
	}}
	li := newLocalityIndex(idx, Config{}, nil)

	got, err := li.Suggest(context.Background(), "nwcastle", models.StateNSW, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Newcastle", "Newcastle West"}, got)
	assert.Equal(t, int64(5), idx.lastReq.Limit)
	assert.Equal(t, `generation = 3 AND state = "NSW"`, idx.lastReq.Filter)

	got, err = li.Suggest(context.Background(), "", "", 3, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}
