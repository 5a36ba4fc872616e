package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/postcode-matcher/app/models"
	"github.com/postcode-matcher/internal/dataset"
)

// Config locates the Meilisearch index.
type Config struct {
	URL       string
	APIKey    string
	Index     string
	BatchSize int
	Timeout   time.Duration
}

// LocalityDoc is one locality within one state. Records sharing a name and
// state collapse into a single document with all their postcodes.
type LocalityDoc struct {
	ID         string   `json:"id"`
	Locality   string   `json:"locality"`
	Normalized string   `json:"normalized"`
	State      string   `json:"state"`
	Postcodes  []string `json:"postcodes"`
	LGA        string   `json:"lga,omitempty"`
	Region     string   `json:"region,omitempty"`
	Generation uint64   `json:"generation"`
}

// LocalityIndex keeps a Meilisearch index in step with dataset snapshots.
type LocalityIndex struct {
	client    meilisearch.ServiceManager
	index     documentIndex
	logger    *zap.Logger
	indexName string
	batchSize int
	timeout   time.Duration
}

// NewLocalityIndex connects to Meilisearch and checks its health.
func NewLocalityIndex(cfg Config, logger *zap.Logger) (*LocalityIndex, error) {
	client := meilisearch.New(cfg.URL, meilisearch.WithAPIKey(cfg.APIKey))
	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("connect meilisearch: %w", err)
	}
	li := newLocalityIndex(client.Index(cfg.Index), cfg, logger)
	li.client = client
	return li, nil
}

func newLocalityIndex(index documentIndex, cfg Config, logger *zap.Logger) *LocalityIndex {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalityIndex{
		index:     index,
		logger:    logger,
		indexName: cfg.Index,
		batchSize: cfg.BatchSize,
		timeout:   cfg.Timeout,
	}
}

// Configure applies searchable, filterable and typo settings.
func (li *LocalityIndex) Configure(ctx context.Context) error {
	task, err := li.index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"locality", "normalized", "postcodes"},
		FilterableAttributes: []string{"state", "generation", "postcodes"},
		SortableAttributes:   []string{"normalized"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		Synonyms: map[string][]string{
			"mt":    {"mount"},
			"mount": {"mt"},
			"pt":    {"port", "point"},
			"nth":   {"north"},
			"sth":   {"south"},
		},
		TypoTolerance: &meilisearch.TypoTolerance{
			Enabled: true,
			MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{
				OneTypo:  4,
				TwoTypos: 8,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("configure index %s: %w", li.indexName, err)
	}
	li.logger.Info("Meilisearch index configured",
		zap.String("index", li.indexName),
		zap.Int64("task_uid", task.TaskUID))
	return li.wait(ctx, task.TaskUID)
}

// BuildDocuments collapses a snapshot into locality documents, ordered as
// the snapshot orders its records.
func BuildDocuments(snap *dataset.Snapshot) []LocalityDoc {
	docs := make([]LocalityDoc, 0, snap.Len())
	byID := make(map[string]int, snap.Len())
	for _, r := range snap.Records() {
		id := DocumentID(r.NormalizedLocality, r.State)
		if i, ok := byID[id]; ok {
			docs[i].Postcodes = append(docs[i].Postcodes, r.Postcode)
			continue
		}
		byID[id] = len(docs)
		docs = append(docs, LocalityDoc{
			ID:         id,
			Locality:   r.Locality,
			Normalized: r.NormalizedLocality,
			State:      string(r.State),
			Postcodes:  []string{r.Postcode},
			LGA:        r.LGAName,
			Region:     r.Region,
			Generation: snap.Generation,
		})
	}
	for i := range docs {
		sort.Strings(docs[i].Postcodes)
		docs[i].Postcodes = dedupeSorted(docs[i].Postcodes)
	}
	return docs
}

// Publish upserts every locality of snap in batches. Documents from older
// generations are left in place and excluded at query time by the
// generation filter. progress, when non-nil, receives the number of
// documents in each accepted batch.
func (li *LocalityIndex) Publish(ctx context.Context, snap *dataset.Snapshot, progress func(int)) (int, error) {
	docs := BuildDocuments(snap)
	if len(docs) == 0 {
		return 0, errors.New("publish: snapshot has no localities")
	}

	start := time.Now()
	var last int64 = -1
	for i := 0; i < len(docs); i += li.batchSize {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		end := i + li.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		task, err := li.index.AddDocuments(docs[i:end], "id")
		if err != nil {
			return i, fmt.Errorf("add documents %d-%d: %w", i, end, err)
		}
		last = task.TaskUID
		if progress != nil {
			progress(end - i)
		}
		li.logger.Debug("Meilisearch batch queued",
			zap.Int("from", i),
			zap.Int("to", end),
			zap.Int64("task_uid", task.TaskUID))
	}
	if last >= 0 {
		if err := li.wait(ctx, last); err != nil {
			return len(docs), err
		}
	}

	li.logger.Info("Snapshot published to Meilisearch",
		zap.String("index", li.indexName),
		zap.Uint64("generation", snap.Generation),
		zap.Int("documents", len(docs)),
		zap.Duration("duration", time.Since(start)))
	return len(docs), nil
}

// Suggest returns typo-tolerant locality names for query within one
// generation.
func (li *LocalityIndex) Suggest(ctx context.Context, query string, state models.State, generation uint64, limit int) ([]string, error) {
	if query == "" || limit <= 0 {
		return []string{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := li.index.Search(query, &meilisearch.SearchRequest{
		Limit:  int64(limit),
		Filter: FilterGeneration(generation, state),
	})
	if err != nil {
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	out := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if name, ok := hitString(hit, "locality"); ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// wait polls a task until it finishes or the index timeout elapses. It is
// a no-op when the index was built without a client.
func (li *LocalityIndex) wait(ctx context.Context, taskUID int64) error {
	if li.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, li.timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		task, err := li.client.GetTask(taskUID)
		if err != nil {
			return fmt.Errorf("get task %d: %w", taskUID, err)
		}
		switch task.Status {
		case meilisearch.TaskStatusSucceeded:
			return nil
		case meilisearch.TaskStatusFailed, meilisearch.TaskStatusCanceled:
			return fmt.Errorf("task %d %s", taskUID, task.Status)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("task %d: %w", taskUID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func dedupeSorted(s []string) []string {
	j := 0
	for i := range s {
		if i == 0 || s[i] != s[j-1] {
			s[j] = s[i]
			j++
		}
	}
	return s[:j]
}
