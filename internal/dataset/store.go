package dataset

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/postcode-matcher/app/models"
	"github.com/postcode-matcher/internal/apperr"
)

// Store owns the current snapshot. Readers call Current and keep the
// returned pointer for the whole query; Reload builds the next generation
// off to the side and publishes it with one atomic store, so a query never
// sees a mix of two generations.
type Store struct {
	source Source
	opts   BuildOptions
	logger *zap.Logger

	current atomic.Pointer[Snapshot]

	mu         sync.Mutex // serializes reloads
	generation uint64
}

// NewStore creates an empty store. Call Reload or Publish before querying.
func NewStore(source Source, opts BuildOptions, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{source: source, opts: opts, logger: logger}
}

// Current returns the published snapshot, or ErrDatasetUnavailable before
// the first successful load.
func (s *Store) Current() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, apperr.ErrDatasetUnavailable
	}
	return snap, nil
}

// Ready reports whether a snapshot has been published.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// Reload reads the source and publishes a new generation. On failure the
// previous generation stays current.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	if s.source == nil {
		return nil, fmt.Errorf("reload: no dataset source configured")
	}
	rows, err := s.source.Load(ctx)
	if err != nil {
		s.logger.Error("Dataset reload failed",
			zap.String("source", s.source.Name()),
			zap.Error(err))
		return nil, fmt.Errorf("reload from %s: %w", s.source.Name(), err)
	}
	return s.Publish(rows, s.source.Name()), nil
}

// Publish builds a snapshot from rows and makes it current.
func (s *Store) Publish(rows []models.LocationRecord, source string) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	snap := Build(s.generation, source, rows, s.opts)
	s.current.Store(snap)

	s.logger.Info("Dataset generation published",
		zap.Uint64("generation", snap.Generation),
		zap.String("source", source),
		zap.Int("records", snap.Len()),
		zap.Int("skipped", snap.Skipped),
		zap.Int("with_coordinates", snap.Spatial().Len()))
	return snap
}
