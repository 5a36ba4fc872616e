// Package matcher resolves free-text locality queries against a dataset
// snapshot using a fixed pipeline of tiers: exact, abbreviation-normalized,
// fuzzy and phonetic. It also hosts the confidence model and prefix
// autocomplete.
package matcher

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/postcode-matcher/app/models"
	"github.com/postcode-matcher/internal/apperr"
	"github.com/postcode-matcher/internal/dataset"
	"github.com/postcode-matcher/internal/normalizer"
)

// SnapshotProvider hands out the current dataset generation.
type SnapshotProvider interface {
	Current() (*dataset.Snapshot, error)
}

// Config tunes the engine.
type Config struct {
	FuzzyThreshold     float64
	PhoneticSimilarity float64
	MaxLimit           int
	EnableFuzzy        bool
	EnablePhonetic     bool
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		FuzzyThreshold:     0.70,
		PhoneticSimilarity: 0.60,
		MaxLimit:           100,
		EnableFuzzy:        true,
		EnablePhonetic:     true,
	}
}

// Options narrows a single resolve call.
type Options struct {
	State string
	Limit int
	// Threshold overrides the fuzzy acceptance threshold when > 0. It is
	// clamped to [0,1].
	Threshold float64
	// ExactOnly stops after the abbreviation tier.
	ExactOnly bool
}

// Engine is safe for concurrent use; it holds no per-query state.
type Engine struct {
	provider SnapshotProvider
	norm     *normalizer.Normalizer
	cfg      Config
	logger   *zap.Logger
}

// NewEngine builds an engine over provider.
func NewEngine(provider SnapshotProvider, norm *normalizer.Normalizer, cfg Config, logger *zap.Logger) *Engine {
	if norm == nil {
		norm = normalizer.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = DefaultConfig().MaxLimit
	}
	cfg.FuzzyThreshold = clamp01(cfg.FuzzyThreshold)
	return &Engine{provider: provider, norm: norm, cfg: cfg, logger: logger}
}

// Config returns the engine's tuning.
func (e *Engine) Config() Config { return e.cfg }

// Normalizer returns the normalizer queries are run through.
func (e *Engine) Normalizer() *normalizer.Normalizer { return e.norm }

// Resolve returns up to limit ranked candidates for query. An unmatched
// query yields an empty slice and no error.
func (e *Engine) Resolve(q string, state string, limit int) ([]models.MatchCandidate, error) {
	return e.ResolveWith(q, Options{State: state, Limit: limit})
}

// ResolveWith is Resolve with per-call options.
func (e *Engine) ResolveWith(q string, opts Options) ([]models.MatchCandidate, error) {
	filter, err := ParseStateFilter(opts.State)
	if err != nil {
		return nil, err
	}
	if err := e.validateLimit(opts.Limit); err != nil {
		return nil, err
	}
	snap, err := e.provider.Current()
	if err != nil {
		return nil, err
	}
	return e.ResolveIn(snap, q, filter, opts), nil
}

// ResolveIn runs the pipeline against one snapshot. Inputs are assumed valid.
func (e *Engine) ResolveIn(snap *dataset.Snapshot, raw string, filter models.State, opts Options) []models.MatchCandidate {
	start := time.Now()
	q := query{Result: e.norm.Analyze(raw), filter: filter}
	if q.Normalized == "" {
		return []models.MatchCandidate{}
	}

	params := tierParams{threshold: e.cfg.FuzzyThreshold, phoneticSimilarity: e.cfg.PhoneticSimilarity}
	if opts.Threshold > 0 {
		params.threshold = clamp01(opts.Threshold)
	}

	out := make([]models.MatchCandidate, 0, opts.Limit)
	seen := make(map[*models.LocationRecord]struct{})
	for _, t := range pipeline {
		if !e.shouldRun(t.rank, len(out), opts, q) {
			continue
		}
		added := 0
		for _, c := range t.run(snap, q, params) {
			if _, dup := seen[c.Record]; dup {
				continue
			}
			seen[c.Record] = struct{}{}
			c.Confidence, c.Classification = Score(c, filter)
			out = append(out, c)
			added++
		}
		e.logger.Debug("Tier evaluated",
			zap.String("tier", t.rank.String()),
			zap.String("query", q.Normalized),
			zap.Int("added", added))
	}

	sortCandidates(out)
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}

	e.logger.Debug("Resolve complete",
		zap.String("query", raw),
		zap.String("state", string(filter)),
		zap.Uint64("generation", snap.Generation),
		zap.Int("results", len(out)),
		zap.Duration("duration", time.Since(start)))
	return out
}

func (e *Engine) shouldRun(rank models.MatchTier, found int, opts Options, q query) bool {
	switch rank {
	case models.TierExact:
		return true
	case models.TierAbbreviationNormalized:
		return found == 0 && q.Expanded
	case models.TierFuzzy:
		return !opts.ExactOnly && e.cfg.EnableFuzzy && found < opts.Limit
	case models.TierPhonetic:
		return !opts.ExactOnly && e.cfg.EnablePhonetic && found < opts.Limit
	}
	return false
}

// sortCandidates orders by tier, then similarity descending, then locality,
// with state and postcode as final tie-breaks for a deterministic order.
func sortCandidates(cs []models.MatchCandidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.Record.Locality != b.Record.Locality {
			return a.Record.Locality < b.Record.Locality
		}
		if a.Record.State != b.Record.State {
			return a.Record.State < b.Record.State
		}
		return a.Record.Postcode < b.Record.Postcode
	})
}

// Evaluate reports how rec would be matched for the query, using the same
// tier rules as Resolve. ok is false if no tier accepts it.
func (e *Engine) Evaluate(snap *dataset.Snapshot, raw string, rec *models.LocationRecord, filter models.State) (models.MatchCandidate, bool) {
	q := query{Result: e.norm.Analyze(raw), filter: filter}
	if q.Normalized == "" || !q.accepts(rec) {
		return models.MatchCandidate{}, false
	}
	params := tierParams{threshold: e.cfg.FuzzyThreshold, phoneticSimilarity: e.cfg.PhoneticSimilarity}
	opts := Options{Limit: math.MaxInt}

	seen := make(map[*models.LocationRecord]struct{})
	for _, t := range pipeline {
		if !e.shouldRun(t.rank, len(seen), opts, q) {
			continue
		}
		for _, c := range t.run(snap, q, params) {
			if c.Record == rec {
				c.Confidence, c.Classification = Score(c, filter)
				return c, true
			}
			seen[c.Record] = struct{}{}
		}
	}
	return models.MatchCandidate{}, false
}

// LookupIn returns the records a name refers to under the exact and
// abbreviation tiers only, in snapshot order. Fuzzy and phonetic
// candidates are never included.
func (e *Engine) LookupIn(snap *dataset.Snapshot, raw string, filter models.State) []*models.LocationRecord {
	q := query{Result: e.norm.Analyze(raw), filter: filter}
	if q.Normalized == "" {
		return nil
	}
	cs := exactTier(snap, q, tierParams{})
	if len(cs) == 0 {
		cs = abbreviationTier(snap, q, tierParams{})
	}
	out := make([]*models.LocationRecord, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Record)
	}
	return out
}

func (e *Engine) validateLimit(limit int) error {
	if limit <= 0 || limit > e.cfg.MaxLimit {
		return apperr.Invalid("limit", "must be within [1, %d], got %d", e.cfg.MaxLimit, limit)
	}
	return nil
}

// ParseStateFilter turns an optional state code into a filter. "" means no
// filter; anything outside the enumeration is an invalid parameter.
func ParseStateFilter(s string) (models.State, error) {
	if s == "" {
		return "", nil
	}
	st, ok := models.ParseState(s)
	if !ok {
		return "", apperr.Invalid("state", "unknown state %q", s)
	}
	return st, nil
}
