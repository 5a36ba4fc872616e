package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/postcode-matcher/app/models"
	"github.com/postcode-matcher/internal/apperr"
	"github.com/postcode-matcher/internal/dataset"
	"github.com/postcode-matcher/internal/matcher"
	"github.com/postcode-matcher/internal/normalizer"
	"github.com/postcode-matcher/internal/observability"
	"github.com/postcode-matcher/internal/phonetic"
	"github.com/postcode-matcher/internal/proximity"
)

// Suggester supplies typo-tolerant locality names from an external index.
type Suggester interface {
	Suggest(ctx context.Context, query string, state models.State, generation uint64, limit int) ([]string, error)
}

// LocationServiceConfig holds per-operation defaults and bounds.
type LocationServiceConfig struct {
	DefaultLimit         int
	MaxSuggestions       int
	AutocompleteMinChars int
	DefaultRadiusKm      float64
	NeighbourRadiusKm    float64
	MaxNeighbours        int
	DefaultNeighbours    int
}

// DefaultLocationServiceConfig returns the stock defaults.
func DefaultLocationServiceConfig() LocationServiceConfig {
	return LocationServiceConfig{
		DefaultLimit:         10,
		MaxSuggestions:       5,
		AutocompleteMinChars: 2,
		DefaultRadiusKm:      10,
		NeighbourRadiusKm:    8,
		MaxNeighbours:        50,
		DefaultNeighbours:    10,
	}
}

// compoundVariantConfidence is reported when a spoken name matches only
// after joining or splitting its words.
const compoundVariantConfidence = 0.95

// looseThresholdFactor widens the fuzzy threshold for a second pass when
// the first finds nothing.
const looseThresholdFactor = 0.7

// spellingThreshold is the fuzzy threshold for spelling corrections.
const spellingThreshold = 0.7

// LocationService answers every locality query. Each call reads exactly
// one snapshot, so a reload in the middle of a call is never observed.
type LocationService struct {
	store     matcher.SnapshotProvider
	matcher   *matcher.Engine
	proximity *proximity.Engine
	cache     ICacheService
	suggester Suggester
	metrics   *observability.Metrics
	cfg       LocationServiceConfig
	logger    *zap.Logger
}

// NewLocationService wires the engines together. cache, suggester and
// metrics may be nil.
func NewLocationService(
	store matcher.SnapshotProvider,
	m *matcher.Engine,
	p *proximity.Engine,
	cache ICacheService,
	suggester Suggester,
	metrics *observability.Metrics,
	cfg LocationServiceConfig,
	logger *zap.Logger,
) *LocationService {
	if cache == nil {
		cache = NoopCache{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultLocationServiceConfig()
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = def.MaxSuggestions
	}
	if cfg.AutocompleteMinChars <= 0 {
		cfg.AutocompleteMinChars = def.AutocompleteMinChars
	}
	if cfg.DefaultRadiusKm <= 0 {
		cfg.DefaultRadiusKm = def.DefaultRadiusKm
	}
	if cfg.NeighbourRadiusKm <= 0 {
		cfg.NeighbourRadiusKm = def.NeighbourRadiusKm
	}
	if cfg.MaxNeighbours <= 0 {
		cfg.MaxNeighbours = def.MaxNeighbours
	}
	if cfg.DefaultNeighbours <= 0 || cfg.DefaultNeighbours > cfg.MaxNeighbours {
		cfg.DefaultNeighbours = min(def.DefaultNeighbours, cfg.MaxNeighbours)
	}
	return &LocationService{
		store:     store,
		matcher:   m,
		proximity: p,
		cache:     cache,
		suggester: suggester,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
	}
}

// Config returns the effective defaults.
func (s *LocationService) Config() LocationServiceConfig { return s.cfg }

func (s *LocationService) track(op string) func(found int, err error) {
	start := time.Now()
	return func(found int, err error) {
		s.metrics.ObserveQuery(op, start, found, err)
	}
}

// cacheKey scopes a key to one snapshot generation.
func cacheKey(generation uint64, op string, parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return fmt.Sprintf("g%d:%s:%s", generation, op, hex.EncodeToString(h[:12]))
}

// withCache returns the cached value for key or computes and stores it.
// Cache failures are logged and never fail the query.
func withCache[T any](ctx context.Context, s *LocationService, key string, compute func() T) T {
	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("Cache get failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			s.metrics.CacheLookup(true)
			return v
		}
		s.logger.Warn("Discarding undecodable cache entry", zap.String("key", key))
	}
	s.metrics.CacheLookup(false)

	v := compute()
	if raw, err := json.Marshal(v); err == nil {
		if err := s.cache.Set(ctx, key, raw); err != nil {
			s.logger.Warn("Cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return v
}

func (s *LocationService) limitOrDefault(limit int) (int, error) {
	if limit == 0 {
		limit = s.cfg.DefaultLimit
	}
	maxLimit := s.matcher.Config().MaxLimit
	if limit < 1 || limit > maxLimit {
		return 0, apperr.Invalid("limit", "must be within [1, %d], got %d", maxLimit, limit)
	}
	return limit, nil
}

func requireText(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", apperr.Invalid(field, "must not be empty")
	}
	return v, nil
}

// Resolve runs the tiered match pipeline. limit 0 means the default.
func (s *LocationService) Resolve(ctx context.Context, q, state string, limit int) (out []models.MatchCandidate, err error) {
	done := s.track("resolve")
	defer func() { done(len(out), err) }()

	filter, err := matcher.ParseStateFilter(state)
	if err != nil {
		return nil, err
	}
	if limit, err = s.limitOrDefault(limit); err != nil {
		return nil, err
	}
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}

	key := cacheKey(snap.Generation, "resolve", q, string(filter), fmt.Sprint(limit))
	return withCache(ctx, s, key, func() []models.MatchCandidate {
		return s.matcher.ResolveIn(snap, q, filter, matcher.Options{Limit: limit})
	}), nil
}

// Score reports how the record identified by postcode, locality and state
// would be matched for q under an optional state filter, with the same
// confidence Resolve would give it. matched is false when no tier accepts
// it, including when the filter excludes the record's state.
func (s *LocationService) Score(ctx context.Context, q, postcode, locality, state, stateFilter string) (c models.MatchCandidate, matched bool, err error) {
	done := s.track("score")
	defer func() { done(1, err) }()

	st, ok := models.ParseState(state)
	if !ok {
		return c, false, apperr.Invalid("state", "unknown state %q", state)
	}
	filter, err := matcher.ParseStateFilter(stateFilter)
	if err != nil {
		return c, false, apperr.Invalid("state_filter", "unknown state %q", stateFilter)
	}
	postcode = strings.TrimSpace(postcode)
	if !dataset.IsPostcode(postcode) {
		return c, false, apperr.Invalid("postcode", "must be 4 digits")
	}
	snap, err := s.store.Current()
	if err != nil {
		return c, false, err
	}

	want := s.matcher.Normalizer().Normalize(locality)
	for _, r := range snap.ByPostcode(postcode) {
		if r.State == st && r.NormalizedLocality == want {
			c, matched = s.matcher.Evaluate(snap, q, r, filter)
			if !matched {
				c = models.MatchCandidate{Record: r, Classification: models.ClassUncertain}
			}
			return c, matched, nil
		}
	}
	return c, false, apperr.Invalid("locality", "no record %q %s %s", locality, postcode, st)
}

// SearchByPostcode returns every record with the postcode, by locality.
func (s *LocationService) SearchByPostcode(ctx context.Context, postcode string) (out []*models.LocationRecord, err error) {
	done := s.track("search_postcode")
	defer func() { done(len(out), err) }()

	postcode = strings.TrimSpace(postcode)
	if !dataset.IsPostcode(postcode) {
		return nil, apperr.Invalid("postcode", "must be 4 digits, got %q", postcode)
	}
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	return sortedByLocality(snap.ByPostcode(postcode)), nil
}

// SearchByLocality looks a name up with the exact and abbreviation tiers.
func (s *LocationService) SearchByLocality(ctx context.Context, name, state string) (out *models.LocalitySearch, err error) {
	done := s.track("search_locality")
	defer func() {
		n := 0
		if out != nil {
			n = len(out.Records)
		}
		done(n, err)
	}()

	if name, err = requireText("locality", name); err != nil {
		return nil, err
	}
	filter, err := matcher.ParseStateFilter(state)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	recs := s.matcher.LookupIn(snap, name, filter)
	return &models.LocalitySearch{
		Query:     name,
		Records:   nonNilRecords(recs),
		Postcodes: distinctPostcodes(recs),
	}, nil
}

// ValidateLocalityPostcode checks that a locality has the postcode. On
// failure the result lists what each half is valid with.
func (s *LocationService) ValidateLocalityPostcode(ctx context.Context, locality, postcode, state string) (out *models.PostcodeValidation, err error) {
	done := s.track("validate")
	defer func() { done(1, err) }()

	if locality, err = requireText("locality", locality); err != nil {
		return nil, err
	}
	postcode = strings.TrimSpace(postcode)
	if !dataset.IsPostcode(postcode) {
		return nil, apperr.Invalid("postcode", "must be 4 digits, got %q", postcode)
	}
	filter, err := matcher.ParseStateFilter(state)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}

	out = &models.PostcodeValidation{Locality: locality, Postcode: postcode, State: filter}
	recs := s.matcher.LookupIn(snap, locality, filter)
	for _, r := range recs {
		if r.Postcode == postcode {
			out.Valid = true
			out.Record = r
			out.State = r.State
			return out, nil
		}
	}

	out.LocalitiesForPostcode = firstN(distinctLocalities(sortedByLocality(snap.ByPostcode(postcode))), 3)
	out.PostcodesForLocality = firstN(distinctPostcodes(recs), 3)
	if len(out.LocalitiesForPostcode) > 0 {
		out.Suggestions = append(out.Suggestions, fmt.Sprintf("Postcode %s is valid for: %s",
			postcode, strings.Join(out.LocalitiesForPostcode, ", ")))
	}
	if len(out.PostcodesForLocality) > 0 {
		out.Suggestions = append(out.Suggestions, fmt.Sprintf("%s has postcode(s): %s",
			locality, strings.Join(out.PostcodesForLocality, ", ")))
	}
	return out, nil
}

// LocationDetails accepts a postcode, a locality, or "locality, state"
// where state is a code or a full state name.
func (s *LocationService) LocationDetails(ctx context.Context, query string) (out *models.LocationDetails, err error) {
	done := s.track("details")
	defer func() {
		n := 0
		if out != nil {
			n = len(out.Records)
		}
		done(n, err)
	}()

	if query, err = requireText("query", query); err != nil {
		return nil, err
	}
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}

	if dataset.IsPostcode(query) {
		recs := sortedByLocality(snap.ByPostcode(query))
		return &models.LocationDetails{
			Input:     query,
			QueryType: "postcode",
			Records:   recs,
			Postcodes: distinctPostcodes(recs),
		}, nil
	}

	name, state := query, models.State("")
	if i := strings.LastIndex(query, ","); i >= 0 {
		name = strings.TrimSpace(query[:i])
		state = stateFromText(query[i+1:])
	}
	recs := s.matcher.LookupIn(snap, name, state)
	return &models.LocationDetails{
		Input:     query,
		QueryType: "locality",
		State:     state,
		Records:   nonNilRecords(recs),
		Postcodes: distinctPostcodes(recs),
	}, nil
}

// FindSimilar groups resolve candidates by locality. threshold 0 uses the
// engine default; when nothing clears it a second pass runs at 70% of it.
func (s *LocationService) FindSimilar(ctx context.Context, q, state string, threshold float64) (out *models.SimilarResult, err error) {
	done := s.track("similar")
	defer func() {
		n := 0
		if out != nil {
			n = len(out.Matches)
		}
		done(n, err)
	}()

	if q, err = requireText("query", q); err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 1 {
		return nil, apperr.Invalid("threshold", "must be within [0, 1], got %g", threshold)
	}
	if threshold == 0 {
		threshold = s.matcher.Config().FuzzyThreshold
	}
	filter, err := matcher.ParseStateFilter(state)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}

	key := cacheKey(snap.Generation, "similar", q, string(filter), fmt.Sprint(threshold))
	return withCache(ctx, s, key, func() *models.SimilarResult {
		res := &models.SimilarResult{Query: q, Matches: []models.SimilarLocality{}}
		limit := s.matcher.Config().MaxLimit

		cands := s.matcher.ResolveIn(snap, q, filter, matcher.Options{Limit: limit, Threshold: threshold})
		if len(cands) == 0 {
			cands = s.matcher.ResolveIn(snap, q, filter, matcher.Options{Limit: limit, Threshold: threshold * looseThresholdFactor})
		}
		if len(cands) == 0 {
			return res
		}

		res.ExactMatch = cands[0].Tier == models.TierExact
		res.Matches = groupCandidates(cands, s.cfg.MaxSuggestions)
		res.Confidence = res.Matches[0].Confidence
		if !res.ExactMatch {
			res.Suggestion = fmt.Sprintf("Did you mean '%s'?", res.Matches[0].Locality)
		}
		return res
	}), nil
}

// Autocomplete returns locality names starting with prefix. When the
// dataset has fewer than limit and an external index is configured, its
// typo-tolerant hits fill the remainder.
func (s *LocationService) Autocomplete(ctx context.Context, prefix, state string, limit int) (out []string, err error) {
	done := s.track("autocomplete")
	defer func() { done(len(out), err) }()

	prefix = strings.TrimSpace(prefix)
	if utf8.RuneCountInString(prefix) < s.cfg.AutocompleteMinChars {
		return nil, apperr.Invalid("prefix", "must be at least %d characters", s.cfg.AutocompleteMinChars)
	}
	filter, err := matcher.ParseStateFilter(state)
	if err != nil {
		return nil, err
	}
	if limit, err = s.limitOrDefault(limit); err != nil {
		return nil, err
	}
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}

	out = s.matcher.AutocompleteIn(snap, prefix, filter, limit)
	if len(out) >= limit || s.suggester == nil {
		return out, nil
	}

	extra, err := s.suggester.Suggest(ctx, prefix, filter, snap.Generation, limit)
	if err != nil {
		s.logger.Warn("Autocomplete index unavailable", zap.Error(err))
		return out, nil
	}
	seen := make(map[string]struct{}, len(out))
	for _, name := range out {
		seen[strings.ToLower(name)] = struct{}{}
	}
	for _, name := range extra {
		if len(out) == limit {
			break
		}
		if _, dup := seen[strings.ToLower(name)]; dup {
			continue
		}
		seen[strings.ToLower(name)] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

// ValidateSpelling reports whether name is a known locality and, if not,
// the closest fuzzy corrections.
func (s *LocationService) ValidateSpelling(ctx context.Context, name string) (out *models.SpellingResult, err error) {
	done := s.track("spelling")
	defer func() { done(1, err) }()

	if name, err = requireText("name", name); err != nil {
		return nil, err
	}
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}

	key := cacheKey(snap.Generation, "spelling", name)
	return withCache(ctx, s, key, func() *models.SpellingResult {
		res := &models.SpellingResult{Query: name, Corrections: []models.SimilarLocality{}}
		if len(s.matcher.LookupIn(snap, name, "")) > 0 {
			res.Correct = true
			res.Confidence = 1
			return res
		}

		cands := s.matcher.ResolveIn(snap, name, "", matcher.Options{
			Limit:     s.matcher.Config().MaxLimit,
			Threshold: spellingThreshold,
		})
		fuzzy := cands[:0]
		for _, c := range cands {
			if c.Tier == models.TierFuzzy {
				fuzzy = append(fuzzy, c)
			}
		}
		if len(fuzzy) == 0 {
			return res
		}
		res.Corrections = groupCandidates(fuzzy, s.cfg.MaxSuggestions)
		res.Suggested = res.Corrections[0].Locality
		res.Confidence = res.Corrections[0].Confidence
		return res
	}), nil
}

// PhoneticSearch resolves a name as heard rather than as spelled: an exact
// match first, then a joined or split compound form, then sound-alikes.
func (s *LocationService) PhoneticSearch(ctx context.Context, spoken string) (out *models.PhoneticResult, err error) {
	done := s.track("phonetic")
	defer func() {
		n := 0
		if out != nil {
			n = len(out.Matches)
		}
		done(n, err)
	}()

	if spoken, err = requireText("query", spoken); err != nil {
		return nil, err
	}
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}

	key := cacheKey(snap.Generation, "phonetic", spoken)
	return withCache(ctx, s, key, func() *models.PhoneticResult {
		res := &models.PhoneticResult{Query: spoken, Matches: []models.SimilarLocality{}}

		if recs := s.matcher.LookupIn(snap, spoken, ""); len(recs) > 0 {
			res.MatchType = models.PhoneticMatchExact
			res.Confidence = 1
			res.Matches = groupRecords(recs, models.TierExact, 1)
			return res
		}

		normalized := s.matcher.Normalizer().Normalize(spoken)
		for _, v := range phonetic.TextVariants(normalized) {
			if recs := s.matcher.LookupIn(snap, v, ""); len(recs) > 0 {
				res.MatchType = models.PhoneticMatchCompound
				res.MatchedVariant = v
				res.Confidence = compoundVariantConfidence
				res.Matches = groupRecords(recs, models.TierAbbreviationNormalized, compoundVariantConfidence)
				return res
			}
		}

		var sounds []models.MatchCandidate
		for _, c := range s.matcher.ResolveIn(snap, spoken, "", matcher.Options{Limit: s.matcher.Config().MaxLimit}) {
			if c.Tier == models.TierPhonetic {
				sounds = append(sounds, c)
			}
		}
		if len(sounds) == 0 {
			return res
		}
		res.MatchType = models.PhoneticMatchSound
		res.Matches = groupCandidates(sounds, s.cfg.MaxSuggestions)
		res.Confidence = res.Matches[0].Confidence
		res.Suggestion = fmt.Sprintf("Did you say '%s'?", res.Matches[0].Locality)
		return res
	}), nil
}

// Normalize exposes the normalizer and phonetic encoder for diagnostics.
func (s *LocationService) Normalize(text string) models.NormalizedText {
	res := s.matcher.Normalizer().Analyze(text)
	return models.NormalizedText{
		Input:        text,
		Literal:      res.Literal,
		Normalized:   res.Normalized,
		Expanded:     res.Expanded,
		PhoneticCode: phonetic.Encode(res.Normalized),
	}
}

// PhoneticEncode returns the codes the normalized text is probed with: the
// space-preserved code first, then the compound variants, so "new castle"
// and "newcastle" share a code.
func (s *LocationService) PhoneticEncode(text string) []string {
	codes := phonetic.CompoundVariants(s.matcher.Normalizer().Normalize(text))
	if codes == nil {
		return []string{}
	}
	return codes
}

// StateStatistics returns per-state counts, or one state when given.
func (s *LocationService) StateStatistics(ctx context.Context, state string) (out []models.StateStats, err error) {
	done := s.track("state_stats")
	defer func() { done(len(out), err) }()

	filter, err := matcher.ParseStateFilter(state)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	out = []models.StateStats{}
	for _, st := range snap.Stats().ByState {
		if filter == "" || st.State == filter {
			out = append(out, st)
		}
	}
	return out, nil
}

// DatasetStats returns the whole-snapshot summary.
func (s *LocationService) DatasetStats(ctx context.Context) (models.DatasetStats, error) {
	snap, err := s.store.Current()
	if err != nil {
		return models.DatasetStats{}, err
	}
	return snap.Stats(), nil
}

func stateFromText(s string) models.State {
	s = strings.TrimSpace(s)
	if st, ok := models.ParseState(s); ok {
		return st
	}
	folded := normalizer.Fold(s)
	for _, st := range models.States {
		if normalizer.Fold(st.Name()) == folded {
			return st
		}
	}
	return ""
}

// groupCandidates merges candidates by locality and state set, keeping the
// first (best ranked) candidate's tier and confidence.
func groupCandidates(cands []models.MatchCandidate, maxGroups int) []models.SimilarLocality {
	var out []models.SimilarLocality
	index := make(map[string]int)
	for _, c := range cands {
		key := c.Record.NormalizedLocality
		i, ok := index[key]
		if !ok {
			if len(out) == maxGroups {
				continue
			}
			index[key] = len(out)
			out = append(out, models.SimilarLocality{
				Locality:       c.Record.Locality,
				Tier:           c.Tier,
				Confidence:     c.Confidence,
				Classification: c.Classification,
			})
			i = len(out) - 1
		}
		out[i].States = appendState(out[i].States, c.Record.State)
		out[i].Postcodes = appendString(out[i].Postcodes, c.Record.Postcode)
	}
	for i := range out {
		sort.Strings(out[i].Postcodes)
	}
	return out
}

func groupRecords(recs []*models.LocationRecord, tier models.MatchTier, confidence float64) []models.SimilarLocality {
	cands := make([]models.MatchCandidate, 0, len(recs))
	for _, r := range recs {
		cands = append(cands, models.MatchCandidate{
			Record:         r,
			Tier:           tier,
			Similarity:     1,
			Confidence:     confidence,
			Classification: matcher.Classify(confidence),
		})
	}
	return groupCandidates(cands, len(cands))
}

func appendState(states []models.State, st models.State) []models.State {
	for _, x := range states {
		if x == st {
			return states
		}
	}
	return append(states, st)
}

func appendString(xs []string, s string) []string {
	for _, x := range xs {
		if x == s {
			return xs
		}
	}
	return append(xs, s)
}

func sortedByLocality(recs []*models.LocationRecord) []*models.LocationRecord {
	out := make([]*models.LocationRecord, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Locality != out[j].Locality {
			return out[i].Locality < out[j].Locality
		}
		return out[i].State < out[j].State
	})
	return out
}

func nonNilRecords(recs []*models.LocationRecord) []*models.LocationRecord {
	if recs == nil {
		return []*models.LocationRecord{}
	}
	return recs
}

func distinctPostcodes(recs []*models.LocationRecord) []string {
	out := []string{}
	for _, r := range recs {
		out = appendString(out, r.Postcode)
	}
	sort.Strings(out)
	return out
}

func distinctLocalities(recs []*models.LocationRecord) []string {
	out := []string{}
	for _, r := range recs {
		out = appendString(out, r.Locality)
	}
	return out
}

func firstN(xs []string, n int) []string {
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}
