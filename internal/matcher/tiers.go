package matcher

import (
	"github.com/postcode-matcher/app/models"
	"github.com/postcode-matcher/internal/dataset"
	"github.com/postcode-matcher/internal/normalizer"
	"github.com/postcode-matcher/internal/phonetic"
	"github.com/postcode-matcher/internal/similarity"
)

// query is a normalized request shared by every tier.
type query struct {
	normalizer.Result
	filter models.State
}

func (q query) accepts(r *models.LocationRecord) bool {
	return q.filter == "" || r.State == q.filter
}

// tier is one resolution strategy. It is a pure function of the snapshot
// and the query and knows nothing about the other tiers.
type tier struct {
	rank models.MatchTier
	run  func(snap *dataset.Snapshot, q query, p tierParams) []models.MatchCandidate
}

type tierParams struct {
	threshold          float64
	phoneticSimilarity float64
}

var pipeline = []tier{
	{rank: models.TierExact, run: exactTier},
	{rank: models.TierAbbreviationNormalized, run: abbreviationTier},
	{rank: models.TierFuzzy, run: fuzzyTier},
	{rank: models.TierPhonetic, run: phoneticTier},
}

// exactTier matches the unexpanded query against each record's normalized
// locality, and against its unexpanded key so "St Kilda" finds "St Kilda"
// even though the stored form reads "saint kilda".
func exactTier(snap *dataset.Snapshot, q query, _ tierParams) []models.MatchCandidate {
	recs := appendDistinct(nil, snap.ByNormalized(q.Literal), q)
	recs = appendDistinct(recs, snap.ByLiteral(q.Literal), q)
	return fixedTier(recs, models.TierExact, q)
}

// abbreviationTier matches the expanded query. It only produces results when
// an expansion actually fired.
func abbreviationTier(snap *dataset.Snapshot, q query, _ tierParams) []models.MatchCandidate {
	if !q.Expanded {
		return nil
	}
	recs := appendDistinct(nil, snap.ByNormalized(q.Normalized), q)
	return fixedTier(recs, models.TierAbbreviationNormalized, q)
}

// fuzzyTier scores every record in scope. No pruning beyond the state
// filter, so nothing above the threshold can be missed.
func fuzzyTier(snap *dataset.Snapshot, q query, p tierParams) []models.MatchCandidate {
	var out []models.MatchCandidate
	for _, r := range snap.Records() {
		if !q.accepts(r) {
			continue
		}
		sim := similarity.Score(q.Normalized, r.NormalizedLocality)
		if sim >= p.threshold {
			out = append(out, models.MatchCandidate{Record: r, Tier: models.TierFuzzy, Similarity: sim})
		}
	}
	return out
}

// phoneticTier collects records sharing any compound variant code with the
// query. Agreement is binary, so every hit gets the same nominal similarity.
func phoneticTier(snap *dataset.Snapshot, q query, p tierParams) []models.MatchCandidate {
	var recs []*models.LocationRecord
	for _, code := range phonetic.CompoundVariants(q.Normalized) {
		recs = appendDistinct(recs, snap.ByPhonetic(code), q)
	}
	out := make([]models.MatchCandidate, 0, len(recs))
	for _, r := range recs {
		out = append(out, models.MatchCandidate{Record: r, Tier: models.TierPhonetic, Similarity: p.phoneticSimilarity})
	}
	return out
}

// fixedTier builds similarity-1 candidates and flags them as state-ambiguous
// when they span more than one state.
func fixedTier(recs []*models.LocationRecord, rank models.MatchTier, q query) []models.MatchCandidate {
	if len(recs) == 0 {
		return nil
	}
	ambiguous := false
	if q.filter == "" {
		for _, r := range recs[1:] {
			if r.State != recs[0].State {
				ambiguous = true
				break
			}
		}
	}
	out := make([]models.MatchCandidate, 0, len(recs))
	for _, r := range recs {
		out = append(out, models.MatchCandidate{Record: r, Tier: rank, Similarity: 1, AmbiguousState: ambiguous})
	}
	return out
}

func appendDistinct(dst, src []*models.LocationRecord, q query) []*models.LocationRecord {
	for _, r := range src {
		if !q.accepts(r) || containsRecord(dst, r) {
			continue
		}
		dst = append(dst, r)
	}
	return dst
}

func containsRecord(recs []*models.LocationRecord, r *models.LocationRecord) bool {
	for _, x := range recs {
		if x == r {
			return true
		}
	}
	return false
}
