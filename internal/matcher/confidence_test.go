package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/postcode-matcher/app/models"
)

func TestScore(t *testing.T) {
	nsw := &models.LocationRecord{State: models.StateNSW}

	tests := []struct {
		name      string
		candidate models.MatchCandidate
		filter    models.State
		want      float64
		class     models.Classification
	}{
		{"exact", models.MatchCandidate{Record: nsw, Tier: models.TierExact, Similarity: 1}, "", 1.0, models.ClassCertain},
		{"exact ambiguous", models.MatchCandidate{Record: nsw, Tier: models.TierExact, Similarity: 1, AmbiguousState: true}, "", 0.9, models.ClassLikely},
		{"exact ambiguous with filter", models.MatchCandidate{Record: nsw, Tier: models.TierExact, Similarity: 1, AmbiguousState: true}, models.StateNSW, 1.0, models.ClassCertain},
		{"abbreviation", models.MatchCandidate{Record: nsw, Tier: models.TierAbbreviationNormalized, Similarity: 1}, "", 0.95, models.ClassLikely},
		{"abbreviation ambiguous", models.MatchCandidate{Record: nsw, Tier: models.TierAbbreviationNormalized, Similarity: 1, AmbiguousState: true}, "", 0.855, models.ClassLikely},
		{"fuzzy", models.MatchCandidate{Record: nsw, Tier: models.TierFuzzy, Similarity: 0.8}, "", 0.8, models.ClassPossible},
		{"fuzzy state boost", models.MatchCandidate{Record: nsw, Tier: models.TierFuzzy, Similarity: 0.8}, models.StateNSW, 0.85, models.ClassLikely},
		{"fuzzy boost capped", models.MatchCandidate{Record: nsw, Tier: models.TierFuzzy, Similarity: 0.98}, models.StateNSW, 1.0, models.ClassCertain},
		{"fuzzy other state", models.MatchCandidate{Record: nsw, Tier: models.TierFuzzy, Similarity: 0.8}, models.StateVIC, 0.8, models.ClassPossible},
		{"phonetic not boosted", models.MatchCandidate{Record: nsw, Tier: models.TierPhonetic, Similarity: 0.6}, models.StateNSW, 0.6, models.ClassUncertain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, class := Score(tt.candidate, tt.filter)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.Equal(t, tt.class, class)
		})
	}
}

func TestClassifyBoundaries(t *testing.T) {
	assert.Equal(t, models.ClassCertain, Classify(0.951))
	assert.Equal(t, models.ClassLikely, Classify(0.95))
	assert.Equal(t, models.ClassLikely, Classify(0.85))
	assert.Equal(t, models.ClassPossible, Classify(0.8499))
	assert.Equal(t, models.ClassPossible, Classify(0.70))
	assert.Equal(t, models.ClassUncertain, Classify(0.6999))
	assert.Equal(t, models.ClassUncertain, Classify(0))
}
