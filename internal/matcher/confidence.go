package matcher

import (
	"github.com/postcode-matcher/app/models"
)

const (
	exactConfidence        = 1.0
	abbreviationConfidence = 0.95
	ambiguityFactor        = 0.9
	stateBoost             = 0.05
)

// Score converts a candidate's match signals into a confidence in [0,1] and
// its band. filter is the state the caller asked for, or "" for none.
func Score(c models.MatchCandidate, filter models.State) (float64, models.Classification) {
	var conf float64
	switch c.Tier {
	case models.TierExact:
		conf = exactConfidence
		if c.AmbiguousState && filter == "" {
			conf *= ambiguityFactor
		}
	case models.TierAbbreviationNormalized:
		conf = abbreviationConfidence
		if c.AmbiguousState && filter == "" {
			conf *= ambiguityFactor
		}
	case models.TierFuzzy:
		conf = c.Similarity
		if filter != "" && c.Record != nil && c.Record.State == filter {
			conf += stateBoost
		}
	case models.TierPhonetic:
		conf = c.Similarity
	}
	conf = clamp01(conf)
	return conf, Classify(conf)
}

// Classify maps a confidence to its band: above 0.95 certain, from 0.85
// likely, from 0.70 possible, otherwise uncertain.
func Classify(conf float64) models.Classification {
	switch {
	case conf > 0.95:
		return models.ClassCertain
	case conf >= 0.85:
		return models.ClassLikely
	case conf >= 0.70:
		return models.ClassPossible
	default:
		return models.ClassUncertain
	}
}

func clamp01(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
