package models

import "fmt"

// MatchTier ranks resolution strategies. Lower values outrank higher ones.
type MatchTier int

const (
	TierExact MatchTier = iota
	TierAbbreviationNormalized
	TierFuzzy
	TierPhonetic
)

func (t MatchTier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierAbbreviationNormalized:
		return "abbreviation_normalized"
	case TierFuzzy:
		return "fuzzy"
	case TierPhonetic:
		return "phonetic"
	default:
		return "unknown"
	}
}

// MarshalText renders the tier by name in JSON payloads.
func (t MatchTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a tier name written by MarshalText.
func (t *MatchTier) UnmarshalText(b []byte) error {
	for _, c := range []MatchTier{TierExact, TierAbbreviationNormalized, TierFuzzy, TierPhonetic} {
		if c.String() == string(b) {
			*t = c
			return nil
		}
	}
	return fmt.Errorf("unknown match tier %q", b)
}

// Classification is the confidence band attached to a score.
type Classification string

const (
	ClassCertain   Classification = "certain"
	ClassLikely    Classification = "likely"
	ClassPossible  Classification = "possible"
	ClassUncertain Classification = "uncertain"
)

// MatchCandidate is one ranked result of a resolve call.
type MatchCandidate struct {
	Record         *LocationRecord `json:"record"`
	Tier           MatchTier       `json:"match_tier"`
	Similarity     float64         `json:"similarity"`
	Confidence     float64         `json:"confidence"`
	Classification Classification  `json:"classification"`

	// AmbiguousState is set when the locality matched in more than one state
	// and no state filter narrowed the query.
	AmbiguousState bool `json:"ambiguous_state,omitempty"`
}
