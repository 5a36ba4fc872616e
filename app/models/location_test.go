package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState(t *testing.T) {
	tests := []struct {
		in    string
		want  State
		valid bool
	}{
		{"NSW", StateNSW, true},
		{" vic ", StateVIC, true},
		{"nt", StateNT, true},
		{"XYZ", State("XYZ"), false},
		{"", State(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseState(tt.in)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStateName(t *testing.T) {
	assert.Equal(t, "Queensland", StateQLD.Name())
	assert.Equal(t, "ZZ", State("ZZ").Name())
	assert.Len(t, States, 8)
}

func TestMatchTierJSON(t *testing.T) {
	out, err := json.Marshal(MatchCandidate{Tier: TierAbbreviationNormalized})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"match_tier":"abbreviation_normalized"`)
	assert.Less(t, int(TierExact), int(TierPhonetic))

	var back MatchCandidate
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, TierAbbreviationNormalized, back.Tier)

	var tier MatchTier
	assert.Error(t, tier.UnmarshalText([]byte("psychic")))
}

func TestHasCoordinates(t *testing.T) {
	lat, lon := -32.9, 151.7
	assert.True(t, (&LocationRecord{Latitude: &lat, Longitude: &lon}).HasCoordinates())
	assert.False(t, (&LocationRecord{Latitude: &lat}).HasCoordinates())
}
