package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \t\n ", ""},
		{"case and spaces", "  NEWCASTLE   West ", "newcastle west"},
		{"mt expands", "Mt Isa", "mount isa"},
		{"mt with period", "Mt. Druitt", "mount druitt"},
		{"mount stays", "Mount Isa", "mount isa"},
		{"st as saint", "St Kilda", "saint kilda"},
		{"st before street type", "Smith St Road", "smith st road"},
		{"st at end", "Bowen St", "bowen saint"},
		{"nth and sth", "Nth Sydney Sth", "north sydney south"},
		{"pt and ck", "Pt Lincoln Ck", "port lincoln creek"},
		{"hts", "Bass Hill Hts", "bass hill heights"},
		{"apostrophe dropped", "O'Connor", "oconnor"},
		{"internal hyphen kept", "Kurri-Kurri", "kurri-kurri"},
		{"edge hyphens dropped", "-Kurri- Kurri-", "kurri kurri"},
		{"punctuation only token dropped", "Wagga , Wagga", "wagga wagga"},
		{"diacritics folded", "Bélair", "belair"},
		{"substring not expanded", "Mtwest Stanley", "mtwest stanley"},
		{"digits kept", "Area 51", "area 51"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Mt Isa", "St Kilda", "Smith St Road", "St St", "s.t. leonards",
		"O'Connor", "-a--b-", "Nth. Sth.", "Bélair  Hts", "ST RD ST",
		"Mount Mt", "Pt. Pt", "E W N S", "mt-isa", "St  Street St",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			once := Normalize(in)
			assert.Equal(t, once, Normalize(once))
		})
	}
}

func TestAnalyze(t *testing.T) {
	n := Default()

	r := n.Analyze("Mt Isa")
	assert.Equal(t, "mt isa", r.Literal)
	assert.Equal(t, "mount isa", r.Normalized)
	assert.True(t, r.Expanded)

	r = n.Analyze("Mount Isa")
	assert.Equal(t, "mount isa", r.Literal)
	assert.False(t, r.Expanded)

	r = n.Analyze("   ")
	assert.Equal(t, Result{}, r)

	assert.Equal(t, "st kilda", n.Literal("St. Kilda"))
}

func TestParseRulesRejectsUnstableTables(t *testing.T) {
	_, err := ParseRules([]byte("abbreviations:\n  mt: mount\n  mount: mountain\n"))
	require.Error(t, err)

	_, err = ParseRules([]byte("abbreviations:\n  rd: road\nstreet_types:\n  - rd\n"))
	require.Error(t, err)

	_, err = ParseRules([]byte("abbreviations:\n  pde: parade\nstreet_types:\n  - parade\n"))
	require.Error(t, err)

	_, err = ParseRules([]byte("abbreviations: [broken"))
	require.Error(t, err)
}

func TestEmbeddedRulesLoad(t *testing.T) {
	rules, err := LoadRules()
	require.NoError(t, err)
	assert.Equal(t, "mount", rules.Abbreviations["mt"])
	assert.Equal(t, "mount", rules.Abbreviations["mount"])
	assert.Contains(t, rules.StreetTypes, "road")

	require.NotPanics(t, func() { Default() })
	assert.Equal(t, "mount isa", Default().Normalize("Mt Isa"))
	assert.Equal(t, "mount isa", Default().Normalize("Mount Isa"))
}

func TestParseRulesChaining(t *testing.T) {
	_, err := ParseRules([]byte("abbreviations:\n  mt: mount\n  mount: mount\n"))
	assert.NoError(t, err)

	_, err = ParseRules([]byte("abbreviations:\n  mt: mount\n  mount: mountain\n"))
	assert.Error(t, err)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "belair", Fold("BÉLAIR"))
	assert.Equal(t, "strasse", Fold("Straße"))
	assert.Equal(t, "plain", Fold("plain"))
}
