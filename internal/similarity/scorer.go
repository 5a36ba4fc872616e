// Package similarity scores how close two normalized strings are.
package similarity

import (
	"math"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
)

const (
	jaroBoostThreshold = 0.7
	jaroPrefixSize     = 4
)

// Score returns a similarity in [0,1]: the larger of the Levenshtein ratio
// and the Jaro-Winkler similarity. Score(x, x) is 1 for any x, and
// Score(a, b) == Score(b, a).
func Score(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	// Fixed argument order keeps the result symmetric regardless of any
	// order sensitivity in the underlying metrics.
	if b < a {
		a, b = b, a
	}
	return clamp(math.Max(LevenshteinRatio(a, b), JaroWinkler(a, b)))
}

// LevenshteinRatio is 1 - distance/maxLen, measured in runes.
func LevenshteinRatio(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(maxLen)
}

// JaroWinkler uses the conventional 0.7 boost threshold and 4 rune prefix.
func JaroWinkler(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return smetrics.JaroWinkler(a, b, jaroBoostThreshold, jaroPrefixSize)
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
