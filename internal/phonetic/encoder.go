// Package phonetic maps normalized locality names to Double Metaphone codes.
//
// The same functions build the codes stored on every record and the codes
// computed for queries, so the two sides always agree.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// compoundPrefixes are split off single-word queries, so "northsydney"
// also probes "north sydney".
var compoundPrefixes = []string{"new", "north", "south", "east", "west", "upper", "lower", "port", "mount"}

const minSplitRemainder = 3

// Encode returns the primary Double Metaphone code of each token, joined by
// single spaces. Empty input gives an empty code.
func Encode(normalized string) string {
	fields := strings.Fields(normalized)
	if len(fields) == 0 {
		return ""
	}
	codes := make([]string, 0, len(fields))
	for _, f := range fields {
		if c := encodeToken(f); c != "" {
			codes = append(codes, c)
		}
	}
	return strings.Join(codes, " ")
}

// EncodeCompound encodes the text with its spaces removed, so "new castle"
// and "newcastle" share a code.
func EncodeCompound(normalized string) string {
	return Encode(strings.Join(strings.Fields(normalized), ""))
}

// TextVariants returns the alternative spellings of a compound name: the
// concatenated form for multi-word input, and for single words that start
// with a common place-name prefix, the split form. The input itself is not
// included.
func TextVariants(normalized string) []string {
	fields := strings.Fields(normalized)
	switch len(fields) {
	case 0:
		return nil
	case 1:
		word := fields[0]
		var out []string
		for _, p := range compoundPrefixes {
			if strings.HasPrefix(word, p) && len(word)-len(p) >= minSplitRemainder {
				out = append(out, p+" "+word[len(p):])
			}
		}
		return out
	default:
		return []string{strings.Join(fields, "")}
	}
}

// CompoundVariants returns the distinct codes a query should be probed with:
// the space-preserved form, the concatenated form, and the split forms from
// TextVariants.
func CompoundVariants(normalized string) []string {
	if len(strings.Fields(normalized)) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, 3)
	var out []string
	add := func(code string) {
		if code == "" {
			return
		}
		if _, ok := seen[code]; ok {
			return
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}

	add(Encode(normalized))
	add(EncodeCompound(normalized))
	for _, v := range TextVariants(normalized) {
		add(Encode(v))
	}
	return out
}

func encodeToken(tok string) string {
	// Double Metaphone only looks at letters.
	letters := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return r
		}
		return -1
	}, tok)
	if letters == "" {
		return ""
	}
	primary, _ := matchr.DoubleMetaphone(strings.ToUpper(letters))
	return primary
}
