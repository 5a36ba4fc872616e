package normalizer

import (
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks, so "Bélair" becomes "Belair".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// Fold case-folds s down to lower-case ASCII. Marks are stripped first;
// anything still outside ASCII is transliterated.
func Fold(s string) string {
	s = StripDiacritics(s)
	if !isASCII(s) {
		s = unidecode.Unidecode(s)
	}
	// Casers carry state and are not shared between goroutines.
	return cases.Fold().String(s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}
