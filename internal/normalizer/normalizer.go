// Package normalizer canonicalizes locality names and free-text queries so
// that they can be compared token for token.
//
// The pipeline is: trim and collapse whitespace, fold to lower-case ASCII,
// strip punctuation other than internal hyphens, then expand abbreviations as
// whole tokens. Output is idempotent: Normalize(Normalize(x)) == Normalize(x).
package normalizer

import (
	"strings"
	"sync"
)

// Result carries both the expanded and unexpanded forms of one input.
type Result struct {
	// Literal is the folded, punctuation-free text with no expansion applied.
	Literal string
	// Normalized is Literal with abbreviations expanded.
	Normalized string
	// Expanded is true when at least one abbreviation fired.
	Expanded bool
}

// Normalizer applies a fixed rule table. It is safe for concurrent use.
type Normalizer struct {
	abbreviations map[string]string
	streetTypes   map[string]struct{}
}

// New builds a Normalizer from the given rules.
func New(rules *Rules) *Normalizer {
	n := &Normalizer{
		abbreviations: make(map[string]string, len(rules.Abbreviations)),
		streetTypes:   make(map[string]struct{}, len(rules.StreetTypes)),
	}
	for k, v := range rules.Abbreviations {
		n.abbreviations[k] = v
	}
	for _, st := range rules.StreetTypes {
		n.streetTypes[st] = struct{}{}
	}
	return n
}

var (
	defaultOnce sync.Once
	defaultNorm *Normalizer
)

// Default returns the Normalizer built from the embedded rule file.
func Default() *Normalizer {
	defaultOnce.Do(func() {
		rules, err := LoadRules()
		if err != nil {
			panic("normalizer: embedded rules are invalid: " + err.Error())
		}
		defaultNorm = New(rules)
	})
	return defaultNorm
}

// Normalize runs the default pipeline.
func Normalize(text string) string {
	return Default().Normalize(text)
}

// Normalize returns the canonical form of text. Whitespace-only input gives "".
func (n *Normalizer) Normalize(text string) string {
	return n.Analyze(text).Normalized
}

// Analyze returns the literal and expanded forms of text.
func (n *Normalizer) Analyze(text string) Result {
	tokens := n.tokens(text)
	if len(tokens) == 0 {
		return Result{}
	}

	literal := strings.Join(tokens, " ")
	expanded := make([]string, len(tokens))
	changed := false
	for i, tok := range tokens {
		out := n.expand(tok, tokens, i)
		if out != tok {
			changed = true
		}
		expanded[i] = out
	}

	return Result{
		Literal:    literal,
		Normalized: strings.Join(expanded, " "),
		Expanded:   changed,
	}
}

// Literal returns the folded, cleaned text without expanding abbreviations.
func (n *Normalizer) Literal(text string) string {
	return strings.Join(n.tokens(text), " ")
}

// tokens folds text and returns its cleaned, non-empty tokens.
func (n *Normalizer) tokens(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	fields := strings.Fields(Fold(text))
	out := fields[:0]
	for _, f := range fields {
		if c := cleanToken(f); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// expand maps one token through the table. "st" stays "st" when the next
// token is a street type: "St Kilda" is a saint, "Smith St Road" is not.
// This is a heuristic and will misfire on odd inputs.
func (n *Normalizer) expand(tok string, tokens []string, i int) string {
	full, ok := n.abbreviations[tok]
	if !ok {
		return tok
	}
	if tok == "st" && i+1 < len(tokens) {
		if _, street := n.streetTypes[tokens[i+1]]; street {
			return tok
		}
	}
	return full
}

// cleanToken keeps ASCII letters, digits and internal hyphens. Runs of
// hyphens collapse to one; leading and trailing hyphens are dropped.
func cleanToken(tok string) string {
	var b strings.Builder
	b.Grow(len(tok))
	lastHyphen := true
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
			lastHyphen = false
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
			lastHyphen = false
		case c == '-':
			if !lastHyphen {
				b.WriteByte(c)
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
