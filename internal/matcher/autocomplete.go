package matcher

import (
	"sort"

	"github.com/postcode-matcher/app/models"
	"github.com/postcode-matcher/internal/dataset"
)

// Autocomplete returns up to limit distinct locality names whose normalized
// form starts with the prefix, in lexicographic order of that form. Both the
// literal and the abbreviation-expanded prefix are scanned, so "s" still
// offers "Sydney" even though it expands to "south".
func (e *Engine) Autocomplete(prefix, state string, limit int) ([]string, error) {
	filter, err := ParseStateFilter(state)
	if err != nil {
		return nil, err
	}
	if err := e.validateLimit(limit); err != nil {
		return nil, err
	}
	snap, err := e.provider.Current()
	if err != nil {
		return nil, err
	}
	return e.AutocompleteIn(snap, prefix, filter, limit), nil
}

// AutocompleteIn runs the prefix scan against one snapshot.
func (e *Engine) AutocompleteIn(snap *dataset.Snapshot, prefix string, filter models.State, limit int) []string {
	res := e.norm.Analyze(prefix)
	if res.Normalized == "" {
		return []string{}
	}

	names := snap.WithPrefix(res.Literal)
	if res.Expanded {
		names = mergeSorted(names, snap.WithPrefix(res.Normalized))
	}

	out := make([]string, 0, limit)
	for _, name := range names {
		if len(out) == limit {
			break
		}
		for _, r := range snap.ByNormalized(name) {
			if filter == "" || r.State == filter {
				out = append(out, r.Locality)
				break
			}
		}
	}
	return out
}

// mergeSorted unions two sorted, duplicate-free slices.
func mergeSorted(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.Strings(out)
	j := 0
	for i := range out {
		if i == 0 || out[i] != out[j-1] {
			out[j] = out[i]
			j++
		}
	}
	return out[:j]
}
