// Package search publishes dataset snapshots to Meilisearch and queries it
// for typo-tolerant locality suggestions.
package search

import (
	"fmt"
	"strings"

	ms "github.com/meilisearch/meilisearch-go"

	"github.com/postcode-matcher/app/models"
)

// documentIndex is the part of a Meilisearch index the publisher uses.
type documentIndex interface {
	UpdateSettings(request *ms.Settings) (*ms.TaskInfo, error)
	AddDocuments(documentsPtr interface{}, primaryKey ...string) (*ms.TaskInfo, error)
	Search(query string, request *ms.SearchRequest) (*ms.SearchResponse, error)
}

// FilterGeneration restricts hits to one dataset generation, optionally
// within a state.
func FilterGeneration(generation uint64, state models.State) string {
	if state == "" {
		return fmt.Sprintf("generation = %d", generation)
	}
	return fmt.Sprintf("generation = %d AND state = %q", generation, string(state))
}

// DocumentID builds a Meilisearch-safe primary key for a locality.
func DocumentID(normalized string, state models.State) string {
	var b strings.Builder
	b.Grow(len(normalized) + 4)
	b.WriteString(strings.ToLower(string(state)))
	b.WriteByte('-')
	for _, r := range normalized {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	return b.String()
}

func hitString(hit interface{}, field string) (string, bool) {
	m, ok := hit.(map[string]interface{})
	if !ok {
		return "", false
	}
	s, ok := m[field].(string)
	return s, ok && s != ""
}
