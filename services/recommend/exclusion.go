package recommend

import (
	"strings"

	"curator/internal/metrics"
	"curator/models"
)

// ExclusionSet holds titles the caller has already seen, keyed lower-cased and trimmed.
type ExclusionSet map[string]struct{}

func exclusionKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// NewExclusionSet merges any number of title lists.
func NewExclusionSet(lists ...[]string) ExclusionSet {
	set := make(ExclusionSet)
	for _, list := range lists {
		for _, t := range list {
			if k := exclusionKey(t); k != "" {
				set[k] = struct{}{}
			}
		}
	}
	return set
}

func (e ExclusionSet) Contains(title string) bool {
	_, ok := e[exclusionKey(title)]
	return ok
}

// filterRecommendations drops untitled, excluded and repeated recommendations,
// keeping the first occurrence of each title.
func filterRecommendations(recs []models.EnrichedRecommendation, excluded ExclusionSet) []models.EnrichedRecommendation {
	out := make([]models.EnrichedRecommendation, 0, len(recs))
	seen := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		key := exclusionKey(rec.Title)
		if key == "" {
			continue
		}
		if excluded.Contains(key) {
			metrics.ExcludedRecommendations.Inc()
			continue
		}
		if _, dup := seen[key]; dup {
			metrics.ExcludedRecommendations.Inc()
			continue
		}
		seen[key] = struct{}{}
		if rec.Tags == nil {
			rec.Tags = []string{}
		}
		out = append(out, rec)
	}
	return out
}
