package scraper

import "strings"

// DefaultMaxQueries bounds the per-source query plan so a single job cannot
// hammer an external API.
const DefaultMaxQueries = 5

// querySuffixes widen single-keyword searches toward the competitor and
// feedback space of the idea.
var querySuffixes = []string{"app", "tool", "software", "alternative"}

// BuildQueries derives a bounded, ordered search-query plan from extracted
// keywords: the keywords themselves, adjacent pairs, then suffixed variants
// of the top keyword. Duplicates are removed preserving first occurrence and
// the plan is capped at max (DefaultMaxQueries when max <= 0).
func BuildQueries(keywords []string, max int) []string {
	if max <= 0 {
		max = DefaultMaxQueries
	}

	var base []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(strings.ToLower(kw))
		if kw == "" {
			continue
		}
		base = append(base, kw)
	}

	candidates := append([]string(nil), base...)
	for i := 0; i+1 < len(base) && i < 3; i++ {
		candidates = append(candidates, base[i]+" "+base[i+1])
	}
	if len(base) > 0 {
		for _, suffix := range querySuffixes {
			candidates = append(candidates, base[0]+" "+suffix)
		}
	}

	seen := make(map[string]bool, len(candidates))
	queries := make([]string, 0, max)
	for _, q := range candidates {
		if seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
		if len(queries) == max {
			break
		}
	}
	return queries
}
