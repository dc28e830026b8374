// Package dedup removes duplicate competitor and feedback records collected
// across sources. Both passes are deterministic, insertion-stable and
// idempotent: the first occurrence of a key wins and order is preserved.
package dedup

import (
	"strings"

	"github.com/ignite/idea-validator/internal/domain"
)

// feedbackKeyLen is how much of the text identifies a feedback item. Review
// sites syndicate the same review with different trailing boilerplate, so a
// prefix key catches more real duplicates than the full text.
const feedbackKeyLen = 50

// Competitors drops records whose lowercased, trimmed name was already seen,
// plus records whose name key is shorter than 2 characters. The competitor's
// website domain is a secondary key: two names pointing at one domain are the
// same product listed under different titles.
func Competitors(in []domain.CompetitorRecord) []domain.CompetitorRecord {
	out := make([]domain.CompetitorRecord, 0, len(in))
	seenNames := make(map[string]bool, len(in))
	seenDomains := make(map[string]bool, len(in))

	for _, c := range in {
		nameKey := strings.ToLower(strings.TrimSpace(c.Name))
		if len(nameKey) < 2 {
			continue
		}
		domainKey := websiteKey(c.Website)
		if seenNames[nameKey] || (domainKey != "" && seenDomains[domainKey]) {
			continue
		}
		seenNames[nameKey] = true
		if domainKey != "" {
			seenDomains[domainKey] = true
		}
		out = append(out, c)
	}
	return out
}

// Feedback drops records whose key (first 50 lowercased characters of the
// text) was already seen, plus records with fewer than 10 characters of text.
func Feedback(in []domain.FeedbackRecord) []domain.FeedbackRecord {
	out := make([]domain.FeedbackRecord, 0, len(in))
	seen := make(map[string]bool, len(in))

	for _, f := range in {
		key := strings.ToLower(strings.TrimSpace(f.Text))
		if len(key) < 10 {
			continue
		}
		if len(key) > feedbackKeyLen {
			key = key[:feedbackKeyLen]
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

// websiteKey reduces a URL to its registrable-ish host for comparison.
func websiteKey(website string) string {
	w := strings.ToLower(strings.TrimSpace(website))
	if w == "" {
		return ""
	}
	w = strings.TrimPrefix(w, "https://")
	w = strings.TrimPrefix(w, "http://")
	if i := strings.IndexAny(w, "/?#"); i >= 0 {
		w = w[:i]
	}
	return strings.TrimPrefix(w, "www.")
}
