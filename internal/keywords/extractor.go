// Package keywords turns free-form idea text into an ordered list of search
// keywords. Extraction is deterministic: the same idea text always yields the
// same keywords in the same order.
package keywords

import (
	"regexp"
	"sort"
	"strings"
)

// MaxKeywords is the default cap on extracted keywords.
const MaxKeywords = 10

// stopWords are filtered out before scoring.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "he": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"that": true, "the": true, "to": true, "was": true, "will": true,
	"with": true, "would": true, "could": true, "should": true, "can": true,
	"this": true, "these": true, "they": true, "them": true, "their": true,
	"there": true, "where": true, "when": true, "what": true, "who": true,
	"why": true, "how": true, "i": true, "you": true, "we": true, "my": true,
	"your": true, "our": true, "me": true, "us": true, "him": true,
	"her": true, "his": true, "hers": true, "ours": true, "yours": true,
	"theirs": true,
}

// businessTerms get a score boost: they describe product categories users
// actually search app stores and directories for.
var businessTerms = map[string]bool{
	"saas": true, "software": true, "platform": true, "service": true,
	"app": true, "application": true, "tool": true, "solution": true,
	"system": true, "product": true, "business": true, "startup": true,
	"company": true, "enterprise": true, "customer": true, "user": true,
	"client": true, "market": true, "industry": true, "technology": true,
	"digital": true, "online": true, "web": true, "mobile": true,
	"automation": true, "analytics": true, "data": true, "ai": true,
	"artificial": true, "intelligence": true, "machine": true,
	"learning": true, "cloud": true, "api": true, "integration": true,
	"dashboard": true,
}

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s\-]`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
	splitRe      = regexp.MustCompile(`[\s\-]+`)
)

type scoredWord struct {
	word  string
	score float64
	first int // index of first occurrence, used as a deterministic tie-break
}

// Extract returns up to MaxKeywords keywords from ideaText, ordered by
// relevance (frequency, business-term boost, specificity boost).
func Extract(ideaText string) []string {
	return ExtractN(ideaText, MaxKeywords)
}

// ExtractN is Extract with an explicit cap.
func ExtractN(ideaText string, max int) []string {
	if strings.TrimSpace(ideaText) == "" || max <= 0 {
		return nil
	}

	cleaned := cleanText(ideaText)
	words := splitWords(cleaned)
	if len(words) == 0 {
		return nil
	}

	counts := make(map[string]int, len(words))
	firstSeen := make(map[string]int, len(words))
	for i, w := range words {
		if _, ok := firstSeen[w]; !ok {
			firstSeen[w] = i
		}
		counts[w]++
	}

	scored := make([]scoredWord, 0, len(counts))
	for w, count := range counts {
		if stopWords[w] {
			continue
		}
		score := float64(count)
		if businessTerms[w] {
			score *= 2
		}
		if len(w) > 6 {
			score *= 1.5
		}
		scored = append(scored, scoredWord{word: w, score: score, first: firstSeen[w]})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].first < scored[j].first
	})

	if len(scored) > max {
		scored = scored[:max]
	}
	out := make([]string, len(scored))
	for i, sw := range scored {
		out[i] = sw.word
	}
	return out
}

func cleanText(text string) string {
	text = strings.ToLower(text)
	text = nonWordRe.ReplaceAllString(text, " ")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func splitWords(text string) []string {
	parts := splitRe.Split(text, -1)
	words := parts[:0]
	for _, p := range parts {
		if len(p) > 1 {
			words = append(words, p)
		}
	}
	return words
}
