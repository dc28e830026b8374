package sentiment

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ignite/idea-validator/internal/domain"
)

const (
	maxPainPoints       = 5
	maxHighlightsPerBin = 2
	painPointSnippetLen = 200
	categorySnippetLen  = 80
)

// painCategory is one themed bucket of negative feedback. Categories are
// tested in order and the first match wins; anything unmatched lands in
// "other".
type painCategory struct {
	name     string
	keywords []string
}

var painCategories = []painCategory{
	{"usability", []string{"confusing", "difficult", "hard to use", "complicated", "interface", "ui", "ux", "navigation"}},
	{"performance", []string{"slow", "crash", "freeze", "lag", "loading", "speed", "performance", "battery"}},
	{"features", []string{"missing", "lack", "need", "want", "feature", "functionality", "option"}},
	{"pricing", []string{"expensive", "price", "cost", "money", "subscription", "payment", "billing"}},
	{"support", []string{"support", "help", "customer service", "response", "contact"}},
	{"bugs", []string{"bug", "error", "broken", "issue", "problem", "glitch", "not working"}},
}

// categoryMatchers holds one compiled matcher per category keyword so short
// keywords like "ui" only match on word boundaries.
var categoryMatchers = buildCategoryMatchers()

type keywordMatcher struct {
	category string
	re       *regexp.Regexp
}

func buildCategoryMatchers() []keywordMatcher {
	var matchers []keywordMatcher
	for _, cat := range painCategories {
		for _, kw := range cat.keywords {
			// "crash" should also match "crashes"/"crashing"; multiword
			// phrases match literally.
			pattern := `\b` + regexp.QuoteMeta(kw)
			if !strings.Contains(kw, " ") {
				pattern += `[a-z]*`
			}
			pattern += `\b`
			matchers = append(matchers, keywordMatcher{category: cat.name, re: regexp.MustCompile(pattern)})
		}
	}
	return matchers
}

// CategorizePainPoint returns the themed category for one negative comment.
func CategorizePainPoint(text string) string {
	lowered := strings.ToLower(text)
	for _, m := range categoryMatchers {
		if m.re.MatchString(lowered) {
			return m.category
		}
	}
	return "other"
}

// Summarizer builds sentiment aggregates from labeled feedback. It fills in
// missing labels using its Analyzer.
type Summarizer struct {
	analyzer Analyzer
}

// NewSummarizer creates a Summarizer backed by the given analyzer. A nil
// analyzer falls back to the default lexicon.
func NewSummarizer(a Analyzer) *Summarizer {
	if a == nil {
		a = NewLexicon()
	}
	return &Summarizer{analyzer: a}
}

// Analyzer exposes the underlying analyzer for callers that label
// individual records.
func (s *Summarizer) Analyzer() Analyzer { return s.analyzer }

// Label fills Sentiment and SentimentScore on feedback records that arrived
// unlabeled. Records already labeled by their scraper are left alone.
func (s *Summarizer) Label(feedback []domain.FeedbackRecord) []domain.FeedbackRecord {
	for i := range feedback {
		if feedback[i].Sentiment != "" {
			continue
		}
		res := s.analyzer.Analyze(feedback[i].Text)
		feedback[i].Sentiment = res.Label
		feedback[i].SentimentScore = res.Score
	}
	return feedback
}

// GetSentimentSummary computes the cross-source aggregate for a job's
// feedback list: counts, percentages (2 dp), average score (4 dp), overall
// label and the pain-point category map built from negative items.
func (s *Summarizer) GetSentimentSummary(feedback []domain.FeedbackRecord) *domain.SentimentSummary {
	total := len(feedback)
	if total == 0 {
		return domain.EmptySentimentSummary()
	}

	summary := &domain.SentimentSummary{TotalComments: total}
	categories := make(map[string][]string)
	var scoreSum float64

	for _, f := range feedback {
		scoreSum += f.SentimentScore
		switch f.Sentiment {
		case domain.SentimentPositive:
			summary.PositiveCount++
		case domain.SentimentNegative:
			summary.NegativeCount++
			cat := CategorizePainPoint(f.Text)
			categories[cat] = append(categories[cat], snippet(f.Text, categorySnippetLen))
		default:
			summary.NeutralCount++
		}
	}

	summary.PositivePercentage = round2(float64(summary.PositiveCount) / float64(total) * 100)
	summary.NegativePercentage = round2(float64(summary.NegativeCount) / float64(total) * 100)
	summary.NeutralPercentage = round2(float64(summary.NeutralCount) / float64(total) * 100)
	summary.AverageSentimentScore = round4(scoreSum / float64(total))
	summary.OverallSentiment = overallLabel(summary.AverageSentimentScore)
	if len(categories) > 0 {
		summary.PainPointCategories = categories
	}
	return summary
}

// AttachComments labels, orders and summarizes a competitor's comments:
// negatives first, then neutrals, then positives; within each group by
// higher helpfulness then lower rating. Positions are re-assigned 1-based
// after ordering and the competitor's SentimentSummary is recomputed.
func (s *Summarizer) AttachComments(c *domain.CompetitorRecord, comments []domain.CommentRecord) {
	if len(comments) == 0 {
		if c.SentimentSummary == nil {
			c.SentimentSummary = domain.EmptySentimentSummary()
		}
		return
	}

	for i := range comments {
		if comments[i].Sentiment == "" {
			res := s.analyzer.Analyze(comments[i].Text)
			comments[i].Sentiment = res.Label
			comments[i].SentimentScore = res.Score
			comments[i].SentimentConfidence = res.Confidence
		}
	}

	sort.SliceStable(comments, func(i, j int) bool {
		gi, gj := sentimentGroup(comments[i].Sentiment), sentimentGroup(comments[j].Sentiment)
		if gi != gj {
			return gi < gj
		}
		if comments[i].Helpfulness != comments[j].Helpfulness {
			return comments[i].Helpfulness > comments[j].Helpfulness
		}
		return comments[i].Rating < comments[j].Rating
	})
	for i := range comments {
		comments[i].Position = i + 1
	}

	c.Comments = comments
	c.SentimentSummary = s.summarizeComments(comments)
}

func (s *Summarizer) summarizeComments(comments []domain.CommentRecord) *domain.SentimentSummary {
	total := len(comments)
	summary := &domain.SentimentSummary{TotalComments: total}
	categories := make(map[string][]string)
	var scoreSum float64

	for _, cm := range comments {
		scoreSum += cm.SentimentScore
		switch cm.Sentiment {
		case domain.SentimentPositive:
			summary.PositiveCount++
			if len(summary.PositiveFeedback) < maxHighlightsPerBin {
				summary.PositiveFeedback = append(summary.PositiveFeedback, snippet(cm.Text, painPointSnippetLen))
			}
		case domain.SentimentNegative:
			summary.NegativeCount++
			if len(summary.PainPoints) < maxPainPoints {
				summary.PainPoints = append(summary.PainPoints, domain.PainPoint{
					Text:        snippet(cm.Text, painPointSnippetLen),
					Author:      cm.Author,
					Rating:      cm.Rating,
					Confidence:  cm.SentimentConfidence,
					Helpfulness: cm.Helpfulness,
				})
			}
			cat := CategorizePainPoint(cm.Text)
			categories[cat] = append(categories[cat], snippet(cm.Text, categorySnippetLen))
		default:
			summary.NeutralCount++
			if len(summary.NeutralFeedback) < maxHighlightsPerBin {
				summary.NeutralFeedback = append(summary.NeutralFeedback, snippet(cm.Text, painPointSnippetLen))
			}
		}
	}

	summary.PositivePercentage = round2(float64(summary.PositiveCount) / float64(total) * 100)
	summary.NegativePercentage = round2(float64(summary.NegativeCount) / float64(total) * 100)
	summary.NeutralPercentage = round2(float64(summary.NeutralCount) / float64(total) * 100)
	summary.AverageSentimentScore = round4(scoreSum / float64(total))
	summary.OverallSentiment = overallLabel(summary.AverageSentimentScore)
	if len(categories) > 0 {
		summary.PainPointCategories = categories
	}
	return summary
}

// SortByPainPriority orders the job-level feedback list so the strongest
// negative signal comes first.
func SortByPainPriority(feedback []domain.FeedbackRecord) {
	sort.SliceStable(feedback, func(i, j int) bool {
		gi, gj := sentimentGroup(feedback[i].Sentiment), sentimentGroup(feedback[j].Sentiment)
		if gi != gj {
			return gi < gj
		}
		return feedback[i].SentimentScore < feedback[j].SentimentScore
	})
}

func sentimentGroup(s domain.Sentiment) int {
	switch s {
	case domain.SentimentNegative:
		return 0
	case domain.SentimentNeutral, "":
		return 1
	default:
		return 2
	}
}

func overallLabel(avg float64) domain.Sentiment {
	switch {
	case avg > positiveThreshold:
		return domain.SentimentPositive
	case avg < negativeThreshold:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

func snippet(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if i := strings.LastIndexByte(cut, ' '); i > limit/2 {
		cut = cut[:i]
	}
	return cut
}
