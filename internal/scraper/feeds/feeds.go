// Package feeds watches configured RSS and Atom feeds (product blogs, tech
// news, launch announcement sites) for items touching the idea's keyword
// space.
package feeds

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/ignite/idea-validator/internal/clean"
	"github.com/ignite/idea-validator/internal/domain"
	"github.com/ignite/idea-validator/internal/scraper"
)

const (
	defaultMaxItemsPerFeed = 15

	// minProductMentions is how many distinct items must name a product
	// before it counts as a competitor signal.
	minProductMentions = 2
)

// productNameRe matches capitalized product-style names in item titles.
var productNameRe = regexp.MustCompile(`\b([A-Z][A-Za-z0-9]{2,}(?:\s[A-Z][A-Za-z0-9]+)?)\b`)

// nameStop filters generic capitalized words that are not product names.
var nameStop = map[string]struct{}{
	"The": {}, "This": {}, "That": {}, "What": {}, "Why": {}, "How": {},
	"New": {}, "Best": {}, "Top": {}, "Review": {}, "Guide": {}, "Launch": {},
	"App": {}, "Apps": {}, "Software": {}, "Tool": {}, "Tools": {},
	"Monday": {}, "Tuesday": {}, "Wednesday": {}, "Thursday": {}, "Friday": {},
}

type productMention struct {
	name  string
	count int
	url   string
}

// Config controls one feed scraper instance.
type Config struct {
	// FeedURLs are the feeds polled for every job.
	FeedURLs []string
	// MaxItemsPerFeed bounds how many matching items one feed contributes.
	MaxItemsPerFeed int
}

// Scraper implements the RSS/Atom feed source.
type Scraper struct {
	cfg    Config
	parser *gofeed.Parser
	pacer  *scraper.Pacer
}

// New creates a feed scraper. A nil client uses gofeed's default transport.
func New(cfg Config, client *http.Client) *Scraper {
	if cfg.MaxItemsPerFeed == 0 {
		cfg.MaxItemsPerFeed = defaultMaxItemsPerFeed
	}
	parser := gofeed.NewParser()
	if client != nil {
		parser.Client = client
	}
	return &Scraper{
		cfg:    cfg,
		parser: parser,
		pacer:  scraper.NewPacer(),
	}
}

// Name identifies this source in result metadata.
func (s *Scraper) Name() string { return "feeds" }

// ValidateConfig requires at least one feed URL with an http(s) scheme.
func (s *Scraper) ValidateConfig() error {
	if len(s.cfg.FeedURLs) == 0 {
		return fmt.Errorf("feeds: at least one feed URL is required")
	}
	for _, u := range s.cfg.FeedURLs {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("feeds: invalid feed URL %q", u)
		}
	}
	return nil
}

// Close releases no resources.
func (s *Scraper) Close() error { return nil }

// Scrape fetches every configured feed and keeps the items whose title or
// description mentions one of the job's keywords. Matching items become
// feedback records tagged with the feed they came from; product names that
// recur across item titles become low-confidence competitor records.
func (s *Scraper) Scrape(ctx context.Context, keywords []string, ideaText string) (*domain.ScrapingResult, error) {
	matchers := keywordMatchers(keywords)
	if len(matchers) == 0 {
		return &domain.ScrapingResult{
			Status:       domain.ScrapeFailed,
			ErrorMessage: "no usable keywords",
		}, nil
	}

	var (
		feedback  []domain.FeedbackRecord
		succeeded int
		failed    int
		lastErr   string
	)
	mentions := make(map[string]*productMention)

	for i, feedURL := range s.cfg.FeedURLs {
		if i > 0 {
			if err := s.pacer.Wait(ctx); err != nil {
				failed += len(s.cfg.FeedURLs) - i
				lastErr = err.Error()
				break
			}
		}

		feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			failed++
			lastErr = fmt.Sprintf("feeds: fetch %s: %v", feedURL, err)
			continue
		}
		succeeded++

		kept := 0
		for _, item := range feed.Items {
			if kept == s.cfg.MaxItemsPerFeed {
				break
			}
			text := itemText(item)
			if !matchesAny(strings.ToLower(text), matchers) {
				continue
			}
			kept++
			feedback = append(feedback, domain.FeedbackRecord{
				Text:      text,
				Source:    s.Name(),
				SourceURL: item.Link,
				AuthorInfo: map[string]string{
					"feed":      feed.Title,
					"author":    itemAuthor(item),
					"published": item.Published,
				},
			})
			countProductNames(mentions, item.Title, item.Link)
		}
	}

	competitors := s.mentionedCompetitors(mentions)

	result := &domain.ScrapingResult{
		Status:      scraper.StatusFor(succeeded, failed),
		Competitors: competitors,
		Feedback:    feedback,
		Metadata: map[string]any{
			"feeds_attempted":  len(s.cfg.FeedURLs),
			"feeds_successful": succeeded,
			"items_matched":    len(feedback),
		},
	}
	if result.Status == domain.ScrapeFailed {
		result.ErrorMessage = lastErr
	}
	return result, nil
}

// countProductNames tallies candidate product names in one item title. A
// name is counted at most once per item so a repetitive headline does not
// inflate the signal.
func countProductNames(mentions map[string]*productMention, title, link string) {
	seen := make(map[string]struct{})
	for _, match := range productNameRe.FindAllStringSubmatch(title, -1) {
		name := match[1]
		if _, stop := nameStop[name]; stop {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		m, ok := mentions[key]
		if !ok {
			m = &productMention{name: name, url: link}
			mentions[key] = m
		}
		m.count++
	}
}

// mentionedCompetitors turns recurring product names into low-confidence
// competitor records, most-mentioned first.
func (s *Scraper) mentionedCompetitors(mentions map[string]*productMention) []domain.CompetitorRecord {
	var recurring []*productMention
	for _, m := range mentions {
		if m.count >= minProductMentions {
			recurring = append(recurring, m)
		}
	}
	sort.Slice(recurring, func(i, j int) bool {
		if recurring[i].count != recurring[j].count {
			return recurring[i].count > recurring[j].count
		}
		return recurring[i].name < recurring[j].name
	})

	var competitors []domain.CompetitorRecord
	for _, m := range recurring {
		confidence := 0.3 + 0.05*float64(m.count-minProductMentions)
		if confidence > 0.5 {
			confidence = 0.5
		}
		competitors = append(competitors, domain.CompetitorRecord{
			Name:            m.name,
			Description:     fmt.Sprintf("Mentioned in %d feed items", m.count),
			Source:          s.Name(),
			SourceURL:       m.url,
			ConfidenceScore: confidence,
		})
	}
	return competitors
}

func itemText(item *gofeed.Item) string {
	title := strings.TrimSpace(item.Title)
	body := item.Description
	if body == "" {
		body = item.Content
	}
	body = clean.Text(body)
	switch {
	case title != "" && body != "":
		return title + ". " + body
	case title != "":
		return title
	default:
		return body
	}
}

func itemAuthor(item *gofeed.Item) string {
	if len(item.Authors) > 0 {
		return item.Authors[0].Name
	}
	return ""
}

func keywordMatchers(keywords []string) []string {
	var matchers []string
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			matchers = append(matchers, kw)
		}
	}
	return matchers
}

func matchesAny(lowered string, matchers []string) bool {
	for _, m := range matchers {
		if strings.Contains(lowered, m) {
			return true
		}
	}
	return false
}
