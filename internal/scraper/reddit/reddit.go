// Package reddit mines Reddit search results for user feedback on the
// problem space and for tool names people recommend to each other.
package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/ignite/idea-validator/internal/domain"
	"github.com/ignite/idea-validator/internal/pkg/httpretry"
	"github.com/ignite/idea-validator/internal/scraper"
)

const (
	defaultBaseURL  = "https://www.reddit.com"
	defaultLimit    = 25
	maxFeedbackText = 1500
)

// Config controls one Reddit scraper instance.
type Config struct {
	// BaseURL overrides the Reddit endpoint in tests.
	BaseURL string
	// Limit is posts per query (1..100).
	Limit int
	// MaxQueries caps the query plan for one job.
	MaxQueries int
	// TimeWindow is the Reddit search t parameter (hour/day/week/month/year/all).
	TimeWindow string
}

// Scraper implements the Reddit source.
type Scraper struct {
	cfg   Config
	http  *httpretry.RetryClient
	pacer *scraper.Pacer
}

// New creates a Reddit scraper. A nil doer uses the default retrying HTTP
// client.
func New(cfg Config, doer httpretry.HTTPDoer) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Limit == 0 {
		cfg.Limit = defaultLimit
	}
	if cfg.TimeWindow == "" {
		cfg.TimeWindow = "year"
	}
	return &Scraper{
		cfg:   cfg,
		http:  httpretry.NewRetryClient(doer, 3),
		pacer: scraper.NewPacer(),
	}
}

// Name identifies this source in result metadata.
func (s *Scraper) Name() string { return "reddit" }

var validWindows = map[string]bool{
	"hour": true, "day": true, "week": true, "month": true, "year": true, "all": true,
}

// ValidateConfig checks limit and time-window bounds.
func (s *Scraper) ValidateConfig() error {
	if s.cfg.Limit < 1 || s.cfg.Limit > 100 {
		return fmt.Errorf("reddit: limit must be in [1, 100], got %d", s.cfg.Limit)
	}
	if !validWindows[s.cfg.TimeWindow] {
		return fmt.Errorf("reddit: invalid time window %q", s.cfg.TimeWindow)
	}
	return nil
}

// Close releases no resources.
func (s *Scraper) Close() error { return nil }

// Scrape searches Reddit for each planned query. Posts become feedback
// records; tool names users mention ("I use X", "switched to X") become
// low-confidence competitor records.
func (s *Scraper) Scrape(ctx context.Context, keywords []string, ideaText string) (*domain.ScrapingResult, error) {
	queries := scraper.BuildQueries(keywords, s.cfg.MaxQueries)
	if len(queries) == 0 {
		return &domain.ScrapingResult{
			Status:       domain.ScrapeFailed,
			ErrorMessage: "no usable keywords",
		}, nil
	}

	var (
		feedback    []domain.FeedbackRecord
		competitors []domain.CompetitorRecord
		succeeded   int
		failed      int
		lastErr     string
	)
	seenPosts := make(map[string]bool)
	seenMentions := make(map[string]bool)

	for i, q := range queries {
		if i > 0 {
			if err := s.pacer.Wait(ctx); err != nil {
				failed += len(queries) - i
				lastErr = err.Error()
				break
			}
		}

		posts, err := s.search(ctx, q)
		if err != nil {
			failed++
			lastErr = err.Error()
			continue
		}
		succeeded++

		for _, p := range posts {
			if seenPosts[p.ID] {
				continue
			}
			seenPosts[p.ID] = true

			text := postText(p)
			if text == "" {
				continue
			}
			postURL := s.cfg.BaseURL + p.Permalink
			feedback = append(feedback, domain.FeedbackRecord{
				Text:      text,
				Source:    s.Name(),
				SourceURL: postURL,
				AuthorInfo: map[string]string{
					"username":  p.Author,
					"subreddit": p.Subreddit,
					"score":     strconv.Itoa(p.Score),
				},
			})

			for _, name := range extractMentions(p.Title + " " + p.Selftext) {
				key := strings.ToLower(name)
				if seenMentions[key] {
					continue
				}
				seenMentions[key] = true
				competitors = append(competitors, domain.CompetitorRecord{
					Name:            name,
					Description:     "Mentioned on r/" + p.Subreddit + ": " + snippet(text, 120),
					Source:          s.Name(),
					SourceURL:       postURL,
					ConfidenceScore: 0.4,
				})
			}
		}
	}

	result := &domain.ScrapingResult{
		Status:      scraper.StatusFor(succeeded, failed),
		Competitors: competitors,
		Feedback:    feedback,
		Metadata: map[string]any{
			"queries_attempted":  len(queries),
			"queries_successful": succeeded,
			"posts_found":        len(seenPosts),
		},
	}
	if result.Status == domain.ScrapeFailed {
		result.ErrorMessage = lastErr
	}
	return result, nil
}

type listing struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Selftext  string `json:"selftext"`
	Author    string `json:"author"`
	Subreddit string `json:"subreddit"`
	Permalink string `json:"permalink"`
	Score     int    `json:"score"`
}

func (s *Scraper) search(ctx context.Context, query string) ([]post, error) {
	u := fmt.Sprintf("%s/search.json?q=%s&sort=relevance&limit=%d&t=%s",
		s.cfg.BaseURL, url.QueryEscape(query), s.cfg.Limit, s.cfg.TimeWindow)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var l listing
	if err := s.http.GetJSON(req, &l); err != nil {
		return nil, fmt.Errorf("reddit: search %q: %w", query, err)
	}
	posts := make([]post, 0, len(l.Data.Children))
	for _, c := range l.Data.Children {
		posts = append(posts, c.Data)
	}
	return posts, nil
}

func postText(p post) string {
	title := strings.TrimSpace(p.Title)
	body := strings.TrimSpace(p.Selftext)
	var text string
	switch {
	case title != "" && body != "":
		text = title + ". " + body
	case title != "":
		text = title
	default:
		text = body
	}
	return snippet(text, maxFeedbackText)
}

// mentionRe captures a capitalized product name following a recommendation
// phrase. Capitalization filters out ordinary sentence words.
var mentionRe = regexp.MustCompile(`(?:^|[.!?]\s+|\b)(?:[Ii] use|[Ww]e use|[Tt]ry|[Cc]heck out|[Ss]witched to|[Uu]sing|[Rr]ecommend)\s+([A-Z][A-Za-z0-9]{2,}(?:\s[A-Z][A-Za-z0-9]+)?)`)

// mentionStop holds capitalized words that follow recommendation phrases
// without naming a product.
var mentionStop = map[string]bool{
	"This": true, "That": true, "These": true, "Those": true, "The": true,
	"Google": true, "Reddit": true, "Amazon": true, "Apple": true,
	"It": true, "They": true, "Them": true,
}

func extractMentions(text string) []string {
	var names []string
	for _, m := range mentionRe.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if first := strings.Fields(name)[0]; mentionStop[first] {
			continue
		}
		names = append(names, name)
	}
	return names
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
