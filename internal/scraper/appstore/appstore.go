// Package appstore discovers competitor apps and their review feedback
// through Apple's public iTunes Search and customer-review feeds.
package appstore

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
	defaultSearchBaseURL = "https://itunes.apple.com"
	defaultCountry       = "us"
	defaultLimit         = 10
	maxReviewApps        = 2
	maxReviewsPerApp     = 20
)

// Config controls one App Store scraper instance.
type Config struct {
	// Country is the two-letter storefront code.
	Country string
	// Limit is the number of search results requested per query (1..50).
	Limit int
	// MaxQueries caps the query plan for one job.
	MaxQueries int
	// BaseURL overrides the iTunes endpoint in tests.
	BaseURL string
}

// Scraper implements the App Store source.
type Scraper struct {
	cfg   Config
	http  *httpretry.RetryClient
	pacer *scraper.Pacer
}

// New creates an App Store scraper. A nil doer uses the default retrying
// HTTP client.
func New(cfg Config, doer httpretry.HTTPDoer) *Scraper {
	if cfg.Country == "" {
		cfg.Country = defaultCountry
	}
	if cfg.Limit == 0 {
		cfg.Limit = defaultLimit
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultSearchBaseURL
	}
	return &Scraper{
		cfg:   cfg,
		http:  httpretry.NewRetryClient(doer, 3),
		pacer: scraper.NewPacer(),
	}
}

// Name identifies this source in result metadata.
func (s *Scraper) Name() string { return "app_store" }

// ValidateConfig checks storefront and limit bounds.
func (s *Scraper) ValidateConfig() error {
	if len(s.cfg.Country) != 2 {
		return fmt.Errorf("appstore: country must be a two-letter storefront code, got %q", s.cfg.Country)
	}
	if s.cfg.Limit < 1 || s.cfg.Limit > 50 {
		return fmt.Errorf("appstore: limit must be in [1, 50], got %d", s.cfg.Limit)
	}
	return nil
}

// Close releases no resources; the HTTP client is shared and stateless.
func (s *Scraper) Close() error { return nil }

// Scrape runs the bounded query plan against the iTunes Search API, turning
// matched apps into competitor records and recent reviews of the top apps
// into feedback records.
func (s *Scraper) Scrape(ctx context.Context, keywords []string, ideaText string) (*domain.ScrapingResult, error) {
	queries := scraper.BuildQueries(keywords, s.cfg.MaxQueries)
	if len(queries) == 0 {
		return &domain.ScrapingResult{
			Status:       domain.ScrapeFailed,
			ErrorMessage: "no usable keywords",
		}, nil
	}

	var (
		competitors []domain.CompetitorRecord
		succeeded   int
		failed      int
		lastErr     string
	)
	seen := make(map[int64]bool)
	var topApps []appResult

	for i, q := range queries {
		if i > 0 {
			if err := s.pacer.Wait(ctx); err != nil {
				failed += len(queries) - i
				lastErr = err.Error()
				break
			}
		}

		apps, err := s.search(ctx, q)
		if err != nil {
			failed++
			lastErr = err.Error()
			continue
		}
		succeeded++

		for _, app := range apps {
			if seen[app.TrackID] {
				continue
			}
			seen[app.TrackID] = true
			competitors = append(competitors, s.toCompetitor(app))
			if len(topApps) < maxReviewApps {
				topApps = append(topApps, app)
			}
		}
	}

	var feedback []domain.FeedbackRecord
	for _, app := range topApps {
		reviews, err := s.fetchReviews(ctx, app.TrackID)
		if err != nil {
			continue
		}
		for _, rv := range reviews {
			feedback = append(feedback, domain.FeedbackRecord{
				Text:      rv.Text,
				Source:    s.Name(),
				SourceURL: app.TrackViewURL,
				AuthorInfo: map[string]string{
					"author": rv.Author,
					"rating": strconv.Itoa(rv.Rating),
				},
			})
		}
	}

	result := &domain.ScrapingResult{
		Status:      scraper.StatusFor(succeeded, failed),
		Competitors: competitors,
		Feedback:    feedback,
		Metadata: map[string]any{
			"queries_attempted":  len(queries),
			"queries_successful": succeeded,
			"apps_found":         len(competitors),
		},
	}
	if result.Status == domain.ScrapeFailed {
		result.ErrorMessage = lastErr
	}
	return result, nil
}

// FetchDetailComments pulls recent reviews for one competitor during the
// enrichment phase. The app ID is recovered from the store URL; anything
// unparseable yields no comments.
func (s *Scraper) FetchDetailComments(ctx context.Context, c domain.CompetitorRecord) []domain.CommentRecord {
	id := appIDFromURL(c.SourceURL)
	if id == 0 {
		return nil
	}
	reviews, err := s.fetchReviews(ctx, id)
	if err != nil {
		return nil
	}
	comments := make([]domain.CommentRecord, 0, len(reviews))
	for _, rv := range reviews {
		comments = append(comments, domain.CommentRecord{
			Text:   rv.Text,
			Author: rv.Author,
			Date:   rv.Date,
			Rating: rv.Rating,
		})
	}
	return comments
}

func (s *Scraper) toCompetitor(app appResult) domain.CompetitorRecord {
	missing := 0
	website := app.SellerURL
	if website == "" {
		missing++
	}
	if app.Description == "" {
		missing++
	}

	return domain.CompetitorRecord{
		Name:        app.TrackName,
		Description: app.Description,
		Website:     website,
		// install base roughly tracks rating volume
		EstimatedUsers:  app.UserRatingCount * 50,
		PricingModel:    scraper.PricingModel(app.Price == 0, false, app.FormattedPrice),
		Source:          s.Name(),
		SourceURL:       app.TrackViewURL,
		ConfidenceScore: scraper.Confidence(0.9, missing),
		LaunchDate:      app.ReleaseDate,
		FounderCEO:      app.SellerName,
		ReviewCount:     app.UserRatingCount,
		AverageRating:   app.AverageUserRating,
	}
}

type searchResponse struct {
	ResultCount int         `json:"resultCount"`
	Results     []appResult `json:"results"`
}

type appResult struct {
	TrackID           int64   `json:"trackId"`
	TrackName         string  `json:"trackName"`
	Description       string  `json:"description"`
	SellerName        string  `json:"sellerName"`
	SellerURL         string  `json:"sellerUrl"`
	TrackViewURL      string  `json:"trackViewUrl"`
	Price             float64 `json:"price"`
	FormattedPrice    string  `json:"formattedPrice"`
	AverageUserRating float64 `json:"averageUserRating"`
	UserRatingCount   int     `json:"userRatingCount"`
	ReleaseDate       string  `json:"releaseDate"`
}

func (s *Scraper) search(ctx context.Context, query string) ([]appResult, error) {
	u := fmt.Sprintf("%s/search?term=%s&entity=software&country=%s&limit=%d",
		s.cfg.BaseURL, url.QueryEscape(query), s.cfg.Country, s.cfg.Limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := s.http.GetJSON(req, &resp); err != nil {
		return nil, fmt.Errorf("appstore: search %q: %w", query, err)
	}
	return resp.Results, nil
}

type review struct {
	Author string
	Date   string
	Rating int
	Text   string
}

// rssFeed mirrors the JSON customer-review feed. Every scalar arrives
// wrapped in a {"label": ...} object.
type rssFeed struct {
	Feed struct {
		Entry []rssEntry `json:"entry"`
	} `json:"feed"`
}

type rssEntry struct {
	Author struct {
		Name rssLabel `json:"name"`
	} `json:"author"`
	Rating  rssLabel `json:"im:rating"`
	Title   rssLabel `json:"title"`
	Content rssLabel `json:"content"`
	Updated rssLabel `json:"updated"`
}

type rssLabel struct {
	Label string `json:"label"`
}

func (s *Scraper) fetchReviews(ctx context.Context, appID int64) ([]review, error) {
	u := fmt.Sprintf("%s/%s/rss/customerreviews/id=%d/sortby=mostrecent/json",
		s.cfg.BaseURL, s.cfg.Country, appID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var feed rssFeed
	if err := s.http.GetJSON(req, &feed); err != nil {
		return nil, fmt.Errorf("appstore: reviews for app %d: %w", appID, err)
	}

	entries := feed.Feed.Entry
	// the first entry of the feed is the app itself, not a review
	if len(entries) > 0 && entries[0].Rating.Label == "" {
		entries = entries[1:]
	}
	if len(entries) > maxReviewsPerApp {
		entries = entries[:maxReviewsPerApp]
	}

	reviews := make([]review, 0, len(entries))
	for _, e := range entries {
		text := strings.TrimSpace(e.Content.Label)
		if text == "" {
			text = strings.TrimSpace(e.Title.Label)
		}
		if text == "" {
			continue
		}
		rating, _ := strconv.Atoi(e.Rating.Label)
		reviews = append(reviews, review{
			Author: e.Author.Name.Label,
			Date:   e.Updated.Label,
			Rating: rating,
			Text:   text,
		})
	}
	return reviews, nil
}

var appIDRe = regexp.MustCompile(`/id(\d+)`)

func appIDFromURL(storeURL string) int64 {
	m := appIDRe.FindStringSubmatch(storeURL)
	if m == nil {
		return 0
	}
	id, _ := strconv.ParseInt(m[1], 10, 64)
	return id
}
