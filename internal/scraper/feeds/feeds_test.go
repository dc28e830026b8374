package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/idea-validator/internal/domain"
)

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Product News</title>
    <link>https://news.example.com</link>
    <item>
      <title>New task manager launches with offline mode</title>
      <link>https://news.example.com/task-manager-launch</link>
      <description>&lt;p&gt;A new &lt;b&gt;task&lt;/b&gt; manager app promises fewer crashes.&lt;/p&gt;</description>
      <pubDate>Mon, 12 Aug 2024 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Cooking recipes of the week</title>
      <link>https://news.example.com/recipes</link>
      <description>Nothing about software here.</description>
    </item>
    <item>
      <title>Task tracking startup raises round</title>
      <link>https://news.example.com/funding</link>
      <description>Investors bet on task tracking tools.</description>
    </item>
  </channel>
</rss>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssBody)
	}))
}

func TestScrapeKeepsMatchingItems(t *testing.T) {
	srv := newFeedServer(t)
	defer srv.Close()

	s := New(Config{FeedURLs: []string{srv.URL + "/rss"}}, srv.Client())
	res, err := s.Scrape(context.Background(), []string{"task"}, "")
	require.NoError(t, err)

	assert.Equal(t, domain.ScrapeSuccess, res.Status)
	require.Len(t, res.Feedback, 2)
	assert.Contains(t, res.Feedback[0].Text, "task manager launches")
	// HTML in the description is stripped
	assert.NotContains(t, res.Feedback[0].Text, "<p>")
	assert.Equal(t, "feeds", res.Feedback[0].Source)
	assert.Equal(t, "Product News", res.Feedback[0].AuthorInfo["feed"])
	assert.Equal(t, "https://news.example.com/task-manager-launch", res.Feedback[0].SourceURL)
}

func TestScrapeRespectsPerFeedCap(t *testing.T) {
	srv := newFeedServer(t)
	defer srv.Close()

	s := New(Config{FeedURLs: []string{srv.URL + "/rss"}, MaxItemsPerFeed: 1}, srv.Client())
	res, err := s.Scrape(context.Background(), []string{"task"}, "")
	require.NoError(t, err)
	assert.Len(t, res.Feedback, 1)
}

func TestScrapeUnreachableFeedFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	s := New(Config{FeedURLs: []string{srv.URL + "/rss"}}, srv.Client())
	res, err := s.Scrape(context.Background(), []string{"task"}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ScrapeFailed, res.Status)
	assert.NotEmpty(t, res.ErrorMessage)
}

func TestScrapeNoKeywords(t *testing.T) {
	s := New(Config{FeedURLs: []string{"https://example.com/rss"}}, nil)
	res, err := s.Scrape(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ScrapeFailed, res.Status)
}

func TestScrapeExtractsRecurringProductNames(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Product News</title>
    <item>
      <title>Trackly adds task automation</title>
      <link>https://news.example.com/trackly-automation</link>
      <description>Task automation lands in Trackly.</description>
    </item>
    <item>
      <title>Why teams pick Trackly for task tracking</title>
      <link>https://news.example.com/trackly-teams</link>
      <description>More task teams switch over.</description>
    </item>
    <item>
      <title>Solo launch: Taskette task widget</title>
      <link>https://news.example.com/taskette</link>
      <description>A tiny task widget.</description>
    </item>
  </channel>
</rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	s := New(Config{FeedURLs: []string{srv.URL + "/rss"}}, srv.Client())
	res, err := s.Scrape(context.Background(), []string{"task"}, "")
	require.NoError(t, err)

	// Trackly appears in two item titles; Taskette only once.
	require.Len(t, res.Competitors, 1)
	c := res.Competitors[0]
	assert.Equal(t, "Trackly", c.Name)
	assert.Equal(t, "feeds", c.Source)
	assert.Equal(t, "https://news.example.com/trackly-automation", c.SourceURL)
	assert.InDelta(t, 0.3, c.ConfidenceScore, 0.001)
}

func TestValidateConfig(t *testing.T) {
	assert.Error(t, New(Config{}, nil).ValidateConfig())
	assert.Error(t, New(Config{FeedURLs: []string{"ftp://feeds.example.com"}}, nil).ValidateConfig())
	assert.NoError(t, New(Config{FeedURLs: []string{"https://news.example.com/rss"}}, nil).ValidateConfig())
}
