package reddit

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

const listingBody = `{
	"data": {
		"children": [
			{"data": {
				"id": "p1",
				"title": "Looking for a task manager that does not crash",
				"selftext": "I use Trello but it keeps freezing on large boards. Switched to Notion last month.",
				"author": "frustrated_pm",
				"subreddit": "productivity",
				"permalink": "/r/productivity/comments/p1/",
				"score": 42
			}},
			{"data": {
				"id": "p2",
				"title": "Why is every todo app a subscription now",
				"selftext": "",
				"author": "cheapskate99",
				"subreddit": "software",
				"permalink": "/r/software/comments/p2/",
				"score": 128
			}}
		]
	}
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, listingBody)
	}))
}

func TestScrapeCollectsPostsAsFeedback(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL, MaxQueries: 1}, srv.Client())
	res, err := s.Scrape(context.Background(), []string{"task manager"}, "")
	require.NoError(t, err)

	assert.Equal(t, domain.ScrapeSuccess, res.Status)
	require.Len(t, res.Feedback, 2)

	first := res.Feedback[0]
	assert.Contains(t, first.Text, "Looking for a task manager")
	assert.Contains(t, first.Text, "keeps freezing")
	assert.Equal(t, "reddit", first.Source)
	assert.Equal(t, "frustrated_pm", first.AuthorInfo["username"])
	assert.Equal(t, "productivity", first.AuthorInfo["subreddit"])
	assert.Equal(t, "42", first.AuthorInfo["score"])
	assert.Equal(t, srv.URL+"/r/productivity/comments/p1/", first.SourceURL)
}

func TestScrapeExtractsCompetitorMentions(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL, MaxQueries: 1}, srv.Client())
	res, err := s.Scrape(context.Background(), []string{"task manager"}, "")
	require.NoError(t, err)

	names := make([]string, 0, len(res.Competitors))
	for _, c := range res.Competitors {
		names = append(names, c.Name)
		assert.Equal(t, "reddit", c.Source)
		assert.Equal(t, 0.4, c.ConfidenceScore)
	}
	assert.Contains(t, names, "Trello")
	assert.Contains(t, names, "Notion")
}

func TestScrapeFailsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL, MaxQueries: 1}, srv.Client())
	res, err := s.Scrape(context.Background(), []string{"budget"}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ScrapeFailed, res.Status)
	assert.NotEmpty(t, res.ErrorMessage)
}

func TestExtractMentions(t *testing.T) {
	names := extractMentions("I use Todoist daily. You should try Things for mac. Check out the docs.")
	assert.Contains(t, names, "Todoist")
	assert.Contains(t, names, "Things")
	for _, n := range names {
		assert.NotEqual(t, "the docs", n)
	}
}

func TestExtractMentionsSkipsStopWords(t *testing.T) {
	assert.Empty(t, extractMentions("Try This at home. I use Google all day."))
}

func TestExtractMentionsLowercaseIgnored(t *testing.T) {
	assert.Empty(t, extractMentions("i use spreadsheets for everything"))
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, New(Config{}, nil).ValidateConfig())
	assert.Error(t, New(Config{Limit: 500}, nil).ValidateConfig())
	assert.Error(t, New(Config{TimeWindow: "decade"}, nil).ValidateConfig())
}

func TestPostTextTruncates(t *testing.T) {
	long := post{Title: "short title"}
	for i := 0; i < 400; i++ {
		long.Selftext += "word "
	}
	text := postText(long)
	assert.LessOrEqual(t, len(text), maxFeedbackText)
	assert.Contains(t, text, "short title")
}
