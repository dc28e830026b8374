package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/idea-validator/internal/domain"
	"github.com/ignite/idea-validator/internal/sentiment"
)

type fakeScraper struct {
	name      string
	result    *domain.ScrapingResult
	err       error
	delay     time.Duration
	panicMsg  string
	configErr error

	mu       sync.Mutex
	closed   bool
	scrapes  int32
	comments []domain.CommentRecord
}

func (f *fakeScraper) Name() string          { return f.name }
func (f *fakeScraper) ValidateConfig() error { return f.configErr }

func (f *fakeScraper) Scrape(ctx context.Context, keywords []string, ideaText string) (*domain.ScrapingResult, error) {
	atomic.AddInt32(&f.scrapes, 1)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

func (f *fakeScraper) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeScraper) FetchDetailComments(ctx context.Context, c domain.CompetitorRecord) []domain.CommentRecord {
	return f.comments
}

func successResult(source string, competitors int) *domain.ScrapingResult {
	res := &domain.ScrapingResult{Status: domain.ScrapeSuccess}
	for i := 0; i < competitors; i++ {
		res.Competitors = append(res.Competitors, domain.CompetitorRecord{
			Name:            source + " App " + string(rune('A'+i)),
			Description:     "A sufficiently long description of the product.",
			Source:          source,
			SourceURL:       "https://example.com/" + source,
			ConfidenceScore: 0.8,
		})
	}
	res.Feedback = []domain.FeedbackRecord{
		{Text: "I really love using this " + source + " product", Source: source},
	}
	return res
}

func TestRegisterIdempotentAndSkipsInvalid(t *testing.T) {
	o := New(Config{})
	require.True(t, o.Register(&fakeScraper{name: "a", result: successResult("a", 1)}))
	// same name again is a no-op, not a second entry
	assert.True(t, o.Register(&fakeScraper{name: "a"}))
	assert.False(t, o.Register(&fakeScraper{name: "b", configErr: errors.New("bad key")}))
	assert.Equal(t, []string{"a"}, o.ListSources())
}

func TestScrapeNoSources(t *testing.T) {
	o := New(Config{})
	res, err := o.Scrape(context.Background(), "job1", []string{"x"}, "")
	require.NoError(t, err)
	assert.Equal(t, "No scrapers registered", res.Metadata.Error)
	assert.Empty(t, res.Competitors)
	assert.Empty(t, res.Feedback)
	require.NotNil(t, res.SentimentSummary)
	assert.Zero(t, res.SentimentSummary.TotalComments)
}

func TestScrapeAllSucceed(t *testing.T) {
	o := New(Config{})
	require.True(t, o.Register(&fakeScraper{name: "alpha", result: successResult("alpha", 2)}))
	require.True(t, o.Register(&fakeScraper{name: "beta", result: successResult("beta", 1)}))

	res, err := o.Scrape(context.Background(), "job1", []string{"task"}, "idea")
	require.NoError(t, err)

	meta := res.Metadata
	assert.Equal(t, 2, meta.SourcesAttempted)
	assert.Equal(t, 2, meta.SourcesSuccessful)
	assert.Zero(t, meta.SourcesFailed)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, meta.SuccessfulSources)
	assert.Equal(t, 3, meta.TotalCompetitorsFound)
	assert.Equal(t, len(res.Competitors), meta.TotalCompetitorsFound)
	assert.NotEmpty(t, meta.CompletedAt)
	assert.Equal(t, domain.ValidationCompleted, domain.JobStatusFor(meta.SourcesSuccessful, meta.SourcesPartial, meta.SourcesFailed))
	require.NotNil(t, res.SentimentSummary)
	assert.Equal(t, len(res.Feedback), res.SentimentSummary.TotalComments)
}

func TestScrapeMixedOutcomes(t *testing.T) {
	o := New(Config{})
	require.True(t, o.Register(&fakeScraper{name: "ok", result: successResult("ok", 1)}))
	require.True(t, o.Register(&fakeScraper{name: "partial", result: &domain.ScrapingResult{
		Status:       domain.ScrapePartialSuccess,
		Competitors:  successResult("partial", 1).Competitors,
		ErrorMessage: "2 of 4 queries failed",
	}}))
	require.True(t, o.Register(&fakeScraper{name: "broken", result: &domain.ScrapingResult{
		Status:       domain.ScrapeFailed,
		ErrorMessage: "blocked by upstream",
	}}))
	require.True(t, o.Register(&fakeScraper{name: "erroring", err: errors.New("connection refused")}))

	res, err := o.Scrape(context.Background(), "job1", []string{"task"}, "")
	require.NoError(t, err)

	meta := res.Metadata
	assert.Equal(t, 4, meta.SourcesAttempted)
	assert.Equal(t, 1, meta.SourcesSuccessful)
	assert.Equal(t, 1, meta.SourcesPartial)
	assert.Equal(t, 2, meta.SourcesFailed)
	require.Len(t, meta.PartialSources, 1)
	assert.Equal(t, "partial", meta.PartialSources[0].Source)
	assert.Equal(t, "2 of 4 queries failed", meta.PartialSources[0].Message)

	// records from the partial source are still merged
	names := make([]string, 0, len(res.Competitors))
	for _, c := range res.Competitors {
		names = append(names, c.Source)
	}
	assert.Contains(t, names, "partial")
	assert.Equal(t, domain.ValidationPartialSuccess, domain.JobStatusFor(meta.SourcesSuccessful, meta.SourcesPartial, meta.SourcesFailed))
}

func TestScrapeAllFail(t *testing.T) {
	o := New(Config{})
	require.True(t, o.Register(&fakeScraper{name: "x", err: errors.New("down")}))
	require.True(t, o.Register(&fakeScraper{name: "y", result: &domain.ScrapingResult{Status: domain.ScrapeFailed, ErrorMessage: "no results"}}))

	res, err := o.Scrape(context.Background(), "job1", []string{"task"}, "")
	require.NoError(t, err)

	meta := res.Metadata
	assert.Equal(t, 2, meta.SourcesFailed)
	assert.Equal(t, "all sources failed", meta.Error)
	assert.Empty(t, res.Competitors)
	assert.Equal(t, domain.ValidationFailed, domain.JobStatusFor(meta.SourcesSuccessful, meta.SourcesPartial, meta.SourcesFailed))
	require.NotNil(t, res.SentimentSummary)
	assert.Zero(t, res.SentimentSummary.TotalComments)
}

func TestScrapePanicBecomesFailure(t *testing.T) {
	o := New(Config{})
	require.True(t, o.Register(&fakeScraper{name: "bomb", panicMsg: "nil map write"}))
	require.True(t, o.Register(&fakeScraper{name: "fine", result: successResult("fine", 1)}))

	res, err := o.Scrape(context.Background(), "job1", []string{"task"}, "")
	require.NoError(t, err)

	meta := res.Metadata
	assert.Equal(t, 1, meta.SourcesSuccessful)
	require.Len(t, meta.FailedSources, 1)
	assert.Equal(t, "bomb", meta.FailedSources[0].Source)
	assert.Contains(t, meta.FailedSources[0].Error, "panic")
}

func TestScrapeSlowSourceTimesOut(t *testing.T) {
	o := New(Config{Deadline: 50 * time.Millisecond})
	require.True(t, o.Register(&fakeScraper{name: "slow", delay: 5 * time.Second}))
	require.True(t, o.Register(&fakeScraper{name: "fast", result: successResult("fast", 1)}))

	start := time.Now()
	res, err := o.Scrape(context.Background(), "job1", []string{"task"}, "")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)

	meta := res.Metadata
	assert.Equal(t, 1, meta.SourcesSuccessful)
	require.Len(t, meta.FailedSources, 1)
	assert.Equal(t, "slow", meta.FailedSources[0].Source)
	assert.Equal(t, "Timeout", meta.FailedSources[0].Error)
}

func TestScrapeBoundsConcurrency(t *testing.T) {
	var current, peak int32
	mkResult := func(name string) *domain.ScrapingResult { return successResult(name, 0) }

	o := New(Config{MaxConcurrent: 2})
	for _, name := range []string{"s1", "s2", "s3", "s4", "s5", "s6"} {
		name := name
		require.True(t, o.Register(&countingScraper{
			fakeScraper: fakeScraper{name: name, result: mkResult(name)},
			current:     &current,
			peak:        &peak,
		}))
	}

	_, err := o.Scrape(context.Background(), "job1", []string{"task"}, "")
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

type countingScraper struct {
	fakeScraper
	current *int32
	peak    *int32
}

func (c *countingScraper) Scrape(ctx context.Context, keywords []string, ideaText string) (*domain.ScrapingResult, error) {
	n := atomic.AddInt32(c.current, 1)
	for {
		p := atomic.LoadInt32(c.peak)
		if n <= p || atomic.CompareAndSwapInt32(c.peak, p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	atomic.AddInt32(c.current, -1)
	return c.fakeScraper.Scrape(ctx, keywords, ideaText)
}

func TestScrapeDeduplicatesAcrossSources(t *testing.T) {
	shared := domain.CompetitorRecord{
		Name:            "Trello",
		Description:     "Boards, lists and cards for organizing work.",
		Source:          "a",
		SourceURL:       "https://example.com/a",
		ConfidenceScore: 0.9,
	}
	dup := shared
	dup.Source = "b"
	dup.Name = "  trello "

	o := New(Config{})
	require.True(t, o.Register(&fakeScraper{name: "a", result: &domain.ScrapingResult{
		Status: domain.ScrapeSuccess, Competitors: []domain.CompetitorRecord{shared},
	}}))
	require.True(t, o.Register(&fakeScraper{name: "b", result: &domain.ScrapingResult{
		Status: domain.ScrapeSuccess, Competitors: []domain.CompetitorRecord{dup},
	}}))

	res, err := o.Scrape(context.Background(), "job1", []string{"task"}, "")
	require.NoError(t, err)
	assert.Len(t, res.Competitors, 1)
	assert.Equal(t, 1, res.Metadata.TotalCompetitorsFound)
}

func TestScrapeEnrichesTopCompetitors(t *testing.T) {
	comments := []domain.CommentRecord{
		{Text: "App keeps crashing on startup", Rating: 1},
		{Text: "Works great for my small team", Rating: 5},
	}
	s := &fakeScraper{name: "store", result: successResult("store", 1), comments: comments}

	o := New(Config{})
	require.True(t, o.Register(s))

	res, err := o.Scrape(context.Background(), "job1", []string{"task"}, "")
	require.NoError(t, err)

	require.Len(t, res.Competitors, 1)
	c := res.Competitors[0]
	require.NotNil(t, c.SentimentSummary)
	assert.Len(t, c.Comments, 2)
	// negative comment ordered first
	assert.Equal(t, domain.SentimentNegative, c.Comments[0].Sentiment)
	assert.Equal(t, 1, c.Comments[0].Position)
}

// bareScraper has no detail-comment hook.
type bareScraper struct {
	result *domain.ScrapingResult
}

func (b *bareScraper) Name() string          { return "bare" }
func (b *bareScraper) ValidateConfig() error { return nil }
func (b *bareScraper) Close() error          { return nil }
func (b *bareScraper) Scrape(ctx context.Context, keywords []string, ideaText string) (*domain.ScrapingResult, error) {
	return b.result, nil
}

func TestScrapeAttachesEmptySummaryWithoutComments(t *testing.T) {
	o := New(Config{})
	require.True(t, o.Register(&bareScraper{result: successResult("bare", 1)}))

	res, err := o.Scrape(context.Background(), "job1", []string{"task"}, "")
	require.NoError(t, err)

	require.Len(t, res.Competitors, 1)
	c := res.Competitors[0]
	assert.Empty(t, c.Comments)
	require.NotNil(t, c.SentimentSummary)
	assert.Zero(t, c.SentimentSummary.TotalComments)
	assert.Equal(t, domain.SentimentNeutral, c.SentimentSummary.OverallSentiment)
}

type panicAnalyzer struct{}

func (panicAnalyzer) Analyze(text string) sentiment.Result {
	panic("lexicon exploded")
}

func TestScrapePostProcessingFailureDegrades(t *testing.T) {
	o := New(Config{})
	o.summarizer = sentiment.NewSummarizer(panicAnalyzer{})
	require.True(t, o.Register(&fakeScraper{name: "a", result: successResult("a", 1)}))

	res, err := o.Scrape(context.Background(), "job1", []string{"task"}, "")
	require.NoError(t, err)

	// records degrade to empty, per-source buckets survive
	assert.Empty(t, res.Competitors)
	assert.Empty(t, res.Feedback)
	meta := res.Metadata
	assert.Equal(t, 1, meta.SourcesSuccessful)
	assert.Equal(t, []string{"a"}, meta.SuccessfulSources)
	assert.Contains(t, meta.Error, "post-processing failed")
	assert.Contains(t, meta.Error, "lexicon exploded")
	require.NotNil(t, res.SentimentSummary)
	assert.Zero(t, res.SentimentSummary.TotalComments)
}

func TestScrapeProgressPhases(t *testing.T) {
	rec := &phaseRecorder{}
	o := New(Config{Progress: rec})
	require.True(t, o.Register(&fakeScraper{name: "a", result: successResult("a", 1)}))

	_, err := o.Scrape(context.Background(), "job1", []string{"task"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"scraping", "post_processing"}, rec.phases)
}

type phaseRecorder struct {
	mu     sync.Mutex
	phases []string
}

func (p *phaseRecorder) SetPhase(ctx context.Context, jobID, phase string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phases = append(p.phases, phase)
}

func TestCloseIsIdempotentAndClosesAll(t *testing.T) {
	a := &fakeScraper{name: "a", result: successResult("a", 0)}
	b := &fakeScraper{name: "b", result: successResult("b", 0)}

	o := New(Config{})
	require.True(t, o.Register(a))
	require.True(t, o.Register(b))
	require.NoError(t, o.Close())
	require.NoError(t, o.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)

	_, err := o.Scrape(context.Background(), "job1", []string{"task"}, "")
	assert.Error(t, err)
	assert.False(t, o.Register(&fakeScraper{name: "c", result: successResult("c", 0)}))
}
