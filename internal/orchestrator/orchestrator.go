// Package orchestrator fans one validation job out across all registered
// source scrapers, enforces the global scraping deadline, and folds the
// per-source results into a single cleaned, deduplicated, sentiment-scored
// aggregate.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ignite/idea-validator/internal/clean"
	"github.com/ignite/idea-validator/internal/dedup"
	"github.com/ignite/idea-validator/internal/domain"
	"github.com/ignite/idea-validator/internal/pkg/logger"
	"github.com/ignite/idea-validator/internal/scraper"
	"github.com/ignite/idea-validator/internal/sentiment"
)

const (
	// DefaultMaxConcurrent bounds how many sources scrape at once.
	DefaultMaxConcurrent = 5
	// DefaultDeadline is the global wall-clock budget for the fan-out phase.
	DefaultDeadline = 300 * time.Second
	// DefaultEnrichmentTimeout bounds the post-deadline detail fetch phase.
	DefaultEnrichmentTimeout = 60 * time.Second
	// DefaultDetailCompetitors is how many top competitors get detail
	// comments fetched.
	DefaultDetailCompetitors = 3
)

// ProgressReporter receives phase transitions for a running job. Reporting
// is best-effort; implementations must not block scraping on failures.
type ProgressReporter interface {
	SetPhase(ctx context.Context, jobID, phase string)
}

// Config tunes one Orchestrator.
type Config struct {
	MaxConcurrent     int
	Deadline          time.Duration
	EnrichmentTimeout time.Duration
	DetailCompetitors int
	Progress          ProgressReporter
}

// Orchestrator owns the registered scrapers and runs validation jobs
// against them. Registration happens at startup; Scrape may then be called
// concurrently for different jobs.
type Orchestrator struct {
	cfg        Config
	summarizer *sentiment.Summarizer

	mu       sync.RWMutex
	scrapers []scraper.SourceScraper
	byName   map[string]scraper.SourceScraper
	closed   bool
}

// New creates an Orchestrator with zero registered sources.
func New(cfg Config) *Orchestrator {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = DefaultDeadline
	}
	if cfg.EnrichmentTimeout <= 0 {
		cfg.EnrichmentTimeout = DefaultEnrichmentTimeout
	}
	if cfg.DetailCompetitors <= 0 {
		cfg.DetailCompetitors = DefaultDetailCompetitors
	}
	return &Orchestrator{
		cfg:        cfg,
		summarizer: sentiment.NewSummarizer(nil),
		byName:     make(map[string]scraper.SourceScraper),
	}
}

// Register validates and adds a scraper. A scraper with invalid config is
// logged and skipped; registering a name twice is a no-op, so the rotation
// never holds duplicates. Register reports whether the scraper is in the
// rotation afterwards.
func (o *Orchestrator) Register(s scraper.SourceScraper) bool {
	if err := s.ValidateConfig(); err != nil {
		logger.Warn("source config invalid, skipping", "source", s.Name(), "error", err.Error())
		return false
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		logger.Warn("register after close, skipping", "source", s.Name())
		return false
	}
	if _, exists := o.byName[s.Name()]; exists {
		return true
	}
	o.scrapers = append(o.scrapers, s)
	o.byName[s.Name()] = s
	return true
}

// ListSources returns the registered source names in registration order.
func (o *Orchestrator) ListSources() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, len(o.scrapers))
	for i, s := range o.scrapers {
		names[i] = s.Name()
	}
	return names
}

// Close shuts down every registered scraper. Errors are joined; Close is
// idempotent.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true

	var errs []error
	for _, s := range o.scrapers {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

type sourceOutcome struct {
	name     string
	result   *domain.ScrapingResult
	err      error
	timedOut bool
}

// Scrape runs one job: fan out to every registered source under the global
// deadline, then clean, deduplicate, enrich and summarize the merged
// records. The aggregate is returned even when every source fails or none
// are registered; the failure shows up in the metadata instead of an error
// return. An error is returned only when the orchestrator is closed.
func (o *Orchestrator) Scrape(ctx context.Context, jobID string, keywords []string, ideaText string) (*domain.AggregatedResult, error) {
	o.mu.RLock()
	if o.closed {
		o.mu.RUnlock()
		return nil, errors.New("orchestrator is closed")
	}
	scrapers := make([]scraper.SourceScraper, len(o.scrapers))
	copy(scrapers, o.scrapers)
	o.mu.RUnlock()

	if len(scrapers) == 0 {
		return &domain.AggregatedResult{
			Competitors:      []domain.CompetitorRecord{},
			Feedback:         []domain.FeedbackRecord{},
			SentimentSummary: domain.EmptySentimentSummary(),
			Metadata: domain.RunMetadata{
				JobID:             jobID,
				SuccessfulSources: []string{},
				PartialSources:    []domain.PartialSource{},
				FailedSources:     []domain.FailedSource{},
				CompletedAt:       time.Now().UTC().Format(time.RFC3339),
				Error:             "No scrapers registered",
			},
		}, nil
	}

	start := time.Now()
	o.reportPhase(ctx, jobID, "scraping")
	logger.Info("scrape started", "job_id", jobID, "sources", len(scrapers), "keywords", len(keywords))

	outcomes := o.fanOut(ctx, scrapers, keywords, ideaText)

	meta := domain.RunMetadata{
		JobID:             jobID,
		SourcesAttempted:  len(scrapers),
		SuccessfulSources: []string{},
		PartialSources:    []domain.PartialSource{},
		FailedSources:     []domain.FailedSource{},
	}
	var competitors []domain.CompetitorRecord
	var feedback []domain.FeedbackRecord

	for _, out := range outcomes {
		switch {
		case out.timedOut:
			meta.SourcesFailed++
			meta.FailedSources = append(meta.FailedSources, domain.FailedSource{
				Source: out.name, Error: "Timeout",
			})
		case out.err != nil:
			meta.SourcesFailed++
			meta.FailedSources = append(meta.FailedSources, domain.FailedSource{
				Source: out.name, Error: out.err.Error(),
			})
		case out.result.Status == domain.ScrapeFailed:
			meta.SourcesFailed++
			meta.FailedSources = append(meta.FailedSources, domain.FailedSource{
				Source: out.name, Error: out.result.ErrorMessage,
			})
		case out.result.Status == domain.ScrapePartialSuccess:
			meta.SourcesPartial++
			meta.PartialSources = append(meta.PartialSources, domain.PartialSource{
				Source: out.name, Message: out.result.ErrorMessage,
			})
			competitors = append(competitors, out.result.Competitors...)
			feedback = append(feedback, out.result.Feedback...)
		default:
			meta.SourcesSuccessful++
			meta.SuccessfulSources = append(meta.SuccessfulSources, out.name)
			competitors = append(competitors, out.result.Competitors...)
			feedback = append(feedback, out.result.Feedback...)
		}
	}

	o.reportPhase(ctx, jobID, "post_processing")

	competitors, feedback, summary, postErr := o.postProcess(jobID, competitors, feedback)

	meta.TotalCompetitorsFound = len(competitors)
	meta.TotalFeedbackFound = len(feedback)
	meta.ProcessingTimeSeconds = roundSeconds(time.Since(start))
	meta.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	switch {
	case postErr != nil:
		meta.Error = postErr.Error()
	case meta.SourcesSuccessful == 0 && meta.SourcesPartial == 0:
		meta.Error = "all sources failed"
	}

	logger.Info("scrape finished",
		"job_id", jobID,
		"successful", meta.SourcesSuccessful,
		"partial", meta.SourcesPartial,
		"failed", meta.SourcesFailed,
		"competitors", meta.TotalCompetitorsFound,
		"feedback", meta.TotalFeedbackFound,
	)

	return &domain.AggregatedResult{
		Competitors:      competitors,
		Feedback:         feedback,
		SentimentSummary: summary,
		Metadata:         meta,
	}, nil
}

// postProcess cleans, deduplicates, labels and enriches the merged records.
// A bug in any stage is contained here: the job degrades to an empty
// aggregate with the failure reported through the returned error, and the
// per-source buckets gathered during fan-out stay intact.
func (o *Orchestrator) postProcess(jobID string, competitors []domain.CompetitorRecord, feedback []domain.FeedbackRecord) (outC []domain.CompetitorRecord, outF []domain.FeedbackRecord, summary *domain.SentimentSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("post-processing failed", "job_id", jobID, "panic", fmt.Sprintf("%v", r))
			outC = []domain.CompetitorRecord{}
			outF = []domain.FeedbackRecord{}
			summary = domain.EmptySentimentSummary()
			err = fmt.Errorf("post-processing failed: %v", r)
		}
	}()

	competitors = dedup.Competitors(clean.Competitors(competitors))
	feedback = dedup.Feedback(clean.Feedback(feedback))
	feedback = o.summarizer.Label(feedback)

	o.enrichTopCompetitors(jobID, competitors)
	// every competitor carries a summary, empty by default
	for i := range competitors {
		if competitors[i].SentimentSummary == nil {
			o.summarizer.AttachComments(&competitors[i], competitors[i].Comments)
		}
	}
	sentiment.SortByPainPriority(feedback)

	return competitors, feedback, o.summarizer.GetSentimentSummary(feedback), nil
}

// fanOut runs every scraper under the shared deadline with a bounded number
// in flight. Outcomes are collected in completion order.
func (o *Orchestrator) fanOut(ctx context.Context, scrapers []scraper.SourceScraper, keywords []string, ideaText string) []sourceOutcome {
	sctx, cancel := context.WithTimeout(ctx, o.cfg.Deadline)
	defer cancel()

	sem := make(chan struct{}, o.cfg.MaxConcurrent)
	results := make(chan sourceOutcome, len(scrapers))
	var wg sync.WaitGroup

	for _, s := range scrapers {
		wg.Add(1)
		go func(s scraper.SourceScraper) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("scraper panicked", "source", s.Name(), "panic", fmt.Sprintf("%v", r))
					results <- sourceOutcome{name: s.Name(), err: fmt.Errorf("panic: %v", r)}
				}
			}()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-sctx.Done():
				results <- sourceOutcome{name: s.Name(), timedOut: true}
				return
			}

			res, err := s.Scrape(sctx, keywords, ideaText)
			if err != nil {
				timedOut := errors.Is(err, context.DeadlineExceeded) || sctx.Err() != nil
				results <- sourceOutcome{name: s.Name(), err: err, timedOut: timedOut}
				return
			}
			if res == nil {
				results <- sourceOutcome{name: s.Name(), err: errors.New("scraper returned no result")}
				return
			}
			results <- sourceOutcome{name: s.Name(), result: res}
		}(s)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var outcomes []sourceOutcome
	for out := range results {
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// enrichTopCompetitors fetches detail comments for the highest-confidence
// competitors whose source scraper supports it. Enrichment runs on its own
// clock so a source that already burned the scraping deadline cannot starve
// it.
func (o *Orchestrator) enrichTopCompetitors(jobID string, competitors []domain.CompetitorRecord) {
	if len(competitors) == 0 {
		return
	}

	idx := make([]int, len(competitors))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return competitors[idx[a]].ConfidenceScore > competitors[idx[b]].ConfidenceScore
	})
	if len(idx) > o.cfg.DetailCompetitors {
		idx = idx[:o.cfg.DetailCompetitors]
	}

	ectx, cancel := context.WithTimeout(context.Background(), o.cfg.EnrichmentTimeout)
	defer cancel()

	for _, i := range idx {
		c := &competitors[i]
		o.mu.RLock()
		src := o.byName[c.Source]
		o.mu.RUnlock()
		fetcher, ok := src.(scraper.DetailFetcher)
		if !ok {
			continue
		}

		comments := o.safeFetch(ectx, fetcher, *c)
		if len(comments) == 0 {
			continue
		}
		comments = clean.Comments(append(c.Comments, comments...))
		o.summarizer.AttachComments(c, comments)
		logger.Debug("competitor enriched", "job_id", jobID, "competitor", c.Name, "comments", len(comments))

		if ectx.Err() != nil {
			return
		}
	}
}

func (o *Orchestrator) safeFetch(ctx context.Context, f scraper.DetailFetcher, c domain.CompetitorRecord) (comments []domain.CommentRecord) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("detail fetch panicked", "competitor", c.Name, "panic", fmt.Sprintf("%v", r))
			comments = nil
		}
	}()
	return f.FetchDetailComments(ctx, c)
}

func (o *Orchestrator) reportPhase(ctx context.Context, jobID, phase string) {
	if o.cfg.Progress == nil || jobID == "" {
		return
	}
	o.cfg.Progress.SetPhase(ctx, jobID, phase)
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Milliseconds()) / 1000
}
