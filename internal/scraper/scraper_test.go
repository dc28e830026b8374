package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/idea-validator/internal/domain"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, domain.ScrapeSuccess, StatusFor(3, 0))
	assert.Equal(t, domain.ScrapePartialSuccess, StatusFor(2, 1))
	assert.Equal(t, domain.ScrapeFailed, StatusFor(0, 3))
	assert.Equal(t, domain.ScrapeFailed, StatusFor(0, 0))
}

func TestConfidenceClamps(t *testing.T) {
	assert.Equal(t, 0.9, Confidence(0.9, 0))
	assert.InDelta(t, 0.7, Confidence(0.9, 2), 1e-9)
	assert.Equal(t, 0.0, Confidence(0.3, 5))
	assert.Equal(t, 1.0, Confidence(1.5, 0))
}

func TestPricingModel(t *testing.T) {
	assert.Equal(t, "Free", PricingModel(true, false, ""))
	assert.Equal(t, "Freemium", PricingModel(true, true, ""))
	assert.Equal(t, "Paid ($4.99)", PricingModel(false, false, "$4.99"))
	assert.Equal(t, "Paid", PricingModel(false, true, ""))
}

func TestBuildQueriesOrderAndCap(t *testing.T) {
	queries := BuildQueries([]string{"task", "manager", "teams"}, 5)
	require.Len(t, queries, 5)
	assert.Equal(t, []string{"task", "manager", "teams", "task manager", "manager teams"}, queries)
}

func TestBuildQueriesDedupes(t *testing.T) {
	queries := BuildQueries([]string{"app", "App ", "app"}, 10)
	// "app" once, then suffix variants; "app app" pairs collapse too
	assert.Equal(t, []string{"app", "app app", "app tool", "app software", "app alternative"}, queries)
}

func TestBuildQueriesSingleKeywordGetsSuffixes(t *testing.T) {
	queries := BuildQueries([]string{"budgeting"}, 4)
	assert.Equal(t, []string{"budgeting", "budgeting app", "budgeting tool", "budgeting software"}, queries)
}

func TestBuildQueriesEmpty(t *testing.T) {
	assert.Empty(t, BuildQueries(nil, 5))
	assert.Empty(t, BuildQueries([]string{"", "  "}, 5))
}

func TestBuildQueriesDefaultCap(t *testing.T) {
	kws := []string{"a1", "b2", "c3", "d4", "e5", "f6", "g7", "h8"}
	queries := BuildQueries(kws, 0)
	assert.Len(t, queries, DefaultMaxQueries)
}

func TestPacerHonorsContext(t *testing.T) {
	p := &Pacer{Min: time.Minute, Max: 2 * time.Minute}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Wait(ctx)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPacerWaitsAtLeastMin(t *testing.T) {
	p := &Pacer{Min: 10 * time.Millisecond, Max: 20 * time.Millisecond}
	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
