package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/idea-validator/internal/domain"
)

func comp(name, website string) domain.CompetitorRecord {
	return domain.CompetitorRecord{Name: name, Website: website, Source: "test", SourceURL: "u"}
}

func fb(text string) domain.FeedbackRecord {
	return domain.FeedbackRecord{Text: text, Source: "test"}
}

func TestCompetitorsFirstWins(t *testing.T) {
	in := []domain.CompetitorRecord{
		comp("  Alpha  ", ""),
		comp("alpha", ""),
		comp("ALPHA", ""),
		comp("Beta", ""),
	}
	out := Competitors(in)
	require.Len(t, out, 2)
	assert.Equal(t, "  Alpha  ", out[0].Name)
	assert.Equal(t, "Beta", out[1].Name)
}

func TestCompetitorsDropsShortNames(t *testing.T) {
	in := []domain.CompetitorRecord{comp("x", ""), comp(" ", ""), comp("Ok", "")}
	out := Competitors(in)
	require.Len(t, out, 1)
	assert.Equal(t, "Ok", out[0].Name)
}

func TestCompetitorsDedupByDomain(t *testing.T) {
	in := []domain.CompetitorRecord{
		comp("Alpha", "https://www.alpha.io/home"),
		comp("Alpha App", "http://alpha.io"),
		comp("Gamma", "https://gamma.dev"),
	}
	out := Competitors(in)
	require.Len(t, out, 2)
	assert.Equal(t, "Alpha", out[0].Name)
	assert.Equal(t, "Gamma", out[1].Name)
}

func TestCompetitorsStableOrder(t *testing.T) {
	in := []domain.CompetitorRecord{comp("c", ""), comp("a", ""), comp("b", "")}
	out := Competitors(in)
	require.Len(t, out, 3)
	assert.Equal(t, "c", out[0].Name)
	assert.Equal(t, "a", out[1].Name)
	assert.Equal(t, "b", out[2].Name)
}

func TestCompetitorsIdempotent(t *testing.T) {
	in := []domain.CompetitorRecord{
		comp("Alpha", "alpha.io"), comp("alpha", ""), comp("Beta", ""), comp("x", ""),
	}
	once := Competitors(in)
	twice := Competitors(once)
	assert.Equal(t, once, twice)
}

func TestFeedbackPrefixKey(t *testing.T) {
	long := "this review text is quite long and definitely exceeds fifty characters in total length"
	in := []domain.FeedbackRecord{
		fb(long),
		fb(long + " with extra trailing content that differs"),
		fb("a completely different opinion about the product"),
	}
	out := Feedback(in)
	require.Len(t, out, 2)
	assert.Equal(t, long, out[0].Text)
}

func TestFeedbackDropsShortTexts(t *testing.T) {
	in := []domain.FeedbackRecord{fb("too short"), fb("this one is long enough to keep")}
	out := Feedback(in)
	require.Len(t, out, 1)
}

func TestFeedbackCaseInsensitive(t *testing.T) {
	in := []domain.FeedbackRecord{
		fb("Great App For Tracking Budgets"),
		fb("great app for tracking budgets"),
	}
	out := Feedback(in)
	assert.Len(t, out, 1)
}

func TestFeedbackIdempotent(t *testing.T) {
	in := []domain.FeedbackRecord{
		fb("first unique feedback entry"),
		fb("second unique feedback entry"),
		fb("first unique feedback entry"),
	}
	once := Feedback(in)
	twice := Feedback(once)
	assert.Equal(t, once, twice)
}

func TestWebsiteKey(t *testing.T) {
	assert.Equal(t, "alpha.io", websiteKey("https://www.alpha.io/pricing?x=1"))
	assert.Equal(t, "alpha.io", websiteKey("ALPHA.IO"))
	assert.Empty(t, websiteKey(""))
}
