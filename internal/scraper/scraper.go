// Package scraper defines the contract every data-source integration
// implements, plus the shared helpers (query generation, rate-limit pacing,
// confidence and pricing heuristics) that keep the per-source packages thin.
package scraper

import (
	"context"

	"github.com/ignite/idea-validator/internal/domain"
)

// SourceScraper is implemented once per external data source. Scrape must
// not return an error for expected failures (rate limits, 404s, empty
// results); those are folded into the ScrapingResult status. An error
// return is reserved for unexpected breakage and is bucketed as a source
// failure by the orchestrator.
type SourceScraper interface {
	// Name is the stable human identifier used in result metadata.
	Name() string

	// ValidateConfig verifies keys, limits and country/language lists.
	// Called once at registration; a non-nil error keeps the scraper out
	// of the rotation.
	ValidateConfig() error

	// Scrape runs the source's bounded query plan for one idea. It must
	// observe ctx cancellation at query boundaries.
	Scrape(ctx context.Context, keywords []string, ideaText string) (*domain.ScrapingResult, error)

	// Close releases external sessions (HTTP clients, browser handles).
	// The orchestrator calls it for every registered scraper on shutdown.
	Close() error
}

// DetailFetcher is the optional enrichment hook. The orchestrator calls it
// for up to three top competitors after the fan-out phase; implementations
// must respect their own rate limits and never panic.
type DetailFetcher interface {
	FetchDetailComments(ctx context.Context, c domain.CompetitorRecord) []domain.CommentRecord
}

// StatusFor maps a scraper's per-query tallies to its result status:
// success when every attempted query succeeded, partial_success on a mix,
// failed when nothing succeeded.
func StatusFor(successful, failed int) domain.ScrapeStatus {
	switch {
	case successful > 0 && failed == 0:
		return domain.ScrapeSuccess
	case successful > 0:
		return domain.ScrapePartialSuccess
	default:
		return domain.ScrapeFailed
	}
}

// Confidence computes a record's confidence score from a starting belief,
// dropping a fixed penalty for each missing mandatory field. The result
// never leaves [0, 1].
func Confidence(start float64, missingFields int) float64 {
	score := start - 0.1*float64(missingFields)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// PricingModel infers a display pricing tag from store listing flags:
// Free when the listing is free with no in-app purchases, Freemium when
// free with purchases, "Paid (<display>)" when a price string is known,
// plain Paid otherwise.
func PricingModel(free, hasInAppPurchases bool, displayPrice string) string {
	if free {
		if hasInAppPurchases {
			return "Freemium"
		}
		return "Free"
	}
	if displayPrice != "" {
		return "Paid (" + displayPrice + ")"
	}
	return "Paid"
}
