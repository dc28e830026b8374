// Package domain contains the shared data model for idea validation:
// competitor and feedback records emitted by source scrapers, sentiment
// aggregates computed during post-processing, and the aggregated result
// the orchestrator hands to the storage layer.
package domain
