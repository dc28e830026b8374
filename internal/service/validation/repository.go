package validation

import (
	"context"

	"github.com/ignite/idea-validator/internal/domain"
)

// Repository defines the data access contract for validation jobs.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Create inserts a new validation in pending status and returns its ID.
	Create(ctx context.Context, v *domain.Validation) (string, error)

	// Get returns a single validation. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Validation, error)

	// MarkProcessing transitions a validation to processing and stamps
	// processing_started_at. Returns ErrAlreadyProcessing when the job is
	// already in processing status.
	MarkProcessing(ctx context.Context, id string) error

	// Finish stamps completed_at and sets the terminal status, with an
	// optional error message for failed runs.
	Finish(ctx context.Context, id string, status domain.ValidationStatus, errMsg string) error

	// SaveResults persists the aggregated competitors, feedback and run
	// metadata for a completed job, replacing any results from a prior run.
	SaveResults(ctx context.Context, id string, result *domain.AggregatedResult) error

	// GetResults loads the stored aggregate for a validation, or nil when
	// the job has not produced results yet.
	GetResults(ctx context.Context, id string) (*domain.AggregatedResult, error)
}
