package domain

import "time"

// ValidationStatus enumerates the lifecycle states of a validation job.
type ValidationStatus string

const (
	ValidationPending        ValidationStatus = "pending"
	ValidationProcessing     ValidationStatus = "processing"
	ValidationCompleted      ValidationStatus = "completed"
	ValidationPartialSuccess ValidationStatus = "partial_success"
	ValidationFailed         ValidationStatus = "failed"
)

// Validation is one user-submitted business idea and the state of its
// validation run.
type Validation struct {
	ID                  string           `json:"id" db:"id"`
	IdeaText            string           `json:"idea_text" db:"idea_text"`
	Status              ValidationStatus `json:"status" db:"status"`
	ErrorMessage        string           `json:"error_message,omitempty" db:"error_message"`
	ProcessingStartedAt *time.Time       `json:"processing_started_at,omitempty" db:"processing_started_at"`
	CompletedAt         *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
}

// JobStatusFor maps per-source outcome counts to the job-level status the
// store surfaces to pollers: completed when every attempted source succeeded,
// partial_success on a mix, failed when nothing succeeded.
func JobStatusFor(successful, partial, failed int) ValidationStatus {
	switch {
	case successful == 0 && partial == 0:
		return ValidationFailed
	case failed > 0 || partial > 0:
		return ValidationPartialSuccess
	default:
		return ValidationCompleted
	}
}
