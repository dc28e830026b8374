package validation

import "errors"

// Sentinel errors for the validation service layer.
var (
	ErrNotFound          = errors.New("validation not found")
	ErrAlreadyProcessing = errors.New("validation is already being processed")
	ErrIdeaTooShort      = errors.New("idea text must be at least 10 characters")
	ErrIdeaTooLong       = errors.New("idea text must be at most 5000 characters")
)
