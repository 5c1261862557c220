package service

import "errors"

// Common service errors.
var (
	// ErrInvalidState is returned when an operation is not allowed in the
	// job's current status, for example cancelling a job that is already
	// applying or requesting a preview before generation has finished.
	ErrInvalidState = errors.New("operation not allowed in current job state")

	// ErrMissingCredential is returned when an operation that calls the
	// generation backend is requested without an API credential.
	ErrMissingCredential = errors.New("API credential is required")

	// ErrPlanNotReady is returned when a preview or apply is requested
	// before a generated plan exists.
	ErrPlanNotReady = errors.New("no generated plan available")
)
