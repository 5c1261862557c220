package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrAnalysisFailed is returned when document analysis fails for any general reason
	ErrAnalysisFailed = errors.New("failed to analyze document content")

	// ErrGenerationFailed is returned when plan generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate plan from analysis")

	// ErrInvalidResponse is returned when the LLM response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrInvalidConfig is returned when the capability configuration is invalid
	ErrInvalidConfig = errors.New("invalid generation configuration")

	// ErrMissingCredential is returned when a request carries no API credential
	ErrMissingCredential = errors.New("missing API credential")
)
