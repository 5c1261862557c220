package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidImportStatus is returned when an import job status is not valid.
	ErrInvalidImportStatus = errors.New("invalid import status")

	// ErrInvalidTransition is returned when an import job status change does
	// not follow an edge of the state machine.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidSourceType is returned when a source type is not one of the
	// supported document kinds.
	ErrInvalidSourceType = errors.New("invalid source type")

	// ErrEmptyDraft is returned when a draft curriculum is structurally empty.
	ErrEmptyDraft = errors.New("draft curriculum has no day plans")
)
