package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/daybreak-app/daybreak-api/internal/domain"
	"github.com/daybreak-app/daybreak-api/internal/domain/resolve"
	"github.com/daybreak-app/daybreak-api/internal/service"
	"github.com/daybreak-app/daybreak-api/internal/service/auth"
	"github.com/daybreak-app/daybreak-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var validationErr *resolve.ValidationError

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors: the job's status does not allow the operation
	case errors.Is(err, store.ErrStatusConflict),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrPlanNotReady),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict

	// Draft resolution failures: the plan itself is unsound
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, service.ErrMissingCredential),
		errors.Is(err, domain.ErrInvalidSourceType):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErr *resolve.ValidationError

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"

	case errors.Is(err, store.ErrImportJobNotFound):
		return "Import job not found"

	case errors.Is(err, store.ErrProgramNotFound):
		return "Program not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrStatusConflict):
		return "The import job changed state; refresh and try again"

	case errors.Is(err, service.ErrInvalidState):
		return "Operation not allowed in the job's current state"

	case errors.Is(err, service.ErrPlanNotReady):
		return "No generated plan is available yet"

	case errors.Is(err, service.ErrMissingCredential):
		return "An API credential is required for this operation"

	// Resolution errors are user-actionable: the full issue list tells the
	// reviewer what to fix in the plan.
	case errors.As(err, &validationErr):
		return validationErr.Error()

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'StartImportRequest.APIKey' Error:Field
	// validation for 'APIKey' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "gte":
		return "value too small"
	default:
		return "validation failed"
	}
}
