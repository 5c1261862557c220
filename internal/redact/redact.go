// Package redact provides utilities for redacting sensitive information from
// strings before they are logged or persisted on an import job. Stage errors
// are written to the database verbatim otherwise, so anything that could
// carry an API credential or connection string passes through here first.
package redact

import "regexp"

// Constants for redaction placeholders
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
)

// Precompiled regex patterns
var (
	// Database connection strings with embedded credentials
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql|mongodb)://[^@\s]+@`)

	// API keys and bearer tokens; covers the Gemini-style AIza prefix and
	// generic key=value shapes in wrapped error strings.
	googleKeyRegex = regexp.MustCompile(`AIza[0-9A-Za-z_\-]{10,}`)
	apiKeyRegex    = regexp.MustCompile(
		`(?i)(api[_-]?key|x-goog-api-key|token|secret|credential)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	// JWT tokens (three base64url segments)
	jwtTokenRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)
)

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := dbConnRegex.ReplaceAllString(input, RedactedCredentialPlaceholder)
	result = googleKeyRegex.ReplaceAllString(result, RedactedKeyPlaceholder)
	result = apiKeyRegex.ReplaceAllString(result, "${1}${2}"+RedactedKeyPlaceholder)
	result = jwtTokenRegex.ReplaceAllString(result, RedactedKeyPlaceholder)

	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
