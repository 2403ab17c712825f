// Package logging provides helpers for keeping credentials out of log output.
package logging

import (
	"regexp"
)

const (
	// MaxBodyLogLength is the maximum length of an upstream response body to log
	MaxBodyLogLength = 512
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Pattern to match potential passwords in connection strings
	// Matches: password=xxx, pwd=xxx, pass=xxx (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Pattern to match OAuth client secrets and tokens in form-encoded data
	clientSecretPattern = regexp.MustCompile(`(?i)(client_secret|access_token|refresh_token)=[^;&\s]+`)

	// Pattern to match bearer tokens (JWT or opaque)
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_.]+`)

	// Pattern to match potential API keys
	apiKeyPattern = regexp.MustCompile(`(?i)(x-api-key|api[_-]?key|apikey)[=:]\s*[A-Za-z0-9-_]{16,}`)

	// Pattern to match connection string credentials (user:pass@host format)
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)
)

// SanitizeConnectionString removes credentials from a database connection
// string so it can be logged at startup.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeError strips credentials from error messages before logging.
// Errors bubbling up from HTTP clients can embed the full request URL,
// including form-encoded secrets.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeBody(err.Error())
}

// SanitizeBody truncates an upstream response body and removes anything
// that looks like a token, secret or API key before logging.
func SanitizeBody(body string) string {
	if body == "" {
		return ""
	}

	sanitized := body
	if len(sanitized) > MaxBodyLogLength {
		sanitized = sanitized[:MaxBodyLogLength] + "..."
	}

	sanitized = passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = clientSecretPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = bearerPattern.ReplaceAllString(sanitized, "Bearer "+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}
