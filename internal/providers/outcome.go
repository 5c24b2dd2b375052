// Package providers holds the shared error-classification helpers used by the
// per-provider adapter packages. Adapters fail fast with a typed failure; the
// coordinator owns all retry-by-falling-through-tiers behavior.
package providers

import (
	"net/http"
	"strings"

	"reelforge/server/internal/domain"
)

// FailureFromStatus maps an HTTP status to the generation failure taxonomy.
func FailureFromStatus(provider string, status int, body string) *domain.Failure {
	msg := strings.TrimSpace(body)
	if len(msg) > 512 {
		msg = msg[:512]
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.NewFailure(domain.FailureAuth, provider, "status %d: %s", status, msg)
	case status == http.StatusTooManyRequests:
		return domain.NewFailure(domain.FailureRateLimited, provider, "status %d: %s", status, msg)
	default:
		return domain.NewFailure(domain.FailureProvider, provider, "status %d: %s", status, msg)
	}
}

// TransportFailure wraps a client-side transport error.
func TransportFailure(provider string, err error) *domain.Failure {
	return domain.NewFailure(domain.FailureProvider, provider, "request failed: %v", err)
}

// ShapeFailure reports a well-formed response missing expected fields.
func ShapeFailure(provider, detail string) *domain.Failure {
	return domain.NewFailure(domain.FailureUnexpectedShape, provider, "%s", detail)
}

// MissingCredential reports a provider invoked without its credential.
func MissingCredential(provider string) *domain.Failure {
	return domain.NewFailure(domain.FailureAuth, provider, "credential not configured")
}
