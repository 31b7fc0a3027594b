// internal/errors/errors.go
package errors

import (
	"fmt"
	"time"

	"github-catalog-sync/internal/model"
)

// ErrScopeNotConfigured is returned when a sync is requested but no
// owner/organization scope has been configured.
type ErrScopeNotConfigured struct{}

func (e *ErrScopeNotConfigured) Error() string {
	return "no sync scope configured: set SYNC_SCOPE to a GitHub owner or organization name"
}

// ErrEndpointUnavailable is returned when both the organization and the
// user listing endpoints failed, or the response body could not be decoded.
// The catalog is left untouched when this error is returned.
type ErrEndpointUnavailable struct {
	Scope  string
	Reason string
}

func (e *ErrEndpointUnavailable) Error() string {
	return fmt.Sprintf("repository listing for %q unavailable: %s", e.Scope, e.Reason)
}

// RateLimitError is returned on 401/403/429 responses. It is never retried;
// the attached snapshot lets the caller report when to try again.
type RateLimitError struct {
	Status    int
	RateLimit model.RateLimit
}

func (e *RateLimitError) Error() string {
	if !e.RateLimit.Reset.IsZero() {
		return fmt.Sprintf("github request rejected with status %d, rate limit resets at %s",
			e.Status, e.RateLimit.Reset.Format(time.RFC3339))
	}
	return fmt.Sprintf("github request rejected with status %d", e.Status)
}
