// internal/model/models.go
package model

import (
	"time"
)

// RemoteRepository is the shape of one repository object as returned by the
// GitHub listing endpoints. It is fetched fresh on every sync and never
// persisted directly; the reconciler maps it into a catalog entry.
type RemoteRepository struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	Description *string `json:"description"`
	HTMLURL     string  `json:"html_url"`
	CloneURL    string  `json:"clone_url"`
	Language    *string `json:"language"`
	Private     bool    `json:"private"`
	Archived    bool    `json:"archived"`
}

// Visibility returns the catalog visibility label for the repository.
func (r RemoteRepository) Visibility() string {
	if r.Private {
		return "private"
	}
	return "public"
}

// LanguageOrUnknown returns the primary language label, or "unknown" when
// GitHub reports none.
func (r RemoteRepository) LanguageOrUnknown() string {
	if r.Language == nil || *r.Language == "" {
		return "unknown"
	}
	return *r.Language
}

// RateLimit is the rate-limit snapshot parsed from GitHub's response
// headers. Limit and Remaining are -1 and Reset is the zero time when the
// corresponding header was missing or malformed.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

// UnknownRateLimit returns a snapshot with every field unknown.
func UnknownRateLimit() RateLimit {
	return RateLimit{Limit: -1, Remaining: -1}
}

// ItemError records a single repository that failed to persist during
// reconciliation.
type ItemError struct {
	RemoteID int64  `json:"remote_id"`
	Name     string `json:"name"`
	Message  string `json:"message"`
}

// SyncResult summarizes one full synchronization run.
type SyncResult struct {
	Inserted    int         `json:"inserted"`
	Updated     int         `json:"updated"`
	Deactivated int         `json:"deactivated"`
	Failed      int         `json:"failed"`
	Errors      []ItemError `json:"errors,omitempty"`
	RateLimit   RateLimit   `json:"rate_limit"`
}
