// internal/database/models.go
package database

import (
	"database/sql"
	"time"
)

// CatalogEntry is the persisted record for one synchronized repository.
// RemoteID is the stable GitHub identifier and the sole reconciliation key;
// names are not reliable because repositories can be renamed upstream.
type CatalogEntry struct {
	ID           int64
	RemoteID     int64
	Name         string
	FullName     string
	Description  sql.NullString
	HTMLURL      string
	CloneURL     string
	Language     string
	Visibility   string
	Active       bool
	ETag         sql.NullString
	LastSyncedAt sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InsertEntryParams carries the fields for a new catalog entry.
type InsertEntryParams struct {
	RemoteID    int64
	Name        string
	FullName    string
	Description sql.NullString
	HTMLURL     string
	CloneURL    string
	Language    string
	Visibility  string
	Active      bool
}

// UpdateEntryParams carries the mutable fields refreshed on every sync.
// The active flag is intentionally absent: sync never re-activates an
// entry an operator disabled.
type UpdateEntryParams struct {
	ID          int64
	Name        string
	FullName    string
	Description sql.NullString
	HTMLURL     string
	CloneURL    string
	Language    string
	Visibility  string
}
