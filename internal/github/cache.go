// internal/github/cache.go
package github

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github-catalog-sync/internal/model"
)

// cachedListing is the on-disk snapshot of one scope's repository listing.
// It exists to avoid burning the upstream rate limit when syncs are
// triggered in quick succession.
type cachedListing struct {
	Scope        string                   `json:"scope"`
	FetchedAt    time.Time                `json:"fetched_at"`
	ETag         string                   `json:"etag,omitempty"`
	Repositories []model.RemoteRepository `json:"repositories"`
}

// ListingCache stores one JSON file per scope under dir. Concurrent writers
// for the same scope race; last writer wins, which is acceptable because
// the cache is an optimization, not a source of truth.
type ListingCache struct {
	dir string
	ttl time.Duration
}

// NewListingCache creates a cache rooted at dir with the given freshness
// window.
func NewListingCache(dir string, ttl time.Duration) *ListingCache {
	return &ListingCache{dir: dir, ttl: ttl}
}

func (c *ListingCache) path(scope string) string {
	return filepath.Join(c.dir, strings.ToLower(scope)+".json")
}

// Load reads the cached listing for scope. The second return value is false
// when no usable cache file exists.
func (c *ListingCache) Load(scope string) (*cachedListing, bool) {
	data, err := os.ReadFile(c.path(scope))
	if err != nil {
		return nil, false
	}

	var listing cachedListing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, false
	}
	return &listing, true
}

// Fresh reports whether the listing is still inside the freshness window.
func (c *ListingCache) Fresh(listing *cachedListing) bool {
	return time.Since(listing.FetchedAt) < c.ttl
}

// Store writes the listing for scope, replacing any previous snapshot.
func (c *ListingCache) Store(scope, etag string, repos []model.RemoteRepository) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	data, err := json.Marshal(cachedListing{
		Scope:        scope,
		FetchedAt:    time.Now().UTC(),
		ETag:         etag,
		Repositories: repos,
	})
	if err != nil {
		return err
	}

	return os.WriteFile(c.path(scope), data, 0o644)
}
