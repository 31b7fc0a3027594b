// internal/github/fetcher.go
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	custom_errors "github-catalog-sync/internal/errors"
	"github-catalog-sync/internal/model"
)

const defaultPageSize = 100

// transportClient is the slice of Transport the fetcher needs; tests swap in
// a counting fake.
type transportClient interface {
	Get(ctx context.Context, url, etag string) (Result, error)
}

// errEndpointStatus signals a non-200 from a listing endpoint so the caller
// can try the fallback endpoint before giving up.
type errEndpointStatus struct {
	url    string
	status int
}

func (e *errEndpointStatus) Error() string {
	return fmt.Sprintf("listing endpoint %s returned status %d", e.url, e.status)
}

// Fetcher aggregates a scope's full repository listing across pages, with a
// time-boxed disk cache in front of the network.
type Fetcher struct {
	transport transportClient
	cache     *ListingCache
	baseURL   string
	pageSize  int
	// limiter paces page requests; GitHub's secondary limits punish bursts.
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewFetcher creates a Fetcher against baseURL (e.g. https://api.github.com).
func NewFetcher(transport *Transport, cache *ListingCache, baseURL string, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		transport: transport,
		cache:     cache,
		baseURL:   baseURL,
		pageSize:  defaultPageSize,
		limiter:   rate.NewLimiter(rate.Limit(2), 1),
		logger:    logger,
	}
}

// FetchAll returns the complete repository listing for scope, together with
// the rate-limit snapshot observed on the last live call. A fresh cache
// short-circuits the network entirely; a stale cache's ETag is offered as a
// conditional request so an unchanged listing costs one cheap 304.
//
// The organization endpoint is tried first; if it is inaccessible the user
// endpoint is tried for the same scope name. Both failing, or an
// undecodable body, yields ErrEndpointUnavailable and no partial data.
func (f *Fetcher) FetchAll(ctx context.Context, scope string) ([]model.RemoteRepository, model.RateLimit, error) {
	cached, haveCache := f.cache.Load(scope)
	if haveCache && f.cache.Fresh(cached) {
		f.logger.Info("Serving repository listing from cache", "scope", scope, "count", len(cached.Repositories))
		return cached.Repositories, model.UnknownRateLimit(), nil
	}

	etag := ""
	if haveCache {
		etag = cached.ETag
	}

	orgURL := fmt.Sprintf("%s/orgs/%s/repos", f.baseURL, scope)
	userURL := fmt.Sprintf("%s/users/%s/repos", f.baseURL, scope)

	repos, newETag, rl, err := f.fetchPages(ctx, orgURL, etag, cached)
	if err != nil {
		if !fallbackWorthy(err) {
			return nil, rl, err
		}
		f.logger.Info("Organization listing inaccessible, trying user endpoint",
			"scope", scope, "error", err)
		repos, newETag, rl, err = f.fetchPages(ctx, userURL, etag, cached)
		if err != nil {
			if !fallbackWorthy(err) {
				return nil, rl, err
			}
			return nil, rl, &custom_errors.ErrEndpointUnavailable{Scope: scope, Reason: err.Error()}
		}
	}

	if len(repos) > 0 {
		if err := f.cache.Store(scope, newETag, repos); err != nil {
			f.logger.Warn("Failed to write listing cache", "scope", scope, "error", err)
		}
	}

	return repos, rl, nil
}

// fallbackWorthy reports whether an endpoint failure justifies trying the
// alternate listing endpoint. Rate-limit rejections, decode failures and
// cancellation would fail there too and propagate as-is.
func fallbackWorthy(err error) bool {
	var rlErr *custom_errors.RateLimitError
	var unavailErr *custom_errors.ErrEndpointUnavailable
	switch {
	case errors.As(err, &rlErr), errors.As(err, &unavailErr):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// fetchPages walks the paginated listing at listURL, returning the
// aggregated items and the first page's ETag.
func (f *Fetcher) fetchPages(ctx context.Context, listURL, etag string, cached *cachedListing) ([]model.RemoteRepository, string, model.RateLimit, error) {
	var all []model.RemoteRepository
	var firstPageETag string
	rl := model.UnknownRateLimit()

	for page := 1; ; page++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, "", rl, err
		}

		url := fmt.Sprintf("%s?per_page=%d&page=%d", listURL, f.pageSize, page)

		// Only page 1 is conditional; later pages have no stored token.
		pageETag := ""
		if page == 1 {
			pageETag = etag
		}

		res, err := f.transport.Get(ctx, url, pageETag)
		if err != nil {
			return nil, "", rl, err
		}
		rl = res.RateLimit

		switch {
		case res.Status == http.StatusNotModified:
			if cached == nil {
				return nil, "", rl, &errEndpointStatus{url: url, status: res.Status}
			}
			f.logger.Info("Listing unchanged upstream, reusing cached set",
				"scope", cached.Scope, "count", len(cached.Repositories))
			return cached.Repositories, etag, rl, nil

		case res.Status == http.StatusUnauthorized,
			res.Status == http.StatusForbidden,
			res.Status == http.StatusTooManyRequests:
			return nil, "", rl, &custom_errors.RateLimitError{Status: res.Status, RateLimit: rl}

		case res.Status != http.StatusOK:
			return nil, "", rl, &errEndpointStatus{url: url, status: res.Status}
		}

		if page == 1 {
			firstPageETag = res.ETag
		}

		var items []model.RemoteRepository
		if err := json.Unmarshal(res.Body, &items); err != nil {
			return nil, "", rl, &custom_errors.ErrEndpointUnavailable{
				Scope:  listURL,
				Reason: fmt.Sprintf("decoding page %d: %v", page, err),
			}
		}

		f.logger.Debug("Fetched listing page", "url", listURL, "page", page, "items", len(items))
		all = append(all, items...)

		if !hasNextPage(res.Link, len(items), f.pageSize) {
			return all, firstPageETag, rl, nil
		}
	}
}

// hasNextPage prefers GitHub's Link header when present; without one it
// falls back to the full-page heuristic, where a listing that is an exact
// multiple of the page size costs one extra empty-page request.
func hasNextPage(linkHeader string, got, pageSize int) bool {
	if linkHeader != "" {
		return strings.Contains(linkHeader, `rel="next"`)
	}
	return got == pageSize
}
