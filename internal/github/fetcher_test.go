// internal/github/fetcher_test.go
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	custom_errors "github-catalog-sync/internal/errors"
	"github-catalog-sync/internal/model"
)

// fakeTransport serves canned results per URL and counts calls.
type fakeTransport struct {
	calls     int
	responses map[string]Result
	err       error
	lastETag  string
}

func (f *fakeTransport) Get(_ context.Context, url, etag string) (Result, error) {
	f.calls++
	f.lastETag = etag
	if f.err != nil {
		return Result{}, f.err
	}
	res, ok := f.responses[url]
	if !ok {
		return Result{Status: http.StatusNotFound, RateLimit: model.UnknownRateLimit()}, nil
	}
	return res, nil
}

func newTestFetcher(t *testing.T, transport transportClient) *Fetcher {
	t.Helper()
	return &Fetcher{
		transport: transport,
		cache:     NewListingCache(t.TempDir(), 15*time.Minute),
		baseURL:   "https://api.example.test",
		pageSize:  defaultPageSize,
		limiter:   rate.NewLimiter(rate.Inf, 1),
		logger:    testLogger(),
	}
}

func reposPage(startID, n int) []model.RemoteRepository {
	repos := make([]model.RemoteRepository, n)
	for i := range repos {
		id := int64(startID + i)
		repos[i] = model.RemoteRepository{
			ID:       id,
			Name:     fmt.Sprintf("repo-%d", id),
			FullName: fmt.Sprintf("acme/repo-%d", id),
			HTMLURL:  fmt.Sprintf("https://example.test/acme/repo-%d", id),
			CloneURL: fmt.Sprintf("https://example.test/acme/repo-%d.git", id),
		}
	}
	return repos
}

func okPage(t *testing.T, repos []model.RemoteRepository) Result {
	t.Helper()
	body, err := json.Marshal(repos)
	require.NoError(t, err)
	return Result{Status: http.StatusOK, Body: body, RateLimit: model.UnknownRateLimit()}
}

func orgPageURL(page int) string {
	return fmt.Sprintf("https://api.example.test/orgs/acme/repos?per_page=%d&page=%d", defaultPageSize, page)
}

func userPageURL(page int) string {
	return fmt.Sprintf("https://api.example.test/users/acme/repos?per_page=%d&page=%d", defaultPageSize, page)
}

func TestFetcher_FetchAll(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates pages until a short page terminates the walk", func(t *testing.T) {
		// Pages of 100, 100 and 37 must yield 237 items in 3 calls.
		transport := &fakeTransport{responses: map[string]Result{
			orgPageURL(1): okPage(t, reposPage(1, 100)),
			orgPageURL(2): okPage(t, reposPage(101, 100)),
			orgPageURL(3): okPage(t, reposPage(201, 37)),
		}}
		fetcher := newTestFetcher(t, transport)

		repos, _, err := fetcher.FetchAll(ctx, "acme")

		require.NoError(t, err)
		assert.Len(t, repos, 237)
		assert.Equal(t, 3, transport.calls)
		assert.Equal(t, int64(1), repos[0].ID)
		assert.Equal(t, int64(237), repos[236].ID)
	})

	t.Run("a Link header without rel=next ends the walk even on a full page", func(t *testing.T) {
		full := okPage(t, reposPage(1, 100))
		full.Link = `<https://api.example.test/orgs/acme/repos?page=1>; rel="prev"`
		transport := &fakeTransport{responses: map[string]Result{
			orgPageURL(1): full,
		}}
		fetcher := newTestFetcher(t, transport)

		repos, _, err := fetcher.FetchAll(ctx, "acme")

		require.NoError(t, err)
		assert.Len(t, repos, 100)
		assert.Equal(t, 1, transport.calls, "Link header saves the extra empty-page request")
	})

	t.Run("falls back to the user endpoint when the org endpoint is inaccessible", func(t *testing.T) {
		transport := &fakeTransport{responses: map[string]Result{
			userPageURL(1): okPage(t, reposPage(1, 3)),
		}}
		fetcher := newTestFetcher(t, transport)

		repos, _, err := fetcher.FetchAll(ctx, "acme")

		require.NoError(t, err)
		assert.Len(t, repos, 3)
		assert.Equal(t, 2, transport.calls, "one org attempt, one user attempt")
	})

	t.Run("returns EndpointUnavailable when both endpoints fail", func(t *testing.T) {
		transport := &fakeTransport{responses: map[string]Result{}}
		fetcher := newTestFetcher(t, transport)

		_, _, err := fetcher.FetchAll(ctx, "acme")

		var unavailErr *custom_errors.ErrEndpointUnavailable
		require.ErrorAs(t, err, &unavailErr)
		assert.Equal(t, "acme", unavailErr.Scope)
	})

	t.Run("returns EndpointUnavailable on undecodable body without trying the fallback", func(t *testing.T) {
		transport := &fakeTransport{responses: map[string]Result{
			orgPageURL(1): {Status: http.StatusOK, Body: []byte(`<html>nope</html>`), RateLimit: model.UnknownRateLimit()},
		}}
		fetcher := newTestFetcher(t, transport)

		_, _, err := fetcher.FetchAll(ctx, "acme")

		var unavailErr *custom_errors.ErrEndpointUnavailable
		require.ErrorAs(t, err, &unavailErr)
		assert.Equal(t, 1, transport.calls)
	})

	t.Run("surfaces rate limiting immediately with the snapshot", func(t *testing.T) {
		reset := time.Now().Add(20 * time.Minute)
		transport := &fakeTransport{responses: map[string]Result{
			orgPageURL(1): {
				Status:    http.StatusForbidden,
				RateLimit: model.RateLimit{Limit: 60, Remaining: 0, Reset: reset},
			},
		}}
		fetcher := newTestFetcher(t, transport)

		_, rl, err := fetcher.FetchAll(ctx, "acme")

		var rlErr *custom_errors.RateLimitError
		require.ErrorAs(t, err, &rlErr)
		assert.Equal(t, http.StatusForbidden, rlErr.Status)
		assert.Equal(t, 0, rl.Remaining)
		assert.Equal(t, 1, transport.calls, "rate limit errors must not trigger the fallback endpoint")
	})

	t.Run("fresh cache short-circuits the network entirely", func(t *testing.T) {
		transport := &fakeTransport{responses: map[string]Result{
			orgPageURL(1): okPage(t, reposPage(1, 5)),
		}}
		fetcher := newTestFetcher(t, transport)

		first, _, err := fetcher.FetchAll(ctx, "acme")
		require.NoError(t, err)
		require.Len(t, first, 5)
		require.Equal(t, 1, transport.calls)

		second, _, err := fetcher.FetchAll(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, transport.calls, "second fetch must not touch the network")
	})

	t.Run("304 with a cached payload reuses the cached set", func(t *testing.T) {
		transport := &fakeTransport{responses: map[string]Result{
			orgPageURL(1): {
				Status: http.StatusOK,
				Body:   mustJSON(t, reposPage(1, 4)),
				ETag:   `"v1"`,
			},
		}}
		fetcher := newTestFetcher(t, transport)

		first, _, err := fetcher.FetchAll(ctx, "acme")
		require.NoError(t, err)
		require.Len(t, first, 4)

		// Age the cache past its freshness window, keeping the ETag.
		cached, ok := fetcher.cache.Load("acme")
		require.True(t, ok)
		cached.FetchedAt = time.Now().Add(-time.Hour)
		require.NoError(t, rewriteListing(fetcher.cache, cached))

		transport.responses[orgPageURL(1)] = Result{Status: http.StatusNotModified, ETag: `"v1"`, RateLimit: model.UnknownRateLimit()}

		second, _, err := fetcher.FetchAll(ctx, "acme")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, `"v1"`, transport.lastETag, "stale cache's ETag must be sent conditionally")
		assert.Equal(t, 2, transport.calls, "the 304 costs exactly one request")
	})

	t.Run("propagates exhausted-retry transport errors via the fallback path", func(t *testing.T) {
		transport := &fakeTransport{err: errors.New("dial tcp: connection refused")}
		fetcher := newTestFetcher(t, transport)

		_, _, err := fetcher.FetchAll(ctx, "acme")

		var unavailErr *custom_errors.ErrEndpointUnavailable
		require.ErrorAs(t, err, &unavailErr)
		assert.Equal(t, 2, transport.calls, "both endpoints are attempted before giving up")
	})
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// rewriteListing writes a listing snapshot verbatim, bypassing Store's
// fetched-at stamping so tests can age the cache.
func rewriteListing(c *ListingCache, l *cachedListing) error {
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(l.Scope), data, 0o644)
}
