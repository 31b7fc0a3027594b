// internal/github/transport.go
package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github-catalog-sync/internal/model"
)

const (
	userAgent    = "github-catalog-sync"
	acceptHeader = "application/vnd.github+json"

	requestTimeout = 10 * time.Second
	// maxRetries is the number of retries after the first attempt, so a
	// budget of 2 allows 3 attempts in total.
	maxRetries = 2
	retryDelay = 300 * time.Millisecond
)

// Result is the uniform envelope returned for every request. Body is nil on
// a 304 Not Modified; the caller must fall back to its cached data.
type Result struct {
	Status    int
	Body      []byte
	ETag      string
	Link      string
	RateLimit model.RateLimit
}

// Transport issues single authenticated GET requests against the GitHub
// API. It knows nothing about pagination or repository payloads.
type Transport struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewTransport creates a Transport. An empty token leaves requests
// unauthenticated, which GitHub serves against a much lower rate limit.
func NewTransport(token string, logger *slog.Logger) *Transport {
	rt := http.DefaultTransport
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		rt = &oauth2.Transport{Source: ts, Base: http.DefaultTransport}
	}

	return &Transport{
		httpClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: rt,
		},
		logger: logger,
	}
}

// Get performs one GET against url. A non-empty etag is sent as
// If-None-Match. Connection failures and 502/503/504 are retried up to
// maxRetries with a fixed delay; all other statuses are returned as-is so
// the caller can branch on them.
func (t *Transport) Get(ctx context.Context, url, etag string) (Result, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			t.logger.Debug("Retrying request", "url", url, "attempt", attempt+1)
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return Result{}, ctx.Err()
			}
		}

		res, err := t.do(ctx, url, etag)
		if err != nil {
			lastErr = err
			continue
		}
		if isTransientStatus(res.Status) {
			lastErr = fmt.Errorf("github responded with transient status %d for %s", res.Status, url)
			continue
		}
		return res, nil
	}

	return Result{}, fmt.Errorf("request to %s failed after %d attempts: %w", url, maxRetries+1, lastErr)
}

func (t *Transport) do(ctx context.Context, url, etag string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	res := Result{
		Status:    resp.StatusCode,
		ETag:      resp.Header.Get("ETag"),
		Link:      resp.Header.Get("Link"),
		RateLimit: parseRateLimit(resp.Header),
	}

	if resp.StatusCode == http.StatusNotModified {
		return res, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}
	res.Body = body
	return res, nil
}

func isTransientStatus(status int) bool {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// parseRateLimit extracts GitHub's rate-limit headers. Missing or malformed
// values degrade to the unknown snapshot, never to an error.
func parseRateLimit(h http.Header) model.RateLimit {
	rl := model.UnknownRateLimit()

	if v, err := strconv.Atoi(h.Get("X-RateLimit-Limit")); err == nil {
		rl.Limit = v
	}
	if v, err := strconv.Atoi(h.Get("X-RateLimit-Remaining")); err == nil {
		rl.Remaining = v
	}
	if v, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		rl.Reset = time.Unix(v, 0).UTC()
	}

	return rl
}
